// Package chatclient is a small HTTP client for the conversation API,
// including a polling thread view suitable for embedding in frontends
// and bots.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Message mirrors the wire shape of a thread message.
type Message struct {
	ID        int64     `json:"id"`
	ListingID string    `json:"listing_id"`
	SenderID  string    `json:"sender_id"`
	BuyerID   string    `json:"buyer_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadListing is the listing context returned with a thread.
type ThreadListing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SellerID string `json:"seller_id"`
}

// Participant is a counterpart's public identity.
type Participant struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// Thread is one read of a conversation thread.
type Thread struct {
	Messages  []Message     `json:"messages"`
	Listing   ThreadListing `json:"listing"`
	OtherUser *Participant  `json:"other_user"`
}

// ConversationSummary is one row of the conversations list.
type ConversationSummary struct {
	ListingID      string    `json:"listing_id"`
	BuyerID        string    `json:"buyer_id"`
	ListingTitle   string    `json:"listing_title"`
	OtherUsername  string    `json:"other_username"`
	OtherAvatarURL *string   `json:"other_avatar_url"`
	LastBody       string    `json:"last_body"`
	LastSenderID   string    `json:"last_sender_id"`
	LastAt         time.Time `json:"last_at"`
}

// APIError is a structured error returned by the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Client talks to the conversation endpoints of a marketplace server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the given server. The token authenticates
// every request as a bearer credential.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMessage posts one message to the listing's thread. Sellers must set
// buyerID to name the thread they are replying to.
func (c *Client) SendMessage(ctx context.Context, listingID, body string, buyerID *string) (*Message, error) {
	payload := map[string]any{"body": body}
	if buyerID != nil {
		payload["buyer_id"] = *buyerID
	}
	var msg Message
	if err := c.do(ctx, http.MethodPost, "/api/chat/"+listingID+"/messages", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// FetchThread reads the thread. When after is set only messages persisted
// strictly later are returned; callers should still deduplicate by id.
func (c *Client) FetchThread(ctx context.Context, listingID, buyerID string, after *time.Time) (*Thread, error) {
	query := url.Values{}
	if buyerID != "" {
		query.Set("buyer_id", buyerID)
	}
	if after != nil {
		query.Set("after", after.Format(time.RFC3339Nano))
	}
	path := "/api/chat/" + listingID + "/messages"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var thread Thread
	if err := c.do(ctx, http.MethodGet, path, nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// Conversations lists the caller's conversation summaries, most recent first.
func (c *Client) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	var summaries []ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/api/chat/conversations", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		apiErr := APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error.Code != "" {
			apiErr = envelope.Error
			apiErr.Status = resp.StatusCode
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, out)
}
