package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	githubAuthorizeURL = "https://github.com/login/oauth/authorize"
	githubTokenURL     = "https://github.com/login/oauth/access_token"
	githubUserURL      = "https://api.github.com/user"
)

// GitHubProfile is the subset of the GitHub user payload we persist.
type GitHubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// GitHubClient drives the OAuth code flow against GitHub.
type GitHubClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewGitHubClient constructs the client.
func NewGitHubClient(clientID, clientSecret string) *GitHubClient {
	return &GitHubClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether OAuth credentials are present.
func (g *GitHubClient) Configured() bool {
	return g.clientID != "" && g.clientSecret != ""
}

// AuthorizeURL builds the redirect target for the login leg.
func (g *GitHubClient) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", g.clientID)
	params.Set("scope", "read:user")
	params.Set("state", state)
	return githubAuthorizeURL + "?" + params.Encode()
}

// ExchangeCode trades the callback code for an access token.
func (g *GitHubClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	payload := fmt.Sprintf(`{"client_id":%q,"client_secret":%q,"code":%q}`, g.clientID, g.clientSecret, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, githubTokenURL, strings.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		if body.Error != "" {
			return "", fmt.Errorf("github oauth: %s", body.Error)
		}
		return "", errors.New("github oauth: no access token in response")
	}
	return body.AccessToken, nil
}

// FetchProfile loads the authenticated GitHub user.
func (g *GitHubClient) FetchProfile(ctx context.Context, accessToken string) (*GitHubProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubUserURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user fetch: unexpected status %d", resp.StatusCode)
	}

	var profile GitHubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.ID == 0 || profile.Login == "" {
		return nil, errors.New("github user fetch: incomplete profile")
	}
	return &profile, nil
}
