package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// threadServer serves a scripted sequence of thread reads. Each poll consumes
// the next response; the last one repeats.
type threadServer struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
	afterSeen []string
}

type scriptedResponse struct {
	status   int
	messages []Message
}

func (s *threadServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		idx := s.calls
		if idx >= len(s.responses) {
			idx = len(s.responses) - 1
		}
		resp := s.responses[idx]
		s.calls++
		s.afterSeen = append(s.afterSeen, r.URL.Query().Get("after"))
		s.mu.Unlock()

		if resp.status >= 400 {
			w.WriteHeader(resp.status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": "INTERNAL_ERROR", "message": "boom"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": Thread{
				Messages: resp.messages,
				Listing:  ThreadListing{ID: "listing-1", Title: "credits", SellerID: "seller-1"},
			},
		})
	}
}

func (s *threadServer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testMessage(id int64, body string, at time.Time) Message {
	return Message{
		ID:        id,
		ListingID: "listing-1",
		SenderID:  "buyer-1",
		BuyerID:   "buyer-1",
		Body:      body,
		CreatedAt: at,
	}
}

func TestThreadViewInitialLoadFailure(t *testing.T) {
	srv := &threadServer{responses: []scriptedResponse{{status: 500}}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	view := NewThreadView(NewClient(ts.URL, "tok"), "listing-1", "", 10*time.Millisecond)
	err := view.Open(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, view.State())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestThreadViewDeduplicatesAcrossPolls(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m1 := testMessage(1, "hi", base)
	m2 := testMessage(2, "still there?", base.Add(time.Second))
	m3 := testMessage(3, "yes", base.Add(2*time.Second))

	srv := &threadServer{responses: []scriptedResponse{
		{status: 200, messages: []Message{m1, m2}},
		// Overlap on the cursor boundary: m2 comes back again.
		{status: 200, messages: []Message{m2, m3}},
		{status: 200},
	}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	view := NewThreadView(NewClient(ts.URL, "tok"), "listing-1", "", 10*time.Millisecond)
	require.NoError(t, view.Open(context.Background()))
	defer view.Close()

	require.Equal(t, StateLive, view.State())
	require.Eventually(t, func() bool {
		return len(view.Messages()) == 3
	}, time.Second, 5*time.Millisecond)

	msgs := view.Messages()
	require.Equal(t, []int64{1, 2, 3}, []int64{msgs[0].ID, msgs[1].ID, msgs[2].ID})

	// The first poll after the initial load carries the m2 cursor.
	srv.mu.Lock()
	require.GreaterOrEqual(t, len(srv.afterSeen), 2)
	require.Empty(t, srv.afterSeen[0])
	require.Equal(t, m2.CreatedAt.Format(time.RFC3339Nano), srv.afterSeen[1])
	srv.mu.Unlock()
}

func TestThreadViewSurvivesPollFailures(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m1 := testMessage(1, "hi", base)
	m2 := testMessage(2, "late reply", base.Add(time.Second))

	srv := &threadServer{responses: []scriptedResponse{
		{status: 200, messages: []Message{m1}},
		{status: 500},
		{status: 500},
		{status: 200, messages: []Message{m2}},
		{status: 200},
	}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	view := NewThreadView(NewClient(ts.URL, "tok"), "listing-1", "", 10*time.Millisecond)
	require.NoError(t, view.Open(context.Background()))
	defer view.Close()

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, StateLive, view.State())
}

func TestThreadViewCloseStopsPolling(t *testing.T) {
	srv := &threadServer{responses: []scriptedResponse{{status: 200}}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	view := NewThreadView(NewClient(ts.URL, "tok"), "listing-1", "", 10*time.Millisecond)
	require.NoError(t, view.Open(context.Background()))

	view.Close()
	require.Equal(t, StateClosed, view.State())

	calls := srv.callCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, calls, srv.callCount())

	// Closing again is a no-op.
	view.Close()
	require.Equal(t, StateClosed, view.State())
}

// filteringThreadServer applies the real server's cursor contract: only
// messages persisted strictly after the supplied cursor come back.
type filteringThreadServer struct {
	mu   sync.Mutex
	msgs []Message
}

func (s *filteringThreadServer) add(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *filteringThreadServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after time.Time
		if raw := r.URL.Query().Get("after"); raw != "" {
			parsed, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			after = parsed
		}

		s.mu.Lock()
		var out []Message
		for _, msg := range s.msgs {
			if msg.CreatedAt.After(after) {
				out = append(out, msg)
			}
		}
		s.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": Thread{
				Messages: out,
				Listing:  ThreadListing{ID: "listing-1", Title: "credits", SellerID: "seller-1"},
			},
		})
	}
}

func TestThreadViewAcknowledgeDoesNotAdvanceCursor(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	srv := &filteringThreadServer{}
	srv.add(testMessage(1, "hi", base))

	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	view := NewThreadView(NewClient(ts.URL, "tok"), "listing-1", "", 10*time.Millisecond)
	require.NoError(t, view.Open(context.Background()))
	defer view.Close()

	// A counterparty message lands server-side, then a local send is
	// acknowledged before any poll has observed either. If the acknowledge
	// moved the cursor past the counterparty message it would never be
	// fetched.
	counterparty := testMessage(2, "reply", base.Add(time.Second))
	srv.add(counterparty)
	local := testMessage(3, "local send", base.Add(2*time.Second))
	srv.add(local)
	view.Acknowledge(&local)

	require.Eventually(t, func() bool {
		return len(view.Messages()) == 3
	}, time.Second, 5*time.Millisecond)

	ids := make([]int64, 0, 3)
	for _, msg := range view.Messages() {
		ids = append(ids, msg.ID)
	}
	require.Contains(t, ids, int64(2))
	require.Equal(t, StateLive, view.State())
}

func TestThreadViewAcknowledgeLocalSend(t *testing.T) {
	srv := &threadServer{responses: []scriptedResponse{{status: 200}}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	view := NewThreadView(NewClient(ts.URL, "tok"), "listing-1", "", time.Minute)
	require.NoError(t, view.Open(context.Background()))
	defer view.Close()

	sent := testMessage(7, "my own message", time.Now().UTC())
	view.Acknowledge(&sent)
	view.Acknowledge(&sent)

	msgs := view.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, int64(7), msgs[0].ID)
}
