package chatclient

import (
	"context"
	"sync"
	"time"
)

// ViewState is the lifecycle state of a ThreadView.
type ViewState string

const (
	// StateLoading means the initial fetch has not completed yet.
	StateLoading ViewState = "loading"
	// StateLive means the view is polling for new messages.
	StateLive ViewState = "live"
	// StateClosed means the view was closed and will not poll again.
	StateClosed ViewState = "closed"
	// StateFailed means the initial fetch failed; the view never went live.
	StateFailed ViewState = "failed"
)

// DefaultPollInterval is used when a ThreadView is built without one.
const DefaultPollInterval = 3 * time.Second

// ThreadView maintains a live, deduplicated view of one conversation thread
// by polling the server. The cursor only moves forward, and messages are
// deduplicated by id, so overlapping poll responses never produce duplicates.
// A poll that fails is retried silently on the next tick; only a failure of
// the initial load surfaces as an error.
type ThreadView struct {
	client    *Client
	listingID string
	buyerID   string
	interval  time.Duration

	mu       sync.Mutex
	state    ViewState
	messages []Message
	seen     map[int64]struct{}
	cursor   time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewThreadView builds a view over the given thread. For buyers buyerID may
// be empty; sellers must name the buyer thread they are viewing.
func NewThreadView(client *Client, listingID, buyerID string, interval time.Duration) *ThreadView {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ThreadView{
		client:    client,
		listingID: listingID,
		buyerID:   buyerID,
		interval:  interval,
		state:     StateLoading,
		seen:      make(map[int64]struct{}),
	}
}

// Open performs the initial load and, on success, starts polling. On failure
// the view transitions to StateFailed and the error is returned; a failed
// view must be replaced, not reused.
func (v *ThreadView) Open(ctx context.Context) error {
	thread, err := v.client.FetchThread(ctx, v.listingID, v.buyerID, nil)
	if err != nil {
		v.mu.Lock()
		v.state = StateFailed
		v.mu.Unlock()
		return err
	}

	pollCtx, cancel := context.WithCancel(ctx)

	v.mu.Lock()
	v.merge(thread.Messages)
	v.state = StateLive
	v.cancel = cancel
	v.done = make(chan struct{})
	v.mu.Unlock()

	go v.loop(pollCtx)
	return nil
}

func (v *ThreadView) loop(ctx context.Context) {
	defer close(v.done)
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.poll(ctx)
		}
	}
}

func (v *ThreadView) poll(ctx context.Context) {
	v.mu.Lock()
	var after *time.Time
	if !v.cursor.IsZero() {
		cursor := v.cursor
		after = &cursor
	}
	v.mu.Unlock()

	thread, err := v.client.FetchThread(ctx, v.listingID, v.buyerID, after)
	if err != nil {
		// Transient; the next tick retries with the same cursor.
		return
	}

	v.mu.Lock()
	if v.state == StateLive {
		v.merge(thread.Messages)
	}
	v.mu.Unlock()
}

// merge appends unseen poll-response messages and advances the cursor.
// Callers hold v.mu.
func (v *ThreadView) merge(msgs []Message) {
	for _, msg := range msgs {
		if !v.record(msg) {
			continue
		}
		if msg.CreatedAt.After(v.cursor) {
			v.cursor = msg.CreatedAt
		}
	}
}

// record appends the message unless its id was already seen. Callers hold
// v.mu.
func (v *ThreadView) record(msg Message) bool {
	if _, dup := v.seen[msg.ID]; dup {
		return false
	}
	v.seen[msg.ID] = struct{}{}
	v.messages = append(v.messages, msg)
	return true
}

// Acknowledge records a locally sent message so the sender sees it without
// waiting for the next poll. The cursor is left alone: a counterparty
// message persisted between the last poll and the local send must still be
// fetched, and the id dedup absorbs the local message when the server
// delivers it again.
func (v *ThreadView) Acknowledge(msg *Message) {
	if msg == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateLive || v.state == StateLoading {
		v.record(*msg)
	}
}

// State returns the view's lifecycle state.
func (v *ThreadView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Messages returns a copy of the accumulated messages in arrival order.
func (v *ThreadView) Messages() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// Close stops polling. Closing an already closed or failed view is a no-op.
func (v *ThreadView) Close() {
	v.mu.Lock()
	if v.state != StateLive {
		v.mu.Unlock()
		return
	}
	v.state = StateClosed
	cancel := v.cancel
	done := v.done
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
