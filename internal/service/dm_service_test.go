package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/events"
)

type dmFixture struct {
	clock   *fakeClock
	service *DMService
	alice   *domain.User
	bob     *domain.User
}

func newDMFixture(t *testing.T) *dmFixture {
	t.Helper()

	clock := newFakeClock()
	users := newMemUserRepo()
	return &dmFixture{
		clock: clock,
		service: NewDMService(DMDependencies{
			DirectMessageRepo: newMemDirectMessageRepo(clock),
			UserRepo:          users,
			Dispatcher:        events.NewInMemoryDispatcher(),
		}),
		alice: users.add("alice-1", "alice"),
		bob:   users.add("bob-1", "bob"),
	}
}

func TestDMSendValidation(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	_, err := f.service.Send(ctx, f.alice.ID, f.bob.ID, "  ")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.Send(ctx, f.alice.ID, f.alice.ID, "hi me")
	requireCode(t, err, "BAD_REQUEST")

	_, err = f.service.Send(ctx, f.alice.ID, "missing", "anyone there?")
	requireCode(t, err, "NOT_FOUND")
}

func TestDMConversationBothDirections(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	_, err := f.service.Send(ctx, f.alice.ID, f.bob.ID, "hey bob")
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.service.Send(ctx, f.bob.ID, f.alice.ID, "hey alice")
	require.NoError(t, err)

	page, err := f.service.GetConversation(ctx, f.alice.ID, f.bob.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	require.Equal(t, "hey bob", page.Messages[0].Body)
	require.Equal(t, "hey alice", page.Messages[1].Body)
	require.NotNil(t, page.OtherUser)
	require.Equal(t, "bob", page.OtherUser.Username)
}

func TestDMConversationAfterCursor(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	first, err := f.service.Send(ctx, f.alice.ID, f.bob.ID, "old")
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.service.Send(ctx, f.alice.ID, f.bob.ID, "new")
	require.NoError(t, err)

	cursor := first.CreatedAt
	page, err := f.service.GetConversation(ctx, f.bob.ID, f.alice.ID, &cursor)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	require.Equal(t, second.ID, page.Messages[0].ID)
}
