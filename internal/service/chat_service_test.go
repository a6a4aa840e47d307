package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/events"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

type chatFixture struct {
	clock    *fakeClock
	users    *memUserRepo
	listings *memListingRepo
	messages *memMessageRepo
	chat     *ChatService

	seller  *domain.User
	buyer   *domain.User
	other   *domain.User
	listing *domain.Listing
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	clock := newFakeClock()
	users := newMemUserRepo()
	listings := newMemListingRepo(clock)
	messages := newMemMessageRepo(clock, listings)

	f := &chatFixture{
		clock:    clock,
		users:    users,
		listings: listings,
		messages: messages,
		seller:   users.add("seller-1", "alice"),
		buyer:    users.add("buyer-1", "bob"),
		other:    users.add("other-1", "carol"),
	}

	f.chat = NewChatService(ChatDependencies{
		ListingRepo: listings,
		MessageRepo: messages,
		UserRepo:    users,
		Dispatcher:  events.NewInMemoryDispatcher(),
	})

	f.listing = &domain.Listing{
		UserID:      f.seller.ID,
		Type:        domain.ListingTypeSelling,
		Provider:    "openai",
		Title:       "API credits",
		AskingPrice: 5000,
		CreditType:  "api",
		ContactInfo: "@alice",
	}
	require.NoError(t, listings.Create(context.Background(), f.listing))
	return f
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	require.Equal(t, code, domainErr.Code)
}

func strPtr(s string) *string { return &s }

func TestResolveThreadBuyerIsActor(t *testing.T) {
	f := newChatFixture(t)

	resolved, err := f.chat.ResolveThread(context.Background(), f.listing.ID, f.buyer.ID, nil)
	require.NoError(t, err)
	require.Equal(t, f.listing.ID, resolved.Key.ListingID)
	require.Equal(t, f.buyer.ID, resolved.Key.BuyerID)
	require.Equal(t, f.seller.ID, resolved.SellerID)
}

func TestResolveThreadBuyerHintIgnored(t *testing.T) {
	f := newChatFixture(t)

	// A buyer naming someone else still lands in their own thread.
	resolved, err := f.chat.ResolveThread(context.Background(), f.listing.ID, f.buyer.ID, strPtr(f.other.ID))
	require.NoError(t, err)
	require.Equal(t, f.buyer.ID, resolved.Key.BuyerID)
}

func TestResolveThreadSellerRequiresBuyer(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.ResolveThread(context.Background(), f.listing.ID, f.seller.ID, nil)
	requireCode(t, err, "BAD_REQUEST")

	_, err = f.chat.ResolveThread(context.Background(), f.listing.ID, f.seller.ID, strPtr(""))
	requireCode(t, err, "BAD_REQUEST")
}

func TestResolveThreadSellerNamesBuyer(t *testing.T) {
	f := newChatFixture(t)

	resolved, err := f.chat.ResolveThread(context.Background(), f.listing.ID, f.seller.ID, strPtr(f.buyer.ID))
	require.NoError(t, err)
	require.Equal(t, f.buyer.ID, resolved.Key.BuyerID)
}

func TestResolveThreadSelfThreadAllowed(t *testing.T) {
	f := newChatFixture(t)

	resolved, err := f.chat.ResolveThread(context.Background(), f.listing.ID, f.seller.ID, strPtr(f.seller.ID))
	require.NoError(t, err)
	require.Equal(t, f.seller.ID, resolved.Key.BuyerID)
}

func TestResolveThreadUnknownListing(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.ResolveThread(context.Background(), "missing", f.buyer.ID, nil)
	requireCode(t, err, "NOT_FOUND")
}

func TestSendMessageRequiresBody(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.SendMessage(context.Background(), f.listing.ID, f.buyer.ID, "   ", nil)
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestSendMessageAssignsStoreFields(t *testing.T) {
	f := newChatFixture(t)

	msg, err := f.chat.SendMessage(context.Background(), f.listing.ID, f.buyer.ID, "  is this still available?  ", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), msg.ID)
	require.Equal(t, "is this still available?", msg.Body)
	require.Equal(t, f.buyer.ID, msg.BuyerID)
	require.Equal(t, f.clock.Now(), msg.CreatedAt)
}

func TestSendMessagePublishesEvent(t *testing.T) {
	f := newChatFixture(t)

	dispatcher := events.NewInMemoryDispatcher()
	var got []events.Event
	dispatcher.Subscribe(events.EventMessageSent, func(_ context.Context, event events.Event) error {
		got = append(got, event)
		return nil
	})
	chat := NewChatService(ChatDependencies{
		ListingRepo: f.listings,
		MessageRepo: f.messages,
		UserRepo:    f.users,
		Dispatcher:  dispatcher,
	})

	msg, err := chat.SendMessage(context.Background(), f.listing.ID, f.buyer.ID, "hello", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	payload, ok := got[0].Payload.(events.MessageSentPayload)
	require.True(t, ok)
	require.Equal(t, msg.ID, payload.MessageID)
	require.Equal(t, f.buyer.ID, payload.BuyerID)
	require.Equal(t, "hello", payload.BodyPreview)
}

func TestGetThreadSellerRequiresBuyerID(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.GetThread(context.Background(), f.listing.ID, f.seller.ID, nil, nil)
	requireCode(t, err, "BAD_REQUEST")
}

func TestGetThreadForbiddenForThirdParty(t *testing.T) {
	f := newChatFixture(t)

	buyerID := f.buyer.ID
	_, err := f.chat.GetThread(context.Background(), f.listing.ID, f.other.ID, &buyerID, nil)
	requireCode(t, err, "FORBIDDEN")
}

func TestGetThreadCounterpartIdentity(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, "hi", nil)
	require.NoError(t, err)

	// The buyer sees the seller.
	page, err := f.chat.GetThread(ctx, f.listing.ID, f.buyer.ID, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, page.OtherUser)
	require.Equal(t, "alice", page.OtherUser.Username)

	// The seller sees the buyer.
	buyerID := f.buyer.ID
	page, err = f.chat.GetThread(ctx, f.listing.ID, f.seller.ID, &buyerID, nil)
	require.NoError(t, err)
	require.NotNil(t, page.OtherUser)
	require.Equal(t, "bob", page.OtherUser.Username)
}

func TestGetThreadOrderingWithEqualTimestamps(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	// All three land on the same instant; creation order must hold.
	for _, body := range []string{"first", "second", "third"} {
		_, err := f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, body, nil)
		require.NoError(t, err)
	}

	page, err := f.chat.GetThread(ctx, f.listing.ID, f.buyer.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 3)
	require.Equal(t, "first", page.Messages[0].Body)
	require.Equal(t, "second", page.Messages[1].Body)
	require.Equal(t, "third", page.Messages[2].Body)
}

func TestGetThreadAfterCursorIsExclusive(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, "old", nil)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	buyerID := f.buyer.ID
	reply, err := f.chat.SendMessage(ctx, f.listing.ID, f.seller.ID, "new", &buyerID)
	require.NoError(t, err)

	cursor := first.CreatedAt
	page, err := f.chat.GetThread(ctx, f.listing.ID, f.buyer.ID, nil, &cursor)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	require.Equal(t, reply.ID, page.Messages[0].ID)
}

func TestGetThreadEmptyThread(t *testing.T) {
	f := newChatFixture(t)

	page, err := f.chat.GetThread(context.Background(), f.listing.ID, f.buyer.ID, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, page.Messages)
	require.Empty(t, page.Messages)
}

func TestListConversationsOnePerThreadMostRecentFirst(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	secondBuyer := f.other

	_, err := f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, "from bob", nil)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.chat.SendMessage(ctx, f.listing.ID, secondBuyer.ID, "from carol", nil)
	require.NoError(t, err)

	summaries, err := f.chat.ListConversations(ctx, f.seller.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "carol", summaries[0].OtherUsername)
	require.Equal(t, "bob", summaries[1].OtherUsername)

	// A seller reply into bob's thread moves it back to the top.
	f.clock.Advance(time.Minute)
	buyerID := f.buyer.ID
	_, err = f.chat.SendMessage(ctx, f.listing.ID, f.seller.ID, "reply to bob", &buyerID)
	require.NoError(t, err)

	summaries, err = f.chat.ListConversations(ctx, f.seller.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "bob", summaries[0].OtherUsername)
	require.Equal(t, "reply to bob", summaries[0].LastBody)
	require.Equal(t, f.seller.ID, summaries[0].LastSenderID)
}

func TestListConversationsBuyerSeesSeller(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, "hi", nil)
	require.NoError(t, err)

	summaries, err := f.chat.ListConversations(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "alice", summaries[0].OtherUsername)
	require.Equal(t, f.listing.Title, summaries[0].ListingTitle)
	require.Equal(t, f.buyer.ID, summaries[0].BuyerID)
}

func TestListConversationsRepresentativeIsLatest(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, "first", nil)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.chat.SendMessage(ctx, f.listing.ID, f.buyer.ID, "latest", nil)
	require.NoError(t, err)

	summaries, err := f.chat.ListConversations(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "latest", summaries[0].LastBody)
}
