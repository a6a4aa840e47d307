package service

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/spec-kit/credit-market/internal/events"
	"github.com/spec-kit/credit-market/internal/persistence"
)

// TrustService records completed trades as (User)-[:COMPLETED_TRADE]->(Provider)
// edges and reads trade counts back as a trust score. Everything degrades to
// a no-op / zero score when the graph is not configured.
type TrustService struct {
	graph  *persistence.Graph
	logger *zap.Logger
}

// NewTrustService creates the service.
func NewTrustService(graph *persistence.Graph, logger *zap.Logger) *TrustService {
	return &TrustService{graph: graph, logger: logger}
}

// RegisterHandlers subscribes to trade events.
func (t *TrustService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventListingTraded, t.handleListingTraded)
}

func (t *TrustService) handleListingTraded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ListingTradedPayload)
	if !ok {
		return nil
	}
	if err := t.RecordTrade(ctx, payload.SellerID, payload.ListingID, payload.Provider); err != nil {
		// trade bookkeeping must never fail the request that triggered it
		t.logger.Warn("record trade failed", zap.Error(err), zap.String("listing_id", payload.ListingID))
	}
	return nil
}

// RecordTrade writes one completed-trade edge.
func (t *TrustService) RecordTrade(ctx context.Context, userID, listingID, provider string) error {
	if !t.graph.Enabled() {
		return nil
	}
	const query = `
        MERGE (u:User {id: $userId})
        MERGE (p:Provider {name: $provider})
        CREATE (u)-[:COMPLETED_TRADE {listingId: $listingId, tradedAt: datetime()}]->(p)`

	_, err := neo4j.ExecuteQuery(ctx, t.graph.Driver, query,
		map[string]any{"userId": userID, "listingId": listingID, "provider": provider},
		neo4j.EagerResultTransformer)
	return err
}

// TrustScore counts a user's completed trades. Zero when the graph is
// disabled or unreachable.
func (t *TrustService) TrustScore(ctx context.Context, userID string) int64 {
	if !t.graph.Enabled() {
		return 0
	}
	const query = `
        MATCH (u:User {id: $userId})-[r:COMPLETED_TRADE]->()
        RETURN count(r) AS tradeCount`

	result, err := neo4j.ExecuteQuery(ctx, t.graph.Driver, query,
		map[string]any{"userId": userID},
		neo4j.EagerResultTransformer)
	if err != nil {
		t.logger.Warn("trust score query failed", zap.Error(err), zap.String("user_id", userID))
		return 0
	}
	if len(result.Records) == 0 {
		return 0
	}
	val, ok := result.Records[0].Get("tradeCount")
	if !ok {
		return 0
	}
	count, _ := val.(int64)
	return count
}
