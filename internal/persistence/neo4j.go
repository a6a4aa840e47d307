package persistence

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/spec-kit/credit-market/internal/config"
)

// Graph wraps the optional Neo4j trust-graph driver.
type Graph struct {
	Driver neo4j.DriverWithContext
}

// NewGraph connects to Neo4j when a URI is configured. A nil-driver Graph is
// returned otherwise so callers can treat the graph as absent.
func NewGraph(ctx context.Context, cfg config.GraphConfig, logger *zap.Logger) (*Graph, error) {
	if !cfg.Enabled() {
		logger.Warn("NEO4J_URI not provided; trust graph disabled")
		return &Graph{}, nil
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		logger.Warn("unable to reach neo4j", zap.Error(err))
	} else {
		logger.Info("connected to neo4j")
	}
	return &Graph{Driver: driver}, nil
}

// Enabled reports whether a driver is present.
func (g *Graph) Enabled() bool {
	return g != nil && g.Driver != nil
}

// Close releases driver resources.
func (g *Graph) Close(ctx context.Context) {
	if g.Enabled() {
		_ = g.Driver.Close(ctx)
	}
}
