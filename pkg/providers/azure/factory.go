package azure

import (
	"context"
	"fmt"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/services/ingest"
	"github.com/de-tools/costpilot/pkg/services/rules"
)

// Factory builds per-connection clients. Clients are not shared across
// organizations so one org's token cache never serves another.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ClientFor(_ context.Context, conn domain.Connection) (*Client, error) {
	cred, err := credentialFor(conn)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(cred, conn.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for org %s: %w", conn.OrgID, err)
	}
	return client, nil
}

// RuleProviders adapts the factory to the rule engine's provider surface.
type RuleProviders struct {
	Factory *Factory
}

func (p RuleProviders) ClientFor(ctx context.Context, conn domain.Connection) (rules.Provider, error) {
	return p.Factory.ClientFor(ctx, conn)
}

// IngestProviders adapts the factory to the ingestion provider surface.
type IngestProviders struct {
	Factory *Factory
}

func (p IngestProviders) ClientFor(ctx context.Context, conn domain.Connection) (ingest.Provider, error) {
	return p.Factory.ClientFor(ctx, conn)
}
