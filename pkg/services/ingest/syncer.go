package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/rs/zerolog"
)

// Provider is the cloud surface ingestion reads from.
type Provider interface {
	ListAllResources(ctx context.Context) ([]domain.CloudResource, error)
	GetMonthlySpendByResource(ctx context.Context) (map[string]float64, error)
}

// ConnectionStore resolves the org's enabled provider connection.
type ConnectionStore interface {
	GetEnabled(ctx context.Context, orgID string) (*domain.Connection, error)
}

// ProviderFactory builds a provider client for one connection.
type ProviderFactory interface {
	ClientFor(ctx context.Context, conn domain.Connection) (Provider, error)
}

// ResourceStore is the write surface of the resource table.
type ResourceStore interface {
	Upsert(ctx context.Context, rec store.ResourceRecord) error
	DeleteNotIn(ctx context.Context, orgID string, keepIDs []string) error
}

// Syncer refreshes an org's resource inventory from the provider:
// upsert everything reported, attach the latest monthly cost where the
// cost query covers it, and drop resources the provider stopped
// reporting.
type Syncer struct {
	connections ConnectionStore
	providers   ProviderFactory
	resources   ResourceStore
}

func NewSyncer(connections ConnectionStore, providers ProviderFactory, resources ResourceStore) *Syncer {
	return &Syncer{
		connections: connections,
		providers:   providers,
		resources:   resources,
	}
}

func (s *Syncer) SyncOrg(ctx context.Context, orgID string) error {
	logger := zerolog.Ctx(ctx).With().Str("org", orgID).Logger()

	conn, err := s.connections.GetEnabled(ctx, orgID)
	if err != nil {
		return fmt.Errorf("resolve provider connection: %w", err)
	}
	if conn == nil {
		return fmt.Errorf("no enabled provider connection for org %s", orgID)
	}

	provider, err := s.providers.ClientFor(ctx, *conn)
	if err != nil {
		return fmt.Errorf("create provider client: %w", err)
	}

	resources, err := provider.ListAllResources(ctx)
	if err != nil {
		return fmt.Errorf("list resources: %w", err)
	}

	costs, err := provider.GetMonthlySpendByResource(ctx)
	if err != nil {
		// Costs enrich resources but their absence must not block the sync.
		logger.Warn().Err(err).Msg("monthly cost query failed, syncing without costs")
		costs = nil
	}

	keepIDs := make([]string, 0, len(resources))
	for _, res := range resources {
		record := store.ResourceRecord{
			ID:             res.ID,
			OrgID:          orgID,
			Name:           res.Name,
			Type:           res.Type,
			Tags:           res.Tags,
			Metrics:        res.Metrics,
			SubscriptionID: res.SubscriptionID,
		}
		if cost, ok := costs[res.ID]; ok {
			record.MonthlyCost = sql.NullFloat64{Float64: cost, Valid: true}
		}

		if err := s.resources.Upsert(ctx, record); err != nil {
			logger.Error().Err(err).Str("resource", res.ID).Msg("failed to upsert resource")
			continue
		}
		keepIDs = append(keepIDs, res.ID)
	}

	if err := s.resources.DeleteNotIn(ctx, orgID, keepIDs); err != nil {
		return fmt.Errorf("prune stale resources: %w", err)
	}

	logger.Info().Int("resources", len(keepIDs)).Msg("resource sync complete")
	return nil
}
