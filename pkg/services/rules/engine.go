package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ConnectionStore resolves an organization's enabled provider
// connection. A nil connection with a nil error means none exists.
type ConnectionStore interface {
	GetEnabled(ctx context.Context, orgID string) (*domain.Connection, error)
}

// OverrideStore loads the per-org rule configuration overrides.
type OverrideStore interface {
	GetOverrides(ctx context.Context, orgID string) (domain.RuleOverrides, error)
}

// ProviderFactory builds a provider client bound to one connection.
type ProviderFactory interface {
	ClientFor(ctx context.Context, conn domain.Connection) (Provider, error)
}

// Reconciler persists one rule payload as a recommendation record.
type Reconciler interface {
	Upsert(ctx context.Context, orgID, ruleID string, payload domain.RecommendationPayload) error
}

// Engine executes the active rule set for an organization. Rules run
// sequentially; one rule's failure or one payload's persistence failure
// never aborts the rest of the run.
type Engine struct {
	catalog     []Definition
	connections ConnectionStore
	overrides   OverrideStore
	resources   ResourceStore
	providers   ProviderFactory
	reconciler  Reconciler
	now         func() time.Time
}

func NewEngine(
	catalog []Definition,
	connections ConnectionStore,
	overrides OverrideStore,
	resources ResourceStore,
	providers ProviderFactory,
	reconciler Reconciler,
) *Engine {
	return &Engine{
		catalog:     catalog,
		connections: connections,
		overrides:   overrides,
		resources:   resources,
		providers:   providers,
		reconciler:  reconciler,
		now:         time.Now,
	}
}

// WithClock overrides the engine clock. Tests use it to pin age-based
// rules to a fixed instant.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RunRulesForOrg resolves the org's connection and active rule set and
// evaluates every rule. A missing connection is a configuration error
// surfaced to the caller; an empty active rule set is a no-op.
func (e *Engine) RunRulesForOrg(ctx context.Context, orgID string) error {
	logger := zerolog.Ctx(ctx).With().Str("org", orgID).Logger()

	conn, err := e.connections.GetEnabled(ctx, orgID)
	if err != nil {
		return fmt.Errorf("resolve provider connection: %w", err)
	}
	if conn == nil {
		return fmt.Errorf("no enabled provider connection for org %s", orgID)
	}

	provider, err := e.providers.ClientFor(ctx, *conn)
	if err != nil {
		return fmt.Errorf("create provider client: %w", err)
	}

	overrides, err := e.overrides.GetOverrides(ctx, orgID)
	if err != nil {
		return fmt.Errorf("load rule overrides: %w", err)
	}

	active := Resolve(e.catalog, overrides)
	if len(active) == 0 {
		logger.Info().Msg("no active rules, skipping run")
		return nil
	}

	rc := Context{
		OrgID:     orgID,
		Resources: e.resources,
		Provider:  provider,
		Now:       e.now,
	}

	for _, rule := range active {
		payloads, err := rule.Run(ctx, rc)
		if err != nil {
			logger.Error().Err(err).Str("rule", rule.ID).Msg("rule execution failed")
			continue
		}

		for _, payload := range payloads {
			if payload.ResourceID() == "" {
				logger.Warn().Str("rule", rule.ID).Msg("dropping payload without resourceId")
				continue
			}
			if err := e.reconciler.Upsert(ctx, orgID, rule.ID, payload); err != nil {
				logger.Error().Err(err).
					Str("rule", rule.ID).
					Str("resource", payload.ResourceID()).
					Msg("failed to persist recommendation")
			}
		}

		logger.Info().Str("rule", rule.ID).Int("payloads", len(payloads)).Msg("rule evaluated")
	}

	return nil
}
