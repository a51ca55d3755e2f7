package cycle

import (
	"context"
	"time"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Ingestor refreshes the org's resource inventory.
type Ingestor interface {
	SyncOrg(ctx context.Context, orgID string) error
}

// RuleRunner evaluates the org's active rule set.
type RuleRunner interface {
	RunRulesForOrg(ctx context.Context, orgID string) error
}

// Controller drives the daily cycle: resource sync, then rule
// evaluation. A failing step is recorded in the summary and the cycle
// moves on; the entry point itself never fails.
type Controller struct {
	ingestor Ingestor
	rules    RuleRunner
	now      func() time.Time
}

func NewController(ingestor Ingestor, rules RuleRunner) *Controller {
	return &Controller{
		ingestor: ingestor,
		rules:    rules,
		now:      time.Now,
	}
}

func (c *Controller) RunDailyCycle(ctx context.Context, orgID string) domain.CycleSummary {
	logger := zerolog.Ctx(ctx).With().Str("org", orgID).Logger()

	summary := domain.CycleSummary{
		OrgID:     orgID,
		StartedAt: c.now(),
	}

	steps := []struct {
		name string
		run  func(context.Context, string) error
	}{
		{"sync_resources", c.ingestor.SyncOrg},
		{"run_rules", c.rules.RunRulesForOrg},
	}

	for _, step := range steps {
		started := c.now()
		err := step.run(ctx, orgID)
		result := domain.StepResult{
			Name:     step.name,
			OK:       err == nil,
			Duration: c.now().Sub(started),
		}
		if err != nil {
			result.Error = err.Error()
			logger.Error().Err(err).Str("step", step.name).Msg("cycle step failed")
		}
		summary.Steps = append(summary.Steps, result)
	}

	summary.FinishedAt = c.now()
	return summary
}
