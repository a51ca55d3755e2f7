package rules

import (
	"context"
	"maps"

	"github.com/de-tools/costpilot/pkg/models/domain"
)

// BoundRule is a catalog rule bound to its merged per-org configuration.
// The engine only ever sees bound rules, never raw definitions.
type BoundRule struct {
	ID     string
	Label  string
	Config Config
	run    Executor
}

// Run evaluates the rule with its merged configuration closed over.
func (b BoundRule) Run(ctx context.Context, rc Context) ([]domain.RecommendationPayload, error) {
	return b.run(ctx, rc, b.Config)
}

// Resolve computes the active rule set for an organization: every
// catalog entry merged with its override (enabled flag replaced when
// set, overridden threshold keys layered over the defaults), keeping
// only rules whose merged config is enabled. Catalog order is preserved.
func Resolve(catalog []Definition, overrides domain.RuleOverrides) []BoundRule {
	active := make([]BoundRule, 0, len(catalog))

	for _, def := range catalog {
		merged := Config{
			Enabled:    def.Defaults.Enabled,
			Thresholds: maps.Clone(def.Defaults.Thresholds),
		}
		if merged.Thresholds == nil {
			merged.Thresholds = map[string]float64{}
		}

		if override, ok := overrides[def.ID]; ok {
			if override.Enabled != nil {
				merged.Enabled = *override.Enabled
			}
			for name, value := range override.Thresholds {
				merged.Thresholds[name] = value
			}
		}

		if !merged.Enabled {
			continue
		}

		active = append(active, BoundRule{
			ID:     def.ID,
			Label:  def.Label,
			Config: merged,
			run:    def.Run,
		})
	}

	return active
}
