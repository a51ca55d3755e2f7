package domain

// RuleOverride is the per-organization override of one rule's defaults.
// Nil Enabled and absent threshold keys inherit the catalog default.
type RuleOverride struct {
	Enabled    *bool
	Thresholds map[string]float64
}

// RuleOverrides maps rule id to its organization-level override.
type RuleOverrides map[string]RuleOverride
