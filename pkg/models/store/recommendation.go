package store

import "time"

// RecommendationRecord is the DuckDB row shape for a persisted
// recommendation. (OrgID, RuleID, ResourceID) is the upsert key.
type RecommendationRecord struct {
	ID             string
	OrgID          string
	RuleID         string
	ResourceID     string
	SubscriptionID string
	Title          string
	Description    string
	ImpactMonthly  float64
	Confidence     float64
	Status         string
	Details        map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RuleOverrideRecord is one persisted per-org rule override row.
type RuleOverrideRecord struct {
	OrgID      string
	RuleID     string
	Enabled    *bool
	Thresholds map[string]float64
}
