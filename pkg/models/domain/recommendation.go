package domain

import "time"

// RecommendationStatus is the review lifecycle of a persisted
// recommendation. The rule engine only ever sets StatusOpen on creation;
// every later transition comes from the PR orchestrator or an external
// review event.
type RecommendationStatus string

const (
	StatusOpen      RecommendationStatus = "open"
	StatusInPR      RecommendationStatus = "in_pr"
	StatusMerged    RecommendationStatus = "merged"
	StatusClosed    RecommendationStatus = "closed"
	StatusDismissed RecommendationStatus = "dismissed"
)

// RecommendationPayload is the ephemeral output of one rule evaluation
// for one resource. Details must carry "resourceId"; payloads without it
// are dropped before persistence.
type RecommendationPayload struct {
	Title         string
	Description   string
	ImpactMonthly float64
	Confidence    float64
	Details       map[string]string
}

// ResourceID returns the mandatory resource reference from the details map.
func (p RecommendationPayload) ResourceID() string {
	return p.Details["resourceId"]
}

// Recommendation is the persisted form of a rule finding, unique per
// (org, rule, resource). Descriptive fields track the latest run;
// Status survives re-runs untouched.
type Recommendation struct {
	ID             string
	OrgID          string
	RuleID         string
	ResourceID     string
	SubscriptionID string
	Title          string
	Description    string
	ImpactMonthly  float64
	Confidence     float64
	Status         RecommendationStatus
	Details        map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecommendationFilter narrows listing queries.
type RecommendationFilter struct {
	OrgID    string
	RuleID   string
	Statuses []RecommendationStatus
}

// Page is simple limit/offset paging for list endpoints.
type Page struct {
	Limit  int
	Offset int
}
