package api

import "time"

type Recommendation struct {
	ID            string            `json:"id"`
	RuleID        string            `json:"rule_id"`
	ResourceID    string            `json:"resource_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	ImpactMonthly float64           `json:"impact_monthly"`
	Confidence    float64           `json:"confidence"`
	Status        string            `json:"status"`
	Details       map[string]string `json:"details,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
}

type OpenPRRequest struct {
	Title  string   `json:"title,omitempty"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

type CycleStep struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type CycleSummary struct {
	OrgID string      `json:"org_id"`
	Steps []CycleStep `json:"steps"`
}

type PullRequestEvent struct {
	ID               string    `json:"id"`
	RecommendationID string    `json:"recommendation_id"`
	Provider         string    `json:"provider"`
	Repo             string    `json:"repo"`
	Number           int       `json:"number"`
	Branch           string    `json:"branch"`
	Status           string    `json:"status"`
	URL              string    `json:"url"`
	CreatedAt        time.Time `json:"created_at"`
}

type Error struct {
	Message string `json:"message"`
}
