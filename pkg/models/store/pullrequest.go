package store

import "time"

// PullRequestEventRecord is the immutable audit row for an opened PR.
type PullRequestEventRecord struct {
	ID               string
	OrgID            string
	RecommendationID string
	Provider         string
	Repo             string
	Number           int
	Branch           string
	Status           string
	URL              string
	CreatedAt        time.Time
}

// ConnectionRecord links an org to its Azure subscription credentials
// profile.
type ConnectionRecord struct {
	ID             string
	OrgID          string
	SubscriptionID string
	TenantID       string
	ClientID       string
	Enabled        bool
}
