package domain

import "time"

// PullRequestEvent is the immutable audit record written once per
// successfully opened PR. It is never updated; recommendation status
// carries the later lifecycle.
type PullRequestEvent struct {
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

// PullRequest describes an opened pull request as reported by the
// repository host.
type PullRequest struct {
	Number  int
	URL     string
	HeadRef string
}
