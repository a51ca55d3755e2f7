package domain

// Connection links an organization to its Azure subscription. The rule
// engine fails fast when an org has no enabled connection; that is a
// configuration error, never retried.
type Connection struct {
	ID             string
	OrgID          string
	SubscriptionID string
	TenantID       string
	ClientID       string
	Enabled        bool
}
