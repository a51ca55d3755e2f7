package store

import "database/sql"

// ResourceRecord is the DuckDB row shape for a cloud resource. Tags and
// metrics are stored as JSON columns.
type ResourceRecord struct {
	ID             string
	OrgID          string
	Name           string
	Type           string
	Tags           map[string]string
	Metrics        map[string]float64
	MonthlyCost    sql.NullFloat64
	SubscriptionID string
}
