package adapters

import (
	"database/sql"
	"maps"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
)

func MapStoreResourceToDomain(r *store.ResourceRecord) *domain.CloudResource {
	if r == nil {
		return nil
	}

	res := &domain.CloudResource{
		ID:             r.ID,
		OrgID:          r.OrgID,
		Name:           r.Name,
		Type:           r.Type,
		Tags:           maps.Clone(r.Tags),
		Metrics:        maps.Clone(r.Metrics),
		SubscriptionID: r.SubscriptionID,
	}
	if r.MonthlyCost.Valid {
		cost := r.MonthlyCost.Float64
		res.MonthlyCost = &cost
	}
	return res
}

func MapDomainResourceToStore(r domain.CloudResource) store.ResourceRecord {
	record := store.ResourceRecord{
		ID:             r.ID,
		OrgID:          r.OrgID,
		Name:           r.Name,
		Type:           r.Type,
		Tags:           maps.Clone(r.Tags),
		Metrics:        maps.Clone(r.Metrics),
		SubscriptionID: r.SubscriptionID,
	}
	if r.MonthlyCost != nil {
		record.MonthlyCost = sql.NullFloat64{Float64: *r.MonthlyCost, Valid: true}
	}
	return record
}

func MapStoreConnectionToDomain(c *store.ConnectionRecord) *domain.Connection {
	if c == nil {
		return nil
	}

	return &domain.Connection{
		ID:             c.ID,
		OrgID:          c.OrgID,
		SubscriptionID: c.SubscriptionID,
		TenantID:       c.TenantID,
		ClientID:       c.ClientID,
		Enabled:        c.Enabled,
	}
}
