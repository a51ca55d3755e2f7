package adapters

import (
	"maps"

	"github.com/de-tools/costpilot/pkg/models/api"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
)

func MapStoreRecommendationToDomain(r *store.RecommendationRecord) *domain.Recommendation {
	if r == nil {
		return nil
	}

	return &domain.Recommendation{
		ID:             r.ID,
		OrgID:          r.OrgID,
		RuleID:         r.RuleID,
		ResourceID:     r.ResourceID,
		SubscriptionID: r.SubscriptionID,
		Title:          r.Title,
		Description:    r.Description,
		ImpactMonthly:  r.ImpactMonthly,
		Confidence:     r.Confidence,
		Status:         domain.RecommendationStatus(r.Status),
		Details:        maps.Clone(r.Details),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func MapDomainRecommendationToStore(r domain.Recommendation) store.RecommendationRecord {
	return store.RecommendationRecord{
		ID:             r.ID,
		OrgID:          r.OrgID,
		RuleID:         r.RuleID,
		ResourceID:     r.ResourceID,
		SubscriptionID: r.SubscriptionID,
		Title:          r.Title,
		Description:    r.Description,
		ImpactMonthly:  r.ImpactMonthly,
		Confidence:     r.Confidence,
		Status:         string(r.Status),
		Details:        maps.Clone(r.Details),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func MapRecommendationDomainToApi(r domain.Recommendation) api.Recommendation {
	return api.Recommendation{
		ID:            r.ID,
		RuleID:        r.RuleID,
		ResourceID:    r.ResourceID,
		Title:         r.Title,
		Description:   r.Description,
		ImpactMonthly: r.ImpactMonthly,
		Confidence:    r.Confidence,
		Status:        string(r.Status),
		Details:       r.Details,
		UpdatedAt:     r.UpdatedAt,
	}
}

func MapStoreOverridesToDomain(records []store.RuleOverrideRecord) domain.RuleOverrides {
	overrides := make(domain.RuleOverrides, len(records))
	for _, rec := range records {
		overrides[rec.RuleID] = domain.RuleOverride{
			Enabled:    rec.Enabled,
			Thresholds: maps.Clone(rec.Thresholds),
		}
	}
	return overrides
}

func MapStorePullRequestEventToDomain(e *store.PullRequestEventRecord) *domain.PullRequestEvent {
	if e == nil {
		return nil
	}

	return &domain.PullRequestEvent{
		ID:               e.ID,
		OrgID:            e.OrgID,
		RecommendationID: e.RecommendationID,
		Provider:         e.Provider,
		Repo:             e.Repo,
		Number:           e.Number,
		Branch:           e.Branch,
		Status:           e.Status,
		URL:              e.URL,
		CreatedAt:        e.CreatedAt,
	}
}
