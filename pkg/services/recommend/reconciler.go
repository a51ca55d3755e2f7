package recommend

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/google/uuid"
)

// Store is the persistence surface for recommendation records.
// FindByKey and Get return nil (no error) when no record matches.
type Store interface {
	FindByKey(ctx context.Context, orgID, ruleID, resourceID string) (*store.RecommendationRecord, error)
	Create(ctx context.Context, rec store.RecommendationRecord) error
	Update(ctx context.Context, rec store.RecommendationRecord) error
	Get(ctx context.Context, orgID, id string) (*store.RecommendationRecord, error)
	List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]*store.RecommendationRecord, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// ResourceLookup resolves a stored resource, used to backfill the
// subscription when a payload omits it.
type ResourceLookup interface {
	Get(ctx context.Context, orgID, resourceID string) (*store.ResourceRecord, error)
}

// Reconciler merges freshly computed rule payloads into persisted
// recommendation records keyed by (org, rule, resource), without
// duplicating records or clobbering externally-driven status
// transitions.
type Reconciler struct {
	store     Store
	resources ResourceLookup
	now       func() time.Time
}

func NewReconciler(recStore Store, resources ResourceLookup) *Reconciler {
	return &Reconciler{
		store:     recStore,
		resources: resources,
		now:       time.Now,
	}
}

// Upsert creates the recommendation on first sight of the
// (org, rule, resource) triple and updates descriptive fields on every
// later run. Status is set to open exactly once, at creation; updates
// never touch it.
func (r *Reconciler) Upsert(ctx context.Context, orgID, ruleID string, payload domain.RecommendationPayload) error {
	resourceID := payload.ResourceID()
	if resourceID == "" {
		return fmt.Errorf("payload for rule %s has no resourceId", ruleID)
	}

	subscriptionID := payload.Details["subscriptionId"]
	if subscriptionID == "" {
		res, err := r.resources.Get(ctx, orgID, resourceID)
		if err != nil {
			return fmt.Errorf("resolve resource %s: %w", resourceID, err)
		}
		if res != nil {
			subscriptionID = res.SubscriptionID
		}
	}

	existing, err := r.store.FindByKey(ctx, orgID, ruleID, resourceID)
	if err != nil {
		return fmt.Errorf("find recommendation: %w", err)
	}

	if existing == nil {
		rec := store.RecommendationRecord{
			ID:             uuid.NewString(),
			OrgID:          orgID,
			RuleID:         ruleID,
			ResourceID:     resourceID,
			SubscriptionID: subscriptionID,
			Title:          payload.Title,
			Description:    payload.Description,
			ImpactMonthly:  payload.ImpactMonthly,
			Confidence:     payload.Confidence,
			Status:         string(domain.StatusOpen),
			Details:        maps.Clone(payload.Details),
			CreatedAt:      r.now(),
			UpdatedAt:      r.now(),
		}
		if err := r.store.Create(ctx, rec); err != nil {
			return fmt.Errorf("create recommendation: %w", err)
		}
		return nil
	}

	updated := *existing
	updated.Title = payload.Title
	updated.Description = payload.Description
	updated.ImpactMonthly = payload.ImpactMonthly
	updated.Confidence = payload.Confidence
	updated.Details = maps.Clone(payload.Details)
	updated.UpdatedAt = r.now()
	if updated.SubscriptionID == "" {
		updated.SubscriptionID = subscriptionID
	}

	if err := r.store.Update(ctx, updated); err != nil {
		return fmt.Errorf("update recommendation: %w", err)
	}
	return nil
}
