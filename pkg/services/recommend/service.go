package recommend

import (
	"context"
	"fmt"

	"github.com/de-tools/costpilot/pkg/adapters"
	"github.com/de-tools/costpilot/pkg/models/domain"
)

// Service exposes read access to persisted recommendations for the HTTP
// layer and the CLI.
type Service struct {
	store Store
}

func NewService(recStore Store) *Service {
	return &Service{store: recStore}
}

func (s *Service) List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]domain.Recommendation, error) {
	records, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	recs := make([]domain.Recommendation, 0, len(records))
	for _, rec := range records {
		recs = append(recs, *adapters.MapStoreRecommendationToDomain(rec))
	}
	return recs, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Recommendation, error) {
	record, err := s.store.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return adapters.MapStoreRecommendationToDomain(record), nil
}
