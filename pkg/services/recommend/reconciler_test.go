package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByKey(ctx context.Context, orgID, ruleID, resourceID string) (*store.RecommendationRecord, error) {
	args := m.Called(ctx, orgID, ruleID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RecommendationRecord), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, rec store.RecommendationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) Update(ctx context.Context, rec store.RecommendationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) Get(ctx context.Context, orgID, id string) (*store.RecommendationRecord, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RecommendationRecord), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]*store.RecommendationRecord, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]*store.RecommendationRecord), args.Error(1)
}

func (m *mockStore) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockResourceLookup struct {
	mock.Mock
}

func (m *mockResourceLookup) Get(ctx context.Context, orgID, resourceID string) (*store.ResourceRecord, error) {
	args := m.Called(ctx, orgID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ResourceRecord), args.Error(1)
}

func testPayload() domain.RecommendationPayload {
	return domain.RecommendationPayload{
		Title:         "Rightsize VM vm-1 to Standard_D4s_v3",
		Description:   "idle",
		ImpactMonthly: 240,
		Confidence:    0.9,
		Details: map[string]string{
			"resourceId":     "vm-1",
			"subscriptionId": "sub-1",
		},
	}
}

func TestReconciler_Upsert_CreatesOpenRecommendation(t *testing.T) {
	recStore := new(mockStore)
	resources := new(mockResourceLookup)
	r := NewReconciler(recStore, resources)

	recStore.On("FindByKey", mock.Anything, "org-1", "azure.vm.rightsize", "vm-1").Return(nil, nil)

	var created store.RecommendationRecord
	recStore.On("Create", mock.Anything, mock.MatchedBy(func(rec store.RecommendationRecord) bool {
		created = rec
		return true
	})).Return(nil)

	err := r.Upsert(context.Background(), "org-1", "azure.vm.rightsize", testPayload())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, "sub-1", created.SubscriptionID)
	assert.Equal(t, "vm-1", created.ResourceID)
	recStore.AssertExpectations(t)
}

func TestReconciler_Upsert_RejectsPayloadWithoutResourceID(t *testing.T) {
	r := NewReconciler(new(mockStore), new(mockResourceLookup))

	err := r.Upsert(context.Background(), "org-1", "r1", domain.RecommendationPayload{
		Title:   "x",
		Details: map[string]string{},
	})
	assert.Error(t, err)
}

func TestReconciler_Upsert_ResolvesSubscriptionFromResource(t *testing.T) {
	recStore := new(mockStore)
	resources := new(mockResourceLookup)
	r := NewReconciler(recStore, resources)

	payload := testPayload()
	delete(payload.Details, "subscriptionId")

	resources.On("Get", mock.Anything, "org-1", "vm-1").
		Return(&store.ResourceRecord{ID: "vm-1", SubscriptionID: "sub-9"}, nil)
	recStore.On("FindByKey", mock.Anything, "org-1", "r1", "vm-1").Return(nil, nil)
	recStore.On("Create", mock.Anything, mock.MatchedBy(func(rec store.RecommendationRecord) bool {
		return rec.SubscriptionID == "sub-9"
	})).Return(nil)

	require.NoError(t, r.Upsert(context.Background(), "org-1", "r1", payload))
	recStore.AssertExpectations(t)
}

func TestReconciler_Upsert_UpdatePreservesStatusAndIdentity(t *testing.T) {
	recStore := new(mockStore)
	resources := new(mockResourceLookup)
	r := NewReconciler(recStore, resources)

	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &store.RecommendationRecord{
		ID:             "rec-1",
		OrgID:          "org-1",
		RuleID:         "azure.vm.rightsize",
		ResourceID:     "vm-1",
		SubscriptionID: "sub-1",
		Title:          "old title",
		Status:         "in_pr",
		CreatedAt:      createdAt,
	}
	recStore.On("FindByKey", mock.Anything, "org-1", "azure.vm.rightsize", "vm-1").Return(existing, nil)

	payload := testPayload()
	payload.Title = "new title"

	recStore.On("Update", mock.Anything, mock.MatchedBy(func(rec store.RecommendationRecord) bool {
		return rec.ID == "rec-1" &&
			rec.Title == "new title" &&
			rec.Status == "in_pr" &&
			rec.CreatedAt.Equal(createdAt)
	})).Return(nil)

	require.NoError(t, r.Upsert(context.Background(), "org-1", "azure.vm.rightsize", payload))
	recStore.AssertExpectations(t)
}

func TestReconciler_Upsert_BackfillsEmptySubscriptionOnUpdate(t *testing.T) {
	recStore := new(mockStore)
	resources := new(mockResourceLookup)
	r := NewReconciler(recStore, resources)

	existing := &store.RecommendationRecord{
		ID: "rec-1", OrgID: "org-1", RuleID: "r1", ResourceID: "vm-1", Status: "open",
	}
	recStore.On("FindByKey", mock.Anything, "org-1", "r1", "vm-1").Return(existing, nil)
	recStore.On("Update", mock.Anything, mock.MatchedBy(func(rec store.RecommendationRecord) bool {
		return rec.SubscriptionID == "sub-1"
	})).Return(nil)

	require.NoError(t, r.Upsert(context.Background(), "org-1", "r1", testPayload()))
	recStore.AssertExpectations(t)
}
