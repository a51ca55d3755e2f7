package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/costpilot/pkg/models/api"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/services/pullrequest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]domain.Recommendation, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

type mockPROpener struct {
	mock.Mock
}

func (m *mockPROpener) OpenFixPR(ctx context.Context, orgID, recommendationID string, opts pullrequest.Options) (*domain.PullRequest, error) {
	args := m.Called(ctx, orgID, recommendationID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

type mockCycleRunner struct {
	mock.Mock
}

func (m *mockCycleRunner) RunDailyCycle(ctx context.Context, orgID string) domain.CycleSummary {
	args := m.Called(ctx, orgID)
	return args.Get(0).(domain.CycleSummary)
}

type mockEventLister struct {
	mock.Mock
}

func (m *mockEventLister) ListByOrg(ctx context.Context, orgID string) ([]store.PullRequestEventRecord, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]store.PullRequestEventRecord), args.Error(1)
}

type testEnv struct {
	server *httptest.Server
	reader *mockReader
	prs    *mockPROpener
	cycle  *mockCycleRunner
	events *mockEventLister
}

func setupEnv(t *testing.T) *testEnv {
	env := &testEnv{
		reader: new(mockReader),
		prs:    new(mockPROpener),
		cycle:  new(mockCycleRunner),
		events: new(mockEventLister),
	}

	router := ConfigureRouter(Config{
		Addr: ":8080",
		Dependencies: Dependencies{
			Recommendations: env.reader,
			PullRequests:    env.prs,
			Cycle:           env.cycle,
			Events:          env.events,
			Logger:          zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)

	return env
}

func TestNewWebAPI_ServesConfiguredRoutes(t *testing.T) {
	reader := new(mockReader)
	reader.On("List", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Recommendation{}, nil)

	api := NewWebAPI(Config{
		Addr: "127.0.0.1:0",
		Dependencies: Dependencies{
			Recommendations: reader,
			PullRequests:    new(mockPROpener),
			Cycle:           new(mockCycleRunner),
			Events:          new(mockEventLister),
			Logger:          zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	require.Equal(t, "127.0.0.1:0", api.server.Addr)
	require.Same(t, api.router, api.server.Handler)

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/orgs/org-1/recommendations")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListRecommendations(t *testing.T) {
	env := setupEnv(t)

	updatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.reader.On("List", mock.Anything,
		domain.RecommendationFilter{
			OrgID:    "org-1",
			RuleID:   "azure.vm.rightsize",
			Statuses: []domain.RecommendationStatus{domain.StatusOpen},
		},
		domain.Page{Limit: 10},
	).Return([]domain.Recommendation{{
		ID:            "rec-1",
		RuleID:        "azure.vm.rightsize",
		ResourceID:    "vm-1",
		Title:         "Rightsize web-vm-1",
		ImpactMonthly: 240,
		Confidence:    0.9,
		Status:        domain.StatusOpen,
		UpdatedAt:     updatedAt,
	}}, nil)

	resp, err := http.Get(env.server.URL + "/api/v1/orgs/org-1/recommendations?status=open&rule=azure.vm.rightsize&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []api.Recommendation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "rec-1", recs[0].ID)
	assert.Equal(t, 240.0, recs[0].ImpactMonthly)
	assert.Equal(t, "open", recs[0].Status)
}

func TestListRecommendations_InvalidLimit(t *testing.T) {
	env := setupEnv(t)

	resp, err := http.Get(env.server.URL + "/api/v1/orgs/org-1/recommendations?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpenPullRequest(t *testing.T) {
	env := setupEnv(t)

	env.prs.On("OpenFixPR", mock.Anything, "org-1", "rec-1",
		pullrequest.Options{Title: "Custom title"},
	).Return(&domain.PullRequest{
		Number:  42,
		URL:     "https://github.com/acme/infrastructure/pull/42",
		HeadRef: "costpilot/azure.vm.rightsize-web-vm-1",
	}, nil)

	body, _ := json.Marshal(api.OpenPRRequest{Title: "Custom title"})
	resp, err := http.Post(
		env.server.URL+"/api/v1/orgs/org-1/recommendations/rec-1/pr",
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pr api.PullRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pr))
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, "costpilot/azure.vm.rightsize-web-vm-1", pr.Branch)
}

func TestOpenPullRequest_NotFound(t *testing.T) {
	env := setupEnv(t)

	env.prs.On("OpenFixPR", mock.Anything, "org-1", "rec-404", pullrequest.Options{}).
		Return(nil, errNotFound{})

	resp, err := http.Post(
		env.server.URL+"/api/v1/orgs/org-1/recommendations/rec-404/pr",
		"application/json",
		nil,
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type errNotFound struct{}

func (errNotFound) Error() string { return "recommendation rec-404 not found" }

func TestRunCycle(t *testing.T) {
	env := setupEnv(t)

	env.cycle.On("RunDailyCycle", mock.Anything, "org-1").Return(domain.CycleSummary{
		OrgID: "org-1",
		Steps: []domain.StepResult{
			{Name: "sync_resources", OK: true, Duration: 120 * time.Millisecond},
			{Name: "run_rules", OK: false, Error: "provider down", Duration: 5 * time.Millisecond},
		},
	})

	resp, err := http.Post(env.server.URL+"/api/v1/orgs/org-1/cycle", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary api.CycleSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.Len(t, summary.Steps, 2)
	assert.True(t, summary.Steps[0].OK)
	assert.Equal(t, int64(120), summary.Steps[0].DurationMS)
	assert.Equal(t, "provider down", summary.Steps[1].Error)
}

func TestListPullRequestEvents(t *testing.T) {
	env := setupEnv(t)

	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	env.events.On("ListByOrg", mock.Anything, "org-1").Return([]store.PullRequestEventRecord{{
		ID:               "evt-1",
		OrgID:            "org-1",
		RecommendationID: "rec-1",
		Provider:         "github",
		Repo:             "acme/infrastructure",
		Number:           42,
		Branch:           "costpilot/azure.vm.rightsize-web-vm-1",
		Status:           "opened",
		URL:              "https://github.com/acme/infrastructure/pull/42",
		CreatedAt:        createdAt,
	}}, nil)

	resp, err := http.Get(env.server.URL + "/api/v1/orgs/org-1/pull-requests")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []api.PullRequestEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, 42, events[0].Number)
	assert.Equal(t, "github", events[0].Provider)
}
