package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/de-tools/costpilot/pkg/adapters"
	"github.com/de-tools/costpilot/pkg/models/api"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/services/pullrequest"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Reader lists persisted recommendations.
type Reader interface {
	List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]domain.Recommendation, error)
}

// PROpener runs the PR pipeline for one recommendation.
type PROpener interface {
	OpenFixPR(ctx context.Context, orgID, recommendationID string, opts pullrequest.Options) (*domain.PullRequest, error)
}

// CycleRunner triggers the org's daily cycle on demand.
type CycleRunner interface {
	RunDailyCycle(ctx context.Context, orgID string) domain.CycleSummary
}

// EventLister reads the PR audit log.
type EventLister interface {
	ListByOrg(ctx context.Context, orgID string) ([]store.PullRequestEventRecord, error)
}

type Handler struct {
	recommendations Reader
	prs             PROpener
	cycle           CycleRunner
	events          EventLister
}

func NewHandler(recommendations Reader, prs PROpener, cycle CycleRunner, events EventLister) *Handler {
	return &Handler{
		recommendations: recommendations,
		prs:             prs,
		cycle:           cycle,
		events:          events,
	}
}

func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := chi.URLParam(r, "org")

	filter := domain.RecommendationFilter{
		OrgID:  orgID,
		RuleID: r.URL.Query().Get("rule"),
	}
	if statuses := r.URL.Query().Get("status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.RecommendationStatus(strings.TrimSpace(s)))
		}
	}

	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.recommendations.List(ctx, filter, page)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list recommendations")
		writeError(w, http.StatusInternalServerError, "failed to list recommendations")
		return
	}

	response := make([]api.Recommendation, 0, len(recs))
	for _, rec := range recs {
		response = append(response, adapters.MapRecommendationDomainToApi(rec))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func (h *Handler) OpenPullRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := chi.URLParam(r, "org")
	recID := chi.URLParam(r, "id")

	var req api.OpenPRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pr, err := h.prs.OpenFixPR(ctx, orgID, recID, pullrequest.Options{
		Title:  req.Title,
		Body:   req.Body,
		Labels: req.Labels,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("recommendation", recID).Msg("failed to open pull request")
		status := http.StatusUnprocessableEntity
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(ctx, w, http.StatusCreated, api.PullRequest{
		Number: pr.Number,
		URL:    pr.URL,
		Branch: pr.HeadRef,
	})
}

func (h *Handler) RunCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := chi.URLParam(r, "org")

	summary := h.cycle.RunDailyCycle(ctx, orgID)

	response := api.CycleSummary{OrgID: summary.OrgID}
	for _, step := range summary.Steps {
		response.Steps = append(response.Steps, api.CycleStep{
			Name:       step.Name,
			OK:         step.OK,
			Error:      step.Error,
			DurationMS: step.Duration.Milliseconds(),
		})
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func (h *Handler) ListPullRequestEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := chi.URLParam(r, "org")

	events, err := h.events.ListByOrg(ctx, orgID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list pull request events")
		writeError(w, http.StatusInternalServerError, "failed to list pull request events")
		return
	}

	response := make([]api.PullRequestEvent, 0, len(events))
	for i := range events {
		event := adapters.MapStorePullRequestEventToDomain(&events[i])
		response = append(response, api.PullRequestEvent{
			ID:               event.ID,
			RecommendationID: event.RecommendationID,
			Provider:         event.Provider,
			Repo:             event.Repo,
			Number:           event.Number,
			Branch:           event.Branch,
			Status:           event.Status,
			URL:              event.URL,
			CreatedAt:        event.CreatedAt,
		})
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func pageFromQuery(r *http.Request) (domain.Page, error) {
	page := domain.Page{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return page, errors.New("invalid 'limit' parameter")
		}
		page.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return page, errors.New("invalid 'offset' parameter")
		}
		page.Offset = offset
	}
	return page, nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Message: message})
}
