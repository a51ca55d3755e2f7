package pullrequest

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/costpilot/pkg/adapters"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/repohost"
	"github.com/de-tools/costpilot/pkg/services/iacmap"
	"github.com/de-tools/costpilot/pkg/services/patch"
)

const (
	defaultBranchPrefix = "costpilot/"
	fallbackBranchName  = "costpilot/fix"
	providerName        = "github"
)

// RecommendationStore is the slice of the store the orchestrator needs.
type RecommendationStore interface {
	Get(ctx context.Context, orgID, id string) (*store.RecommendationRecord, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// ResourceStore resolves the resource a recommendation targets and
// persists mapping metadata discovered along the way.
type ResourceStore interface {
	Get(ctx context.Context, orgID, resourceID string) (*store.ResourceRecord, error)
	UpdateTags(ctx context.Context, orgID, id string, tags map[string]string) error
}

// FileMapper locates the IaC file declaring a resource.
type FileMapper interface {
	FindFile(ctx context.Context, repo string, res domain.CloudResource) (*domain.IaCFile, error)
}

// EventStore records the immutable audit row for an opened PR.
type EventStore interface {
	Create(ctx context.Context, event store.PullRequestEventRecord) error
}

// Options are per-call overrides; zero values fall back to
// recommendation-derived defaults.
type Options struct {
	BaseBranch    string
	CommitMessage string
	Title         string
	Body          string
	Labels        []string
}

// Orchestrator turns a persisted recommendation into an opened pull
// request: map the IaC file, patch it, branch, commit, open, record.
// There is no compensating rollback: a failure after branch creation
// leaves an orphan branch, which a retry reuses.
type Orchestrator struct {
	recommendations RecommendationStore
	resources       ResourceStore
	mapper          FileMapper
	host            repohost.Client
	events          EventStore
	now             func() time.Time
}

func NewOrchestrator(
	recommendations RecommendationStore,
	resources ResourceStore,
	mapper FileMapper,
	host repohost.Client,
	events EventStore,
) *Orchestrator {
	return &Orchestrator{
		recommendations: recommendations,
		resources:       resources,
		mapper:          mapper,
		host:            host,
		events:          events,
		now:             time.Now,
	}
}

// OpenFixPR runs the full pipeline for one recommendation. Every
// precondition failure is fatal for this recommendation only and leaves
// its status untouched; the status moves to in_pr only after the PR is
// confirmed opened.
func (o *Orchestrator) OpenFixPR(ctx context.Context, orgID, recommendationID string, opts Options) (*domain.PullRequest, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("org", orgID).
		Str("recommendation", recommendationID).
		Logger()

	record, err := o.recommendations.Get(ctx, orgID, recommendationID)
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("recommendation %s not found", recommendationID)
	}
	rec := *adapters.MapStoreRecommendationToDomain(record)

	repo := rec.Details["repo"]
	if repo == "" {
		return nil, fmt.Errorf("recommendation %s has no target repository", recommendationID)
	}

	resourceRecord, err := o.resources.Get(ctx, orgID, rec.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", rec.ResourceID, err)
	}
	if resourceRecord == nil {
		return nil, fmt.Errorf("resource %s not found", rec.ResourceID)
	}
	resource := *adapters.MapStoreResourceToDomain(resourceRecord)

	base := opts.BaseBranch
	if base == "" {
		base, err = o.host.GetDefaultBranch(ctx, repo)
		if err != nil {
			return nil, fmt.Errorf("resolve base branch: %w", err)
		}
	}

	branch := branchNameFor(rec, resource)

	file, err := o.mapper.FindFile(ctx, repo, resource)
	if err != nil {
		return nil, fmt.Errorf("map IaC file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("no IaC file found in %s for resource %s", repo, resource.ID)
	}

	// A path resolved through the tree heuristics is written back onto
	// the resource, so the next attempt takes the tag path without a
	// tree fetch. Best effort: mapping metadata must not fail the PR.
	if !iacmap.HasPathHint(resource) {
		tags := maps.Clone(resource.Tags)
		if tags == nil {
			tags = map[string]string{}
		}
		tags[iacmap.PathHintTag] = file.Path
		if err := o.resources.UpdateTags(ctx, orgID, resource.ID, tags); err != nil {
			logger.Warn().Err(err).Str("path", file.Path).Msg("failed to record IaC path mapping")
		}
	}

	current, err := o.host.GetFileContent(ctx, repo, file.Path, base)
	if err != nil {
		return nil, fmt.Errorf("fetch %s@%s: %w", file.Path, base, err)
	}

	updated, err := patch.Generate(file.Format, current, rec)
	if err != nil {
		return nil, fmt.Errorf("generate patch: %w", err)
	}
	if updated == current {
		return nil, fmt.Errorf("no changes for %s in %s", recommendationID, file.Path)
	}

	if err := o.host.CreateBranch(ctx, repo, base, branch); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}

	message := opts.CommitMessage
	if message == "" {
		message = fmt.Sprintf("costpilot: %s", rec.Title)
	}
	files := []repohost.CommitFile{{Path: file.Path, Content: updated}}
	if err := o.host.CommitFiles(ctx, repo, branch, files, message); err != nil {
		return nil, fmt.Errorf("commit patch: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = rec.Title
	}
	body := opts.Body
	if body == "" {
		body = prBodyFor(rec, file)
	}
	labels := opts.Labels
	if len(labels) == 0 {
		labels = []string{"costpilot", "cost-optimization"}
	}

	pr, err := o.host.OpenPullRequest(ctx, repo, branch, base, title, body, labels)
	if err != nil {
		return nil, fmt.Errorf("open pull request: %w", err)
	}

	event := store.PullRequestEventRecord{
		ID:               uuid.NewString(),
		OrgID:            orgID,
		RecommendationID: rec.ID,
		Provider:         providerName,
		Repo:             repo,
		Number:           pr.Number,
		Branch:           branch,
		Status:           "opened",
		URL:              pr.URL,
		CreatedAt:        o.now(),
	}
	if err := o.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("record pull request event: %w", err)
	}

	if err := o.recommendations.UpdateStatus(ctx, rec.ID, string(domain.StatusInPR)); err != nil {
		return nil, fmt.Errorf("advance recommendation status: %w", err)
	}

	logger.Info().
		Str("repo", repo).
		Int("pr", pr.Number).
		Str("branch", branch).
		Msg("pull request opened")

	return pr, nil
}

// branchNameFor derives a sanitized branch name from the rule and
// resource, with a generic fallback when sanitizing leaves nothing.
func branchNameFor(rec domain.Recommendation, res domain.CloudResource) string {
	suffix := sanitizeBranch(fmt.Sprintf("%s-%s", rec.RuleID, res.Name))
	if suffix == "" {
		return fallbackBranchName
	}
	return defaultBranchPrefix + suffix
}

// sanitizeBranch lowercases and collapses runs of characters outside
// [a-z0-9._-] into single hyphens, trimming the result.
func sanitizeBranch(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-._")
}

func prBodyFor(rec domain.Recommendation, file *domain.IaCFile) string {
	var b strings.Builder
	b.WriteString(rec.Description)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("- Estimated monthly impact: $%.2f\n", rec.ImpactMonthly))
	b.WriteString(fmt.Sprintf("- Confidence: %.0f%%\n", rec.Confidence*100))
	b.WriteString(fmt.Sprintf("- File: `%s` (%s)\n", file.Path, file.Format))
	b.WriteString(fmt.Sprintf("- Recommendation: `%s`\n", rec.ID))
	return b.String()
}
