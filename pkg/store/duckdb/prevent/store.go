package prevent

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
)

// Store is the append-only audit log of opened pull requests. Rows are
// written after the PR exists on the host and are never updated.
type Store interface {
	Create(ctx context.Context, event store.PullRequestEventRecord) error
	ListByOrg(ctx context.Context, orgID string) ([]store.PullRequestEventRecord, error)
}

type eventStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &eventStore{db: db}, nil
}

func (s *eventStore) Create(ctx context.Context, event store.PullRequestEventRecord) error {
	query := `
		INSERT INTO pr_events (
			id, org_id, recommendation_id, provider, repo, number, branch, status, url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var err error
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		_, err = tx.ExecContext(ctx, query,
			event.ID, event.OrgID, event.RecommendationID, event.Provider,
			event.Repo, event.Number, event.Branch, event.Status, event.URL, event.CreatedAt)
	} else {
		_, err = s.db.ExecContext(ctx, query,
			event.ID, event.OrgID, event.RecommendationID, event.Provider,
			event.Repo, event.Number, event.Branch, event.Status, event.URL, event.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("insert pr event: %w", err)
	}
	return nil
}

func (s *eventStore) ListByOrg(ctx context.Context, orgID string) ([]store.PullRequestEventRecord, error) {
	query := `
		SELECT id, org_id, recommendation_id, provider, repo, number, branch, status, url, created_at
		FROM pr_events
		WHERE org_id = ?
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list pr events: %w", err)
	}
	defer rows.Close()

	events := make([]store.PullRequestEventRecord, 0)
	for rows.Next() {
		var event store.PullRequestEventRecord
		err := rows.Scan(
			&event.ID, &event.OrgID, &event.RecommendationID, &event.Provider,
			&event.Repo, &event.Number, &event.Branch, &event.Status, &event.URL, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan pr event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
