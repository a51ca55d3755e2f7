package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/de-tools/costpilot/pkg/adapters"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
)

// Store is the resource inventory table. Upsert and DeleteNotIn serve
// the sync cycle; the read methods serve the rule engine and the PR
// orchestrator. Get returns nil (no error) when no row matches.
type Store interface {
	Upsert(ctx context.Context, rec store.ResourceRecord) error
	Get(ctx context.Context, orgID, id string) (*store.ResourceRecord, error)
	ListByOrgAndType(ctx context.Context, orgID, resourceType string) ([]domain.CloudResource, error)
	UpdateTags(ctx context.Context, orgID, id string, tags map[string]string) error
	DeleteNotIn(ctx context.Context, orgID string, keepIDs []string) error
}

type resourceStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &resourceStore{db: db}, nil
}

func (s *resourceStore) Upsert(ctx context.Context, rec store.ResourceRecord) error {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	metrics, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO resources (
			id, org_id, name, type, tags, metrics, monthly_cost, subscription_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			tags = excluded.tags,
			metrics = excluded.metrics,
			monthly_cost = excluded.monthly_cost,
			subscription_id = excluded.subscription_id`

	_, err = execContext(ctx, s.db, query,
		rec.ID,
		rec.OrgID,
		rec.Name,
		rec.Type,
		tags,
		metrics,
		rec.MonthlyCost,
		rec.SubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("upsert resource: %w", err)
	}
	return nil
}

func (s *resourceStore) Get(ctx context.Context, orgID, id string) (*store.ResourceRecord, error) {
	query := `
		SELECT id, org_id, name, type, tags, metrics, monthly_cost, subscription_id
		FROM resources
		WHERE org_id = ? AND id = ?`

	rec, err := scanResource(s.db.QueryRowContext(ctx, query, orgID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return rec, nil
}

func (s *resourceStore) ListByOrgAndType(ctx context.Context, orgID, resourceType string) ([]domain.CloudResource, error) {
	query := `
		SELECT id, org_id, name, type, tags, metrics, monthly_cost, subscription_id
		FROM resources
		WHERE org_id = ? AND type = ?
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, orgID, resourceType)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	resources := make([]domain.CloudResource, 0)
	for rows.Next() {
		rec, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, *adapters.MapStoreResourceToDomain(rec))
	}
	return resources, rows.Err()
}

func (s *resourceStore) UpdateTags(ctx context.Context, orgID, id string, tags map[string]string) error {
	payload, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	result, err := execContext(ctx, s.db,
		`UPDATE resources SET tags = ? WHERE org_id = ? AND id = ?`,
		payload, orgID, id)
	if err != nil {
		return fmt.Errorf("update resource tags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update resource tags: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resource %s not found", id)
	}
	return nil
}

func (s *resourceStore) DeleteNotIn(ctx context.Context, orgID string, keepIDs []string) error {
	if len(keepIDs) == 0 {
		if _, err := execContext(ctx, s.db, `DELETE FROM resources WHERE org_id = ?`, orgID); err != nil {
			return fmt.Errorf("delete resources: %w", err)
		}
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keepIDs)), ",")
	args := make([]interface{}, 0, 1+len(keepIDs))
	args = append(args, orgID)
	for _, id := range keepIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(`DELETE FROM resources WHERE org_id = ? AND id NOT IN (%s)`, placeholders)
	if _, err := execContext(ctx, s.db, query, args...); err != nil {
		return fmt.Errorf("delete stale resources: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*store.ResourceRecord, error) {
	var (
		rec          store.ResourceRecord
		tagsRaw      []byte
		metricsRaw   []byte
		name, rtype  sql.NullString
		subscription sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.OrgID, &name, &rtype, &tagsRaw, &metricsRaw, &rec.MonthlyCost, &subscription)
	if err != nil {
		return nil, err
	}

	rec.Name = name.String
	rec.Type = rtype.String
	rec.SubscriptionID = subscription.String
	rec.Tags = map[string]string{}
	rec.Metrics = map[string]float64{}
	if len(tagsRaw) > 0 {
		_ = json.Unmarshal(tagsRaw, &rec.Tags)
	}
	if len(metricsRaw) > 0 {
		_ = json.Unmarshal(metricsRaw, &rec.Metrics)
	}
	return &rec, nil
}

func execContext(ctx context.Context, db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}
