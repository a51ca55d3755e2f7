package recommendation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
)

const defaultPageLimit = 50

// Store persists recommendation records. (org_id, rule_id, resource_id)
// is unique; the reconciler enforces create-or-update against that key.
// FindByKey and Get return nil (no error) on no match.
type Store interface {
	FindByKey(ctx context.Context, orgID, ruleID, resourceID string) (*store.RecommendationRecord, error)
	Create(ctx context.Context, rec store.RecommendationRecord) error
	Update(ctx context.Context, rec store.RecommendationRecord) error
	Get(ctx context.Context, orgID, id string) (*store.RecommendationRecord, error)
	List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]*store.RecommendationRecord, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type recommendationStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &recommendationStore{db: db}, nil
}

const recommendationColumns = `
	id, org_id, rule_id, resource_id, subscription_id, title, description,
	impact_monthly, confidence, status, details, created_at, updated_at`

func (s *recommendationStore) FindByKey(ctx context.Context, orgID, ruleID, resourceID string) (*store.RecommendationRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE org_id = ? AND rule_id = ? AND resource_id = ?`, recommendationColumns)

	rec, err := scanRecommendation(s.db.QueryRowContext(ctx, query, orgID, ruleID, resourceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recommendation by key: %w", err)
	}
	return rec, nil
}

func (s *recommendationStore) Create(ctx context.Context, rec store.RecommendationRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO recommendations (
			id, org_id, rule_id, resource_id, subscription_id, title, description,
			impact_monthly, confidence, status, details, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = execContext(ctx, s.db, query,
		rec.ID,
		rec.OrgID,
		rec.RuleID,
		rec.ResourceID,
		rec.SubscriptionID,
		rec.Title,
		rec.Description,
		rec.ImpactMonthly,
		rec.Confidence,
		rec.Status,
		details,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (s *recommendationStore) Update(ctx context.Context, rec store.RecommendationRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		UPDATE recommendations SET
			subscription_id = ?,
			title = ?,
			description = ?,
			impact_monthly = ?,
			confidence = ?,
			status = ?,
			details = ?,
			updated_at = ?
		WHERE id = ?`

	_, err = execContext(ctx, s.db, query,
		rec.SubscriptionID,
		rec.Title,
		rec.Description,
		rec.ImpactMonthly,
		rec.Confidence,
		rec.Status,
		details,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update recommendation: %w", err)
	}
	return nil
}

func (s *recommendationStore) Get(ctx context.Context, orgID, id string) (*store.RecommendationRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE org_id = ? AND id = ?`, recommendationColumns)

	rec, err := scanRecommendation(s.db.QueryRowContext(ctx, query, orgID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return rec, nil
}

func (s *recommendationStore) List(ctx context.Context, filter domain.RecommendationFilter, page domain.Page) ([]*store.RecommendationRecord, error) {
	clauses := []string{"org_id = ?"}
	args := []interface{}{filter.OrgID}

	if filter.RuleID != "" {
		clauses = append(clauses, "rule_id = ?")
		args = append(args, filter.RuleID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",")
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders))
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE %s
		ORDER BY impact_monthly DESC, id
		LIMIT ? OFFSET ?`, recommendationColumns, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	records := make([]*store.RecommendationRecord, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *recommendationStore) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := execContext(ctx, s.db, `UPDATE recommendations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update recommendation status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("recommendation %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecommendation(row rowScanner) (*store.RecommendationRecord, error) {
	var (
		rec        store.RecommendationRecord
		detailsRaw []byte
		subID      sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.OrgID,
		&rec.RuleID,
		&rec.ResourceID,
		&subID,
		&rec.Title,
		&rec.Description,
		&rec.ImpactMonthly,
		&rec.Confidence,
		&rec.Status,
		&detailsRaw,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SubscriptionID = subID.String
	rec.Details = map[string]string{}
	if len(detailsRaw) > 0 {
		_ = json.Unmarshal(detailsRaw, &rec.Details)
	}
	return &rec, nil
}

func execContext(ctx context.Context, db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}
