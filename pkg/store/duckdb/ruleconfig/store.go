package ruleconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
)

// Store persists per-org rule configuration overrides. A row's NULL
// enabled column and absent threshold keys inherit the catalog default.
type Store interface {
	GetOverrides(ctx context.Context, orgID string) (domain.RuleOverrides, error)
	Set(ctx context.Context, rec store.RuleOverrideRecord) error
}

type overrideStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &overrideStore{db: db}, nil
}

func (s *overrideStore) GetOverrides(ctx context.Context, orgID string) (domain.RuleOverrides, error) {
	query := `SELECT rule_id, enabled, thresholds FROM rule_overrides WHERE org_id = ?`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query rule overrides: %w", err)
	}
	defer rows.Close()

	overrides := domain.RuleOverrides{}
	for rows.Next() {
		var (
			ruleID        string
			enabled       sql.NullBool
			thresholdsRaw []byte
		)
		if err := rows.Scan(&ruleID, &enabled, &thresholdsRaw); err != nil {
			return nil, fmt.Errorf("scan rule override: %w", err)
		}

		override := domain.RuleOverride{}
		if enabled.Valid {
			value := enabled.Bool
			override.Enabled = &value
		}
		if len(thresholdsRaw) > 0 {
			thresholds := map[string]float64{}
			if err := json.Unmarshal(thresholdsRaw, &thresholds); err == nil && len(thresholds) > 0 {
				override.Thresholds = thresholds
			}
		}
		overrides[ruleID] = override
	}
	return overrides, rows.Err()
}

func (s *overrideStore) Set(ctx context.Context, rec store.RuleOverrideRecord) error {
	thresholds, err := json.Marshal(rec.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}

	var enabled sql.NullBool
	if rec.Enabled != nil {
		enabled = sql.NullBool{Bool: *rec.Enabled, Valid: true}
	}

	query := `
		INSERT INTO rule_overrides (org_id, rule_id, enabled, thresholds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (org_id, rule_id) DO UPDATE SET
			enabled = excluded.enabled,
			thresholds = excluded.thresholds`

	if tx := duckdb.GetTransaction(ctx); tx != nil {
		_, err = tx.ExecContext(ctx, query, rec.OrgID, rec.RuleID, enabled, thresholds)
	} else {
		_, err = s.db.ExecContext(ctx, query, rec.OrgID, rec.RuleID, enabled, thresholds)
	}
	if err != nil {
		return fmt.Errorf("upsert rule override: %w", err)
	}
	return nil
}
