package connection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/costpilot/pkg/adapters"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
)

// Store resolves org-to-subscription links. GetEnabled returns nil (no
// error) when the org has no enabled connection; callers treat that as a
// configuration error on their side.
type Store interface {
	GetEnabled(ctx context.Context, orgID string) (*domain.Connection, error)
	Upsert(ctx context.Context, rec store.ConnectionRecord) error
}

type connectionStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &connectionStore{db: db}, nil
}

func (s *connectionStore) GetEnabled(ctx context.Context, orgID string) (*domain.Connection, error) {
	query := `
		SELECT id, org_id, subscription_id, tenant_id, client_id, enabled
		FROM connections
		WHERE org_id = ? AND enabled
		ORDER BY id
		LIMIT 1`

	var rec store.ConnectionRecord
	var tenant, client sql.NullString
	err := s.db.QueryRowContext(ctx, query, orgID).Scan(
		&rec.ID, &rec.OrgID, &rec.SubscriptionID, &tenant, &client, &rec.Enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enabled connection: %w", err)
	}

	rec.TenantID = tenant.String
	rec.ClientID = client.String
	return adapters.MapStoreConnectionToDomain(&rec), nil
}

func (s *connectionStore) Upsert(ctx context.Context, rec store.ConnectionRecord) error {
	query := `
		INSERT INTO connections (id, org_id, subscription_id, tenant_id, client_id, enabled)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			org_id = excluded.org_id,
			subscription_id = excluded.subscription_id,
			tenant_id = excluded.tenant_id,
			client_id = excluded.client_id,
			enabled = excluded.enabled`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.OrgID, rec.SubscriptionID, rec.TenantID, rec.ClientID, rec.Enabled)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}
