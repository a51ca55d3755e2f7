package resource

import (
	"context"
	"database/sql"
	"testing"

	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{db: db, store: s}
}

func record(id, orgID, resourceType string) store.ResourceRecord {
	return store.ResourceRecord{
		ID:             id,
		OrgID:          orgID,
		Name:           id,
		Type:           resourceType,
		Tags:           map[string]string{"env": "prod"},
		Metrics:        map[string]float64{"cpu_avg_30d": 12.5},
		SubscriptionID: "sub-1",
	}
}

func TestResourceStore_UpsertAndGet(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("success - insert and read back", func(t *testing.T) {
		require.NoError(t, f.store.Upsert(ctx, record("vm-1", "org-1", "virtualMachines")))

		got, err := f.store.Get(ctx, "org-1", "vm-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "virtualMachines", got.Type)
		assert.Equal(t, "prod", got.Tags["env"])
		assert.Equal(t, 12.5, got.Metrics["cpu_avg_30d"])
		assert.False(t, got.MonthlyCost.Valid)
	})

	t.Run("success - upsert overwrites in place", func(t *testing.T) {
		updated := record("vm-1", "org-1", "virtualMachines")
		updated.MonthlyCost = sql.NullFloat64{Float64: 480, Valid: true}
		updated.Tags["env"] = "staging"
		require.NoError(t, f.store.Upsert(ctx, updated))

		got, err := f.store.Get(ctx, "org-1", "vm-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 480.0, got.MonthlyCost.Float64)
		assert.Equal(t, "staging", got.Tags["env"])

		var count int
		require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM resources").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("success - missing resource yields nil", func(t *testing.T) {
		got, err := f.store.Get(ctx, "org-1", "no-such")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestResourceStore_ListByOrgAndType(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Upsert(ctx, record("vm-1", "org-1", "virtualMachines")))
	require.NoError(t, f.store.Upsert(ctx, record("vm-2", "org-1", "virtualMachines")))
	require.NoError(t, f.store.Upsert(ctx, record("sa-1", "org-1", "storageAccounts")))
	require.NoError(t, f.store.Upsert(ctx, record("vm-3", "org-2", "virtualMachines")))

	vms, err := f.store.ListByOrgAndType(ctx, "org-1", "virtualMachines")
	require.NoError(t, err)
	require.Len(t, vms, 2)
	assert.Equal(t, "vm-1", vms[0].ID)
	assert.Equal(t, "vm-2", vms[1].ID)
	assert.Equal(t, "org-1", vms[0].OrgID)
}

func TestResourceStore_UpdateTags(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Upsert(ctx, record("vm-1", "org-1", "virtualMachines")))

	t.Run("success - replaces the tag set", func(t *testing.T) {
		tags := map[string]string{"env": "prod", "costpilot:iac_path": "infra/vm-1.tf"}
		require.NoError(t, f.store.UpdateTags(ctx, "org-1", "vm-1", tags))

		got, err := f.store.Get(ctx, "org-1", "vm-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "infra/vm-1.tf", got.Tags["costpilot:iac_path"])
		assert.Equal(t, "prod", got.Tags["env"])
	})

	t.Run("error - unknown resource", func(t *testing.T) {
		err := f.store.UpdateTags(ctx, "org-1", "no-such", map[string]string{"a": "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestResourceStore_DeleteNotIn(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Upsert(ctx, record("vm-1", "org-1", "virtualMachines")))
	require.NoError(t, f.store.Upsert(ctx, record("vm-2", "org-1", "virtualMachines")))
	require.NoError(t, f.store.Upsert(ctx, record("vm-3", "org-2", "virtualMachines")))

	t.Run("success - prunes rows not kept", func(t *testing.T) {
		require.NoError(t, f.store.DeleteNotIn(ctx, "org-1", []string{"vm-2"}))

		gone, err := f.store.Get(ctx, "org-1", "vm-1")
		require.NoError(t, err)
		assert.Nil(t, gone)

		kept, err := f.store.Get(ctx, "org-1", "vm-2")
		require.NoError(t, err)
		assert.NotNil(t, kept)

		otherOrg, err := f.store.Get(ctx, "org-2", "vm-3")
		require.NoError(t, err)
		assert.NotNil(t, otherOrg)
	})

	t.Run("success - empty keep list clears the org", func(t *testing.T) {
		require.NoError(t, f.store.DeleteNotIn(ctx, "org-1", nil))

		rest, err := f.store.ListByOrgAndType(ctx, "org-1", "virtualMachines")
		require.NoError(t, err)
		assert.Empty(t, rest)
	})
}
