package prevent

import (
	"context"
	"testing"
	"time"

	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) Store {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return s
}

func event(id, orgID, recID string, number int, createdAt time.Time) store.PullRequestEventRecord {
	return store.PullRequestEventRecord{
		ID:               id,
		OrgID:            orgID,
		RecommendationID: recID,
		Provider:         "github",
		Repo:             "acme/infrastructure",
		Number:           number,
		Branch:           "costpilot/azure.vm.rightsize-web-vm-1",
		Status:           "opened",
		URL:              "https://github.com/acme/infrastructure/pull/42",
		CreatedAt:        createdAt,
	}
}

func TestEventStore_CreateAndList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, event("evt-1", "org-1", "rec-1", 42, base)))
	require.NoError(t, s.Create(ctx, event("evt-2", "org-1", "rec-2", 43, base.Add(time.Hour))))
	require.NoError(t, s.Create(ctx, event("evt-3", "org-2", "rec-9", 7, base)))

	events, err := s.ListByOrg(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, "evt-1", events[1].ID)
	assert.Equal(t, 42, events[1].Number)
	assert.Equal(t, "github", events[1].Provider)
}

func TestEventStore_ListByOrg_Empty(t *testing.T) {
	s := setupStore(t)

	events, err := s.ListByOrg(context.Background(), "org-unknown")
	require.NoError(t, err)
	assert.Empty(t, events)
}
