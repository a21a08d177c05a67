package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ssbprep/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})
	return repo
}

func TestCatalogItemsKeepInsertionOrder(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.PutItem(ctx, domain.TestWAT, domain.CatalogItem{ID: id, Payload: "word-" + id}))
	}

	items, err := repo.ListItems(ctx, domain.TestWAT)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, "b", items[2].ID)
}

func TestPutItemUpdateKeepsPosition(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.PutItem(ctx, domain.TestSRT, domain.CatalogItem{ID: "first", Payload: "v1"}))
	require.NoError(t, repo.PutItem(ctx, domain.TestSRT, domain.CatalogItem{ID: "second", Payload: "v1"}))
	require.NoError(t, repo.PutItem(ctx, domain.TestSRT, domain.CatalogItem{ID: "first", Payload: "v2", Description: "updated"}))

	items, err := repo.ListItems(ctx, domain.TestSRT)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].ID)
	assert.Equal(t, "v2", items[0].Payload)
	assert.Equal(t, "updated", items[0].Description)
}

func TestListItemsEmptyTestType(t *testing.T) {
	repo := newTestStore(t)

	items, err := repo.ListItems(context.Background(), domain.TestPPDT)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteItem(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.PutItem(ctx, domain.TestWAT, domain.CatalogItem{ID: "gone", Payload: "x"}))
	require.NoError(t, repo.DeleteItem(ctx, domain.TestWAT, "gone"))

	items, err := repo.ListItems(ctx, domain.TestWAT)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddSeenIsUnionAndIdempotent(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.AddSeen(ctx, "user1", domain.TestWAT, []string{"a", "b"}))
	require.NoError(t, repo.AddSeen(ctx, "user1", domain.TestWAT, []string{"b", "c"}))
	require.NoError(t, repo.AddSeen(ctx, "user1", domain.TestWAT, []string{"b", "c"}))

	ids, err := repo.SeenIDs(ctx, "user1", domain.TestWAT)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestSeenIDsScopedByUserAndTestType(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.AddSeen(ctx, "user1", domain.TestWAT, []string{"a"}))
	require.NoError(t, repo.AddSeen(ctx, "user2", domain.TestWAT, []string{"b"}))
	require.NoError(t, repo.AddSeen(ctx, "user1", domain.TestSRT, []string{"c"}))

	ids, err := repo.SeenIDs(ctx, "user1", domain.TestWAT)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, ids)
}

func TestClearSeen(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.AddSeen(ctx, "user1", domain.TestWAT, []string{"a", "b"}))
	require.NoError(t, repo.ClearSeen(ctx, "user1", domain.TestWAT))

	ids, err := repo.SeenIDs(ctx, "user1", domain.TestWAT)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	older := &domain.Session{
		ID:        "sess-1",
		UserID:    "user1",
		TestType:  domain.TestSRT,
		ItemIDs:   []string{"a", "b"},
		Responses: []string{"did this", ""},
		CreatedAt: time.Unix(1000, 0),
	}
	newer := &domain.Session{
		ID:        "sess-2",
		UserID:    "user1",
		TestType:  domain.TestWAT,
		ItemIDs:   []string{"c"},
		Responses: []string{"word"},
		CreatedAt: time.Unix(2000, 0),
	}
	require.NoError(t, repo.AppendSession(ctx, older))
	require.NoError(t, repo.AppendSession(ctx, newer))

	sessions, err := repo.ListSessions(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "sess-2", sessions[0].ID)
	assert.Equal(t, domain.TestWAT, sessions[0].TestType)
	assert.Equal(t, []string{"c"}, sessions[0].ItemIDs)

	assert.Equal(t, "sess-1", sessions[1].ID)
	assert.Equal(t, []string{"a", "b"}, sessions[1].ItemIDs)
	assert.Equal(t, []string{"did this", ""}, sessions[1].Responses)
	assert.Equal(t, int64(1000), sessions[1].CreatedAt.Unix())
}

func TestListSessionsOtherUserEmpty(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendSession(ctx, &domain.Session{
		ID: "sess-1", UserID: "user1", TestType: domain.TestWAT,
		ItemIDs: []string{"a"}, Responses: []string{"r"}, CreatedAt: time.Now(),
	}))

	sessions, err := repo.ListSessions(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
