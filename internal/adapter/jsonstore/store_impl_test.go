package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

func newTestStore(t *testing.T) (*Store, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return New(t.TempDir(), zap.New(core)), logs
}

func TestMergeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	records := []entity.MetadataRecord{
		{Thumbnail: "https://cdn.example.com/a.png", Title: "Sales <Overview> & more", SourceLink: "https://example.com/a"},
		{Thumbnail: "https://cdn.example.com/b.png", Title: "Marketing Métricas"},
	}

	added, err := store.Merge(ctx, records)
	require.NoError(t, err)
	assert.Len(t, added, 2)

	first, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(first), "Sales <Overview> & more")
	assert.Contains(t, string(first), "Marketing Métricas")
	assert.Contains(t, string(first), "\n  {\n    \"thumbnail\"")

	added, err = store.Merge(ctx, records)
	require.NoError(t, err)
	assert.Empty(t, added)

	second, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMergeReturnsOnlyNewRecordsAndNoDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Merge(ctx, []entity.MetadataRecord{{Thumbnail: "t1", Title: "one"}})
	require.NoError(t, err)

	added, err := store.Merge(ctx, []entity.MetadataRecord{
		{Thumbnail: "t1", Title: "one again"},
		{Thumbnail: "t2", Title: "two"},
		{Thumbnail: "t2", Title: "two again"},
		{SourceLink: "https://example.com/only-link", Title: "three"},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "t2", added[0].Thumbnail)
	assert.Equal(t, "https://example.com/only-link", added[1].SourceLink)

	all, err := store.Load(ctx)
	require.NoError(t, err)
	keys := map[string]bool{}
	for _, r := range all {
		assert.False(t, keys[r.IdentityKey()], "duplicate key %s", r.IdentityKey())
		keys[r.IdentityKey()] = true
	}
	assert.Len(t, all, 3)
}

func TestMergePreservesUnknownAndLegacyFields(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	legacy := `[{"image_url": "https://cdn.example.com/old.png", "title": "Old", "rating": 4}]`
	require.NoError(t, os.WriteFile(store.Path(), []byte(legacy), 0o644))

	added, err := store.Merge(ctx, []entity.MetadataRecord{
		{Thumbnail: "https://cdn.example.com/old.png", Title: "Old"},
		{Thumbnail: "https://cdn.example.com/new.png", Title: "New"},
	})
	require.NoError(t, err)
	require.Len(t, added, 1)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rating": 4`)
	assert.Contains(t, string(data), "new.png")
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store, logs := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	added, err := store.Merge(ctx, []entity.MetadataRecord{{Thumbnail: "t", Title: "x"}})
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.Equal(t, 1, logs.FilterMessage("metadata file is not a JSON array, starting empty").Len())
}

func TestMergeWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	core, logs := observer.New(zap.DebugLevel)
	store := New(filepath.Join(blocker, "out"), zap.New(core))

	_, err := store.Merge(ctx, []entity.MetadataRecord{{Thumbnail: "t", Title: "x"}})
	assert.ErrorIs(t, err, repository.ErrStoreWrite)
	assert.Equal(t, 1, logs.FilterMessage("failed to write metadata file").Len())
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.Merge(ctx, []entity.MetadataRecord{
		{Thumbnail: "a", Title: "keep"},
		{Thumbnail: "b", Title: "drop"},
		{Thumbnail: "c", Title: "keep too"},
	})
	require.NoError(t, err)

	report, err := store.Prune(ctx, func(r entity.MetadataRecord) bool { return r.Title == "drop" })
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 2, report.Remaining)

	all, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c", all[1].Thumbnail)
}
