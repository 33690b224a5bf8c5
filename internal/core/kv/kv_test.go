package kv_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/colonyops/taskorg/internal/core/kv"
	"github.com/colonyops/taskorg/internal/data/db"
	"github.com/colonyops/taskorg/internal/data/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func newTestKV(t *testing.T) kv.KV {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database)
}

func TestCollection_PutAndGet(t *testing.T) {
	ctx := context.Background()
	notes := kv.Scoped[note](newTestKV(t), "notes")

	require.NoError(t, notes.Put(ctx, "a", note{Title: "first"}))

	got, err := notes.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, note{Title: "first"}, got)

	err = notes.Put(ctx, "a", note{Title: "again"})
	require.ErrorIs(t, err, kv.ErrExists)
}

func TestCollection_GetMissing(t *testing.T) {
	ctx := context.Background()
	notes := kv.Scoped[note](newTestKV(t), "notes")

	_, err := notes.Get(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCollection_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestKV(t)

	alpha := kv.Scoped[int](store, "alpha")
	beta := kv.Scoped[int](store, "beta")

	require.NoError(t, alpha.Set(ctx, "count", 10))
	require.NoError(t, beta.Set(ctx, "count", 20))

	a, err := alpha.Get(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, 10, a)

	all, err := beta.Scan(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{20}, all)

	var raw int
	require.NoError(t, store.Get(ctx, "alpha:count", &raw))
	assert.Equal(t, 10, raw)
}

func TestCollection_PatchAndFilter(t *testing.T) {
	ctx := context.Background()
	notes := kv.Scoped[note](newTestKV(t), "notes")

	require.NoError(t, notes.Put(ctx, "a", note{Title: "a"}))
	require.NoError(t, notes.Put(ctx, "b", note{Title: "b"}))

	ok, err := notes.Patch(ctx, "a", "$.done", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = notes.Patch(ctx, "zzz", "$.done", true)
	require.NoError(t, err)
	assert.False(t, ok)

	open, err := notes.Scan(ctx, &kv.Filter{Path: "$.done", Equals: false})
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "b"}}, open)

	done, err := notes.Scan(ctx, &kv.Filter{Path: "$.done", Equals: true})
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "a", Done: true}}, done)
}

func TestCollection_ScanPrefix(t *testing.T) {
	ctx := context.Background()
	notes := kv.Scoped[note](newTestKV(t), "notes")

	require.NoError(t, notes.Put(ctx, "x:1", note{Title: "x1"}))
	require.NoError(t, notes.Put(ctx, "x:2", note{Title: "x2"}))
	require.NoError(t, notes.Put(ctx, "y:1", note{Title: "y1"}))

	got, err := notes.ScanPrefix(ctx, "x:", nil)
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "x1"}, {Title: "x2"}}, got)
}

func TestCollection_SetTTL(t *testing.T) {
	ctx := context.Background()
	notes := kv.Scoped[note](newTestKV(t), "notes")

	require.NoError(t, notes.SetTTL(ctx, "short", note{Title: "gone"}, time.Millisecond))
	require.NoError(t, notes.SetTTL(ctx, "long", note{Title: "kept"}, time.Hour))

	time.Sleep(5 * time.Millisecond)

	_, err := notes.Get(ctx, "short")
	require.ErrorIs(t, err, sql.ErrNoRows)

	got, err := notes.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
}
