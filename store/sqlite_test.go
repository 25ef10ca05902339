package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/past0101/gstravel/database"
	"github.com/past0101/gstravel/store"
)

func openTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewSQLite(db)
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := store.Document{
		"eventId": "ev1",
		"fields": []any{
			map[string]any{"label": "Όνομα", "type": "text", "required": true},
		},
	}
	require.NoError(t, s.SetByKey(ctx, store.EventForms, "ev1", doc))

	got, err := s.GetByKey(ctx, store.EventForms, "ev1")
	require.NoError(t, err)
	assert.Equal(t, "ev1", got["eventId"])
	fields, ok := got["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)

	_, err = s.GetByKey(ctx, store.EventForms, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteOverwriteAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetByKey(ctx, store.Events, "ev1", store.Document{"name": "Πάρος"}))
	require.NoError(t, s.SetByKey(ctx, store.Events, "ev1", store.Document{"name": "Νάξος"}))

	got, err := s.GetByKey(ctx, store.Events, "ev1")
	require.NoError(t, err)
	assert.Equal(t, "Νάξος", got["name"])

	snap, err := s.List(ctx, store.Events)
	require.NoError(t, err)
	assert.Len(t, snap, 1)

	require.NoError(t, s.DeleteByKey(ctx, store.Events, "ev1"))
	assert.ErrorIs(t, s.DeleteByKey(ctx, store.Events, "ev1"), store.ErrNotFound)
}

func TestSQLiteCollectionsAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetByKey(ctx, store.Events, "ev1", store.Document{"name": "x"}))
	require.NoError(t, s.SetByKey(ctx, store.EventForms, "ev1", store.Document{"fields": []any{}}))

	_, err := s.GetByKey(ctx, store.EventSubmissions, "ev1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	snap, err := s.List(ctx, store.EventForms)
	require.NoError(t, err)
	assert.Len(t, snap, 1)
}

func TestSQLiteSubscribe(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetByKey(ctx, store.EventForms, "ev1", store.Document{}))

	var mu sync.Mutex
	var got []store.Snapshot
	cancel := s.Subscribe(store.EventForms, func(snap store.Snapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no initial snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, s.SetByKey(ctx, store.EventForms, "ev2", store.Document{}))

	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no write snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got[0], 1)
	assert.Len(t, got[len(got)-1], 2)
}
