package session

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	missing, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	s := &Session{
		ID:        "sid-1",
		UserID:    "user-1",
		ReturnTo:  "/admin/dashboard",
		CreatedAt: time.Now().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "/admin/dashboard", got.ReturnTo)

	s.ReturnTo = ""
	require.NoError(t, store.Save(ctx, s))
	got, err = store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Empty(t, got.ReturnTo)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	got, err = store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, store.Delete(ctx, "sid-1"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}))

	got, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, store.Len())
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), openSQLite(t))
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestSQLiteStorePurge(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, openSQLite(t))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, &Session{ID: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseStore(t, NewRedisStore(client))
}
