package main

import (
	"context"
	"path/filepath"
	"testing"

	"sainmakosam/internal/config"
	"sainmakosam/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedUsersRequiresConfirmation(t *testing.T) {
	seedConfirm = false
	err := runSeedUsers(seedUsersCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestOpenSessionStore(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := openSessionStore(ctx, &config.Config{SessionStore: config.SessionStoreMemory})
	require.NoError(t, err)
	closeStore()
	assert.IsType(t, &session.MemoryStore{}, store)

	store, closeStore, err = openSessionStore(ctx, &config.Config{
		SessionStore:      config.SessionStoreSQLite,
		SessionSQLitePath: filepath.Join(t.TempDir(), "data", "sessions.db"),
	})
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &session.SQLiteStore{}, store)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["seed-users"])

	flag := seedUsersCmd.Flags().Lookup("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
