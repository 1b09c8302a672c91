// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package directory_test

import (
	"context"
	"path/filepath"
	"testing"

	"codeberg.org/oliverandrich/recovery-service/internal/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *directory.SQLiteStore {
	t.Helper()
	store, err := directory.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStore_FindByEmail(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	err := store.AddUser(ctx, "alice", directory.UserRecord{Email: "A@X.com", PasswordHash: "h1"})
	require.NoError(t, err)

	username, err := store.FindByEmail(ctx, "  a@x.com ")

	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestSQLiteStore_FindByEmail_NotFound(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	err := store.AddUser(ctx, "alice", directory.UserRecord{Email: "a@x.com", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = store.FindByEmail(ctx, "bob@x.com")

	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestSQLiteStore_FindByEmail_DuplicateTieBreak(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	// Insertion order decides: the lowest rowid wins.
	require.NoError(t, store.AddUser(ctx, "zoe", directory.UserRecord{Email: "shared@x.com", PasswordHash: "h1"}))
	require.NoError(t, store.AddUser(ctx, "adam", directory.UserRecord{Email: "SHARED@x.com", PasswordHash: "h2"}))

	username, err := store.FindByEmail(ctx, "shared@x.com")

	require.NoError(t, err)
	assert.Equal(t, "zoe", username)
}

func TestSQLiteStore_AddUser_Invalid(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  directory.UserRecord
	}{
		{"missing password_hash", directory.UserRecord{Email: "a@x.com"}},
		{"missing email", directory.UserRecord{PasswordHash: "h1"}},
		{"malformed email", directory.UserRecord{Email: "nope", PasswordHash: "h1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddUser(ctx, "bad", tt.rec)

			var storeErr *directory.StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, "bad", storeErr.Username)
		})
	}
}

func TestSQLiteStore_AddUser_DuplicateUsername(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUser(ctx, "alice", directory.UserRecord{Email: "a@x.com", PasswordHash: "h1"}))

	err := store.AddUser(ctx, "alice", directory.UserRecord{Email: "a2@x.com", PasswordHash: "h2"})

	var storeErr *directory.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestOpenSQLite_ReopenValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")

	store, err := directory.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.AddUser(context.Background(), "alice", directory.UserRecord{Email: "a@x.com", PasswordHash: "h1"}))
	require.NoError(t, store.Close())

	// Reopening runs the all-or-nothing validation over existing rows.
	store, err = directory.OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	username, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}
