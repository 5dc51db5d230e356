package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Connect(filepath.Join(t.TempDir(), "bind.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestGetBindingAbsent(t *testing.T) {
	store := newTestStore(t)

	b, err := store.GetBinding(context.Background(), "U_missing")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestUpsertBindingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpsertBinding(ctx, "U1", "kc-1", "alice", ROLE_USER1)
	require.NoError(t, err)

	b, err := store.GetBinding(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "U1", b.LineUserID)
	assert.Equal(t, "kc-1", b.KcUserID)
	assert.Equal(t, "alice", b.Username)
	assert.Equal(t, ROLE_USER1, b.Role)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestConnectAppliesJournalMode(t *testing.T) {
	store := newTestStore(t)

	var mode string
	require.NoError(t, store.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestGetBindingUnexpectedTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.Exec(
		`INSERT INTO user_bindings (lineUserId, kcUserId, username, role, created_at)
		   VALUES (?, ?, ?, ?, ?)`,
		"U1", "kc-1", "alice", ROLE_USER1, "not-a-timestamp")
	require.NoError(t, err)

	// 格式不對只影響 CreatedAt，其他欄位照常讀出
	b, err := store.GetBinding(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "kc-1", b.KcUserID)
	assert.True(t, b.CreatedAt.IsZero())
}

func TestUpsertBindingIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertBinding(ctx, "U1", "kc-1", "alice", ROLE_USER1))
	require.NoError(t, store.UpsertBinding(ctx, "U1", "kc-1", "alice", ROLE_USER1))

	b, err := store.GetBinding(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, ROLE_USER1, b.Role)

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM user_bindings`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsertBindingOverwritesRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertBinding(ctx, "U1", "kc-1", "alice", ROLE_USER1))
	require.NoError(t, store.UpsertBinding(ctx, "U1", "kc-2", "alice2", ROLE_ADMIN))

	b, err := store.GetBinding(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "kc-2", b.KcUserID)
	assert.Equal(t, "alice2", b.Username)
	assert.Equal(t, ROLE_ADMIN, b.Role)

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM user_bindings`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsertBindingConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertBinding(ctx, "U1", "kc-1", "alice", ROLE_USER1))

	// 同一個 Keycloak 帳號不能綁到第二個 LINE 使用者
	err := store.UpsertBinding(ctx, "U2", "kc-1", "alice", ROLE_USER1)
	assert.ErrorIs(t, err, ErrConflict)

	b, err := store.GetBinding(ctx, "U2")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestResolveRole(t *testing.T) {
	assert.Equal(t, ROLE_ADMIN, ResolveRole([]string{"offline_access", "admin", "user1"}))
	assert.Equal(t, ROLE_USER1, ResolveRole([]string{"user1", "admin"}))
	assert.Equal(t, ROLE_GUEST, ResolveRole([]string{"offline_access", "uma_authorization"}))
	assert.Equal(t, ROLE_GUEST, ResolveRole(nil))
}
