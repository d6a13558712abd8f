package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/db"
)

func TestPostgresIndexReserve(t *testing.T) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set")
	}
	conn, err := db.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = conn.Exec(`TRUNCATE account_index`)
	require.NoError(t, err)

	idx := NewPostgresIndex(conn)
	ctx := context.Background()

	require.NoError(t, idx.Reserve(ctx, "alice", "accounts/a1.json"))
	require.ErrorIs(t, idx.Reserve(ctx, "alice", "accounts/a2.json"), ErrUsernameTaken)
	require.NoError(t, idx.Reserve(ctx, "bob", "accounts/b1.json"))

	path, ok, err := idx.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "accounts/a1.json", path)

	names, err := idx.Usernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)

	require.NoError(t, idx.Release(ctx, "alice"))
	_, ok, err = idx.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, idx.Reserve(ctx, "alice", "accounts/a3.json"))
}
