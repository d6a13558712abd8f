package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every ObjectStore backend shares.
func runStoreContract(t *testing.T, s ObjectStore) {
	t.Helper()
	ctx := context.Background()
	const p = "accounts/20250301120000.json"

	entries, err := s.List(ctx, "accounts")
	require.NoError(t, err)
	assert.Empty(t, entries)

	ok, err := s.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, p)
	require.ErrorIs(t, err, ErrNotFound)

	v1, err := s.Write(ctx, p, []byte(`{"username":"alice"}`), "", "create alice")
	require.NoError(t, err)
	assert.Equal(t, BlobVersion([]byte(`{"username":"alice"}`)), v1)

	_, err = s.Write(ctx, p, []byte(`{"username":"mallory"}`), "", "create again")
	require.ErrorIs(t, err, ErrAlreadyExists)

	obj, err := s.Read(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, v1, obj.Version)
	assert.JSONEq(t, `{"username":"alice"}`, string(obj.Content))

	v2, err := s.Write(ctx, p, []byte(`{"username":"alice","friends":["bob"]}`), v1, "update alice")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	_, err = s.Write(ctx, p, []byte(`{"username":"alice","friends":[]}`), v1, "stale update")
	require.ErrorIs(t, err, ErrVersionConflict)

	_, err = s.Write(ctx, "calendar/03/spring.png", []byte{0x89, 'P', 'N', 'G'}, "", "upload")
	require.NoError(t, err)

	entries, err = s.List(ctx, "accounts")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Name: "20250301120000.json", Path: p, Kind: KindFile}, entries[0])

	root, err := s.List(ctx, "calendar")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, KindDir, root[0].Kind)
	assert.Equal(t, "03", root[0].Name)

	err = s.Delete(ctx, p, v1, "stale delete")
	require.ErrorIs(t, err, ErrVersionConflict)

	require.NoError(t, s.Delete(ctx, p, v2, "delete alice"))

	ok, err = s.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)
}
