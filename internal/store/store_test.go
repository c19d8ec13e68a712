package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallgraph/internal/common/config"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, kv.Ping(ctx))

	_, ok, err := kv.Get(ctx, "project:p1:transform")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "project:p1:transform", `{"rotation":90}`))
	require.NoError(t, kv.Set(ctx, "project:p1:transform", `{"rotation":180}`))

	v, ok, err := kv.Get(ctx, "project:p1:transform")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"rotation":180}`, v)

	require.NoError(t, kv.Delete(ctx, "project:p1:transform"))
	_, ok, err = kv.Get(ctx, "project:p1:transform")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	kv := NewMemory()
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "kv.db")
	kv, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestSQLiteReopenKeepsValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "project:p1:flag:unit", "m"))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer kv.Close()

	v, ok, err := kv.Get(ctx, "project:p1:flag:unit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "m", v)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, config.Store{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	_, err = Open(ctx, config.Store{Driver: "redis"}, nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(ctx, config.Store{Driver: "postgres"}, nil)
	assert.Error(t, err)
}
