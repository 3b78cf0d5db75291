package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazkleen/crm/internal/repository"
)

func TestKV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kazkleen.db")

	kv, err := NewKV(path)
	require.NoError(t, err)
	defer kv.Close()

	_, err = kv.Get(ctx, "kazkleenCRMData")
	assert.ErrorIs(t, err, repository.ErrObjectNotFound)

	require.NoError(t, kv.Set(ctx, "kazkleenCRMData", []byte(`{"orders":[]}`)))
	require.NoError(t, kv.Set(ctx, "kazkleenCRMData", []byte(`{"orders":[],"users":[]}`)))

	got, err := kv.Get(ctx, "kazkleenCRMData")
	require.NoError(t, err)
	assert.Equal(t, `{"orders":[],"users":[]}`, string(got))

	require.NoError(t, kv.Remove(ctx, "kazkleenCRMData"))
	_, err = kv.Get(ctx, "kazkleenCRMData")
	assert.ErrorIs(t, err, repository.ErrObjectNotFound)
}

func TestKV_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kazkleen.db")

	first, err := NewKV(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "currentUser", []byte(`{"username":"admin"}`)))
	require.NoError(t, first.Close())

	second, err := NewKV(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "currentUser")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin"}`, string(got))
}
