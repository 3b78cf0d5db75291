package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kazkleen/crm/internal/repository/memory"
	"github.com/kazkleen/crm/internal/storage"
	mock_storage "github.com/kazkleen/crm/internal/storage/mocks"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := NewStore(kv, "", nil)
	fixedTime := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store.timeNow = func() time.Time { return fixedTime }

	_, err := store.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	started, err := store.Begin(ctx, storage.User{Username: "admin", Password: "admin123", Role: storage.RoleManager})
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.True(t, started.IsManager())

	raw, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "admin123")

	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, started, current)
	assert.Equal(t, fixedTime, current.StartedAt)

	require.NoError(t, store.End(ctx))
	_, err = store.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, store.End(ctx))
}

func TestStore_BeginReplacesMarker(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.NewKV(), "session", nil)

	_, err := store.Begin(ctx, storage.User{Username: "admin", Role: storage.RoleManager})
	require.NoError(t, err)
	second, err := store.Begin(ctx, storage.User{Username: "worker", Role: storage.RoleWorker})
	require.NoError(t, err)

	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "worker", current.Username)
	assert.Equal(t, second.ID, current.ID)
	assert.False(t, current.IsManager())
}

func TestStore_CorruptMarker(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := NewStore(kv, "", nil)

	for _, raw := range []string{"not json", "{}", `{"username":""}`} {
		require.NoError(t, kv.Set(ctx, DefaultKey, []byte(raw)))
		_, err := store.Current(ctx)
		assert.ErrorIs(t, err, ErrNoSession, raw)
	}
}

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mock_storage.NewMockKV(ctrl)
	store := NewStore(kv, "", nil)
	backendErr := errors.New("unavailable")

	kv.EXPECT().Get(gomock.Any(), DefaultKey).Return(nil, backendErr)
	_, err := store.Current(ctx)
	assert.ErrorIs(t, err, backendErr)
	assert.NotErrorIs(t, err, ErrNoSession)

	kv.EXPECT().Set(gomock.Any(), DefaultKey, gomock.Any()).Return(backendErr)
	_, err = store.Begin(ctx, storage.User{Username: "admin", Role: storage.RoleManager})
	assert.ErrorIs(t, err, backendErr)

	kv.EXPECT().Remove(gomock.Any(), DefaultKey).Return(backendErr)
	assert.ErrorIs(t, store.End(ctx), backendErr)
}
