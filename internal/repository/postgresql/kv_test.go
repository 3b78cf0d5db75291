package postgresql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/kazkleen/crm/internal/db/mocks"
	"github.com/kazkleen/crm/internal/repository"
)

func TestKVRepo_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewKVRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("kazkleenCRMData")).
			DoAndReturn(func(_ context.Context, dest any, _ string, _ ...any) error {
				entry := dest.(*repository.KVEntry)
				entry.Key = "kazkleenCRMData"
				entry.Value = `{"orders":[],"users":[]}`
				return nil
			})

		value, err := repo.Get(ctx, "kazkleenCRMData")
		require.NoError(t, err)
		assert.Equal(t, `{"orders":[],"users":[]}`, string(value))
	})

	t.Run("missing key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewKVRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("currentUser")).
			Return(pgx.ErrNoRows)

		_, err := repo.Get(ctx, "currentUser")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewKVRepo(mockDB)

		dbErr := errors.New("connection reset")
		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dbErr)

		_, err := repo.Get(ctx, "kazkleenCRMData")
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestKVRepo_Set(t *testing.T) {
	ctx := context.Background()
	fixedTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewKVRepo(mockDB)
		repo.timeNow = func() time.Time { return fixedTime }

		mockDB.EXPECT().
			Exec(gomock.Any(), gomock.Any(),
				gomock.Eq("kazkleenCRMData"),
				gomock.Eq(`{"orders":[]}`),
				gomock.Eq(fixedTime)).
			Return(pgconn.CommandTag("INSERT 0 1"), nil)

		err := repo.Set(ctx, "kazkleenCRMData", []byte(`{"orders":[]}`))
		assert.NoError(t, err)
	})

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewKVRepo(mockDB)

		dbErr := errors.New("database error")
		mockDB.EXPECT().
			Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dbErr)

		err := repo.Set(ctx, "kazkleenCRMData", []byte(`{}`))
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to write key")
	})
}

func TestKVRepo_Remove(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	repo := NewKVRepo(mockDB)

	mockDB.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Eq("currentUser")).
		Return(pgconn.CommandTag("DELETE 1"), nil)

	assert.NoError(t, repo.Remove(ctx, "currentUser"))
}
