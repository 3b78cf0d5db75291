package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazkleen/crm/internal/repository/memory"
)

func sampleOrder(client string) Order {
	return Order{
		ClientName: client,
		Date:       "2024-01-01",
		Floors: []Floor{{
			Name: "Ground",
			Rooms: []Room{{
				Name:  "Hall",
				Items: []ServiceItem{{Service: "Office Cleaning", Quantity: 2}},
			}},
		}},
		SubmittedBy: "worker",
	}
}

func newOrderRepo(t *testing.T) *OrderRepository {
	t.Helper()
	return NewOrderRepository(newTestStore(memory.NewKV()))
}

func TestOrderRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("next id after seed", func(t *testing.T) {
		repo := newOrderRepo(t)

		order := sampleOrder("X")
		order.Completion = &Completion{Date: "2024-01-02", By: "someone"}

		created, err := repo.Create(ctx, order)
		require.NoError(t, err)
		assert.Equal(t, 3, created.ID)
		assert.Equal(t, StatusActive, created.Status())

		stored, err := repo.FindByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, created, stored)
	})

	t.Run("ids strictly increase", func(t *testing.T) {
		repo := newOrderRepo(t)

		prev := 2
		for i := 0; i < 5; i++ {
			created, err := repo.Create(ctx, sampleOrder("Y"))
			require.NoError(t, err)
			assert.Equal(t, prev+1, created.ID)
			prev = created.ID
		}
	})

	t.Run("deleting the maximum frees its id", func(t *testing.T) {
		repo := newOrderRepo(t)

		_, err := repo.Create(ctx, sampleOrder("A"))
		require.NoError(t, err)
		_, err = repo.Create(ctx, sampleOrder("B"))
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, 4)
		require.NoError(t, err)
		assert.True(t, deleted)

		created, err := repo.Create(ctx, sampleOrder("C"))
		require.NoError(t, err)
		assert.Equal(t, 4, created.ID)
	})

	t.Run("deleting below the maximum keeps counting", func(t *testing.T) {
		repo := newOrderRepo(t)

		_, err := repo.Delete(ctx, 1)
		require.NoError(t, err)

		created, err := repo.Create(ctx, sampleOrder("D"))
		require.NoError(t, err)
		assert.Equal(t, 3, created.ID)
	})

	t.Run("first id in an empty collection is 1", func(t *testing.T) {
		repo := newOrderRepo(t)
		for _, id := range []int{1, 2} {
			_, err := repo.Delete(ctx, id)
			require.NoError(t, err)
		}

		created, err := repo.Create(ctx, sampleOrder("E"))
		require.NoError(t, err)
		assert.Equal(t, 1, created.ID)
	})
}

func TestOrderRepository_ListKeepsStorageOrder(t *testing.T) {
	ctx := context.Background()
	repo := newOrderRepo(t)

	old := sampleOrder("Old")
	old.Date = "2020-01-01"
	_, err := repo.Create(ctx, old)
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]int, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestOrderRepository_FindByIDMissing(t *testing.T) {
	repo := newOrderRepo(t)

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepository_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps date and user", func(t *testing.T) {
		repo := newOrderRepo(t)

		completed, err := repo.Complete(ctx, 1, "admin")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, completed.Status())
		assert.Equal(t, &Completion{Date: "2024-03-15", By: "admin"}, completed.Completion)

		stored, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, completed, stored)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		repo := newOrderRepo(t)

		first, err := repo.Complete(ctx, 2, "admin")
		require.NoError(t, err)

		repo.timeNow = func() time.Time { return fixedTime.AddDate(0, 0, 5) }
		second, err := repo.Complete(ctx, 2, "other")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		stored, err := repo.FindByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, &Completion{Date: "2024-03-15", By: "admin"}, stored.Completion)
	})

	t.Run("missing order", func(t *testing.T) {
		repo := newOrderRepo(t)

		_, err := repo.Complete(ctx, 99, "admin")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newOrderRepo(t)

	_, err := repo.Complete(ctx, 1, "admin")
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.FindByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err = repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
