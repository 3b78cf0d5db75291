package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kazkleen/crm/internal/repository"
	"github.com/kazkleen/crm/internal/repository/memory"
	mock_storage "github.com/kazkleen/crm/internal/storage/mocks"
)

var fixedTime = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestStore(kv KV) *DocumentStore {
	return NewDocumentStore(kv, "",
		WithPasswordHasher(PlainHasher{}),
		WithClock(func() time.Time { return fixedTime }),
	)
}

func TestDocumentStore_LoadSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := newTestStore(kv)

	doc, err := store.Load(ctx)
	require.NoError(t, err)

	require.Len(t, doc.Orders, 2)
	assert.Equal(t, 1, doc.Orders[0].ID)
	assert.Equal(t, "Office Building A", doc.Orders[0].ClientName)
	assert.Equal(t, "2024-03-15", doc.Orders[0].Date)
	assert.Equal(t, 2, doc.Orders[1].ID)
	assert.Equal(t, "Retail Store B", doc.Orders[1].ClientName)
	assert.Equal(t, "2024-03-14", doc.Orders[1].Date)
	for _, o := range doc.Orders {
		assert.Equal(t, StatusActive, o.Status())
		assert.Equal(t, "worker", o.SubmittedBy)
	}

	require.Len(t, doc.Users, 2)
	assert.Equal(t, User{Username: "worker", Password: "worker123", Role: RoleWorker}, doc.Users[0])
	assert.Equal(t, User{Username: "admin", Password: "admin123", Role: RoleManager}, doc.Users[1])

	raw, err := kv.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Office Building A"`)
}

func TestDocumentStore_SaveOfLoadKeepsBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded document", func(t *testing.T) {
		kv := memory.NewKV()
		store := newTestStore(kv)

		doc, err := store.Load(ctx)
		require.NoError(t, err)
		before, err := kv.Get(ctx, DefaultDocumentKey)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, doc))

		after, err := kv.Get(ctx, DefaultDocumentKey)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("document written by another client", func(t *testing.T) {
		kv := memory.NewKV()
		store := newTestStore(kv)

		original := `{
			"tables": [],
			"users": [{"username": "boss", "password": "pw", "role": "manager"}],
			"orders": [{
				"id": 7,
				"clientName": "Clinic",
				"date": "2024-02-01",
				"floors": [{"name": "Basement", "rooms": [{"name": "Lab", "items": [{"service": "Deep Cleaning", "quantity": 4}]}]}],
				"submittedBy": "boss",
				"status": "completed",
				"completedDate": "2024-02-03",
				"completedBy": "boss"
			}]
		}`
		require.NoError(t, kv.Set(ctx, DefaultDocumentKey, []byte(original)))

		doc, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, doc.Orders, 1)
		assert.Equal(t, &Completion{Date: "2024-02-03", By: "boss"}, doc.Orders[0].Completion)

		require.NoError(t, store.Save(ctx, doc))

		after, err := kv.Get(ctx, DefaultDocumentKey)
		require.NoError(t, err)
		assert.JSONEq(t, original, string(after))
	})
}

func TestDocumentStore_MalformedValueIsReseeded(t *testing.T) {
	ctx := context.Background()

	for name, payload := range map[string]string{
		"invalid json": `{"orders": [`,
		"null":         `null`,
		"array":        `[1, 2, 3]`,
		"string":       `"orders"`,
		"wrong shape":  `{"orders": {"id": 1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := memory.NewKV()
			store := newTestStore(kv)
			require.NoError(t, kv.Set(ctx, DefaultDocumentKey, []byte(payload)))

			doc, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, doc.Orders, 2)
			assert.Len(t, doc.Users, 2)

			discarded, err := kv.Get(ctx, DefaultDocumentKey+".discarded")
			require.NoError(t, err)
			assert.Equal(t, payload, string(discarded))

			raw, err := kv.Get(ctx, DefaultDocumentKey)
			require.NoError(t, err)
			assert.True(t, json.Valid(raw))
		})
	}
}

func TestDocumentStore_MissingCollectionsReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := newTestStore(kv)
	require.NoError(t, kv.Set(ctx, DefaultDocumentKey, []byte(`{}`)))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Orders)
	assert.Empty(t, doc.Users)

	require.NoError(t, store.Save(ctx, doc))
	raw, err := kv.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"orders":[],"users":[]}`, string(raw))
}

func TestDocumentStore_BackendErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("read error is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		kv := mock_storage.NewMockKV(ctrl)
		store := newTestStore(kv)

		readErr := errors.New("disk unavailable")
		kv.EXPECT().Get(gomock.Any(), DefaultDocumentKey).Return(nil, readErr)

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, readErr)
	})

	t.Run("seed write error is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		kv := mock_storage.NewMockKV(ctrl)
		store := newTestStore(kv)

		writeErr := errors.New("read-only")
		kv.EXPECT().Get(gomock.Any(), DefaultDocumentKey).Return(nil, repository.ErrObjectNotFound)
		kv.EXPECT().Set(gomock.Any(), DefaultDocumentKey, gomock.Any()).Return(writeErr)

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, writeErr)
	})

	t.Run("failed quarantine still reseeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		kv := mock_storage.NewMockKV(ctrl)
		store := newTestStore(kv)

		kv.EXPECT().Get(gomock.Any(), DefaultDocumentKey).Return([]byte("garbage"), nil)
		kv.EXPECT().Set(gomock.Any(), DefaultDocumentKey+".discarded", []byte("garbage")).Return(errors.New("full"))
		kv.EXPECT().Set(gomock.Any(), DefaultDocumentKey, gomock.Any()).Return(nil)

		doc, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, doc.Orders, 2)
	})
}

func TestDocumentStore_UpdateCallbackErrorSkipsSave(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := newTestStore(kv)

	_, err := store.Load(ctx)
	require.NoError(t, err)
	before, _ := kv.Get(ctx, DefaultDocumentKey)

	boom := errors.New("boom")
	err = store.Update(ctx, func(doc *Document) error {
		doc.Orders = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = store.Update(ctx, func(doc *Document) error {
		doc.Users = nil
		return errSkipSave
	})
	assert.NoError(t, err)

	after, _ := kv.Get(ctx, DefaultDocumentKey)
	assert.Equal(t, string(before), string(after))
}

func TestDocumentStore_UpdateSerialisesWithinStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(memory.NewKV())
	orders := NewOrderRepository(store)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.Create(ctx, sampleOrder("Concurrent"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, workers+2)

	seen := make(map[int]bool)
	for _, o := range list {
		assert.False(t, seen[o.ID], "duplicate id %d", o.ID)
		seen[o.ID] = true
	}
}

func TestDocumentStore_LastWriterWinsAcrossStores(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	first := newTestStore(kv)
	second := newTestStore(kv)

	docA, err := first.Load(ctx)
	require.NoError(t, err)
	docB, err := second.Load(ctx)
	require.NoError(t, err)

	docA.Orders = append(docA.Orders, Order{ID: 3, ClientName: "Written by first", Date: "2024-01-01"})
	require.NoError(t, first.Save(ctx, docA))

	docB.Orders = append(docB.Orders, Order{ID: 3, ClientName: "Written by second", Date: "2024-01-01"})
	require.NoError(t, second.Save(ctx, docB))

	final, err := first.Load(ctx)
	require.NoError(t, err)
	require.Len(t, final.Orders, 3)
	assert.Equal(t, "Written by second", final.Orders[2].ClientName)
}
