package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/kazkleen/crm/internal/metrics"
)

type OrderRepository struct {
	store   *DocumentStore
	timeNow func() time.Time
}

func NewOrderRepository(store *DocumentStore) *OrderRepository {
	return &OrderRepository{store: store, timeNow: store.Now}
}

// Create stores order as a new active order. The id is one more than the
// largest id currently present.
func (r *OrderRepository) Create(ctx context.Context, order Order) (Order, error) {
	var created Order
	err := r.store.Update(ctx, func(doc *Document) error {
		order.ID = nextOrderID(doc.Orders)
		order.Completion = nil
		doc.Orders = append(doc.Orders, order)
		created = order
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		return Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	metrics.OrdersCreatedTotal.Inc()
	return created, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]Order, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return doc.Orders, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int) (Order, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("failed to find order: %w", err)
	}
	i := indexOfOrder(doc.Orders, id)
	if i < 0 {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return doc.Orders[i], nil
}

// Complete marks an active order completed today by username. Completing an
// already completed order changes nothing and returns it as stored.
func (r *OrderRepository) Complete(ctx context.Context, id int, username string) (Order, error) {
	var result Order
	changed := false
	err := r.store.Update(ctx, func(doc *Document) error {
		i := indexOfOrder(doc.Orders, id)
		if i < 0 {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		if doc.Orders[i].IsCompleted() {
			result = doc.Orders[i]
			return errSkipSave
		}
		doc.Orders[i].Completion = &Completion{
			Date: r.timeNow().UTC().Format(DateLayout),
			By:   username,
		}
		result = doc.Orders[i]
		changed = true
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("complete_order").Inc()
		return Order{}, fmt.Errorf("failed to complete order: %w", err)
	}
	if changed {
		metrics.OrdersCompletedTotal.Inc()
	}
	return result, nil
}

// Delete removes the order whatever its status and reports whether it existed.
func (r *OrderRepository) Delete(ctx context.Context, id int) (bool, error) {
	deleted := false
	err := r.store.Update(ctx, func(doc *Document) error {
		i := indexOfOrder(doc.Orders, id)
		if i < 0 {
			return errSkipSave
		}
		doc.Orders = append(doc.Orders[:i], doc.Orders[i+1:]...)
		deleted = true
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("delete_order").Inc()
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	if deleted {
		metrics.OrdersDeletedTotal.Inc()
	}
	return deleted, nil
}
