package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medicine-cart/medicine_cart/internal/catalog"
)

// Inventory decrements product stock, applying every change or none.
type Inventory interface {
	DecrementStocks(ctx context.Context, changes []catalog.StockChange) error
}

type memoryRepository struct {
	mu        sync.Mutex
	orders    map[string]Order
	inventory Inventory
}

// NewMemoryRepository constructs an in-memory repository that decrements
// stock on inventory when a delivery completes.
func NewMemoryRepository(inventory Inventory) Repository {
	return &memoryRepository{orders: make(map[string]Order), inventory: inventory}
}

func (r *memoryRepository) Create(_ context.Context, o Order) error {
	if _, err := uuid.Parse(o.ID); err != nil {
		return ErrInvalidOrderID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return errors.New("order exists")
	}
	o.Items = append([]Item{}, o.Items...)
	r.orders[o.ID] = o
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, phone string) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]Order, 0)
	for _, o := range r.orders {
		if o.Phone == phone {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (r *memoryRepository) ListAll(_ context.Context) ([]Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summaries := make([]Summary, 0, len(r.orders))
	for _, o := range r.orders {
		summaries = append(summaries, Summary{ID: o.ID, Status: o.Status, CreatedAt: o.CreatedAt, Phone: o.Phone})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CreatedAt.After(summaries[j].CreatedAt) })
	return summaries, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !o.Status.CanMoveTo(status) {
		return ErrInvalidTransition
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *memoryRepository) CompleteDelivery(ctx context.Context, id string, items []Item, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return ErrInvalidTransition
	}
	changes, err := stockChanges(items)
	if err != nil {
		return err
	}
	if err := r.inventory.DecrementStocks(ctx, changes); err != nil {
		return err
	}
	delivered := at.UTC()
	o.Status = StatusDelivered
	o.DeliveredAt = &delivered
	r.orders[id] = o
	return nil
}
