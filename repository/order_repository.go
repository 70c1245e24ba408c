package repository

import (
	"context"
	"sort"
	"sync"

	"pharmacy-storefront/models"
)

// OrderRepository defines storage for placed orders. Orders are only visible
// to the user who placed them.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, userID int64, id string) (*models.Order, error)
	FindByUser(ctx context.Context, userID int64) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}

type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*models.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order.Clone()
	return nil
}

// FindByID returns models.ErrNotFound for unknown ids and for orders of
// other users.
func (r *MemoryOrderRepository) FindByID(_ context.Context, userID int64, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok || o.UserID != userID {
		return nil, models.ErrNotFound
	}
	return o.Clone(), nil
}

// FindByUser lists the user's orders, oldest first.
func (r *MemoryOrderRepository) FindByUser(_ context.Context, userID int64) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Order{}
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *MemoryOrderRepository) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return models.ErrNotFound
	}
	r.orders[order.ID] = order.Clone()
	return nil
}
