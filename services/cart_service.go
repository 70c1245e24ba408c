package services

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"pharmacy-storefront/common/logger"
	"pharmacy-storefront/database"
	"pharmacy-storefront/models"
	"pharmacy-storefront/pkg/ids"
	"pharmacy-storefront/repository"
)

// CartService defines the server-side copy of each user's cart.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, *ServiceError)
	AddItem(ctx context.Context, userID int64, req *models.AddToCartRequest) (*models.Cart, *ServiceError)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, *ServiceError)
	RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, *ServiceError)
	ClearCart(ctx context.Context, userID int64) *ServiceError
}

type cartServiceImpl struct {
	carts   database.CartRepository
	catalog repository.CatalogRepository
	ids     *ids.Generator
	locks   keyedMutex
	logger  *zap.Logger
}

func NewCartService(carts database.CartRepository, catalog repository.CatalogRepository, gen *ids.Generator, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, catalog: catalog, ids: gen, logger: logger}
}

// keyedMutex serializes read-modify-write cycles per user. An entry lives
// only while some caller holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*refMutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func cartKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetCart returns the user's cart, empty when none is stored.
func (s *cartServiceImpl) GetCart(ctx context.Context, userID int64) (*models.Cart, *ServiceError) {
	return s.load(ctx, userID)
}

// AddItem adds to an existing line for the product or appends a new one.
// Adds aggregate, so concurrent adds of the same product converge.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID int64, req *models.AddToCartRequest) (*models.Cart, *ServiceError) {
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, badRequest(models.ErrInvalidQuantity.Error())
	}
	product, err := s.catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, notFound("Product not found")
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	cart, svcErr := s.load(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}

	added := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity += qty
			added = true
			break
		}
	}
	if !added {
		cart.Items = append(cart.Items, models.CartLineItem{
			ID:        s.itemID(cart, req.ItemID),
			ProductID: product.ID,
			Quantity:  qty,
			Product:   product.Clone(),
		})
	}
	return s.save(ctx, cart)
}

// UpdateItem sets an item's quantity; quantity <= 0 removes it.
func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, *ServiceError) {
	unlock := s.locks.lock(userID)
	defer unlock()

	cart, svcErr := s.load(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFound("Cart item not found")
	}
	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}
	return s.save(ctx, cart)
}

// RemoveItem is idempotent: removing an absent item returns the cart unchanged.
func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, *ServiceError) {
	unlock := s.locks.lock(userID)
	defer unlock()

	cart, svcErr := s.load(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(cart.Items) {
		return cart, nil
	}
	cart.Items = kept
	return s.save(ctx, cart)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID int64) *ServiceError {
	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.carts.DeleteCart(ctx, cartKey(userID)); err != nil {
		logger.For(ctx, s.logger).Error("Failed to clear cart", zap.Int64("user_id", userID), zap.Error(err))
		return internal("Failed to clear cart")
	}
	return nil
}

// itemID adopts the caller's id when it is free in this cart.
func (s *cartServiceImpl) itemID(cart *models.Cart, requested int64) int64 {
	if requested > 0 {
		taken := false
		for _, item := range cart.Items {
			if item.ID == requested {
				taken = true
				break
			}
		}
		if !taken {
			s.ids.Observe(requested)
			return requested
		}
	}
	return s.ids.Next()
}

func (s *cartServiceImpl) load(ctx context.Context, userID int64) (*models.Cart, *ServiceError) {
	cart, err := s.carts.GetCart(ctx, cartKey(userID))
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to load cart", zap.Int64("user_id", userID), zap.Error(err))
		return nil, internal("Failed to load cart")
	}
	if cart == nil {
		cart = &models.Cart{UserID: cartKey(userID)}
	}
	if cart.Items == nil {
		cart.Items = []models.CartLineItem{}
	}
	return cart, nil
}

func (s *cartServiceImpl) save(ctx context.Context, cart *models.Cart) (*models.Cart, *ServiceError) {
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		logger.For(ctx, s.logger).Error("Failed to save cart", zap.String("user_id", cart.UserID), zap.Error(err))
		return nil, internal("Failed to save cart")
	}
	return cart, nil
}
