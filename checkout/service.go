// Package checkout turns the current cart into an order.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pharmacy-storefront/models"
)

// OrderService is the remote order API.
type OrderService interface {
	Checkout(ctx context.Context, token string, draft models.OrderDraft) (*models.Order, error)
	Orders(ctx context.Context, token string) ([]models.Order, error)
	Order(ctx context.Context, token, id string) (*models.Order, error)
}

// Session supplies the token and the signed-in user's addresses.
type Session interface {
	Token() (string, bool)
	User() *models.User
}

// Cart is the part of cart.Manager checkout needs.
type Cart interface {
	Items() []models.CartLineItem
	ConsumeCheckout(ordered []models.CartLineItem)
}

type CheckoutRequest struct {
	// DeliveryAddress falls back to the user's default address when nil.
	DeliveryAddress *models.Address
	PaymentMethod   string
}

type Service struct {
	orders  OrderService
	session Session
	cart    Cart
	log     *zap.Logger
}

func NewService(orders OrderService, session Session, cart Cart, log *zap.Logger) *Service {
	return &Service{orders: orders, session: session, cart: cart, log: log}
}

// PlaceOrder submits the cart as it is right now. The ordered quantities
// leave the cart only once the order exists; any failure leaves the cart
// as it was.
func (s *Service) PlaceOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	token, ok := s.session.Token()
	if !ok {
		return nil, models.ErrNotAuthenticated
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if _, ok := models.PaymentMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	snapshot := s.cart.Items()
	if len(snapshot) == 0 {
		return nil, models.ErrEmptyCart
	}

	addr, err := s.deliveryAddress(req.DeliveryAddress)
	if err != nil {
		return nil, err
	}

	items := models.OrderItemsFromCart(snapshot)
	draft := models.OrderDraft{
		Items:           items,
		Total:           models.OrderTotal(items),
		DeliveryAddress: &addr,
		PaymentMethod:   method,
	}
	order, err := s.orders.Checkout(ctx, token, draft)
	if err != nil {
		s.log.Warn("Checkout failed", zap.Error(err))
		return nil, fmt.Errorf("checkout: %w", err)
	}

	s.cart.ConsumeCheckout(snapshot)
	s.log.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

func (s *Service) deliveryAddress(given *models.Address) (models.Address, error) {
	if given != nil {
		return *given, nil
	}
	user := s.session.User()
	if user == nil {
		return models.Address{}, models.ErrNoDeliveryAddress
	}
	addr, ok := user.DefaultAddress()
	if !ok {
		return models.Address{}, models.ErrNoDeliveryAddress
	}
	return addr, nil
}

// Orders lists the signed-in user's orders, oldest first.
func (s *Service) Orders(ctx context.Context) ([]models.Order, error) {
	token, ok := s.session.Token()
	if !ok {
		return nil, models.ErrNotAuthenticated
	}
	return s.orders.Orders(ctx, token)
}

// Order fetches one order. A missing order is (nil, models.ErrNotFound).
func (s *Service) Order(ctx context.Context, id string) (*models.Order, error) {
	token, ok := s.session.Token()
	if !ok {
		return nil, models.ErrNotAuthenticated
	}
	return s.orders.Order(ctx, token, id)
}
