package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmacy-storefront/common/logger"
	"pharmacy-storefront/events"
	"pharmacy-storefront/models"
	"pharmacy-storefront/pkg/ids"
	"pharmacy-storefront/repository"
)

const publishTimeout = 5 * time.Second

// OrderService defines checkout, order history and mock fulfilment.
type OrderService interface {
	Checkout(ctx context.Context, userID int64, draft *models.OrderDraft) (*models.Order, *ServiceError)
	ListOrders(ctx context.Context, userID int64) ([]models.Order, *ServiceError)
	GetOrder(ctx context.Context, userID int64, id string) (*models.Order, *ServiceError)
	AdvanceStatus(ctx context.Context, userID int64, id, message string) (*models.Order, *ServiceError)
	CancelOrder(ctx context.Context, userID int64, id, reason string) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	orders    repository.OrderRepository
	users     repository.UserRepository
	catalog   repository.CatalogRepository
	carts     CartService
	publisher events.Publisher
	ids       *ids.Generator
	now       func() time.Time
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	catalog repository.CatalogRepository,
	carts CartService,
	publisher events.Publisher,
	gen *ids.Generator,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orders:    orders,
		users:     users,
		catalog:   catalog,
		carts:     carts,
		publisher: publisher,
		ids:       gen,
		now:       time.Now,
		logger:    logger,
	}
}

// Checkout turns the draft into an order and empties the user's server cart.
// Lines are priced from the catalog and the total is recomputed from them.
func (s *orderServiceImpl) Checkout(ctx context.Context, userID int64, draft *models.OrderDraft) (*models.Order, *ServiceError) {
	method := strings.ToLower(strings.TrimSpace(draft.PaymentMethod))
	if _, ok := models.PaymentMethods[method]; !ok {
		return nil, badRequest(models.ErrInvalidPaymentMethod.Error())
	}

	items, svcErr := s.resolveItems(ctx, userID, draft.Items)
	if svcErr != nil {
		return nil, svcErr
	}
	addr, svcErr := s.resolveAddress(ctx, userID, draft.DeliveryAddress)
	if svcErr != nil {
		return nil, svcErr
	}

	id := strconv.FormatInt(s.ids.Next(), 10)
	order := models.NewOrder(id, userID, items, addr, method, s.now().UTC())
	if err := s.orders.Create(ctx, order); err != nil {
		logger.For(ctx, s.logger).Error("Failed to create order", zap.Error(err))
		return nil, internal("Failed to create order")
	}

	if svcErr := s.carts.ClearCart(ctx, userID); svcErr != nil {
		logger.For(ctx, s.logger).Warn("Order placed but cart not cleared", zap.String("order_id", id), zap.String("error", svcErr.Message))
	}
	s.publish(ctx, events.OrderPlaced, order)

	logger.For(ctx, s.logger).Info("Order placed",
		zap.String("order_id", id),
		zap.Int64("user_id", userID),
		zap.Int("items", len(items)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

func (s *orderServiceImpl) resolveItems(ctx context.Context, userID int64, draftItems []models.OrderItem) ([]models.OrderItem, *ServiceError) {
	items := append([]models.OrderItem(nil), draftItems...)
	if len(items) == 0 {
		cart, svcErr := s.carts.GetCart(ctx, userID)
		if svcErr != nil {
			return nil, svcErr
		}
		items = models.OrderItemsFromCart(cart.Items)
	}
	if len(items) == 0 {
		return nil, badRequest("Cart is empty")
	}

	for i := range items {
		product, err := s.catalog.FindByID(ctx, items[i].ProductID)
		if err != nil {
			return nil, badRequest(fmt.Sprintf("Unknown product %d", items[i].ProductID))
		}
		if items[i].Quantity < 1 {
			return nil, badRequest(models.ErrInvalidQuantity.Error())
		}
		if items[i].Name == "" {
			items[i].Name = product.Name
		}
		items[i].Price = product.Price
	}
	return items, nil
}

func (s *orderServiceImpl) resolveAddress(ctx context.Context, userID int64, given *models.Address) (models.Address, *ServiceError) {
	if given != nil && given.Street != "" {
		return *given, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.Address{}, unauthorized("Unauthorized")
	}
	addr, ok := user.DefaultAddress()
	if !ok {
		return models.Address{}, badRequest("Delivery address is required")
	}
	return addr, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, userID int64) ([]models.Order, *ServiceError) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to list orders", zap.Error(err))
		return nil, internal("Failed to list orders")
	}
	return orders, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, userID int64, id string) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, userID, id)
	if err != nil {
		return nil, notFound("Order not found")
	}
	return order, nil
}

// AdvanceStatus moves the order one fulfilment step forward.
func (s *orderServiceImpl) AdvanceStatus(ctx context.Context, userID int64, id, message string) (*models.Order, *ServiceError) {
	return s.transition(ctx, userID, id, func(o *models.Order) error {
		return o.Advance(s.now().UTC(), message)
	}, "")
}

// CancelOrder cancels an order that is neither delivered nor cancelled.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, userID int64, id, reason string) (*models.Order, *ServiceError) {
	return s.transition(ctx, userID, id, func(o *models.Order) error {
		return o.Cancel(s.now().UTC(), reason)
	}, events.OrderCancelled)
}

func (s *orderServiceImpl) transition(ctx context.Context, userID int64, id string, apply func(*models.Order) error, event string) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, userID, id)
	if err != nil {
		return nil, notFound("Order not found")
	}
	if err := apply(order); err != nil {
		return nil, &ServiceError{StatusCode: 409, Message: err.Error()}
	}
	if err := s.orders.Update(ctx, order); err != nil {
		logger.For(ctx, s.logger).Error("Failed to update order", zap.String("order_id", id), zap.Error(err))
		return nil, internal("Failed to update order")
	}
	if event != "" {
		s.publish(ctx, event, order)
	}
	return order, nil
}

// publish is best effort: a failed publish is logged and never fails the request.
func (s *orderServiceImpl) publish(ctx context.Context, event string, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderEvent(ctx, events.NewOrderEvent(event, order, s.now().UTC())); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to publish order event",
			zap.String("event", event),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}
