package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusOrdered        OrderStatus = "ordered"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPacked         OrderStatus = "packed"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// fulfilment is the forward path every order walks; cancelled sits outside it.
var fulfilment = []OrderStatus{
	StatusOrdered,
	StatusConfirmed,
	StatusPacked,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

var statusMessages = map[OrderStatus]string{
	StatusOrdered:        "Order placed successfully",
	StatusConfirmed:      "Order confirmed",
	StatusPacked:         "Order packed and ready for dispatch",
	StatusShipped:        "Order dispatched from warehouse",
	StatusOutForDelivery: "Out for delivery",
	StatusDelivered:      "Order delivered successfully",
	StatusCancelled:      "Order cancelled",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusMessages[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the following fulfilment step.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, st := range fulfilment {
		if st == s && i+1 < len(fulfilment) {
			return fulfilment[i+1], true
		}
	}
	return "", false
}

// CanTransitionTo allows the next fulfilment step, or cancellation from any
// non-terminal status.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := s.Next()
	return ok && next == to
}

// DefaultMessage is the timeline text used when none is supplied.
func (s OrderStatus) DefaultMessage() string {
	return statusMessages[s]
}

type TrackingEvent struct {
	Status  OrderStatus `json:"status"`
	Date    time.Time   `json:"date"`
	Message string      `json:"message"`
}

type Tracking struct {
	Status   OrderStatus     `json:"status"`
	Timeline []TrackingEvent `json:"timeline"`
}

// OrderItem is a detached copy of a cart line at checkout time.
type OrderItem struct {
	ProductID int             `json:"productId" binding:"required,gt=0"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          int64           `json:"-"`
	Status          OrderStatus     `json:"status"`
	Date            time.Time       `json:"date"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	DeliveryAddress Address         `json:"deliveryAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Tracking        Tracking        `json:"tracking"`
}

// NewOrder creates an order in the ordered state with its first timeline entry.
func NewOrder(id string, userID int64, items []OrderItem, addr Address, paymentMethod string, at time.Time) *Order {
	items = append([]OrderItem(nil), items...)
	return &Order{
		ID:              id,
		UserID:          userID,
		Status:          StatusOrdered,
		Date:            at,
		Items:           items,
		Total:           OrderTotal(items),
		DeliveryAddress: addr,
		PaymentMethod:   paymentMethod,
		Tracking: Tracking{
			Status: StatusOrdered,
			Timeline: []TrackingEvent{
				{Status: StatusOrdered, Date: at, Message: StatusOrdered.DefaultMessage()},
			},
		},
	}
}

// CurrentStatus is the status of the most recent timeline entry.
func (o *Order) CurrentStatus() OrderStatus {
	if n := len(o.Tracking.Timeline); n > 0 {
		return o.Tracking.Timeline[n-1].Status
	}
	return o.Status
}

// Transition appends a timeline entry. Entries never go back in time: an event
// stamped before the last one is recorded at the last entry's time.
func (o *Order) Transition(to OrderStatus, at time.Time, message string) error {
	from := o.CurrentStatus()
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	if n := len(o.Tracking.Timeline); n > 0 {
		if last := o.Tracking.Timeline[n-1].Date; at.Before(last) {
			at = last
		}
	}
	if message == "" {
		message = to.DefaultMessage()
	}
	o.Tracking.Timeline = append(o.Tracking.Timeline, TrackingEvent{Status: to, Date: at, Message: message})
	o.Tracking.Status = to
	o.Status = to
	return nil
}

// Advance moves the order one fulfilment step forward.
func (o *Order) Advance(at time.Time, message string) error {
	from := o.CurrentStatus()
	next, ok := from.Next()
	if !ok || from.IsTerminal() {
		return &TransitionError{From: from, To: next}
	}
	return o.Transition(next, at, message)
}

func (o *Order) Cancel(at time.Time, reason string) error {
	return o.Transition(StatusCancelled, at, reason)
}

func (o *Order) Clone() *Order {
	out := *o
	out.Items = append([]OrderItem(nil), o.Items...)
	out.Tracking.Timeline = append([]TrackingEvent(nil), o.Tracking.Timeline...)
	return &out
}

func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// OrderItemsFromCart snapshots cart lines into order items.
func OrderItemsFromCart(items []CartLineItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}
	return out
}

var PaymentMethods = map[string]string{
	"upi":        "UPI",
	"card":       "Credit/Debit Card",
	"netbanking": "Net Banking",
	"cod":        "Cash on Delivery",
}

// OrderDraft is the checkout payload. Without items the server orders its own
// copy of the cart; without an address it uses the user's default.
type OrderDraft struct {
	Items           []OrderItem     `json:"items,omitempty" binding:"dive"`
	Total           decimal.Decimal `json:"total"`
	DeliveryAddress *Address        `json:"deliveryAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required"`
}

// StatusUpdateRequest carries an optional timeline message.
type StatusUpdateRequest struct {
	Message string `json:"message"`
}
