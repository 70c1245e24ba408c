package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacy-storefront/models"
)

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) Checkout(ctx context.Context, token string, draft models.OrderDraft) (*models.Order, error) {
	args := m.Called(ctx, token, draft)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Orders(ctx context.Context, token string) ([]models.Order, error) {
	args := m.Called(ctx, token)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Order(ctx context.Context, token, id string) (*models.Order, error) {
	args := m.Called(ctx, token, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

type fakeSession struct {
	token string
	user  *models.User
}

func (f fakeSession) Token() (string, bool) { return f.token, f.token != "" }
func (f fakeSession) User() *models.User    { return f.user }

type fakeCart struct {
	items    []models.CartLineItem
	consumed [][]models.CartLineItem
}

func (f *fakeCart) Items() []models.CartLineItem { return models.CloneItems(f.items) }
func (f *fakeCart) ConsumeCheckout(ordered []models.CartLineItem) {
	f.consumed = append(f.consumed, ordered)
}

func signedIn() fakeSession {
	return fakeSession{token: "tok", user: &models.User{
		ID: 1,
		Addresses: []models.Address{
			{ID: 1, Street: "Baif Road", City: "Pune", State: "MH", Pincode: "412207", IsDefault: true},
			{ID: 2, Street: "IT Park", City: "Pune", State: "MH", Pincode: "411057"},
		},
	}}
}

func cartWithItems() *fakeCart {
	return &fakeCart{items: []models.CartLineItem{
		{ID: 10, ProductID: 1, Quantity: 2, Product: models.Product{ID: 1, Name: "Biofer-F", Price: decimal.RequireFromString("50.13")}},
		{ID: 11, ProductID: 3, Quantity: 1, Product: models.Product{ID: 3, Name: "Zincovit-C", Price: decimal.RequireFromString("201.41")}},
	}}
}

func TestPlaceOrder(t *testing.T) {
	orders := &mockOrders{}
	cart := cartWithItems()
	svc := NewService(orders, signedIn(), cart, zap.NewNop())

	placed := &models.Order{ID: "42", Status: models.StatusOrdered, Total: decimal.RequireFromString("301.67")}
	orders.On("Checkout", mock.Anything, "tok", mock.MatchedBy(func(d models.OrderDraft) bool {
		return d.PaymentMethod == "upi" &&
			len(d.Items) == 2 &&
			d.Items[0].Name == "Biofer-F" &&
			d.Total.StringFixed(2) == "301.67" &&
			d.DeliveryAddress != nil && d.DeliveryAddress.Street == "Baif Road"
	})).Return(placed, nil).Once()

	order, err := svc.PlaceOrder(context.Background(), CheckoutRequest{PaymentMethod: " UPI "})
	require.NoError(t, err)
	assert.Equal(t, "42", order.ID)
	require.Len(t, cart.consumed, 1)
	assert.Equal(t, cart.items, cart.consumed[0])
	orders.AssertExpectations(t)
}

func TestPlaceOrderUsesGivenAddress(t *testing.T) {
	orders := &mockOrders{}
	svc := NewService(orders, signedIn(), cartWithItems(), zap.NewNop())
	office := models.Address{Street: "IT Park", City: "Pune", State: "MH", Pincode: "411057"}

	orders.On("Checkout", mock.Anything, "tok", mock.MatchedBy(func(d models.OrderDraft) bool {
		return d.DeliveryAddress.Street == "IT Park"
	})).Return(&models.Order{ID: "1"}, nil).Once()

	_, err := svc.PlaceOrder(context.Background(), CheckoutRequest{DeliveryAddress: &office, PaymentMethod: "cod"})
	require.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestPlaceOrderRejections(t *testing.T) {
	noDefault := signedIn()
	noDefault.user = &models.User{ID: 1}

	tests := []struct {
		name    string
		session fakeSession
		cart    *fakeCart
		method  string
		want    error
	}{
		{"signed out", fakeSession{}, cartWithItems(), "upi", models.ErrNotAuthenticated},
		{"unknown payment method", signedIn(), cartWithItems(), "bitcoin", models.ErrInvalidPaymentMethod},
		{"empty cart", signedIn(), &fakeCart{}, "upi", models.ErrEmptyCart},
		{"no address", noDefault, cartWithItems(), "card", models.ErrNoDeliveryAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrders{}
			svc := NewService(orders, tt.session, tt.cart, zap.NewNop())

			_, err := svc.PlaceOrder(context.Background(), CheckoutRequest{PaymentMethod: tt.method})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, tt.cart.consumed)
			orders.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFailedCheckoutLeavesCartAlone(t *testing.T) {
	orders := &mockOrders{}
	cart := cartWithItems()
	svc := NewService(orders, signedIn(), cart, zap.NewNop())
	orders.On("Checkout", mock.Anything, "tok", mock.Anything).Return(nil, errors.New("500")).Once()

	_, err := svc.PlaceOrder(context.Background(), CheckoutRequest{PaymentMethod: "upi"})
	require.Error(t, err)
	assert.Empty(t, cart.consumed)
	assert.Len(t, cart.items, 2)
}

func TestOrderReads(t *testing.T) {
	orders := &mockOrders{}
	svc := NewService(orders, signedIn(), cartWithItems(), zap.NewNop())

	orders.On("Orders", mock.Anything, "tok").Return([]models.Order{{ID: "1"}}, nil).Once()
	list, err := svc.Orders(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	orders.On("Order", mock.Anything, "tok", "missing").Return(nil, models.ErrNotFound).Once()
	o, err := svc.Order(context.Background(), "missing")
	assert.Nil(t, o)
	assert.ErrorIs(t, err, models.ErrNotFound)

	signedOut := NewService(orders, fakeSession{}, cartWithItems(), zap.NewNop())
	_, err = signedOut.Orders(context.Background())
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	_, err = signedOut.Order(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}
