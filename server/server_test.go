package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacy-storefront/config"
	"pharmacy-storefront/controllers"
	"pharmacy-storefront/models"
	"pharmacy-storefront/repository"
	"pharmacy-storefront/server"
)

func testConfig() config.Config {
	return config.Config{
		Port:           "0",
		Env:            "test",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		CartTTL:        time.Hour,
		EventsBackend:  config.EventsNone,
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      100000,
		RateBurst:      100000,
		RequestTimeout: 5 * time.Second,
		SeedDemoUser:   true,
		ErrorInjection: true,
	}
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := server.New(context.Background(), testConfig(), zap.NewNop(), server.Deps{})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *server.Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func login(t *testing.T, srv *server.Server) string {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Email: repository.DemoEmail, Password: repository.DemoPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.AuthResponse](t, w).Token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","service":"pharmacy-storefront-api"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"Not found"}`, w.Body.String())
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("login returns token and user", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
			Email: repository.DemoEmail, Password: repository.DemoPassword,
		})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[models.AuthResponse](t, w)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, repository.DemoEmail, resp.User.Email)
		assert.Equal(t, "Login successful", resp.Message)
		assert.Len(t, resp.User.Addresses, 2)
	})

	t.Run("wrong password is 401 with message", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
			Email: repository.DemoEmail, Password: "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "Invalid email or password", body["message"])
	})

	t.Run("missing fields are 400", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.c"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "Invalid input", body["message"])
	})

	t.Run("signup then me", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/api/auth/signup", "", models.SignupRequest{
			Name: "Asha Rao", Email: "asha@example.com", Password: "secret123", Phone: "99999",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[models.AuthResponse](t, w)
		assert.Equal(t, "Signup successful", resp.Message)

		w = do(t, srv, http.MethodGet, "/api/auth/me", resp.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "asha@example.com", decode[models.User](t, w).Email)
	})

	t.Run("duplicate signup is 409", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/api/auth/signup", "", models.SignupRequest{
			Name: "Again", Email: repository.DemoEmail, Password: "secret123",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("me without or with bad token is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/auth/me", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/auth/me", "garbage", nil).Code)
	})
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 30)

	w = do(t, srv, http.MethodGet, "/api/products?category=Medical+Devices", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	devices := decode[[]models.Product](t, w)
	assert.Len(t, devices, 6)
	for _, p := range devices {
		assert.Equal(t, "Medical Devices", p.Category)
	}

	w = do(t, srv, http.MethodGet, "/api/products/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[models.Product](t, w)
	assert.Equal(t, "Biofer-F", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("50.13")))

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/products/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/products/abc", "", nil).Code)

	w = do(t, srv, http.MethodGet, "/api/search", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/search?q=THERMO", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.Product](t, w)
	require.NotEmpty(t, found)
	assert.Equal(t, "Thermometer", found[0].Name)

	w = do(t, srv, http.MethodGet, "/api/featured", "", nil)
	assert.Len(t, decode[[]models.Product](t, w), 6)

	w = do(t, srv, http.MethodGet, "/api/popular", "", nil)
	popular := decode[[]models.Product](t, w)
	assert.Len(t, popular, 22)
	for _, p := range popular {
		assert.Greater(t, p.Rating, 4.3)
	}

	w = do(t, srv, http.MethodGet, "/api/categories", "", nil)
	assert.Len(t, decode[[]models.Category](t, w), 10)
}

func TestCartEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/cart", "", nil).Code)

	w := do(t, srv, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, srv, http.MethodPost, "/api/cart", token, models.AddToCartRequest{ProductID: 1, Quantity: 2, ItemID: 1700000000000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(controllers.CartUpdatedAtHeader))
	items := decode[[]models.CartLineItem](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1700000000000), items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)

	w = do(t, srv, http.MethodPost, "/api/cart", token, models.AddToCartRequest{ProductID: 1, Quantity: 3})
	items = decode[[]models.CartLineItem](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	assert.Equal(t, http.StatusNotFound,
		do(t, srv, http.MethodPost, "/api/cart", token, models.AddToCartRequest{ProductID: 999}).Code)

	qty := 7
	w = do(t, srv, http.MethodPut, "/api/cart/1700000000000", token, models.UpdateCartItemRequest{Quantity: &qty})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, decode[[]models.CartLineItem](t, w)[0].Quantity)

	assert.Equal(t, http.StatusNotFound,
		do(t, srv, http.MethodPut, "/api/cart/42", token, models.UpdateCartItemRequest{Quantity: &qty}).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, srv, http.MethodPut, "/api/cart/1700000000000", token, map[string]any{}).Code)

	w = do(t, srv, http.MethodDelete, "/api/cart/1700000000000", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// removing again is not an error
	w = do(t, srv, http.MethodDelete, "/api/cart/1700000000000", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutAndOrders(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	w := do(t, srv, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decode[[]models.Order](t, w)
	require.Len(t, orders, 1)
	assert.Equal(t, repository.DemoOrderID, orders[0].ID)
	assert.Equal(t, models.StatusDelivered, orders[0].Status)
	assert.Len(t, orders[0].Tracking.Timeline, 6)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/orders/nope", token, nil).Code)

	// empty server cart and no draft items
	w = do(t, srv, http.MethodPost, "/api/checkout", token, models.OrderDraft{PaymentMethod: "upi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	do(t, srv, http.MethodPost, "/api/cart", token, models.AddToCartRequest{ProductID: 1, Quantity: 2})
	w = do(t, srv, http.MethodPost, "/api/checkout", token, models.OrderDraft{PaymentMethod: "bitcoin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/checkout", token, models.OrderDraft{PaymentMethod: "UPI"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, models.StatusOrdered, order.Status)
	assert.Equal(t, "upi", order.PaymentMethod)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("100.26")), order.Total.String())
	assert.Equal(t, "Baif Road", order.DeliveryAddress.Street)

	w = do(t, srv, http.MethodGet, "/api/cart", token, nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/orders/"+order.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.ID, decode[models.Order](t, w).ID)

	// other users cannot see it
	w = do(t, srv, http.MethodPost, "/api/auth/signup", "", models.SignupRequest{
		Name: "Other", Email: "other@example.com", Password: "secret123",
	})
	other := decode[models.AuthResponse](t, w).Token
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/orders/"+order.ID, other, nil).Code)

	t.Run("tracking advances and cancel is terminal", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/api/orders/"+order.ID+"/status", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, models.StatusConfirmed, decode[models.Order](t, w).Status)

		w = do(t, srv, http.MethodPost, "/api/orders/"+order.ID+"/cancel", token, models.StatusUpdateRequest{Message: "Changed my mind"})
		require.Equal(t, http.StatusOK, w.Code)
		cancelled := decode[models.Order](t, w)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		last := cancelled.Tracking.Timeline[len(cancelled.Tracking.Timeline)-1]
		assert.Equal(t, "Changed my mind", last.Message)

		assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/api/orders/"+order.ID+"/status", token, nil).Code)
		assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/api/orders/"+repository.DemoOrderID+"/cancel", token, nil).Code)
	})
}

func TestAddressEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	w := do(t, srv, http.MethodPost, "/api/addresses", token, models.Address{
		Type: "Other", Street: "MG Road", City: "Mumbai", State: "Maharashtra", Pincode: "400001", IsDefault: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/addresses", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	addrs := decode[[]models.Address](t, w)
	require.Len(t, addrs, 3)
	defaults := 0
	for _, a := range addrs {
		if a.IsDefault {
			defaults++
			assert.Equal(t, "MG Road", a.Street)
		}
	}
	assert.Equal(t, 1, defaults)

	assert.Equal(t, http.StatusBadRequest,
		do(t, srv, http.MethodPost, "/api/addresses", token, models.Address{Street: "nowhere"}).Code)
}

func TestContentEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	w := do(t, srv, http.MethodGet, "/api/articles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	articles := decode[[]models.Article](t, w)
	require.NotEmpty(t, articles)

	w = do(t, srv, http.MethodGet, "/api/articles/"+jsonInt(articles[0].ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/articles/999", "", nil).Code)

	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/reminders", "", nil).Code)

	w = do(t, srv, http.MethodPost, "/api/reminders", token, models.Reminder{Medicine: "Biofer-F", Times: []string{"08:00"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotZero(t, decode[models.Reminder](t, w).ID)

	w = do(t, srv, http.MethodGet, "/api/reminders", token, nil)
	assert.Len(t, decode[[]models.Reminder](t, w), 1)
}

func TestErrorInjection(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/admin/inject-error", "", map[string]any{"mode": "server_error", "server_error_rate": 1})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodGet, "/api/products", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "", nil).Code)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/admin/reset", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/products", "", nil).Code)
}

func TestCloseUsesNoopPublisher(t *testing.T) {
	srv := newTestServer(t)
	assert.NoError(t, srv.Close())
}

func jsonInt(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
