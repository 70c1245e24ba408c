// Package client talks to the storefront REST API. It implements the auth,
// cart, order and catalog contracts consumed by the session, cart and checkout
// packages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmacy-storefront/models"
)

// CartUpdatedAtHeader mirrors the server's cart write-time header.
const CartUpdatedAtHeader = "X-Cart-Updated-At"

const defaultTimeout = 10 * time.Second

// StatusError is a non-2xx response that maps to no sentinel.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storefront api: status=%d message=%s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. with an httptest server's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiError struct {
	Message string `json:"message"`
}

// do sends one request and returns the raw response for 2xx statuses. Other
// statuses are mapped to errors by mapStatus.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug("storefront api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, mapStatus(resp)
	}
	return resp, nil
}

func mapStatus(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body apiError
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", models.ErrNotAuthenticated, body.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, body.Message)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: body.Message}
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, token string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, token, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// ---- auth ----

// Login exchanges credentials for a token. Any client-side rejection comes
// back as *models.AuthenticationFailedError carrying the server's message.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/login", models.LoginRequest{Email: email, Password: password})
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/signup", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, path, nil, "", body)
	if err != nil {
		var se *StatusError
		switch {
		case errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError:
			return nil, &models.AuthenticationFailedError{Message: se.Message}
		case errors.Is(err, models.ErrNotAuthenticated), errors.Is(err, models.ErrNotFound):
			return nil, &models.AuthenticationFailedError{Message: messageOf(err)}
		}
		return nil, err
	}
	var out models.AuthResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &models.AuthenticationFailedError{Message: "no token in response"}
	}
	return &out, nil
}

// messageOf strips the sentinel prefix added by mapStatus.
func messageOf(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/api/auth/me", nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ---- catalog ----

// Products lists the catalog, optionally filtered by category. Entries that
// fail validation are dropped and logged.
func (c *Client) Products(ctx context.Context, category string) ([]models.Product, error) {
	var q url.Values
	if category != "" {
		q = url.Values{"category": {category}}
	}
	return c.productList(ctx, "/api/products", q)
}

func (c *Client) Search(ctx context.Context, query string) ([]models.Product, error) {
	return c.productList(ctx, "/api/search", url.Values{"q": {query}})
}

func (c *Client) Featured(ctx context.Context) ([]models.Product, error) {
	return c.productList(ctx, "/api/featured", nil)
}

func (c *Client) Popular(ctx context.Context) ([]models.Product, error) {
	return c.productList(ctx, "/api/popular", nil)
}

func (c *Client) Product(ctx context.Context, id int) (*models.Product, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/products/"+strconv.Itoa(id), nil, "", &raw); err != nil {
		return nil, err
	}
	p, err := models.ParseProduct(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := c.getJSON(ctx, "/api/categories", nil, "", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) productList(ctx context.Context, path string, q url.Values) ([]models.Product, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, path, q, "", &raw); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(raw))
	for _, r := range raw {
		p, err := models.ParseProduct(r)
		if err != nil {
			c.log.Warn("Dropping invalid product from catalog response", zap.String("path", path), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// ---- cart ----

func (c *Client) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/cart", nil, token, nil)
	if err != nil {
		return nil, err
	}
	return decodeCart(resp)
}

func (c *Client) AddItem(ctx context.Context, token string, req models.AddToCartRequest) (*models.Cart, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/cart", nil, token, req)
	if err != nil {
		return nil, err
	}
	return decodeCart(resp)
}

func (c *Client) UpdateItem(ctx context.Context, token string, itemID int64, quantity int) (*models.Cart, error) {
	path := "/api/cart/" + strconv.FormatInt(itemID, 10)
	resp, err := c.do(ctx, http.MethodPut, path, nil, token, models.UpdateCartItemRequest{Quantity: &quantity})
	if err != nil {
		return nil, err
	}
	return decodeCart(resp)
}

func (c *Client) RemoveItem(ctx context.Context, token string, itemID int64) (*models.Cart, error) {
	path := "/api/cart/" + strconv.FormatInt(itemID, 10)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, token, nil)
	if err != nil {
		return nil, err
	}
	return decodeCart(resp)
}

func decodeCart(resp *http.Response) (*models.Cart, error) {
	cart := &models.Cart{}
	if v := resp.Header.Get(CartUpdatedAtHeader); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			cart.UpdatedAt = t
		}
	}
	if err := decodeJSON(resp, &cart.Items); err != nil {
		return nil, err
	}
	return cart, nil
}

// ---- orders ----

func (c *Client) Checkout(ctx context.Context, token string, draft models.OrderDraft) (*models.Order, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/checkout", nil, token, draft)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := decodeJSON(resp, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) Orders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.getJSON(ctx, "/api/orders", nil, token, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Order(ctx context.Context, token, id string) (*models.Order, error) {
	var order models.Order
	if err := c.getJSON(ctx, "/api/orders/"+url.PathEscape(id), nil, token, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
