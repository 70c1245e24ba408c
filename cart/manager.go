// Package cart owns the shopper's line items. Changes apply locally first and
// are then mirrored to the server cart when a session token is available.
// Mirror calls reach the server one at a time, in the order the local
// changes were made.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmacy-storefront/models"
	"pharmacy-storefront/persist"
	"pharmacy-storefront/pkg/ids"
)

const (
	DefaultQuantity      = 1
	DefaultMirrorTimeout = 10 * time.Second
)

// TokenSource yields the current session token, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Remote is the server cart the manager mirrors into.
type Remote interface {
	AddItem(ctx context.Context, token string, req models.AddToCartRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, token string, itemID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, token string, itemID int64) (*models.Cart, error)
}

type Manager struct {
	store         persist.Store
	remote        Remote
	tokens        TokenSource
	ids           *ids.Generator
	log           *zap.Logger
	mirrorTimeout time.Duration

	mu    sync.Mutex
	items []models.CartLineItem

	inflight sync.WaitGroup

	queueMu  sync.Mutex
	queue    []mirrorOp
	draining bool

	subMu   sync.Mutex
	subs    map[int]func([]models.CartLineItem)
	nextSub int
}

type remoteCall func(ctx context.Context, r Remote, token string) error

type mirrorOp struct {
	op    string
	token string
	call  remoteCall
	done  *Sync
}

type Option func(*Manager)

func WithMirrorTimeout(d time.Duration) Option {
	return func(m *Manager) { m.mirrorTimeout = d }
}

func WithIDGenerator(g *ids.Generator) Option {
	return func(m *Manager) { m.ids = g }
}

// NewManager loads the persisted cart. remote and tokens may be nil, in which
// case nothing is mirrored.
func NewManager(ctx context.Context, store persist.Store, remote Remote, tokens TokenSource, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		remote:        remote,
		tokens:        tokens,
		ids:           ids.NewGenerator(),
		log:           log,
		mirrorTimeout: DefaultMirrorTimeout,
		items:         []models.CartLineItem{},
		subs:          make(map[int]func([]models.CartLineItem)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.items = m.load(ctx)
	for _, item := range m.items {
		m.ids.Observe(item.ID)
	}
	return m
}

// load never fails: unreadable data is logged and yields an empty cart.
func (m *Manager) load(ctx context.Context) []models.CartLineItem {
	data, ok, err := m.store.Get(ctx, persist.KeyCart)
	if err != nil {
		m.log.Warn("Failed to read persisted cart", zap.Error(err))
		return []models.CartLineItem{}
	}
	if !ok {
		return []models.CartLineItem{}
	}

	var stored []models.CartLineItem
	if err := json.Unmarshal(data, &stored); err != nil {
		m.log.Warn("Ignoring persisted cart",
			zap.Error(fmt.Errorf("%w: %v", models.ErrPersistenceCorrupt, err)))
		return []models.CartLineItem{}
	}

	items := make([]models.CartLineItem, 0, len(stored))
	for _, item := range stored {
		if item.Quantity < 1 || item.Product.Validate() != nil {
			m.log.Warn("Dropping invalid persisted cart item",
				zap.Int64("item_id", item.ID), zap.Error(models.ErrPersistenceCorrupt))
			continue
		}
		item.ProductID = item.Product.ID
		items = append(items, item)
	}
	return items
}

// AddToCart adds quantity of product. A product already in the cart has its
// line's quantity raised instead of getting a second line.
func (m *Manager) AddToCart(product models.Product, quantity int) (*Sync, error) {
	if quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	var item models.CartLineItem
	if idx := m.indexByProduct(product.ID); idx >= 0 {
		m.items[idx].Quantity += quantity
		item = m.items[idx]
	} else {
		item = models.CartLineItem{
			ID:        m.ids.Next(),
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   product.Clone(),
		}
		m.items = append(m.items, item)
	}
	snap := m.commitLocked()

	// Adds are sent as deltas so that concurrent mirrors sum up on the server.
	req := models.AddToCartRequest{ProductID: product.ID, Quantity: quantity, ItemID: item.ID}
	s := m.mirrorLocked("add", func(ctx context.Context, r Remote, token string) error {
		_, err := r.AddItem(ctx, token, req)
		return err
	})
	m.mu.Unlock()
	m.notify(snap)
	return s, nil
}

// UpdateQuantity sets a line's quantity. quantity <= 0 removes the line and
// an unknown id is a no-op.
func (m *Manager) UpdateQuantity(itemID int64, quantity int) *Sync {
	if quantity <= 0 {
		return m.RemoveFromCart(itemID)
	}

	m.mu.Lock()
	idx := m.indexByID(itemID)
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}
	m.items[idx].Quantity = quantity
	item := m.items[idx]
	snap := m.commitLocked()

	s := m.mirrorLocked("update", func(ctx context.Context, r Remote, token string) error {
		_, err := r.UpdateItem(ctx, token, itemID, quantity)
		if errors.Is(err, models.ErrNotFound) {
			// The server never saw the add; recreate the line with our id.
			_, err = r.AddItem(ctx, token, models.AddToCartRequest{
				ProductID: item.ProductID, Quantity: quantity, ItemID: itemID,
			})
		}
		return err
	})
	m.mu.Unlock()
	m.notify(snap)
	return s
}

// RemoveFromCart is idempotent. Removing an absent id writes nothing and
// calls nothing.
func (m *Manager) RemoveFromCart(itemID int64) *Sync {
	m.mu.Lock()
	idx := m.indexByID(itemID)
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}
	m.items = append(m.items[:idx:idx], m.items[idx+1:]...)
	snap := m.commitLocked()

	s := m.mirrorLocked("remove", func(ctx context.Context, r Remote, token string) error {
		_, err := r.RemoveItem(ctx, token, itemID)
		return err
	})
	m.mu.Unlock()
	m.notify(snap)
	return s
}

// ClearCart empties the cart and drops the persisted slot. The server cart is
// left alone.
func (m *Manager) ClearCart() {
	m.mu.Lock()
	m.items = []models.CartLineItem{}
	m.removeSlotLocked()
	snap := models.CloneItems(m.items)
	m.mu.Unlock()
	m.notify(snap)
}

// ConsumeCheckout removes the quantities that were just ordered. Anything
// added after the snapshot was taken stays in the cart.
func (m *Manager) ConsumeCheckout(ordered []models.CartLineItem) {
	m.mu.Lock()
	for _, o := range ordered {
		idx := m.indexByID(o.ID)
		if idx < 0 {
			continue
		}
		m.items[idx].Quantity -= o.Quantity
		if m.items[idx].Quantity <= 0 {
			m.items = append(m.items[:idx:idx], m.items[idx+1:]...)
		}
	}
	var snap []models.CartLineItem
	if len(m.items) == 0 {
		m.removeSlotLocked()
		snap = []models.CartLineItem{}
	} else {
		snap = m.commitLocked()
	}
	m.mu.Unlock()
	m.notify(snap)
}

// Items returns a detached copy of the cart.
func (m *Manager) Items() []models.CartLineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneItems(m.items)
}

func (m *Manager) GetCartTotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CartTotal(m.items)
}

// GetCartItemCount sums quantities across lines.
func (m *Manager) GetCartItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CartItemCount(m.items)
}

func (m *Manager) GetCartItem(productID int) (models.CartLineItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexByProduct(productID); idx >= 0 {
		return m.items[idx].Clone(), true
	}
	return models.CartLineItem{}, false
}

func (m *Manager) IsInCart(productID int) bool {
	_, ok := m.GetCartItem(productID)
	return ok
}

// Wait blocks until every mirror call started so far has finished.
func (m *Manager) Wait(ctx context.Context) error {
	return waitGroup(ctx, &m.inflight)
}

// Subscribe registers fn for cart changes and returns a function removing it.
func (m *Manager) Subscribe(fn func([]models.CartLineItem)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify(items []models.CartLineItem) {
	m.subMu.Lock()
	fns := make([]func([]models.CartLineItem), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(models.CloneItems(items))
	}
}

func (m *Manager) indexByID(itemID int64) int {
	for i := range m.items {
		if m.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (m *Manager) indexByProduct(productID int) int {
	for i := range m.items {
		if m.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// commitLocked persists the whole list and returns a snapshot for
// subscribers. m.mu must be held.
func (m *Manager) commitLocked() []models.CartLineItem {
	data, err := json.Marshal(m.items)
	if err == nil {
		err = m.store.Set(context.Background(), persist.KeyCart, data)
	}
	if err != nil {
		m.log.Warn("Failed to persist cart", zap.Error(err))
	}
	return models.CloneItems(m.items)
}

func (m *Manager) removeSlotLocked() {
	if err := m.store.Remove(context.Background(), persist.KeyCart); err != nil {
		m.log.Warn("Failed to remove persisted cart", zap.Error(err))
	}
}

// mirrorLocked queues call when a remote and a token are present. It runs
// under m.mu so the queue order matches the order of local changes. Failures
// are logged and never reach the caller of the cart operation.
func (m *Manager) mirrorLocked(op string, call remoteCall) *Sync {
	if m.remote == nil || m.tokens == nil {
		return nil
	}
	token, ok := m.tokens.Token()
	if !ok {
		return nil
	}

	s := newSync()
	m.inflight.Add(1)
	m.queueMu.Lock()
	m.queue = append(m.queue, mirrorOp{op: op, token: token, call: call, done: s})
	if !m.draining {
		m.draining = true
		go m.drain()
	}
	m.queueMu.Unlock()
	return s
}

// drain runs queued mirror calls one after another until the queue is empty.
func (m *Manager) drain() {
	for {
		m.queueMu.Lock()
		if len(m.queue) == 0 {
			m.draining = false
			m.queueMu.Unlock()
			return
		}
		next := m.queue[0]
		m.queue[0] = mirrorOp{}
		m.queue = m.queue[1:]
		m.queueMu.Unlock()

		m.run(next)
	}
}

func (m *Manager) run(op mirrorOp) {
	defer m.inflight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), m.mirrorTimeout)
	defer cancel()

	err := op.call(ctx, m.remote, op.token)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", models.ErrRemoteSyncFailed, op.op, err)
		m.log.Warn("Cart mirror failed", zap.String("op", op.op), zap.Error(err))
	}
	op.done.finish(err)
}
