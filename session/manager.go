// Package session tracks who is signed in to the storefront.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pharmacy-storefront/models"
	"pharmacy-storefront/persist"
)

const DefaultRehydrateTimeout = 10 * time.Second

type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// AuthService is the remote identity provider. Tokens are opaque here.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Snapshot is what subscribers receive after every change.
type Snapshot struct {
	State State
	User  *models.User
}

type Manager struct {
	auth             AuthService
	store            persist.Store
	log              *zap.Logger
	rehydrateTimeout time.Duration

	startOnce sync.Once
	readyOnce sync.Once
	ready     chan struct{}

	mu    sync.RWMutex
	state State
	user  *models.User
	token string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

type Option func(*Manager)

// WithRehydrateTimeout bounds the current-user lookup done by Start.
func WithRehydrateTimeout(d time.Duration) Option {
	return func(m *Manager) { m.rehydrateTimeout = d }
}

func NewManager(auth AuthService, store persist.Store, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		auth:             auth,
		store:            store,
		log:              log,
		rehydrateTimeout: DefaultRehydrateTimeout,
		ready:            make(chan struct{}),
		subs:             make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start restores the session from the persisted token. It runs once; later
// calls return immediately. A token the auth service no longer accepts is
// discarded.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		defer m.markReady()

		token, ok, err := m.store.Get(ctx, persist.KeyAuthToken)
		if err != nil {
			m.log.Warn("Failed to read persisted auth token", zap.Error(err))
		}
		if !ok || len(token) == 0 {
			m.settle(StateAnonymous, nil, "")
			return
		}

		lookupCtx, cancel := context.WithTimeout(ctx, m.rehydrateTimeout)
		defer cancel()
		user, err := m.auth.CurrentUser(lookupCtx, string(token))
		if err != nil {
			m.log.Info("Discarding persisted session", zap.Error(err))
			m.mu.Lock()
			if m.state == StateUnknown {
				m.removeToken()
			}
			m.mu.Unlock()
			m.settle(StateAnonymous, nil, "")
			return
		}
		m.settle(StateAuthenticated, user, string(token))
	})
}

// settle applies the rehydration result unless a login or logout got there
// first.
func (m *Manager) settle(state State, user *models.User, token string) {
	m.mu.Lock()
	if m.state != StateUnknown {
		m.mu.Unlock()
		return
	}
	m.state = state
	m.user = user
	m.token = token
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready is closed once the session has left StateUnknown.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Login authenticates and persists the returned token. On failure nothing
// changes and the error is a *models.AuthenticationFailedError.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &models.AuthenticationFailedError{Message: "Email and password are required"}
	}
	resp, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, m.authFailure("Login failed", err)
	}
	return m.signIn(ctx, resp), nil
}

// Signup registers a new account and signs it in, with the same contract as
// Login.
func (m *Manager) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &models.AuthenticationFailedError{Message: "Email and password are required"}
	}
	resp, err := m.auth.Signup(ctx, req)
	if err != nil {
		return nil, m.authFailure("Signup failed", err)
	}
	return m.signIn(ctx, resp), nil
}

func (m *Manager) authFailure(fallback string, err error) error {
	var afe *models.AuthenticationFailedError
	if errors.As(err, &afe) {
		return afe
	}
	m.log.Warn(fallback, zap.Error(err))
	return &models.AuthenticationFailedError{Message: fallback}
}

func (m *Manager) signIn(ctx context.Context, resp *models.AuthResponse) *models.User {
	user := resp.User.Clone()

	m.mu.Lock()
	if err := m.store.Set(ctx, persist.KeyAuthToken, []byte(resp.Token)); err != nil {
		m.log.Warn("Failed to persist auth token", zap.Error(err))
	}
	m.state = StateAuthenticated
	m.user = &user
	m.token = resp.Token
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.markReady()
	m.notify(snap)
	out := user.Clone()
	return &out
}

// Logout clears the token and user together. It never fails.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.removeToken()
	m.state = StateAnonymous
	m.user = nil
	m.token = ""
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.markReady()
	m.notify(snap)
}

// removeToken needs m.mu held.
func (m *Manager) removeToken() {
	if err := m.store.Remove(context.Background(), persist.KeyAuthToken); err != nil {
		m.log.Warn("Failed to remove persisted auth token", zap.Error(err))
	}
}

// UpdateUser merges patch into the signed-in user. The change is local only.
func (m *Manager) UpdateUser(patch models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.user == nil {
		m.mu.Unlock()
		return nil, models.ErrNotAuthenticated
	}
	updated, err := patch.Apply(*m.user)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.user = &updated
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	out := updated.Clone()
	return &out, nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := m.user.Clone()
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Token returns the session token when signed in.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the goroutine that made the change.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
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

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state}
	if m.user != nil {
		u := m.user.Clone()
		snap.User = &u
	}
	return snap
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
