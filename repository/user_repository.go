package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pharmacy-storefront/models"
)

var ErrEmailTaken = errors.New("email already registered")

// UserRepository defines storage for accounts and their address books.
type UserRepository interface {
	Create(ctx context.Context, user *models.User, passwordHash []byte) error
	FindByEmail(ctx context.Context, email string) (*models.User, []byte, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	AddAddress(ctx context.Context, userID int64, addr models.Address) (models.Address, error)
}

type userRecord struct {
	user         models.User
	passwordHash []byte
}

// MemoryUserRepository keeps accounts in process, keyed by id and by
// lower-cased email.
type MemoryUserRepository struct {
	mu       sync.RWMutex
	users    map[int64]*userRecord
	byEmail  map[string]int64
	nextID   int64
	nextAddr int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[int64]*userRecord),
		byEmail: make(map[string]int64),
	}
}

// Create assigns the user an id and stores it. Address ids are assigned when
// missing.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User, passwordHash []byte) error {
	if err := models.ValidateAddresses(user.Addresses); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(user.Email))
	if _, ok := r.byEmail[key]; ok {
		return ErrEmailTaken
	}
	r.nextID++
	user.ID = r.nextID
	for i := range user.Addresses {
		if user.Addresses[i].ID > r.nextAddr {
			r.nextAddr = user.Addresses[i].ID
		}
	}
	for i := range user.Addresses {
		if user.Addresses[i].ID == 0 {
			r.nextAddr++
			user.Addresses[i].ID = r.nextAddr
		}
	}
	r.users[user.ID] = &userRecord{user: user.Clone(), passwordHash: append([]byte(nil), passwordHash...)}
	r.byEmail[key] = user.ID
	return nil
}

// FindByEmail returns the user and its password hash.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, []byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil, models.ErrNotFound
	}
	rec := r.users[id]
	u := rec.user.Clone()
	return &u, rec.passwordHash, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u := rec.user.Clone()
	return &u, nil
}

// AddAddress appends addr to the user's address book. The first address
// becomes the default, and a new default clears the previous one so the book
// never holds two.
func (r *MemoryUserRepository) AddAddress(_ context.Context, userID int64, addr models.Address) (models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.users[userID]
	if !ok {
		return models.Address{}, models.ErrNotFound
	}

	r.nextAddr++
	addr.ID = r.nextAddr
	if len(rec.user.Addresses) == 0 {
		addr.IsDefault = true
	}
	if addr.IsDefault {
		for i := range rec.user.Addresses {
			rec.user.Addresses[i].IsDefault = false
		}
	}
	rec.user.Addresses = append(rec.user.Addresses, addr)
	return addr, nil
}
