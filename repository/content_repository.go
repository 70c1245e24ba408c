package repository

import (
	"context"
	"sync"

	"pharmacy-storefront/models"
)

// ContentRepository serves health articles and per-user medicine reminders.
type ContentRepository interface {
	Articles(ctx context.Context) ([]models.Article, error)
	Article(ctx context.Context, id int) (*models.Article, error)
	Reminders(ctx context.Context, userID int64) ([]models.Reminder, error)
	AddReminder(ctx context.Context, r models.Reminder) (models.Reminder, error)
}

type MemoryContentRepository struct {
	articles []models.Article

	mu        sync.RWMutex
	reminders map[int64][]models.Reminder
	nextID    int64
}

func NewMemoryContentRepository(articles []models.Article) *MemoryContentRepository {
	return &MemoryContentRepository{
		articles:  append([]models.Article(nil), articles...),
		reminders: make(map[int64][]models.Reminder),
	}
}

func (r *MemoryContentRepository) Articles(_ context.Context) ([]models.Article, error) {
	return append([]models.Article{}, r.articles...), nil
}

func (r *MemoryContentRepository) Article(_ context.Context, id int) (*models.Article, error) {
	for _, a := range r.articles {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryContentRepository) Reminders(_ context.Context, userID int64) ([]models.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Reminder{}, r.reminders[userID]...), nil
}

// AddReminder assigns an id and stores the reminder under its user.
func (r *MemoryContentRepository) AddReminder(_ context.Context, rem models.Reminder) (models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rem.ID = r.nextID
	rem.Times = append([]string(nil), rem.Times...)
	r.reminders[rem.UserID] = append(r.reminders[rem.UserID], rem)
	return rem, nil
}
