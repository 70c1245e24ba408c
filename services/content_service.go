package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pharmacy-storefront/models"
	"pharmacy-storefront/repository"
)

// ContentService defines health articles and medicine reminders.
type ContentService interface {
	ListArticles(ctx context.Context) ([]models.Article, *ServiceError)
	GetArticle(ctx context.Context, id int) (*models.Article, *ServiceError)
	ListReminders(ctx context.Context, userID int64) ([]models.Reminder, *ServiceError)
	AddReminder(ctx context.Context, userID int64, r *models.Reminder) (*models.Reminder, *ServiceError)
}

type contentServiceImpl struct {
	repo   repository.ContentRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewContentService(repo repository.ContentRepository, logger *zap.Logger) ContentService {
	return &contentServiceImpl{repo: repo, now: time.Now, logger: logger}
}

func (s *contentServiceImpl) ListArticles(ctx context.Context) ([]models.Article, *ServiceError) {
	articles, err := s.repo.Articles(ctx)
	if err != nil {
		s.logger.Error("Failed to list articles", zap.Error(err))
		return nil, internal("Failed to list articles")
	}
	return articles, nil
}

func (s *contentServiceImpl) GetArticle(ctx context.Context, id int) (*models.Article, *ServiceError) {
	a, err := s.repo.Article(ctx, id)
	if err != nil {
		return nil, notFound("Article not found")
	}
	return a, nil
}

func (s *contentServiceImpl) ListReminders(ctx context.Context, userID int64) ([]models.Reminder, *ServiceError) {
	rems, err := s.repo.Reminders(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list reminders", zap.Error(err))
		return nil, internal("Failed to list reminders")
	}
	return rems, nil
}

func (s *contentServiceImpl) AddReminder(ctx context.Context, userID int64, r *models.Reminder) (*models.Reminder, *ServiceError) {
	rem := *r
	rem.UserID = userID
	rem.CreatedAt = s.now().UTC()
	created, err := s.repo.AddReminder(ctx, rem)
	if err != nil {
		s.logger.Error("Failed to add reminder", zap.Error(err))
		return nil, internal("Failed to add reminder")
	}
	return &created, nil
}
