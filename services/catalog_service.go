package services

import (
	"context"

	"go.uber.org/zap"

	"pharmacy-storefront/models"
	"pharmacy-storefront/repository"
)

const (
	featuredCount    = 6
	popularMinRating = 4.3
)

// CatalogService defines product browsing.
type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]models.Product, *ServiceError)
	GetProduct(ctx context.Context, id int) (*models.Product, *ServiceError)
	Search(ctx context.Context, query string) ([]models.Product, *ServiceError)
	Featured(ctx context.Context) ([]models.Product, *ServiceError)
	Popular(ctx context.Context) ([]models.Product, *ServiceError)
	Categories(ctx context.Context) ([]models.Category, *ServiceError)
}

type catalogServiceImpl struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{repo: repo, logger: logger}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, category string) ([]models.Product, *ServiceError) {
	return s.list(s.repo.FindAll(ctx, category))
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, id int) (*models.Product, *ServiceError) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Product not found")
	}
	return p, nil
}

func (s *catalogServiceImpl) Search(ctx context.Context, query string) ([]models.Product, *ServiceError) {
	return s.list(s.repo.Search(ctx, query))
}

func (s *catalogServiceImpl) Featured(ctx context.Context) ([]models.Product, *ServiceError) {
	return s.list(s.repo.Featured(ctx, featuredCount))
}

func (s *catalogServiceImpl) Popular(ctx context.Context) ([]models.Product, *ServiceError) {
	return s.list(s.repo.Popular(ctx, popularMinRating))
}

func (s *catalogServiceImpl) Categories(ctx context.Context) ([]models.Category, *ServiceError) {
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, internal("Failed to list categories")
	}
	return cats, nil
}

func (s *catalogServiceImpl) list(products []models.Product, err error) ([]models.Product, *ServiceError) {
	if err != nil {
		s.logger.Error("Failed to query catalog", zap.Error(err))
		return nil, internal("Failed to query catalog")
	}
	return products, nil
}
