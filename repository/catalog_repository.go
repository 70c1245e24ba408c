package repository

import (
	"context"
	"strings"

	"pharmacy-storefront/models"
)

// CatalogRepository defines read access to products and categories.
type CatalogRepository interface {
	FindAll(ctx context.Context, category string) ([]models.Product, error)
	FindByID(ctx context.Context, id int) (*models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	Popular(ctx context.Context, minRating float64) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// MemoryCatalogRepository serves an immutable catalog loaded at startup.
type MemoryCatalogRepository struct {
	products   []models.Product
	byID       map[int]int
	categories []models.Category
}

// NewMemoryCatalogRepository indexes products by id. The slices are copied.
func NewMemoryCatalogRepository(products []models.Product, categories []models.Category) *MemoryCatalogRepository {
	r := &MemoryCatalogRepository{
		products:   make([]models.Product, len(products)),
		byID:       make(map[int]int, len(products)),
		categories: append([]models.Category(nil), categories...),
	}
	for i, p := range products {
		r.products[i] = p.Clone()
		r.byID[p.ID] = i
	}
	return r
}

// FindAll lists products, optionally restricted to one category
// (case-insensitive).
func (r *MemoryCatalogRepository) FindAll(_ context.Context, category string) ([]models.Product, error) {
	return r.filter(func(p models.Product) bool {
		return category == "" || strings.EqualFold(p.Category, category)
	}), nil
}

// FindByID returns models.ErrNotFound for unknown ids.
func (r *MemoryCatalogRepository) FindByID(_ context.Context, id int) (*models.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	p := r.products[i].Clone()
	return &p, nil
}

// Search matches the query as a case-insensitive substring of name, category
// or description. An empty query matches nothing.
func (r *MemoryCatalogRepository) Search(_ context.Context, query string) ([]models.Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Product{}, nil
	}
	return r.filter(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	}), nil
}

// Featured returns the first limit products in catalog order.
func (r *MemoryCatalogRepository) Featured(_ context.Context, limit int) ([]models.Product, error) {
	n := 0
	return r.filter(func(models.Product) bool {
		n++
		return n <= limit
	}), nil
}

// Popular returns products rated strictly above minRating.
func (r *MemoryCatalogRepository) Popular(_ context.Context, minRating float64) ([]models.Product, error) {
	return r.filter(func(p models.Product) bool { return p.Rating > minRating }), nil
}

func (r *MemoryCatalogRepository) Categories(_ context.Context) ([]models.Category, error) {
	return append([]models.Category{}, r.categories...), nil
}

func (r *MemoryCatalogRepository) filter(keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
