package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-storefront/models"
)

func newCatalog(t *testing.T) *MemoryCatalogRepository {
	t.Helper()
	products, err := SeedProducts()
	require.NoError(t, err)
	cats, err := SeedCategories()
	require.NoError(t, err)
	return NewMemoryCatalogRepository(products, cats)
}

func TestSeedData(t *testing.T) {
	products, err := SeedProducts()
	require.NoError(t, err)
	assert.Len(t, products, 30)
	assert.Equal(t, "Biofer-F", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("50.13")))

	cats, err := SeedCategories()
	require.NoError(t, err)
	assert.Len(t, cats, 10)

	articles, err := SeedArticles()
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestCatalogQueries(t *testing.T) {
	ctx := context.Background()
	repo := newCatalog(t)

	all, err := repo.FindAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 30)

	devices, err := repo.FindAll(ctx, "medical devices")
	require.NoError(t, err)
	require.NotEmpty(t, devices)
	for _, p := range devices {
		assert.Equal(t, "Medical Devices", p.Category)
	}

	p, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Zincovit-C", p.Name)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	featured, err := repo.Featured(ctx, 6)
	require.NoError(t, err)
	require.Len(t, featured, 6)
	assert.Equal(t, 1, featured[0].ID)
	assert.Equal(t, 6, featured[5].ID)

	popular, err := repo.Popular(ctx, 4.3)
	require.NoError(t, err)
	for _, p := range popular {
		assert.Greater(t, p.Rating, 4.3)
	}
}

func TestCatalogSearch(t *testing.T) {
	ctx := context.Background()
	repo := newCatalog(t)

	empty, err := repo.Search(ctx, "  ")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	byName, err := repo.Search(ctx, "BIOFER")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, 1, byName[0].ID)

	byDescription, err := repo.Search(ctx, "hemoglobin")
	require.NoError(t, err)
	assert.Len(t, byDescription, 1)

	byCategory, err := repo.Search(ctx, "baby care")
	require.NoError(t, err)
	assert.Len(t, byCategory, 3)
}

func TestCatalogReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := newCatalog(t)
	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	p.Benefits[0] = "changed"
	p.Name = "changed"

	again, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Biofer-F", again.Name)
	assert.Equal(t, "Prevents anemia", again.Benefits[0])
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := DemoUser()
	require.NoError(t, repo.Create(ctx, &u, []byte("hash")))
	assert.Equal(t, int64(1), u.ID)

	dup := models.User{Email: "Rushikesh@Example.com"}
	assert.ErrorIs(t, repo.Create(ctx, &dup, nil), ErrEmailTaken)

	found, hash, err := repo.FindByEmail(ctx, " RUSHIKESH@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, []byte("hash"), hash)

	_, _, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepositoryAddressDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := models.User{Email: "a@example.com"}
	require.NoError(t, repo.Create(ctx, &u, nil))

	first, err := repo.AddAddress(ctx, u.ID, models.Address{Type: "Home", Street: "s", City: "c", State: "st", Pincode: "1"})
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := repo.AddAddress(ctx, u.ID, models.Address{Type: "Office", Street: "s", City: "c", State: "st", Pincode: "2"})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	third, err := repo.AddAddress(ctx, u.ID, models.Address{Type: "Other", Street: "s", City: "c", State: "st", Pincode: "3", IsDefault: true})
	require.NoError(t, err)
	assert.NotEqual(t, second.ID, third.ID)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, models.ValidateAddresses(got.Addresses))
	def, ok := got.DefaultAddress()
	require.True(t, ok)
	assert.Equal(t, third.ID, def.ID)

	_, err = repo.AddAddress(ctx, 999, models.Address{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()
	user := DemoUser()
	user.ID = 1

	demo := DemoOrder(user)
	require.NoError(t, repo.Create(ctx, demo))
	later := models.NewOrder("2", 1, nil, models.Address{}, "cod", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, later))

	orders, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, DemoOrderID, orders[0].ID)

	none, err := repo.FindByUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.FindByID(ctx, 2, DemoOrderID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := repo.FindByID(ctx, 1, "2")
	require.NoError(t, err)
	require.NoError(t, got.Advance(time.Now(), ""))
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.FindByID(ctx, 1, "2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, again.CurrentStatus())

	assert.ErrorIs(t, repo.Update(ctx, &models.Order{ID: "missing"}), models.ErrNotFound)
}

func TestDemoOrder(t *testing.T) {
	o := DemoOrder(DemoUser())
	assert.Equal(t, models.StatusDelivered, o.CurrentStatus())
	assert.Len(t, o.Tracking.Timeline, 6)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("301.67")))
	assert.Equal(t, "Baif Road", o.DeliveryAddress.Street)
}

func TestContentRepository(t *testing.T) {
	ctx := context.Background()
	articles, err := SeedArticles()
	require.NoError(t, err)
	repo := NewMemoryContentRepository(articles)

	a, err := repo.Article(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Managing Blood Pressure at Home", a.Title)
	_, err = repo.Article(ctx, 3)
	assert.ErrorIs(t, err, models.ErrNotFound)

	rems, err := repo.Reminders(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rems)

	r, err := repo.AddReminder(ctx, models.Reminder{UserID: 1, Medicine: "Biofer-F", Times: []string{"09:00"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)

	rems, err = repo.Reminders(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rems, 1)
	rems, err = repo.Reminders(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, rems)
}
