package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pharmacy-storefront/models"
)

type CartRepositorySuite struct {
	suite.Suite
	newRepo func() CartRepository
	mr      *miniredis.Miniredis
}

func (s *CartRepositorySuite) TestRoundTrip() {
	ctx := context.Background()
	repo := s.newRepo()

	got, err := repo.GetCart(ctx, "1")
	s.Require().NoError(err)
	s.Nil(got)

	cart := &models.Cart{UserID: "1", Items: []models.CartLineItem{{
		ID: 10, ProductID: 1, Quantity: 2,
		Product: models.Product{ID: 1, Name: "Biofer-F", Price: decimal.RequireFromString("50.13")},
	}}}
	s.Require().NoError(repo.SaveCart(ctx, cart))
	s.False(cart.UpdatedAt.IsZero())

	got, err = repo.GetCart(ctx, "1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Require().Len(got.Items, 1)
	s.Equal(2, got.Items[0].Quantity)
	s.True(got.Items[0].Product.Price.Equal(decimal.RequireFromString("50.13")))
	s.WithinDuration(cart.UpdatedAt, got.UpdatedAt, time.Millisecond)

	s.Require().NoError(repo.DeleteCart(ctx, "1"))
	got, err = repo.GetCart(ctx, "1")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *CartRepositorySuite) TestIsolatedFromCaller() {
	ctx := context.Background()
	repo := s.newRepo()
	cart := &models.Cart{UserID: "2", Items: []models.CartLineItem{{ID: 1, ProductID: 1, Quantity: 1, Product: models.Product{ID: 1, Name: "x"}}}}
	s.Require().NoError(repo.SaveCart(ctx, cart))
	cart.Items[0].Quantity = 99

	got, err := repo.GetCart(ctx, "2")
	s.Require().NoError(err)
	s.Equal(1, got.Items[0].Quantity)
}

func TestMemoryCartRepository(t *testing.T) {
	suite.Run(t, &CartRepositorySuite{newRepo: func() CartRepository { return NewMemoryCartRepository() }})
}

func TestRedisCartRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &CartRepositorySuite{
		newRepo: func() CartRepository {
			mr.FlushAll()
			return NewRedisCartRepository(client, time.Hour)
		},
		mr: mr,
	})
}

func TestRedisCartRepositoryKeyAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewRedisCartRepository(client, time.Hour)

	require.NoError(t, repo.SaveCart(context.Background(), &models.Cart{UserID: "5"}))
	assert.True(t, mr.Exists("cart:user:5"))
	assert.Equal(t, time.Hour, mr.TTL("cart:user:5"))

	mr.FastForward(2 * time.Hour)
	got, err := repo.GetCart(context.Background(), "5")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCartRepositoryCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewRedisCartRepository(client, time.Hour)

	require.NoError(t, mr.Set("cart:user:9", "{not json"))
	_, err := repo.GetCart(context.Background(), "9")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}
