package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vpn-storefront/internal/config"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGetPlans(t *testing.T) {
	cache := setupTestCache(t)

	expected := []*models.Plan{
		{ID: 1, Name: "Monthly", Price: 19900, DurationDays: 30, IsActive: true},
		{ID: 2, Name: "Yearly", Price: 199000, DurationDays: 365, IsActive: true},
	}
	err := cache.Set(context.Background(), PlansKey, expected, time.Minute)
	require.NoError(t, err)

	var actual []*models.Plan
	found, err := cache.Get(context.Background(), PlansKey, &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out []*models.Plan
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Set(context.Background(), PlansKey, "value", time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate(context.Background(), PlansKey)
	require.NoError(t, err)

	var out string
	found, err := cache.Get(context.Background(), PlansKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out models.Plan
	found, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}
