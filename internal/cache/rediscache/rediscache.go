package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"github.com/redis/go-redis/v9"
)

const (
	prestationsKey = "cache:prestations"
	defaultTTL     = 5 * time.Minute
)

// Config selects the Redis instance backing the cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache implements catalog.Cache on Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects a Cache to Redis.
func New(cfg Config) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), cfg.TTL)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// GetPrestations returns the cached listing; found is false on a miss.
func (cache *Cache) GetPrestations(ctx context.Context) ([]catalog.Prestation, bool, error) {
	data, err := cache.client.Get(ctx, prestationsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var prestations []catalog.Prestation
	if err := json.Unmarshal(data, &prestations); err != nil {
		return nil, false, err
	}
	return prestations, true, nil
}

// SetPrestations stores the listing for the configured TTL.
func (cache *Cache) SetPrestations(ctx context.Context, prestations []catalog.Prestation) error {
	if prestations == nil {
		prestations = []catalog.Prestation{}
	}
	payload, err := json.Marshal(prestations)
	if err != nil {
		return err
	}
	return cache.client.Set(ctx, prestationsKey, payload, cache.ttl).Err()
}

// InvalidatePrestations drops the cached listing.
func (cache *Cache) InvalidatePrestations(ctx context.Context) error {
	return cache.client.Del(ctx, prestationsKey).Err()
}

// Ping checks Redis connectivity.
func (cache *Cache) Ping(ctx context.Context) error {
	return cache.client.Ping(ctx).Err()
}

// Close releases the client.
func (cache *Cache) Close() error {
	return cache.client.Close()
}
