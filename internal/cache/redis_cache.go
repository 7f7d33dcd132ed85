package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/chance"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

// DefaultConversionTTL applies when the cache is built with a zero TTL
const DefaultConversionTTL = 10 * time.Minute

// RedisCache stores conversion responses keyed by representation and value
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultConversionTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// ConversionKey returns chance:convert:{kind}:{value}. The value keeps the
// sign of zero since -0 and 0 have different complements in log-odds.
func ConversionKey(kind chance.Kind, value float64) string {
	return fmt.Sprintf("chance:convert:%s:%s", kind, strconv.FormatFloat(value, 'g', -1, 64))
}

// GetConversion returns the cached response, or nil on a miss
func (c *RedisCache) GetConversion(ctx context.Context, kind chance.Kind, value float64) (*models.ConversionResponse, error) {
	key := ConversionKey(kind, value)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}

	var resp models.ConversionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling %s: %w", key, err)
	}
	return &resp, nil
}

// SetConversion stores a response under its input's key
func (c *RedisCache) SetConversion(ctx context.Context, kind chance.Kind, value float64, resp *models.ConversionResponse) error {
	key := ConversionKey(kind, value)

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling conversion: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("error writing %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
