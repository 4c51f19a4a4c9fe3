package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/augur/internal/store"
)

// PropBoardTTL bounds staleness of the cached board; a generate run replaces
// it explicitly anyway.
const PropBoardTTL = 6 * time.Hour

// RedisCache handles caching and fast state storage
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Set stores a key-value pair with TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value by key
func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

// Delete removes a key
func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

// SetPropBoard caches a date's generated prop board.
func (rc *RedisCache) SetPropBoard(ctx context.Context, date time.Time, props []*store.PropPrediction) error {
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	return rc.client.Set(ctx, propBoardKey(date), data, PropBoardTTL).Err()
}

// GetPropBoard returns the cached board for a date, or nil on a miss.
func (rc *RedisCache) GetPropBoard(ctx context.Context, date time.Time) ([]*store.PropPrediction, error) {
	data, err := rc.client.Get(ctx, propBoardKey(date)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var props []*store.PropPrediction
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// InvalidatePropBoard drops the cached board for a date.
func (rc *RedisCache) InvalidatePropBoard(ctx context.Context, date time.Time) error {
	return rc.client.Del(ctx, propBoardKey(date)).Err()
}

func propBoardKey(date time.Time) string {
	return fmt.Sprintf("augur:props:%s", date.Format("2006-01-02"))
}
