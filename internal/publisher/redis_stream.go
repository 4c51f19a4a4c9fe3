package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamName is the Redis stream carrying engine lifecycle events.
const StreamName = "augur.events.nba"

// maxStreamLength caps the stream so consumers that fall behind don't grow
// Redis without bound.
const maxStreamLength = 10000

// RedisPublisher publishes engine events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis stream publisher
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
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

	return &RedisPublisher{
		client: client,
	}, nil
}

// NewRedisPublisherFromClient wraps an existing Redis client.
func NewRedisPublisherFromClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Close closes the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// Publish appends one event to the stream. Satisfies the engine's event sink.
func (rp *RedisPublisher) Publish(ctx context.Context, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"event":     event,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
