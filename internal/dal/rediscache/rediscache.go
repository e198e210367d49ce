package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/orderflow/orders/internal/service/models/order"
)

const defaultOrderTTL = 5 * time.Minute

// Client caches single-order lookups in Redis with a bounded TTL. Cache
// failures degrade to a miss; a read is never failed because of the cache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// MustNewClient creates a new Redis cache client.
func MustNewClient() *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		panic("failed to connect to redis: " + err.Error())
	}

	ttl := viper.GetDuration("cache.order_ttl")
	if ttl <= 0 {
		ttl = defaultOrderTTL
	}

	return &Client{
		rdb: rdb,
		ttl: ttl,
	}
}

// Close closes the Redis connection for graceful shutdown.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func orderKey(id uuid.UUID) string {
	return "order:" + id.String()
}

// GetOrder returns the cached order and whether it was present.
func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, bool) {
	val, err := c.rdb.Get(ctx, orderKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("order cache read failed", "orderId", id, "error", err)
		}

		return nil, false
	}

	var o order.Order
	if err := json.Unmarshal([]byte(val), &o); err != nil {
		slog.Warn("order cache entry malformed", "orderId", id, "error", err)

		return nil, false
	}

	return &o, true
}

// SetOrder stores the order under its id with the configured TTL.
func (c *Client) SetOrder(ctx context.Context, o *order.Order) {
	payload, err := json.Marshal(o)
	if err != nil {
		slog.Warn("order cache marshal failed", "orderId", o.ID, "error", err)

		return
	}

	if err := c.rdb.Set(ctx, orderKey(o.ID), payload, c.ttl).Err(); err != nil {
		slog.Warn("order cache write failed", "orderId", o.ID, "error", err)
	}
}

// InvalidateOrder drops the cache entry for the order. Called synchronously
// on every create, update and delete of that id.
func (c *Client) InvalidateOrder(ctx context.Context, id uuid.UUID) {
	if err := c.rdb.Del(ctx, orderKey(id)).Err(); err != nil {
		slog.Warn("order cache invalidation failed", "orderId", id, "error", err)
	}
}
