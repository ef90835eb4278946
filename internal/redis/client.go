// Package redis wraps the shared counter store used for distributed rate
// limiting and telemetry fan-out. The gatekeeper never owns bucket state
// locally; every budget decision is one atomic round trip against this
// client so replicas need no coordination.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb    *redis.Client
	config *Config
	seq    uint64
}

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// ConsumeResult is the outcome of one sliding-window consume. Count includes
// the request that was just recorded; Reset is when the oldest recorded
// request falls out of the window.
type ConsumeResult struct {
	Allowed bool
	Count   int
	Reset   time.Time
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Consume records one request under key and checks it against the sliding
// window in a single transactional pipeline: expired entries are dropped,
// the request is added, and the resulting cardinality is the window count.
// Increment-and-check is one round trip, so concurrent requests from the
// same client cannot race past the limit.
func (c *Client) Consume(ctx context.Context, key string, limit int, window time.Duration) (*ConsumeResult, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	// Member must be unique per request or concurrent ZADDs collapse into
	// one entry and undercount the window.
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(atomic.AddUint64(&c.seq, 1), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.Expire(ctx, key, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to consume rate limit: %w", err)
	}

	count := int(countCmd.Val())

	reset := now.Add(window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		reset = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	return &ConsumeResult{
		Allowed: count <= limit,
		Count:   count,
		Reset:   reset,
	}, nil
}

// Publish sends a message on a pub/sub channel, marshaling non-string
// payloads as JSON. Used by the telemetry sink.
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	var data []byte
	var err error

	switch v := message.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
	}

	return c.rdb.Publish(ctx, channel, data).Err()
}

// Subscribe opens a pub/sub subscription on the given channels.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channels...)
}
