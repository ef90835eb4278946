package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := &Config{
		Address:  mr.Addr(),
		Password: "",
		DB:       0,
		PoolSize: 10,
	}

	client, err := NewClient(config)
	require.NoError(t, err)

	return client, mr
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Run("successful connection", func(t *testing.T) {
		config := &Config{
			Address:  mr.Addr(),
			PoolSize: 5,
		}

		client, err := NewClient(config)
		assert.NoError(t, err)
		assert.NotNil(t, client)

		err = client.Close()
		assert.NoError(t, err)
	})

	t.Run("nil config", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "redis config is required")
	})

	t.Run("sets default pool size", func(t *testing.T) {
		config := &Config{
			Address:  mr.Addr(),
			PoolSize: 0,
		}

		client, err := NewClient(config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 10, config.PoolSize)
	})

	t.Run("connection failure", func(t *testing.T) {
		config := &Config{
			Address: "invalid:99999",
		}

		client, err := NewClient(config)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestClient_Health(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	t.Run("healthy connection", func(t *testing.T) {
		assert.NoError(t, client.Health())
	})

	t.Run("unhealthy connection", func(t *testing.T) {
		mr.Close()
		assert.Error(t, client.Health())
	})
}

func TestClient_Consume(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	key := "ratelimit:1.2.3.4:api"
	limit := 5
	window := 10 * time.Second

	t.Run("first request allowed", func(t *testing.T) {
		res, err := client.Consume(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Count)
	})

	t.Run("subsequent requests within limit", func(t *testing.T) {
		for i := 2; i <= limit; i++ {
			res, err := client.Consume(ctx, key, limit, window)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, i, res.Count)
		}
	})

	t.Run("request exceeds limit", func(t *testing.T) {
		res, err := client.Consume(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, limit+1, res.Count)
	})

	t.Run("reset tracks the oldest entry", func(t *testing.T) {
		res, err := client.Consume(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		// The oldest entry is at most `window` old, so reset is in the
		// future but no further out than one full window.
		assert.True(t, res.Reset.After(time.Now().Add(-time.Second)))
		assert.True(t, res.Reset.Before(time.Now().Add(window+time.Second)))
	})

	t.Run("window slides after expiry", func(t *testing.T) {
		mr.FastForward(window + time.Second)

		res, err := client.Consume(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Count)
	})
}

func TestClient_Consume_IndependentKeys(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	window := time.Minute

	// Exhaust the api-scoped key.
	for i := 0; i < 3; i++ {
		_, err := client.Consume(ctx, "ratelimit:1.2.3.4:api", 2, window)
		require.NoError(t, err)
	}

	// The global-scoped key for the same address is untouched.
	res, err := client.Consume(ctx, "ratelimit:1.2.3.4:global", 2, window)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Count)
}

func TestClient_Consume_Concurrent(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	key := "ratelimit:concurrent"
	limit := 10

	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		go func() {
			res, err := client.Consume(ctx, key, limit, time.Minute)
			assert.NoError(t, err)
			results <- res.Allowed
		}()
	}

	allowedCount := 0
	for i := 0; i < 20; i++ {
		if <-results {
			allowedCount++
		}
	}

	assert.Equal(t, limit, allowedCount)
}

func TestClient_Consume_StoreDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	mr.Close()

	_, err := client.Consume(context.Background(), "ratelimit:down", 10, time.Minute)
	assert.Error(t, err)
}

func TestClient_Publish(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	channel := "gatekeeper:events"

	t.Run("publish string message", func(t *testing.T) {
		assert.NoError(t, client.Publish(ctx, channel, "hello"))
	})

	t.Run("publish JSON message", func(t *testing.T) {
		msg := map[string]interface{}{"type": "rate_limited", "client": "1.2.3.4"}
		assert.NoError(t, client.Publish(ctx, channel, msg))
	})

	t.Run("unmarshalable message", func(t *testing.T) {
		err := client.Publish(ctx, channel, make(chan int))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal message")
	})

	t.Run("publish and receive", func(t *testing.T) {
		pubsub := client.Subscribe(ctx, channel)
		defer pubsub.Close()

		_, err := pubsub.Receive(ctx)
		require.NoError(t, err)

		require.NoError(t, client.Publish(ctx, channel, "ping"))

		msg, err := pubsub.ReceiveMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, channel, msg.Channel)
		assert.Equal(t, "ping", msg.Payload)
	})
}

func TestClient_Consume_ManyClients(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	// Budgets are partitioned by client address; filling one address's
	// budget leaves every other address untouched.
	for i := 0; i < 5; i++ {
		res, err := client.Consume(ctx, "ratelimit:10.0.0.1:global", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	for i := 2; i <= 4; i++ {
		res, err := client.Consume(ctx, fmt.Sprintf("ratelimit:10.0.0.%d:global", i), 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Count)
	}
}
