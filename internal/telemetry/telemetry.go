// Package telemetry publishes gatekeeper decision events so that
// downstream consumers can watch deny and redirect activity in real
// time.
package telemetry

import (
	"context"
	"time"

	"edge-gatekeeper/internal/redis"
)

// Event describes a single gatekeeper decision worth broadcasting.
type Event struct {
	Type       string    `json:"type"`
	Path       string    `json:"path"`
	ClientAddr string    `json:"client_addr"`
	Scope      string    `json:"scope,omitempty"`
	At         time.Time `json:"at"`
}

// Event types.
const (
	EventRateLimited  = "rate_limited"
	EventGateRedirect = "gate_redirect"
	EventStoreFailure = "store_failure"
)

// Sink receives gatekeeper events. Implementations must not block the
// request path for long; emit failures are reported, not fatal.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// RedisSink publishes events as JSON on a pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = "gatekeeper:events"
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Emit(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	return s.client.Publish(ctx, s.channel, event)
}

// NopSink discards all events. Used when no counter store is
// configured.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) error { return nil }
