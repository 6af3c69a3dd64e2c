package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const latestTTL = 24 * time.Hour

// redisClient is the subset of *redis.Client the sink uses
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisSink publishes each record on a pub/sub channel and keeps the latest
// one under "<channel>:latest"
type RedisSink struct {
	client  redisClient
	channel string
}

// NewRedisSink connects to addr and verifies the connection
func NewRedisSink(ctx context.Context, addr, channel string) (*RedisSink, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return newRedisSink(client, channel), nil
}

func newRedisSink(client redisClient, channel string) *RedisSink {
	if channel == "" {
		channel = "univ2-mev:results"
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Publish(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", s.channel, err)
	}
	if err := s.client.Set(ctx, s.channel+":latest", payload, latestTTL).Err(); err != nil {
		return fmt.Errorf("redis: set latest: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
