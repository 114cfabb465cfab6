package redis

import (
	"call-server/internal/config"
	"call-server/internal/observability"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client with observability. A nil *Client is a valid
// disabled client: every method degrades gracefully.
type Client struct {
	client *redis.Client
	logger *observability.Logger
}

// NewClient creates a new Redis client. Returns (nil, nil) when Redis is
// disabled in configuration.
func NewClient(cfg config.RedisConfig, logger *observability.Logger) (*Client, error) {
	if !cfg.Enabled {
		logger.Info(context.Background(), "Redis is disabled, skipping client initialization")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info(observability.WithFields(ctx,
		observability.Field{Key: "host", Value: cfg.Host},
		observability.Field{Key: "port", Value: cfg.Port},
		observability.Field{Key: "db", Value: cfg.DB},
	), "successfully connected to Redis")

	return &Client{
		client: client,
		logger: logger,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ZAdd adds a member with score to a sorted set
func (c *Client) ZAdd(ctx context.Context, key string, members ...redis.Z) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.ZAdd(ctx, key, members...).Err()
}

// ZRemRangeByScore removes members with scores within the given range
func (c *Client) ZRemRangeByScore(ctx context.Context, key, min, max string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.ZRemRangeByScore(ctx, key, min, max).Err()
}

// ZCard returns the number of members in a sorted set
func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}
	return c.client.ZCard(ctx, key).Result()
}

// ZRange returns members in a sorted set by index range (ascending)
func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	return c.client.ZRange(ctx, key, start, stop).Result()
}

// Expire sets an expiration on a key
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.Expire(ctx, key, expiration).Err()
}

// IsEnabled returns whether Redis is enabled
func (c *Client) IsEnabled() bool {
	return c != nil && c.client != nil
}
