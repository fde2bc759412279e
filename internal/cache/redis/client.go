package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

// Client caches generated question payloads keyed by generation-spec hash.
// It satisfies the LLM gateway's PayloadCache interface.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}

	logger.Info("Redis client initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, questionKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached payload: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached payload: %w", err)
	}

	logger.Debug("Question cache hit", zap.String("key", key))
	return true, nil
}

func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := c.client.Set(ctx, questionKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set payload cache: %w", err)
	}

	logger.Debug("Question payload cached", zap.String("key", key))
	return nil
}

func questionKey(key string) string {
	return fmt.Sprintf("questions:%s", key)
}
