// Package redis wraps the go-redis client with the small byte-oriented
// surface the audio cache needs.
package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps a redis connection.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a ping.
func NewClient(addr string, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	client := &Client{rdb: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetBytes stores a value with no expiry.
func (c *Client) SetBytes(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// GetBytes returns the value for a key, or nil when the key is absent.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	result := c.rdb.Get(ctx, key)
	if result.Err() == redis.Nil {
		return nil, nil
	}
	return result.Bytes()
}

// Exists reports how many of the given keys are present.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Exists(ctx, keys...).Result()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Del(ctx, keys...).Result()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
