// Package kvredis stores key-value rows, such as the recommendation cache
// slot, in Redis.
package kvredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of *redis.Client the KV uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Options configures a Redis-backed KV.
type Options struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key, e.g. "unisupport:".
	Prefix string

	// TTL expires keys after each write. Zero keeps them forever.
	TTL time.Duration
}

// KV implements the history cache's key-value interface over Redis.
type KV struct {
	client Client
	prefix string
	ttl    time.Duration
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (*KV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return New(client, opts), nil
}

// New wraps an existing client.
func New(client Client, opts Options) *KV {
	return &KV{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// Get returns the value under key. A missing key is not an error.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, k.prefix+key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (k *KV) Set(ctx context.Context, key, value string) error {
	if err := k.client.Set(ctx, k.prefix+key, value, k.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (k *KV) Close() error {
	return k.client.Close()
}
