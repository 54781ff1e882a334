package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/quill/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces cached results.
const DefaultPrefix = "quill:result:"

var _ ports.ResultCache = (*Cache)(nil)

// Cache implements ports.ResultCache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached results. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    24 * time.Hour,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get returns the cached result or ports.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, backend.Nil) {
		return "", ports.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores result with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, result string) error {
	if err := c.client.Set(ctx, c.key(key), result, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
