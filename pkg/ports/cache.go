package ports

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by ResultCache.Get when no entry exists.
var ErrCacheMiss = errors.New("cache miss")

// ResultCache memoizes generated results inside the transformation service.
type ResultCache interface {
	// Get returns the cached result or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a result under key.
	Set(ctx context.Context, key, result string) error
}
