package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultCacheContract runs a suite of tests to verify that a ResultCache
// implementation adheres to the defined interface contract.
func RunResultCacheContract(t *testing.T, cache ResultCache) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405.000000000")

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, "The cat sat."))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "The cat sat.", got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, "first"))
		require.NoError(t, cache.Set(ctx, key, "second"))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("Unicode", func(t *testing.T) {
		k := key + "-unicode"
		require.NoError(t, cache.Set(ctx, k, "• résumé\n• naïve"))

		got, err := cache.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, "• résumé\n• naïve", got)
	})
}
