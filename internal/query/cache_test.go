package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaches_ResultRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewCaches()
	require.NoError(t, err)

	_, ok := c.getResult("hello", 5)
	assert.False(t, ok)

	resp := Response{Results: []string{"one"}, Metrics: Metrics{ResultsCount: 1}}
	c.putResult("hello", 5, resp)

	got, ok := c.getResult("hello", 5)
	require.True(t, ok)
	assert.Equal(t, resp, got)

	_, ok = c.getResult("hello", 6)
	assert.False(t, ok, "different k is a different cache key")
}

func TestCaches_EmbeddingRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewCaches()
	require.NoError(t, err)

	_, ok := c.getEmbedding("hello")
	assert.False(t, ok)

	c.putEmbedding("hello", []float32{1, 2, 3})

	got, ok := c.getEmbedding("hello")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)
}

func TestCanonicalize_LowersAndTrims(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello world", Canonicalize("  Hello World  "))
}

func TestCaches_NilCachesAreSafe(t *testing.T) {
	t.Parallel()

	var c *Caches
	_, ok := c.getResult("x", 1)
	assert.False(t, ok)
	c.putResult("x", 1, Response{})

	_, ok = c.getEmbedding("x")
	assert.False(t, ok)
	c.putEmbedding("x", []float32{1})
}
