package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_LowercasesAndSplitsOnNonWordRunes(t *testing.T) {
	t.Parallel()

	tokens := Split("parseUserInput(foo_bar, 42)")
	assert.True(t, tokens.Has("parseuserinput"))
	assert.True(t, tokens.Has("foo_bar"))
	assert.True(t, tokens.Has("42"))
	assert.False(t, tokens.Has(""))
}

func TestSplit_EmptyString(t *testing.T) {
	t.Parallel()

	tokens := Split("")
	assert.Empty(t, tokens)
}

func TestSplit_OnlyPunctuation(t *testing.T) {
	t.Parallel()

	tokens := Split("!!! ... ???")
	assert.Empty(t, tokens)
}

func TestUnion(t *testing.T) {
	t.Parallel()

	a := NewSet([]string{"foo", "bar"})
	b := NewSet([]string{"bar", "baz"})
	u := Union(a, b)

	assert.True(t, u.Has("foo"))
	assert.True(t, u.Has("bar"))
	assert.True(t, u.Has("baz"))
	assert.Len(t, u, 3)
}

func TestTokenizer_CachesByExactInput(t *testing.T) {
	t.Parallel()

	tok, err := New(100)
	require.NoError(t, err)

	first := tok.Tokenize("Hello World")
	second := tok.Tokenize("Hello World")
	assert.Equal(t, first, second)
}

func TestTokenizer_ZeroCapacityDisablesCaching(t *testing.T) {
	t.Parallel()

	tok, err := New(0)
	require.NoError(t, err)

	tokens := tok.Tokenize("still works")
	assert.True(t, tokens.Has("still"))
	assert.True(t, tokens.Has("works"))
}
