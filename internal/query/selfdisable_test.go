package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelfDisableBreaker_TripsAfterSlowAverage(t *testing.T) {
	t.Parallel()

	b := newSelfDisableBreaker()
	for i := 0; i < selfDisableMinSamples; i++ {
		b.record(300 * time.Millisecond)
	}
	assert.True(t, b.disabled())
}

func TestSelfDisableBreaker_StaysUnderThreshold(t *testing.T) {
	t.Parallel()

	b := newSelfDisableBreaker()
	for i := 0; i < selfDisableMinSamples; i++ {
		b.record(10 * time.Millisecond)
	}
	assert.False(t, b.disabled())
}

func TestSelfDisableBreaker_RequiresMinimumSamples(t *testing.T) {
	t.Parallel()

	b := newSelfDisableBreaker()
	b.record(500 * time.Millisecond)
	b.record(500 * time.Millisecond)
	assert.False(t, b.disabled(), "fewer than the minimum sample count must not trip the breaker")
}

func TestSelfDisableBreaker_StaysTrippedUntilReset(t *testing.T) {
	t.Parallel()

	b := newSelfDisableBreaker()
	for i := 0; i < selfDisableMinSamples; i++ {
		b.record(300 * time.Millisecond)
	}
	require := assert.New(t)
	require.True(b.disabled())

	b.record(time.Microsecond)
	require.True(b.disabled(), "sticky until explicit reset")

	b.reset()
	require.False(b.disabled())
}
