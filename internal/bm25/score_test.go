package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_ZeroTermFrequencyIsZero(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, Score(0, 100, 50, 2.0))
}

func TestScore_HigherTermFrequencyScoresHigher(t *testing.T) {
	t.Parallel()
	low := Score(1, 100, 100, 1.5)
	high := Score(5, 100, 100, 1.5)
	assert.Greater(t, high, low)
}

func TestScore_LongerDocumentScoresLowerForSameFrequency(t *testing.T) {
	t.Parallel()
	short := Score(2, 50, 100, 1.5)
	long := Score(2, 400, 100, 1.5)
	assert.Greater(t, short, long)
}

func TestIDF_MonotonicallyDecreasesWithDocFrequency(t *testing.T) {
	t.Parallel()
	rare := IDF(100, 1)
	common := IDF(100, 50)
	assert.Greater(t, rare, common)
}

func TestIDF_NeverNegative(t *testing.T) {
	t.Parallel()
	assert.GreaterOrEqual(t, IDF(10, 9), 0.0)
	assert.GreaterOrEqual(t, IDF(10, 10), 0.0)
}

func TestBlend_WeightsBM25AtPointThree(t *testing.T) {
	t.Parallel()
	got := Blend(10, 0)
	assert.InDelta(t, 7.0, got, 0.0001)
}
