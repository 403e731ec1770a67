package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine_IdenticalVectorsIsOne(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 0.0001)
}

func TestCosine_OrthogonalVectorsIsZero(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 0.0001)
}

func TestCosine_MissingVectorIsZero(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, Cosine(nil, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
}
