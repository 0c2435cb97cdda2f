package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickSortIndiceInverse(t *testing.T) {
	probs := []float32{0.3, 0.9, 0.1, 0.5}
	idx := []int{0, 1, 2, 3}

	quickSortIndiceInverse(probs, 0, len(probs)-1, idx)

	assert.Equal(t, []float32{0.9, 0.5, 0.3, 0.1}, probs)
	assert.Equal(t, []int{1, 3, 0, 2}, idx)
}

func TestCalculateOverlap(t *testing.T) {
	// identical boxes
	assert.InDelta(t, 1.0, calculateOverlap(0, 0, 9, 9, 0, 0, 9, 9), 1e-6)
	// disjoint boxes
	assert.Equal(t, float32(0), calculateOverlap(0, 0, 9, 9, 20, 20, 29, 29))
	// half overlap, 50 of 150 inclusive pixels
	assert.InDelta(t, 50.0/150.0, calculateOverlap(0, 0, 9, 9, 5, 0, 14, 9), 1e-6)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(0), clamp(-5, 0, 100))
	assert.Equal(t, float32(100), clamp(150, 0, 100))
	assert.Equal(t, float32(42.5), clamp(42.5, 0, 100))
}
