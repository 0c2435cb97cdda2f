package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPSWindowMeanEmpty(t *testing.T) {
	w := NewFPSWindow(DefaultWindowSize)

	assert.Equal(t, 0.0, w.Mean())
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 30, w.Cap())
}

func TestFPSWindowDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewFPSWindow(0).Cap())
	assert.Equal(t, DefaultWindowSize, NewFPSWindow(-4).Cap())
}

func TestFPSWindowEviction(t *testing.T) {

	tests := []struct {
		name    string
		size    int
		add     []float64
		want    []float64
		wantAvg float64
	}{
		{"under capacity", 3, []float64{10, 20}, []float64{10, 20}, 15},
		{"at capacity", 3, []float64{10, 20, 30}, []float64{10, 20, 30}, 20},
		{"evicts oldest", 3, []float64{10, 20, 30, 40}, []float64{20, 30, 40}, 30},
		{"evicts repeatedly", 2, []float64{1, 2, 3, 4, 5}, []float64{4, 5}, 4.5},
		{"single slot", 1, []float64{7, 9}, []float64{9}, 9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewFPSWindow(tc.size)

			for _, v := range tc.add {
				w.Add(v)
			}

			assert.Equal(t, tc.want, w.Samples())
			assert.InDelta(t, tc.wantAvg, w.Mean(), 1e-9)
			assert.LessOrEqual(t, w.Len(), w.Cap())
		})
	}
}

func TestFPSWindowThirtyFrames(t *testing.T) {
	w := NewFPSWindow(DefaultWindowSize)

	// 1..40, only 11..40 remain
	for i := 1; i <= 40; i++ {
		w.Add(float64(i))
	}

	require.Equal(t, 30, w.Len())
	assert.Equal(t, 11.0, w.Samples()[0])
	assert.InDelta(t, 25.5, w.Mean(), 1e-9)
}

func TestFPSWindowObserve(t *testing.T) {
	w := NewFPSWindow(DefaultWindowSize)

	fps := w.Observe(40 * time.Millisecond)
	assert.InDelta(t, 25.0, fps, 1e-9)

	fps = w.Observe(10 * time.Millisecond)
	assert.InDelta(t, 100.0, fps, 1e-9)

	assert.InDelta(t, 62.5, w.Mean(), 1e-9)
}

func TestFPSWindowObserveZeroElapsed(t *testing.T) {
	w := NewFPSWindow(DefaultWindowSize)

	fps := w.Observe(0)

	assert.False(t, math.IsInf(fps, 0))
	assert.InDelta(t, 1e6, fps, 1e-3)
}

func TestFPSWindowReset(t *testing.T) {
	w := NewFPSWindow(5)
	w.Add(12)
	w.Add(14)

	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0.0, w.Mean())

	w.Add(3)
	assert.Equal(t, []float64{3}, w.Samples())
}
