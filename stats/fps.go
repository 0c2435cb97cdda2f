package stats

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindowSize is the number of recent frames averaged for the displayed
// FPS value
const DefaultWindowSize = 30

// minElapsed is the smallest frame time used when deriving FPS so that a
// zero duration reading never produces an infinite value
const minElapsed = time.Microsecond

// FPSWindow is a fixed capacity queue of the most recent instantaneous FPS
// samples
type FPSWindow struct {
	// samples are stored oldest first
	samples []float64
	// size is the maximum number of samples retained
	size int
}

// NewFPSWindow returns a rolling FPS window retaining up to size samples.  A
// size less than one uses DefaultWindowSize.
func NewFPSWindow(size int) *FPSWindow {

	if size < 1 {
		size = DefaultWindowSize
	}

	return &FPSWindow{
		samples: make([]float64, 0, size),
		size:    size,
	}
}

// Add appends an FPS sample, evicting the oldest sample once the window is
// at capacity
func (w *FPSWindow) Add(fps float64) {

	if len(w.samples) >= w.size {
		// shift left over the oldest sample, reusing the backing array
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}

	w.samples = append(w.samples, fps)
}

// Observe converts the time taken to process a frame into an instantaneous
// FPS value, adds it to the window and returns it
func (w *FPSWindow) Observe(elapsed time.Duration) float64 {

	if elapsed < minElapsed {
		elapsed = minElapsed
	}

	fps := 1.0 / elapsed.Seconds()
	w.Add(fps)

	return fps
}

// Mean returns the arithmetic mean of the samples currently in the window, or
// zero if the window is empty
func (w *FPSWindow) Mean() float64 {

	if len(w.samples) == 0 {
		return 0
	}

	return stat.Mean(w.samples, nil)
}

// Len returns the number of samples in the window
func (w *FPSWindow) Len() int {
	return len(w.samples)
}

// Cap returns the maximum number of samples the window retains
func (w *FPSWindow) Cap() int {
	return w.size
}

// Samples returns a copy of the window contents, oldest first
func (w *FPSWindow) Samples() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	return out
}

// Reset empties the window
func (w *FPSWindow) Reset() {
	w.samples = w.samples[:0]
}
