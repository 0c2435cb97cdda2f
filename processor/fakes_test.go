package processor

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/f1vision/penaltyvision"
)

// fakeEngine returns the same outputs for every frame
type fakeEngine struct {
	outputs *penaltyvision.Outputs
	calls   int
	err     error
}

func (f *fakeEngine) Inference(img gocv.Mat) (*penaltyvision.Outputs, error) {
	f.calls++

	if img.Cols() != 640 || img.Rows() != 640 {
		return nil, fmt.Errorf("%w: %dx%d", penaltyvision.ErrInputSize, img.Cols(), img.Rows())
	}

	if f.err != nil {
		return nil, f.err
	}

	return f.outputs, nil
}

func (f *fakeEngine) InputAttrs() penaltyvision.InputAttribute {
	return penaltyvision.InputAttribute{Width: 640, Height: 640, Channel: 3}
}

func (f *fakeEngine) Close() error {
	return nil
}

// twoBoxOutputs has one Penalty box centred in the model input and one
// Non-Penalty box in the top left corner
func twoBoxOutputs() *penaltyvision.Outputs {

	const anchors = 3

	// channel major: cx, cy, w, h, score class 0, score class 1
	data := []float32{
		320, 60, 500, // cx
		320, 180, 500, // cy
		100, 40, 10, // w
		100, 40, 10, // h
		0.1, 0.8, 0.1, // Non-Penalty
		0.9, 0.1, 0.2, // Penalty
	}

	return &penaltyvision.Outputs{
		Shape: []int{1, 6, anchors},
		Data:  data,
	}
}

// fakeSource hands out a fixed number of gray frames
type fakeSource struct {
	frames int
	read   int
	closed bool
}

func (s *fakeSource) Read(img *gocv.Mat) bool {
	if s.read >= s.frames {
		return false
	}

	s.read++

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), 360, 640,
		gocv.MatTypeCV8UC3)
	frame.CopyTo(img)
	frame.Close()

	return true
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeSink records the size of every frame written
type fakeSink struct {
	sizes [][2]int
	err   error
}

func (s *fakeSink) Write(img gocv.Mat) error {
	if s.err != nil {
		return s.err
	}

	s.sizes = append(s.sizes, [2]int{img.Cols(), img.Rows()})
	return nil
}

func (s *fakeSink) Close() error {
	return nil
}

// fakeDisplay quits after quitAfter frames, never when zero
type fakeDisplay struct {
	shown     int
	quitAfter int
}

func (d *fakeDisplay) Show(img gocv.Mat) bool {
	d.shown++
	return d.quitAfter > 0 && d.shown >= d.quitAfter
}

func (d *fakeDisplay) Close() error {
	return nil
}

// stepClock advances by step each time it is read
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}
