package processor

import (
	"fmt"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/postprocess"
	"github.com/f1vision/penaltyvision/postprocess/result"
	"github.com/f1vision/penaltyvision/preprocess"
)

// Detector runs the full detection pipeline on a frame: letterbox resize to
// the model input, inference, then YOLOv8 decoding back to frame
// coordinates.  A Detector is not safe for concurrent use.
type Detector struct {
	engine  penaltyvision.Engine
	decoder *postprocess.YOLOv8
	// resizer is recreated whenever the frame size changes
	resizer *preprocess.Resizer
	resized gocv.Mat
}

// NewDetector returns a Detector using the given engine and decoder
func NewDetector(engine penaltyvision.Engine, decoder *postprocess.YOLOv8) *Detector {
	return &Detector{
		engine:  engine,
		decoder: decoder,
		resized: gocv.NewMat(),
	}
}

// Detect returns the objects found in the BGR frame
func (d *Detector) Detect(frame gocv.Mat) ([]result.DetectResult, error) {

	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	attr := d.engine.InputAttrs()

	if d.resizer == nil || !d.resizer.Matches(frame.Cols(), frame.Rows()) {
		if d.resizer != nil {
			d.resizer.Close()
		}

		d.resizer = preprocess.NewResizer(frame.Cols(), frame.Rows(),
			attr.Width, attr.Height)
	}

	d.resizer.LetterBoxResize(frame, &d.resized, preprocess.PadColor)

	outputs, err := d.engine.Inference(d.resized)

	if err != nil {
		return nil, fmt.Errorf("error running inference: %w", err)
	}

	res, err := d.decoder.DetectObjects(outputs, d.resizer.Letterbox())

	if err != nil {
		return nil, fmt.Errorf("error decoding outputs: %w", err)
	}

	return res.GetDetectResults(), nil
}

// Close frees the resize buffers, the engine is left for the caller to close
func (d *Detector) Close() error {

	err := d.resized.Close()

	if d.resizer != nil {
		err = multierr.Append(err, d.resizer.Close())
	}

	return err
}
