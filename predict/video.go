package predict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/f1vision/penaltyvision/processor"
	"github.com/f1vision/penaltyvision/render"
)

// VideoResult summarizes a video prediction
type VideoResult struct {
	Frames     int
	Detections int
	Saved      string
}

// Video predicts on every frame of a video file, printing the detection
// count per frame and saving the annotated video to
// <save dir>/video_inference
func (p *Predictor) Video(ctx context.Context, source string) (res VideoResult, err error) {

	src, err := processor.OpenVideoSource(source)

	if err != nil {
		return VideoResult{}, err
	}

	defer func() {
		err = multierr.Append(err, src.Close())
	}()

	outDir := filepath.Join(p.cfg.SaveDir, videoDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return VideoResult{}, fmt.Errorf("error creating output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	props := src.Properties()

	fps := props.FPS

	if fps <= 0 {
		fps = processor.DefaultWriterFPS
	}

	sink, err := processor.NewVideoSink(filepath.Join(outDir, stem+".mp4"), fps,
		props.Width, props.Height)

	if err != nil {
		return VideoResult{}, err
	}

	defer func() {
		err = multierr.Append(err, sink.Close())
	}()

	res, err = p.stream(ctx, src, sink, nil, true)
	res.Saved = sink.Path()

	return res, err
}

// Webcam shows live predictions from a camera until q is pressed or ctx is
// cancelled.  Nothing is saved.
func (p *Predictor) Webcam(ctx context.Context, device int) (err error) {

	src, err := processor.OpenWebcam(device)

	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, src.Close())
	}()

	win := processor.NewWindowDisplay(processor.WindowTitle)

	defer func() {
		err = multierr.Append(err, win.Close())
	}()

	_, err = p.stream(ctx, src, nil, win, false)

	return err
}

// stream runs detection over frames until the source ends, the display
// asks to quit or ctx is done
func (p *Predictor) stream(ctx context.Context, src processor.Source,
	sink processor.Sink, display processor.Display, verbose bool) (VideoResult, error) {

	engine := p.pool.Get()
	defer p.pool.Return(engine)

	det := processor.NewDetector(engine, p.decoder())
	defer det.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	res := VideoResult{}

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if !src.Read(&frame) {
			return res, nil
		}

		dets, err := det.Detect(frame)

		if err != nil {
			return res, fmt.Errorf("error detecting objects in frame %d: %w", res.Frames+1, err)
		}

		res.Frames++
		res.Detections += len(dets)

		if verbose {
			fmt.Fprintf(p.cfg.Out, "Frame: %d detections\n", len(dets))
		}

		render.DetectionBoxes(&frame, dets, p.labels, p.font, 2)

		if sink != nil {
			if err := sink.Write(frame); err != nil {
				return res, fmt.Errorf("error writing frame: %w", err)
			}
		}

		if display != nil && display.Show(frame) {
			return res, nil
		}
	}
}
