package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// WindowTitle is the title of the live display window
const WindowTitle = "F1 Penalty Detection"

// Options for a processing run
type Options struct {
	// Sinks receive every annotated frame
	Sinks []Sink
	// Display shows frames live when set
	Display Display
	// TotalFrames is used for progress percentages, zero when unknown
	TotalFrames int
}

// Summary of a processing run
type Summary struct {
	Frames       int
	Penalties    int
	NonPenalties int
	// AverageFPS is the rolling window mean at the end of the run
	AverageFPS float64
	// MinFPS and MaxFPS are taken over the samples left in the window
	MinFPS float64
	MaxFPS float64
	// Elapsed is the wall clock time of the run
	Elapsed time.Duration
	// Interrupted is set when the user quit from the display
	Interrupted bool
}

// Run processes frames from src until it is exhausted, the user quits from
// the display, or ctx is cancelled.  Sinks and display are not closed.
func (p *Processor) Run(ctx context.Context, src Source, opts Options) (Summary, error) {

	start := p.now()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return p.summary(p.now().Sub(start), true), ctx.Err()
		default:
		}

		if !src.Read(&frame) {
			// end of video
			break
		}

		annotated, dets, _, err := p.ProcessFrame(frame)

		if err != nil {
			annotated.Close()
			return p.summary(p.now().Sub(start), false),
				fmt.Errorf("error processing frame %d: %w", p.Stats().Frames+1, err)
		}

		p.Overlay(&annotated, len(dets))

		for _, sink := range opts.Sinks {
			if err := sink.Write(annotated); err != nil {
				annotated.Close()
				return p.summary(p.now().Sub(start), false),
					fmt.Errorf("error writing frame: %w", err)
			}
		}

		quit := opts.Display != nil && opts.Display.Show(annotated)
		annotated.Close()

		if quit {
			fmt.Fprintf(p.cfg.Out, "\nProcessing interrupted by user\n")
			return p.summary(p.now().Sub(start), true), nil
		}

		p.progress(opts.TotalFrames)
	}

	return p.summary(p.now().Sub(start), false), nil
}

// progress prints a status line every ProgressEvery frames
func (p *Processor) progress(total int) {

	if p.cfg.ProgressEvery <= 0 {
		return
	}

	s := p.Stats()

	if s.Frames%p.cfg.ProgressEvery != 0 {
		return
	}

	if total > 0 {
		fmt.Fprintf(p.cfg.Out, "Progress: %.1f%% | Frame: %d/%d | FPS: %.1f\r",
			float64(s.Frames)/float64(total)*100, s.Frames, total, s.FPS)
		return
	}

	fmt.Fprintf(p.cfg.Out, "Frame: %d | FPS: %.1f\r", s.Frames, s.FPS)
}

// ProcessVideo runs the processor over a video file.  When output is set the
// annotated video is written there at the input frame rate, and display
// shows the frames live.  Any extra sinks also receive each frame.
func (p *Processor) ProcessVideo(ctx context.Context, path, output string, display bool,
	sinks ...Sink) (summary Summary, err error) {

	rule := strings.Repeat("=", 70)
	fmt.Fprintf(p.cfg.Out, "\n%s\nPROCESSING VIDEO: %s\n%s\n\n", rule, path, rule)

	src, err := OpenVideoSource(path)

	if err != nil {
		return Summary{}, err
	}

	defer func() {
		err = multierr.Append(err, src.Close())
	}()

	props := src.Properties()
	printProperties(p.cfg.Out, props)

	opts := Options{
		TotalFrames: props.FrameCount,
		Sinks:       sinks,
	}

	if output != "" {
		fps := props.FPS

		if fps <= 0 {
			fps = DefaultWriterFPS
		}

		sink, sinkErr := NewVideoSink(output, fps, props.Width, props.Height)

		if sinkErr != nil {
			return Summary{}, sinkErr
		}

		defer func() {
			err = multierr.Append(err, sink.Close())
		}()

		opts.Sinks = append([]Sink{sink}, opts.Sinks...)
		fmt.Fprintf(p.cfg.Out, "Output will be saved to: %s\n\n", output)
	}

	if display {
		win := NewWindowDisplay(WindowTitle)

		defer func() {
			err = multierr.Append(err, win.Close())
		}()

		opts.Display = win
	}

	fmt.Fprintf(p.cfg.Out, "Processing started... Press 'q' to quit\n\n")
	p.log.Debugw("processing video", "path", path, "output", output, "display", display)

	summary, err = p.Run(ctx, src, opts)

	if err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}

	printSummary(p.cfg.Out, summary, output)

	return summary, err
}
