// Package predict runs a trained penalty model over images, video files or
// a webcam, printing each detection and saving annotated copies.
package predict

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/postprocess"
	"github.com/f1vision/penaltyvision/render"
)

// Mode of prediction
type Mode string

const (
	ModeImage  Mode = "image"
	ModeVideo  Mode = "video"
	ModeWebcam Mode = "webcam"
)

const (
	// DefaultConfidence is the minimum score of a detection
	DefaultConfidence = 0.25
	// DefaultSaveDir is where annotated results are written
	DefaultSaveDir = "runs/predict"

	imageDir = "image_inference"
	videoDir = "video_inference"
)

// ParseMode converts a mode name given on the command line to a Mode
func ParseMode(name string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(name))); m {
	case ModeImage, ModeVideo, ModeWebcam:
		return m, nil
	case "":
		return ModeImage, nil
	default:
		return "", fmt.Errorf("unknown prediction type %q, use one of image, video, webcam", name)
	}
}

// ParseSource reports whether source names a camera device index, such as
// "0" for the default webcam
func ParseSource(source string) (int, bool) {

	device, err := strconv.Atoi(strings.TrimSpace(source))

	if err != nil || device < 0 {
		return 0, false
	}

	return device, true
}

// Config of the predictor
type Config struct {
	// Confidence is the minimum score of a detection
	Confidence float32
	// SaveDir is the parent directory of the image_inference and
	// video_inference result directories
	SaveDir string
	// Out receives the detection printout
	Out io.Writer
}

// DefaultConfig returns the settings used by the f1-predict command
func DefaultConfig() Config {
	return Config{
		Confidence: DefaultConfidence,
		SaveDir:    DefaultSaveDir,
		Out:        os.Stdout,
	}
}

// Predictor runs detection with engines drawn from a pool
type Predictor struct {
	pool   *penaltyvision.Pool
	labels []string
	cfg    Config
	font   render.Font
	log    *zap.SugaredLogger
}

// New returns a Predictor.  The pool is owned by the caller.
func New(pool *penaltyvision.Pool, labels []string, cfg Config,
	log *zap.SugaredLogger) *Predictor {

	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultConfidence
	}

	if cfg.SaveDir == "" {
		cfg.SaveDir = DefaultSaveDir
	}

	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	return &Predictor{
		pool:   pool,
		labels: labels,
		cfg:    cfg,
		font:   render.DefaultFont(),
		log:    log,
	}
}

// decoder returns a new post processor using the predictor's confidence
func (p *Predictor) decoder() *postprocess.YOLOv8 {

	params := postprocess.YOLOv8PenaltyParams()
	params.BoxThreshold = p.cfg.Confidence

	if len(p.labels) > 0 {
		params.ObjectClassNum = len(p.labels)
	}

	return postprocess.NewYOLOv8(params)
}

// Run dispatches to the prediction mode, printing where results were saved
func (p *Predictor) Run(ctx context.Context, mode Mode, source string) error {

	switch mode {
	case ModeImage:
		if _, err := p.Image(ctx, source); err != nil {
			return err
		}

		fmt.Fprintf(p.cfg.Out, "\nResults saved to: %s/\n",
			filepath.Join(p.cfg.SaveDir, imageDir))

	case ModeVideo:
		if _, err := p.Video(ctx, source); err != nil {
			return err
		}

		fmt.Fprintf(p.cfg.Out, "\nResults saved to: %s/\n",
			filepath.Join(p.cfg.SaveDir, videoDir))

	case ModeWebcam:
		device, ok := ParseSource(source)

		if !ok {
			device = 0
		}

		if err := p.Webcam(ctx, device); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown prediction type %q", mode)
	}

	fmt.Fprintf(p.cfg.Out, "\nInference complete!\n")

	return nil
}
