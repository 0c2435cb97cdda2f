// Package cmdutil holds the flags and setup shared by the inference
// commands.
package cmdutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/f1vision/penaltyvision"
)

const (
	FlagModel   = "model"
	FlagBackend = "backend"
	FlagDevice  = "device"
	FlagOrtLib  = "ort-lib"
	FlagLabels  = "labels"
	FlagDebug   = "debug"
)

// DefaultModel is where training exports the best weights to ONNX
const DefaultModel = "runs/f1_penalty/yolov8n_baseline/weights/best.onnx"

// EngineFlags are the flags selecting and configuring the inference engine
func EngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagModel,
			Aliases: []string{"m"},
			Value:   DefaultModel,
			EnvVars: []string{"F1_MODEL"},
			Usage:   "trained ONNX model `FILE`",
		},
		&cli.StringFlag{
			Name:  FlagBackend,
			Value: string(penaltyvision.BackendORT),
			Usage: "inference backend, ort or opencv",
		},
		&cli.StringFlag{
			Name:    FlagDevice,
			Aliases: []string{"d"},
			Value:   string(penaltyvision.DeviceAuto),
			Usage:   "device to run inference on, auto, cuda, cpu or mps",
		},
		&cli.StringFlag{
			Name:    FlagOrtLib,
			EnvVars: []string{"ONNXRUNTIME_LIB"},
			Usage:   "path to the onnxruntime shared `LIBRARY`",
		},
		&cli.StringFlag{
			Name:  FlagLabels,
			Usage: "class names `FILE`, data.yaml or one label per line, defaults to the model metadata",
		},
		&cli.BoolFlag{
			Name:  FlagDebug,
			Usage: "enable debug logging",
		},
	}
}

// Setup is the engine configuration read from the command line
type Setup struct {
	Options penaltyvision.EngineOptions
	// Labels are the class names of the model
	Labels  []string
	ortLib  string
	usesORT bool
}

// NewSetup parses the engine flags, initializing ONNX Runtime when it is the
// selected backend.  Close must be called when done.
func NewSetup(c *cli.Context, log *zap.SugaredLogger) (*Setup, error) {

	backend, err := penaltyvision.ParseBackend(c.String(FlagBackend))

	if err != nil {
		return nil, err
	}

	device, err := penaltyvision.ParseDevice(c.String(FlagDevice))

	if err != nil {
		return nil, err
	}

	s := &Setup{
		Options: penaltyvision.EngineOptions{
			Backend:   backend,
			ModelFile: c.String(FlagModel),
			Device:    device.Resolve(),
			InputSize: penaltyvision.DefaultInputSize,
		},
		ortLib:  c.String(FlagOrtLib),
		usesORT: backend == penaltyvision.BackendORT,
	}

	if s.usesORT {
		if err := penaltyvision.Init(s.ortLib); err != nil {
			return nil, err
		}
	}

	s.Labels, err = penaltyvision.ResolveLabels(c.String(FlagLabels), s.Options.ModelFile)

	if err != nil {
		s.Close()
		return nil, err
	}

	log.Infow("engine configured", "model", s.Options.ModelFile, "backend", backend,
		"device", s.Options.Device, "classes", s.Labels)

	return s, nil
}

// Open returns a single engine
func (s *Setup) Open() (penaltyvision.Engine, error) {

	engine, err := penaltyvision.Open(s.Options)

	if err != nil {
		return nil, fmt.Errorf("error loading model %s: %w", s.Options.ModelFile, err)
	}

	return engine, nil
}

// Pool returns size engines in a pool
func (s *Setup) Pool(size int) (*penaltyvision.Pool, error) {

	pool, err := penaltyvision.NewPool(size, s.Options)

	if err != nil {
		return nil, fmt.Errorf("error loading model %s: %w", s.Options.ModelFile, err)
	}

	return pool, nil
}

// Close shuts down ONNX Runtime if it was started
func (s *Setup) Close() error {
	if !s.usesORT {
		return nil
	}

	return penaltyvision.Shutdown()
}

// SignalContext returns a context cancelled on interrupt or terminate
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
