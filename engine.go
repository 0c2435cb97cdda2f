package penaltyvision

import (
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Backend names the inference library used to run the model
type Backend string

const (
	// BackendORT runs the model with ONNX Runtime
	BackendORT Backend = "ort"
	// BackendOpenCV runs the model with the OpenCV DNN module
	BackendOpenCV Backend = "opencv"
)

// DefaultInputSize is the square input size models are exported at
const DefaultInputSize = 640

var (
	// ErrUnknownBackend is returned when an unsupported backend name is given
	ErrUnknownBackend = errors.New("unknown inference backend")
	// ErrInputSize is returned when an image does not match the model input
	// tensor dimensions
	ErrInputSize = errors.New("image does not match model input size")
)

// Engine runs a YOLOv8 detection model on a single image.  The image passed
// to Inference must be a BGR Mat already letterboxed to the dimensions
// returned by InputAttrs.
type Engine interface {
	Inference(img gocv.Mat) (*Outputs, error)
	InputAttrs() InputAttribute
	Close() error
}

// InputAttribute of trained model input tensor
type InputAttribute struct {
	Width   int
	Height  int
	Channel int
}

// Outputs holds the raw detection head output copied out of the backend
type Outputs struct {
	// Shape of the output tensor, for YOLOv8 this is [1, 4+classes, anchors]
	Shape []int
	// Data is the tensor data in row major order
	Data []float32
}

// Channels returns the number of values per anchor, being the four box
// coordinates followed by one score per class
func (o *Outputs) Channels() int {
	if len(o.Shape) < 3 {
		return 0
	}

	return o.Shape[1]
}

// Anchors returns the number of candidate predictions in the output
func (o *Outputs) Anchors() int {
	if len(o.Shape) < 3 {
		return 0
	}

	return o.Shape[2]
}

// ClassNum returns the number of object classes the model predicts
func (o *Outputs) ClassNum() int {
	return o.Channels() - 4
}

// EngineOptions defines how an Engine is opened
type EngineOptions struct {
	// Backend is the inference library to use
	Backend Backend
	// ModelFile is the path to the exported ONNX model
	ModelFile string
	// Device is where inference runs
	Device Device
	// InputSize is the model input size, used when the backend can not read
	// it from the model
	InputSize int
	// Threads is the number of intra op threads of an ONNX Runtime session,
	// zero uses one per CPU
	Threads int
}

// ParseBackend converts a backend name given on the command line to a Backend
func ParseBackend(name string) (Backend, error) {

	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendORT, BackendOpenCV:
		return b, nil
	case "", "onnxruntime":
		return BackendORT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Open returns an Engine for the given options
func Open(opts EngineOptions) (Engine, error) {

	if opts.InputSize <= 0 {
		opts.InputSize = DefaultInputSize
	}

	switch opts.Backend {
	case BackendORT, "":
		return NewRuntime(opts.ModelFile, opts.Device, opts.Threads)
	case BackendOpenCV:
		return NewDNNRuntime(opts.ModelFile, opts.Device, opts.InputSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
