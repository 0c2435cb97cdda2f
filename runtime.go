package penaltyvision

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/f1vision/penaltyvision/preprocess"
)

// envLock guards initialization of the process wide ONNX Runtime environment
var envLock sync.Mutex

// Init loads the ONNX Runtime shared library and initializes its
// environment.  It is safe to call more than once.  An empty libPath uses the
// platform default library name.
func Init(libPath string) error {
	envLock.Lock()
	defer envLock.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	if libPath != "" {
		if _, err := os.Stat(libPath); err != nil {
			return fmt.Errorf("onnxruntime library does not exist at %s, error: %w",
				libPath, err)
		}

		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing onnxruntime environment: %w", err)
	}

	return nil
}

// Shutdown destroys the ONNX Runtime environment created by Init
func Shutdown() error {
	envLock.Lock()
	defer envLock.Unlock()

	if !ort.IsInitialized() {
		return nil
	}

	return ort.DestroyEnvironment()
}

// Runtime defines the ONNX Runtime inference instance
type Runtime struct {
	// modelFile is the path of the loaded model
	modelFile string
	// session is the ONNX Runtime session bound to the input/output tensors
	session *ort.AdvancedSession
	// inputAttrs caches the Input Tensor Attributes of the Model
	inputAttrs []TensorAttr
	// outputAttrs caches the Output Tensor Attributes of the Model
	outputAttrs []TensorAttr
	// input and output tensors, either *ort.Tensor[float32] or an
	// *ort.CustomDataTensor holding float16 data
	input  ort.ArbitraryTensor
	output ort.ArbitraryTensor
	// blob is the float32 staging buffer for float16 inputs
	blob []float32
	// device inference runs on
	device Device
	// threads is the intra op thread count of the session
	threads int
	// mu serializes Inference calls as the bound tensors are reused
	mu sync.Mutex
}

// NewRuntime returns an ONNX Runtime instance.  Provide the full path and
// filename of the ONNX model exported from training, the device to run it
// on and the number of CPU threads the session may use, zero for all of
// them.  Init must have been called first.
func NewRuntime(modelFile string, device Device, threads int) (*Runtime, error) {

	// check file exists in Go, before passing to C
	info, err := os.Stat(modelFile)

	if err != nil {
		return nil, fmt.Errorf("model file does not exist at %s, error: %w",
			modelFile, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("model file is a directory")
	}

	r := &Runtime{
		modelFile: modelFile,
		device:    device.Resolve(),
		threads:   threads,
	}

	if r.threads <= 0 {
		r.threads = runtime.NumCPU()
	}

	r.inputAttrs, r.outputAttrs, err = QueryTensors(modelFile)

	if err != nil {
		return nil, err
	}

	if len(r.inputAttrs) != 1 || len(r.outputAttrs) != 1 {
		return nil, fmt.Errorf("expected a single input and output tensor, model has %d inputs and %d outputs",
			len(r.inputAttrs), len(r.outputAttrs))
	}

	err = r.createTensors()

	if err != nil {
		return nil, err
	}

	options, err := r.sessionOptions()

	if err != nil {
		r.destroyTensors()
		return nil, err
	}

	defer options.Destroy()

	r.session, err = ort.NewAdvancedSession(
		modelFile,
		[]string{r.inputAttrs[0].Name},
		[]string{r.outputAttrs[0].Name},
		[]ort.ArbitraryTensor{r.input},
		[]ort.ArbitraryTensor{r.output},
		options,
	)

	if err != nil {
		r.destroyTensors()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return r, nil
}

// createTensors allocates the input and output tensors matching the model's
// tensor types
func (r *Runtime) createTensors() error {

	in := r.inputAttrs[0]
	out := r.outputAttrs[0]

	var err error

	if in.IsFloat16() {
		r.blob = make([]float32, in.NElems())
		r.input, err = ort.NewCustomDataTensor(in.Shape(), make([]byte, in.NElems()*2),
			ort.TensorElementDataTypeFloat16)
	} else {
		r.input, err = ort.NewEmptyTensor[float32](in.Shape())
	}

	if err != nil {
		return fmt.Errorf("error creating input tensor: %w", err)
	}

	if out.IsFloat16() {
		r.output, err = ort.NewCustomDataTensor(out.Shape(), make([]byte, out.NElems()*2),
			ort.TensorElementDataTypeFloat16)
	} else {
		r.output, err = ort.NewEmptyTensor[float32](out.Shape())
	}

	if err != nil {
		r.input.Destroy()
		return fmt.Errorf("error creating output tensor: %w", err)
	}

	return nil
}

// sessionOptions configures threading and the execution provider for the
// target device
func (r *Runtime) sessionOptions() (*ort.SessionOptions, error) {

	options, err := ort.NewSessionOptions()

	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}

	err = options.SetIntraOpNumThreads(r.threads)

	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("error setting intra op threads: %w", err)
	}

	switch r.device {
	case DeviceCUDA:
		cudaOpts, err := ort.NewCUDAProviderOptions()

		if err != nil {
			options.Destroy()
			return nil, fmt.Errorf("error creating CUDA provider options: %w", err)
		}

		defer cudaOpts.Destroy()

		err = cudaOpts.Update(map[string]string{"device_id": "0"})

		if err == nil {
			err = options.AppendExecutionProviderCUDA(cudaOpts)
		}

		if err != nil {
			options.Destroy()
			return nil, fmt.Errorf("error enabling CUDA execution provider: %w", err)
		}

	case DeviceMPS:
		// CoreML is the Apple Silicon accelerated provider
		err = options.AppendExecutionProviderCoreML(0)

		if err != nil {
			options.Destroy()
			return nil, fmt.Errorf("error enabling CoreML execution provider: %w", err)
		}
	}

	return options, nil
}

// Inference runs the model on a letterboxed BGR image
func (r *Runtime) Inference(img gocv.Mat) (*Outputs, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attr := r.InputAttrs()

	if img.Cols() != attr.Width || img.Rows() != attr.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrInputSize,
			img.Cols(), img.Rows(), attr.Width, attr.Height)
	}

	// fill input tensor
	switch in := r.input.(type) {
	case *ort.Tensor[float32]:
		if err := preprocess.BlobNCHW(img, in.GetData()); err != nil {
			return nil, fmt.Errorf("error preparing input tensor: %w", err)
		}

	case *ort.CustomDataTensor:
		if err := preprocess.BlobNCHW(img, r.blob); err != nil {
			return nil, fmt.Errorf("error preparing input tensor: %w", err)
		}

		encodeFloat16(r.blob, in.GetData())
	}

	// run the model
	if err := r.session.Run(); err != nil {
		return nil, fmt.Errorf("error running model: %w", err)
	}

	// copy the output out of the tensor so it survives the next run
	outputs := &Outputs{
		Shape: r.outputAttrs[0].Dims(),
	}

	switch out := r.output.(type) {
	case *ort.Tensor[float32]:
		data := out.GetData()
		outputs.Data = make([]float32, len(data))
		copy(outputs.Data, data)

	case *ort.CustomDataTensor:
		outputs.Data = decodeFloat16(out.GetData())
	}

	return outputs, nil
}

// InputAttrs returns the loaded model's input image dimensions
func (r *Runtime) InputAttrs() InputAttribute {
	return r.inputAttrs[0].ImageAttribute()
}

// InputTensors returns the loaded model's input tensor attributes
func (r *Runtime) InputTensors() []TensorAttr {
	return r.inputAttrs
}

// OutputTensors returns the loaded model's output tensor attributes
func (r *Runtime) OutputTensors() []TensorAttr {
	return r.outputAttrs
}

// Device returns the device the session was created for
func (r *Runtime) Device() Device {
	return r.device
}

// ModelLabels returns the class names stored in the model metadata by the
// exporter
func (r *Runtime) ModelLabels() ([]string, error) {
	return LoadModelLabels(r.modelFile)
}

// destroyTensors releases the input and output tensors
func (r *Runtime) destroyTensors() error {

	var err error

	if r.input != nil {
		err = multierr.Append(err, r.input.Destroy())
	}

	if r.output != nil {
		err = multierr.Append(err, r.output.Destroy())
	}

	return err
}

// Close destroys the session and releases all C resources
func (r *Runtime) Close() error {

	var err error

	if r.session != nil {
		err = multierr.Append(err, r.session.Destroy())
	}

	return multierr.Append(err, r.destroyTensors())
}
