package penaltyvision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// DNNRuntime runs the ONNX model with the OpenCV DNN module.  It needs no
// library beyond OpenCV itself and uses the CUDA backend when OpenCV was
// built with it.
type DNNRuntime struct {
	net  gocv.Net
	attr InputAttribute
	// mu serializes Inference calls on the network
	mu sync.Mutex
}

// NewDNNRuntime loads the model file into an OpenCV network.  OpenCV can not
// report the model input dimensions so inputSize gives the square size the
// model was exported at.
func NewDNNRuntime(modelFile string, device Device, inputSize int) (*DNNRuntime, error) {

	info, err := os.Stat(modelFile)

	if err != nil {
		return nil, fmt.Errorf("model file does not exist at %s, error: %w",
			modelFile, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("model file is a directory")
	}

	net := gocv.ReadNetFromONNX(modelFile)

	if net.Empty() {
		return nil, fmt.Errorf("error reading network from %s", modelFile)
	}

	if device.Resolve() == DeviceCUDA {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	return &DNNRuntime{
		net: net,
		attr: InputAttribute{
			Width:   inputSize,
			Height:  inputSize,
			Channel: 3,
		},
	}, nil
}

// Inference runs the network on a letterboxed BGR image
func (d *DNNRuntime) Inference(img gocv.Mat) (*Outputs, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Cols() != d.attr.Width || img.Rows() != d.attr.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrInputSize,
			img.Cols(), img.Rows(), d.attr.Width, d.attr.Height)
	}

	// scale to [0,1] and swap BGR to RGB
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(d.attr.Width, d.attr.Height),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	if out.Empty() {
		return nil, fmt.Errorf("error running model: empty output")
	}

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading output tensor: %w", err)
	}

	outputs := &Outputs{
		Shape: out.Size(),
		Data:  make([]float32, len(data)),
	}

	copy(outputs.Data, data)

	return outputs, nil
}

// InputAttrs returns the model input image dimensions
func (d *DNNRuntime) InputAttrs() InputAttribute {
	return d.attr
}

// Close releases the network
func (d *DNNRuntime) Close() error {
	return d.net.Close()
}
