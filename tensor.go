package penaltyvision

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// TensorAttr describes a model input or output tensor
type TensorAttr struct {
	Index int
	Name  string
	// shape with any dynamic dimensions resolved
	shape ort.Shape
	// Dynamic is set when the model declared one or more dimensions as
	// dynamic and defaults were substituted
	Dynamic bool
	Type    ort.TensorElementDataType
}

// QueryTensors reads the input and output tensor attributes of the model file
// without creating a session
func QueryTensors(modelFile string) ([]TensorAttr, []TensorAttr, error) {

	inputs, outputs, err := ort.GetInputOutputInfo(modelFile)

	if err != nil {
		return nil, nil, fmt.Errorf("error querying model tensors: %w", err)
	}

	inputAttrs := make([]TensorAttr, len(inputs))

	for i, info := range inputs {
		inputAttrs[i] = convertTensorInfo(i, info)
	}

	outputAttrs := make([]TensorAttr, len(outputs))

	for i, info := range outputs {
		outputAttrs[i] = convertTensorInfo(i, info)
	}

	if len(inputAttrs) > 0 && len(outputAttrs) > 0 {
		resolveDynamicShapes(&inputAttrs[0], &outputAttrs[0])
	}

	return inputAttrs, outputAttrs, nil
}

// convertTensorInfo converts onnxruntime tensor info to a TensorAttr
func convertTensorInfo(idx int, info ort.InputOutputInfo) TensorAttr {

	shape := make(ort.Shape, len(info.Dimensions))
	copy(shape, info.Dimensions)

	return TensorAttr{
		Index: idx,
		Name:  info.Name,
		shape: shape,
		Type:  info.DataType,
	}
}

// resolveDynamicShapes substitutes defaults for dynamic dimensions of an
// image input [N, C, H, W] and its YOLOv8 detection output [N, 4+nc, anchors]
func resolveDynamicShapes(in, out *TensorAttr) {

	defaults := []int64{1, 3, DefaultInputSize, DefaultInputSize}

	for i := range in.shape {
		if in.shape[i] <= 0 && i < len(defaults) {
			in.shape[i] = defaults[i]
			in.Dynamic = true
		}
	}

	if len(out.shape) < 3 {
		return
	}

	if out.shape[0] <= 0 {
		out.shape[0] = 1
		out.Dynamic = true
	}

	if out.shape[2] <= 0 && len(in.shape) == 4 {
		out.shape[2] = anchorCount(int(in.shape[2]), int(in.shape[3]))
		out.Dynamic = true
	}
}

// anchorCount returns the number of YOLOv8 predictions for an input size,
// one per grid cell over the three detection strides
func anchorCount(height, width int) int64 {

	count := 0

	for _, stride := range []int{8, 16, 32} {
		count += (height / stride) * (width / stride)
	}

	return int64(count)
}

// Shape returns the tensor shape
func (a TensorAttr) Shape() ort.Shape {
	return a.shape
}

// Dims returns the tensor shape as ints
func (a TensorAttr) Dims() []int {

	dims := make([]int, len(a.shape))

	for i, d := range a.shape {
		dims[i] = int(d)
	}

	return dims
}

// NElems returns the number of elements in the tensor
func (a TensorAttr) NElems() int {
	return int(a.shape.FlattenedSize())
}

// IsFloat16 returns true if the tensor holds half precision values
func (a TensorAttr) IsFloat16() bool {
	return a.Type == ort.TensorElementDataTypeFloat16
}

// ImageAttribute interprets an NCHW input tensor as image dimensions
func (a TensorAttr) ImageAttribute() InputAttribute {

	if len(a.shape) != 4 {
		return InputAttribute{}
	}

	return InputAttribute{
		Channel: int(a.shape[1]),
		Height:  int(a.shape[2]),
		Width:   int(a.shape[3]),
	}
}

// String returns the TensorAttr's attributes formatted as a string
func (a TensorAttr) String() string {

	dynamic := ""

	if a.Dynamic {
		dynamic = " (dynamic)"
	}

	return fmt.Sprintf("index=%d, name=%s, n_dims=%d, dims=%v%s, n_elems=%d, type=%s",
		a.Index, a.Name, len(a.shape), a.Dims(), dynamic, a.NElems(), typeName(a.Type))
}

// typeName returns a readable description of the tensor element type
func typeName(t ort.TensorElementDataType) string {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return "FP32"
	case ort.TensorElementDataTypeFloat16:
		return "FP16"
	case ort.TensorElementDataTypeUint8:
		return "UINT8"
	case ort.TensorElementDataTypeInt8:
		return "INT8"
	case ort.TensorElementDataTypeInt32:
		return "INT32"
	case ort.TensorElementDataTypeInt64:
		return "INT64"
	default:
		return "UNKNOWN"
	}
}
