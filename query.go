package penaltyvision

import (
	"fmt"
	"io"
)

// Query prints the loaded model's input and output tensor information and
// class names in text/human readable format
func (r *Runtime) Query(w io.Writer) error {

	fmt.Fprintf(w, "Model: %s\n", r.modelFile)
	fmt.Fprintf(w, "Device: %s\n", r.Device())

	inputs := r.InputTensors()
	outputs := r.OutputTensors()

	fmt.Fprintf(w, "Model Input Number: %d, Output Number: %d\n",
		len(inputs), len(outputs))

	fmt.Fprintf(w, "Input tensors:\n")

	for _, attr := range inputs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	fmt.Fprintf(w, "Output tensors:\n")

	for _, attr := range outputs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	labels, err := r.ModelLabels()

	if err != nil {
		return fmt.Errorf("error querying model labels: %w", err)
	}

	fmt.Fprintf(w, "Classes: %v\n", labels)

	return nil
}
