package preprocess

import (
	"fmt"

	"gocv.io/x/gocv"
)

// BlobNCHW converts a BGR 8 bit image into the planar RGB float32 layout the
// model input expects, with values scaled to [0,1].  The dst slice must hold
// exactly width*height*3 values.
func BlobNCHW(img gocv.Mat, dst []float32) error {

	if img.Channels() != 3 || img.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("expected 8 bit 3 channel image, got type %v", img.Type())
	}

	// make mat continuous
	if !img.IsContinuous() {
		img = img.Clone()
		defer img.Close()
	}

	data, err := img.DataPtrUint8()

	if err != nil {
		return fmt.Errorf("error getting data pointer to Mat: %w", err)
	}

	return PackNCHW(data, img.Cols(), img.Rows(), dst)
}

// PackNCHW converts interleaved BGR bytes to planar RGB float32 scaled to
// [0,1]
func PackNCHW(bgr []uint8, width, height int, dst []float32) error {

	area := width * height

	if len(bgr) != area*3 {
		return fmt.Errorf("source has %d bytes, want %d", len(bgr), area*3)
	}

	if len(dst) != area*3 {
		return fmt.Errorf("destination holds %d values, want %d", len(dst), area*3)
	}

	const scale = 1.0 / 255.0

	for i := 0; i < area; i++ {
		b := bgr[i*3]
		g := bgr[i*3+1]
		r := bgr[i*3+2]

		dst[i] = float32(r) * scale
		dst[area+i] = float32(g) * scale
		dst[2*area+i] = float32(b) * scale
	}

	return nil
}
