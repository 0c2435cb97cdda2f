package penaltyvision

import (
	"encoding/binary"

	"github.com/x448/float16"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// decodeFloat16 converts a little endian float16 byte buffer, as held by a
// half precision output tensor, to float32 as Go has no support for FP16
func decodeFloat16(buf []byte) []float32 {

	out := make([]float32, len(buf)/2)

	for i := range out {
		out[i] = f16LookupTable[binary.LittleEndian.Uint16(buf[i*2:])]
	}

	return out
}

// encodeFloat16 converts float32 values into a little endian float16 byte
// buffer for a half precision input tensor
func encodeFloat16(src []float32, dst []byte) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], float16.Fromfloat32(v).Bits())
	}
}
