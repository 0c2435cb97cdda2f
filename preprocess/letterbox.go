package preprocess

import "math"

// Letterbox holds the geometry for fitting a source image into a destination
// size whilst maintaining aspect, padding the remainder evenly on both sides
type Letterbox struct {
	// SrcWidth and SrcHeight are the source image dimensions
	SrcWidth  int
	SrcHeight int
	// DestWidth and DestHeight are the dimensions to scale to
	DestWidth  int
	DestHeight int
	// Scale is the factor applied to the source image
	Scale float32
	// ResizeW and ResizeH are the scaled image dimensions before padding
	ResizeW int
	ResizeH int
	// XPad and YPad are the padding on the left and top edges
	XPad int
	YPad int
}

// NewLetterbox precalculates the scaling factors for source and destination
// dimensions
func NewLetterbox(srcWidth, srcHeight, destWidth, destHeight int) Letterbox {

	l := Letterbox{
		SrcWidth:   srcWidth,
		SrcHeight:  srcHeight,
		DestWidth:  destWidth,
		DestHeight: destHeight,
		ResizeW:    destWidth,
		ResizeH:    destHeight,
	}

	scaleW := float32(destWidth) / float32(srcWidth)
	scaleH := float32(destHeight) / float32(srcHeight)
	l.Scale = scaleH

	if scaleW < scaleH {
		l.Scale = scaleW
		l.ResizeH = int(math.Round(float64(srcHeight) * float64(l.Scale)))
	} else {
		l.ResizeW = int(math.Round(float64(srcWidth) * float64(l.Scale)))
	}

	l.YPad = (destHeight - l.ResizeH) / 2 // padding height / 2
	l.XPad = (destWidth - l.ResizeW) / 2  // padding width / 2

	return l
}

// ToSource maps a point in destination (model input) coordinates back to
// the source image
func (l Letterbox) ToSource(x, y float32) (float32, float32) {
	return (x - float32(l.XPad)) / l.Scale, (y - float32(l.YPad)) / l.Scale
}
