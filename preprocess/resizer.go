package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// PadColor is the gray letterbox padding color used during training
var PadColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Resizer defines the struct used for handling image resizing
type Resizer struct {
	// geometry of the resize
	box Letterbox
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	return &Resizer{
		box:     NewLetterbox(srcWidth, srcHeight, destWidth, destHeight),
		tempMat: gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// LetterBoxResize resizes the input image to the dimensions needed for the input
// tensor size whilst maintaining image aspect.  Color is that used for letter
// box padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.box.ResizeW, r.box.ResizeH),
		0, 0, gocv.InterpolationLinear)

	gocv.CopyMakeBorder(r.tempMat, dest, r.box.YPad, r.box.DestHeight-r.box.ResizeH-r.box.YPad,
		r.box.XPad, r.box.DestWidth-r.box.ResizeW-r.box.XPad, gocv.BorderConstant, color)
}

// Matches returns true if the resizer was created for the given source size
func (r *Resizer) Matches(srcWidth, srcHeight int) bool {
	return r.box.SrcWidth == srcWidth && r.box.SrcHeight == srcHeight
}

// Letterbox returns the geometry used by the resizer
func (r *Resizer) Letterbox() Letterbox {
	return r.box
}
