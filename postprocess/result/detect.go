package result

import (
	"fmt"
)

// DetectionResult is implemented by the post processing results of detection
// models
type DetectionResult interface {
	GetDetectResults() []DetectResult
}

// BoxRect are the dimensions of the bounding box of a detect object
type BoxRect struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Width of the box
func (b BoxRect) Width() int {
	return b.Right - b.Left
}

// Height of the box
func (b BoxRect) Height() int {
	return b.Bottom - b.Top
}

// DetectResult defines the attributes of a single object detected
type DetectResult struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Box are the bounding box dimensions of the object location
	Box BoxRect
	// Probability is the confidence score of the object detected
	Probability float32
	// ID is a unique ID assigned to the detection result
	ID int64
}

// XYXY returns the box corners as floats, left, top, right, bottom
func (d DetectResult) XYXY() [4]float32 {
	return [4]float32{
		float32(d.Box.Left), float32(d.Box.Top),
		float32(d.Box.Right), float32(d.Box.Bottom),
	}
}

// YOLOLabel returns the detection as a YOLO label line, "class xc yc w h"
// normalized by the image width and height
func (d DetectResult) YOLOLabel(imgWidth, imgHeight int) string {

	w := float64(d.Box.Width()) / float64(imgWidth)
	h := float64(d.Box.Height()) / float64(imgHeight)
	xc := (float64(d.Box.Left) + float64(d.Box.Width())/2) / float64(imgWidth)
	yc := (float64(d.Box.Top) + float64(d.Box.Height())/2) / float64(imgHeight)

	return fmt.Sprintf("%d %.6g %.6g %.6g %.6g", d.Class, xc, yc, w, h)
}

// ClassIDs returns the class index of each detection
func ClassIDs(dets []DetectResult) []int {

	ids := make([]int, len(dets))

	for i, d := range dets {
		ids[i] = d.Class
	}

	return ids
}
