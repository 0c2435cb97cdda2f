package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	// DefaultOverlayTitle is the heading of the statistics panel
	DefaultOverlayTitle = "F1 PENALTY DETECTION"
	// TargetFPS is the rolling average at or above which the FPS reading is
	// drawn green rather than orange
	TargetFPS = 30.0
	// panelAlpha is the weight of the original frame when blending the panel
	panelAlpha = 0.7
)

// panelRect is the area darkened behind the statistics text
var panelRect = image.Rect(10, 10, 400, 180)

// OverlayStats are the values shown on the statistics panel
type OverlayStats struct {
	Title string
	// FPS is the rolling average frames per second
	FPS          float64
	Frame        int
	Penalties    int
	NonPenalties int
	// Current is the number of detections in this frame
	Current int
}

// overlayLine is a single line of panel text
type overlayLine struct {
	text  string
	pos   image.Point
	clr   color.RGBA
	scale float64
	thick int
}

// overlayLines lays out the panel text top to bottom
func overlayLines(s OverlayStats) []overlayLine {

	title := s.Title

	if title == "" {
		title = DefaultOverlayTitle
	}

	fpsClr := Orange

	if s.FPS >= TargetFPS {
		fpsClr = Green
	}

	return []overlayLine{
		{title, image.Pt(20, 40), Yellow, 0.6, 2},
		{fmt.Sprintf("FPS: %.1f", s.FPS), image.Pt(20, 70), fpsClr, 0.6, 2},
		{fmt.Sprintf("Frame: %d", s.Frame), image.Pt(20, 95), White, 0.5, 1},
		{fmt.Sprintf("Penalties: %d", s.Penalties), image.Pt(20, 120), Red, 0.5, 1},
		{fmt.Sprintf("Non-Penalties: %d", s.NonPenalties), image.Pt(20, 140), Green, 0.5, 1},
		{fmt.Sprintf("Current: %d detections", s.Current), image.Pt(20, 165), White, 0.5, 1},
	}
}

// Overlay blends a dark panel into the top left of the image and writes the
// statistics onto it
func Overlay(img *gocv.Mat, s OverlayStats) {

	panel := img.Clone()
	defer panel.Close()

	gocv.Rectangle(&panel, panelRect, Black, -1)
	gocv.AddWeighted(*img, panelAlpha, panel, 1-panelAlpha, 0, img)

	font := DefaultFont()

	for _, l := range overlayLines(s) {
		font.WithColor(l.clr).WithScale(l.scale, l.thick).Text(img, l.text, l.pos)
	}
}
