package processor

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// ErrSourceNotOpened is returned when a video file or camera can not be
// opened
var ErrSourceNotOpened = errors.New("could not open video source")

// Source provides frames to the processing loop
type Source interface {
	// Read the next frame into img, returning false when no frame is
	// available
	Read(img *gocv.Mat) bool
	Close() error
}

// Sink receives every annotated frame
type Sink interface {
	Write(img gocv.Mat) error
	Close() error
}

// Display shows annotated frames live
type Display interface {
	// Show displays the frame and returns true when the user asked to quit
	Show(img gocv.Mat) bool
	Close() error
}

// Properties of an opened video
type Properties struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
}

// Duration returns the video length derived from frame count and rate
func (p Properties) Duration() time.Duration {
	if p.FPS <= 0 {
		return 0
	}

	return time.Duration(float64(p.FrameCount) / p.FPS * float64(time.Second))
}

// VideoSource reads frames from a video file or camera
type VideoSource struct {
	capture *gocv.VideoCapture
}

// OpenVideoSource opens a video file for reading
func OpenVideoSource(path string) (*VideoSource, error) {

	capture, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSourceNotOpened, path, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w %s", ErrSourceNotOpened, path)
	}

	return &VideoSource{capture: capture}, nil
}

// OpenWebcam opens the camera with the given device index
func OpenWebcam(device int) (*VideoSource, error) {

	capture, err := gocv.VideoCaptureDevice(device)

	if err != nil {
		return nil, fmt.Errorf("%w camera %d: %w", ErrSourceNotOpened, device, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w camera %d", ErrSourceNotOpened, device)
	}

	return &VideoSource{capture: capture}, nil
}

// Read the next frame, empty frames are treated as the end of the video
func (v *VideoSource) Read(img *gocv.Mat) bool {
	return v.capture.Read(img) && !img.Empty()
}

// Properties returns the resolution, frame rate and frame count reported
// by the video backend
func (v *VideoSource) Properties() Properties {
	return Properties{
		Width:      int(v.capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(v.capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        v.capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(v.capture.Get(gocv.VideoCaptureFrameCount)),
	}
}

// Close releases the capture device
func (v *VideoSource) Close() error {
	return v.capture.Close()
}

// VideoSink writes annotated frames to a video file
type VideoSink struct {
	writer *gocv.VideoWriter
	path   string
}

// DefaultWriterFPS is used when the source does not report a frame rate
const DefaultWriterFPS = 30

// NewVideoSink creates an mp4v encoded video file at the given frame rate and
// frame size
func NewVideoSink(path string, fps float64, width, height int) (*VideoSink, error) {

	writer, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)

	if err != nil {
		return nil, fmt.Errorf("error creating video writer %s: %w", path, err)
	}

	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer %s could not be opened", path)
	}

	return &VideoSink{writer: writer, path: path}, nil
}

// Path returns the output file name
func (s *VideoSink) Path() string {
	return s.path
}

// Write appends the frame to the video
func (s *VideoSink) Write(img gocv.Mat) error {
	return s.writer.Write(img)
}

// Close finalizes the video file
func (s *VideoSink) Close() error {
	return s.writer.Close()
}

// WindowDisplay shows frames in a HighGUI window, pressing q quits
type WindowDisplay struct {
	window *gocv.Window
}

// NewWindowDisplay opens a window with the given title
func NewWindowDisplay(title string) *WindowDisplay {
	return &WindowDisplay{window: gocv.NewWindow(title)}
}

// Show displays the frame and polls the keyboard for one millisecond
func (d *WindowDisplay) Show(img gocv.Mat) bool {
	d.window.IMShow(img)
	return d.window.WaitKey(1)&0xFF == 'q'
}

// Close destroys the window
func (d *WindowDisplay) Close() error {
	return d.window.Close()
}
