package predict

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocv.io/x/gocv"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/processor"
)

// fakeEngine returns one Penalty box in the middle of the model input
type fakeEngine struct{}

func (fakeEngine) Inference(img gocv.Mat) (*penaltyvision.Outputs, error) {
	return &penaltyvision.Outputs{
		Shape: []int{1, 6, 2},
		Data: []float32{
			320, 10, // cx
			320, 10, // cy
			100, 4, // w
			100, 4, // h
			0.05, 0.1, // Non-Penalty
			0.9, 0.2, // Penalty
		},
	}, nil
}

func (fakeEngine) InputAttrs() penaltyvision.InputAttribute {
	return penaltyvision.InputAttribute{Width: 640, Height: 640, Channel: 3}
}

func (fakeEngine) Close() error {
	return nil
}

// frameSource hands out solid frames
type frameSource struct {
	frames int
}

func (s *frameSource) Read(img *gocv.Mat) bool {
	if s.frames == 0 {
		return false
	}

	s.frames--

	frame := gocv.NewMatWithSize(640, 640, gocv.MatTypeCV8UC3)
	frame.CopyTo(img)
	frame.Close()

	return true
}

func (s *frameSource) Close() error {
	return nil
}

type countingSink struct {
	written int
}

func (s *countingSink) Write(img gocv.Mat) error {
	s.written++
	return nil
}

func (s *countingSink) Close() error {
	return nil
}

type quitDisplay struct {
	shown int
}

func (d *quitDisplay) Show(img gocv.Mat) bool {
	d.shown++
	return d.shown == 2
}

func (d *quitDisplay) Close() error {
	return nil
}

func newTestPredictor(t *testing.T, poolSize int) (*Predictor, *bytes.Buffer) {

	pool, err := penaltyvision.NewPoolFunc(poolSize, func() (penaltyvision.Engine, error) {
		return fakeEngine{}, nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	out := &bytes.Buffer{}

	cfg := DefaultConfig()
	cfg.SaveDir = t.TempDir()
	cfg.Out = out

	return New(pool, penaltyvision.DefaultLabels, cfg, zaptest.NewLogger(t).Sugar()), out
}

// writeImage saves a solid 640x640 image
func writeImage(t *testing.T, file string) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 640, 640,
		gocv.MatTypeCV8UC3)
	defer img.Close()

	require.True(t, gocv.IMWrite(file, img))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Video")
	require.NoError(t, err)
	assert.Equal(t, ModeVideo, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeImage, m)

	_, err = ParseMode("stream")
	assert.Error(t, err)
}

func TestParseSource(t *testing.T) {
	device, ok := ParseSource("0")
	assert.True(t, ok)
	assert.Equal(t, 0, device)

	device, ok = ParseSource("2")
	assert.True(t, ok)
	assert.Equal(t, 2, device)

	_, ok = ParseSource("race.mp4")
	assert.False(t, ok)

	_, ok = ParseSource("-1")
	assert.False(t, ok)
}

func TestImage(t *testing.T) {

	p, out := newTestPredictor(t, 1)

	src := filepath.Join(t.TempDir(), "lap12.png")
	writeImage(t, src)

	results, err := p.Image(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.Len(t, res.Detections, 1)
	assert.Equal(t, 1, res.Detections[0].Class)

	assert.Equal(t, "Detected: Penalty (confidence: 0.90)\n", out.String())

	assert.Equal(t, filepath.Join(p.cfg.SaveDir, "image_inference", "lap12.png"), res.Saved)
	assert.FileExists(t, res.Saved)

	label, err := os.ReadFile(filepath.Join(p.cfg.SaveDir, "image_inference", "labels", "lap12.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1 0.5 0.5 0.15625 0.15625\n", string(label))
}

func TestImageDirectory(t *testing.T) {

	p, out := newTestPredictor(t, 2)

	dir := t.TempDir()

	for _, name := range []string{"c.jpg", "a.png", "b.bmp"} {
		writeImage(t, filepath.Join(dir, name))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	results, err := p.Image(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, filepath.Join(dir, "a.png"), results[0].Source)
	assert.Equal(t, filepath.Join(dir, "b.bmp"), results[1].Source)
	assert.Equal(t, filepath.Join(dir, "c.jpg"), results[2].Source)

	assert.Equal(t, 3, bytes.Count(out.Bytes(), []byte("Detected: Penalty")))
}

func TestListImagesErrors(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)

	_, err = ListImages(t.TempDir())
	assert.Error(t, err)
}

func TestStreamVerbose(t *testing.T) {

	p, out := newTestPredictor(t, 1)
	sink := &countingSink{}

	res, err := p.stream(context.Background(), &frameSource{frames: 3}, sink, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 3, res.Detections)
	assert.Equal(t, 3, sink.written)
	assert.Equal(t, "Frame: 1 detections\nFrame: 1 detections\nFrame: 1 detections\n", out.String())
}

func TestStreamDisplayQuit(t *testing.T) {

	p, out := newTestPredictor(t, 1)
	display := &quitDisplay{}

	res, err := p.stream(context.Background(), &frameSource{frames: 10}, nil, display, false)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Frames)
	assert.Empty(t, out.String())
}

func TestStreamCancelled(t *testing.T) {

	p, _ := newTestPredictor(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.stream(ctx, &frameSource{frames: 10}, nil, nil, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunUnknownMode(t *testing.T) {
	p, _ := newTestPredictor(t, 1)
	assert.Error(t, p.Run(context.Background(), Mode("gif"), "x"))
}

func TestVideo(t *testing.T) {

	p, out := newTestPredictor(t, 1)

	src := filepath.Join(t.TempDir(), "spa_lap3.avi")

	writer, err := gocv.VideoWriterFile(src, "MJPG", 25, 640, 360, true)
	require.NoError(t, err)

	frame := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, writer.Write(frame))
	}

	require.NoError(t, writer.Close())

	res, err := p.Video(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Frames)
	assert.Equal(t, 4, res.Detections)
	assert.Equal(t, filepath.Join(p.cfg.SaveDir, "video_inference", "spa_lap3.mp4"), res.Saved)
	assert.FileExists(t, res.Saved)

	assert.Equal(t, 4, strings.Count(out.String(), "Frame: 1 detections\n"))
}

func TestVideoMissing(t *testing.T) {
	p, _ := newTestPredictor(t, 1)

	_, err := p.Video(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, processor.ErrSourceNotOpened)
}
