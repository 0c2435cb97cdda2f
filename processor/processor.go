package processor

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/postprocess"
	"github.com/f1vision/penaltyvision/postprocess/result"
	"github.com/f1vision/penaltyvision/render"
	"github.com/f1vision/penaltyvision/stats"
)

// DefaultProgressEvery is how many frames pass between progress lines
const DefaultProgressEvery = 30

// Config of the video processor
type Config struct {
	// Confidence is the minimum box score kept, zero keeps the decoder's
	// setting
	Confidence float32
	// PenaltyClass is the class index counted as a penalty
	PenaltyClass int
	// WindowSize is the number of FPS samples averaged
	WindowSize int
	// ProgressEvery prints a progress line every n frames, zero disables it
	ProgressEvery int
	// Title heads the statistics panel
	Title string
	// LineThickness of the detection boxes
	LineThickness int
	// Out receives progress and summary text
	Out io.Writer
}

// DefaultConfig returns the settings used by the f1-video command
func DefaultConfig() Config {
	return Config{
		Confidence:    0.25,
		PenaltyClass:  stats.DefaultPenaltyClass,
		WindowSize:    stats.DefaultWindowSize,
		ProgressEvery: DefaultProgressEvery,
		Title:         render.DefaultOverlayTitle,
		LineThickness: 2,
		Out:           os.Stdout,
	}
}

// Detection is a single object found in a frame
type Detection struct {
	// Class is "Penalty" or "Non-Penalty"
	Class   string     `json:"class"`
	ClassID int        `json:"class_id"`
	Label   string     `json:"label"`
	Conf    float32    `json:"confidence"`
	BBox    [4]float32 `json:"bbox"`
}

// Stats is a snapshot of the running totals
type Stats struct {
	Frames       int     `json:"frames"`
	Penalties    int     `json:"penalties"`
	NonPenalties int     `json:"non_penalties"`
	FPS          float64 `json:"fps"`
}

// Processor runs penalty detection frame by frame, keeping a rolling FPS
// average and detection counters
type Processor struct {
	cfg      Config
	labels   []string
	detector *Detector
	font     render.Font
	log      *zap.SugaredLogger
	// mu guards fps and counters which are read by Stats from other
	// goroutines
	mu       sync.Mutex
	fps      *stats.FPSWindow
	counters *stats.Counters
	// now is the clock used to time frames
	now func() time.Time
}

// New returns a Processor running the engine with a decoder built from the
// decoder's params.  The engine and decoder are owned by the caller and are
// not modified.
func New(engine penaltyvision.Engine, decoder *postprocess.YOLOv8, labels []string,
	cfg Config, log *zap.SugaredLogger) *Processor {

	params := decoder.Params

	if cfg.Confidence > 0 {
		params.BoxThreshold = cfg.Confidence
	}

	if cfg.LineThickness <= 0 {
		cfg.LineThickness = 2
	}

	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	return &Processor{
		cfg:      cfg,
		labels:   labels,
		detector: NewDetector(engine, postprocess.NewYOLOv8(params)),
		font:     render.DefaultFont(),
		log:      log,
		fps:      stats.NewFPSWindow(cfg.WindowSize),
		counters: stats.NewCounters(cfg.PenaltyClass),
		now:      time.Now,
	}
}

// ProcessFrame detects objects in the frame, records them in the counters
// and FPS window, and returns a copy of the frame with the boxes drawn.  The
// caller must close the returned Mat.
func (p *Processor) ProcessFrame(frame gocv.Mat) (gocv.Mat, []Detection, float64, error) {

	start := p.now()

	dets, err := p.detector.Detect(frame)

	if err != nil {
		return gocv.NewMat(), nil, 0, err
	}

	annotated := frame.Clone()
	render.DetectionBoxes(&annotated, dets, p.labels, p.font, p.cfg.LineThickness)

	classIDs := result.ClassIDs(dets)

	p.mu.Lock()
	fps := p.fps.Observe(p.now().Sub(start))
	p.counters.Record(classIDs)
	p.mu.Unlock()

	detections := make([]Detection, len(dets))

	for i, d := range dets {
		detections[i] = Detection{
			Class:   stats.Classify(d.Class, p.cfg.PenaltyClass),
			ClassID: d.Class,
			Label:   render.ClassName(p.labels, d.Class),
			Conf:    d.Probability,
			BBox:    d.XYXY(),
		}
	}

	return annotated, detections, fps, nil
}

// Overlay draws the statistics panel on the frame
func (p *Processor) Overlay(img *gocv.Mat, current int) {

	s := p.Stats()

	render.Overlay(img, render.OverlayStats{
		Title:        p.cfg.Title,
		FPS:          s.FPS,
		Frame:        s.Frames,
		Penalties:    s.Penalties,
		NonPenalties: s.NonPenalties,
		Current:      current,
	})
}

// Stats returns the current totals and rolling FPS average
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Frames:       p.counters.Frames,
		Penalties:    p.counters.Penalty,
		NonPenalties: p.counters.NonPenalty,
		FPS:          p.fps.Mean(),
	}
}

// Reset clears the counters and FPS window
func (p *Processor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fps.Reset()
	p.counters.Reset()
}

// summary collates the end of run totals
func (p *Processor) summary(elapsed time.Duration, interrupted bool) Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Summary{
		Frames:       p.counters.Frames,
		Penalties:    p.counters.Penalty,
		NonPenalties: p.counters.NonPenalty,
		AverageFPS:   p.fps.Mean(),
		Elapsed:      elapsed,
		Interrupted:  interrupted,
	}

	if samples := p.fps.Samples(); len(samples) > 0 {
		s.MinFPS = floats.Min(samples)
		s.MaxFPS = floats.Max(samples)
	}

	return s
}

// Close frees the processor's buffers
func (p *Processor) Close() error {
	return p.detector.Close()
}
