package predict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/f1vision/penaltyvision/postprocess/result"
	"github.com/f1vision/penaltyvision/preprocess"
	"github.com/f1vision/penaltyvision/processor"
	"github.com/f1vision/penaltyvision/render"
)

// ImageResult holds the detections for one image and where the annotated
// copy was saved
type ImageResult struct {
	Source     string
	Saved      string
	LabelFile  string
	Width      int
	Height     int
	Detections []result.DetectResult
}

// Image predicts on an image file, or on every image inside a directory
// using all engines of the pool in parallel.  Annotated images and YOLO
// format label files are written to <save dir>/image_inference.
func (p *Predictor) Image(ctx context.Context, source string) ([]ImageResult, error) {

	files, err := ListImages(source)

	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(p.cfg.SaveDir, imageDir)
	labelDir := filepath.Join(outDir, "labels")

	if err := os.MkdirAll(labelDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}

	results := make([]ImageResult, len(files))
	errs := make([]error, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := p.pool.Size()

	if workers > len(files) {
		workers = len(files)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			engine := p.pool.Get()
			defer p.pool.Return(engine)

			det := processor.NewDetector(engine, p.decoder())
			defer det.Close()

			for i := range jobs {
				results[i], errs[i] = p.predictImage(det, files[i], outDir, labelDir)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	for _, res := range results {
		p.log.Debugw("image processed", "source", res.Source, "detections", len(res.Detections))

		for _, d := range res.Detections {
			fmt.Fprintf(p.cfg.Out, "Detected: %s (confidence: %.2f)\n",
				render.ClassName(p.labels, d.Class), d.Probability)
		}
	}

	return results, nil
}

// predictImage runs detection on a single file and saves the results
func (p *Predictor) predictImage(det *processor.Detector, file, outDir,
	labelDir string) (ImageResult, error) {

	img, err := preprocess.LoadImage(file)

	if err != nil {
		return ImageResult{}, err
	}

	defer img.Close()

	dets, err := det.Detect(img)

	if err != nil {
		return ImageResult{}, fmt.Errorf("error detecting objects in %s: %w", file, err)
	}

	res := ImageResult{
		Source:     file,
		Saved:      filepath.Join(outDir, filepath.Base(file)),
		Width:      img.Cols(),
		Height:     img.Rows(),
		Detections: dets,
	}

	annotated := img.Clone()
	defer annotated.Close()

	render.DetectionBoxes(&annotated, dets, p.labels, p.font, 2)

	if !gocv.IMWrite(res.Saved, annotated) {
		return ImageResult{}, fmt.Errorf("error writing annotated image %s", res.Saved)
	}

	// label files are only written for images with detections
	if len(dets) == 0 {
		return res, nil
	}

	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	res.LabelFile = filepath.Join(labelDir, stem+".txt")

	var sb strings.Builder

	for _, d := range dets {
		sb.WriteString(d.YOLOLabel(res.Width, res.Height))
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(res.LabelFile, []byte(sb.String()), 0o644); err != nil {
		return ImageResult{}, fmt.Errorf("error writing label file: %w", err)
	}

	return res, nil
}

// ListImages returns source if it is a file, or the sorted image files
// directly inside source if it is a directory
func ListImages(source string) ([]string, error) {

	info, err := os.Stat(source)

	if err != nil {
		return nil, fmt.Errorf("image source %s: %w", source, err)
	}

	if !info.IsDir() {
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)

	if err != nil {
		return nil, fmt.Errorf("error reading image directory: %w", err)
	}

	files := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() || !preprocess.ImageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}

		files = append(files, filepath.Join(source, e.Name()))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", source)
	}

	sort.Strings(files)

	return files, nil
}
