package train

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Result of a training run
type Result struct {
	// Dataset is the data YAML trained on
	Dataset   string
	Augmented bool
	// Weights are the best checkpoint
	Weights string
	Metrics Metrics
	// ONNX is the exported model, empty when export is disabled
	ONNX string
}

// Trainer runs train, test split validation and export in turn
type Trainer struct {
	cfg    Config
	runner Runner
	out    io.Writer
	log    *zap.SugaredLogger
}

// NewTrainer returns a Trainer.  Command output and progress are written to
// out.
func NewTrainer(cfg Config, runner Runner, out io.Writer, log *zap.SugaredLogger) *Trainer {
	return &Trainer{
		cfg:    cfg,
		runner: runner,
		out:    out,
		log:    log,
	}
}

// Run trains the model, evaluates the best weights on the test split and
// exports them to ONNX
func (t *Trainer) Run(ctx context.Context) (Result, error) {

	if err := t.cfg.Validate(); err != nil {
		return Result{}, err
	}

	cfg := t.cfg
	cfg.Device = cfg.Device.Resolve()
	fmt.Fprintf(t.out, "Using device: %s\n", cfg.Device)

	data, augmented, err := ResolveDataset(cfg.DatasetDir)

	if err != nil {
		return Result{}, err
	}

	if augmented {
		fmt.Fprintf(t.out, "Using AUGMENTED dataset\n")
	} else {
		fmt.Fprintf(t.out, "Using ORIGINAL dataset\n")
	}

	ds, err := LoadDataset(data)

	if err != nil {
		// training can still resolve the dataset, only the summary is lost
		t.log.Warnw("could not summarize dataset", "error", err)
	} else {
		fmt.Fprintf(t.out, "Dataset: %s\n", ds)
	}

	res := Result{
		Dataset:   data,
		Augmented: augmented,
		Weights:   cfg.BestWeights(),
	}

	fmt.Fprintf(t.out, "Starting training...\n\n")

	if err := t.runner.Run(ctx, cfg.YOLO, cfg.TrainArgs(data), t.out); err != nil {
		return res, fmt.Errorf("training failed: %w", err)
	}

	fmt.Fprintf(t.out, "\nEvaluating on test set...\n")

	var valOut bytes.Buffer

	if err := t.runner.Run(ctx, cfg.YOLO, cfg.ValArgs(res.Weights, data),
		io.MultiWriter(t.out, &valOut)); err != nil {
		return res, fmt.Errorf("evaluation failed: %w", err)
	}

	res.Metrics, err = ParseMetrics(valOut.String())

	if err != nil {
		return res, err
	}

	fmt.Fprintf(t.out, "\nTraining Complete!\n")
	fmt.Fprintf(t.out, "Results saved to: %s/\n", cfg.RunDir())
	fmt.Fprintf(t.out, "mAP@0.5: %.4f\n", res.Metrics.MAP50)
	fmt.Fprintf(t.out, "mAP@0.5:0.95: %.4f\n", res.Metrics.MAP50_95)

	for _, c := range res.Metrics.Classes {
		t.log.Infow("class metrics", "class", c.Class, "mAP50", c.MAP50, "mAP50-95", c.MAP50_95)
	}

	if !cfg.Export {
		return res, nil
	}

	fmt.Fprintf(t.out, "\nExporting model to ONNX format...\n")

	if err := t.runner.Run(ctx, cfg.YOLO, cfg.ExportArgs(res.Weights), t.out); err != nil {
		return res, fmt.Errorf("export failed: %w", err)
	}

	res.ONNX = strings.TrimSuffix(res.Weights, filepath.Ext(res.Weights)) + ".onnx"
	fmt.Fprintf(t.out, "ONNX model saved to: %s\n", res.ONNX)

	return res, nil
}
