// Package train drives model fitting, test split evaluation and ONNX export
// through the Ultralytics yolo command line.
package train

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/f1vision/penaltyvision"
)

// Config holds every setting passed to the training run
type Config struct {
	// DatasetDir contains data.yaml and optionally data_augmented.yaml
	DatasetDir string `yaml:"dataset_dir"`
	// YOLO is the yolo executable
	YOLO string `yaml:"yolo"`
	// Export writes best weights to ONNX after evaluation
	Export bool `yaml:"export"`

	Model    string               `yaml:"model"`
	Epochs   int                  `yaml:"epochs"`
	ImgSize  int                  `yaml:"imgsz"`
	Batch    int                  `yaml:"batch"`
	Patience int                  `yaml:"patience"`
	Save     bool                 `yaml:"save"`
	Device   penaltyvision.Device `yaml:"device"`
	Project  string               `yaml:"project"`
	Name     string               `yaml:"name"`
	ExistOK  bool                 `yaml:"exist_ok"`

	// augmentation
	HSVH        float64 `yaml:"hsv_h"`
	HSVS        float64 `yaml:"hsv_s"`
	HSVV        float64 `yaml:"hsv_v"`
	Degrees     float64 `yaml:"degrees"`
	Translate   float64 `yaml:"translate"`
	Scale       float64 `yaml:"scale"`
	Shear       float64 `yaml:"shear"`
	Perspective float64 `yaml:"perspective"`
	FlipUD      float64 `yaml:"flipud"`
	FlipLR      float64 `yaml:"fliplr"`
	Mosaic      float64 `yaml:"mosaic"`
	Mixup       float64 `yaml:"mixup"`

	// optimization
	Optimizer    string  `yaml:"optimizer"`
	LR0          float64 `yaml:"lr0"`
	LRF          float64 `yaml:"lrf"`
	Momentum     float64 `yaml:"momentum"`
	WeightDecay  float64 `yaml:"weight_decay"`
	WarmupEpochs float64 `yaml:"warmup_epochs"`

	Verbose bool `yaml:"verbose"`
	Seed    int  `yaml:"seed"`
}

// DefaultConfig returns the baseline YOLOv8 nano training settings for the
// F1 penalty dataset
func DefaultConfig() Config {
	return Config{
		DatasetDir: "Formula 1.v1i.yolov8",
		YOLO:       "yolo",
		Export:     true,

		Model:    "yolov8n.pt",
		Epochs:   50,
		ImgSize:  640,
		Batch:    16,
		Patience: 10,
		Save:     true,
		Device:   penaltyvision.DeviceAuto,
		Project:  "runs/f1_penalty",
		Name:     "yolov8n_baseline",
		ExistOK:  true,

		HSVH:        0.015,
		HSVS:        0.7,
		HSVV:        0.4,
		Degrees:     10,
		Translate:   0.1,
		Scale:       0.5,
		Shear:       0,
		Perspective: 0,
		FlipUD:      0,
		FlipLR:      0.5,
		Mosaic:      1.0,
		Mixup:       0.1,

		Optimizer:    "AdamW",
		LR0:          0.01,
		LRF:          0.01,
		Momentum:     0.937,
		WeightDecay:  0.0005,
		WarmupEpochs: 3,

		Verbose: true,
		Seed:    42,
	}
}

// LoadConfig reads a YAML file of settings over the defaults.  Unknown keys
// are rejected so misspelt hyperparameters are not silently ignored.
func LoadConfig(file string) (Config, error) {

	cfg := DefaultConfig()

	buf, err := os.ReadFile(file)

	if err != nil {
		return cfg, fmt.Errorf("error reading training config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("error parsing training config %s: %w", file, err)
	}

	if _, err := penaltyvision.ParseDevice(string(cfg.Device)); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the settings are usable
func (c Config) Validate() error {

	switch {
	case c.Model == "":
		return errors.New("model must be set")
	case c.Epochs < 1:
		return fmt.Errorf("epochs must be at least 1, got %d", c.Epochs)
	case c.ImgSize < 32 || c.ImgSize%32 != 0:
		return fmt.Errorf("imgsz must be a multiple of 32, got %d", c.ImgSize)
	case c.Batch == 0 || c.Batch < -1:
		return fmt.Errorf("batch must be positive or -1 for auto, got %d", c.Batch)
	case c.Project == "" || c.Name == "":
		return errors.New("project and name must be set")
	}

	return nil
}

// TrainArgs returns the yolo command line arguments for training on the
// dataset file
func (c Config) TrainArgs(data string) []string {
	return []string{
		"detect", "train",
		kv("data", data),
		kv("model", c.Model),
		kv("epochs", strconv.Itoa(c.Epochs)),
		kv("imgsz", strconv.Itoa(c.ImgSize)),
		kv("batch", strconv.Itoa(c.Batch)),
		kv("patience", strconv.Itoa(c.Patience)),
		kv("save", pyBool(c.Save)),
		kv("device", c.Device.YOLOArg()),
		kv("project", c.Project),
		kv("name", c.Name),
		kv("exist_ok", pyBool(c.ExistOK)),
		kv("hsv_h", fmtFloat(c.HSVH)),
		kv("hsv_s", fmtFloat(c.HSVS)),
		kv("hsv_v", fmtFloat(c.HSVV)),
		kv("degrees", fmtFloat(c.Degrees)),
		kv("translate", fmtFloat(c.Translate)),
		kv("scale", fmtFloat(c.Scale)),
		kv("shear", fmtFloat(c.Shear)),
		kv("perspective", fmtFloat(c.Perspective)),
		kv("flipud", fmtFloat(c.FlipUD)),
		kv("fliplr", fmtFloat(c.FlipLR)),
		kv("mosaic", fmtFloat(c.Mosaic)),
		kv("mixup", fmtFloat(c.Mixup)),
		kv("optimizer", c.Optimizer),
		kv("lr0", fmtFloat(c.LR0)),
		kv("lrf", fmtFloat(c.LRF)),
		kv("momentum", fmtFloat(c.Momentum)),
		kv("weight_decay", fmtFloat(c.WeightDecay)),
		kv("warmup_epochs", fmtFloat(c.WarmupEpochs)),
		kv("verbose", pyBool(c.Verbose)),
		kv("seed", strconv.Itoa(c.Seed)),
	}
}

// ValArgs returns the yolo arguments evaluating weights on the test split
func (c Config) ValArgs(weights, data string) []string {
	return []string{
		"detect", "val",
		kv("model", weights),
		kv("data", data),
		kv("split", "test"),
		kv("imgsz", strconv.Itoa(c.ImgSize)),
		kv("device", c.Device.YOLOArg()),
	}
}

// ExportArgs returns the yolo arguments converting weights to ONNX
func (c Config) ExportArgs(weights string) []string {
	return []string{
		"export",
		kv("model", weights),
		kv("format", "onnx"),
		kv("imgsz", strconv.Itoa(c.ImgSize)),
	}
}

// RunDir is the directory training results are written to
func (c Config) RunDir() string {
	return filepath.Join(c.Project, c.Name)
}

// BestWeights is the checkpoint with the best validation fitness
func (c Config) BestWeights() string {
	return filepath.Join(c.RunDir(), "weights", "best.pt")
}

func kv(key, value string) string {
	return key + "=" + value
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}

	return "False"
}
