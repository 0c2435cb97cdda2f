package train

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1vision/penaltyvision"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "yolov8n.pt", cfg.Model)
	assert.Equal(t, 50, cfg.Epochs)
	assert.Equal(t, "AdamW", cfg.Optimizer)
	assert.Equal(t, 42, cfg.Seed)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {

	file := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
model: yolov8s.pt
epochs: 100
batch: 32
device: cpu
name: yolov8s_long
mixup: 0.2
`), 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "yolov8s.pt", cfg.Model)
	assert.Equal(t, 100, cfg.Epochs)
	assert.Equal(t, 32, cfg.Batch)
	assert.Equal(t, penaltyvision.DeviceCPU, cfg.Device)
	assert.Equal(t, "yolov8s_long", cfg.Name)
	assert.Equal(t, 0.2, cfg.Mixup)

	// untouched settings keep their defaults
	assert.Equal(t, 0.937, cfg.Momentum)
	assert.Equal(t, "runs/f1_penalty", cfg.Project)
	assert.True(t, cfg.Export)
}

func TestLoadConfigEmpty(t *testing.T) {
	file := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	typo := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("epoch: 10\n"), 0o644))
	_, err = LoadConfig(typo)
	assert.Error(t, err)

	device := filepath.Join(dir, "device.yaml")
	require.NoError(t, os.WriteFile(device, []byte("device: tpu\n"), 0o644))
	_, err = LoadConfig(device)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImgSize = 600
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Epochs = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Batch = -1
	assert.NoError(t, cfg.Validate())
}

func TestTrainArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = penaltyvision.DeviceCPU

	args := cfg.TrainArgs("/data/data.yaml")

	assert.Equal(t, []string{"detect", "train"}, args[:2])
	assert.Contains(t, args, "data=/data/data.yaml")
	assert.Contains(t, args, "model=yolov8n.pt")
	assert.Contains(t, args, "device=cpu")
	assert.Contains(t, args, "exist_ok=True")
	assert.Contains(t, args, "hsv_h=0.015")
	assert.Contains(t, args, "degrees=10")
	assert.Contains(t, args, "shear=0")
	assert.Contains(t, args, "weight_decay=0.0005")
	assert.Contains(t, args, "optimizer=AdamW")
	assert.Contains(t, args, "seed=42")
}

func TestValAndExportArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = penaltyvision.DeviceCUDA

	assert.Equal(t, []string{
		"detect", "val", "model=best.pt", "data=d.yaml", "split=test", "imgsz=640", "device=0",
	}, cfg.ValArgs("best.pt", "d.yaml"))

	assert.Equal(t, []string{
		"export", "model=best.pt", "format=onnx", "imgsz=640",
	}, cfg.ExportArgs("best.pt"))

	assert.Equal(t, filepath.Join("runs", "f1_penalty", "yolov8n_baseline", "weights", "best.pt"),
		cfg.BestWeights())
}
