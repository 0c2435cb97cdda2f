// Command f1-train fits a YOLOv8 detector to the F1 penalty dataset,
// evaluates it on the test split and exports the best weights to ONNX.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/internal/cmdutil"
	"github.com/f1vision/penaltyvision/internal/logging"
	"github.com/f1vision/penaltyvision/train"
)

const (
	flagConfig   = "config"
	flagData     = "data"
	flagModel    = "model"
	flagEpochs   = "epochs"
	flagBatch    = "batch"
	flagDevice   = "device"
	flagName     = "name"
	flagYOLO     = "yolo"
	flagNoExport = "no-export"
	flagDebug    = "debug"
)

func main() {

	defaults := train.DefaultConfig()

	app := &cli.App{
		Name:  "f1-train",
		Usage: "train the F1 penalty detector",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load training settings from YAML `FILE`",
			},
			&cli.StringFlag{
				Name:  flagData,
				Value: defaults.DatasetDir,
				Usage: "dataset `DIR` holding data.yaml or data_augmented.yaml",
			},
			&cli.StringFlag{
				Name:    flagModel,
				Aliases: []string{"m"},
				Value:   defaults.Model,
				Usage:   "starting weights",
			},
			&cli.IntFlag{
				Name:  flagEpochs,
				Value: defaults.Epochs,
			},
			&cli.IntFlag{
				Name:  flagBatch,
				Value: defaults.Batch,
			},
			&cli.StringFlag{
				Name:    flagDevice,
				Aliases: []string{"d"},
				Value:   string(defaults.Device),
				Usage:   "auto, cuda, cpu or mps",
			},
			&cli.StringFlag{
				Name:  flagName,
				Value: defaults.Name,
				Usage: "experiment name under the project directory",
			},
			&cli.StringFlag{
				Name:    flagYOLO,
				Value:   defaults.YOLO,
				EnvVars: []string{"YOLO_BIN"},
				Usage:   "Ultralytics yolo `EXECUTABLE`",
			},
			&cli.BoolFlag{
				Name:  flagNoExport,
				Usage: "skip ONNX export",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("f1-train", false).Fatal(err)
	}
}

// loadConfig builds the training settings, flags given on the command line
// take precedence over the YAML file
func loadConfig(c *cli.Context) (train.Config, error) {

	cfg := train.DefaultConfig()

	if file := c.String(flagConfig); file != "" {
		var err error

		if cfg, err = train.LoadConfig(file); err != nil {
			return cfg, err
		}
	}

	if c.IsSet(flagData) {
		cfg.DatasetDir = c.String(flagData)
	}

	if c.IsSet(flagModel) {
		cfg.Model = c.String(flagModel)
	}

	if c.IsSet(flagEpochs) {
		cfg.Epochs = c.Int(flagEpochs)
	}

	if c.IsSet(flagBatch) {
		cfg.Batch = c.Int(flagBatch)
	}

	if c.IsSet(flagName) {
		cfg.Name = c.String(flagName)
	}

	if c.IsSet(flagYOLO) {
		cfg.YOLO = c.String(flagYOLO)
	}

	if c.IsSet(flagDevice) {
		device, err := penaltyvision.ParseDevice(c.String(flagDevice))

		if err != nil {
			return cfg, err
		}

		cfg.Device = device
	}

	if c.Bool(flagNoExport) {
		cfg.Export = false
	}

	return cfg, nil
}

func run(c *cli.Context) error {

	log := logging.NewLogger("f1-train", c.Bool(flagDebug))
	defer log.Sync()

	cfg, err := loadConfig(c)

	if err != nil {
		return err
	}

	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	trainer := train.NewTrainer(cfg, train.ExecRunner{Log: log}, os.Stdout, log)

	res, err := trainer.Run(ctx)

	if err != nil {
		return err
	}

	log.Infow("training finished", "weights", res.Weights, "onnx", res.ONNX,
		"mAP50", res.Metrics.MAP50, "mAP50-95", res.Metrics.MAP50_95)

	return nil
}
