// Command f1-predict runs a trained penalty model on an image, a directory of
// images, a video file or a webcam.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/f1vision/penaltyvision"
	"github.com/f1vision/penaltyvision/internal/cmdutil"
	"github.com/f1vision/penaltyvision/internal/logging"
	"github.com/f1vision/penaltyvision/predict"
)

const (
	flagSource     = "source"
	flagType       = "type"
	flagSaveDir    = "save-dir"
	flagConfidence = "confidence"
	flagWorkers    = "workers"
	flagInfo       = "info"
)

func main() {

	app := &cli.App{
		Name:  "f1-predict",
		Usage: "F1 penalty detection inference on images, videos or a webcam",
		Flags: append(cmdutil.EngineFlags(),
			&cli.StringFlag{
				Name:     flagSource,
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "image, image directory or video path, or a camera index such as 0",
			},
			&cli.StringFlag{
				Name:    flagType,
				Aliases: []string{"t"},
				Value:   string(predict.ModeImage),
				Usage:   "prediction type, image, video or webcam",
			},
			&cli.StringFlag{
				Name:  flagSaveDir,
				Value: predict.DefaultSaveDir,
				Usage: "save `DIR` for annotated results",
			},
			&cli.Float64Flag{
				Name:    flagConfidence,
				Aliases: []string{"c"},
				Value:   predict.DefaultConfidence,
				Usage:   "confidence threshold (0-1)",
			},
			&cli.IntFlag{
				Name:  flagWorkers,
				Value: 1,
				Usage: "number of models run in parallel on an image directory",
			},
			&cli.BoolFlag{
				Name:  flagInfo,
				Usage: "print model tensor information before predicting",
			},
		),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("f1-predict", false).Fatal(err)
	}
}

func run(c *cli.Context) (err error) {

	log := logging.NewLogger("f1-predict", c.Bool(cmdutil.FlagDebug))
	defer log.Sync()

	mode, err := predict.ParseMode(c.String(flagType))

	if err != nil {
		return err
	}

	source := c.String(flagSource)

	// a camera index always means webcam
	if _, ok := predict.ParseSource(source); ok {
		mode = predict.ModeWebcam
	}

	setup, err := cmdutil.NewSetup(c, log)

	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, setup.Close())
	}()

	fmt.Printf("F1 Penalty Detection - Running Inference\n")
	fmt.Printf("Model: %s\n", setup.Options.ModelFile)
	fmt.Printf("Source: %s\n", source)
	fmt.Printf("Type: %s\n\n", mode)

	size := 1

	if info, statErr := os.Stat(source); mode == predict.ModeImage && statErr == nil && info.IsDir() {
		size = c.Int(flagWorkers)
	}

	pool, err := setup.Pool(size)

	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, pool.Close())
	}()

	if c.Bool(flagInfo) {
		engine := pool.Get()

		if rt, ok := engine.(*penaltyvision.Runtime); ok {
			if err := rt.Query(os.Stdout); err != nil {
				log.Warnw("could not query model", "error", err)
			}
		}

		pool.Return(engine)
	}

	cfg := predict.DefaultConfig()
	cfg.Confidence = float32(c.Float64(flagConfidence))
	cfg.SaveDir = c.String(flagSaveDir)

	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	return predict.New(pool, setup.Labels, cfg, log).Run(ctx, mode, source)
}
