// Command f1-video processes F1 race footage frame by frame, overlaying
// penalty detections and live statistics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/f1vision/penaltyvision/internal/cmdutil"
	"github.com/f1vision/penaltyvision/internal/logging"
	"github.com/f1vision/penaltyvision/postprocess"
	"github.com/f1vision/penaltyvision/processor"
)

const (
	flagVideo        = "video"
	flagOutput       = "output"
	flagConfidence   = "confidence"
	flagNoDisplay    = "no-display"
	flagStream       = "stream"
	flagPenaltyClass = "penalty-class"
	flagTitle        = "title"
)

func main() {

	app := &cli.App{
		Name:  "f1-video",
		Usage: "F1 penalty detection, real-time video processing",
		Flags: append(cmdutil.EngineFlags(),
			&cli.StringFlag{
				Name:     flagVideo,
				Aliases:  []string{"v"},
				Required: true,
				Usage:    "input video `FILE`",
			},
			&cli.StringFlag{
				Name:    flagOutput,
				Aliases: []string{"o"},
				Usage:   "save the annotated video to `FILE`",
			},
			&cli.Float64Flag{
				Name:    flagConfidence,
				Aliases: []string{"c"},
				Value:   0.25,
				Usage:   "confidence threshold (0-1)",
			},
			&cli.BoolFlag{
				Name:  flagNoDisplay,
				Usage: "do not display video while processing",
			},
			&cli.StringFlag{
				Name:  flagStream,
				Usage: "serve the annotated frames as MJPEG on `ADDR`, such as :8080",
			},
			&cli.IntFlag{
				Name:  flagPenaltyClass,
				Value: processor.DefaultConfig().PenaltyClass,
				Usage: "class index counted as a penalty",
			},
			&cli.StringFlag{
				Name:  flagTitle,
				Value: processor.DefaultConfig().Title,
				Usage: "heading of the statistics panel",
			},
		),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("f1-video", false).Fatal(err)
	}
}

func run(c *cli.Context) (err error) {

	log := logging.NewLogger("f1-video", c.Bool(cmdutil.FlagDebug))
	defer log.Sync()

	setup, err := cmdutil.NewSetup(c, log)

	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, setup.Close())
	}()

	fmt.Printf("Loading model from: %s\n", setup.Options.ModelFile)

	engine, err := setup.Open()

	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, engine.Close())
	}()

	cfg := processor.DefaultConfig()
	cfg.Confidence = float32(c.Float64(flagConfidence))
	cfg.PenaltyClass = c.Int(flagPenaltyClass)
	cfg.Title = c.String(flagTitle)

	params := postprocess.YOLOv8PenaltyParams()
	params.ObjectClassNum = len(setup.Labels)

	proc := processor.New(engine, postprocess.NewYOLOv8(params), setup.Labels, cfg, log)

	defer func() {
		err = multierr.Append(err, proc.Close())
	}()

	fmt.Printf("Model loaded on device: %s\n", setup.Options.Device)
	fmt.Printf("Confidence threshold: %.2f\n", cfg.Confidence)

	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	var sinks []processor.Sink

	if addr := c.String(flagStream); addr != "" {
		stream := processor.NewMJPEGStream(proc.Stats, log)
		defer stream.Close()

		go func() {
			if err := stream.ListenAndServe(ctx, addr); err != nil {
				log.Errorw("stream server stopped", "error", err)
			}
		}()

		sinks = append(sinks, stream)
	}

	_, err = proc.ProcessVideo(ctx, c.String(flagVideo), c.String(flagOutput),
		!c.Bool(flagNoDisplay), sinks...)

	if errors.Is(err, context.Canceled) {
		// interrupted runs still print their summary
		return nil
	}

	return err
}
