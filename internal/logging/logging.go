// Package logging builds the zap loggers shared by the command line tools.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLoggerConfig returns the console logger config used by all binaries.
// Stacktraces are disabled and levels are colored.
func NewLoggerConfig(debug bool) zap.Config {

	level := zap.NewAtomicLevelAt(zap.InfoLevel)

	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return zap.Config{
		Level:    level,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a named sugared logger writing to stderr, falling back to
// a no-op logger if the config cannot be built
func NewLogger(name string, debug bool) *zap.SugaredLogger {

	logger, err := NewLoggerConfig(debug).Build()

	if err != nil {
		return zap.NewNop().Sugar()
	}

	return logger.Named(name).Sugar()
}
