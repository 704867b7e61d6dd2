package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cli_logger = zap.NewNop()

// Logs go to stderr so they do not mix with the JSON on stdout.
func newLogger(verbose bool, format string) (*zap.Logger, error) {
	var config zap.Config

	if format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.TimeKey = ""
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	}

	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("gomft"), nil
}
