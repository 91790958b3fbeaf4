// Package logging builds the zap loggers used by the CLI and server.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and minimum level.
type Config struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// New builds a logger with the default level for the mode.
func New(development bool) (*zap.Logger, error) {
	return Build(Config{Development: development})
}

// Build returns a console logger with coloured levels in development mode and
// a JSON logger otherwise. An empty Level keeps the mode's default.
func Build(cfg Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.EncoderConfig.TimeKey = "ts"
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
