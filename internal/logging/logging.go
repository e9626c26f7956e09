// Package logging installs the process-wide logger. Call sites use log/slog; records
// are written by a zap core.
package logging

import (
	"fmt"
	"log"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/tradelens/hts-tracker/internal/config"
)

// Setup builds a zap logger from cfg, installs it as the zap global and as the slog
// default handler, and returns a function that flushes it.
func Setup(cfg config.LogConfig) (func(), error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	slog.SetDefault(slog.New(NewHandler(logger.Core())))

	cleanup := func() {
		if err := logger.Sync(); err != nil && !isIgnorableSyncError(err) {
			log.Printf("failed to sync logger: %v", err)
		}
	}
	return cleanup, nil
}

// NewHandler adapts a zap core to slog.
func NewHandler(core zapcore.Core) slog.Handler {
	return zapslog.NewHandler(core, zapslog.WithCaller(true))
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unsupported log format: %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// stdout/stderr on a terminal cannot be fsync'd.
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "inappropriate ioctl for device") ||
		strings.Contains(msg, "invalid argument")
}
