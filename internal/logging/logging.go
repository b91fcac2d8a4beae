// Package logging builds the process logger. Call sites log through
// log/slog; records are encoded by zap.
package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New returns an slog.Logger backed by zap at the given level along with the
// underlying zap.Logger so the caller can Sync it on shutdown. Format is
// "json" or "console".
func New(level, format string) (*slog.Logger, *zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		cfg.Encoding = "json"
	case "console", "text":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", format)
	}

	if level = strings.TrimSpace(level); level == "" {
		level = "info"
	}

	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building zap logger: %w", err)
	}

	handler := zapslog.NewHandler(zl.Core(), zapslog.WithCaller(true))

	return slog.New(handler), zl, nil
}
