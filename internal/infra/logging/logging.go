// Package logging builds the process-wide zap logger from configuration.
package logging

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format values accepted by Config.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ErrUnknownFormat is returned for a Format other than json or console.
var ErrUnknownFormat = errors.New("logging: unknown format")

// Config selects the minimum level and the encoder.
type Config struct {
	Level  string // LOG_LEVEL: debug, info, warn, error. Empty = info.
	Format string // LOG_FORMAT: json or console. Empty = json.
}

// New returns a logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	zc, err := zapConfig(cfg)
	if err != nil {
		return nil, err
	}
	return zc.Build()
}

func zapConfig(cfg Config) (zap.Config, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return zap.Config{}, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
		}
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON:
		zc = zap.NewProductionConfig()
	case FormatConsole:
		zc = zap.NewDevelopmentConfig()
	default:
		return zap.Config{}, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}
	zc.Level = level
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc, nil
}
