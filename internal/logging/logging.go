// Package logging builds the zap logger shared by every calagent component.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pearcec/calagent/internal/config"
)

// New builds a logger from cfg. Format "json" produces production-style
// structured output; anything else produces the console encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.MessageKey = "message"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if cfg.Format == "json" {
		zc.Encoding = "json"
		zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	} else {
		zc.Encoding = "console"
		zc.DisableStacktrace = true
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
