package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/pearcec/calagent/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "console info", cfg: config.LogConfig{Level: "info", Format: "console"}, wantLevel: zapcore.InfoLevel},
		{name: "json debug", cfg: config.LogConfig{Level: "DEBUG", Format: "json"}, wantLevel: zapcore.DebugLevel},
		{name: "warn", cfg: config.LogConfig{Level: "warn"}, wantLevel: zapcore.WarnLevel},
		{name: "bad level", cfg: config.LogConfig{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("level %s should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("level %s should be disabled", tt.wantLevel-1)
			}
		})
	}
}
