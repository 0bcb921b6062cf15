package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env     string
		debugOn bool
	}{
		{env: "production", debugOn: false},
		{env: "development", debugOn: true},
		{env: "", debugOn: true},
	}

	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			logger, err := New(tc.env)
			if err != nil {
				t.Fatalf("New(%q): %v", tc.env, err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.debugOn {
				t.Errorf("debug enabled: got %v, want %v", got, tc.debugOn)
			}
		})
	}
}
