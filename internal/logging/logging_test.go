package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		verbose bool
		debug   bool
		errors  bool
	}{
		{verbose: true, debug: true, errors: true},
		{verbose: false, debug: false, errors: true},
	}
	for _, tc := range cases {
		log, err := New(tc.verbose)
		if err != nil {
			t.Fatalf("New(%v): %v", tc.verbose, err)
		}
		if got := log.Core().Enabled(zapcore.DebugLevel); got != tc.debug {
			t.Errorf("New(%v) debug enabled = %v", tc.verbose, got)
		}
		if log.Core().Enabled(zapcore.WarnLevel) != tc.debug {
			t.Errorf("New(%v) warn enabled mismatch", tc.verbose)
		}
		if got := log.Core().Enabled(zapcore.ErrorLevel); got != tc.errors {
			t.Errorf("New(%v) error enabled = %v", tc.verbose, got)
		}
	}
}
