package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info passes info", log.InfoLevel, func(l *log.Logger) { l.Info("fetched") }, true},
		{"info drops debug", log.InfoLevel, func(l *log.Logger) { l.Debug("page", "offset", 200) }, false},
		{"debug passes debug", log.DebugLevel, func(l *log.Logger) { l.Debug("page", "offset", 200) }, true},
		{"warn drops info", log.WarnLevel, func(l *log.Logger) { l.Info("fetched") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("fetched", "site", "fra1", "devices", 12)

	out := buf.String()
	for _, want := range []string{"fetched", "site=fra1", "devices=12", "duration="} {
		if !strings.Contains(out, want) {
			t.Errorf("progress.done() output %q does not contain %q", out, want)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)

	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Errorf("loggerFromContext() = %p, want %p", got, l)
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Errorf("loggerFromContext(empty) = %p, want log.Default()", got)
	}
	//nolint:staticcheck
	if got := loggerFromContext(withLogger(nil, l)); got != l {
		t.Errorf("withLogger(nil) lost the logger")
	}
}
