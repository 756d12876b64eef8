package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestWriteCompletion(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	for _, shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeCompletion(root, &buf, shell); err != nil {
				t.Fatalf("writeCompletion(%s) error: %v", shell, err)
			}
			if !strings.Contains(buf.String(), "kabelplan") {
				t.Errorf("%s script does not mention kabelplan", shell)
			}
		})
	}
	if err := writeCompletion(root, io.Discard, "tcsh"); err == nil {
		t.Error("writeCompletion(tcsh) error = nil, want error")
	}
}

func TestCompletionWithoutConfig(t *testing.T) {
	t.Setenv("KABELPLAN_CONFIG", "/does/not/exist.toml")
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(out, "__start_kabelplan") {
		t.Error("bash completion script missing entry point")
	}
}
