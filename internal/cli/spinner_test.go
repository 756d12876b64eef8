package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer lets the spinner goroutine and the test share output.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerShowsMessage(t *testing.T) {
	var out lockedBuffer
	s := startSpinnerTo(context.Background(), &out, "Rendering lab.json...")
	time.Sleep(4 * frameInterval)
	s.stop()

	got := out.String()
	if !strings.Contains(got, "Rendering lab.json...") {
		t.Errorf("spinner output %q does not contain the message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("spinner output %q does not end by clearing the line", got)
	}
}

func TestSpinnerStop(t *testing.T) {
	tests := []struct {
		name   string
		cancel bool
	}{
		{"running", false},
		{"context done", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			s := startSpinnerTo(ctx, io.Discard, "Loading sites...")
			if tt.cancel {
				cancel()
			}

			done := make(chan struct{})
			go func() {
				s.stop()
				s.stop()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("stop() blocked")
			}
		})
	}
}

func TestSpinnerFail(t *testing.T) {
	var out lockedBuffer
	s := startSpinnerTo(context.Background(), &out, "Rendering...")
	s.fail("layout failed")
	s.stop()

	if strings.Contains(out.String(), "layout failed") {
		t.Error("fail() wrote the error to the spinner line")
	}
}
