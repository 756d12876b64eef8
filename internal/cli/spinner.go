package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var brailleFrames = []rune("⣾⣽⣻⢿⡿⣟⣯⣷")

const frameInterval = 90 * time.Millisecond

// spinner animates a status line on stderr while a NetBox fetch or a
// render runs. It ends when stopped or when its context is done.
type spinner struct {
	w        io.Writer
	msg      string
	quit     chan struct{}
	finished chan struct{}
	once     sync.Once
}

// startSpinner draws msg next to a spinning glyph until stop is called.
func startSpinner(ctx context.Context, msg string) *spinner {
	return startSpinnerTo(ctx, os.Stderr, msg)
}

func startSpinnerTo(ctx context.Context, w io.Writer, msg string) *spinner {
	s := &spinner{
		w:        w,
		msg:      msg,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.finished)
	tick := time.NewTicker(frameInterval)
	defer tick.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-tick.C:
			glyph := string(brailleFrames[frame%len(brailleFrames)])
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(glyph), StyleDim.Render(s.msg))
			frame++
		}
	}
}

// stop ends the animation and blanks the line. Later calls do nothing.
func (s *spinner) stop() {
	s.once.Do(func() {
		close(s.quit)
		<-s.finished
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len([]rune(s.msg))+2))
	})
}

// fail stops the spinner and prints msg as an error line.
func (s *spinner) fail(msg string) {
	s.stop()
	printError("%s", msg)
}
