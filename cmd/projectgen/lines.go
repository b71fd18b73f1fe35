package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// lineReader reads input lines on a background goroutine so a blocked read
// never outlives an interrupt. Close releases the goroutine once its current
// read returns.
type lineReader struct {
	lines chan string
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines: make(chan string),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(lr.done)
		defer close(lr.lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lr.lines <- scanner.Text():
			case <-lr.stop:
				return
			}
		}
	}()
	return lr
}

// Close stops delivering lines.
func (lr *lineReader) Close() {
	lr.once.Do(func() { close(lr.stop) })
}

// ReadLine returns the next line, or false at end of input or when ctx is
// cancelled.
func (lr *lineReader) ReadLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lr.lines:
		return line, ok
	}
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
