package core

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LineWriter adapts a logger to an io.Writer so child process output can
// be piped into the shell's log one line at a time. Partial lines stay
// buffered until the trailing newline arrives.
type LineWriter struct {
	log   zerolog.Logger
	level zerolog.Level

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLineWriter builds a writer that logs each complete line at level.
func NewLineWriter(log zerolog.Logger, level zerolog.Level) *LineWriter {
	return &LineWriter{log: log, level: level}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// No newline yet; keep the remainder for the next write.
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs whatever is still buffered. Called after the child exits so
// a final unterminated line is not lost.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.log.WithLevel(w.level).Msg(line)
}
