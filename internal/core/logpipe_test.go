package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLineWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(zerolog.New(&buf), zerolog.InfoLevel)

	for _, chunk := range []string{"hel", "lo\nwor", "ld\n"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write(%q) error = %v", chunk, err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"message":"hello"`) {
		t.Errorf("first line = %s, want message hello", lines[0])
	}
	if !strings.Contains(lines[1], `"message":"world"`) {
		t.Errorf("second line = %s, want message world", lines[1])
	}
}

func TestLineWriterBuffersPartialLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(zerolog.New(&buf), zerolog.InfoLevel)

	w.Write([]byte("no newline yet"))
	if buf.Len() != 0 {
		t.Fatalf("partial line was emitted early: %s", buf.String())
	}

	w.Flush()
	if !strings.Contains(buf.String(), `"message":"no newline yet"`) {
		t.Errorf("Flush() output = %s, want buffered line", buf.String())
	}
}

func TestLineWriterTrimsCarriageReturn(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(zerolog.New(&buf), zerolog.WarnLevel)

	w.Write([]byte("windows line\r\n"))
	out := buf.String()
	if !strings.Contains(out, `"message":"windows line"`) {
		t.Errorf("output = %s, want trimmed message", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("output = %s, want warn level", out)
	}
}

func TestLineWriterSkipsEmptyLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(zerolog.New(&buf), zerolog.InfoLevel)

	w.Write([]byte("\n\r\n\n"))
	w.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty lines were logged: %s", buf.String())
	}
}
