package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

func TestRotatingWriterRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	w := &RotatingWriter{dir: dir, base: BaseName, keep: 5, now: func() time.Time { return current }}
	if err := w.open(); err != nil {
		t.Fatalf("open() error = %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("line one\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	current = current.Add(2 * time.Minute) // crosses midnight
	if _, err := w.Write([]byte("line two\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	live, err := os.ReadFile(filepath.Join(dir, BaseName+".log"))
	if err != nil {
		t.Fatalf("ReadFile(live) error = %v", err)
	}
	if string(live) != "line two\n" {
		t.Errorf("live log = %q, want %q", live, "line two\n")
	}

	gzPath := filepath.Join(dir, BaseName+"-2026-03-01.log.gz")
	f, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", gzPath, err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	rotated, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll(gzip) error = %v", err)
	}
	if string(rotated) != "line one\n" {
		t.Errorf("rotated log = %q, want %q", rotated, "line one\n")
	}

	if _, err := os.Stat(filepath.Join(dir, BaseName+"-2026-03-01.log")); !os.IsNotExist(err) {
		t.Errorf("uncompressed rotated file still present, err = %v", err)
	}
}

func TestRotatingWriterSameDayNoRotation(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	w := &RotatingWriter{dir: dir, base: BaseName, keep: 5, now: func() time.Time { return current }}
	if err := w.open(); err != nil {
		t.Fatalf("open() error = %v", err)
	}
	defer w.Close()

	w.Write([]byte("a\n"))
	current = current.Add(8 * time.Hour)
	w.Write([]byte("b\n"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1 (no rotation within a day)", len(entries))
	}
}

func TestPruneRotated(t *testing.T) {
	dir := t.TempDir()
	days := []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-04", "2026-01-05"}
	for _, day := range days {
		name := filepath.Join(dir, BaseName+"-"+day+".log.gz")
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}
	// Unrelated files must survive pruning.
	os.WriteFile(filepath.Join(dir, BaseName+".log"), []byte("live"), 0644)
	os.WriteFile(filepath.Join(dir, "other.log.gz"), []byte("x"), 0644)

	removed := PruneRotated(dir, BaseName, 2)
	if removed != 3 {
		t.Errorf("PruneRotated() = %d, want 3", removed)
	}

	for _, day := range days[:3] {
		if _, err := os.Stat(filepath.Join(dir, BaseName+"-"+day+".log.gz")); !os.IsNotExist(err) {
			t.Errorf("%s not pruned", day)
		}
	}
	for _, day := range days[3:] {
		if _, err := os.Stat(filepath.Join(dir, BaseName+"-"+day+".log.gz")); err != nil {
			t.Errorf("%s pruned, want kept", day)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, BaseName+".log")); err != nil {
		t.Error("live log removed by pruning")
	}
	if _, err := os.Stat(filepath.Join(dir, "other.log.gz")); err != nil {
		t.Error("unrelated file removed by pruning")
	}
}

func TestNewLoggerFileSinkGetsJSON(t *testing.T) {
	var file bytes.Buffer
	log := New(io.Discard, &file, zerolog.InfoLevel)

	comp := Component(log, "server")
	comp.Info().Msg("hello")

	out := file.String()
	for _, want := range []string{`"message":"hello"`, `"component":"server"`, `"level":"info"`} {
		if !strings.Contains(out, want) {
			t.Errorf("file sink output %q missing %q", out, want)
		}
	}
}
