package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/logging"
)

func TestHousekeepingRunOnce(t *testing.T) {
	dir := t.TempDir()
	rotated := []string{
		logging.BaseName + "-2026-01-01.log.gz",
		logging.BaseName + "-2026-01-02.log.gz",
		logging.BaseName + "-2026-01-03.log.gz",
	}
	for _, name := range rotated {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	vacuumed := false
	h := &Housekeeping{
		LogsDir: dir,
		Keep:    1,
		Vacuum:  func() error { vacuumed = true; return nil },
		Log:     zerolog.Nop(),
	}
	h.runOnce()

	if !vacuumed {
		t.Error("runOnce did not vacuum the state database")
	}
	for i, name := range rotated {
		_, err := os.Stat(filepath.Join(dir, name))
		if i < 2 && !os.IsNotExist(err) {
			t.Errorf("old rotated file %s still present", name)
		}
		if i == 2 && err != nil {
			t.Errorf("newest rotated file %s was removed: %v", name, err)
		}
	}
}

func TestHousekeepingToleratesVacuumError(t *testing.T) {
	h := &Housekeeping{
		LogsDir: t.TempDir(),
		Keep:    1,
		Vacuum:  func() error { return errors.New("database is locked") },
		Log:     zerolog.Nop(),
	}
	h.runOnce()
}

func TestHousekeepingStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Housekeeping{LogsDir: t.TempDir(), Keep: 1, Log: zerolog.Nop()}
	h.Start(ctx)
	cancel()
	// The loop exits on ctx; give the goroutine a moment to observe it.
	time.Sleep(20 * time.Millisecond)
}
