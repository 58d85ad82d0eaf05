package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/logging"
)

const (
	housekeepingDelay    = 1 * time.Minute
	housekeepingInterval = 24 * time.Hour
)

// Housekeeping runs the shell's daily maintenance: pruning rotated log
// files past retention and compacting the state database.
type Housekeeping struct {
	LogsDir string
	Keep    int
	Vacuum  func() error
	Log     zerolog.Logger
}

// Start launches the maintenance loop in a goroutine. The first run is
// delayed so startup stays quick; the loop ends with ctx.
func (h *Housekeeping) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(housekeepingDelay):
		}
		h.runOnce()

		ticker := time.NewTicker(housekeepingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.Log.Info().Msg("Housekeeping stopped")
				return
			case <-ticker.C:
				h.runOnce()
			}
		}
	}()
	h.Log.Info().Msg("Housekeeping started (daily)")
}

func (h *Housekeeping) runOnce() {
	if removed := logging.PruneRotated(h.LogsDir, logging.BaseName, h.Keep); removed > 0 {
		h.Log.Info().Int("removed", removed).Msg("Pruned rotated log files")
	}
	if h.Vacuum != nil {
		if err := h.Vacuum(); err != nil {
			h.Log.Warn().Err(err).Msg("State database vacuum failed")
		}
	}
}
