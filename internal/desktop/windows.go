package desktop

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// PrimarySessionID names the window owned by the primary process itself.
const PrimarySessionID = "primary"

// Registry tracks every open window across processes: the primary's own
// window plus one entry per attached session reported by the control hub.
// When the last window goes away it fires onEmpty exactly once, which is
// the only path that makes the application eligible to exit.
type Registry struct {
	log         zerolog.Logger
	onEmpty     func()
	onNavigated func(id, url string)

	mu      sync.Mutex
	windows map[string]domain.WindowInfo
	emptied bool
}

// NewRegistry builds a registry. onEmpty runs on its own goroutine so hub
// callbacks never block; onNavigated receives every URL change.
func NewRegistry(log zerolog.Logger, onEmpty func(), onNavigated func(id, url string)) *Registry {
	return &Registry{
		log:         log,
		onEmpty:     onEmpty,
		onNavigated: onNavigated,
		windows:     make(map[string]domain.WindowInfo),
	}
}

// Add registers a window.
func (r *Registry) Add(info domain.WindowInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[info.ID] = info
	r.log.Info().Str("window", info.ID).Str("role", string(info.Role)).Int("open", len(r.windows)).Msg("Window opened")
}

// Remove drops a window and fires onEmpty when it was the last one.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	if _, ok := r.windows[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.windows, id)
	remaining := len(r.windows)
	fire := remaining == 0 && !r.emptied
	if fire {
		r.emptied = true
	}
	r.mu.Unlock()

	r.log.Info().Str("window", id).Int("open", remaining).Msg("Window closed")
	if fire && r.onEmpty != nil {
		go r.onEmpty()
	}
}

// Count returns the number of open windows.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

// Has reports whether a window with this id is open.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.windows[id]
	return ok
}

// Windows lists open windows ordered by opening time.
func (r *Registry) Windows() []domain.WindowInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]domain.WindowInfo, 0, len(r.windows))
	for _, info := range r.windows {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].OpenedAt.Before(list[j].OpenedAt) })
	return list
}

// SessionOpened implements control.SessionEvents.
func (r *Registry) SessionOpened(id string, pid int) {
	r.Add(domain.WindowInfo{
		ID:       id,
		Role:     domain.WindowRoleAttached,
		PID:      pid,
		OpenedAt: time.Now(),
	})
}

// SessionNavigated implements control.SessionEvents.
func (r *Registry) SessionNavigated(id, url string) {
	r.mu.Lock()
	if info, ok := r.windows[id]; ok {
		info.URL = url
		r.windows[id] = info
	}
	r.mu.Unlock()
	if r.onNavigated != nil {
		r.onNavigated(id, url)
	}
}

// SessionClosed implements control.SessionEvents.
func (r *Registry) SessionClosed(id string) {
	r.Remove(id)
}
