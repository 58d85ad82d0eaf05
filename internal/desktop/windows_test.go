package desktop

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/domain"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry(zerolog.Nop(), nil, nil)
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", r.Count())
	}

	r.Add(domain.WindowInfo{ID: "a", Role: domain.WindowRolePrimary, OpenedAt: time.Now()})
	r.Add(domain.WindowInfo{ID: "b", Role: domain.WindowRoleAttached, OpenedAt: time.Now()})
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}

	r.Remove("a")
	if r.Count() != 1 {
		t.Fatalf("Count() after remove = %d, want 1", r.Count())
	}

	r.Remove("missing")
	if r.Count() != 1 {
		t.Fatalf("Count() after removing unknown id = %d, want 1", r.Count())
	}
}

func TestRegistryOnEmptyFiresOnce(t *testing.T) {
	fired := make(chan struct{}, 4)
	r := NewRegistry(zerolog.Nop(), func() { fired <- struct{}{} }, nil)

	r.Add(domain.WindowInfo{ID: "a", OpenedAt: time.Now()})
	r.Add(domain.WindowInfo{ID: "b", OpenedAt: time.Now()})
	r.Remove("a")

	select {
	case <-fired:
		t.Fatal("onEmpty fired while a window was still open")
	case <-time.After(50 * time.Millisecond):
	}

	r.Remove("b")
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("onEmpty did not fire after the last window closed")
	}

	// A late window must not rearm the shutdown path.
	r.Add(domain.WindowInfo{ID: "c", OpenedAt: time.Now()})
	r.Remove("c")
	select {
	case <-fired:
		t.Fatal("onEmpty fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegistrySessionEvents(t *testing.T) {
	type nav struct{ id, url string }
	navs := make(chan nav, 4)
	r := NewRegistry(zerolog.Nop(), nil, func(id, url string) { navs <- nav{id, url} })

	r.SessionOpened("sess-1", 4242)
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	got := r.Windows()[0]
	if got.ID != "sess-1" || got.Role != domain.WindowRoleAttached || got.PID != 4242 {
		t.Fatalf("Windows()[0] = %+v", got)
	}

	r.SessionNavigated("sess-1", "http://127.0.0.1:5000/en/learn/")
	select {
	case n := <-navs:
		if n.id != "sess-1" || n.url != "http://127.0.0.1:5000/en/learn/" {
			t.Fatalf("onNavigated got %+v", n)
		}
	default:
		t.Fatal("onNavigated was not invoked")
	}
	if got := r.Windows()[0].URL; got != "http://127.0.0.1:5000/en/learn/" {
		t.Fatalf("window URL = %q", got)
	}

	r.SessionClosed("sess-1")
	if r.Count() != 0 {
		t.Fatalf("Count() after close = %d, want 0", r.Count())
	}
}

func TestRegistryWindowsOrdered(t *testing.T) {
	r := NewRegistry(zerolog.Nop(), nil, nil)
	base := time.Now()
	r.Add(domain.WindowInfo{ID: "late", OpenedAt: base.Add(2 * time.Second)})
	r.Add(domain.WindowInfo{ID: "first", OpenedAt: base})
	r.Add(domain.WindowInfo{ID: "mid", OpenedAt: base.Add(time.Second)})

	list := r.Windows()
	want := []string{"first", "mid", "late"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("Windows()[%d].ID = %q, want %q", i, list[i].ID, id)
		}
	}
}
