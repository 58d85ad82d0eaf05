package desktop

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/config"
	"github.com/learningequality/kolibri-desktop/internal/control"
	"github.com/learningequality/kolibri-desktop/internal/state"
)

func testAppConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Home:         t.TempDir(),
		Port:         5000,
		PollInterval: 10 * time.Millisecond,
		PollWindow:   100 * time.Millisecond,
		PollRetries:  1,
		StopTimeout:  time.Second,
	}
}

func testStore(t *testing.T) *state.GormStore {
	t.Helper()
	store, err := state.Open(filepath.Join(t.TempDir(), "desktop.sqlite3"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewAppRestoresViewState(t *testing.T) {
	store := testStore(t)
	if err := store.SaveZoom(4); err != nil {
		t.Fatalf("SaveZoom: %v", err)
	}
	if err := store.SaveLastURL("http://127.0.0.1:5000/en/learn/"); err != nil {
		t.Fatalf("SaveLastURL: %v", err)
	}

	app := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop(), Store: store})
	if got := app.currentZoom(); got != 4 {
		t.Errorf("currentZoom() = %d, want 4", got)
	}
	if got := app.CurrentURL(); got != "http://127.0.0.1:5000/en/learn/" {
		t.Errorf("CurrentURL() = %q", got)
	}
}

func TestNewAppFreshStateDefaults(t *testing.T) {
	app := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop(), Store: testStore(t)})
	if got := app.currentZoom(); got != ActualSizeLevel {
		t.Errorf("currentZoom() = %d, want %d", got, ActualSizeLevel)
	}
	if got, want := app.CurrentURL(), "http://127.0.0.1:5000"; got != want {
		t.Errorf("CurrentURL() = %q, want %q", got, want)
	}
}

func TestExecJSQueuesUntilDomReady(t *testing.T) {
	app := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop()})
	app.execJS("show_retry();")
	app.execJS("show_error();")

	app.mu.Lock()
	defer app.mu.Unlock()
	if len(app.pendingJS) != 2 {
		t.Fatalf("pendingJS = %v, want 2 queued scripts", app.pendingJS)
	}
	if app.pendingJS[0] != "show_retry();" || app.pendingJS[1] != "show_error();" {
		t.Fatalf("pendingJS = %v", app.pendingJS)
	}
}

func TestOnSessionNavigatedTracksPrimary(t *testing.T) {
	store := testStore(t)
	app := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop(), Store: store})

	app.onSessionNavigated(PrimarySessionID, "http://127.0.0.1:5000/en/device/")
	if got := app.CurrentURL(); got != "http://127.0.0.1:5000/en/device/" {
		t.Errorf("CurrentURL() = %q", got)
	}
	vs, err := store.ViewState()
	if err != nil {
		t.Fatalf("ViewState: %v", err)
	}
	if vs.LastURL != "http://127.0.0.1:5000/en/device/" {
		t.Errorf("saved LastURL = %q", vs.LastURL)
	}

	// Another window's navigation is persisted but does not retarget this one.
	app.onSessionNavigated("sess-2", "http://127.0.0.1:5000/en/coach/")
	if got := app.CurrentURL(); got != "http://127.0.0.1:5000/en/device/" {
		t.Errorf("CurrentURL() after attached navigation = %q", got)
	}
}

func TestCheckServerStatusAttachMode(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.AttachURL = "http://127.0.0.1:5000/en/learn/"
	app := NewApp(Options{Config: cfg, Log: zerolog.Nop()})

	status := app.CheckServerStatus()
	if !status.Running || !status.Ready {
		t.Fatalf("CheckServerStatus() = %+v, want running and ready", status)
	}
	if got := app.ServerAddress(); got != "http://127.0.0.1:5000" {
		t.Errorf("ServerAddress() = %q", got)
	}
}

func TestWelcomeFrame(t *testing.T) {
	app := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop()})
	app.mu.Lock()
	app.zoomLevel = 2
	app.mu.Unlock()

	f := app.welcomeFrame()
	if f.Type != control.FrameWelcome {
		t.Errorf("frame type = %q", f.Type)
	}
	if f.ZoomLevel != 2 {
		t.Errorf("frame zoom = %d, want 2", f.ZoomLevel)
	}
	if f.URL != "http://127.0.0.1:5000" {
		t.Errorf("frame url = %q", f.URL)
	}
}

func TestSavedURL(t *testing.T) {
	store := testStore(t)
	app := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop(), Store: store})
	if got := app.savedURL(); got != "" {
		t.Errorf("savedURL() on fresh store = %q", got)
	}
	if err := store.SaveLastURL("http://127.0.0.1:5000/en/learn/"); err != nil {
		t.Fatalf("SaveLastURL: %v", err)
	}
	if got := app.savedURL(); got != "http://127.0.0.1:5000/en/learn/" {
		t.Errorf("savedURL() = %q", got)
	}

	bare := NewApp(Options{Config: testAppConfig(t), Log: zerolog.Nop()})
	if got := bare.savedURL(); got != "" {
		t.Errorf("savedURL() without store = %q", got)
	}
}
