package desktop

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/learningequality/kolibri-desktop/internal/config"
	"github.com/learningequality/kolibri-desktop/internal/control"
	"github.com/learningequality/kolibri-desktop/internal/core"
	"github.com/learningequality/kolibri-desktop/internal/domain"
	"github.com/learningequality/kolibri-desktop/internal/i18n"
	"github.com/learningequality/kolibri-desktop/internal/logging"
	"github.com/learningequality/kolibri-desktop/internal/readiness"
	"github.com/learningequality/kolibri-desktop/internal/state"
	"github.com/learningequality/kolibri-desktop/internal/version"
)

// App drives one shell process. The primary process owns the server, the
// control channel and the readiness poller; an attach-mode process owns
// just its window and a control client back to the primary.
type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	translator *i18n.Translator
	store      state.Store

	supervisor *core.Supervisor
	issuer     *control.TokenIssuer
	server     *control.Server
	client     *control.Client
	registry   *Registry
	spawner    *WindowSpawner
	diag       *core.Diagnostics

	bgCtx    context.Context
	bgCancel context.CancelFunc

	mu         sync.Mutex
	ctx        context.Context
	domReady   bool
	pendingJS  []string
	zoomLevel  int
	lastURL    string
	ready      bool
	closing    bool
	token      string
	beaconBase string

	shutdownOnce sync.Once
}

// Options carries the App's collaborators, built by the entry point.
type Options struct {
	Config     *config.Config
	Log        zerolog.Logger
	Translator *i18n.Translator
	// Store is nil in attach mode; the primary process owns persistence.
	Store state.Store
}

// NewApp builds the shell application.
func NewApp(opts Options) *App {
	a := &App{
		cfg:        opts.Config,
		log:        opts.Log,
		translator: opts.Translator,
		store:      opts.Store,
		zoomLevel:  ActualSizeLevel,
	}
	if a.store != nil {
		if vs, err := a.store.ViewState(); err == nil {
			a.zoomLevel = ClampZoom(vs.ZoomLevel)
			a.lastURL = vs.LastURL
		}
	}
	if !a.cfg.AttachMode() {
		a.supervisor = core.NewSupervisor(a.cfg, logging.Component(a.log, "server"))
	}
	return a
}

// Startup runs on the wails startup callback, before the window exists.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	if a.cfg.AttachMode() {
		a.startAttached()
		return
	}
	a.startPrimary()
}

func (a *App) startPrimary() {
	if PortOccupied(a.cfg.Port) {
		a.log.Warn().Int("port", a.cfg.Port).Msg("Server port already in use")
		if err := TerminateProcessByPort(a.cfg.Port, a.log); err != nil {
			a.log.Warn().Err(err).Msg("Could not free the server port")
		}
	}

	if err := a.supervisor.Start(a.bgCtx); err != nil {
		a.log.Error().Err(err).Msg("Failed to start Kolibri server")
		a.execJS("show_error();")
	}

	a.registry = NewRegistry(a.log, a.Quit, a.onSessionNavigated)

	if issuer, err := control.NewTokenIssuer(); err != nil {
		a.log.Error().Err(err).Msg("Failed to initialize control channel")
	} else {
		a.issuer = issuer
		a.server = control.NewServer(issuer, a.registry, a.welcomeFrame, logging.Component(a.log, "control"))
		a.server.Opener = func(url string) error { return browser.OpenURL(url) }
		a.server.OnNewWindow = func() {
			if _, err := a.NewWindow(); err != nil {
				a.log.Warn().Err(err).Msg("Failed to open requested window")
			}
		}
		if err := a.server.Start(); err != nil {
			a.log.Error().Err(err).Msg("Failed to start control channel")
		} else {
			a.spawner = NewWindowSpawner(issuer, a.server.Addr(), a.log)
			if token, err := issuer.Issue(PrimarySessionID, domain.WindowRolePrimary); err == nil {
				a.mu.Lock()
				a.token = token
				a.beaconBase = "http://" + a.server.Addr()
				a.mu.Unlock()
			}
		}
	}

	a.registry.Add(domain.WindowInfo{
		ID:       PrimarySessionID,
		Role:     domain.WindowRolePrimary,
		PID:      os.Getpid(),
		OpenedAt: time.Now(),
	})
	a.restoreWindowPosition()

	housekeeping := &core.Housekeeping{
		LogsDir: a.cfg.LogsDir(),
		Keep:    logging.DefaultRetention,
		Log:     logging.Component(a.log, "housekeeping"),
	}
	if a.store != nil {
		housekeeping.Vacuum = a.store.Vacuum
	}
	housekeeping.Start(a.bgCtx)

	if a.store != nil {
		a.diag = core.NewDiagnostics(a.store, logging.Component(a.log, "diagnostics"))
		a.diag.Snapshot = a.stateSnapshot
		if err := a.diag.Start(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to start diagnostics server")
		}
	}

	machine := readiness.NewMachine(a.cfg.PollInterval, a.cfg.PollWindow, a.cfg.PollRetries)
	prober := readiness.NewHTTPProber(a.cfg.RootURL(), a.cfg.PollInterval)
	poller := readiness.NewPoller(machine, prober, &wailsSink{app: a}, a.cfg.RootURL(), a.savedURL, logging.Component(a.log, "readiness"))
	go func() {
		if final := poller.Run(a.bgCtx); final == readiness.StateFailed {
			a.log.Error().Msg("Kolibri server never became reachable")
		}
	}()
}

func (a *App) startAttached() {
	a.mu.Lock()
	a.token = a.cfg.ControlToken
	a.beaconBase = "http://" + a.cfg.ControlAddr
	a.mu.Unlock()

	client, err := control.Dial(control.ClientOptions{
		Addr:      a.cfg.ControlAddr,
		Token:     a.cfg.ControlToken,
		SessionID: a.cfg.SessionID,
		PID:       os.Getpid(),
		OnWelcome: func(f control.Frame) {
			if f.ZoomLevel != 0 {
				a.SetZoom(f.ZoomLevel)
			}
		},
		OnShutdown: a.Quit,
		Log:        logging.Component(a.log, "control"),
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("Running window without control channel")
		return
	}
	a.client = client
}

// DomReady runs once the webview can evaluate scripts. Anything queued
// before that (an early navigate when the server was already up) flushes
// here.
func (a *App) DomReady(ctx context.Context) {
	a.mu.Lock()
	a.domReady = true
	pending := a.pendingJS
	a.pendingJS = nil
	wctx := a.ctx
	a.mu.Unlock()

	for _, js := range pending {
		runtime.WindowExecJS(wctx, js)
	}

	if a.cfg.AttachMode() {
		a.Navigate(a.cfg.AttachURL)
	}
}

// Navigate points the window at a server page and installs the page hooks.
func (a *App) Navigate(url string) {
	a.log.Info().Str("url", url).Msg("Loading Kolibri in window")
	a.mu.Lock()
	a.ready = true
	a.lastURL = url
	a.mu.Unlock()

	a.execJS(NavigateScript(url))
	a.execJS(ZoomScript(a.currentZoom()))
	a.recordNavigation(url)
	a.scheduleHooks()
}

// recordNavigation persists this window's navigation. The primary writes
// the store directly; attached windows report through the control channel.
func (a *App) recordNavigation(url string) {
	if a.store != nil {
		if err := a.store.SaveLastURL(url); err != nil {
			a.log.Warn().Err(err).Msg("Failed to save last URL")
		}
	}
	if a.client != nil {
		if err := a.client.Navigated(url); err != nil {
			a.log.Warn().Err(err).Msg("Failed to report navigation")
		}
	}
}

// onSessionNavigated receives URL changes from every window, including
// the primary's own page beacons.
func (a *App) onSessionNavigated(id, url string) {
	if id == PrimarySessionID {
		a.mu.Lock()
		a.lastURL = url
		a.mu.Unlock()
	}
	if a.store != nil {
		if err := a.store.SaveLastURL(url); err != nil {
			a.log.Warn().Err(err).Msg("Failed to save last URL")
		}
	}
}

// savedURL is the poller's view-state lookup at navigate time.
func (a *App) savedURL() string {
	if a.store == nil {
		return ""
	}
	vs, err := a.store.ViewState()
	if err != nil {
		return ""
	}
	return vs.LastURL
}

// stateSnapshot assembles the support-bundle view of the shell served at
// the diagnostics /debug/state route.
func (a *App) stateSnapshot() any {
	snap := struct {
		Version string              `json:"version"`
		Server  domain.ServerStatus `json:"server"`
		View    domain.ViewState    `json:"view"`
		Windows []domain.WindowInfo `json:"windows"`
	}{
		Version: version.Full(),
		Server:  a.CheckServerStatus(),
	}
	if a.store != nil {
		if vs, err := a.store.ViewState(); err == nil {
			snap.View = vs
		}
	}
	if a.registry != nil {
		snap.Windows = a.registry.Windows()
	}
	return snap
}

func (a *App) welcomeFrame() control.Frame {
	return control.Frame{
		Type:      control.FrameWelcome,
		ZoomLevel: a.currentZoom(),
		URL:       a.cfg.RootURL(),
	}
}

// execJS evaluates a script in the window, queueing it until the webview
// is ready. Safe to call from any goroutine.
func (a *App) execJS(js string) {
	a.mu.Lock()
	if !a.domReady || a.ctx == nil {
		a.pendingJS = append(a.pendingJS, js)
		a.mu.Unlock()
		return
	}
	ctx := a.ctx
	a.mu.Unlock()
	runtime.WindowExecJS(ctx, js)
}

// scheduleHooks reinstalls the page hooks after a navigation settles. The
// injected script is guarded, so the staggered attempts are idempotent;
// the stagger covers slow first paints of the server app. The zoom style
// rides along because a fresh document starts back at 100%.
func (a *App) scheduleHooks() {
	a.mu.Lock()
	base, token := a.beaconBase, a.token
	a.mu.Unlock()
	if base == "" || token == "" {
		return
	}
	js := HookScript(base, token, a.cfg.RootURL())
	go func() {
		for _, delay := range []time.Duration{time.Second, 3 * time.Second, 6 * time.Second} {
			select {
			case <-a.bgCtx.Done():
				return
			case <-time.After(delay):
				a.execJS(js)
				a.execJS(ZoomScript(a.currentZoom()))
			}
		}
	}()
}

// SetZoom applies and persists a zoom level.
func (a *App) SetZoom(level int) {
	level = ClampZoom(level)
	a.mu.Lock()
	a.zoomLevel = level
	a.mu.Unlock()

	a.execJS(ZoomScript(level))
	if a.store != nil {
		if err := a.store.SaveZoom(level); err != nil {
			a.log.Warn().Err(err).Msg("Failed to save zoom level")
		}
	}
}

// ZoomIn steps the zoom up one level.
func (a *App) ZoomIn() { a.SetZoom(a.currentZoom() + 1) }

// ZoomOut steps the zoom down one level.
func (a *App) ZoomOut() { a.SetZoom(a.currentZoom() - 1) }

// ActualSize resets the zoom.
func (a *App) ActualSize() { a.SetZoom(ActualSizeLevel) }

func (a *App) currentZoom() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.zoomLevel
}

// NewWindow opens another window on the server home page. The primary
// spawns the process itself; attached windows relay the request.
func (a *App) NewWindow() (string, error) {
	if a.client != nil {
		return "", a.client.NewWindow()
	}
	if a.spawner == nil {
		a.log.Warn().Msg("Window spawning unavailable")
		return "", nil
	}
	return a.spawner.Spawn(a.cfg.RootURL())
}

// GoBack navigates the page history back.
func (a *App) GoBack() {
	a.execJS(BackScript)
	a.scheduleHooks()
}

// GoForward navigates the page history forward.
func (a *App) GoForward() {
	a.execJS(ForwardScript)
	a.scheduleHooks()
}

// Reload reloads the current page.
func (a *App) Reload() {
	a.execJS(ReloadScript)
	a.scheduleHooks()
}

// EditCommand applies a clipboard or selection command to the page.
func (a *App) EditCommand(command string) {
	a.execJS(EditScript(command))
}

// CurrentURL is the page the window is showing, falling back to the
// server root before the first navigation.
func (a *App) CurrentURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastURL != "" {
		return a.lastURL
	}
	return a.cfg.RootURL()
}

// OpenInBrowser shows the current page in the system browser.
func (a *App) OpenInBrowser() {
	url := a.CurrentURL()
	if err := browser.OpenURL(url); err != nil {
		a.log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
	}
}

// OpenHomeFolder reveals the Kolibri data directory in the file manager.
func (a *App) OpenHomeFolder() {
	if err := browser.OpenFile(a.cfg.Home); err != nil {
		a.log.Warn().Err(err).Msg("Failed to open home folder")
	}
}

// OpenDocumentation shows the user documentation in the system browser.
func (a *App) OpenDocumentation() {
	if err := browser.OpenURL(DocumentationURL); err != nil {
		a.log.Warn().Err(err).Msg("Failed to open documentation")
	}
}

// OpenForums shows the community forums in the system browser.
func (a *App) OpenForums() {
	if err := browser.OpenURL(ForumsURL); err != nil {
		a.log.Warn().Err(err).Msg("Failed to open forums")
	}
}

// RestartServer stops and relaunches the Kolibri server.
func (a *App) RestartServer() {
	if a.supervisor == nil {
		return
	}
	go func() {
		if err := a.supervisor.Restart(a.bgCtx); err != nil {
			a.log.Error().Err(err).Msg("Failed to restart Kolibri server")
		}
	}()
}

// CheckServerStatus reports the server state for the tray and bindings.
func (a *App) CheckServerStatus() domain.ServerStatus {
	if a.supervisor == nil {
		// Attached windows only exist once the server is up.
		return domain.ServerStatus{Running: true, Ready: true, Port: a.cfg.Port}
	}
	status := a.supervisor.Status()
	a.mu.Lock()
	status.Ready = a.ready
	a.mu.Unlock()
	return status
}

// ServerAddress is the reachable server origin, or empty while starting.
func (a *App) ServerAddress() string {
	if a.CheckServerStatus().Ready {
		return a.cfg.RootURL()
	}
	return ""
}

// hideWindow hides the window without closing the process.
func (a *App) hideWindow() {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	if ctx != nil {
		runtime.WindowHide(ctx)
	}
}

// ShowWindow brings a hidden or minimised window back to the front. A
// primary window that hid itself on close rejoins the registry here, so
// closing it again counts it like any other open window.
func (a *App) ShowWindow() {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	if ctx != nil {
		runtime.WindowShow(ctx)
		runtime.WindowUnminimise(ctx)
	}
	if a.registry != nil && !a.registry.Has(PrimarySessionID) {
		a.registry.Add(domain.WindowInfo{
			ID:       PrimarySessionID,
			Role:     domain.WindowRolePrimary,
			PID:      os.Getpid(),
			OpenedAt: time.Now(),
		})
	}
}

// restoreWindowPosition moves the window to where it was last closed.
// Size is restored through the window options at launch; position has no
// launch option, so it is applied here. (0,0) reads as never saved.
func (a *App) restoreWindowPosition() {
	if a.store == nil {
		return
	}
	vs, err := a.store.ViewState()
	if err != nil || (vs.WindowX == 0 && vs.WindowY == 0) {
		return
	}
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	if ctx != nil {
		runtime.WindowSetPosition(ctx, vs.WindowX, vs.WindowY)
	}
}

// persistGeometry saves the window size and position.
func (a *App) persistGeometry() {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	if ctx == nil || a.store == nil {
		return
	}
	width, height := runtime.WindowGetSize(ctx)
	x, y := runtime.WindowGetPosition(ctx)
	if err := a.store.SaveGeometry(width, height, x, y); err != nil {
		a.log.Warn().Err(err).Msg("Failed to save window geometry")
	}
}

func (a *App) isClosing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closing
}

// Quit exits the application. Idempotent; the first call wins.
func (a *App) Quit() {
	a.mu.Lock()
	if a.closing || a.ctx == nil {
		a.mu.Unlock()
		return
	}
	a.closing = true
	ctx := a.ctx
	a.mu.Unlock()

	a.log.Info().Msg("Quitting application")
	runtime.Quit(ctx)
}

// Shutdown runs on the wails shutdown callback. Safe to call once more
// from error paths.
func (a *App) Shutdown(ctx context.Context) {
	a.shutdownOnce.Do(func() { a.shutdown(ctx) })
}

func (a *App) shutdown(ctx context.Context) {
	a.log.Info().Msg("Shutting down...")
	a.mu.Lock()
	a.closing = true
	a.mu.Unlock()

	if a.client != nil {
		a.client.Close()
	}
	if a.server != nil {
		a.server.Broadcast(control.Frame{Type: control.FrameShutdown})
		// Give the write pumps a moment to deliver before tearing down.
		time.Sleep(200 * time.Millisecond)
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		a.server.Stop(stopCtx)
		cancel()
	}
	if a.diag != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		a.diag.Stop(stopCtx)
		cancel()
	}
	if a.supervisor != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.StopTimeout+5*time.Second)
		if err := a.supervisor.Stop(stopCtx); err != nil {
			a.log.Warn().Err(err).Msg("Kolibri server shutdown incomplete")
		}
		cancel()
	}
	if a.bgCancel != nil {
		a.bgCancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close state store")
		}
	}
	a.log.Info().Msg("Shutdown complete")
}

// wailsSink marshals readiness effects into the webview.
type wailsSink struct {
	app *App
}

func (s *wailsSink) Navigate(url string) { s.app.Navigate(url) }
func (s *wailsSink) ShowRetry()          { s.app.execJS("show_retry();") }
func (s *wailsSink) ShowError()          { s.app.execJS("show_error();") }
