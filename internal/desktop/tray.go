//go:build windows

package desktop

import (
	"context"
	_ "embed"

	"github.com/getlantern/systray"
)

//go:embed icon.ico
var iconData []byte

// TrayManager keeps the Windows system tray icon: the primary window
// hides there on close, so the tray is how users get it back or quit.
type TrayManager struct {
	ctx context.Context
	app *App

	menuShow    *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuAddr    *systray.MenuItem
	menuBrowser *systray.MenuItem
	menuRestart *systray.MenuItem
	menuQuit    *systray.MenuItem
}

// NewTrayManager builds the tray for the primary window.
func NewTrayManager(ctx context.Context, app *App) *TrayManager {
	return &TrayManager{ctx: ctx, app: app}
}

// Start runs the tray loop. Blocks, so run it on its own goroutine.
func (t *TrayManager) Start() {
	systray.Run(t.onReady, t.onExit)
}

func (t *TrayManager) onReady() {
	t.app.log.Info().Msg("Initializing system tray")

	tr := t.app.translator
	systray.SetIcon(iconData)
	systray.SetTitle("Kolibri")
	systray.SetTooltip("Kolibri")

	t.menuShow = systray.AddMenuItem(tr.T("TrayShow", "Show Kolibri"), "")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(tr.T("TrayServerStarting", "Server: starting..."), "")
	t.menuStatus.Disable()
	t.menuAddr = systray.AddMenuItem("-", "")
	t.menuAddr.Disable()

	systray.AddSeparator()
	t.menuBrowser = systray.AddMenuItem(tr.T("TrayOpenBrowser", "Open in Browser"), "")
	t.menuRestart = systray.AddMenuItem(tr.T("TrayRestartServer", "Restart server"), "")
	systray.AddSeparator()
	t.menuQuit = systray.AddMenuItem(tr.T("TrayQuit", "Quit Kolibri"), "")

	t.UpdateStatus()
	go t.handleMenuEvents()
}

func (t *TrayManager) onExit() {
	t.app.log.Info().Msg("System tray exited")
}

func (t *TrayManager) handleMenuEvents() {
	for {
		select {
		case <-t.menuShow.ClickedCh:
			t.app.ShowWindow()

		case <-t.menuBrowser.ClickedCh:
			t.app.OpenInBrowser()

		case <-t.menuRestart.ClickedCh:
			t.app.RestartServer()
			t.UpdateStatus()

		case <-t.menuQuit.ClickedCh:
			t.app.Quit()
			systray.Quit()
			return

		// The icon must come down with the app even when quit came from
		// the window menu rather than the tray.
		case <-t.ctx.Done():
			systray.Quit()
			return
		}
	}
}

// UpdateStatus refreshes the read-only server lines.
func (t *TrayManager) UpdateStatus() {
	tr := t.app.translator
	if t.app.CheckServerStatus().Ready {
		t.menuStatus.SetTitle(tr.T("TrayServerRunning", "Server: running"))
	} else {
		t.menuStatus.SetTitle(tr.T("TrayServerStarting", "Server: starting..."))
	}
	if addr := t.app.ServerAddress(); addr != "" {
		t.menuAddr.SetTitle(addr)
	} else {
		t.menuAddr.SetTitle("-")
	}
}
