//go:build !windows

package desktop

import "context"

// BeforeClose off Windows lets a window close normally, with one
// exception: the primary window only hides while attached windows are
// open, because closing it would take the server down under them. The
// registry quits the application once the last window is gone.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.isClosing() || a.cfg.AttachMode() {
		return false
	}
	a.persistGeometry()
	if a.registry != nil && a.registry.Count() > 1 {
		a.log.Info().Msg("Window close requested - hiding while other windows remain")
		a.hideWindow()
		a.registry.Remove(PrimarySessionID)
		return true
	}
	a.log.Info().Msg("Window close requested")
	return false
}

// CloseWindow behaves like the titlebar close button.
func (a *App) CloseWindow() {
	if a.cfg.AttachMode() {
		a.Quit()
		return
	}
	a.persistGeometry()
	if a.registry != nil && a.registry.Count() > 1 {
		a.hideWindow()
		a.registry.Remove(PrimarySessionID)
		return
	}
	a.Quit()
}
