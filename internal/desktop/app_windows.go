//go:build windows

package desktop

import "context"

// BeforeClose on Windows hides the primary window to the tray instead of
// quitting; the tray menu is the way out. Attached windows just close.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.isClosing() || a.cfg.AttachMode() {
		return false
	}
	a.log.Info().Msg("Window close requested - hiding to tray")
	a.persistGeometry()
	a.hideWindow()
	return true
}

// CloseWindow behaves like the titlebar close button.
func (a *App) CloseWindow() {
	if a.cfg.AttachMode() {
		a.Quit()
		return
	}
	a.persistGeometry()
	a.hideWindow()
}
