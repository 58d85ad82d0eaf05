//go:build !windows

package desktop

import "context"

// TrayManager stub for platforms without the hide-to-tray close behavior.
type TrayManager struct{}

// NewTrayManager creates a no-op tray manager.
func NewTrayManager(ctx context.Context, app *App) *TrayManager {
	return &TrayManager{}
}

// Start is a no-op off Windows.
func (t *TrayManager) Start() {}

// UpdateStatus is a no-op off Windows.
func (t *TrayManager) UpdateStatus() {}
