package domain

import "time"

// Role of a shell window within the running app.
type WindowRole string

const (
	// WindowRolePrimary is the first window, the one that owns the server.
	WindowRolePrimary WindowRole = "primary"
	// WindowRoleAttached is a secondary window running in a helper process.
	WindowRoleAttached WindowRole = "attached"
)

// WindowInfo describes one live window as tracked by the registry.
type WindowInfo struct {
	ID       string
	Role     WindowRole
	PID      int
	URL      string
	OpenedAt time.Time
}

// ServerStatus is a point-in-time snapshot of the supervised Kolibri server.
type ServerStatus struct {
	Running   bool
	Ready     bool
	PID       int
	Port      int
	StartedAt time.Time
}

// RootURL returns the server origin the webview navigates to.
func (s ServerStatus) RootURL() string {
	return RootURLForPort(s.Port)
}

// ViewState is the persisted webview state restored on the next launch.
type ViewState struct {
	UpdatedAt time.Time

	// Last in-app URL the user was on. Empty until the first visit.
	LastURL string

	// Zoom level on the shell's fixed 1..5 scale. Zero means never set.
	ZoomLevel int

	// Outer window geometry in logical pixels.
	WindowWidth  int
	WindowHeight int
	WindowX      int
	WindowY      int
}

// Setting is one persisted key/value pair for shell preferences that are
// not part of the webview state, such as the UI language override.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Well-known setting keys.
const (
	// SettingLanguage overrides OS language detection for the shell UI.
	SettingLanguage = "language"
	// SettingDiagnostics enables the loopback pprof listener when "true".
	SettingDiagnostics = "diagnostics_enabled"
	// SettingDiagnosticsPort overrides the diagnostics listener port.
	SettingDiagnosticsPort = "diagnostics_port"
)
