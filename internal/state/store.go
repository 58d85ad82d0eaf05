// Package state persists the webview state the shell restores across
// launches: last URL, zoom level, window geometry, and shell settings.
package state

import (
	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// Store is the persistence interface the desktop layer talks to.
type Store interface {
	// ViewState loads the saved webview state. A fresh database yields
	// the zero value, not an error.
	ViewState() (domain.ViewState, error)
	SaveLastURL(url string) error
	SaveZoom(level int) error
	SaveGeometry(width, height, x, y int) error

	Setting(key string) (string, error)
	SetSetting(key, value string) error

	// Vacuum compacts the database file. Run by housekeeping.
	Vacuum() error
	Close() error
}
