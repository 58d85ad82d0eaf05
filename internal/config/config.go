package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// Environment variables the shell reads. KOLIBRI_HOME and KOLIBRI_HTTP_PORT
// are shared with the server process; the KOLIBRI_ATTACH_* group is set by
// the primary process when it spawns an extra window.
const (
	EnvHome     = "KOLIBRI_HOME"
	EnvPort     = "KOLIBRI_HTTP_PORT"
	EnvTimezone = "KOLIBRI_TZ"
	EnvLanguage = "KOLIBRI_DESKTOP_LANG"
	EnvServer   = "KOLIBRI_SERVER_PATH"
	EnvDebug    = "KOLIBRI_DESKTOP_DEBUG"

	EnvAttachURL    = "KOLIBRI_ATTACH_URL"
	EnvControlAddr  = "KOLIBRI_CONTROL_ADDR"
	EnvControlToken = "KOLIBRI_CONTROL_TOKEN"
	EnvSessionID    = "KOLIBRI_SESSION_ID"
)

// Defaults for the readiness budget and server shutdown grace.
const (
	DefaultPollInterval = 1 * time.Second
	DefaultPollWindow   = 20 * time.Second
	DefaultPollRetries  = 3
	DefaultStopTimeout  = 10 * time.Second
)

// Config is the resolved shell configuration. Resolution order is
// CLI flag > environment variable > default; flags are applied by the
// entry points on top of Load's result.
type Config struct {
	// Home is the Kolibri data directory (KOLIBRI_HOME).
	Home string
	// Port is the fixed loopback port the server listens on.
	Port int
	// Timezone is forwarded to the server process as TZ when set.
	Timezone string
	// Language overrides OS locale detection when set.
	Language string
	// ServerPath is an explicit path to the kolibri executable.
	// Empty means resolve next to the shell binary, then $PATH.
	ServerPath string
	// Debug enables debug-level logging.
	Debug bool

	PollInterval time.Duration
	PollWindow   time.Duration
	PollRetries  int
	StopTimeout  time.Duration

	// Attach-mode fields, present only in spawned extra-window processes.
	AttachURL    string
	ControlAddr  string
	ControlToken string
	SessionID    string
}

// Load resolves configuration from the environment and defaults.
func Load() *Config {
	return &Config{
		Home:         resolveHome(),
		Port:         envInt(EnvPort, domain.DefaultPort),
		Timezone:     os.Getenv(EnvTimezone),
		Language:     os.Getenv(EnvLanguage),
		ServerPath:   os.Getenv(EnvServer),
		Debug:        os.Getenv(EnvDebug) != "",
		PollInterval: DefaultPollInterval,
		PollWindow:   DefaultPollWindow,
		PollRetries:  DefaultPollRetries,
		StopTimeout:  DefaultStopTimeout,
		AttachURL:    os.Getenv(EnvAttachURL),
		ControlAddr:  os.Getenv(EnvControlAddr),
		ControlToken: os.Getenv(EnvControlToken),
		SessionID:    os.Getenv(EnvSessionID),
	}
}

// resolveHome returns KOLIBRI_HOME or the default ~/.kolibri.
func resolveHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir is unavailable
		return ".kolibri"
	}
	return filepath.Join(homeDir, ".kolibri")
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EnsureDirs creates the home and log directories before anything logs.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.Home, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.LogsDir(), 0755)
}

// LogsDir is where the shell and the server write their log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Home, "logs")
}

// DBPath is the shell's own state database, separate from the server's.
func (c *Config) DBPath() string {
	return filepath.Join(c.Home, "desktop.db")
}

// RootURL is the server origin the webview navigates to.
func (c *Config) RootURL() string {
	return domain.RootURLForPort(c.Port)
}

// AttachMode reports whether this process is a spawned extra window.
func (c *Config) AttachMode() bool {
	return c.AttachURL != ""
}
