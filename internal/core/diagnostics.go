package core

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// Settings is the slice of the state store the diagnostics server reads.
type Settings interface {
	Setting(key string) (string, error)
}

const defaultDiagnosticsPort = 6060

// Diagnostics serves Go pprof profiles on a loopback port when the
// diagnostics_enabled setting is "true". Off by default; support staff
// flip the setting when a deployment misbehaves.
type Diagnostics struct {
	settings Settings
	log      zerolog.Logger

	// Snapshot, when set before Start, is served at /debug/state so
	// support bundles can capture what the shell believes its state is.
	Snapshot func() any

	mu        sync.Mutex
	server    *http.Server
	isRunning bool
}

// NewDiagnostics builds the diagnostics server against the settings store.
func NewDiagnostics(settings Settings, log zerolog.Logger) *Diagnostics {
	return &Diagnostics{settings: settings, log: log}
}

// Start reads the settings and brings the listener up when enabled.
// A disabled configuration is not an error.
func (d *Diagnostics) Start() error {
	enabled, port := d.loadConfig()
	if !enabled {
		d.log.Debug().Msg("Diagnostics are disabled")
		return nil
	}
	return d.serve(port)
}

// loadConfig resolves the enable flag and port from settings, falling
// back to defaults on missing or invalid values.
func (d *Diagnostics) loadConfig() (bool, int) {
	enabled := false
	if v, err := d.settings.Setting(domain.SettingDiagnostics); err == nil {
		enabled = v == "true"
	}
	port := defaultDiagnosticsPort
	if v, err := d.settings.Setting(domain.SettingDiagnosticsPort); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 65535 {
			port = n
		}
	}
	return enabled, port
}

func (d *Diagnostics) serve(port int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isRunning {
		return fmt.Errorf("diagnostics server already running")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind diagnostics server to %s: %w", addr, err)
	}

	// A dedicated mux so nothing beyond the debug routes is exposed.
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	if d.Snapshot != nil {
		mux.HandleFunc("/debug/state", d.handleState)
	}

	d.server = &http.Server{Handler: mux}
	d.isRunning = true
	srv := d.server

	go func() {
		d.log.Info().Str("addr", "http://"+addr+"/debug/pprof/").Msg("Diagnostics server listening")
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			d.log.Warn().Err(err).Msg("Diagnostics server stopped unexpectedly")
			d.mu.Lock()
			d.isRunning = false
			d.mu.Unlock()
		}
	}()
	return nil
}

func (d *Diagnostics) handleState(w http.ResponseWriter, r *http.Request) {
	body, err := sonic.MarshalIndent(d.Snapshot(), "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Stop shuts the listener down. A server that never started is a no-op.
func (d *Diagnostics) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.isRunning || d.server == nil {
		return nil
	}
	err := d.server.Shutdown(ctx)
	if err != nil {
		d.server.Close()
	}
	d.server = nil
	d.isRunning = false
	d.log.Info().Msg("Diagnostics server stopped")
	return err
}

// IsRunning reports whether the listener is up.
func (d *Diagnostics) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isRunning
}
