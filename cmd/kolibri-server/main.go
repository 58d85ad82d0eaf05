// kolibri-server runs the bundled Kolibri server without a window: it
// supervises the server process, waits for it to answer, prints the URL
// and keeps running until interrupted. Useful on kiosks and for
// debugging the supervisor outside the desktop shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/learningequality/kolibri-desktop/internal/config"
	"github.com/learningequality/kolibri-desktop/internal/core"
	"github.com/learningequality/kolibri-desktop/internal/logging"
	"github.com/learningequality/kolibri-desktop/internal/readiness"
	"github.com/learningequality/kolibri-desktop/internal/version"
)

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "Port the Kolibri server listens on")
	home := flag.String("home", cfg.Home, "Kolibri data directory")
	serverPath := flag.String("server", cfg.ServerPath, "Path to the kolibri executable (default: next to this binary, then $PATH)")
	window := flag.Duration("timeout", cfg.PollWindow, "How long to wait for the server in each attempt window")
	retries := flag.Int("retries", cfg.PollRetries, "Extra attempt windows before giving up")
	open := flag.Bool("open", true, "Open the system browser once the server is up (-open=false to disable)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("kolibri-server", version.Full())
		os.Exit(0)
	}

	cfg.Port = *port
	cfg.Home = *home
	cfg.ServerPath = *serverPath
	cfg.PollWindow = *window
	cfg.PollRetries = *retries

	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "kolibri-server: prepare %s: %v\n", cfg.Home, err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log, logCloser, err := logging.Open(cfg.LogsDir(), level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kolibri-server: open logs: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	logging.Banner(log)
	log.Info().Str("home", cfg.Home).Int("port", cfg.Port).Msg("Running headless")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The child hangs off its own context, not the signal one: an
	// interrupt must reach it through the supervisor's graceful stop,
	// not as an immediate kill.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	supervisor := core.NewSupervisor(cfg, logging.Component(log, "server"))
	if err := supervisor.Start(runCtx); err != nil {
		log.Error().Err(err).Msg("Failed to start Kolibri server")
		os.Exit(1)
	}

	machine := readiness.NewMachine(cfg.PollInterval, cfg.PollWindow, cfg.PollRetries)
	prober := readiness.NewHTTPProber(cfg.RootURL(), cfg.PollInterval)
	sink := &consoleSink{log: log, openBrowser: *open}
	poller := readiness.NewPoller(machine, prober, sink, cfg.RootURL(), nil, logging.Component(log, "readiness"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if final := poller.Run(gctx); final == readiness.StateFailed {
			return errors.New("kolibri server never became reachable")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.StopTimeout+5*time.Second)
		defer cancel()
		return supervisor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Exiting")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

// consoleSink is the readiness sink for a windowless run. There is no
// loading page to drive, so readiness effects become console output.
type consoleSink struct {
	log         zerolog.Logger
	openBrowser bool
}

func (s *consoleSink) Navigate(url string) {
	fmt.Printf("Kolibri is running at %s\n", url)
	if s.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			s.log.Warn().Err(err).Msg("Failed to open browser")
		}
	}
}

func (s *consoleSink) ShowRetry() {}

func (s *consoleSink) ShowError() {
	fmt.Fprintln(os.Stderr, "Kolibri did not start; see the logs directory for details")
}
