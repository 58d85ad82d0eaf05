// Package core supervises the bundled Kolibri server process and runs the
// shell's background maintenance tasks.
package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/config"
	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// DjangoSettingsModule pins the server to its desktop deployment settings.
const DjangoSettingsModule = "kolibri.deployment.default.settings.base"

// Supervisor starts and stops the Kolibri server as a child process and
// pipes its output into the shell's log. Start is idempotent while the
// server runs; Stop interrupts first and kills after a grace period.
type Supervisor struct {
	cfg *config.Config
	log zerolog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdout    *LineWriter
	stderr    *LineWriter
	isRunning bool
	startedAt time.Time
	waitDone  chan struct{}
}

// NewSupervisor builds a supervisor for the configured server.
func NewSupervisor(cfg *config.Config, log zerolog.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, log: log}
}

func kolibriExecutable() string {
	if runtime.GOOS == "windows" {
		return "kolibri.exe"
	}
	return "kolibri"
}

// resolveCommand finds the server executable: explicit config first, then
// the bundled copy next to the shell binary, then $PATH.
func (s *Supervisor) resolveCommand() (string, error) {
	if s.cfg.ServerPath != "" {
		return s.cfg.ServerPath, nil
	}
	if exe, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(exe), "kolibri", "bin", kolibriExecutable())
		if _, err := os.Stat(bundled); err == nil {
			return bundled, nil
		}
	}
	path, err := exec.LookPath(kolibriExecutable())
	if err != nil {
		return "", fmt.Errorf("kolibri executable not found: %w", err)
	}
	return path, nil
}

// childEnv builds the server process environment on top of the shell's.
func (s *Supervisor) childEnv() []string {
	env := append(os.Environ(),
		config.EnvHome+"="+s.cfg.Home,
		config.EnvPort+"="+strconv.Itoa(s.cfg.Port),
		"DJANGO_SETTINGS_MODULE="+DjangoSettingsModule,
	)
	if s.cfg.Timezone != "" {
		env = append(env, "TZ="+s.cfg.Timezone)
	}
	return env
}

// Start launches the server. A second call while it runs is a logged no-op.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.log.Info().Msg("Kolibri server already running")
		return nil
	}

	command, err := s.resolveCommand()
	if err != nil {
		return err
	}

	s.log.Info().Str("command", command).Int("port", s.cfg.Port).Msg("Preparing to start Kolibri server...")

	cmd := exec.CommandContext(ctx, command, "start", "--foreground", "--port", strconv.Itoa(s.cfg.Port))
	cmd.Env = s.childEnv()
	s.stdout = NewLineWriter(s.log.With().Str("stream", "stdout").Logger(), zerolog.InfoLevel)
	s.stderr = NewLineWriter(s.log.With().Str("stream", "stderr").Logger(), zerolog.InfoLevel)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start kolibri server: %w", err)
	}

	s.cmd = cmd
	s.isRunning = true
	s.startedAt = time.Now()
	s.waitDone = make(chan struct{})
	go s.reap(cmd, s.waitDone)

	s.log.Info().Int("pid", cmd.Process.Pid).Msg("Kolibri server started")
	return nil
}

// reap waits for the child to exit and records the outcome. Output is
// flushed and the exit logged before the running flag drops, so anyone
// who saw the server stop also sees its final log lines.
func (s *Supervisor) reap(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	s.mu.Lock()
	stdout, stderr := s.stdout, s.stderr
	s.mu.Unlock()
	if stdout != nil {
		stdout.Flush()
	}
	if stderr != nil {
		stderr.Flush()
	}

	if err != nil {
		s.log.Warn().Err(err).Msg("Kolibri server exited")
	} else {
		s.log.Info().Msg("Kolibri server exited cleanly")
	}

	s.mu.Lock()
	if s.cmd == cmd {
		s.isRunning = false
	}
	s.mu.Unlock()
	close(done)
}

// Stop interrupts the server and waits for it to exit, killing it if the
// grace period runs out.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning || s.cmd == nil {
		s.mu.Unlock()
		s.log.Info().Msg("Kolibri server already stopped")
		return nil
	}
	cmd := s.cmd
	done := s.waitDone
	s.mu.Unlock()

	s.log.Info().Int("pid", cmd.Process.Pid).Msg("Stopping Kolibri server...")
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		// os.Interrupt delivery is not implemented on Windows.
		cmd.Process.Kill()
	}

	select {
	case <-done:
	case <-time.After(s.cfg.StopTimeout):
		s.log.Warn().Msg("Kolibri server did not stop in time, killing")
		cmd.Process.Kill()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		cmd.Process.Kill()
		return ctx.Err()
	}

	s.log.Info().Msg("Kolibri server stopped")
	return nil
}

// Restart stops the server if it runs, then starts it again.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

// Status reports the supervised process state. Readiness is the poller's
// verdict, not the supervisor's; callers merge it in.
func (s *Supervisor) Status() domain.ServerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := domain.ServerStatus{
		Running:   s.isRunning,
		Port:      s.cfg.Port,
		StartedAt: s.startedAt,
	}
	if s.isRunning && s.cmd != nil && s.cmd.Process != nil {
		status.PID = s.cmd.Process.Pid
	}
	return status
}

// IsRunning reports whether the child process is alive.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
