package core

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/config"
)

func testConfig(t *testing.T, serverPath string) *config.Config {
	t.Helper()
	return &config.Config{
		Home:         t.TempDir(),
		Port:         5000,
		ServerPath:   serverPath,
		PollInterval: config.DefaultPollInterval,
		PollWindow:   config.DefaultPollWindow,
		PollRetries:  config.DefaultPollRetries,
		StopTimeout:  2 * time.Second,
	}
}

// fakeServer writes a shell script standing in for the kolibri executable.
func fakeServer(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake server script requires sh")
	}
	path := filepath.Join(t.TempDir(), "kolibri")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitNotRunning(t *testing.T, s *Supervisor) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !s.IsRunning() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server still reported running")
}

func TestSupervisorStartStop(t *testing.T) {
	s := NewSupervisor(testConfig(t, fakeServer(t, "exec sleep 30")), zerolog.Nop())
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() = %v, want nil", err)
	}
	if !s.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	status := s.Status()
	if !status.Running || status.PID <= 0 || status.Port != 5000 {
		t.Errorf("Status() = %+v, want running with pid and port 5000", status)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() = %v, want nil", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestSupervisorStartIdempotent(t *testing.T) {
	s := NewSupervisor(testConfig(t, fakeServer(t, "exec sleep 30")), zerolog.Nop())
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() = %v, want nil", err)
	}
	defer s.Stop(ctx)

	pid := s.Status().PID
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start() = %v, want nil", err)
	}
	if got := s.Status().PID; got != pid {
		t.Errorf("second Start changed pid: got %d, want %d", got, pid)
	}
}

func TestSupervisorStopWithoutStart(t *testing.T) {
	s := NewSupervisor(testConfig(t, "/nonexistent/kolibri"), zerolog.Nop())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
}

func TestSupervisorReapsExitedServer(t *testing.T) {
	s := NewSupervisor(testConfig(t, fakeServer(t, "exit 0")), zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v, want nil", err)
	}
	waitNotRunning(t, s)
	if status := s.Status(); status.Running {
		t.Errorf("Status().Running = true, want false after exit")
	}
}

func TestSupervisorStartMissingExecutable(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.ServerPath = filepath.Join(t.TempDir(), "missing", "kolibri")
	s := NewSupervisor(cfg, zerolog.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() = nil, want error for missing executable")
		s.Stop(context.Background())
	}
}

func TestChildEnv(t *testing.T) {
	cfg := testConfig(t, "kolibri")
	cfg.Home = "/data/kolibri-home"
	cfg.Timezone = "America/New_York"
	s := NewSupervisor(cfg, zerolog.Nop())

	env := s.childEnv()
	want := []string{
		"KOLIBRI_HOME=/data/kolibri-home",
		"KOLIBRI_HTTP_PORT=5000",
		"DJANGO_SETTINGS_MODULE=" + DjangoSettingsModule,
		"TZ=America/New_York",
	}
	for _, entry := range want {
		if !containsString(env, entry) {
			t.Errorf("childEnv() missing %q", entry)
		}
	}
}

func TestChildEnvWithoutTimezone(t *testing.T) {
	cfg := testConfig(t, "kolibri")
	cfg.Timezone = ""
	s := NewSupervisor(cfg, zerolog.Nop())

	// Only home, port and settings module on top of the inherited env.
	if got, want := len(s.childEnv()), len(os.Environ())+3; got != want {
		t.Errorf("len(childEnv()) = %d, want %d", got, want)
	}
}

func TestResolveCommandPrefersConfigured(t *testing.T) {
	cfg := testConfig(t, "/opt/kolibri/bin/kolibri")
	s := NewSupervisor(cfg, zerolog.Nop())

	got, err := s.resolveCommand()
	if err != nil {
		t.Fatalf("resolveCommand() error = %v", err)
	}
	if got != cfg.ServerPath {
		t.Errorf("resolveCommand() = %q, want %q", got, cfg.ServerPath)
	}
}

func TestSupervisorLogsServerOutput(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(zerolog.SyncWriter(&buf))

	s := NewSupervisor(testConfig(t, fakeServer(t, `echo "INFO Listening on port 5000"`)), log)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v, want nil", err)
	}
	waitNotRunning(t, s)

	if !strings.Contains(buf.String(), "Listening on port 5000") {
		t.Errorf("log output missing server line: %s", buf.String())
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
