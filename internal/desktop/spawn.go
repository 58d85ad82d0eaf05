package desktop

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/config"
	"github.com/learningequality/kolibri-desktop/internal/control"
	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// WindowSpawner opens extra windows by launching this binary again in
// attach mode: the child gets a URL to show, the control address, and a
// fresh session token in its environment.
type WindowSpawner struct {
	issuer      *control.TokenIssuer
	controlAddr string
	log         zerolog.Logger
}

// NewWindowSpawner builds a spawner for the primary process.
func NewWindowSpawner(issuer *control.TokenIssuer, controlAddr string, log zerolog.Logger) *WindowSpawner {
	return &WindowSpawner{issuer: issuer, controlAddr: controlAddr, log: log}
}

// Spawn launches an attached-window process showing url and returns its
// session id.
func (s *WindowSpawner) Spawn(url string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate shell binary: %w", err)
	}

	sessionID := uuid.NewString()
	token, err := s.issuer.Issue(sessionID, domain.WindowRoleAttached)
	if err != nil {
		return "", fmt.Errorf("issue window token: %w", err)
	}

	cmd := exec.Command(exe)
	cmd.Env = attachEnv(os.Environ(), url, s.controlAddr, token, sessionID)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("spawn window process: %w", err)
	}
	// Reap on exit; the hub notices the close through the control channel.
	go cmd.Wait()

	s.log.Info().Str("session", sessionID).Int("pid", cmd.Process.Pid).Str("url", url).Msg("Spawned window process")
	return sessionID, nil
}

// attachEnv appends the attach-mode variables to a base environment.
func attachEnv(base []string, url, controlAddr, token, sessionID string) []string {
	return append(base,
		config.EnvAttachURL+"="+url,
		config.EnvControlAddr+"="+controlAddr,
		config.EnvControlToken+"="+token,
		config.EnvSessionID+"="+sessionID,
	)
}
