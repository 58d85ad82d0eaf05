//go:build windows

package desktop

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// TerminateProcessByPort kills whatever is listening on port. Used on
// startup when a leftover server from a crashed run still holds the
// server port.
func TerminateProcessByPort(port int, log zerolog.Logger) error {
	pid, err := pidForPort(port)
	if err != nil {
		return err
	}
	if pid == -1 {
		log.Info().Int("port", port).Msg("Port is free, nothing to terminate")
		return nil
	}

	log.Warn().Int("port", port).Int("pid", pid).Msg("Terminating process holding the server port")
	cmd := exec.Command("taskkill", "/F", "/PID", strconv.Itoa(pid))
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("taskkill pid %d: %w (%s)", pid, err, strings.TrimSpace(out.String()))
	}
	return nil
}

// pidForPort finds the PID listening on port via netstat, or -1.
func pidForPort(port int) (int, error) {
	cmd := exec.Command("netstat", "-ano")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return -1, fmt.Errorf("netstat: %w", err)
	}

	want := strconv.Itoa(port)
	for _, line := range strings.Split(out.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		localAddr := fields[1]
		idx := strings.LastIndex(localAddr, ":")
		if idx == -1 || localAddr[idx+1:] != want {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		return pid, nil
	}
	return -1, nil
}
