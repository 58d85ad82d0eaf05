//go:build !windows

package desktop

import "github.com/rs/zerolog"

// TerminateProcessByPort is a no-op off Windows: POSIX servers get an
// interrupt on shutdown and do not linger the way a killed console
// process does.
func TerminateProcessByPort(port int, log zerolog.Logger) error {
	return nil
}
