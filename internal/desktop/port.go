package desktop

import (
	"fmt"
	"net"
	"time"
)

// PortOccupied reports whether something is already listening on the
// server's loopback port, which usually means a crashed run left a server
// behind.
func PortOccupied(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
