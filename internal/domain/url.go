package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultPort is the fixed loopback port the Kolibri server listens on.
const DefaultPort = 5000

// RootURLForPort builds the loopback origin for a given port.
func RootURLForPort(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// InOrigin reports whether raw is a URL inside the server origin rooted
// at root. Used to decide if a saved URL may be restored and whether a
// link stays in the webview or goes to the system browser. Origins are
// compared parsed, not as string prefixes, so port 5000 never matches
// port 50000.
func InOrigin(raw, root string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	r, err := url.Parse(root)
	if err != nil {
		return false
	}
	return u.Scheme == r.Scheme && u.Host == r.Host
}

// IsWebURL reports whether raw is an http or https URL. Anything else
// (mailto:, file:, about:blank) is left to the webview.
func IsWebURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
