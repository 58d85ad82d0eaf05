// Package assets embeds the localized loading pages shown while the
// Kolibri server starts, and resolves which page a language chain gets.
package assets

import (
	"embed"
	"net/http"
)

// The all: prefix is required because the page names start with an
// underscore, which go:embed skips by default.
//
//go:embed all:loading
var FS embed.FS

const pagePrefix = "loading/_load-"

// DefaultPage always ships; the fallback chain ends here.
const DefaultPage = "loading/_load-en_US.html"

func init() {
	if !exists(DefaultPage) {
		panic("assets: default loading page missing from embed")
	}
}

// Resolve returns the embedded page path for the first language in the
// chain that ships one. The chain already contains base languages and the
// default tag, so resolution cannot fail.
func Resolve(candidates []string) string {
	for _, tag := range candidates {
		if name := pagePrefix + tag + ".html"; exists(name) {
			return name
		}
	}
	return DefaultPage
}

// Page reads an embedded page by the path Resolve returned.
func Page(name string) ([]byte, error) {
	return FS.ReadFile(name)
}

func exists(name string) bool {
	f, err := FS.Open(name)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// RewriteRoot serves the resolved loading page for the window's initial
// "/" request and passes every other asset path through.
func RewriteRoot(resolved string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" || r.URL.Path == "/index.html" {
				clone := r.Clone(r.Context())
				clone.URL.Path = "/" + resolved
				next.ServeHTTP(w, clone)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
