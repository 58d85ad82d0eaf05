// Package desktop is the native shell: the webview window, its menus and
// tray icon, window spawning, and the glue between the readiness poller,
// the state store and the wails runtime.
package desktop

import (
	"fmt"

	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// External URLs offered in the Help menu.
const (
	DocumentationURL = "https://kolibri.readthedocs.io/en/latest/"
	ForumsURL        = "https://community.learningequality.org/"
)

// OpenExternally reports whether a URL must leave the webview for the
// system browser: any web URL outside the server origin.
func OpenExternally(url, root string) bool {
	return domain.IsWebURL(url) && !domain.InOrigin(url, root)
}

// NavigateScript replaces the current page without leaving a history
// entry, so Back can never land on the loading screen.
func NavigateScript(url string) string {
	return fmt.Sprintf("window.location.replace(%q);", url)
}

// HookScript is injected into server pages after navigation. The wails
// JS bridge only exists on the shell's own asset origin, so the hooks
// talk to the control channel with fire-and-forget requests instead:
// off-origin link clicks are routed to /open and every history change is
// reported to /navigated. The guard keeps reinjection idempotent.
func HookScript(beaconBase, token, root string) string {
	return fmt.Sprintf(`(function() {
	if (window.__kolibriShellHooks) { return; }
	window.__kolibriShellHooks = true;
	var base = %q;
	var token = %q;
	var root = %q;
	function beacon(path, url) {
		try {
			fetch(base + path + '?token=' + encodeURIComponent(token) + '&url=' + encodeURIComponent(url), {mode: 'no-cors'});
		} catch (err) {}
	}
	function report() { beacon('/navigated', window.location.href); }
	function external(href) {
		try { return new URL(href).origin !== new URL(root).origin; } catch (err) { return false; }
	}
	document.addEventListener('click', function(ev) {
		var el = ev.target;
		while (el && !el.href) { el = el.parentElement; }
		if (!el) { return; }
		var href = String(el.href);
		if (href.indexOf('http') === 0 && external(href)) {
			ev.preventDefault();
			ev.stopPropagation();
			beacon('/open', href);
		}
	}, true);
	var push = history.pushState;
	history.pushState = function() { push.apply(history, arguments); report(); };
	var replaceState = history.replaceState;
	history.replaceState = function() { replaceState.apply(history, arguments); report(); };
	window.addEventListener('popstate', report);
	window.addEventListener('hashchange', report);
	report();
})();`, beaconBase, token, root)
}

// Browser history scripts for the History and View menus.
const (
	BackScript    = "history.back();"
	ForwardScript = "history.forward();"
	ReloadScript  = "window.location.reload();"
)

// Editing command scripts for the Edit menu. The webview applies these to
// the focused element.
func EditScript(command string) string {
	return fmt.Sprintf("document.execCommand(%q);", command)
}
