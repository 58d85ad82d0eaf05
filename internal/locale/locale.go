// Package locale detects the user's preferred languages and builds the
// fallback chain used for loading pages and menu catalogs.
package locale

import (
	"strings"

	oslocale "github.com/jeandeaual/go-locale"
)

// DefaultTag is the final fallback; its catalogs always ship.
const DefaultTag = "en_US"

// Detector returns the user's preferred languages, most preferred first.
// Split out so tests run without touching OS settings.
type Detector func() ([]string, error)

// OS reads the preferred-language list from the operating system.
func OS() ([]string, error) {
	return oslocale.GetLocales()
}

// Normalize converts a tag to ll_CC form: "en-US" and "en_US.UTF-8" both
// become "en_US", "sr_RS@latin" becomes "sr_RS", bare "EN" becomes "en".
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexByte(tag, '.'); i >= 0 {
		tag = tag[:i]
	}
	if i := strings.IndexByte(tag, '@'); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "-", "_")
	parts := strings.Split(tag, "_")
	lang := strings.ToLower(parts[0])
	if lang == "" {
		return ""
	}
	region := ""
	for _, part := range parts[1:] {
		if isRegion(part) {
			region = strings.ToUpper(part)
		}
	}
	if region == "" {
		return lang
	}
	return lang + "_" + region
}

// isRegion accepts two-letter country codes and three-digit UN M.49 areas
// such as the 419 in es_419.
func isRegion(part string) bool {
	switch len(part) {
	case 2:
		return isAlpha(part)
	case 3:
		return isDigits(part)
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Base returns the language part of a normalized tag: "es_ES" → "es".
func Base(tag string) string {
	if i := strings.IndexByte(tag, '_'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// BCP47 renders a normalized tag in hyphenated form for the i18n bundle.
func BCP47(tag string) string {
	return strings.ReplaceAll(tag, "_", "-")
}

// Candidates builds the ordered language chain: the override (when set)
// replaces detection; exact tags come first, base languages after, all
// deduplicated, with DefaultTag as the final entry.
func Candidates(override string, detect Detector) []string {
	var raw []string
	if override != "" {
		raw = []string{override}
	} else if detect != nil {
		if tags, err := detect(); err == nil {
			raw = tags
		}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	for _, r := range raw {
		add(Normalize(r))
	}
	for _, r := range raw {
		add(Base(Normalize(r)))
	}
	add(DefaultTag)
	return out
}
