// Package i18n localizes the shell's own UI strings (menus, tray). The
// Kolibri web app carries its own translations; only the native chrome is
// translated here.
package i18n

import (
	"embed"
	"io/fs"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/learningequality/kolibri-desktop/internal/locale"
)

//go:embed catalogs/active.*.toml
var catalogsFS embed.FS

// Translator resolves UI strings against the user's language chain.
type Translator struct {
	localizer *goi18n.Localizer
}

// New loads the embedded catalogs and builds a Translator for the
// candidate chain (normalized ll_CC tags, most preferred first). A catalog
// that fails to load is skipped with a warning; English defaults live at
// the call sites, so the Translator always resolves.
func New(candidates []string, log zerolog.Logger) *Translator {
	bundle := goi18n.NewBundle(language.AmericanEnglish)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := fs.ReadDir(catalogsFS, "catalogs")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list message catalogs")
	}
	for _, entry := range entries {
		name := "catalogs/" + entry.Name()
		if _, err := bundle.LoadMessageFileFS(catalogsFS, name); err != nil {
			log.Warn().Err(err).Str("catalog", name).Msg("Failed to load message catalog")
		}
	}

	tags := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tags = append(tags, locale.BCP47(candidate))
	}
	return &Translator{localizer: goi18n.NewLocalizer(bundle, tags...)}
}

// T returns the translation for id, or the English fallback when the
// chain has no catalog carrying it.
func (t *Translator) T(id, fallback string) string {
	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:      id,
		DefaultMessage: &goi18n.Message{ID: id, Other: fallback},
	})
	if err != nil {
		return fallback
	}
	return msg
}
