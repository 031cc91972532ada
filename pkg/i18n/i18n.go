// Package i18n localizes user-facing error messages. Message files are embedded and keyed by
// error kind.
package i18n

import (
	"embed"
	"encoding/json"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

var messageFiles = []string{
	"locales/active.en.json",
	"locales/active.id.json",
}

type Translator struct {
	bundle *goi18n.Bundle
}

func New() (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range messageFiles {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}
	return &Translator{bundle: bundle}, nil
}

// Localize renders messageID for the first supported language in langs (tags or
// Accept-Language values), falling back to English. ok is false when no message exists.
func (t *Translator) Localize(messageID string, data map[string]any, langs ...string) (msg string, ok bool) {
	loc := goi18n.NewLocalizer(t.bundle, langs...)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: messageID, TemplateData: data})
	if err != nil {
		return "", false
	}
	return msg, true
}

func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}
