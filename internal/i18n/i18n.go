// Package i18n holds the translated UI strings. Messages live in flat YAML
// files under locales/ and are compiled into the binary.
package i18n

import (
	"embed"
	"os"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localesFS embed.FS

// SupportedLanguages lists the locale codes with a message file. The first
// entry is the fallback.
var SupportedLanguages = []string{"en", "ko", "ja"}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Korean,
	language.Japanese,
})

var localizer *i18n.Localizer

// Init loads every locale and selects one. An empty lang falls back to
// LC_ALL, then LANG, then English.
func Init(lang string) error {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)

	files, err := localesFS.ReadDir("locales")
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localesFS, "locales/"+f.Name()); err != nil {
			return err
		}
	}

	if lang == "" {
		lang = envLocale()
	}
	localizer = i18n.NewLocalizer(bundle, normalizeLanguage(lang), SupportedLanguages[0])
	return nil
}

func envLocale() string {
	for _, name := range []string{"LC_ALL", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// normalizeLanguage maps a POSIX locale such as ko_KR.UTF-8 to one of
// SupportedLanguages
func normalizeLanguage(locale string) string {
	locale, _, _ = strings.Cut(locale, ".")
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return SupportedLanguages[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return SupportedLanguages[0]
	}
	return SupportedLanguages[idx]
}

// T returns the message for id, or id itself when no translation exists
func T(id string, data ...map[string]any) string {
	if localizer == nil {
		return id
	}
	lc := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		lc.TemplateData = data[0]
	}
	msg, err := localizer.Localize(lc)
	if err != nil {
		return id
	}
	return msg
}

// Weekday returns the abbreviated weekday name used in grid headers
func Weekday(d time.Weekday) string {
	return T("calendar.weekday." + strings.ToLower(d.String()[:3]))
}

func Month(m time.Month) string {
	return T("calendar.month." + strings.ToLower(m.String()[:3]))
}
