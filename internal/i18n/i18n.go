// Package i18n provides the localized message catalog for CSV headers and
// admin notifications. Catalogs are YAML files embedded at build time;
// lookups fall back to English for missing keys or unknown locales.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLocale is the fallback catalog.
const DefaultLocale = "en"

// Bundle holds the message catalogs for all embedded locales.
type Bundle struct {
	catalogs map[string]map[string]string
	locale   string
}

// NewBundle loads every embedded locale catalog and selects the given
// locale. An unknown locale falls back to English.
func NewBundle(locale string) (*Bundle, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading locales: %w", err)
	}

	b := &Bundle{catalogs: make(map[string]map[string]string), locale: locale}

	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading locale %s: %w", name, err)
		}

		var nested map[string]any
		if err := yaml.Unmarshal(data, &nested); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", name, err)
		}

		flat := make(map[string]string)
		flatten("", nested, flat)
		b.catalogs[name] = flat
	}

	if _, ok := b.catalogs[locale]; !ok {
		b.locale = DefaultLocale
	}
	if _, ok := b.catalogs[DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q missing from embedded catalogs", DefaultLocale)
	}

	return b, nil
}

// Locale returns the active locale after fallback resolution.
func (b *Bundle) Locale() string {
	return b.locale
}

// T returns the message for a dotted key ("notify.forecast_ready") in the
// active locale, falling back to English, then to the key itself.
func (b *Bundle) T(key string) string {
	if msg, ok := b.catalogs[b.locale][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// flatten collapses nested YAML maps into dotted keys.
func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		}
	}
}
