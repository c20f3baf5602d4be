// Package locale maps storefront hosts to locale codes and expands a
// base locale into the ordered candidate list tried against the
// translation API.
//
// Host inference is a declarative pattern table evaluated as pure
// functions; nothing in this package touches global state.
package locale

import "strings"

// Rule maps one host pattern to a locale code.
//
// Pattern forms:
//   - "fr."    prefix match ("fr.acme-shop.com")
//   - ".fr"    suffix match ("acme-shop.fr", "shop.acme.fr")
//   - anything else is an exact host match
type Rule struct {
	Pattern string
	Locale  string
}

// Table resolves hosts to locales. Build it once at startup with New.
type Table struct {
	rules         []Rule
	defaultLocale string
}

// New creates a resolution table. Rules are evaluated longest pattern
// first so that ".co.jp" wins over ".jp".
func New(rules []Rule, defaultLocale string) *Table {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	// Insertion sort by descending pattern length; tables are small.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j].Pattern) > len(sorted[j-1].Pattern); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Table{rules: sorted, defaultLocale: defaultLocale}
}

// Resolve returns the base locale for a request. An explicit override
// always wins; otherwise the host is matched against the table, and a
// host with no matching rule gets the default locale.
func (t *Table) Resolve(host, override string) string {
	if override != "" {
		return Normalize(override)
	}

	h := strings.ToLower(strings.TrimSpace(host))
	for _, r := range t.rules {
		p := strings.ToLower(r.Pattern)
		switch {
		case strings.HasPrefix(p, "."):
			if strings.HasSuffix(h, p) {
				return Normalize(r.Locale)
			}
		case strings.HasSuffix(p, "."):
			if strings.HasPrefix(h, p) {
				return Normalize(r.Locale)
			}
		default:
			if h == p {
				return Normalize(r.Locale)
			}
		}
	}
	return Normalize(t.defaultLocale)
}

// Default returns the table's fallback locale.
func (t *Table) Default() string {
	return Normalize(t.defaultLocale)
}

// regionOverrides lists bases whose usual region association is not the
// uppercased base itself, or needs distinguishing from a neighboring
// market variant (pt: the storefront's largest Portuguese market is
// Brazil, not Portugal).
var regionOverrides = map[string]string{
	"en": "US",
	"ja": "JP",
	"zh": "CN",
	"ko": "KR",
	"pt": "BR",
	"sv": "SE",
	"da": "DK",
	"cs": "CZ",
	"el": "GR",
	"nb": "NO",
	"uk": "UA",
}

// Normalize canonicalizes a locale code: lowercase language, uppercase
// region, "-" separator ("PT_br" -> "pt-BR").
func Normalize(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	lang, region, ok := strings.Cut(code, "-")
	if !ok {
		return strings.ToLower(code)
	}
	return strings.ToLower(lang) + "-" + strings.ToUpper(region)
}

// Candidates expands a base locale into the ordered, deduplicated list
// of variants to try against the translation API, most specific first.
//
//	"fr"    -> ["fr-FR", "fr"]
//	"pt"    -> ["pt-BR", "pt"]  (region override table)
//	"pt-PT" -> ["pt-PT", "pt"]
func Candidates(base string) []string {
	base = Normalize(base)
	if base == "" {
		return nil
	}

	lang, _, qualified := strings.Cut(base, "-")

	var out []string
	if qualified {
		out = []string{base, lang}
	} else {
		region, ok := regionOverrides[lang]
		if !ok {
			region = strings.ToUpper(lang)
		}
		out = []string{lang + "-" + region, lang}
	}

	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
