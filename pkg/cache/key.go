package cache

import (
	"fmt"
	"strings"
)

// Key identifies one rendered sitemap document. Every parameter that
// influences rendered output must appear here; omitting one would leak
// content between requests that differ only in that parameter.
type Key struct {
	// Shop is the storefront domain the document was rendered for.
	Shop string

	// Type is the requested resource filter (products, collections, all).
	Type string

	// Page and PerPage identify the window.
	Page    int
	PerPage int

	// Locale is the resolved base locale.
	Locale string

	// Host is the request host used for URL building.
	Host string

	// PreferHost toggles request-host URLs over the primary domain.
	PreferHost bool

	// Captions toggles image caption output.
	Captions bool

	// Doc distinguishes document kinds sharing the parameter set
	// ("urlset", "index").
	Doc string
}

// String generates the deterministic store key. Fields are emitted in a
// fixed order so equal keys always produce equal strings.
//
// Example:
//
//	sitemap:acme.example.com:urlset:type=products:page=2:per_page=100:locale=fr:host=fr.acme.example.com:prefer_host=1:captions=1
func (k Key) String() string {
	parts := []string{
		"sitemap",
		strings.ToLower(k.Shop),
		k.Doc,
		"type=" + k.Type,
		fmt.Sprintf("page=%d", k.Page),
		fmt.Sprintf("per_page=%d", k.PerPage),
		"locale=" + k.Locale,
		"host=" + strings.ToLower(k.Host),
		"prefer_host=" + boolFlag(k.PreferHost),
		"captions=" + boolFlag(k.Captions),
	}
	return strings.Join(parts, ":")
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
