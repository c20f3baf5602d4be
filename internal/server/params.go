package server

import (
	"net/http"
	"strconv"
)

// typeFilter is the requested resource filter, including the combined
// "all" form the single types in pkg/catalog do not know about.
type typeFilter string

const (
	filterProducts    typeFilter = "products"
	filterCollections typeFilter = "collections"
	filterAll         typeFilter = "all"
)

// sitemapParams is the normalized parameter set of an /image.xml request.
type sitemapParams struct {
	Type       typeFilter
	Page       int
	PerPage    int
	Locale     string // explicit override, empty = host inference
	PreferHost bool
	Captions   bool
}

// indexParams is the normalized parameter set of an /image-index.xml request.
type indexParams struct {
	Type    typeFilter
	Pages   int
	PerPage int
	Locale  string
}

// parseSitemapParams normalizes /image.xml query parameters. Malformed
// values are clamped to valid ranges instead of rejected: sitemap
// consumers must never get a hard error for a slightly off page number.
func (s *Server) parseSitemapParams(r *http.Request) sitemapParams {
	q := r.URL.Query()
	return sitemapParams{
		Type:       parseType(q.Get("type")),
		Page:       clampInt(q.Get("page"), 1, 1, 1<<30),
		PerPage:    clampInt(q.Get("per_page"), s.config.DefaultPerPage, 1, s.config.PerPageCap),
		Locale:     q.Get("locale"),
		PreferHost: q.Get("prefer_host") == "1",
		Captions:   q.Get("captions") != "0",
	}
}

// parseIndexParams normalizes /image-index.xml query parameters.
func (s *Server) parseIndexParams(r *http.Request) indexParams {
	q := r.URL.Query()
	return indexParams{
		Type:    parseType(q.Get("type")),
		Pages:   clampInt(q.Get("pages"), 1, 1, s.config.MaxIndexPages),
		PerPage: clampInt(q.Get("per_page"), s.config.DefaultPerPage, 1, s.config.PerPageCap),
		Locale:  q.Get("locale"),
	}
}

// parseType maps the type parameter to a filter; anything unknown
// becomes "all".
func parseType(raw string) typeFilter {
	switch typeFilter(raw) {
	case filterProducts, filterCollections:
		return typeFilter(raw)
	default:
		return filterAll
	}
}

// clampInt parses raw as an integer and clamps it into [min, max];
// absent or unparseable values get def.
func clampInt(raw string, def, min, max int) int {
	n, err := strconv.Atoi(raw)
	if raw == "" || err != nil {
		n = def
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}
