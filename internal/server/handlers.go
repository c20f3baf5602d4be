package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumen-commerce/imagesitemap/pkg/cache"
	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
	"github.com/lumen-commerce/imagesitemap/pkg/credentials"
	"github.com/lumen-commerce/imagesitemap/pkg/locale"
	"github.com/lumen-commerce/imagesitemap/pkg/paginator"
	"github.com/lumen-commerce/imagesitemap/pkg/sitemap"
	"github.com/lumen-commerce/imagesitemap/pkg/translate"
)

var (
	sitemapDocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitemap_documents_total",
		Help: "Sitemap documents served by kind and source (cache, render)",
	}, []string{"doc", "source"})

	sitemapErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitemap_request_errors_total",
		Help: "Failed sitemap requests by reason",
	}, []string{"reason"})
)

// shopFor returns the storefront domain used for credential lookup: the
// shop query parameter, then the configured shop, then the request host.
func (s *Server) shopFor(r *http.Request) string {
	if shop := r.URL.Query().Get("shop"); shop != "" {
		return shop
	}
	if s.config.Shop != "" {
		return s.config.Shop
	}
	return requestHost(r)
}

func (s *Server) handleImageSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := s.parseSitemapParams(r)
	host := requestHost(r)
	shop := s.shopFor(r)
	baseLocale := s.locales.Resolve(host, params.Locale)

	key := cache.Key{
		Shop:       shop,
		Doc:        "urlset",
		Type:       string(params.Type),
		Page:       params.Page,
		PerPage:    params.PerPage,
		Locale:     baseLocale,
		Host:       host,
		PreferHost: params.PreferHost,
		Captions:   params.Captions,
	}

	if doc, err := s.store.Get(ctx, key.String()); err == nil {
		sitemapDocumentsTotal.WithLabelValues("urlset", "cache").Inc()
		serveXML(w, doc)
		return
	}

	cred, err := s.creds.Get(ctx, shop)
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := s.buildSitemap(ctx, shop, cred.AccessToken, host, baseLocale, params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// A document assembled for a disconnected client must not reach
	// the shared cache.
	if ctx.Err() != nil {
		return
	}
	if err := s.store.Set(ctx, key.String(), doc, s.config.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to cache rendered sitemap")
	}

	sitemapDocumentsTotal.WithLabelValues("urlset", "render").Inc()
	serveXML(w, doc)
}

// buildSitemap runs the pipeline for one window: exact slice fetch,
// bounded translation fan-out on just that slice, then rendering.
func (s *Server) buildSitemap(ctx context.Context, shop, token, host, baseLocale string, params sitemapParams) ([]byte, error) {
	offset := (params.Page - 1) * params.PerPage

	var types []catalog.ResourceType
	switch params.Type {
	case filterProducts:
		types = []catalog.ResourceType{catalog.TypeProducts}
	case filterCollections:
		types = []catalog.ResourceType{catalog.TypeCollections}
	default:
		types = []catalog.ResourceType{catalog.TypeProducts, catalog.TypeCollections}
	}

	urlHost := s.config.PrimaryHost
	if urlHost == "" || params.PreferHost {
		urlHost = host
	}

	candidates := locale.Candidates(baseLocale)

	var entries []sitemap.Entry
	for _, typ := range types {
		slice, err := s.slicer.FetchSlice(ctx, paginator.SliceRequest{
			Shop:   shop,
			Token:  token,
			Type:   typ,
			Offset: offset,
			Limit:  params.PerPage,
		})
		if err != nil {
			return nil, err
		}

		overrides := translate.Result{}
		if params.Captions {
			overrides = s.hydrator.Hydrate(ctx, translate.Slice{
				Shop:     shop,
				Token:    token,
				Type:     typ,
				Entities: slice,
			}, candidates)
		}

		for _, e := range slice {
			if len(e.Images) == 0 {
				continue
			}
			entry := sitemap.Entry{
				PageURL: sitemap.PageURL(urlHost, typ, e),
				LastMod: e.UpdatedAt,
			}
			if params.Captions {
				entry.Title = overrides.Title(e)
			}
			for _, img := range e.Images {
				ie := sitemap.ImageEntry{URL: img.Src}
				if params.Captions {
					ie.Caption = overrides.Caption(e, img)
				}
				entry.Images = append(entry.Images, ie)
			}
			entries = append(entries, entry)
		}
	}

	return sitemap.RenderURLSet(entries)
}

func (s *Server) handleImageIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := s.parseIndexParams(r)
	host := requestHost(r)

	key := cache.Key{
		Shop:    s.shopFor(r),
		Doc:     "index",
		Type:    string(params.Type),
		Page:    params.Pages,
		PerPage: params.PerPage,
		Locale:  params.Locale,
		Host:    host,
	}

	if doc, err := s.store.Get(ctx, key.String()); err == nil {
		sitemapDocumentsTotal.WithLabelValues("index", "cache").Inc()
		serveXML(w, doc)
		return
	}

	urls := make([]string, 0, params.Pages)
	for page := 1; page <= params.Pages; page++ {
		urls = append(urls, sitemap.SitemapURL(host, string(params.Type), page, params.PerPage, params.Locale))
	}

	doc, err := sitemap.RenderIndex(urls)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if ctx.Err() == nil {
		if err := s.store.Set(ctx, key.String(), doc, s.config.CacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache sitemap index")
		}
	}

	sitemapDocumentsTotal.WithLabelValues("index", "render").Inc()
	serveXML(w, doc)
}

func serveXML(w http.ResponseWriter, doc []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// writeError maps pipeline failures to client-facing statuses. Only
// listing and provisioning failures surface as non-200; internal detail
// never leaks.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var upstreamErr *catalog.UpstreamError

	switch {
	case errors.Is(err, credentials.ErrNotProvisioned):
		sitemapErrorsTotal.WithLabelValues("not_provisioned").Inc()
		http.Error(w, "storefront not provisioned: complete app installation to enable sitemaps", http.StatusConflict)
	case errors.As(err, &upstreamErr), errors.Is(err, catalog.ErrRetryExhausted):
		sitemapErrorsTotal.WithLabelValues("upstream_unavailable").Inc()
		s.logger.Error().Err(err).Msg("Catalog listing unavailable")
		http.Error(w, "catalog temporarily unavailable", http.StatusBadGateway)
	default:
		sitemapErrorsTotal.WithLabelValues("internal").Inc()
		s.logger.Error().Err(err).Msg("Unhandled error serving sitemap")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
