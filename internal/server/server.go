// Package server wires the sitemap pipeline into the HTTP surface
// consumed by crawlers and the hosting platform's proxy layer.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lumen-commerce/imagesitemap/pkg/cache"
	"github.com/lumen-commerce/imagesitemap/pkg/credentials"
	"github.com/lumen-commerce/imagesitemap/pkg/locale"
	"github.com/lumen-commerce/imagesitemap/pkg/logging"
	"github.com/lumen-commerce/imagesitemap/pkg/paginator"
	"github.com/lumen-commerce/imagesitemap/pkg/translate"
)

// Config holds the HTTP surface configuration.
type Config struct {
	// Shop is the storefront domain used for credential lookup when the
	// request carries no shop parameter.
	Shop string

	// PrimaryHost is the storefront's primary domain, used for page
	// URLs unless prefer_host=1 selects the request host.
	PrimaryHost string

	// PerPageCap bounds per_page; out-of-range values are clamped, not
	// rejected, so crawlers never see a hard error for a sloppy query.
	PerPageCap int

	// DefaultPerPage applies when per_page is absent.
	DefaultPerPage int

	// MaxIndexPages bounds the pages parameter of the index document.
	MaxIndexPages int

	// CacheTTL is how long rendered documents stay valid.
	CacheTTL time.Duration

	// SharedSecret verifies the proxy signature on inbound requests;
	// empty disables verification (the proxy layer verified already).
	SharedSecret string
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{
		PerPageCap:     1000,
		DefaultPerPage: 250,
		MaxIndexPages:  500,
		CacheTTL:       15 * time.Minute,
	}
}

// Server handles sitemap HTTP requests.
type Server struct {
	slicer   *paginator.Slicer
	hydrator *translate.Hydrator
	store    cache.Store
	creds    *credentials.Store
	locales  *locale.Table
	config   Config
	logger   zerolog.Logger
}

// New creates a server over the assembled pipeline.
func New(slicer *paginator.Slicer, hydrator *translate.Hydrator, store cache.Store, creds *credentials.Store, locales *locale.Table, cfg Config) *Server {
	if cfg.PerPageCap <= 0 {
		cfg.PerPageCap = 1000
	}
	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = 250
	}
	if cfg.MaxIndexPages <= 0 {
		cfg.MaxIndexPages = 500
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &Server{
		slicer:   slicer,
		hydrator: hydrator,
		store:    store,
		creds:    creds,
		locales:  locales,
		config:   cfg,
		logger:   logging.NewLogger("server"),
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Group(func(r chi.Router) {
		r.Use(s.verifySignature)
		r.Get("/image.xml", s.handleImageSitemap)
		r.Get("/image-index.xml", s.handleImageIndex)
	})

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// requestHost returns the storefront host the request arrived for. The
// proxy layer forwards the original host.
func requestHost(r *http.Request) string {
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		return h
	}
	return r.Host
}
