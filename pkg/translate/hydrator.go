package translate

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
	"github.com/lumen-commerce/imagesitemap/pkg/logging"
)

// Prometheus metrics for translation hydration.
var (
	translationLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_lookups_total",
		Help: "Total per-entity translation lookups by outcome (hit, miss, error)",
	}, []string{"outcome"})

	translationHydrateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "translation_hydrate_duration_seconds",
		Help:    "Duration of hydrating one slice of entities",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"type"})
)

// Request identifies one per-entity, per-locale override lookup.
type Request struct {
	Shop   string
	Token  string
	Type   catalog.ResourceType
	ID     int64
	Locale string
}

// Fetcher performs a single override lookup against the translation API.
// A nil or empty Override with a nil error means the locale has nothing
// for this entity.
type Fetcher interface {
	FetchOverrides(ctx context.Context, req Request) (*Override, error)
}

// Config holds hydrator configuration.
type Config struct {
	// Concurrency is the maximum number of in-flight per-entity
	// lookups; further entities queue until a worker frees up. This
	// bounds burst load on the translation API independent of slice
	// size.
	Concurrency int

	// Timeout bounds each individual lookup.
	Timeout time.Duration
}

// DefaultConfig returns safe hydrator defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 8,
		Timeout:     5 * time.Second,
	}
}

// Hydrator enriches a fixed slice of entities with locale overrides.
type Hydrator struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// New creates a hydrator.
func New(fetcher Fetcher, cfg Config) *Hydrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Hydrator{
		fetcher: fetcher,
		config:  cfg,
		logger:  logging.NewLogger("translate"),
	}
}

// Slice describes the entities to hydrate and the credential to use.
type Slice struct {
	Shop     string
	Token    string
	Type     catalog.ResourceType
	Entities []catalog.Entity
}

type entityResult struct {
	id       int64
	override *Override
}

// Hydrate fetches overrides for exactly the given entities, trying
// candidate locales in order per entity and stopping at the first one
// with a usable result. Lookup failures are non-fatal: a failed
// candidate counts as "no override for this candidate" and the next is
// tried, so Hydrate never fails the slice. Results are merged back by
// entity identity, so the caller's ordering is unaffected by which
// lookup finished first.
func (h *Hydrator) Hydrate(ctx context.Context, s Slice, candidates []string) Result {
	start := time.Now()
	defer func() {
		translationHydrateDuration.WithLabelValues(string(s.Type)).Observe(time.Since(start).Seconds())
	}()

	result := make(Result, len(s.Entities))
	if len(s.Entities) == 0 || len(candidates) == 0 {
		return result
	}

	jobs := make(chan catalog.Entity, len(s.Entities))
	results := make(chan entityResult, len(s.Entities))

	workers := h.config.Concurrency
	if workers > len(s.Entities) {
		workers = len(s.Entities)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go h.worker(ctx, s, candidates, jobs, results, &wg)
	}

	for _, e := range s.Entities {
		jobs <- e
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if !r.override.Empty() {
			result[r.id] = r.override
		}
	}

	h.logger.Debug().
		Str("shop", s.Shop).
		Str("type", string(s.Type)).
		Int("entities", len(s.Entities)).
		Int("translated", len(result)).
		Strs("candidates", candidates).
		Dur("duration", time.Since(start)).
		Msg("Slice hydrated")

	return result
}

// worker resolves overrides for entities from the job queue.
func (h *Hydrator) worker(ctx context.Context, s Slice, candidates []string, jobs <-chan catalog.Entity, results chan<- entityResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for e := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- entityResult{id: e.ID, override: h.resolveEntity(ctx, s, candidates, e)}
	}
}

// resolveEntity tries candidate locales in order and returns the first
// usable override, or nil.
func (h *Hydrator) resolveEntity(ctx context.Context, s Slice, candidates []string, e catalog.Entity) *Override {
	for _, loc := range candidates {
		lookupCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
		override, err := h.fetcher.FetchOverrides(lookupCtx, Request{
			Shop:   s.Shop,
			Token:  s.Token,
			Type:   s.Type,
			ID:     e.ID,
			Locale: loc,
		})
		cancel()

		if err != nil {
			translationLookupsTotal.WithLabelValues("error").Inc()
			h.logger.Debug().
				Err(err).
				Int64("entity_id", e.ID).
				Str("locale", loc).
				Msg("Translation lookup failed, trying next candidate")
			continue
		}
		if override.Empty() {
			translationLookupsTotal.WithLabelValues("miss").Inc()
			continue
		}

		translationLookupsTotal.WithLabelValues("hit").Inc()
		return override
	}
	return nil
}
