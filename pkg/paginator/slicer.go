package paginator

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
	"github.com/lumen-commerce/imagesitemap/pkg/logging"
)

var sliceUpstreamCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "paginator_upstream_calls_per_slice",
	Help:    "Number of listing API calls issued to satisfy one slice",
	Buckets: []float64{1, 2, 3, 5, 8, 13},
}, []string{"type"})

// Lister is the subset of the catalog client the slicer needs.
type Lister interface {
	ListPage(ctx context.Context, q catalog.ListQuery) (*catalog.ListPage, error)
}

// Config holds slicer configuration.
type Config struct {
	// MaxPageSize is the upstream per-call item cap.
	MaxPageSize int
}

// DefaultConfig returns the default slicer configuration.
func DefaultConfig() Config {
	return Config{MaxPageSize: 250}
}

// SliceRequest identifies one window of the logical catalog enumeration.
type SliceRequest struct {
	Shop   string
	Token  string
	Type   catalog.ResourceType
	Offset int
	Limit  int
}

// Slicer fetches exact windows from the cursor-paginated listing API.
type Slicer struct {
	lister Lister
	config Config
	logger zerolog.Logger
}

// New creates a new slicer.
func New(lister Lister, cfg Config) *Slicer {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 250
	}
	return &Slicer{
		lister: lister,
		config: cfg,
		logger: logging.NewLogger("paginator"),
	}
}

// FetchSlice returns the entities a full newest-first enumeration of the
// catalog would place at positions [Offset, Offset+Limit). The result is
// shorter than Limit when the catalog is exhausted; that is not an error.
// Any upstream failure aborts the whole slice and discards partial
// progress, so callers never see a partially fetched window.
func (s *Slicer) FetchSlice(ctx context.Context, req SliceRequest) ([]catalog.Entity, error) {
	if req.Offset < 0 {
		return nil, fmt.Errorf("offset must be non-negative, got %d", req.Offset)
	}
	if req.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", req.Limit)
	}

	start := time.Now()
	out := make([]catalog.Entity, 0, req.Limit)
	position := 0
	cursor := ""
	calls := 0

	for len(out) < req.Limit {
		// Request only what is still needed to reach the window's end;
		// the upstream cap bounds each individual call.
		batch := req.Offset + req.Limit - position
		if batch > s.config.MaxPageSize {
			batch = s.config.MaxPageSize
		}

		page, err := s.lister.ListPage(ctx, catalog.ListQuery{
			Shop:     req.Shop,
			Token:    req.Token,
			Type:     req.Type,
			PageSize: batch,
			Cursor:   cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch slice at position %d: %w", position, err)
		}
		calls++

		for _, item := range page.Items {
			if position >= req.Offset && len(out) < req.Limit {
				out = append(out, item)
			}
			position++
		}

		// Exhausted catalog. An empty page with has_more set would loop
		// forever, so it also terminates the scan.
		if !page.HasMore || page.NextCursor == "" || len(page.Items) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	sliceUpstreamCalls.WithLabelValues(string(req.Type)).Observe(float64(calls))

	s.logger.Debug().
		Str("shop", req.Shop).
		Str("type", string(req.Type)).
		Int("offset", req.Offset).
		Int("limit", req.Limit).
		Int("returned", len(out)).
		Int("upstream_calls", calls).
		Dur("duration", time.Since(start)).
		Msg("Slice fetched")

	return out, nil
}
