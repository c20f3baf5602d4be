// Package catalog provides the HTTP client for the commerce platform's
// cursor-paginated catalog listing API, with retry, error classification,
// and Prometheus metrics.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/lumen-commerce/imagesitemap/pkg/logging"
)

// Prometheus metrics for listing API operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total listing API requests by resource type and status",
	}, []string{"type", "status"})

	catalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Listing API request duration in seconds by resource type",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"type"})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total listing API errors by class",
	}, []string{"class"})
)

// tokenHeader carries the per-shop API credential.
const tokenHeader = "X-Storefront-Access-Token"

// Config holds the listing client configuration.
type Config struct {
	// BaseURL is the root of the catalog API, e.g. "https://admin.platform.example".
	BaseURL string

	// UserAgent identifies this service to the platform.
	UserAgent string

	// Timeout bounds each listing call end to end.
	Timeout time.Duration

	// Retry controls backoff for server/network failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "imagesitemap/1.0",
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// Client fetches cursor pages from the catalog listing API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new listing client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logging.NewLogger("catalog-client"),
	}, nil
}

// ListPage fetches one cursor page of the listing identified by q.
// Sorting (updated_at descending) is delegated to the upstream via the
// query so that concatenated pages preserve the true catalog order.
func (c *Client) ListPage(ctx context.Context, q ListQuery) (*ListPage, error) {
	if !q.Type.Valid() {
		return nil, fmt.Errorf("invalid resource type %q", q.Type)
	}
	if q.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", q.PageSize)
	}

	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(string(q.Type)).Observe(time.Since(startTime).Seconds())
	}()

	endpoint := fmt.Sprintf("/catalog/%s.json", q.Type)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.PageSize))
	params.Set("sort", "updated_at")
	params.Set("order", "desc")
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}

	var page *ListPage
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.config.BaseURL+endpoint+"?"+params.Encode(), nil)
		if err != nil {
			errClass = ErrorClassNetwork
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if q.Token != "" {
			req.Header.Set(tokenHeader, q.Token)
		}

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			errClass = classify(0, reqErr)
			catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
			catalogRequestsTotal.WithLabelValues(string(q.Type), "network_error").Inc()
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("Listing request failed")
			return &UpstreamError{Class: errClass, Endpoint: endpoint, Message: "request failed", Err: reqErr}
		}
		defer resp.Body.Close()

		catalogRequestsTotal.WithLabelValues(string(q.Type), strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusOK {
			errClass = classify(resp.StatusCode, nil)
			catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Listing request error")
			return &UpstreamError{
				StatusCode: resp.StatusCode,
				Class:      errClass,
				Endpoint:   endpoint,
				Message:    resp.Status,
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			errClass = ErrorClassNetwork
			return &UpstreamError{Class: errClass, Endpoint: endpoint, Message: "read body", Err: err}
		}

		var decoded ListPage
		if err := json.Unmarshal(body, &decoded); err != nil {
			// A malformed body from the upstream is a server-side fault.
			errClass = ErrorClassServer
			return &UpstreamError{
				StatusCode: resp.StatusCode,
				Class:      errClass,
				Endpoint:   endpoint,
				Message:    "decode response",
				Err:        err,
			}
		}

		page = &decoded
		return nil
	}, func() ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("items", len(page.Items)).
		Bool("has_more", page.HasMore).
		Dur("duration", time.Since(startTime)).
		Msg("Listing page fetched")

	return page, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
