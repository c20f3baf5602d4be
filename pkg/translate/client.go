package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/lumen-commerce/imagesitemap/pkg/logging"
)

const tokenHeader = "X-Storefront-Access-Token"

// Translation entry keys. A bare image_alt key applies to all of an
// entity's images; image_alt:<id> targets one image.
const (
	titleKey    = "title"
	imageAltKey = "image_alt"
)

// translationEntry is one key/value pair from the translation API.
type translationEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type translationResponse struct {
	Translations []translationEntry `json:"translations"`
}

// ClientConfig holds the translation API client configuration.
type ClientConfig struct {
	// BaseURL is the root of the translation API.
	BaseURL string

	// UserAgent identifies this service to the platform.
	UserAgent string

	// Timeout bounds each lookup call; the hydrator's per-lookup
	// context usually cuts in first.
	Timeout time.Duration
}

// Client fetches per-entity translation entries. Calls run through a
// circuit breaker so a dying translation service degrades requests to
// base-locale output quickly instead of stalling every lookup until
// its timeout.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// NewClient creates a translation API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	var st gobreaker.Settings
	st.Name = "translation-api"
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		breaker:    gobreaker.NewCircuitBreaker[[]byte](st),
		logger:     logging.NewLogger("translate-client"),
	}, nil
}

// FetchOverrides implements Fetcher. A 404 or an empty translation list
// is a miss (empty override, nil error); transport failures, non-2xx
// statuses and an open breaker are errors, which the hydrator treats as
// "no override for this candidate".
func (c *Client) FetchOverrides(ctx context.Context, req Request) (*Override, error) {
	endpoint := fmt.Sprintf("/translations/%s/%d.json", req.Type, req.ID)
	params := url.Values{}
	params.Set("locale", req.Locale)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.config.BaseURL+endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if c.config.UserAgent != "" {
			httpReq.Header.Set("User-Agent", c.config.UserAgent)
		}
		httpReq.Header.Set("Accept", "application/json")
		if req.Token != "" {
			httpReq.Header.Set(tokenHeader, req.Token)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("translation request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// No translations for this entity+locale.
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("translation API status %d on %s", resp.StatusCode, endpoint)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	if body == nil {
		return &Override{}, nil
	}

	var decoded translationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode translation response: %w", err)
	}

	return overrideFromEntries(decoded.Translations), nil
}

// overrideFromEntries folds the API's flat key/value list into an
// Override. Keys: "title", "image_alt" (wildcard), "image_alt:<id>".
func overrideFromEntries(entries []translationEntry) *Override {
	o := &Override{}
	for _, e := range entries {
		if e.Value == "" {
			continue
		}
		switch {
		case e.Key == titleKey:
			o.Title = e.Value
		case e.Key == imageAltKey:
			o.WildcardAlt = e.Value
		case strings.HasPrefix(e.Key, imageAltKey+":"):
			id, err := strconv.ParseInt(strings.TrimPrefix(e.Key, imageAltKey+":"), 10, 64)
			if err != nil {
				continue
			}
			if o.ImageAlt == nil {
				o.ImageAlt = make(map[int64]string)
			}
			o.ImageAlt[id] = e.Value
		}
	}
	return o
}
