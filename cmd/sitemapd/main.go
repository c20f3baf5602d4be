package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lumen-commerce/imagesitemap/internal/server"
	"github.com/lumen-commerce/imagesitemap/pkg/cache"
	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
	"github.com/lumen-commerce/imagesitemap/pkg/credentials"
	"github.com/lumen-commerce/imagesitemap/pkg/locale"
	"github.com/lumen-commerce/imagesitemap/pkg/logging"
	"github.com/lumen-commerce/imagesitemap/pkg/paginator"
	"github.com/lumen-commerce/imagesitemap/pkg/translate"
)

func main() {
	_ = godotenv.Load()

	logging.Setup(logging.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Pretty: getEnv("LOG_PRETTY", "") == "1",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStore(ctx)

	catalogClient, err := catalog.New(catalog.Config{
		BaseURL: mustEnv("CATALOG_BASE_URL"),
		Timeout: getDuration("CATALOG_TIMEOUT", 10*time.Second),
		Retry:   catalog.DefaultRetryConfig(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog client")
	}

	translateClient, err := translate.NewClient(translate.ClientConfig{
		BaseURL: getEnv("TRANSLATION_BASE_URL", mustEnv("CATALOG_BASE_URL")),
		Timeout: getDuration("TRANSLATION_TIMEOUT", 5*time.Second),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create translation client")
	}

	hydrator := translate.New(translateClient, translate.Config{
		Concurrency: getInt("TRANSLATION_CONCURRENCY", 8),
		Timeout:     getDuration("TRANSLATION_TIMEOUT", 5*time.Second),
	})

	locales := locale.New(parseLocaleRules(getEnv("LOCALE_RULES", "")), getEnv("DEFAULT_LOCALE", "en"))

	creds := credentials.NewStore(store)
	provisionFromEnv(ctx, creds)

	srv := server.New(
		paginator.New(catalogClient, paginator.DefaultConfig()),
		hydrator,
		store,
		creds,
		locales,
		server.Config{
			Shop:           getEnv("SHOP", ""),
			PrimaryHost:    getEnv("PRIMARY_HOST", ""),
			PerPageCap:     getInt("PER_PAGE_CAP", 1000),
			DefaultPerPage: getInt("DEFAULT_PER_PAGE", 250),
			MaxIndexPages:  getInt("MAX_INDEX_PAGES", 500),
			CacheTTL:       getDuration("CACHE_TTL", 15*time.Minute),
			SharedSecret:   getEnv("SHARED_SECRET", ""),
		},
	)

	addr := ":" + getEnv("PORT", "8080")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Starting sitemap server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newStore connects to Redis when REDIS_URL is set, otherwise serves
// from an in-process store. Single-instance deployments do not need
// Redis; anything behind a load balancer does.
func newStore(ctx context.Context) cache.Store {
	redisURL := getEnv("REDIS_URL", "")
	if redisURL == "" {
		log.Info().Msg("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryStore(getInt("CACHE_CAPACITY", 10000))
	}

	client := redis.NewClient(&redis.Options{Addr: redisURL})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
	}
	log.Info().Str("addr", redisURL).Msg("Connected to Redis")
	return cache.NewRedisStore(client)
}

// provisionFromEnv seeds the credential store for single-tenant
// deployments where the token ships as configuration rather than
// through an install flow.
func provisionFromEnv(ctx context.Context, creds *credentials.Store) {
	shop := getEnv("SHOP", "")
	token := getEnv("CATALOG_TOKEN", "")
	if shop == "" || token == "" {
		return
	}
	if err := creds.Put(ctx, credentials.Record{
		Shop:        shop,
		AccessToken: token,
		InstalledAt: time.Now().UTC(),
	}); err != nil {
		log.Fatal().Err(err).Str("shop", shop).Msg("Failed to provision shop from environment")
	}
	log.Info().Str("shop", shop).Msg("Provisioned shop from environment")
}

// parseLocaleRules parses "pattern=locale" pairs separated by commas,
// e.g. ".fr=fr,.de=de,es.=es".
func parseLocaleRules(raw string) []locale.Rule {
	if raw == "" {
		return nil
	}
	var rules []locale.Rule
	for _, pair := range strings.Split(raw, ",") {
		pattern, loc, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || pattern == "" || loc == "" {
			log.Warn().Str("pair", pair).Msg("Ignoring malformed locale rule")
			continue
		}
		rules = append(rules, locale.Rule{Pattern: pattern, Locale: loc})
	}
	return rules
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Str("key", key).Msg("Required environment variable not set")
	}
	return value
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid integer, using default")
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid duration, using default")
		return defaultValue
	}
	return d
}
