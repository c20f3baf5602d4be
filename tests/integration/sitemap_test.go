package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lumen-commerce/imagesitemap/internal/server"
	"github.com/lumen-commerce/imagesitemap/internal/testutil"
	"github.com/lumen-commerce/imagesitemap/pkg/cache"
	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
	"github.com/lumen-commerce/imagesitemap/pkg/credentials"
	"github.com/lumen-commerce/imagesitemap/pkg/locale"
	"github.com/lumen-commerce/imagesitemap/pkg/paginator"
	"github.com/lumen-commerce/imagesitemap/pkg/translate"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestRedisStore exercises the Redis-backed store end to end:
// set, get, TTL expiry, and delete.
func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := cache.NewRedisStore(redisClient)

	if err := store.Set(ctx, "sitemap:test:doc", []byte("<urlset/>"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "sitemap:test:doc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "<urlset/>" {
		t.Errorf("Get = %q", got)
	}

	if _, err := store.Get(ctx, "sitemap:test:absent"); err != cache.ErrCacheMiss {
		t.Errorf("absent key: err = %v, want ErrCacheMiss", err)
	}

	if err := store.Set(ctx, "sitemap:test:short", []byte("x"), 100*time.Millisecond); err != nil {
		t.Fatalf("Set with TTL failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if _, err := store.Get(ctx, "sitemap:test:short"); err != cache.ErrCacheMiss {
		t.Errorf("expired key: err = %v, want ErrCacheMiss", err)
	}

	if err := store.Delete(ctx, "sitemap:test:doc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "sitemap:test:doc"); err != cache.ErrCacheMiss {
		t.Errorf("deleted key: err = %v, want ErrCacheMiss", err)
	}
}

// TestFullSitemapFlow runs a complete request against a Redis-backed
// server: render, cache in Redis, then serve the second request from
// Redis without touching the mock platform.
func TestFullSitemapFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockPlatform()
	defer mock.Close()

	mock.SetProducts([]catalog.Entity{
		{
			ID: 1, Title: "Lamp", Handle: "lamp",
			UpdatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Images: []catalog.Image{
				{ID: 10, Src: "https://cdn.example.com/lamp.jpg", Alt: "A lamp"},
			},
		},
	})

	const shop = "integration.example.com"
	ctx := context.Background()

	store := cache.NewRedisStore(redisClient)
	creds := credentials.NewStore(store)
	if err := creds.Put(ctx, credentials.Record{Shop: shop, AccessToken: "tok"}); err != nil {
		t.Fatalf("provision shop: %v", err)
	}

	catalogClient, err := catalog.New(catalog.DefaultConfig(mock.URL()))
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	translateClient, err := translate.NewClient(translate.ClientConfig{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("translate.NewClient: %v", err)
	}

	srv := server.New(
		paginator.New(catalogClient, paginator.DefaultConfig()),
		translate.New(translateClient, translate.DefaultConfig()),
		store,
		creds,
		locale.New(nil, "en"),
		server.DefaultConfig(),
	)

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	fetch := func() string {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/image.xml?type=products", nil)
		req.Host = shop
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	first := fetch()
	if !strings.Contains(first, "https://cdn.example.com/lamp.jpg") {
		t.Errorf("rendered document missing image:\n%s", first)
	}
	callsAfterFirst := mock.ListingCalls

	second := fetch()
	if second != first {
		t.Error("Redis-served document differs from rendered document")
	}
	if mock.ListingCalls != callsAfterFirst {
		t.Errorf("second request hit the platform: %d -> %d calls", callsAfterFirst, mock.ListingCalls)
	}
}
