package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:   baseURL,
		UserAgent: "imagesitemap-test/1.0",
		Timeout:   2 * time.Second,
		Retry:     fastRetry(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestListPage(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		gotToken = r.Header.Get("X-Storefront-Access-Token")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ListPage{
			Items: []Entity{
				{ID: 1, Title: "Chair", Handle: "chair", UpdatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
				{ID: 2, Title: "Table", Handle: "table", UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			},
			NextCursor: "abc",
			HasMore:    true,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	page, err := client.ListPage(context.Background(), ListQuery{
		Shop:     "acme.example.com",
		Token:    "tok-1",
		Type:     TypeProducts,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}

	if gotPath != "/catalog/products.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery["limit"] != "2" {
		t.Errorf("limit = %q, want 2", gotQuery["limit"])
	}
	// Sorting is delegated to the upstream query, never re-done locally.
	if gotQuery["sort"] != "updated_at" || gotQuery["order"] != "desc" {
		t.Errorf("sort/order = %q/%q, want updated_at/desc", gotQuery["sort"], gotQuery["order"])
	}
	if _, ok := gotQuery["cursor"]; ok {
		t.Error("first page should not send a cursor")
	}
	if gotToken != "tok-1" {
		t.Errorf("token header = %q", gotToken)
	}

	if len(page.Items) != 2 || page.Items[0].Handle != "chair" {
		t.Errorf("items = %+v", page.Items)
	}
	if page.NextCursor != "abc" || !page.HasMore {
		t.Errorf("cursor/has_more = %q/%v", page.NextCursor, page.HasMore)
	}
}

func TestListPage_CursorForwarded(t *testing.T) {
	var gotCursor string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("cursor")
		json.NewEncoder(w).Encode(ListPage{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPage(context.Background(), ListQuery{
		Type: TypeProducts, PageSize: 10, Cursor: "pos-42",
	})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if gotCursor != "pos-42" {
		t.Errorf("cursor = %q, want pos-42", gotCursor)
	}
}

func TestListPage_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPage(context.Background(), ListQuery{Type: TypeProducts, PageSize: 10})
	if err == nil {
		t.Fatal("expected error for 401")
	}

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("want *UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusUnauthorized || upstreamErr.Class != ErrorClassClient {
		t.Errorf("error = %+v", upstreamErr)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("4xx retried: %d calls", n)
	}
}

func TestListPage_ServerErrorRetriedThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ListPage{Items: []Entity{{ID: 1}}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	page, err := client.ListPage(context.Background(), ListQuery{Type: TypeProducts, PageSize: 10})
	if err != nil {
		t.Fatalf("ListPage after retries: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("items = %+v", page.Items)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("made %d calls, want 3", n)
	}
}

func TestListPage_RetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPage(context.Background(), ListQuery{Type: TypeProducts, PageSize: 10})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("want ErrRetryExhausted, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("made %d calls, want MaxAttempts=3", n)
	}
}

func TestListPage_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := newTestClient(t, server.URL)
	_, err := client.ListPage(context.Background(), ListQuery{Type: TypeProducts, PageSize: 10})
	if err == nil {
		t.Fatal("expected error for refused connection")
	}
}

func TestListPage_MalformedBodyIsServerClass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ListPage(context.Background(), ListQuery{Type: TypeProducts, PageSize: 10})
	if err == nil {
		t.Fatal("expected error for malformed body")
	}

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("want *UpstreamError, got %v", err)
	}
	if upstreamErr.Class != ErrorClassServer {
		t.Errorf("class = %q, want server", upstreamErr.Class)
	}
}

func TestListPage_ValidatesQuery(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	if _, err := client.ListPage(context.Background(), ListQuery{Type: "widgets", PageSize: 10}); err == nil {
		t.Error("expected error for unknown resource type")
	}
	if _, err := client.ListPage(context.Background(), ListQuery{Type: TypeProducts, PageSize: 0}); err == nil {
		t.Error("expected error for zero page size")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing base URL")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		err    error
		want   ErrorClass
	}{
		{0, errors.New("dial tcp: refused"), ErrorClassNetwork},
		{401, nil, ErrorClassClient},
		{404, nil, ErrorClassClient},
		{500, nil, ErrorClassServer},
		{503, nil, ErrorClassServer},
		{200, nil, ""},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			if got := classify(tt.status, tt.err); got != tt.want {
				t.Errorf("classify(%d, %v) = %q, want %q", tt.status, tt.err, got, tt.want)
			}
		})
	}
}
