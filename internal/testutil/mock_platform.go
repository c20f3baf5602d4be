// Package testutil provides a configurable mock of the commerce
// platform's catalog listing and translation APIs for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
)

// TranslationEntry is one key/value pair served by the mock
// translation API.
type TranslationEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MockPlatform serves both upstream APIs from in-memory fixtures.
// Cursors are the next logical position encoded as a decimal string.
type MockPlatform struct {
	server *httptest.Server
	mu     sync.RWMutex

	products    []catalog.Entity
	collections []catalog.Entity

	// translations[locale]["products:7"] -> entries
	translations map[string]map[string][]TranslationEntry

	// ListingStatus forces a non-200 listing response when non-zero.
	ListingStatus int

	// TranslationStatus forces a non-200 translation response when non-zero.
	TranslationStatus int

	// FailTranslationFor forces 500s for specific entity IDs only.
	FailTranslationFor map[int64]bool

	// Delay is applied to every response.
	Delay time.Duration

	// Tracking
	ListingCalls     int
	TranslationCalls int
	LastToken        string
}

// NewMockPlatform starts a mock platform server.
func NewMockPlatform() *MockPlatform {
	m := &MockPlatform{
		translations:       make(map[string]map[string][]TranslationEntry),
		FailTranslationFor: make(map[int64]bool),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the mock server's base URL.
func (m *MockPlatform) URL() string { return m.server.URL }

// Close shuts the server down.
func (m *MockPlatform) Close() { m.server.Close() }

// SetProducts replaces the product fixture. Items must already be in
// updated_at descending order, as the real listing API returns them.
func (m *MockPlatform) SetProducts(items []catalog.Entity) {
	m.mu.Lock()
	m.products = items
	m.mu.Unlock()
}

// SetCollections replaces the collection fixture.
func (m *MockPlatform) SetCollections(items []catalog.Entity) {
	m.mu.Lock()
	m.collections = items
	m.mu.Unlock()
}

// SetTranslations registers translation entries for one entity+locale.
func (m *MockPlatform) SetTranslations(typ catalog.ResourceType, id int64, localeCode string, entries []TranslationEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.translations[localeCode] == nil {
		m.translations[localeCode] = make(map[string][]TranslationEntry)
	}
	m.translations[localeCode][fmt.Sprintf("%s:%d", typ, id)] = entries
}

func (m *MockPlatform) handle(w http.ResponseWriter, r *http.Request) {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.mu.Lock()
	m.LastToken = r.Header.Get("X-Storefront-Access-Token")
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/catalog/"):
		m.handleListing(w, r)
	case strings.HasPrefix(r.URL.Path, "/translations/"):
		m.handleTranslation(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockPlatform) handleListing(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.ListingCalls++
	status := m.ListingStatus
	m.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/catalog/"), ".json")

	m.mu.RLock()
	var items []catalog.Entity
	switch catalog.ResourceType(name) {
	case catalog.TypeProducts:
		items = m.products
	case catalog.TypeCollections:
		items = m.collections
	default:
		m.mu.RUnlock()
		http.NotFound(w, r)
		return
	}
	m.mu.RUnlock()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	start := 0
	if c := r.URL.Query().Get("cursor"); c != "" {
		start, _ = strconv.Atoi(c)
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	page := catalog.ListPage{
		Items:      items[start:end],
		NextCursor: strconv.Itoa(end),
		HasMore:    end < len(items),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (m *MockPlatform) handleTranslation(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TranslationCalls++
	status := m.TranslationStatus
	m.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	// Path: /translations/{type}/{id}.json
	rest := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/translations/"), ".json")
	typ, idStr, ok := strings.Cut(rest, "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	fail := m.FailTranslationFor[id]
	entries := m.translations[r.URL.Query().Get("locale")][typ+":"+idStr]
	m.mu.RUnlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if entries == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]TranslationEntry{"translations": entries})
}
