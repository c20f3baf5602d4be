package sitemap

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			PageURL: "https://acme.example.com/products/wooden-chair",
			LastMod: time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC),
			Title:   "Wooden Chair",
			Images: []ImageEntry{
				{URL: "https://cdn.example.com/chair-front.jpg", Caption: "Front view"},
				{URL: "https://cdn.example.com/chair-side.jpg"},
			},
		},
		{
			PageURL: "https://acme.example.com/products/steel-table",
			Title:   "Steel Table",
			Images: []ImageEntry{
				{URL: "https://cdn.example.com/table.jpg", Caption: "Steel table"},
			},
		},
	}
}

func TestRenderURLSet(t *testing.T) {
	out, err := RenderURLSet(sampleEntries())
	if err != nil {
		t.Fatalf("RenderURLSet: %v", err)
	}
	s := string(out)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`,
		`xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`,
		`<loc>https://acme.example.com/products/wooden-chair</loc>`,
		`<lastmod>2026-04-02T10:30:00Z</lastmod>`,
		`<image:loc>https://cdn.example.com/chair-front.jpg</image:loc>`,
		`<image:title>Wooden Chair</image:title>`,
		`<image:caption>Front view</image:caption>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}

	// The side image has no caption: the element must be absent, not empty.
	if strings.Contains(s, "<image:caption></image:caption>") {
		t.Error("empty caption element should be omitted")
	}
	// The table entry has no lastmod.
	if strings.Count(s, "<lastmod>") != 1 {
		t.Errorf("want exactly one lastmod element:\n%s", s)
	}
}

func TestRenderURLSet_OmitsEntriesWithoutImages(t *testing.T) {
	entries := append(sampleEntries(), Entry{
		PageURL: "https://acme.example.com/products/no-images",
		Title:   "No Images",
	})

	out, err := RenderURLSet(entries)
	if err != nil {
		t.Fatalf("RenderURLSet: %v", err)
	}
	if strings.Contains(string(out), "no-images") {
		t.Error("entry without images must be omitted from output")
	}
	if got := strings.Count(string(out), "<url>"); got != 2 {
		t.Errorf("output has %d url elements, want 2", got)
	}
}

func TestRenderURLSet_EmptySliceIsWellFormed(t *testing.T) {
	out, err := RenderURLSet(nil)
	if err != nil {
		t.Fatalf("RenderURLSet(nil): %v", err)
	}

	var doc struct {
		XMLName xml.Name `xml:"urlset"`
	}
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("empty output is not well-formed XML: %v\n%s", err, out)
	}
	if strings.Contains(string(out), "<url>") {
		t.Error("empty slice should render no url elements")
	}
}

func TestRenderURLSet_EscapesSignificantCharacters(t *testing.T) {
	out, err := RenderURLSet([]Entry{{
		PageURL: "https://acme.example.com/products/tom-jerry",
		Title:   `Tom & Jerry's <"Special">`,
		Images: []ImageEntry{
			{URL: "https://cdn.example.com/img.jpg?a=1&b=2", Caption: `5 < 6 & 7 > 2`},
		},
	}})
	if err != nil {
		t.Fatalf("RenderURLSet: %v", err)
	}
	s := string(out)

	if strings.Contains(s, `Tom & Jerry`) {
		t.Error("unescaped ampersand in title")
	}
	if !strings.Contains(s, "Tom &amp; Jerry") {
		t.Errorf("title not escaped:\n%s", s)
	}
	if !strings.Contains(s, "a=1&amp;b=2") {
		t.Errorf("image URL query not escaped:\n%s", s)
	}

	// Must remain parseable and round-trip the original text.
	var doc struct {
		URLs []struct {
			Images []struct {
				Title   string `xml:"title"`
				Caption string `xml:"caption"`
			} `xml:"image"`
		} `xml:"url"`
	}
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("escaped output does not parse: %v\n%s", err, out)
	}
	if got := doc.URLs[0].Images[0].Title; got != `Tom & Jerry's <"Special">` {
		t.Errorf("round-tripped title = %q", got)
	}
}

func TestRenderURLSet_Idempotent(t *testing.T) {
	entries := sampleEntries()
	first, err := RenderURLSet(entries)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := RenderURLSet(entries)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("re-rendering the same slice produced different bytes")
	}
}

func TestRenderIndex(t *testing.T) {
	out, err := RenderIndex([]string{
		"https://acme.example.com/image.xml?page=1&per_page=100&type=products",
		"https://acme.example.com/image.xml?page=2&per_page=100&type=products",
	})
	if err != nil {
		t.Fatalf("RenderIndex: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "<sitemapindex") {
		t.Errorf("missing sitemapindex root:\n%s", s)
	}
	if got := strings.Count(s, "<sitemap>"); got != 2 {
		t.Errorf("index has %d sitemap elements, want 2", got)
	}
	if !strings.Contains(s, "page=2&amp;per_page=100") {
		t.Errorf("index URLs not escaped:\n%s", s)
	}
}

func TestPageURL(t *testing.T) {
	e := catalog.Entity{Handle: "wooden-chair"}
	if got := PageURL("acme.example.com", catalog.TypeProducts, e); got != "https://acme.example.com/products/wooden-chair" {
		t.Errorf("PageURL = %q", got)
	}
	if got := PageURL("acme.example.com", catalog.TypeCollections, e); got != "https://acme.example.com/collections/wooden-chair" {
		t.Errorf("PageURL = %q", got)
	}

	e.CanonicalURL = "https://www.acme.co/p/wooden-chair"
	if got := PageURL("acme.example.com", catalog.TypeProducts, e); got != e.CanonicalURL {
		t.Errorf("canonical URL override ignored, got %q", got)
	}
}

func TestSitemapURL(t *testing.T) {
	got := SitemapURL("acme.example.com", "products", 3, 100, "fr")
	if !strings.HasPrefix(got, "https://acme.example.com/image.xml?") {
		t.Errorf("SitemapURL = %q", got)
	}
	for _, want := range []string{"page=3", "per_page=100", "type=products", "locale=fr"} {
		if !strings.Contains(got, want) {
			t.Errorf("SitemapURL %q missing %q", got, want)
		}
	}
}
