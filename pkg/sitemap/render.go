// Package sitemap renders image sitemap XML documents (urlset with the
// sitemap image extension, and sitemapindex).
//
// Rendering goes through encoding/xml so every free-text field is
// escaped for the XML-significant characters and the output is
// well-formed even for an empty slice.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

const (
	xmlnsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xmlnsImage   = "http://www.google.com/schemas/sitemap-image/1.1"
)

// Entry is one storefront page with its resolved text, ready to render.
type Entry struct {
	// PageURL is the absolute storefront URL of the page.
	PageURL string

	// LastMod is the entity's updatedAt; omitted from output when zero.
	LastMod time.Time

	// Title is the resolved (possibly translated) entity title, applied
	// to every image of the entry.
	Title string

	// Images are the entry's images in catalog order. Entries with no
	// images must not be rendered at all; RenderURLSet enforces this.
	Images []ImageEntry
}

// ImageEntry is one image of an entry.
type ImageEntry struct {
	// URL is the absolute image source URL.
	URL string

	// Caption is the resolved caption; omitted from output when empty.
	Caption string
}

type xmlImage struct {
	Loc     string `xml:"image:loc"`
	Title   string `xml:"image:title,omitempty"`
	Caption string `xml:"image:caption,omitempty"`
}

type xmlURL struct {
	Loc     string     `xml:"loc"`
	LastMod string     `xml:"lastmod,omitempty"`
	Images  []xmlImage `xml:"image:image"`
}

type xmlURLSet struct {
	XMLName    xml.Name `xml:"urlset"`
	Xmlns      string   `xml:"xmlns,attr"`
	XmlnsImage string   `xml:"xmlns:image,attr"`
	URLs       []xmlURL `xml:"url"`
}

type xmlSitemapRef struct {
	Loc string `xml:"loc"`
}

type xmlSitemapIndex struct {
	XMLName  xml.Name        `xml:"sitemapindex"`
	Xmlns    string          `xml:"xmlns,attr"`
	Sitemaps []xmlSitemapRef `xml:"sitemap"`
}

func (e Entry) hasImages() bool { return len(e.Images) > 0 }

// RenderURLSet renders the image sitemap for a slice of entries.
// Entries with zero images are omitted entirely. An empty (or fully
// filtered) slice renders a valid empty urlset.
func RenderURLSet(entries []Entry) ([]byte, error) {
	doc := xmlURLSet{
		Xmlns:      xmlnsSitemap,
		XmlnsImage: xmlnsImage,
	}

	for _, entry := range entries {
		if !entry.hasImages() {
			continue
		}

		u := xmlURL{Loc: entry.PageURL}
		if !entry.LastMod.IsZero() {
			u.LastMod = entry.LastMod.UTC().Format(time.RFC3339)
		}
		for _, img := range entry.Images {
			u.Images = append(u.Images, xmlImage{
				Loc:     img.URL,
				Title:   entry.Title,
				Caption: img.Caption,
			})
		}
		doc.URLs = append(doc.URLs, u)
	}

	return marshal(doc)
}

// RenderIndex renders a sitemapindex referencing the given sitemap URLs.
func RenderIndex(pageURLs []string) ([]byte, error) {
	doc := xmlSitemapIndex{Xmlns: xmlnsSitemap}
	for _, u := range pageURLs {
		doc.Sitemaps = append(doc.Sitemaps, xmlSitemapRef{Loc: u})
	}
	return marshal(doc)
}

func marshal(doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
