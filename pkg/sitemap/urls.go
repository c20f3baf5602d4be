package sitemap

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/lumen-commerce/imagesitemap/pkg/catalog"
)

// PageURL builds the storefront URL for an entity. A pre-computed
// canonical URL on the entity always wins; otherwise the URL is built
// from the host and the type's path segment.
func PageURL(host string, typ catalog.ResourceType, e catalog.Entity) string {
	if e.CanonicalURL != "" {
		return e.CanonicalURL
	}
	return fmt.Sprintf("https://%s/%s/%s", host, typ, e.Handle)
}

// SitemapURL builds the /image.xml URL for one page of the paginated
// sitemap, as referenced from the index document.
func SitemapURL(host string, typ string, page, perPage int, localeCode string) string {
	q := url.Values{}
	q.Set("type", typ)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if localeCode != "" {
		q.Set("locale", localeCode)
	}
	return fmt.Sprintf("https://%s/image.xml?%s", host, q.Encode())
}
