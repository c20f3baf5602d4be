package catalog

import "time"

// ResourceType selects which catalog listing an operation targets.
type ResourceType string

const (
	// TypeProducts lists products.
	TypeProducts ResourceType = "products"

	// TypeCollections lists collections.
	TypeCollections ResourceType = "collections"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	return t == TypeProducts || t == TypeCollections
}

// Image is a single image attached to a catalog entity.
type Image struct {
	// ID is unique within the owning entity.
	ID int64 `json:"id"`

	// Src is the absolute source URL.
	Src string `json:"src"`

	// Alt is the base-locale alt text, may be empty.
	Alt string `json:"alt,omitempty"`
}

// Entity is one catalog item (product or collection) as returned by the
// listing API. Products carry 0..N images, collections 0..1.
type Entity struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`

	// UpdatedAt is the sole sort key; listings are ordered by it descending.
	UpdatedAt time.Time `json:"updated_at"`

	Images []Image `json:"images"`

	// CanonicalURL is an optional pre-computed storefront URL override.
	CanonicalURL string `json:"canonical_url,omitempty"`
}

// ListQuery describes one cursor page request against the listing API.
type ListQuery struct {
	// Shop is the storefront domain the query targets.
	Shop string

	// Token is the API credential for the shop.
	Token string

	// Type selects products or collections.
	Type ResourceType

	// PageSize is the number of items requested for this page.
	PageSize int

	// Cursor is the opaque continuation token, empty for the first page.
	Cursor string
}

// ListPage is one page of a cursor-paginated listing.
type ListPage struct {
	Items []Entity `json:"items"`

	// NextCursor continues the scan; only meaningful when HasMore is true.
	NextCursor string `json:"next_cursor"`

	HasMore bool `json:"has_more"`
}
