// Package paginator converts the catalog API's forward-only cursor
// pagination into arbitrary (offset, limit) window addressing.
//
// The listing API returns an opaque continuation cursor plus a has-more
// flag and does not support direct offsets, so the slicer walks cursors
// while counting logical positions, discards everything before the
// requested offset, and collects until the window is full or the catalog
// is exhausted.
//
// Example usage:
//
//	slicer := paginator.New(catalogClient, paginator.DefaultConfig())
//	entities, err := slicer.FetchSlice(ctx, paginator.SliceRequest{
//		Shop:   "acme.example.com",
//		Token:  token,
//		Type:   catalog.TypeProducts,
//		Offset: 50,
//		Limit:  25,
//	})
//
// Each upstream call requests min(MaxPageSize, offset+limit-position)
// items, so the walk issues the minimum number of calls for the window.
// The slicer never re-sorts: ordering is delegated to the upstream query
// (updated_at descending) and fetched pages are only concatenated, since
// re-sorting independently fetched pages could reorder items relative to
// the true catalog order when a window spans page boundaries.
package paginator
