// Package translate fetches locale-specific field overrides for a slice
// of catalog entities and resolves translated titles and image captions
// with a single, fixed fallback precedence.
package translate

import "github.com/lumen-commerce/imagesitemap/pkg/catalog"

// Override holds the locale-specific replacements found for one entity.
// It only ever overlays fields on the base entity; a missing value falls
// back down the precedence chain, never to a silently absent field.
type Override struct {
	// Title is the translated title, empty when none was found.
	Title string

	// WildcardAlt applies to every image of the entity that has no
	// image-specific entry.
	WildcardAlt string

	// ImageAlt maps image IDs to translated alt text.
	ImageAlt map[int64]string
}

// Empty reports whether the override carries no usable value. An empty
// override does not stop the candidate-locale loop.
func (o *Override) Empty() bool {
	return o == nil || (o.Title == "" && o.WildcardAlt == "" && len(o.ImageAlt) == 0)
}

// Result maps entity IDs to their resolved overrides. Entities with no
// override for any candidate locale are absent.
type Result map[int64]*Override

// Title returns the display title for an entity: the translated title
// when present, otherwise the base-locale title.
func (r Result) Title(e catalog.Entity) string {
	if o := r[e.ID]; o != nil && o.Title != "" {
		return o.Title
	}
	return e.Title
}

// Caption returns the caption for one image of an entity.
//
// Precedence, most to least specific, applied uniformly everywhere:
//  1. translated alt text for that exact image
//  2. translated wildcard alt text for the entity
//  3. translated entity title
//  4. base-locale image alt text
//
// The result may be empty, in which case the renderer omits the caption.
func (r Result) Caption(e catalog.Entity, img catalog.Image) string {
	if o := r[e.ID]; o != nil {
		if alt, ok := o.ImageAlt[img.ID]; ok && alt != "" {
			return alt
		}
		if o.WildcardAlt != "" {
			return o.WildcardAlt
		}
		if o.Title != "" {
			return o.Title
		}
	}
	return img.Alt
}
