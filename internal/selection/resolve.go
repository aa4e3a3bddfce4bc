// Package selection picks the variant a shopper is looking at from their
// chosen color and size, and derives what the product page shows for it.
package selection

import (
	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// Selection is the shopper's choice on each axis. An empty value means
// nothing is chosen on that axis.
type Selection struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// Resolution is the variant picked for a selection.
//
// Exact is false when no variant matched and the first variant was
// substituted, so callers can tell a fallback from a real match.
type Resolution struct {
	Variant catalog.Variant
	Exact   bool
}

// Resolve picks the variant for sel. The product must be normalized.
//
// A single variant is always returned as an exact match. Otherwise the first
// variant whose color is absent or equal to sel.Color, and whose size is absent,
// irrelevant (the product has no sizes) or equal to sel.Size, is returned.
// When nothing matches the first variant is returned with Exact unset.
// ok is false only when the product has no variants.
func Resolve(p catalog.Product, sel Selection) (res Resolution, ok bool) {
	switch len(p.Variants) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{Variant: p.Variants[0], Exact: true}, true
	}

	for _, v := range p.Variants {
		if matches(v, sel, len(p.Sizes) == 0) {
			return Resolution{Variant: v, Exact: true}, true
		}
	}
	return Resolution{Variant: p.Variants[0]}, true
}

func matches(v catalog.Variant, sel Selection, anySize bool) bool {
	if v.Color != "" && v.Color != sel.Color {
		return false
	}
	return v.Size == "" || anySize || v.Size == sel.Size
}

// Initial returns the selection a product page opens with: the axes of the
// first variant not explicitly unavailable, or of the first variant when all
// are unavailable. available reports whether that variant is available and
// does not change as the shopper picks other options.
func Initial(p catalog.Product) (sel Selection, available bool) {
	if len(p.Variants) == 0 {
		return Selection{}, false
	}

	v := p.Variants[0]
	for _, candidate := range p.Variants {
		if candidate.Available() {
			v = candidate
			break
		}
	}
	return Selection{Color: v.Color, Size: v.Size}, v.Available()
}
