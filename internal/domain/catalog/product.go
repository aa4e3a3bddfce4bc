// Package catalog holds the storefront's product and cart snapshots.
//
// Values in this package are immutable snapshots: every fetch from the
// commerce API produces fresh values and callers replace, never patch, them.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product handle does not resolve to a product.
var ErrNotFound = errors.New("product not found")

// Money is an amount in a single currency. No conversion is ever performed.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// Format renders the amount with two decimal places.
func (m Money) Format() string {
	return m.Amount.StringFixed(2)
}

// Image is a sized product or variant image.
type Image struct {
	AltText *string `json:"altText,omitempty"`
	URL     string  `json:"url"`
	Width   int     `json:"width" validate:"gt=0"`
	Height  int     `json:"height" validate:"gt=0"`
}

// OptionDefinition is a product-level axis of variation, e.g. Color: [Red, Blue].
type OptionDefinition struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// SelectedOption is a variant's value on one axis.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a purchasable SKU of a product.
//
// Color and Size are derived from SelectedOptions by the normalizer; an empty
// string means the variant does not specify that axis.
type Variant struct {
	ID                string           `json:"id"`
	Title             *string          `json:"title,omitempty"`
	AvailableForSale  *bool            `json:"availableForSale,omitempty"`
	QuantityAvailable *int             `json:"quantityAvailable,omitempty"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
	Price             *Money           `json:"price,omitempty"`
	Color             string           `json:"color,omitempty"`
	Size              string           `json:"size,omitempty"`
}

// Available reports whether the variant is not explicitly marked unavailable.
func (v Variant) Available() bool {
	return v.AvailableForSale == nil || *v.AvailableForSale
}

// Collection groups products for catalog filtering.
type Collection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Product is a catalog entry with its variants.
//
// Colors and Sizes are derived from the option definitions named "color" and
// "size" and keep that definition's order.
type Product struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Handle          string             `json:"handle"`
	Description     string             `json:"description"`
	DescriptionHTML string             `json:"descriptionHtml"`
	Options         []OptionDefinition `json:"options"`
	Images          []*Image           `json:"images" validate:"dive"`
	FeaturedImage   *Image             `json:"featuredImage,omitempty"`
	Variants        []Variant          `json:"variants" validate:"dive"`
	Collections     []Collection       `json:"collections,omitempty"`
	Colors          []string           `json:"colors"`
	Sizes           []string           `json:"sizes"`
}

// CardPrice is the listing price: the first variant's price, or "0.00".
func (p Product) CardPrice() string {
	if len(p.Variants) == 0 || p.Variants[0].Price == nil {
		return "0.00"
	}
	return p.Variants[0].Price.Format()
}

// InCollection reports whether the product belongs to the collection titled title.
func (p Product) InCollection(title string) bool {
	for _, c := range p.Collections {
		if c.Title == title {
			return true
		}
	}
	return false
}

// AllCollections is the pseudo collection that disables filtering.
const AllCollections = "all"

// FilterByCollection returns the products in the given collection. An empty
// title or AllCollections returns products unchanged.
func FilterByCollection(products []Product, title string) []Product {
	if title == "" || title == AllCollections {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.InCollection(title) {
			out = append(out, p)
		}
	}
	return out
}
