// Package normalize derives the color and size convenience fields of products
// and cart merchandise from their option lists.
//
// Every result is re-validated before it is returned; a result that fails
// validation is reported as a *DefectError and never returned partially.
package normalize

import (
	"slices"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/schema"
)

// DefectError indicates that normalization produced a record the schema
// rejects. It always points at a bug in the normalizer or its input mapping.
type DefectError struct {
	Entity string
	Err    error
}

func (e *DefectError) Error() string {
	return "normalized " + e.Entity + " failed validation: " + e.Err.Error()
}

func (e *DefectError) Unwrap() error {
	return e.Err
}

// Normalizer derives color/size fields. It is safe for concurrent use.
type Normalizer struct {
	schema *schema.Validator
}

// New creates a Normalizer that re-validates its output with v.
func New(v *schema.Validator) *Normalizer {
	return &Normalizer{schema: v}
}

// Product returns a copy of raw with colors, sizes and per-variant
// color/size derived. raw is not modified.
func (n *Normalizer) Product(raw catalog.Product) (catalog.Product, error) {
	p := deriveProduct(raw)
	if err := n.schema.Validate("product", p); err != nil {
		return catalog.Product{}, &DefectError{Entity: "product", Err: err}
	}
	return p, nil
}

// Merchandise returns a copy of raw with its derived fields populated from
// the embedded product options and the variant's selected options.
func (n *Normalizer) Merchandise(raw catalog.Merchandise) (catalog.Merchandise, error) {
	m := deriveMerchandise(raw)
	if err := n.schema.Validate("merchandise", m); err != nil {
		return catalog.Merchandise{}, &DefectError{Entity: "merchandise", Err: err}
	}
	return m, nil
}

// Cart normalizes the merchandise of every line. A nil cart stays nil.
func (n *Normalizer) Cart(raw *catalog.Cart) (*catalog.Cart, error) {
	if raw == nil {
		return nil, nil
	}

	c := *raw
	c.Lines = make([]catalog.CartLine, len(raw.Lines))
	for i, line := range raw.Lines {
		line.Merchandise = deriveMerchandise(line.Merchandise)
		c.Lines[i] = line
	}

	if err := n.schema.Validate("cart", c); err != nil {
		return nil, &DefectError{Entity: "cart", Err: err}
	}
	return &c, nil
}

func deriveProduct(raw catalog.Product) catalog.Product {
	p := raw
	p.Options = cloneOptions(raw.Options)
	p.Images = slices.Clone(raw.Images)
	p.Collections = slices.Clone(raw.Collections)
	p.Colors = axisValues(raw.Options, catalog.AxisColor)
	p.Sizes = axisValues(raw.Options, catalog.AxisSize)

	p.Variants = make([]catalog.Variant, len(raw.Variants))
	for i, v := range raw.Variants {
		v.SelectedOptions = slices.Clone(v.SelectedOptions)
		v.Color = catalog.SelectedValue(v.SelectedOptions, catalog.AxisColor)
		v.Size = catalog.SelectedValue(v.SelectedOptions, catalog.AxisSize)
		p.Variants[i] = v
	}
	return p
}

func deriveMerchandise(raw catalog.Merchandise) catalog.Merchandise {
	m := raw
	m.SelectedOptions = slices.Clone(raw.SelectedOptions)
	m.Product.Options = cloneOptions(raw.Product.Options)
	m.Colors = axisValues(raw.Product.Options, catalog.AxisColor)
	m.Sizes = axisValues(raw.Product.Options, catalog.AxisSize)
	m.Color = catalog.SelectedValue(raw.SelectedOptions, catalog.AxisColor)
	m.Size = catalog.SelectedValue(raw.SelectedOptions, catalog.AxisSize)
	return m
}

// axisValues never returns nil so empty axes serialize as [].
func axisValues(options []catalog.OptionDefinition, axis string) []string {
	return append([]string{}, catalog.OptionValues(options, axis)...)
}

func cloneOptions(options []catalog.OptionDefinition) []catalog.OptionDefinition {
	if options == nil {
		return nil
	}
	out := make([]catalog.OptionDefinition, len(options))
	for i, o := range options {
		out[i] = catalog.OptionDefinition{Name: o.Name, Values: slices.Clone(o.Values)}
	}
	return out
}
