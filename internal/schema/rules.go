package schema

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// Struct-level constraint tags.
const (
	tagNonNegative = "nonnegative"
	tagDerived     = "derived"
	tagMember      = "member"
)

func moneyRule(sl validator.StructLevel) {
	m := sl.Current().Interface().(catalog.Money)
	if m.Amount.IsNegative() {
		sl.ReportError(m.Amount, "amount", "Amount", tagNonNegative, "")
	}
}

// variantRule: derived color/size equal the matching selected option.
func variantRule(sl validator.StructLevel) {
	v := sl.Current().Interface().(catalog.Variant)
	checkSelected(sl, v.SelectedOptions, v.Color, v.Size)
}

// productRule: colors/sizes equal the matching option definition values, and
// each variant's derived value belongs to them when both are non-empty.
func productRule(sl validator.StructLevel) {
	p := sl.Current().Interface().(catalog.Product)
	checkDefined(sl, p.Options, p.Colors, p.Sizes)

	for i, v := range p.Variants {
		checkMember(sl, fmt.Sprintf("variants[%d].color", i), v.Color, p.Colors, catalog.AxisColor)
		checkMember(sl, fmt.Sprintf("variants[%d].size", i), v.Size, p.Sizes, catalog.AxisSize)
	}
}

func merchandiseRule(sl validator.StructLevel) {
	m := sl.Current().Interface().(catalog.Merchandise)
	checkDefined(sl, m.Product.Options, m.Colors, m.Sizes)
	checkSelected(sl, m.SelectedOptions, m.Color, m.Size)
	checkMember(sl, "color", m.Color, m.Colors, catalog.AxisColor)
	checkMember(sl, "size", m.Size, m.Sizes, catalog.AxisSize)
}

func checkDefined(sl validator.StructLevel, options []catalog.OptionDefinition, colors, sizes []string) {
	if !slices.Equal(colors, catalog.OptionValues(options, catalog.AxisColor)) {
		sl.ReportError(colors, "colors", "Colors", tagDerived, catalog.AxisColor)
	}
	if !slices.Equal(sizes, catalog.OptionValues(options, catalog.AxisSize)) {
		sl.ReportError(sizes, "sizes", "Sizes", tagDerived, catalog.AxisSize)
	}
}

func checkSelected(sl validator.StructLevel, selected []catalog.SelectedOption, color, size string) {
	if color != catalog.SelectedValue(selected, catalog.AxisColor) {
		sl.ReportError(color, "color", "Color", tagDerived, catalog.AxisColor)
	}
	if size != catalog.SelectedValue(selected, catalog.AxisSize) {
		sl.ReportError(size, "size", "Size", tagDerived, catalog.AxisSize)
	}
}

func checkMember(sl validator.StructLevel, field, value string, set []string, axis string) {
	if value == "" || len(set) == 0 || slices.Contains(set, value) {
		return
	}
	sl.ReportError(value, field, field, tagMember, axis)
}
