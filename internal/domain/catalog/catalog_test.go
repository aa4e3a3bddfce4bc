package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsAxis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "lower", in: "color", want: true},
		{name: "title case", in: "Color", want: true},
		{name: "upper", in: "COLOR", want: true},
		{name: "different axis", in: "Size", want: false},
		{name: "prefix", in: "Colour", want: false},
		{name: "full width letters", in: "ＣＯＬＯＲ", want: false},
		{name: "empty", in: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAxis(tt.in, AxisColor))
		})
	}
}

func TestOptionValues(t *testing.T) {
	options := []OptionDefinition{
		{Name: "Material", Values: []string{"Cotton"}},
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "color", Values: []string{"Green"}},
	}

	assert.Equal(t, []string{"Red", "Blue"}, OptionValues(options, AxisColor))
	assert.Nil(t, OptionValues(options, AxisSize))
	assert.Nil(t, OptionValues(nil, AxisColor))
}

func TestSelectedValue(t *testing.T) {
	options := []SelectedOption{
		{Name: "SIZE", Value: "M"},
		{Name: "Color", Value: "Red"},
	}

	assert.Equal(t, "Red", SelectedValue(options, AxisColor))
	assert.Equal(t, "M", SelectedValue(options, AxisSize))
	assert.Equal(t, "", SelectedValue(nil, AxisColor))
}

func TestVariant_Available(t *testing.T) {
	yes, no := true, false

	assert.True(t, Variant{}.Available())
	assert.True(t, Variant{AvailableForSale: &yes}.Available())
	assert.False(t, Variant{AvailableForSale: &no}.Available())
}

func TestProduct_CardPrice(t *testing.T) {
	t.Run("first variant price", func(t *testing.T) {
		p := Product{Variants: []Variant{
			{ID: "v1", Price: &Money{Amount: decimal.RequireFromString("19.9"), CurrencyCode: "USD"}},
			{ID: "v2", Price: &Money{Amount: decimal.RequireFromString("5"), CurrencyCode: "USD"}},
		}}
		assert.Equal(t, "19.90", p.CardPrice())
	})

	t.Run("no variants", func(t *testing.T) {
		assert.Equal(t, "0.00", Product{}.CardPrice())
	})

	t.Run("variant without price", func(t *testing.T) {
		assert.Equal(t, "0.00", Product{Variants: []Variant{{ID: "v1"}}}.CardPrice())
	})
}

func TestFilterByCollection(t *testing.T) {
	shirts := Collection{ID: "c1", Title: "Shirts"}
	mugs := Collection{ID: "c2", Title: "Mugs"}
	products := []Product{
		{ID: "p1", Collections: []Collection{shirts}},
		{ID: "p2", Collections: []Collection{mugs}},
		{ID: "p3", Collections: []Collection{shirts, mugs}},
		{ID: "p4"},
	}

	ids := func(ps []Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, ids(FilterByCollection(products, "")))
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, ids(FilterByCollection(products, AllCollections)))
	assert.Equal(t, []string{"p1", "p3"}, ids(FilterByCollection(products, "Shirts")))
	assert.Empty(t, FilterByCollection(products, "Hats"))
}

func TestCart_LineIDs(t *testing.T) {
	var nilCart *Cart
	assert.Nil(t, nilCart.LineIDs())

	c := &Cart{Lines: []CartLine{{ID: "l1"}, {ID: "l2"}}}
	assert.Equal(t, []string{"l1", "l2"}, c.LineIDs())
}
