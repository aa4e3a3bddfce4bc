package selection

import (
	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// Status is the stock state shown for the resolved variant.
type Status string

const (
	StatusAvailable         Status = "available"
	StatusVariantOutOfStock Status = "variant_out_of_stock"
	StatusOutOfStock        Status = "out_of_stock"
)

const (
	labelVariantOutOfStock = "Selected variant out of stock"
	labelOutOfStock        = "Out of stock"
)

// Page is everything a product page renders for one selection.
type Page struct {
	Product   catalog.Product  `json:"product"`
	Selection Selection        `json:"selection"`
	Variant   *catalog.Variant `json:"variant"`
	// Exact is false when Variant is a fallback for an unmatched selection.
	Exact bool `json:"exact"`
	// ProductAvailable is fixed when the page opens.
	ProductAvailable bool   `json:"productAvailable"`
	Status           Status `json:"status"`
	Label            string `json:"label,omitempty"`
	Price            string `json:"price"`
	CanAddToBasket   bool   `json:"canAddToBasket"`
}

// Build resolves sel against p. A nil sel opens the page with the initial
// selection; product availability always comes from the initial selection.
func Build(p catalog.Product, sel *Selection) Page {
	initial, available := Initial(p)

	page := Page{
		Product:          p,
		Selection:        initial,
		ProductAvailable: available,
		Price:            "0.00",
	}
	if sel != nil {
		page.Selection = *sel
	}

	res, ok := Resolve(p, page.Selection)
	if ok {
		page.Variant = &res.Variant
		page.Exact = res.Exact
		if res.Variant.Price != nil {
			page.Price = res.Variant.Price.Format()
		}
	}

	switch {
	case ok && res.Variant.Available():
		page.Status = StatusAvailable
		page.CanAddToBasket = true
	case available:
		page.Status = StatusVariantOutOfStock
		page.Label = labelVariantOutOfStock
	default:
		page.Status = StatusOutOfStock
		page.Label = labelOutOfStock
	}
	return page
}
