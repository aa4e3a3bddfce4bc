package shopify

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// Wire types mirror the GraphQL response. Pointer fields tagged required
// distinguish a missing value from a zero one; untagged pointers are
// optional or nullable and are checked only when present.

type moneyV2 struct {
	Amount       *string `json:"amount" validate:"required,amount"`
	CurrencyCode *string `json:"currencyCode" validate:"required"`
}

type image struct {
	AltText *string `json:"altText"`
	URL     *string `json:"url" validate:"required"`
	Width   *int    `json:"width" validate:"required,gt=0"`
	Height  *int    `json:"height" validate:"required,gt=0"`
}

type option struct {
	Name   *string  `json:"name" validate:"required"`
	Values []string `json:"values" validate:"required"`
}

type selectedOption struct {
	Name  *string `json:"name" validate:"required"`
	Value *string `json:"value" validate:"required"`
}

type variant struct {
	ID                *string          `json:"id" validate:"required"`
	Title             *string          `json:"title"`
	AvailableForSale  *bool            `json:"availableForSale"`
	QuantityAvailable *int             `json:"quantityAvailable"`
	SelectedOptions   []selectedOption `json:"selectedOptions" validate:"omitempty,dive"`
	Price             *moneyV2         `json:"price"`
}

type collection struct {
	ID    *string `json:"id" validate:"required"`
	Title *string `json:"title" validate:"required"`
}

type product struct {
	ID              *string  `json:"id" validate:"required"`
	Title           *string  `json:"title" validate:"required"`
	Handle          *string  `json:"handle" validate:"required"`
	Description     *string  `json:"description"`
	DescriptionHTML *string  `json:"descriptionHtml"`
	Options         []option `json:"options" validate:"omitempty,dive"`
	Images          *struct {
		Nodes []*image `json:"nodes" validate:"required,dive"`
	} `json:"images"`
	FeaturedImage *image `json:"featuredImage"`
	Variants      *struct {
		Nodes []variant `json:"nodes" validate:"required,dive"`
	} `json:"variants"`
	Collections *struct {
		Nodes []collection `json:"nodes" validate:"required,dive"`
	} `json:"collections"`
}

type merchandise struct {
	ID              *string          `json:"id" validate:"required"`
	Title           *string          `json:"title" validate:"required"`
	Image           *image           `json:"image"`
	Price           *moneyV2         `json:"price"`
	SelectedOptions []selectedOption `json:"selectedOptions" validate:"omitempty,dive"`
	Product         *struct {
		Title   *string  `json:"title" validate:"required"`
		Handle  *string  `json:"handle" validate:"required"`
		Options []option `json:"options" validate:"omitempty,dive"`
	} `json:"product" validate:"required"`
}

type cartLine struct {
	ID          *string      `json:"id" validate:"required"`
	Quantity    *int         `json:"quantity" validate:"required,gt=0"`
	Merchandise *merchandise `json:"merchandise" validate:"required"`
	Cost        *struct {
		AmountPerQuantity *moneyV2 `json:"amountPerQuantity" validate:"required"`
		SubtotalAmount    *moneyV2 `json:"subtotalAmount" validate:"required"`
		TotalAmount       *moneyV2 `json:"totalAmount" validate:"required"`
	} `json:"cost" validate:"required"`
}

type cart struct {
	ID            *string `json:"id" validate:"required"`
	CheckoutURL   *string `json:"checkoutUrl" validate:"required"`
	TotalQuantity *int    `json:"totalQuantity" validate:"required,gte=0"`
	Cost          *struct {
		SubtotalAmount *moneyV2 `json:"subtotalAmount" validate:"required"`
	} `json:"cost" validate:"required"`
	Lines *struct {
		Nodes []cartLine `json:"nodes" validate:"required,dive"`
	} `json:"lines" validate:"required"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// cartPayload is the result of every cart mutation.
type cartPayload struct {
	Cart       *cart       `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

// --- Wire to domain mapping. Only called on validated values. ---

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (m *moneyV2) toCatalog() catalog.Money {
	amount, _ := decimal.NewFromString(deref(m.Amount))
	return catalog.Money{Amount: amount, CurrencyCode: deref(m.CurrencyCode)}
}

func (m *moneyV2) toCatalogPtr() *catalog.Money {
	if m == nil {
		return nil
	}
	out := m.toCatalog()
	return &out
}

func (i *image) toCatalog() *catalog.Image {
	if i == nil {
		return nil
	}
	return &catalog.Image{
		AltText: i.AltText,
		URL:     deref(i.URL),
		Width:   deref(i.Width),
		Height:  deref(i.Height),
	}
}

func optionsToCatalog(in []option) []catalog.OptionDefinition {
	out := make([]catalog.OptionDefinition, len(in))
	for i, o := range in {
		out[i] = catalog.OptionDefinition{Name: deref(o.Name), Values: o.Values}
	}
	return out
}

func selectedToCatalog(in []selectedOption) []catalog.SelectedOption {
	out := make([]catalog.SelectedOption, len(in))
	for i, o := range in {
		out[i] = catalog.SelectedOption{Name: deref(o.Name), Value: deref(o.Value)}
	}
	return out
}

func (p *product) toCatalog() catalog.Product {
	out := catalog.Product{
		ID:              deref(p.ID),
		Title:           deref(p.Title),
		Handle:          deref(p.Handle),
		Description:     deref(p.Description),
		DescriptionHTML: deref(p.DescriptionHTML),
		Options:         optionsToCatalog(p.Options),
		FeaturedImage:   p.FeaturedImage.toCatalog(),
		Images:          []*catalog.Image{},
		Variants:        []catalog.Variant{},
	}

	if p.Images != nil {
		out.Images = make([]*catalog.Image, len(p.Images.Nodes))
		for i, img := range p.Images.Nodes {
			out.Images[i] = img.toCatalog()
		}
	}

	if p.Variants != nil {
		out.Variants = make([]catalog.Variant, len(p.Variants.Nodes))
		for i, v := range p.Variants.Nodes {
			out.Variants[i] = catalog.Variant{
				ID:                deref(v.ID),
				Title:             v.Title,
				AvailableForSale:  v.AvailableForSale,
				QuantityAvailable: v.QuantityAvailable,
				SelectedOptions:   selectedToCatalog(v.SelectedOptions),
				Price:             v.Price.toCatalogPtr(),
			}
		}
	}

	if p.Collections != nil {
		out.Collections = make([]catalog.Collection, len(p.Collections.Nodes))
		for i, c := range p.Collections.Nodes {
			out.Collections[i] = catalog.Collection{ID: deref(c.ID), Title: deref(c.Title)}
		}
	}

	return out
}

func (c *cart) toCatalog() *catalog.Cart {
	out := &catalog.Cart{
		ID:            deref(c.ID),
		CheckoutURL:   deref(c.CheckoutURL),
		TotalQuantity: deref(c.TotalQuantity),
		Cost:          catalog.CartCost{SubtotalAmount: c.Cost.SubtotalAmount.toCatalog()},
		Lines:         make([]catalog.CartLine, len(c.Lines.Nodes)),
	}

	for i, l := range c.Lines.Nodes {
		m := l.Merchandise
		out.Lines[i] = catalog.CartLine{
			ID:       deref(l.ID),
			Quantity: deref(l.Quantity),
			Merchandise: catalog.Merchandise{
				ID:              deref(m.ID),
				Title:           deref(m.Title),
				Image:           m.Image.toCatalog(),
				Price:           m.Price.toCatalogPtr(),
				SelectedOptions: selectedToCatalog(m.SelectedOptions),
				Product: catalog.MerchandiseProduct{
					Title:   deref(m.Product.Title),
					Handle:  deref(m.Product.Handle),
					Options: optionsToCatalog(m.Product.Options),
				},
			},
			Cost: catalog.LineCost{
				AmountPerQuantity: l.Cost.AmountPerQuantity.toCatalog(),
				SubtotalAmount:    l.Cost.SubtotalAmount.toCatalog(),
				TotalAmount:       l.Cost.TotalAmount.toCatalog(),
			},
		}
	}

	return out
}
