package catalog

// Cart is the server-side cart snapshot. A nil *Cart means no cart exists yet.
type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity" validate:"gte=0"`
	Cost          CartCost   `json:"cost"`
	Lines         []CartLine `json:"lines" validate:"dive"`
}

// CartCost holds cart-level totals.
type CartCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
}

// CartLine is one merchandise entry in a cart.
type CartLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity" validate:"gt=0"`
	Merchandise Merchandise `json:"merchandise"`
	Cost        LineCost    `json:"cost"`
}

// LineCost holds the per-line amounts.
type LineCost struct {
	AmountPerQuantity Money `json:"amountPerQuantity"`
	SubtotalAmount    Money `json:"subtotalAmount"`
	TotalAmount       Money `json:"totalAmount"`
}

// Merchandise is the variant snapshot embedded in a cart line, together with
// the parent product fields needed to derive its color and size axes.
type Merchandise struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Image           *Image             `json:"image,omitempty"`
	Price           *Money             `json:"price,omitempty"`
	SelectedOptions []SelectedOption   `json:"selectedOptions"`
	Product         MerchandiseProduct `json:"product"`
	Color           string             `json:"color,omitempty"`
	Size            string             `json:"size,omitempty"`
	Colors          []string           `json:"colors"`
	Sizes           []string           `json:"sizes"`
}

// MerchandiseProduct is the product summary carried by a cart line.
type MerchandiseProduct struct {
	Title   string             `json:"title"`
	Handle  string             `json:"handle"`
	Options []OptionDefinition `json:"options"`
}

// LineIDs returns the identifiers of every line in the cart.
func (c *Cart) LineIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		ids[i] = l.ID
	}
	return ids
}
