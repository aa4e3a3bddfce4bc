package shopify

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/storefront"
)

var _ storefront.Backend = (*Client)(nil)

// DefaultPageSize is the listing size used when none is requested.
const DefaultPageSize = 10

// ListProducts returns the first products of the catalog. Any invalid
// product fails the whole call.
func (c *Client) ListProducts(ctx context.Context, first int) ([]catalog.Product, error) {
	if first <= 0 {
		first = DefaultPageSize
	}

	var data struct {
		Products *struct {
			Edges []struct {
				Node product `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	err := c.do(ctx, "products", productsQuery, func(e *jx.Encoder) {
		e.Field("first", func(e *jx.Encoder) { e.Int(first) })
	}, &data)
	if err != nil {
		return nil, err
	}

	if data.Products == nil || data.Products.Edges == nil {
		return nil, errors.New("list products: no products found or invalid data structure")
	}

	out := make([]catalog.Product, 0, len(data.Products.Edges))
	for _, edge := range data.Products.Edges {
		p, err := c.product(&edge.Node)
		if err != nil {
			return nil, errors.Wrap(err, "list products")
		}
		out = append(out, p)
	}
	return out, nil
}

// ProductByHandle returns the product with the given handle, or
// catalog.ErrNotFound.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (catalog.Product, error) {
	var data struct {
		Product *product `json:"product"`
	}
	err := c.do(ctx, "product", productByHandleQuery, func(e *jx.Encoder) {
		e.Field("handle", func(e *jx.Encoder) { e.Str(handle) })
	}, &data)
	if err != nil {
		return catalog.Product{}, err
	}
	if data.Product == nil {
		return catalog.Product{}, errors.Wrapf(catalog.ErrNotFound, "get product %q", handle)
	}

	p, err := c.product(data.Product)
	if err != nil {
		return catalog.Product{}, errors.Wrapf(err, "get product %q", handle)
	}
	return p, nil
}

// CreateCart creates a cart holding one line.
func (c *Client) CreateCart(ctx context.Context, merchandiseID string, quantity int) (*catalog.Cart, error) {
	var data struct {
		CartCreate *cartPayload `json:"cartCreate"`
	}
	err := c.do(ctx, "cartCreate", createCartMutation, func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(merchandiseID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(quantity) })
	}, &data)
	if err != nil {
		return nil, err
	}

	out, err := c.mutatedCart(data.CartCreate)
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return out, nil
}

// AddCartLines adds a line to an existing cart.
func (c *Client) AddCartLines(ctx context.Context, cartID, merchandiseID string, quantity int) (*catalog.Cart, error) {
	var data struct {
		CartLinesAdd *cartPayload `json:"cartLinesAdd"`
	}
	err := c.do(ctx, "cartLinesAdd", addCartLinesMutation, func(e *jx.Encoder) {
		e.Field("cartId", func(e *jx.Encoder) { e.Str(cartID) })
		e.Field("merchandiseId", func(e *jx.Encoder) { e.Str(merchandiseID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(quantity) })
	}, &data)
	if err != nil {
		return nil, err
	}

	out, err := c.mutatedCart(data.CartLinesAdd)
	if err != nil {
		return nil, errors.Wrap(err, "add cart lines")
	}
	return out, nil
}

// RemoveCartLines removes lines by ID from an existing cart.
func (c *Client) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*catalog.Cart, error) {
	var data struct {
		CartLinesRemove *cartPayload `json:"cartLinesRemove"`
	}
	err := c.do(ctx, "cartLinesRemove", removeCartLinesMutation, func(e *jx.Encoder) {
		e.Field("cartId", func(e *jx.Encoder) { e.Str(cartID) })
		e.Field("lineIds", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, id := range lineIDs {
					e.Str(id)
				}
			})
		})
	}, &data)
	if err != nil {
		return nil, err
	}

	out, err := c.mutatedCart(data.CartLinesRemove)
	if err != nil {
		return nil, errors.Wrap(err, "remove cart lines")
	}
	return out, nil
}

// Cart fetches a cart by ID. It returns nil without error when the cart
// does not exist, e.g. after checkout completed.
func (c *Client) Cart(ctx context.Context, cartID string) (*catalog.Cart, error) {
	var data struct {
		Cart *cart `json:"cart"`
	}
	err := c.do(ctx, "cart", cartQuery, func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(cartID) })
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, nil
	}

	out, err := c.cart(data.Cart)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return out, nil
}

func (c *Client) product(raw *product) (catalog.Product, error) {
	if err := c.schema.Validate("product", raw); err != nil {
		return catalog.Product{}, err
	}
	return c.normalizer.Product(raw.toCatalog())
}

func (c *Client) cart(raw *cart) (*catalog.Cart, error) {
	if err := c.schema.Validate("cart", raw); err != nil {
		return nil, err
	}
	return c.normalizer.Cart(raw.toCatalog())
}

func (c *Client) mutatedCart(payload *cartPayload) (*catalog.Cart, error) {
	if payload == nil {
		return nil, errors.New("empty mutation payload")
	}
	if len(payload.UserErrors) > 0 {
		messages := make([]string, len(payload.UserErrors))
		for i, ue := range payload.UserErrors {
			messages[i] = ue.Message
		}
		return nil, &APIError{Messages: messages}
	}
	if payload.Cart == nil {
		return nil, errors.New("mutation returned no cart")
	}
	return c.cart(payload.Cart)
}
