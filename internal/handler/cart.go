package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/selection"
	"github.com/xenking/merch-storefront/internal/shopify"
	"github.com/xenking/merch-storefront/internal/storefront"
	"github.com/xenking/merch-storefront/pkg/httpmiddleware"
)

// maxBodySize bounds add-to-basket request bodies.
const maxBodySize = 64 << 10

type cartResponse struct {
	Cart *catalog.Cart `json:"cart"`
}

// GetCart serves GET /cart. A shopper without a cart gets {"cart": null};
// a cookie naming a cart that no longer exists is expired.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := h.cartID(r)
	c, err := h.svc.Cart(r.Context(), cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if c == nil && cartID != "" {
		zctx.From(r.Context()).Info("Cart gone, clearing cookie", zap.String("cart_id", cartID))
		h.clearCartCookie(w)
	}
	respondJSON(w, r, http.StatusOK, cartResponse{Cart: c})
}

// cartGone reports whether the cart named by cartID no longer exists, e.g.
// after checkout. Lookup failures report false.
func (h *Handler) cartGone(r *http.Request, cartID string) bool {
	c, err := h.svc.Cart(r.Context(), cartID)
	return err == nil && c == nil
}

// addLineRequest is the POST /cart/lines body. Quantity is raw user input and
// may be a number or a string.
type addLineRequest struct {
	MerchandiseID string
	Quantity      int
}

func decodeAddLine(data []byte) (addLineRequest, error) {
	req := addLineRequest{Quantity: selection.MinQuantity}
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "merchandiseId":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "merchandiseId")
			}
			req.MerchandiseID = v
			return nil
		case "quantity":
			switch d.Next() {
			case jx.String:
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "quantity")
				}
				req.Quantity = selection.ClampQuantity(v)
				return nil
			case jx.Number:
				v, err := d.Num()
				if err != nil {
					return errors.Wrap(err, "quantity")
				}
				req.Quantity = selection.ClampQuantity(v.String())
				return nil
			default:
				return d.Skip()
			}
		default:
			return d.Skip()
		}
	})
	return req, err
}

// AddLine serves POST /cart/lines. The first add creates the cart and sets
// the cart cookie. When the cookie names a cart that no longer exists, a new
// cart is created in its place.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, r, &badRequestError{err: err})
		return
	}
	req, err := decodeAddLine(body)
	if err != nil {
		respondError(w, r, &badRequestError{err: err})
		return
	}

	cartID := h.cartID(r)
	c, err := h.addToBasket(r, cartID, req)
	var apiErr *shopify.APIError
	if cartID != "" && errors.As(err, &apiErr) && h.cartGone(r, cartID) {
		zctx.From(r.Context()).Info("Cart gone, starting a new one", zap.String("cart_id", cartID))
		cartID = ""
		c, err = h.addToBasket(r, cartID, req)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if c != nil && c.ID != cartID {
		h.setCartCookie(w, c.ID)
		status = http.StatusCreated
	}
	respondJSON(w, r, status, cartResponse{Cart: c})
}

func (h *Handler) addToBasket(r *http.Request, cartID string, req addLineRequest) (*catalog.Cart, error) {
	key := cartID
	if key == "" {
		key = "client:" + httpmiddleware.ClientIP(r)
	}
	return h.svc.AddToBasket(r.Context(), storefront.AddToBasket{
		Key:           key,
		CartID:        cartID,
		MerchandiseID: req.MerchandiseID,
		Quantity:      req.Quantity,
	})
}

// RemoveLine serves DELETE /cart/lines/{lineID}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.RemoveLines(r.Context(), h.cartID(r), []string{chi.URLParam(r, "lineID")})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, cartResponse{Cart: c})
}
