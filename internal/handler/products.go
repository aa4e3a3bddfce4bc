package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/selection"
)

// productCard is a listing entry: the product plus its display price.
type productCard struct {
	catalog.Product
	Price string `json:"price"`
}

type listProductsResponse struct {
	Products []productCard `json:"products"`
}

// ListProducts serves GET /products?limit=N&collection=Title.
// The listing degrades to empty instead of failing.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.svc.ListProducts(r.Context(), queryInt(r, "limit"), r.URL.Query().Get("collection"))

	cards := make([]productCard, len(products))
	for i, p := range products {
		cards[i] = productCard{Product: p, Price: p.CardPrice()}
	}
	respondJSON(w, r, http.StatusOK, listProductsResponse{Products: cards})
}

// ProductPage serves GET /products/{handle}?color=C&size=S. Without color and
// size the page opens with the initial selection.
func (h *Handler) ProductPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var sel *selection.Selection
	if q.Has("color") || q.Has("size") {
		sel = &selection.Selection{Color: q.Get("color"), Size: q.Get("size")}
	}

	page, err := h.svc.ProductPage(r.Context(), chi.URLParam(r, "handle"), sel)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}
