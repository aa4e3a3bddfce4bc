package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/normalize"
	"github.com/xenking/merch-storefront/internal/schema"
	"github.com/xenking/merch-storefront/internal/selection"
	"github.com/xenking/merch-storefront/internal/shopify"
	"github.com/xenking/merch-storefront/internal/storefront"
)

// --- Mock implementations ---

type mockStorefront struct {
	products []catalog.Product
	page     selection.Page
	pageErr  error
	cart     *catalog.Cart
	cartErr  error

	gotLimit      int
	gotCollection string
	gotHandle     string
	gotSelection  *selection.Selection
	gotCartID     string
	gotAdd        storefront.AddToBasket
	gotAdds       []storefront.AddToBasket
	add           func(storefront.AddToBasket) (*catalog.Cart, error)
	gotLineIDs    []string
	gotBuyerIP    string
}

func (m *mockStorefront) ListProducts(_ context.Context, limit int, collection string) []catalog.Product {
	m.gotLimit = limit
	m.gotCollection = collection
	return m.products
}

func (m *mockStorefront) ProductPage(_ context.Context, handle string, sel *selection.Selection) (selection.Page, error) {
	m.gotHandle = handle
	m.gotSelection = sel
	return m.page, m.pageErr
}

func (m *mockStorefront) Cart(_ context.Context, cartID string) (*catalog.Cart, error) {
	m.gotCartID = cartID
	return m.cart, m.cartErr
}

func (m *mockStorefront) AddToBasket(ctx context.Context, req storefront.AddToBasket) (*catalog.Cart, error) {
	m.gotAdd = req
	m.gotAdds = append(m.gotAdds, req)
	m.gotBuyerIP = shopify.BuyerIPFromContext(ctx)
	if m.add != nil {
		return m.add(req)
	}
	return m.cart, m.cartErr
}

func (m *mockStorefront) RemoveLines(_ context.Context, cartID string, lineIDs []string) (*catalog.Cart, error) {
	m.gotCartID = cartID
	m.gotLineIDs = lineIDs
	return m.cart, m.cartErr
}

// --- Helpers ---

func price(s string) *catalog.Money {
	return &catalog.Money{Amount: decimal.RequireFromString(s), CurrencyCode: "USD"}
}

func newTestServer(svc Storefront) http.Handler {
	return NewHandler(Config{CookieMaxAge: time.Hour}, svc).Routes()
}

func do(h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "198.51.100.7:4321"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	svc := &mockStorefront{products: []catalog.Product{
		{ID: "p1", Handle: "tee", Variants: []catalog.Variant{{ID: "v1", Price: price("19.9")}}},
		{ID: "p2", Handle: "mug"},
	}}
	h := newTestServer(svc)

	w := do(h, http.MethodGet, "/products?limit=5&collection=Shirts", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, 5, svc.gotLimit)
	assert.Equal(t, "Shirts", svc.gotCollection)

	products := decode(t, w)["products"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "tee", products[0].(map[string]any)["handle"])
	assert.Equal(t, "19.90", products[0].(map[string]any)["price"])
	assert.Equal(t, "0.00", products[1].(map[string]any)["price"])
}

func TestListProducts_EmptyListing(t *testing.T) {
	svc := &mockStorefront{}
	w := do(newTestServer(svc), http.MethodGet, "/products?limit=abc", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.gotLimit)
	assert.JSONEq(t, `{"products":[]}`, w.Body.String())
}

func TestProductPage(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantSel *selection.Selection
	}{
		{name: "initial selection", target: "/products/tee"},
		{
			name:    "explicit selection",
			target:  "/products/tee?color=Blue&size=M",
			wantSel: &selection.Selection{Color: "Blue", Size: "M"},
		},
		{
			name:    "color only",
			target:  "/products/tee?color=Red",
			wantSel: &selection.Selection{Color: "Red"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockStorefront{page: selection.Page{
				Product: catalog.Product{Handle: "tee"},
				Status:  selection.StatusAvailable,
				Price:   "19.99",
			}}

			w := do(newTestServer(svc), http.MethodGet, tt.target, "")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "tee", svc.gotHandle)
			assert.Equal(t, tt.wantSel, svc.gotSelection)
			body := decode(t, w)
			assert.Equal(t, "available", body["status"])
			assert.Equal(t, "19.99", body["price"])
		})
	}
}

func TestProductPage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "not found",
			err:     errors.Wrapf(catalog.ErrNotFound, "product %q", "nope"),
			code:    http.StatusNotFound,
			message: `product "nope": product not found`,
		},
		{
			name:    "transport",
			err:     &shopify.TransportError{StatusCode: 500, Body: "boom"},
			code:    http.StatusBadGateway,
			message: "500 boom",
		},
		{
			name:    "graphql",
			err:     &shopify.APIError{Messages: []string{"Invalid token"}},
			code:    http.StatusBadGateway,
			message: "Invalid token",
		},
		{
			name:    "validation",
			err:     &schema.ValidationError{Entity: "product"},
			code:    http.StatusBadGateway,
			message: "invalid product",
		},
		{
			name:    "normalization defect",
			err:     &normalize.DefectError{Entity: "product", Err: errors.New("colors mismatch")},
			code:    http.StatusBadGateway,
			message: "normalized product failed validation: colors mismatch",
		},
		{
			name:    "unknown",
			err:     errors.New("secret detail"),
			code:    http.StatusInternalServerError,
			message: "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockStorefront{pageErr: tt.err}
			w := do(newTestServer(svc), http.MethodGet, "/products/nope", "")

			assert.Equal(t, tt.code, w.Code)
			body := decode(t, w)
			assert.EqualValues(t, tt.code, body["code"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestGetCart(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		svc := &mockStorefront{}
		w := do(newTestServer(svc), http.MethodGet, "/cart", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, svc.gotCartID)
		assert.JSONEq(t, `{"cart":null}`, w.Body.String())
	})
	t.Run("with cookie", func(t *testing.T) {
		svc := &mockStorefront{cart: &catalog.Cart{ID: "c1", TotalQuantity: 2}}
		w := do(newTestServer(svc), http.MethodGet, "/cart", "", &http.Cookie{Name: "cart_id", Value: "c1"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "c1", svc.gotCartID)
		cart := decode(t, w)["cart"].(map[string]any)
		assert.Equal(t, "c1", cart["id"])
		assert.EqualValues(t, 2, cart["totalQuantity"])
	})
}

func TestGetCart_ExpiresStaleCookie(t *testing.T) {
	svc := &mockStorefront{}
	w := do(newTestServer(svc), http.MethodGet, "/cart", "", &http.Cookie{Name: "cart_id", Value: "checked-out"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "checked-out", svc.gotCartID)
	assert.JSONEq(t, `{"cart":null}`, w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cart_id", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestAddLine_ReplacesMissingCart(t *testing.T) {
	svc := &mockStorefront{
		add: func(req storefront.AddToBasket) (*catalog.Cart, error) {
			if req.CartID != "" {
				return nil, &shopify.APIError{Messages: []string{"The specified cart does not exist."}}
			}
			return &catalog.Cart{ID: "c-new"}, nil
		},
	}
	w := do(newTestServer(svc), http.MethodPost, "/cart/lines", `{"merchandiseId":"v1","quantity":2}`,
		&http.Cookie{Name: "cart_id", Value: "checked-out"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "checked-out", svc.gotCartID)
	require.Len(t, svc.gotAdds, 2)
	assert.Equal(t, "checked-out", svc.gotAdds[0].CartID)
	assert.Equal(t, storefront.AddToBasket{
		Key:           "client:198.51.100.7",
		MerchandiseID: "v1",
		Quantity:      2,
	}, svc.gotAdds[1])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "c-new", cookies[0].Value)
}

func TestAddLine_ExistingCartUserError(t *testing.T) {
	svc := &mockStorefront{
		cart: &catalog.Cart{ID: "c1"},
		add: func(storefront.AddToBasket) (*catalog.Cart, error) {
			return nil, &shopify.APIError{Messages: []string{"Merchandise is sold out"}}
		},
	}
	w := do(newTestServer(svc), http.MethodPost, "/cart/lines", `{"merchandiseId":"v1"}`,
		&http.Cookie{Name: "cart_id", Value: "c1"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Merchandise is sold out", decode(t, w)["message"])
	assert.Len(t, svc.gotAdds, 1)
	assert.Empty(t, w.Result().Cookies())
}

func TestAddLine_CreatesCart(t *testing.T) {
	svc := &mockStorefront{cart: &catalog.Cart{ID: "c-new"}}
	w := do(newTestServer(svc), http.MethodPost, "/cart/lines", `{"merchandiseId":"v1","quantity":3}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, storefront.AddToBasket{
		Key:           "client:198.51.100.7",
		MerchandiseID: "v1",
		Quantity:      3,
	}, svc.gotAdd)
	assert.Equal(t, "198.51.100.7", svc.gotBuyerIP)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cart_id", cookies[0].Name)
	assert.Equal(t, "c-new", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestAddLine_ExistingCart(t *testing.T) {
	svc := &mockStorefront{cart: &catalog.Cart{ID: "c1"}}
	w := do(newTestServer(svc), http.MethodPost, "/cart/lines", `{"merchandiseId":"v1"}`,
		&http.Cookie{Name: "cart_id", Value: "c1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", svc.gotAdd.Key)
	assert.Equal(t, "c1", svc.gotAdd.CartID)
	assert.Equal(t, 1, svc.gotAdd.Quantity)
	assert.Empty(t, w.Result().Cookies())
}

func TestAddLine_QuantityClamp(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{body: `{"merchandiseId":"v1","quantity":0}`, want: 1},
		{body: `{"merchandiseId":"v1","quantity":-4}`, want: 1},
		{body: `{"merchandiseId":"v1","quantity":250}`, want: 100},
		{body: `{"merchandiseId":"v1","quantity":2.7}`, want: 2},
		{body: `{"merchandiseId":"v1","quantity":"12abc"}`, want: 12},
		{body: `{"merchandiseId":"v1","quantity":"abc"}`, want: 1},
		{body: `{"merchandiseId":"v1","quantity":null}`, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			svc := &mockStorefront{cart: &catalog.Cart{ID: "c1"}}
			w := do(newTestServer(svc), http.MethodPost, "/cart/lines", tt.body,
				&http.Cookie{Name: "cart_id", Value: "c1"})

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, svc.gotAdd.Quantity)
		})
	}
}

func TestAddLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{name: "malformed body", body: `{"merchandiseId":`, code: http.StatusBadRequest},
		{name: "wrong type", body: `{"merchandiseId":5}`, code: http.StatusBadRequest},
		{name: "no variant", body: `{}`, err: storefront.ErrNoVariant, code: http.StatusBadRequest},
		{name: "in flight", body: `{"merchandiseId":"v1"}`, err: storefront.ErrAddInFlight, code: http.StatusConflict},
		{
			name: "user errors",
			body: `{"merchandiseId":"v1"}`,
			err:  &shopify.APIError{Messages: []string{"Merchandise is sold out"}},
			code: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockStorefront{cartErr: tt.err}
			w := do(newTestServer(svc), http.MethodPost, "/cart/lines", tt.body)

			assert.Equal(t, tt.code, w.Code)
			assert.EqualValues(t, tt.code, decode(t, w)["code"])
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestRemoveLine(t *testing.T) {
	svc := &mockStorefront{cart: &catalog.Cart{ID: "c1"}}
	w := do(newTestServer(svc), http.MethodDelete, "/cart/lines/line-7", "",
		&http.Cookie{Name: "cart_id", Value: "c1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", svc.gotCartID)
	assert.Equal(t, []string{"line-7"}, svc.gotLineIDs)
}

func TestRemoveLine_NoCart(t *testing.T) {
	svc := &mockStorefront{cartErr: storefront.ErrNoCart}
	w := do(newTestServer(svc), http.MethodDelete, "/cart/lines/line-7", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no cart", decode(t, w)["message"])
}

func TestMutationLimit(t *testing.T) {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	svc := &mockStorefront{cart: &catalog.Cart{ID: "c1"}}
	h := NewHandler(Config{MutationLimit: blocked}, svc).Routes()

	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/cart/lines", `{"merchandiseId":"v1"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodDelete, "/cart/lines/l1", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/cart", "").Code, "reads are not limited")
	assert.Empty(t, svc.gotAdd.MerchandiseID)
}
