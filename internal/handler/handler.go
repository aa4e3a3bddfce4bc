package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/selection"
	"github.com/xenking/merch-storefront/internal/shopify"
	"github.com/xenking/merch-storefront/internal/storefront"
	"github.com/xenking/merch-storefront/pkg/httpmiddleware"
)

// Storefront is the use-case layer the handler delegates to.
type Storefront interface {
	ListProducts(ctx context.Context, limit int, collection string) []catalog.Product
	ProductPage(ctx context.Context, handle string, sel *selection.Selection) (selection.Page, error)
	Cart(ctx context.Context, cartID string) (*catalog.Cart, error)
	AddToBasket(ctx context.Context, req storefront.AddToBasket) (*catalog.Cart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*catalog.Cart, error)
}

var _ Storefront = (*storefront.Service)(nil)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// CookieName is the cookie carrying the cart ID.
	CookieName   string
	CookieMaxAge time.Duration
	CookieSecure bool
	// MutationLimit, when set, guards the cart mutation routes.
	MutationLimit httpmiddleware.Middleware
}

// Handler serves the storefront JSON API. The cart ID is the only state kept
// on the client, in a cookie.
type Handler struct {
	svc Storefront
	cfg Config
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, svc Storefront) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "cart_id"
	}
	return &Handler{svc: svc, cfg: cfg}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(withBuyerIP)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{handle}", h.ProductPage)
	})
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Group(func(r chi.Router) {
			if h.cfg.MutationLimit != nil {
				r.Use(h.cfg.MutationLimit)
			}
			r.Post("/lines", h.AddLine)
			r.Delete("/lines/{lineID}", h.RemoveLine)
		})
	})
	return r
}

// withBuyerIP forwards the shopper's address to server mode API calls.
func withBuyerIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shopify.WithBuyerIP(r.Context(), httpmiddleware.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) cartID(r *http.Request) string {
	c, err := r.Cookie(h.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) setCartCookie(w http.ResponseWriter, cartID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    cartID,
		Path:     "/",
		MaxAge:   int(h.cfg.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCartCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// queryInt returns the integer query parameter name, or 0 when it is absent
// or malformed.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
