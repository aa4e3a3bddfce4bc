// Package storefront implements the catalog, product page and cart use cases
// on top of a commerce backend.
package storefront

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/merch-storefront/internal/cache"
	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/schema"
	"github.com/xenking/merch-storefront/internal/selection"
)

// Sentinel errors for cart operations.
var (
	// ErrAddInFlight is returned while an add-to-basket for the same key runs.
	ErrAddInFlight = errors.New("add to basket already in progress")
	ErrNoVariant   = errors.New("no variant selected")
	ErrNoCart      = errors.New("no cart")
	ErrNoLines     = errors.New("no cart lines given")
)

// Backend is the commerce API. Every returned product and cart is normalized.
type Backend interface {
	ListProducts(ctx context.Context, first int) ([]catalog.Product, error)
	ProductByHandle(ctx context.Context, handle string) (catalog.Product, error)
	CreateCart(ctx context.Context, merchandiseID string, quantity int) (*catalog.Cart, error)
	AddCartLines(ctx context.Context, cartID, merchandiseID string, quantity int) (*catalog.Cart, error)
	RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*catalog.Cart, error)
	Cart(ctx context.Context, cartID string) (*catalog.Cart, error)
}

// Config holds service settings.
type Config struct {
	// PageSize is the listing size when the caller does not ask for one.
	PageSize int
}

// Service serves storefront reads and cart mutations.
type Service struct {
	backend Backend
	cache   cache.ProductCache
	schema  *schema.Validator
	cfg     Config

	products singleflight.Group

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a Service. A nil cache disables product caching.
func NewService(backend Backend, c cache.ProductCache, cfg Config) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Service{
		backend:  backend,
		cache:    c,
		schema:   schema.New(),
		cfg:      cfg,
		inFlight: make(map[string]struct{}),
	}
}

// ListProducts returns up to limit products, filtered by collection title
// when collection is neither empty nor catalog.AllCollections.
//
// It never fails: any backend, validation or normalization error is logged
// and an empty listing is returned instead.
func (s *Service) ListProducts(ctx context.Context, limit int, collection string) []catalog.Product {
	if limit <= 0 {
		limit = s.cfg.PageSize
	}

	products, err := s.backend.ListProducts(ctx, limit)
	if err != nil {
		zctx.From(ctx).Error("List products failed, serving empty listing",
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return []catalog.Product{}
	}
	return catalog.FilterByCollection(products, collection)
}

// Product returns the product with the given handle. Cached snapshots are
// validated again before use; an invalid one is evicted and refetched.
func (s *Service) Product(ctx context.Context, handle string) (catalog.Product, error) {
	if handle == "" {
		return catalog.Product{}, catalog.ErrNotFound
	}

	if p, ok := s.cached(ctx, handle); ok {
		return p, nil
	}
	return s.fetch(ctx, handle)
}

// fetch loads the product from the backend and refreshes the cache.
// Concurrent fetches of one handle share a backend call.
func (s *Service) fetch(ctx context.Context, handle string) (catalog.Product, error) {
	if handle == "" {
		return catalog.Product{}, catalog.ErrNotFound
	}

	lg := zctx.From(ctx)
	v, err, _ := s.products.Do(handle, func() (any, error) {
		// Shared by every waiter: detach from the first caller's cancellation.
		ctx := context.WithoutCancel(ctx)
		p, err := s.backend.ProductByHandle(ctx, handle)
		if err != nil {
			return catalog.Product{}, err
		}
		if err := s.cache.Set(ctx, p); err != nil {
			lg.Warn("Product cache write failed", zap.String("handle", handle), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return v.(catalog.Product), nil
}

func (s *Service) cached(ctx context.Context, handle string) (catalog.Product, bool) {
	lg := zctx.From(ctx).With(zap.String("handle", handle))

	p, err := s.cache.Get(ctx, handle)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return catalog.Product{}, false
	case err != nil:
		lg.Warn("Product cache read failed", zap.Error(err))
		return catalog.Product{}, false
	}

	if err := s.validCached(p, handle); err != nil {
		lg.Warn("Cached product invalid, refetching", zap.Error(err))
		if err := s.cache.Delete(ctx, handle); err != nil {
			lg.Warn("Product cache evict failed", zap.Error(err))
		}
		return catalog.Product{}, false
	}
	return p, true
}

func (s *Service) validCached(p catalog.Product, handle string) error {
	if p.Handle != handle {
		return errors.Errorf("cached handle %q", p.Handle)
	}
	return s.schema.Validate("product", p)
}

// ProductPage resolves sel against the product. A nil sel opens the page
// with the initial selection from the cached snapshot; a selection change
// refetches the product so availability is current.
func (s *Service) ProductPage(ctx context.Context, handle string, sel *selection.Selection) (selection.Page, error) {
	load := s.Product
	if sel != nil {
		load = s.fetch
	}
	p, err := load(ctx, handle)
	if err != nil {
		return selection.Page{}, err
	}
	return selection.Build(p, sel), nil
}

// Cart returns the cart with the given ID, or nil when cartID is empty or
// the cart no longer exists.
func (s *Service) Cart(ctx context.Context, cartID string) (*catalog.Cart, error) {
	if cartID == "" {
		return nil, nil
	}
	return s.backend.Cart(ctx, cartID)
}

// AddToBasket holds the input of one add-to-basket action.
type AddToBasket struct {
	// Key identifies the shopper's session; one add per key runs at a time.
	// It defaults to CartID.
	Key           string
	CartID        string
	MerchandiseID string
	Quantity      int
}

// AddToBasket adds a line to the shopper's cart, creating the cart when
// CartID is empty. The quantity is clamped to the allowed range.
// A second call with the same key while one is running fails with
// ErrAddInFlight; nothing is queued or retried.
func (s *Service) AddToBasket(ctx context.Context, req AddToBasket) (*catalog.Cart, error) {
	if req.MerchandiseID == "" {
		return nil, ErrNoVariant
	}

	key := req.Key
	if key == "" {
		key = req.CartID
	}
	release, ok := s.acquire(key)
	if !ok {
		return nil, ErrAddInFlight
	}
	defer release()

	qty := selection.Clamp(req.Quantity)
	if req.CartID == "" {
		c, err := s.backend.CreateCart(ctx, req.MerchandiseID, qty)
		if err != nil {
			return nil, err
		}
		if c != nil {
			zctx.From(ctx).Info("Cart created", zap.String("cart_id", c.ID))
		}
		return c, nil
	}
	return s.backend.AddCartLines(ctx, req.CartID, req.MerchandiseID, qty)
}

// RemoveLines removes lines from the cart and returns the updated cart.
func (s *Service) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*catalog.Cart, error) {
	if cartID == "" {
		return nil, ErrNoCart
	}
	if len(lineIDs) == 0 {
		return nil, ErrNoLines
	}
	return s.backend.RemoveCartLines(ctx, cartID, lineIDs)
}

// acquire marks key busy. An empty key, a shopper without a cart or
// session, is guarded as one shared key.
func (s *Service) acquire(key string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[key]; busy {
		return nil, false
	}
	s.inFlight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}, true
}
