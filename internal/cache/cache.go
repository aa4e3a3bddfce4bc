// Package cache keeps normalized product snapshots between requests.
package cache

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// ErrCacheMiss is returned by Get when no snapshot is stored for a handle.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache stores product snapshots by handle.
type ProductCache interface {
	Get(ctx context.Context, handle string) (catalog.Product, error)
	Set(ctx context.Context, p catalog.Product) error
	Delete(ctx context.Context, handle string) error
}

// Nop is a ProductCache that stores nothing.
type Nop struct{}

var _ ProductCache = Nop{}

func (Nop) Get(context.Context, string) (catalog.Product, error) {
	return catalog.Product{}, ErrCacheMiss
}

func (Nop) Set(context.Context, catalog.Product) error { return nil }

func (Nop) Delete(context.Context, string) error { return nil }
