// Package cartstore holds the shopper's current cart for the life of a
// process and notifies subscribers when it is replaced.
package cartstore

import (
	"sync"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// Listener is called with the new cart after every Set. The cart may be nil.
type Listener func(c *catalog.Cart)

// Store is a single owned cart cell. It is safe for concurrent use.
//
// Carts are snapshots: Set replaces the whole value and subscribers must not
// modify what they receive.
type Store struct {
	mu        sync.RWMutex
	cart      *catalog.Cart
	cartID    string
	nextID    int
	listeners map[int]Listener
}

// New creates a Store that starts with no cart and remembers cartID, the
// identifier persisted from an earlier session, if any.
func New(cartID string) *Store {
	return &Store{cartID: cartID, listeners: make(map[int]Listener)}
}

// Cart returns the current cart snapshot, or nil when none was loaded.
func (s *Store) Cart() *catalog.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// CartID returns the identifier of the current cart. It stays set after a
// nil Set so a later fetch can find out whether the cart still exists.
func (s *Store) CartID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartID
}

// Set replaces the cart and notifies subscribers in subscription order,
// outside the lock.
func (s *Store) Set(c *catalog.Cart) {
	s.mu.Lock()
	s.cart = c
	if c != nil {
		s.cartID = c.ID
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for id := range s.nextID {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(c)
	}
}

// Clear forgets both the cart and its identifier, e.g. after checkout.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cartID = ""
	s.mu.Unlock()
	s.Set(nil)
}

// Subscribe registers l and returns a function that unregisters it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
