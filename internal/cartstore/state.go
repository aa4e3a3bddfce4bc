package cartstore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
)

// State is what a client persists between runs: only the cart identifier.
type State struct {
	CartID string `yaml:"cart_id"`
}

// LoadState reads the state file at path. A missing file is an empty state.
func LoadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, errors.Wrap(err, "read state")
	}

	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return State{}, errors.Wrapf(err, "parse state %s", path)
	}
	return s, nil
}

// SaveState writes s to path, creating parent directories as needed.
func SaveState(path string, s State) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "write state")
	}
	return nil
}

// Persist subscribes to s and saves the cart ID to path whenever it changes.
// Save failures are passed to onErr, which may be nil.
func Persist(s *Store, path string, onErr func(error)) (unsubscribe func()) {
	var mu sync.Mutex
	last := s.CartID()
	return s.Subscribe(func(_ *catalog.Cart) {
		mu.Lock()
		defer mu.Unlock()

		id := s.CartID()
		if id == last {
			return
		}
		last = id
		if err := SaveState(path, State{CartID: id}); err != nil && onErr != nil {
			onErr(err)
		}
	})
}
