// Package storage defines the key-value abstraction every storefront component
// persists through, plus helpers shared by all backends.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Store.Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Keys used inside a client namespace.
const (
	KeyCart        = "cart"
	KeyOrderTotal  = "order_total"
	KeyLastOrder   = "last_order"
	KeyUsers       = "users"
	KeyCurrentUser = "currentUser"
)

// Store is a string-keyed byte store. Writes to a single key are atomic;
// there is no cross-key transaction.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scope returns a Store whose keys live under the given client's namespace.
// Two scopes with different client IDs never observe each other's values.
func Scope(s Store, clientID string) Store {
	return &scoped{base: s, prefix: "client:" + clientID + ":"}
}

type scoped struct {
	base   Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.base.Set(ctx, s.prefix+key, value)
}
