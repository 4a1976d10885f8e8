// Package api exposes the storefront core over HTTP. Each storefront
// scope gets its own session resolver and cart store, lazily built on
// first use and kept for the life of the process.
package api

import (
	"fmt"
	"sync"

	"github.com/shoplane/storefront-core/internal/cart"
	"github.com/shoplane/storefront-core/internal/session"
	"github.com/shoplane/storefront-core/pkg/kv"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/metrics"
	"github.com/shoplane/storefront-core/pkg/storeapi"
)

// Storefront bundles the per-scope state instances.
type Storefront struct {
	Auth     *session.MutableAuthState
	Resolver *session.Resolver
	Cart     *cart.Store
}

// Registry builds and caches one Storefront per scope.
type Registry struct {
	remote   *storeapi.Client
	kvStore  kv.Store
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	currency string

	mu     sync.Mutex
	fronts map[string]*Storefront
}

// NewRegistry wires the shared dependencies every storefront scope uses.
func NewRegistry(remote *storeapi.Client, kvStore kv.Store, logg *logger.Logger, m *metrics.StorefrontMetrics, currency string) (*Registry, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote client required")
	}
	if kvStore == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &Registry{
		remote:   remote,
		kvStore:  kvStore,
		logg:     logg,
		metrics:  m,
		currency: currency,
		fronts:   map[string]*Storefront{},
	}, nil
}

// Storefront returns the scope's instance, building it on first use.
func (r *Registry) Storefront(scope string) (*Storefront, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if front, ok := r.fronts[scope]; ok {
		return front, nil
	}

	auth := session.NewMutableAuthState()
	resolver, err := session.NewResolver(auth, r.kvStore, r.logg, session.WithScope(scope))
	if err != nil {
		return nil, err
	}
	store, err := cart.NewStore(r.remote, resolver, r.logg, r.currency, cart.WithMetrics(r.metrics))
	if err != nil {
		return nil, err
	}

	front := &Storefront{Auth: auth, Resolver: resolver, Cart: store}
	r.fronts[scope] = front
	return front, nil
}

// Remote exposes the shared client for order submission.
func (r *Registry) Remote() *storeapi.Client {
	return r.remote
}
