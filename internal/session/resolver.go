// Package session resolves the identity that scopes a cart: the
// authenticated account id when logged in, otherwise a locally generated
// guest id persisted in durable storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shoplane/storefront-core/pkg/enums"
	"github.com/shoplane/storefront-core/pkg/kv"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/types"
)

const guestSessionKey = "guestSessionId"

// AuthState is the ambient authentication surface owned by the external
// provider. The resolver only reads it.
type AuthState interface {
	IsLoggedIn() bool
	CurrentAccountID() string
}

// Resolver produces the stable per-browser session identity.
type Resolver struct {
	auth  AuthState
	store kv.Store
	logg  *logger.Logger
	scope string

	mu sync.Mutex
}

// Option configures optional resolver behavior.
type Option func(*Resolver)

// WithScope namespaces the persisted guest key so one storage backend can
// serve many browser sessions.
func WithScope(scope string) Option {
	return func(r *Resolver) {
		r.scope = strings.TrimSpace(scope)
	}
}

// NewResolver builds a resolver over the provided auth state and storage.
func NewResolver(auth AuthState, store kv.Store, logg *logger.Logger, opts ...Option) (*Resolver, error) {
	if auth == nil {
		return nil, fmt.Errorf("auth state required")
	}
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	r := &Resolver{auth: auth, store: store, logg: logg}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Identity returns the current session identity, generating and persisting
// a guest id on first access when not authenticated.
func (r *Resolver) Identity(ctx context.Context) types.SessionIdentity {
	if r.auth.IsLoggedIn() {
		if id := strings.TrimSpace(r.auth.CurrentAccountID()); id != "" {
			return types.SessionIdentity{Kind: enums.SessionKindAuthenticated, ID: id}
		}
	}
	return types.SessionIdentity{Kind: enums.SessionKindGuest, ID: r.guestID(ctx)}
}

// SessionID returns the identity's id only.
func (r *Resolver) SessionID(ctx context.Context) string {
	return r.Identity(ctx).ID
}

// IsAuthenticated reports whether the ambient auth state carries an account.
func (r *Resolver) IsAuthenticated() bool {
	return r.auth.IsLoggedIn() && strings.TrimSpace(r.auth.CurrentAccountID()) != ""
}

// ClearGuestSession removes the persisted guest id. Callers must only do
// this after guest cart state has been migrated into an authenticated
// identity; an unmigrated guest cart would otherwise be orphaned.
func (r *Resolver) ClearGuestSession(ctx context.Context) error {
	return r.store.Del(ctx, r.key())
}

func (r *Resolver) guestID(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.Get(ctx, r.key())
	if err == nil && existing != "" {
		return existing
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		// Storage down: degrade to a per-call id. The cart will look empty
		// across reloads, which is acceptable; failing here is not.
		if r.logg != nil {
			r.logg.Warn(ctx, "guest session storage unavailable, issuing ephemeral id")
		}
		return newGuestID()
	}

	id := newGuestID()
	if err := r.store.Set(ctx, r.key(), id); err != nil {
		if r.logg != nil {
			r.logg.Warn(ctx, "failed to persist guest session id")
		}
	}
	return id
}

func (r *Resolver) key() string {
	if r.scope == "" {
		return guestSessionKey
	}
	return "scope:" + r.scope + ":" + guestSessionKey
}

func newGuestID() string {
	return "guest-" + uuid.NewString()
}
