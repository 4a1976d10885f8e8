// Package cart owns the authoritative in-memory cart for one session scope.
// Mutations apply optimistically, reconcile against the remote cart service,
// and roll back on failure. All mutations for a scope are serialized.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shoplane/storefront-core/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/metrics"
	"github.com/shoplane/storefront-core/pkg/reactive"
	"github.com/shoplane/storefront-core/pkg/types"
)

// Store is the cart state store.
type Store struct {
	remote  RemoteService
	ids     identityResolver
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	// mu serializes the whole optimistic-apply, remote call, reconcile
	// pipeline so no two mutation remote calls for the same cart are in
	// flight at once; a second mutation queues behind the first.
	mu sync.Mutex

	cart    *reactive.Cell[types.Cart]
	loading *reactive.Cell[bool]
	err     *reactive.Cell[string]
	isEmpty *reactive.Cell[bool]

	bound types.SessionIdentity
}

// Surfaced when a guest cart merge fails; the guest cart and id stay
// intact so the migration can retry.
const migrationFailedMessage = "could not move your cart to your account, will retry"

// StoreOption configures optional store behavior.
type StoreOption func(*Store)

// WithMetrics wires mutation counters.
func WithMetrics(m *metrics.StorefrontMetrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore builds a cart store bound to the resolver's current identity.
func NewStore(remote RemoteService, ids identityResolver, logg *logger.Logger, currency string, opts ...StoreOption) (*Store, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote cart service required")
	}
	if ids == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if currency == "" {
		currency = "USD"
	}

	s := &Store{
		remote:  remote,
		ids:     ids,
		logg:    logg,
		cart:    reactive.New(types.Cart{Currency: currency}),
		loading: reactive.New(false),
		err:     reactive.New(""),
	}
	s.isEmpty = reactive.Derive(s.cart, func(c types.Cart) bool { return c.IsEmpty() })
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Cart returns the current snapshot.
func (s *Store) Cart() types.Cart {
	return s.cart.Get()
}

// Loading reports whether a remote call is outstanding.
func (s *Store) Loading() bool {
	return s.loading.Get()
}

// Err returns the current user-facing error message, or "".
func (s *Store) Err() string {
	return s.err.Get()
}

// IsEmpty reports whether the cart has no items.
func (s *Store) IsEmpty() bool {
	return s.isEmpty.Get()
}

// DismissError clears the surfaced error message.
func (s *Store) DismissError() {
	s.err.Set("")
}

// SubscribeCart observes cart snapshots; returns a cancel func.
func (s *Store) SubscribeCart(fn func(types.Cart)) func() {
	return s.cart.Subscribe(fn)
}

// SubscribeLoading observes the loading flag.
func (s *Store) SubscribeLoading(fn func(bool)) func() {
	return s.loading.Subscribe(fn)
}

// SubscribeErr observes the error message.
func (s *Store) SubscribeErr(fn func(string)) func() {
	return s.err.Subscribe(fn)
}

// Refresh replaces local state with the remote cart. Unlike mutations it
// keeps the previous snapshot on failure; there is nothing to roll back.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncIdentityLocked(ctx); err != nil {
		return err
	}

	s.loading.Set(true)
	authoritative, err := s.remote.GetCart(ctx, s.ids.SessionID(ctx))
	s.loading.Set(false)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeRemoteCart, err, "fetch cart")
		s.err.Set(wrapped.Message())
		return wrapped
	}
	s.cart.Set(*authoritative)
	s.err.Set("")
	return nil
}

// AddItem adds quantity of a product. The optimistic view bumps an existing
// line in place or appends a provisional line; the server response supplies
// name and pricing.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	return s.mutate(ctx, "add_item",
		func(c types.Cart) types.Cart {
			if idx := c.FindItem(productID); idx >= 0 {
				c.Items[idx].Quantity += quantity
			} else {
				c.Items = append(c.Items, types.CartItem{ProductID: productID, Quantity: quantity})
			}
			return c
		},
		func(ctx context.Context, sessionID string) (*types.Cart, error) {
			return s.remote.AddItem(ctx, sessionID, productID, quantity)
		},
	)
}

// UpdateQuantity sets the quantity of an existing line; zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	return s.mutate(ctx, "update_quantity",
		func(c types.Cart) types.Cart {
			if idx := c.FindItem(productID); idx >= 0 {
				c.Items[idx].Quantity = quantity
			}
			return c
		},
		func(ctx context.Context, sessionID string) (*types.Cart, error) {
			return s.remote.UpdateItem(ctx, sessionID, productID, quantity)
		},
	)
}

// RemoveItem deletes a line. Removing a product that is not present is a
// no-op: no error, no remote call.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncIdentityLocked(ctx); err != nil {
		return err
	}
	if s.cart.Get().FindItem(productID) < 0 {
		return nil
	}
	return s.mutateLocked(ctx, "remove_item",
		func(c types.Cart) types.Cart {
			if idx := c.FindItem(productID); idx >= 0 {
				c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			}
			return c
		},
		func(ctx context.Context, sessionID string) (*types.Cart, error) {
			return s.remote.RemoveItem(ctx, sessionID, productID)
		},
	)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear",
		func(c types.Cart) types.Cart {
			c.Items = nil
			return c
		},
		func(ctx context.Context, sessionID string) (*types.Cart, error) {
			return s.remote.ClearCart(ctx, sessionID)
		},
	)
}

// mutate runs one serialized mutation: optimistic apply, remote call,
// reconcile on success, rollback on failure. The state machine has no
// partial terminal state: the cart ends either reconciled or rolled back.
func (s *Store) mutate(
	ctx context.Context,
	op string,
	optimistic func(types.Cart) types.Cart,
	remote func(ctx context.Context, sessionID string) (*types.Cart, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(ctx, op, optimistic, remote)
}

func (s *Store) mutateLocked(
	ctx context.Context,
	op string,
	optimistic func(types.Cart) types.Cart,
	remote func(ctx context.Context, sessionID string) (*types.Cart, error),
) error {
	if err := s.syncIdentityLocked(ctx); err != nil {
		return err
	}

	prev := s.cart.Get()
	s.cart.Set(optimistic(prev.Clone()).Recalculate())
	s.loading.Set(true)

	authoritative, err := remote(ctx, s.ids.SessionID(ctx))
	s.loading.Set(false)
	if err != nil {
		s.cart.Set(prev)
		wrapped := pkgerrors.Wrap(pkgerrors.CodeRemoteCart, err, op+" failed")
		s.err.Set(wrapped.Message())
		s.metrics.IncCartMutation(op, metrics.OutcomeRollback)
		if s.logg != nil {
			s.logg.Error(ctx, "cart mutation rolled back", err)
		}
		return wrapped
	}

	// Server totals win over the provisional optimistic ones.
	s.cart.Set(*authoritative)
	s.err.Set("")
	s.metrics.IncCartMutation(op, metrics.OutcomeSuccess)
	return nil
}

// SyncIdentity reconciles the store with the resolver's current identity,
// migrating the guest cart when a guest becomes authenticated.
func (s *Store) SyncIdentity(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncIdentityLocked(ctx)
}

func (s *Store) syncIdentityLocked(ctx context.Context) error {
	current := s.ids.Identity(ctx)

	switch {
	case s.bound.IsZero():
		s.bound = current
		return nil
	case s.bound == current:
		return nil
	case s.bound.Kind == enums.SessionKindGuest && current.Kind == enums.SessionKindAuthenticated:
		return s.migrateLocked(ctx, current)
	default:
		// Logout or account switch: rebind and drop the local view. The
		// previous account's server-side cart is left untouched.
		s.bound = current
		s.cart.Set(types.Cart{Currency: s.cart.Get().Currency})
		return nil
	}
}

func (s *Store) migrateLocked(ctx context.Context, target types.SessionIdentity) error {
	guestItems := s.cart.Get().Items

	authCart, err := s.remote.GetCart(ctx, target.ID)
	if err != nil {
		return s.migrationFailed(ctx, err)
	}

	merged := MergeItems(guestItems, authCart.Items)
	authoritative, err := s.remote.MergeGuestCart(ctx, target.ID, merged)
	if err != nil {
		return s.migrationFailed(ctx, err)
	}

	// Only now is the guest cart safe to discard.
	s.bound = target
	s.cart.Set(*authoritative)
	s.err.Set("")
	if err := s.ids.ClearGuestSession(ctx); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "guest session id could not be cleared after migration")
	}
	s.metrics.IncMigration(metrics.OutcomeSuccess)
	return nil
}

func (s *Store) migrationFailed(ctx context.Context, cause error) error {
	// Guest identity and cart stay intact; the next SyncIdentity retries.
	wrapped := pkgerrors.Wrap(pkgerrors.CodeMigration, cause, migrationFailedMessage)
	s.err.Set(wrapped.Message())
	s.metrics.IncMigration(metrics.OutcomeFailure)
	if s.logg != nil {
		s.logg.Error(ctx, "guest cart migration failed", cause)
	}
	return wrapped
}

// Watch polls for identity transitions until ctx is done. Embedded callers
// use it in place of a provider event stream.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.SyncIdentity(ctx)
		}
	}
}

// MergeItems folds guest lines into authenticated lines: quantities sum for
// shared product ids, remaining guest lines append in order.
func MergeItems(guest, authenticated []types.CartItem) []types.CartItem {
	merged := make([]types.CartItem, len(authenticated))
	copy(merged, authenticated)

	for _, item := range guest {
		found := false
		for i := range merged {
			if merged[i].ProductID == item.ProductID {
				merged[i].Quantity += item.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, item)
		}
	}
	return merged
}
