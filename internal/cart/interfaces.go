package cart

import (
	"context"

	"github.com/shoplane/storefront-core/pkg/types"
)

// RemoteService is the remote cart service boundary. Every call returns the
// authoritative cart for the session; local state is provisional until then.
type RemoteService interface {
	GetCart(ctx context.Context, sessionID string) (*types.Cart, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int) (*types.Cart, error)
	UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*types.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*types.Cart, error)
	ClearCart(ctx context.Context, sessionID string) (*types.Cart, error)
	MergeGuestCart(ctx context.Context, sessionID string, items []types.CartItem) (*types.Cart, error)
}

type identityResolver interface {
	Identity(ctx context.Context) types.SessionIdentity
	SessionID(ctx context.Context) string
	ClearGuestSession(ctx context.Context) error
}
