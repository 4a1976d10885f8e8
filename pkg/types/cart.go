package types

import (
	"github.com/shoplane/storefront-core/pkg/enums"
	"github.com/shopspring/decimal"
)

// SessionIdentity is the guest-or-authenticated key that scopes a cart.
// Exactly one kind is active at a time.
type SessionIdentity struct {
	Kind enums.SessionKind `json:"kind"`
	ID   string            `json:"id"`
}

// IsZero reports whether the identity has not been resolved yet.
func (s SessionIdentity) IsZero() bool {
	return s.Kind == "" && s.ID == ""
}

// CartItem is a single cart line. Items are destroyed when quantity
// reaches zero; the cart never holds two lines for the same product.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// LineTotal returns unit price multiplied by quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the authoritative cart snapshot. It is owned exclusively by the
// cart state store; all other components hold read-only copies.
type Cart struct {
	Items        []CartItem      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the index of the line holding productID, or -1.
func (c Cart) FindItem(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so optimistic mutations never alias the
// snapshot handed to subscribers.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

// Recalculate rebuilds Subtotal and Total from the current lines. Used for
// provisional optimistic views; server responses overwrite the result.
func (c Cart) Recalculate() Cart {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	c.Subtotal = subtotal
	c.Total = subtotal.Add(c.ShippingCost)
	return c
}
