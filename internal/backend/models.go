package backend

import (
	"time"

	"github.com/shoplane/storefront-core/pkg/types"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Prices are stored in cents.
type Product struct {
	ID         string `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	PriceCents int64  `gorm:"not null"`
	ImageURL   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartLine is one product line of a session's cart. A session holds at
// most one line per product.
type CartLine struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"not null;uniqueIndex:idx_cart_session_product"`
	ProductID string `gorm:"not null;uniqueIndex:idx_cart_session_product"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderRecord is a submitted order. Monetary fields are cents.
type OrderRecord struct {
	ID            string `gorm:"primaryKey"`
	SessionID     string `gorm:"not null;index"`
	Status        string `gorm:"not null"`
	SubtotalCents int64  `gorm:"not null"`
	ShippingCents int64  `gorm:"not null"`
	TotalCents    int64  `gorm:"not null"`
	Currency      string `gorm:"not null"`
	PaymentMethod string `gorm:"not null"`
	ShipTo        string `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lines []OrderLine `gorm:"foreignKey:OrderID"`
}

// OrderLine is one product line of a submitted order.
type OrderLine struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	OrderID        string `gorm:"not null;index"`
	ProductID      string `gorm:"not null"`
	Name           string `gorm:"not null"`
	UnitPriceCents int64  `gorm:"not null"`
	Quantity       int    `gorm:"not null"`
	ImageURL       string
	CreatedAt      time.Time
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func decimalToCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (l OrderLine) toCartItem() types.CartItem {
	return types.CartItem{
		ProductID: l.ProductID,
		Name:      l.Name,
		UnitPrice: centsToDecimal(l.UnitPriceCents),
		Quantity:  l.Quantity,
		ImageURL:  optionalString(l.ImageURL),
	}
}
