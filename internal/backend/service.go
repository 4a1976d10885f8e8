// Package backend implements the cart and order services the storefront
// talks to: a product catalog, session-scoped carts, and durable orders
// persisted through gorm. The storefront only ever sees the HTTP wire
// contract; this package is one deployable implementation of it.
package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shoplane/storefront-core/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/types"
	"gorm.io/gorm"
)

// Service owns cart and order semantics over the repository.
type Service struct {
	db       *gorm.DB
	repo     Repository
	logg     *logger.Logger
	currency string
}

// NewService builds the backend service.
func NewService(db *gorm.DB, repo Repository, logg *logger.Logger, currency string) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &Service{db: db, repo: repo, logg: logg, currency: currency}, nil
}

// Migrate creates the backend schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Product{}, &CartLine{}, &OrderRecord{}, &OrderLine{})
}

// SeedProducts inserts catalog entries, ignoring ones already present.
func SeedProducts(db *gorm.DB, products []Product) error {
	for i := range products {
		if err := db.FirstOrCreate(&products[i], Product{ID: products[i].ID}).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetCart returns the session's cart with authoritative totals.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*types.Cart, error) {
	return s.buildCart(ctx, s.repo, sessionID)
}

// AddItem adds quantity of a product to the session's cart, creating or
// bumping the line.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*types.Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	line, err := s.repo.FindCartLine(ctx, sessionID, productID)
	switch err {
	case nil:
		line.Quantity += quantity
	case ErrNoRecord:
		line = &CartLine{SessionID: sessionID, ProductID: productID, Quantity: quantity}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	if err := s.repo.SaveCartLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart line")
	}
	return s.buildCart(ctx, s.repo, sessionID)
}

// UpdateItem sets the quantity of an existing line. Zero and negative
// quantities remove the line.
func (s *Service) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*types.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	line, err := s.repo.FindCartLine(ctx, sessionID, productID)
	if err == ErrNoRecord {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	line.Quantity = quantity
	if err := s.repo.SaveCartLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart line")
	}
	return s.buildCart(ctx, s.repo, sessionID)
}

// RemoveItem deletes a line. Removing an absent line is not an error.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (*types.Cart, error) {
	if err := s.repo.DeleteCartLine(ctx, sessionID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	return s.buildCart(ctx, s.repo, sessionID)
}

// ClearCart empties the session's cart.
func (s *Service) ClearCart(ctx context.Context, sessionID string) (*types.Cart, error) {
	if err := s.repo.DeleteCartLines(ctx, sessionID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.buildCart(ctx, s.repo, sessionID)
}

// MergeCart replaces the session's cart with the provided item set. The
// caller sends the already-merged lines; unknown products are rejected.
func (s *Service) MergeCart(ctx context.Context, sessionID string, items []types.CartItem) (*types.Cart, error) {
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, err := s.findProduct(ctx, item.ProductID); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteCartLines(ctx, sessionID); err != nil {
			return err
		}
		for _, item := range items {
			line := CartLine{
				SessionID: sessionID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}
			if err := repo.SaveCartLine(ctx, &line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart")
	}
	return s.buildCart(ctx, s.repo, sessionID)
}

// SubmitOrder turns the session's cart into a durable order and empties
// the cart, atomically.
func (s *Service) SubmitOrder(ctx context.Context, sessionID string, req types.CheckoutRequest) (*types.Order, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	cart, err := s.buildCart(ctx, s.repo, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	shipTo, err := json.Marshal(req.ShippingDetails)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping details")
	}

	record := OrderRecord{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Status:        enums.OrderStatusPending.String(),
		SubtotalCents: decimalToCents(cart.Subtotal),
		ShippingCents: decimalToCents(req.ShippingCost),
		TotalCents:    decimalToCents(cart.Subtotal.Add(req.ShippingCost)),
		Currency:      s.currency,
		PaymentMethod: req.PaymentMethod.String(),
		ShipTo:        string(shipTo),
	}
	for _, item := range cart.Items {
		imageURL := ""
		if item.ImageURL != nil {
			imageURL = *item.ImageURL
		}
		record.Lines = append(record.Lines, OrderLine{
			OrderID:        record.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: decimalToCents(item.UnitPrice),
			Quantity:       item.Quantity,
			ImageURL:       imageURL,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, &record); err != nil {
			return err
		}
		return repo.DeleteCartLines(ctx, sessionID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithSessionID(ctx, sessionID), "order created")
	}
	return s.toOrder(&record), nil
}

// GetOrder returns a previously submitted order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	record, err := s.repo.FindOrder(ctx, orderID)
	if err == ErrNoRecord {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return s.toOrder(record), nil
}

func (s *Service) findProduct(ctx context.Context, productID string) (*Product, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err == ErrNoRecord {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown product %q", productID))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *Service) buildCart(ctx context.Context, repo Repository, sessionID string) (*types.Cart, error) {
	lines, err := repo.FindCartLines(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart lines")
	}

	cart := types.Cart{Currency: s.currency}
	for _, line := range lines {
		product, err := s.findProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, types.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: centsToDecimal(product.PriceCents),
			Quantity:  line.Quantity,
			ImageURL:  optionalString(product.ImageURL),
		})
	}
	cart = cart.Recalculate()
	return &cart, nil
}

func (s *Service) toOrder(record *OrderRecord) *types.Order {
	order := types.Order{
		ID:           record.ID,
		UserID:       record.SessionID,
		OrderDate:    record.CreatedAt,
		Status:       enums.OrderStatus(record.Status),
		Subtotal:     centsToDecimal(record.SubtotalCents),
		ShippingCost: centsToDecimal(record.ShippingCents),
		Total:        centsToDecimal(record.TotalCents),
		Currency:     record.Currency,
	}
	for _, line := range record.Lines {
		order.Items = append(order.Items, line.toCartItem())
	}
	return &order
}
