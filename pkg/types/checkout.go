package types

import (
	"time"

	"github.com/shoplane/storefront-core/pkg/enums"
	"github.com/shopspring/decimal"
)

// ShippingDetails is the form-bound shipping section of a checkout attempt.
type ShippingDetails struct {
	FirstName  string `json:"first_name" validate:"required,min=2"`
	LastName   string `json:"last_name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phonefmt"`
	Street     string `json:"street" validate:"required,min=5"`
	City       string `json:"city" validate:"required,min=2"`
	PostalCode string `json:"postal_code" validate:"required,postalcode"`
}

// ShippingOption is one entry of the fixed shipping method set.
type ShippingOption struct {
	Value string          `json:"value"`
	Label string          `json:"label"`
	Cost  decimal.Decimal `json:"cost"`
}

// PaymentSelection is the form-bound payment section.
type PaymentSelection struct {
	Method enums.PaymentMethod `json:"method"`
}

// CheckoutRequest is the outbound order payload. It is constructed fresh
// per submission attempt and never reused across attempts.
type CheckoutRequest struct {
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	ShippingDetails ShippingDetails     `json:"shipping_details"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
}

// Order is the durable result of a successful checkout. Immutable from this
// system's perspective; Status comes from the order service.
type Order struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	OrderDate    time.Time         `json:"order_date"`
	Status       enums.OrderStatus `json:"status"`
	Items        []CartItem        `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	ShippingCost decimal.Decimal   `json:"shipping_cost"`
	Total        decimal.Decimal   `json:"total"`
	Currency     string            `json:"currency"`
}
