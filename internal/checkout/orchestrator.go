// Package checkout drives the multi-section checkout form over a cart
// snapshot: eligibility gating, section validation, single-flight
// submission, and outcome navigation.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shoplane/storefront-core/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/metrics"
	"github.com/shoplane/storefront-core/pkg/reactive"
	"github.com/shoplane/storefront-core/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// CartPath is where ineligible checkouts are sent.
const CartPath = "/cart"

type cartSource interface {
	Cart() types.Cart
	IsEmpty() bool
	SubscribeCart(fn func(types.Cart)) func()
}

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, sessionID string, req types.CheckoutRequest) (*types.Order, error)
}

type sessionSource interface {
	SessionID(ctx context.Context) string
}

// Navigator receives the orchestrator's navigation side effects.
type Navigator interface {
	NavigateTo(path string)
}

// SectionErrors holds the outcome of validating all three form sections.
// Sections are validated independently, never short-circuited, so each can
// surface its own errors at the same time.
type SectionErrors struct {
	Shipping       error
	ShippingOption error
	Payment        error
}

// Valid reports whether every section passed.
func (e SectionErrors) Valid() bool {
	return e.Shipping == nil && e.ShippingOption == nil && e.Payment == nil
}

// Combined folds the section errors into one.
func (e SectionErrors) Combined() error {
	return multierr.Combine(e.Shipping, e.ShippingOption, e.Payment)
}

// Orchestrator owns one checkout flow instance.
type Orchestrator struct {
	cart    cartSource
	orders  orderSubmitter
	session sessionSource
	nav     Navigator
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	mu       sync.Mutex
	details  types.ShippingDetails
	shipping string
	payment  enums.PaymentMethod
	touched  map[string]bool

	processing   atomic.Bool
	processCell  *reactive.Cell[bool]
	errCell      *reactive.Cell[string]
	shippingCost *reactive.Cell[decimal.Decimal]
	total        *reactive.Cell[decimal.Decimal]

	unsubscribe func()
}

// Option configures optional orchestrator behavior.
type Option func(*Orchestrator)

// WithMetrics wires checkout counters.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New builds an orchestrator over the cart source and order service.
func New(cart cartSource, orders orderSubmitter, session sessionSource, nav Navigator, logg *logger.Logger, opts ...Option) (*Orchestrator, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if session == nil {
		return nil, fmt.Errorf("session source required")
	}
	if nav == nil {
		return nil, fmt.Errorf("navigator required")
	}

	o := &Orchestrator{
		cart:         cart,
		orders:       orders,
		session:      session,
		nav:          nav,
		logg:         logg,
		touched:      map[string]bool{},
		processCell:  reactive.New(false),
		errCell:      reactive.New(""),
		shippingCost: reactive.New(decimal.Zero),
		total:        reactive.New(cart.Cart().Total),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.unsubscribe = cart.SubscribeCart(func(types.Cart) { o.recomputeTotals() })
	return o, nil
}

// SetShippingDetails replaces the shipping section draft.
func (o *Orchestrator) SetShippingDetails(details types.ShippingDetails) {
	o.mu.Lock()
	o.details = details
	o.mu.Unlock()
}

// SetShippingOption selects a shipping method and recomputes totals.
// An unknown value is kept in the draft so validation surfaces it.
func (o *Orchestrator) SetShippingOption(value string) {
	o.mu.Lock()
	o.shipping = value
	o.mu.Unlock()
	o.recomputeTotals()
}

// SetPaymentMethod selects the payment method.
func (o *Orchestrator) SetPaymentMethod(method enums.PaymentMethod) {
	o.mu.Lock()
	o.payment = method
	o.mu.Unlock()
}

// Touch marks a single field as touched.
func (o *Orchestrator) Touch(field string) {
	o.mu.Lock()
	o.touched[field] = true
	o.mu.Unlock()
}

// Touched reports whether a field has been touched.
func (o *Orchestrator) Touched(field string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.touched[field]
}

// Validate runs all three sections without short-circuiting.
func (o *Orchestrator) Validate() SectionErrors {
	o.mu.Lock()
	details, shipping, payment := o.details, o.shipping, o.payment
	o.mu.Unlock()

	return SectionErrors{
		Shipping:       ValidateShippingDetails(details),
		ShippingOption: ValidateShippingOption(shipping),
		Payment:        ValidatePaymentMethod(payment),
	}
}

// IsValid reports whether every section currently validates.
func (o *Orchestrator) IsValid() bool {
	return o.Validate().Valid()
}

// IsProcessing reports whether a submission is outstanding.
func (o *Orchestrator) IsProcessing() bool {
	return o.processing.Load()
}

// Err returns the current user-facing error message, or "".
func (o *Orchestrator) Err() string {
	return o.errCell.Get()
}

// SelectedShippingCost returns the cost of the chosen shipping option.
func (o *Orchestrator) SelectedShippingCost() decimal.Decimal {
	return o.shippingCost.Get()
}

// TotalWithShipping returns cart total plus the selected shipping cost.
func (o *Orchestrator) TotalWithShipping() decimal.Decimal {
	return o.total.Get()
}

// SubscribeTotal observes totalWithShipping recomputations.
func (o *Orchestrator) SubscribeTotal(fn func(decimal.Decimal)) func() {
	return o.total.Subscribe(fn)
}

// SubscribeProcessing observes the processing flag.
func (o *Orchestrator) SubscribeProcessing(fn func(bool)) func() {
	return o.processCell.Subscribe(fn)
}

// ProcessCheckout validates and submits the checkout exactly once.
// A second invocation while one is outstanding is a no-op.
func (o *Orchestrator) ProcessCheckout(ctx context.Context) error {
	if !o.processing.CompareAndSwap(false, true) {
		return nil
	}
	o.processCell.Set(true)
	defer func() {
		o.processing.Store(false)
		o.processCell.Set(false)
	}()

	// Eligibility gate, re-checked per attempt: the cart can empty
	// mid-flow through another tab.
	if o.cart.IsEmpty() {
		o.nav.NavigateTo(CartPath)
		return nil
	}

	sections := o.Validate()
	if !sections.Valid() {
		o.markAllTouched()
		return sections.Combined()
	}

	req := o.buildRequest()
	order, err := o.orders.SubmitOrder(ctx, o.session.SessionID(ctx), req)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeRemoteOrder, err, "checkout failed, please try again")
		o.errCell.Set(wrapped.Message())
		o.metrics.IncCheckout(metrics.OutcomeFailure)
		if o.logg != nil {
			o.logg.Error(ctx, "order submission failed", err)
		}
		return wrapped
	}

	o.errCell.Set("")
	o.metrics.IncCheckout(metrics.OutcomeSuccess)
	o.nav.NavigateTo("/orders/" + order.ID)
	return nil
}

// GoBack returns the shopper to the cart view.
func (o *Orchestrator) GoBack() {
	o.nav.NavigateTo(CartPath)
}

// Reset clears the draft and error state so a later checkout attempt
// starts clean. Called on flow teardown regardless of in-flight status.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.details = types.ShippingDetails{}
	o.shipping = ""
	o.payment = ""
	o.touched = map[string]bool{}
	o.mu.Unlock()

	o.errCell.Set("")
	o.recomputeTotals()
}

// Close tears the flow down: stops observing the cart and resets state.
func (o *Orchestrator) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
	o.Reset()
}

// buildRequest constructs a fresh CheckoutRequest; requests are never
// reused across attempts.
func (o *Orchestrator) buildRequest() types.CheckoutRequest {
	o.mu.Lock()
	defer o.mu.Unlock()

	cost := decimal.Zero
	if opt, ok := ShippingOptionByValue(o.shipping); ok {
		cost = opt.Cost
	}
	return types.CheckoutRequest{
		ShippingCost:    cost,
		ShippingDetails: o.details,
		PaymentMethod:   o.payment,
	}
}

func (o *Orchestrator) markAllTouched() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, field := range []string{
		"first_name", "last_name", "email", "phone", "street", "city",
		"postal_code", "shipping_option", "payment_method",
	} {
		o.touched[field] = true
	}
}

func (o *Orchestrator) recomputeTotals() {
	o.mu.Lock()
	value := o.shipping
	o.mu.Unlock()

	cost := decimal.Zero
	if opt, ok := ShippingOptionByValue(value); ok {
		cost = opt.Cost
	}
	o.shippingCost.Set(cost)
	o.total.Set(o.cart.Cart().Total.Add(cost))
}
