package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shoplane/storefront-core/api"
	"github.com/shoplane/storefront-core/api/responses"
	"github.com/shoplane/storefront-core/internal/checkout"
	"github.com/shoplane/storefront-core/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/metrics"
	"github.com/shoplane/storefront-core/pkg/types"
)

// CheckoutShippingOptions lists the fixed shipping method set.
func CheckoutShippingOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, checkout.ShippingOptions)
	}
}

type checkoutPayload struct {
	ShippingDetails types.ShippingDetails `json:"shipping_details"`
	ShippingOption  string                `json:"shipping_option"`
	PaymentMethod   string                `json:"payment_method"`
}

type checkoutResult struct {
	Redirect string `json:"redirect"`
	Total    string `json:"total"`
}

// redirectRecorder captures the orchestrator's navigation outcome so it
// can be returned to the caller as a redirect hint.
type redirectRecorder struct {
	path string
}

func (r *redirectRecorder) NavigateTo(path string) {
	r.path = path
}

// CheckoutSubmit validates the full checkout form and submits the order.
// Field errors are reported per section; the cart is left intact on any
// failure so the shopper can retry.
func CheckoutSubmit(reg *api.Registry, logg *logger.Logger, m *metrics.StorefrontMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Section validation reports every failing field at once, so the
		// body is decoded without the tag-driven validator pass.
		var payload checkoutPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nav := &redirectRecorder{}
		orch, err := checkout.New(front.Cart, reg.Remote(), front.Resolver, nav, logg, checkout.WithMetrics(m))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer orch.Close()

		orch.SetShippingDetails(payload.ShippingDetails)
		orch.SetShippingOption(payload.ShippingOption)
		orch.SetPaymentMethod(enums.PaymentMethod(payload.PaymentMethod))

		sections := orch.Validate()
		if !sections.Valid() {
			responses.WriteError(r.Context(), logg, w, sectionValidationError(sections))
			return
		}

		if err := orch.ProcessCheckout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutResult{
			Redirect: nav.path,
			Total:    orch.TotalWithShipping().String(),
		})
	}
}

func sectionValidationError(sections checkout.SectionErrors) error {
	details := map[string]any{}
	record := func(section string, err error) {
		if err == nil {
			return
		}
		typed := pkgerrors.As(err)
		if typed == nil {
			details[section] = err.Error()
			return
		}
		if d := typed.Details(); d != nil {
			details[section] = d
			return
		}
		details[section] = typed.Message()
	}
	record("shipping", sections.Shipping)
	record("shipping_option", sections.ShippingOption)
	record("payment", sections.Payment)

	return pkgerrors.New(pkgerrors.CodeValidation, "checkout form is invalid").WithDetails(details)
}
