package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shoplane/storefront-core/api"
	"github.com/shoplane/storefront-core/api/middleware"
	"github.com/shoplane/storefront-core/api/responses"
	"github.com/shoplane/storefront-core/api/validators"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/types"
)

type cartView struct {
	Cart    types.Cart `json:"cart"`
	Loading bool       `json:"loading"`
	Error   string     `json:"error,omitempty"`
}

// storefrontFor resolves the scope's storefront and aligns it with the
// request's authentication state. A guest-to-auth transition triggers the
// cart migration before the operation runs.
func storefrontFor(reg *api.Registry, r *http.Request) (*api.Storefront, error) {
	front, err := reg.Storefront(middleware.ScopeFromContext(r.Context()))
	if err != nil {
		return nil, err
	}
	if accountID := middleware.AccountIDFromContext(r.Context()); accountID != "" {
		front.Auth.SetAuthenticated(accountID)
	} else {
		front.Auth.SetGuest()
	}
	if err := front.Cart.SyncIdentity(r.Context()); err != nil {
		return nil, err
	}
	return front, nil
}

func writeCart(w http.ResponseWriter, front *api.Storefront) {
	responses.WriteSuccess(w, cartView{
		Cart:    front.Cart.Cart(),
		Loading: front.Cart.Loading(),
		Error:   front.Cart.Err(),
	})
}

// CartGet returns the current cart, refreshed from the remote service.
func CartGet(reg *api.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := front.Cart.Refresh(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, front)
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// CartAddItem adds quantity of a product to the cart.
func CartAddItem(reg *api.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := front.Cart.AddItem(r.Context(), payload.ProductID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, front)
	}
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(reg *api.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := front.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, front)
	}
}

// CartRemoveItem removes a line. Removing an absent product succeeds.
func CartRemoveItem(reg *api.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := front.Cart.RemoveItem(r.Context(), chi.URLParam(r, "productID")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, front)
	}
}

// CartClear empties the cart.
func CartClear(reg *api.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := front.Cart.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, front)
	}
}

// CartDismissError clears the dismissible cart error without touching items.
func CartDismissError(reg *api.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		front, err := storefrontFor(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		front.Cart.DismissError()
		writeCart(w, front)
	}
}
