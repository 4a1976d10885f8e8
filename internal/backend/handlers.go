package backend

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/types"
)

// Router exposes the service over the cart and order wire contract.
// Cart and order documents are written bare, not enveloped.
func Router(svc *Service, logg *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/carts/{sessionID}", func(r chi.Router) {
			r.Get("/", cartHandler(logg, func(req *http.Request) (*types.Cart, error) {
				return svc.GetCart(req.Context(), chi.URLParam(req, "sessionID"))
			}))
			r.Delete("/", cartHandler(logg, func(req *http.Request) (*types.Cart, error) {
				return svc.ClearCart(req.Context(), chi.URLParam(req, "sessionID"))
			}))
			r.Post("/items", cartHandler(logg, func(req *http.Request) (*types.Cart, error) {
				var body struct {
					ProductID string `json:"product_id"`
					Quantity  int    `json:"quantity"`
				}
				if err := decodeBody(req, &body); err != nil {
					return nil, err
				}
				return svc.AddItem(req.Context(), chi.URLParam(req, "sessionID"), body.ProductID, body.Quantity)
			}))
			r.Patch("/items/{productID}", cartHandler(logg, func(req *http.Request) (*types.Cart, error) {
				var body struct {
					Quantity int `json:"quantity"`
				}
				if err := decodeBody(req, &body); err != nil {
					return nil, err
				}
				return svc.UpdateItem(req.Context(), chi.URLParam(req, "sessionID"), chi.URLParam(req, "productID"), body.Quantity)
			}))
			r.Delete("/items/{productID}", cartHandler(logg, func(req *http.Request) (*types.Cart, error) {
				return svc.RemoveItem(req.Context(), chi.URLParam(req, "sessionID"), chi.URLParam(req, "productID"))
			}))
			r.Post("/merge", cartHandler(logg, func(req *http.Request) (*types.Cart, error) {
				var body struct {
					Items []types.CartItem `json:"items"`
				}
				if err := decodeBody(req, &body); err != nil {
					return nil, err
				}
				return svc.MergeCart(req.Context(), chi.URLParam(req, "sessionID"), body.Items)
			}))
		})

		r.Post("/orders/{sessionID}", func(w http.ResponseWriter, req *http.Request) {
			var body types.CheckoutRequest
			if err := decodeBody(req, &body); err != nil {
				writeError(w, req, logg, err)
				return
			}
			order, err := svc.SubmitOrder(req.Context(), chi.URLParam(req, "sessionID"), body)
			if err != nil {
				writeError(w, req, logg, err)
				return
			}
			writeDocument(w, http.StatusCreated, order)
		})

		r.Get("/orders/{sessionID}/{orderID}", func(w http.ResponseWriter, req *http.Request) {
			order, err := svc.GetOrder(req.Context(), chi.URLParam(req, "orderID"))
			if err != nil {
				writeError(w, req, logg, err)
				return
			}
			writeDocument(w, http.StatusOK, order)
		})
	})

	return r
}

func cartHandler(logg *logger.Logger, fn func(req *http.Request) (*types.Cart, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		cart, err := fn(req)
		if err != nil {
			writeError(w, req, logg, err)
			return
		}
		writeDocument(w, http.StatusOK, cart)
	}
}

func decodeBody(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	return nil
}

func writeDocument(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

func writeError(w http.ResponseWriter, req *http.Request, logg *logger.Logger, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil && meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(req.Context(), "backend request failed", err)
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: typed.Message(),
		},
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}
	writeDocument(w, meta.HTTPStatus, payload)
}
