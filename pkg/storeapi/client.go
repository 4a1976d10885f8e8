// Package storeapi implements the remote cart and order service contracts
// over HTTP. Responses are authoritative cart and order documents.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/types"
)

const errorBodyReadLimit int64 = 1024

// Client talks to the remote cart and order services.
type Client struct {
	httpClient *http.Client
	cartBase   string
	orderBase  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOrderBaseURL points order submission at a separate deployment.
func WithOrderBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.orderBase = trimmed
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client rooted at the cart service base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("cart service base url is required")
	}

	client := &Client{
		cartBase:   trimmed,
		orderBase:  trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GetCart fetches the cart scoped to the session.
func (c *Client) GetCart(ctx context.Context, sessionID string) (*types.Cart, error) {
	return c.cartCall(ctx, http.MethodGet, c.cartPath(sessionID, ""), nil, "fetch cart")
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem adds quantity of a product and returns the authoritative cart.
func (c *Client) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*types.Cart, error) {
	body := addItemRequest{ProductID: productID, Quantity: quantity}
	return c.cartCall(ctx, http.MethodPost, c.cartPath(sessionID, "items"), body, "add cart item")
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets the quantity of an existing line.
func (c *Client) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*types.Cart, error) {
	body := updateItemRequest{Quantity: quantity}
	return c.cartCall(ctx, http.MethodPatch, c.cartPath(sessionID, "items/"+url.PathEscape(productID)), body, "update cart item")
}

// RemoveItem removes a line entirely.
func (c *Client) RemoveItem(ctx context.Context, sessionID, productID string) (*types.Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, c.cartPath(sessionID, "items/"+url.PathEscape(productID)), nil, "remove cart item")
}

// ClearCart empties the session's cart.
func (c *Client) ClearCart(ctx context.Context, sessionID string) (*types.Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, c.cartPath(sessionID, ""), nil, "clear cart")
}

type mergeRequest struct {
	Items []types.CartItem `json:"items"`
}

// MergeGuestCart persists the merged item set onto the authenticated cart.
func (c *Client) MergeGuestCart(ctx context.Context, sessionID string, items []types.CartItem) (*types.Cart, error) {
	body := mergeRequest{Items: items}
	return c.cartCall(ctx, http.MethodPost, c.cartPath(sessionID, "merge"), body, "merge guest cart")
}

// SubmitOrder submits a checkout request and returns the durable order.
func (c *Client) SubmitOrder(ctx context.Context, sessionID string, req types.CheckoutRequest) (*types.Order, error) {
	target := fmt.Sprintf("%s/api/v1/orders/%s", strings.TrimRight(c.orderBase, "/"), url.PathEscape(sessionID))
	resp, err := c.do(ctx, http.MethodPost, target, req, pkgerrors.CodeRemoteOrder, "submit order")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var order types.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteOrder, err, "decode order response")
	}
	return &order, nil
}

func (c *Client) cartCall(ctx context.Context, method, target string, body any, action string) (*types.Cart, error) {
	resp, err := c.do(ctx, method, target, body, pkgerrors.CodeRemoteCart, action)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var cart types.Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteCart, err, "decode cart response")
	}
	return &cart, nil
}

func (c *Client) do(ctx context.Context, method, target string, body any, code pkgerrors.Code, action string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(code, err, "marshal "+action+" request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(code, err, "build "+action+" request")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(code, err, action+" request failed")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		_ = resp.Body.Close()
		return nil, pkgerrors.Wrap(code, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), action+" rejected")
	}
	return resp, nil
}

func (c *Client) cartPath(sessionID, suffix string) string {
	base := fmt.Sprintf("%s/api/v1/carts/%s", strings.TrimRight(c.cartBase, "/"), url.PathEscape(sessionID))
	if suffix == "" {
		return base
	}
	return base + "/" + suffix
}
