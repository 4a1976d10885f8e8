package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shoplane/storefront-core/api"
	"github.com/shoplane/storefront-core/internal/backend"
	"github.com/shoplane/storefront-core/internal/session"
	"github.com/shoplane/storefront-core/pkg/config"
	"github.com/shoplane/storefront-core/pkg/kv"
	"github.com/shoplane/storefront-core/pkg/storeapi"
	"github.com/shoplane/storefront-core/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testStack struct {
	front   *httptest.Server
	jwtCfg  config.JWTConfig
	kvStore kv.Store
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "router.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := backend.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := backend.SeedProducts(db, []backend.Product{
		{ID: "p1", Name: "Widget", PriceCents: 2500},
		{ID: "p2", Name: "Gizmo", PriceCents: 1000},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc, err := backend.NewService(db, backend.NewRepository(db), nil, "USD")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	remoteServer := httptest.NewServer(backend.Router(svc, nil))
	t.Cleanup(remoteServer.Close)

	remote, err := storeapi.NewClient(remoteServer.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	kvStore := kv.NewMemory()
	registry, err := api.NewRegistry(remote, kvStore, nil, nil, "USD")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Env = "development"
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "storefront-test"

	front := httptest.NewServer(NewRouter(cfg, nil, registry, kvStore, nil, nil))
	t.Cleanup(front.Close)

	return &testStack{front: front, jwtCfg: cfg.JWT, kvStore: kvStore}
}

type cartEnvelope struct {
	Data struct {
		Cart  types.Cart `json:"cart"`
		Error string     `json:"error"`
	} `json:"data"`
}

func (s *testStack) do(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.front.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeCart(t *testing.T, resp *http.Response) cartEnvelope {
	t.Helper()
	defer resp.Body.Close()

	var envelope cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode cart envelope: %v", err)
	}
	return envelope
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := stack.do(t, http.MethodGet, path, nil, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestCartLifecycleThroughFacade(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	scope := map[string]string{"X-Storefront-Scope": "lifecycle"}

	resp := stack.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "p1",
		"quantity":   2,
	}, scope)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
	}
	envelope := decodeCart(t, resp)
	if len(envelope.Data.Cart.Items) != 1 || envelope.Data.Cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart after add: %+v", envelope.Data.Cart)
	}
	if envelope.Data.Cart.Subtotal.String() != "50" {
		t.Fatalf("expected subtotal 50, got %s", envelope.Data.Cart.Subtotal)
	}

	resp = stack.do(t, http.MethodPatch, "/api/v1/cart/items/p1", map[string]any{"quantity": 3}, scope)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update item: expected 200, got %d", resp.StatusCode)
	}
	envelope = decodeCart(t, resp)
	if envelope.Data.Cart.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", envelope.Data.Cart.Items[0].Quantity)
	}

	resp = stack.do(t, http.MethodDelete, "/api/v1/cart/items/p1", nil, scope)
	envelope = decodeCart(t, resp)
	if !envelope.Data.Cart.IsEmpty() {
		t.Fatalf("expected empty cart after remove, got %+v", envelope.Data.Cart)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)

	resp := stack.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "p1",
		"quantity":   1,
	}, map[string]string{"X-Storefront-Scope": "tab-a"})
	resp.Body.Close()

	resp = stack.do(t, http.MethodGet, "/api/v1/cart", nil, map[string]string{"X-Storefront-Scope": "tab-b"})
	envelope := decodeCart(t, resp)
	if !envelope.Data.Cart.IsEmpty() {
		t.Fatalf("expected tab-b cart to be empty, got %+v", envelope.Data.Cart)
	}
}

func TestGuestCartMigratesOnLogin(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	scope := map[string]string{"X-Storefront-Scope": "migration"}

	resp := stack.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "p1",
		"quantity":   2,
	}, scope)
	resp.Body.Close()

	token, err := session.MintToken(stack.jwtCfg, "acct-42")
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	authed := map[string]string{
		"X-Storefront-Scope": "migration",
		"Authorization":      "Bearer " + token,
	}

	resp = stack.do(t, http.MethodGet, "/api/v1/cart", nil, authed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authed cart fetch: expected 200, got %d", resp.StatusCode)
	}
	envelope := decodeCart(t, resp)
	if len(envelope.Data.Cart.Items) != 1 || envelope.Data.Cart.Items[0].Quantity != 2 {
		t.Fatalf("expected guest items to survive login, got %+v", envelope.Data.Cart)
	}

	// The authenticated cart lives under the account id, not the old guest
	// session, so a fresh guest in the same scope starts empty.
	resp = stack.do(t, http.MethodGet, "/api/v1/cart", nil, scope)
	envelope = decodeCart(t, resp)
	if !envelope.Data.Cart.IsEmpty() {
		t.Fatalf("expected fresh guest cart after logout, got %+v", envelope.Data.Cart)
	}
}

func TestCheckoutThroughFacade(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	scope := map[string]string{"X-Storefront-Scope": "checkout"}

	resp := stack.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "p1",
		"quantity":   2,
	}, scope)
	resp.Body.Close()

	payload := map[string]any{
		"shipping_details": map[string]any{
			"first_name":  "Ada",
			"last_name":   "Lovelace",
			"email":       "ada@example.com",
			"phone":       "+1 415 555 0100",
			"street":      "12 Analytical Way",
			"city":        "London",
			"postal_code": "EC1A 1BB",
		},
		"shipping_option": "standard",
		"payment_method":  "credit_card",
	}

	resp = stack.do(t, http.MethodPost, "/api/v1/checkout", payload, scope)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			Redirect string `json:"redirect"`
			Total    string `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	if !strings.HasPrefix(envelope.Data.Redirect, "/orders/") {
		t.Fatalf("expected order redirect, got %q", envelope.Data.Redirect)
	}
	if envelope.Data.Total != "55.99" {
		t.Fatalf("expected total 55.99, got %s", envelope.Data.Total)
	}

	// Order submission empties the server cart.
	resp = stack.do(t, http.MethodGet, "/api/v1/cart", nil, scope)
	cart := decodeCart(t, resp)
	if !cart.Data.Cart.IsEmpty() {
		t.Fatalf("expected cart cleared after checkout, got %+v", cart.Data.Cart)
	}
}

func TestCheckoutValidationReportsSections(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	scope := map[string]string{"X-Storefront-Scope": "invalid-checkout"}

	resp := stack.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "p2",
		"quantity":   1,
	}, scope)
	resp.Body.Close()

	resp = stack.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{
		"shipping_details": map[string]any{"first_name": "Ada"},
	}, scope)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %q", envelope.Error.Code)
	}
	for _, section := range []string{"shipping", "shipping_option", "payment"} {
		if _, ok := envelope.Error.Details[section]; !ok {
			t.Errorf("expected %q section in details, got %v", section, envelope.Error.Details)
		}
	}
}

func TestCheckoutEmptyCartRedirectsBack(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)
	scope := map[string]string{"X-Storefront-Scope": "empty-checkout"}

	payload := map[string]any{
		"shipping_details": map[string]any{
			"first_name":  "Ada",
			"last_name":   "Lovelace",
			"email":       "ada@example.com",
			"phone":       "+1 415 555 0100",
			"street":      "12 Analytical Way",
			"city":        "London",
			"postal_code": "EC1A 1BB",
		},
		"shipping_option": "standard",
		"payment_method":  "credit_card",
	}

	resp := stack.do(t, http.MethodPost, "/api/v1/checkout", payload, scope)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			Redirect string `json:"redirect"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	if envelope.Data.Redirect != "/cart" {
		t.Fatalf("expected redirect to /cart, got %q", envelope.Data.Redirect)
	}
}

func TestUnknownProductIsBadGateway(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)

	resp := stack.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": "ghost",
		"quantity":   1,
	}, map[string]string{"X-Storefront-Scope": "bad-product"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for remote rejection, got %d", resp.StatusCode)
	}
}

func TestInvalidBearerTokenFallsBackToGuest(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)

	resp := stack.do(t, http.MethodGet, "/api/v1/cart", nil, map[string]string{
		"X-Storefront-Scope": "bad-token",
		"Authorization":      "Bearer not-a-jwt",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected guest fallback 200, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	t.Parallel()

	stack := newTestStack(t)

	resp := stack.do(t, http.MethodGet, "/health/live", nil, map[string]string{
		"X-Request-Id": "req-123",
	})
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
