package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shoplane/storefront-core/pkg/config"
	"github.com/shoplane/storefront-core/pkg/enums"
	"github.com/shoplane/storefront-core/pkg/kv"
)

func TestGuestIDIsGeneratedAndPersisted(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	resolver := newTestResolver(t, StaticAuthState{}, store)
	ctx := context.Background()

	first := resolver.SessionID(ctx)
	if !strings.HasPrefix(first, "guest-") {
		t.Fatalf("expected guest- prefix, got %q", first)
	}
	if second := resolver.SessionID(ctx); second != first {
		t.Fatalf("guest id not stable: %q then %q", first, second)
	}

	persisted, err := store.Get(ctx, "guestSessionId")
	if err != nil {
		t.Fatalf("guest id not persisted: %v", err)
	}
	if persisted != first {
		t.Fatalf("persisted %q, resolved %q", persisted, first)
	}
}

func TestAuthenticatedIdentityWins(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, StaticAuthState{LoggedIn: true, AccountID: "user-7"}, kv.NewMemory())
	identity := resolver.Identity(context.Background())

	if identity.Kind != enums.SessionKindAuthenticated {
		t.Fatalf("expected authenticated kind, got %s", identity.Kind)
	}
	if identity.ID != "user-7" {
		t.Fatalf("expected user-7, got %q", identity.ID)
	}
	if !resolver.IsAuthenticated() {
		t.Fatal("expected IsAuthenticated true")
	}
}

func TestClearGuestSession(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	resolver := newTestResolver(t, StaticAuthState{}, store)
	ctx := context.Background()

	first := resolver.SessionID(ctx)
	if err := resolver.ClearGuestSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if second := resolver.SessionID(ctx); second == first {
		t.Fatal("expected a fresh guest id after clear")
	}
}

func TestUnavailableStorageDegradesToEphemeralIDs(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, StaticAuthState{}, brokenStore{})
	ctx := context.Background()

	first := resolver.SessionID(ctx)
	second := resolver.SessionID(ctx)
	if !strings.HasPrefix(first, "guest-") || !strings.HasPrefix(second, "guest-") {
		t.Fatalf("expected guest ids, got %q and %q", first, second)
	}
	if first == second {
		t.Fatal("broken storage should yield a fresh id per call")
	}
}

func TestScopedResolversUseSeparateKeys(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	ctx := context.Background()

	a, err := NewResolver(StaticAuthState{}, store, nil, WithScope("browser-a"))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	b, err := NewResolver(StaticAuthState{}, store, nil, WithScope("browser-b"))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	if a.SessionID(ctx) == b.SessionID(ctx) {
		t.Fatal("scoped resolvers must not share guest ids")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "storefront"}
	token, err := MintToken(cfg, "user-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	accountID, err := AccountIDFromToken(cfg, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if accountID != "user-42" {
		t.Fatalf("expected user-42, got %q", accountID)
	}

	if _, err := AccountIDFromToken(cfg, "not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	if _, err := AccountIDFromToken(config.JWTConfig{}, token); err == nil {
		t.Fatal("expected error when verification is unconfigured")
	}
}

func newTestResolver(t *testing.T, auth AuthState, store kv.Store) *Resolver {
	t.Helper()
	resolver, err := NewResolver(auth, store, nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return resolver
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("storage offline")
}
func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("storage offline")
}
func (brokenStore) Del(context.Context, string) error {
	return errors.New("storage offline")
}
