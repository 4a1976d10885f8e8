package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shoplane/storefront-core/pkg/logger"
)

const (
	scopeHeader  = "X-Storefront-Scope"
	scopeCookie  = "sf_scope"
	defaultScope = "default"
)

type ctxKey string

const (
	scopeCtxKey   ctxKey = "storefront_scope"
	accountCtxKey ctxKey = "account_id"
)

// Scope resolves the storefront scope for the request: header first, then
// cookie, then the shared default. The scope isolates guest sessions the
// way separate browser profiles would.
func Scope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := strings.TrimSpace(r.Header.Get(scopeHeader))
			if scope == "" {
				if cookie, err := r.Cookie(scopeCookie); err == nil {
					scope = strings.TrimSpace(cookie.Value)
				}
			}
			if scope == "" {
				scope = defaultScope
			}

			ctx := context.WithValue(r.Context(), scopeCtxKey, scope)
			if logg != nil {
				ctx = logg.WithScope(ctx, scope)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopeFromContext returns the resolved storefront scope.
func ScopeFromContext(ctx context.Context) string {
	if scope, ok := ctx.Value(scopeCtxKey).(string); ok && scope != "" {
		return scope
	}
	return defaultScope
}
