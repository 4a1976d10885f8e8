package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shoplane/storefront-core/internal/session"
	"github.com/shoplane/storefront-core/pkg/config"
	"github.com/shoplane/storefront-core/pkg/logger"
)

// Auth extracts the optional bearer token and resolves the account it
// names. A missing token means a guest request; an invalid one is treated
// the same after a warning, because every storefront surface works
// unauthenticated.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			accountID, err := session.AccountIDFromToken(cfg, raw)
			if err != nil {
				if logg != nil {
					logg.Warn(ctx, "rejected bearer token, continuing as guest")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, accountCtxKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountIDFromContext returns the authenticated account id, or "" for
// guest requests.
func AccountIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(accountCtxKey).(string); ok {
		return id
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
