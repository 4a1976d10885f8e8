package session

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shoplane/storefront-core/pkg/config"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
)

// AccountIDFromToken verifies an HS256 token minted by the external auth
// provider and returns the account id from its subject claim.
func AccountIDFromToken(cfg config.JWTConfig, rawToken string) (string, error) {
	trimmed := strings.TrimSpace(rawToken)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing token")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "token verification is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if strings.TrimSpace(cfg.Issuer) != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(trimmed, &claims, func(token *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no subject")
	}
	return subject, nil
}

// MintToken issues a token for local development and tests.
func MintToken(cfg config.JWTConfig, accountID string) (string, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", fmt.Errorf("account id is required")
	}
	claims := jwt.RegisteredClaims{Subject: accountID, Issuer: cfg.Issuer}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}
