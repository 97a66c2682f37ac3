package tenantauth

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Middleware resolves the caller's tenant from a bearer token and binds it
// to the request context. Every sync route requires it: a request without
// a tenant never reaches the pipelines.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)

			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)

			return
		}

		tenantID, err := parseTenant(parts[1], os.Getenv("SYNC_JWT_SECRET"))
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)

			return
		}

		ctx := tenant.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseTenant validates the token and extracts the tenant_id claim.
func parseTenant(tokenString, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	raw, ok := claims["tenant_id"].(string)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse tenant id claim: %w", err)
	}

	return tenantID, nil
}
