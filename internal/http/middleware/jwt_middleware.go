package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/oakline/staffdesk/internal/http/response"
	"github.com/oakline/staffdesk/internal/platform/auth"
	"github.com/oakline/staffdesk/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireRole gates a route subtree on a valid JWT with the given role.
// Admins pass every gate.
func RequireRole(requiredRole, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != "admin" {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, CtxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	if v := r.Context().Value(CtxClaims); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}
