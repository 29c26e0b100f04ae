package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dragonworld-game/server/internal/api/apierr"
	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/services/auth"
)

type contextKey string

const accountContextKey contextKey = "account"

// Auth creates authentication middleware. It verifies the bearer token
// and puts the account id on the request context.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			accountID, err := authService.VerifyToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetAccountID returns the authenticated account id from the request context
func GetAccountID(ctx context.Context) model.AccountID {
	accountID, _ := ctx.Value(accountContextKey).(model.AccountID)
	return accountID
}

// MustGetAccountID returns the authenticated account id or panics
func MustGetAccountID(ctx context.Context) model.AccountID {
	accountID := GetAccountID(ctx)
	if accountID == "" {
		panic("no account in context - auth middleware not applied?")
	}
	return accountID
}
