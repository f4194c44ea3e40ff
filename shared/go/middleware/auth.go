package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"spinchart/shared/go/logging"
)

// TokenResolver maps a bearer token to a user id.
type TokenResolver interface {
	ValidateToken(ctx context.Context, token string) (int64, error)
}

// Authenticate resolves an optional bearer token and stores the caller's user
// id in the request context. Requests without a valid token pass through
// anonymously; RequireUser enforces identity where needed.
func Authenticate(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.ValidateToken(r.Context(), token)
			if err != nil {
				logging.WithContext(r.Context()).Debug().Err(err).Msg("Ignoring invalid bearer token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(logging.ContextWithUserID(r.Context(), userID)))
		})
	}
}

// RequireUser rejects requests without an authenticated caller.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := logging.UserID(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Timeout bounds every request's context by d.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseBearerToken extracts the token from an "Authorization: Bearer" header.
func ParseBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
