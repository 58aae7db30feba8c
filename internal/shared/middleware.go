package shared

import (
	"net/http"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

// RequireAuth resolves the bearer token and injects the user into context.
func RequireAuth(store *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			user, err := store.Get(r.Context(), token)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := ContextWithUser(r.Context(), user)
			ctx = ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireManager rejects requests from non-MANAGER users. Must run after RequireAuth.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if !user.IsManager() {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
