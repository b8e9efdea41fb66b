package middleware

import (
	"context"
	"net/http"
	"strings"

	"ratehub/internal/models"
	"ratehub/internal/store"
	"ratehub/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// actorKey is the context key for the authenticated user.
const actorKey contextKey = "actor"

// Authenticate resolves the Authorization header into a user and stores
// it in the request context. Requests without the header pass through as
// anonymous; a header carrying an unknown or expired token is rejected
// with 401 rather than silently downgraded.
func Authenticate(bearer *token.Bearer, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				unauthorized(w, "invalid authorization header")
				return
			}

			userID, found, err := bearer.Lookup(r.Context(), raw)
			if err != nil {
				unauthorized(w, "token lookup failed")
				return
			}
			if !found {
				unauthorized(w, "invalid or expired token")
				return
			}

			user, err := users.FindByID(userID)
			if err != nil || user == nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromCtx extracts the authenticated user from the request context.
// Returns nil for anonymous requests.
func ActorFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(actorKey).(*models.User)
	return u
}

// WithActor returns a context carrying the given user. Intended for tests
// and internal wiring.
func WithActor(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"detail":"` + detail + `"}`))
}
