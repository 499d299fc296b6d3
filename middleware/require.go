package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/identity"
)

type userContextKey struct{}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (identity.UserRecord, bool) {
	u, ok := ctx.Value(userContextKey{}).(identity.UserRecord)
	return u, ok
}

// RequireUser returns middleware that fetches the current user of the
// request's visitor before calling next. It must run inside SessionCookie.
//
// Identity failures answer 401; anything else answers 503.
func RequireUser(g *goGallery.Gallery) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := goGallery.VisitorFromContext(r.Context())
			if g == nil || !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := g.FetchUser(r.Context(), v)
			switch {
			case err == nil:
			case errors.Is(err, goGallery.ErrUnauthorized):
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			default:
				writeError(w, http.StatusServiceUnavailable, "unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
