package middleware

import (
	"net/http"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/identity"
	"github.com/google/uuid"
)

// SessionCookie returns middleware that identifies the browser by the
// cfg.CookieName cookie. A missing or malformed cookie gets a fresh random
// session ID. The remaining cookies and auth headers of the request are
// captured as the credentials forwarded to the identity service.
func SessionCookie(cfg goGallery.SessionConfig) func(http.Handler) http.Handler {
	name := cfg.CookieName
	if name == "" {
		name = goGallery.DefaultConfig().Session.CookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := sessionFromCookie(r, name)
			if !ok {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     name,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			v := goGallery.Visitor{
				SessionID:   sessionID,
				Credentials: identity.CredentialsFromRequest(r, name),
			}
			next.ServeHTTP(w, r.WithContext(goGallery.WithVisitor(r.Context(), v)))
		})
	}
}

func sessionFromCookie(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
