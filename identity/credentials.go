package identity

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	xsrfCookieName = "XSRF-TOKEN"
	xsrfHeaderName = "X-XSRF-TOKEN"
)

// Credentials is the ambient authentication context forwarded to the
// identity service on every fetch. The zero value sends nothing.
type Credentials struct {
	Cookies     []*http.Cookie
	BearerToken string
	XSRFToken   string
}

// IsZero reports whether no credential material is present.
func (c Credentials) IsZero() bool {
	return len(c.Cookies) == 0 && c.BearerToken == "" && c.XSRFToken == ""
}

// CredentialsFromRequest captures the credentials a browser sent to the
// gallery so they can be replayed against the identity service. Cookies named
// in skip (e.g. the gallery's own session cookie) are not forwarded. When no
// X-XSRF-TOKEN header is present the XSRF-TOKEN cookie value is used instead.
func CredentialsFromRequest(r *http.Request, skip ...string) Credentials {
	if r == nil {
		return Credentials{}
	}

	var creds Credentials
	for _, c := range r.Cookies() {
		if containsName(skip, c.Name) {
			continue
		}
		creds.Cookies = append(creds.Cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		if c.Name == xsrfCookieName && creds.XSRFToken == "" {
			if v, err := url.QueryUnescape(c.Value); err == nil {
				creds.XSRFToken = v
			}
		}
	}

	if h := strings.TrimSpace(r.Header.Get(xsrfHeaderName)); h != "" {
		creds.XSRFToken = h
	}

	const bearer = "Bearer "
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearer) {
		creds.BearerToken = strings.TrimSpace(auth[len(bearer):])
	}

	return creds
}

func (c Credentials) apply(req *http.Request) {
	for _, cookie := range c.Cookies {
		if cookie == nil || cookie.Name == "" {
			continue
		}
		req.AddCookie(cookie)
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	if c.XSRFToken != "" {
		req.Header.Set(xsrfHeaderName, c.XSRFToken)
	}
}

// bearerExpired reports whether token is a JWT whose exp claim lies before
// now-leeway. The signature is not verified: a token that cannot be parsed or
// carries no exp is never treated as expired, so opaque tokens always reach
// the identity service.
func bearerExpired(token string, now time.Time, leeway time.Duration) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}

	return !claims.ExpiresAt.Time.After(now.Add(-leeway))
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
