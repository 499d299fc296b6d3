package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/identity"
	"github.com/google/uuid"
)

func TestSessionCookieIssuesID(t *testing.T) {
	cfg := goGallery.DefaultConfig().Session
	var seen goGallery.Visitor
	h := SessionCookie(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := goGallery.VisitorFromContext(r.Context())
		if !ok {
			t.Fatal("visitor missing")
		}
		seen = v
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cfg.CookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if cookies[0].Value != seen.SessionID {
		t.Fatalf("cookie %q does not match visitor %q", cookies[0].Value, seen.SessionID)
	}
	if _, err := uuid.Parse(seen.SessionID); err != nil {
		t.Fatalf("session id is not a uuid: %v", err)
	}
}

func TestSessionCookieReusesValidID(t *testing.T) {
	cfg := goGallery.DefaultConfig().Session
	id := uuid.NewString()
	var seen goGallery.Visitor
	h := SessionCookie(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = goGallery.VisitorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: id})
	req.AddCookie(&http.Cookie{Name: "laravel_session", Value: "abc"})
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("valid cookie must not be reissued")
	}
	if seen.SessionID != id {
		t.Fatalf("session id = %q, want %q", seen.SessionID, id)
	}
	if seen.Credentials.BearerToken != "tok" {
		t.Fatalf("bearer token not captured: %+v", seen.Credentials)
	}
	if len(seen.Credentials.Cookies) != 1 || seen.Credentials.Cookies[0].Name != "laravel_session" {
		t.Fatalf("expected only the identity cookie forwarded, got %v", seen.Credentials.Cookies)
	}
}

func TestSessionCookieReplacesMalformedID(t *testing.T) {
	cfg := goGallery.DefaultConfig().Session
	h := SessionCookie(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "not-a-uuid"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "not-a-uuid" {
		t.Fatalf("expected a fresh cookie, got %v", cookies)
	}
}

func newGallery(t *testing.T, f identity.FetcherFunc) *goGallery.Gallery {
	t.Helper()
	g, err := goGallery.New().WithIdentity(f).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func serveRequireUser(g *goGallery.Gallery, next http.Handler) *httptest.ResponseRecorder {
	h := SessionCookie(g.Config().Session)(RequireUser(g)(next))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/images", nil))
	return rr
}

func TestRequireUserPasses(t *testing.T) {
	g := newGallery(t, func(context.Context, identity.Credentials) (identity.UserRecord, error) {
		return identity.MustParseUserRecord(`{"id":7}`), nil
	})

	var got identity.UserRecord
	rr := serveRequireUser(g, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if got.ID() != "7" {
		t.Fatalf("user id = %q", got.ID())
	}
}

func TestRequireUserRejectsUnauthenticated(t *testing.T) {
	g := newGallery(t, func(context.Context, identity.Credentials) (identity.UserRecord, error) {
		return identity.UserRecord{}, &identity.FetchError{Kind: identity.KindStatus, StatusCode: http.StatusUnauthorized}
	})

	rr := serveRequireUser(g, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next must not run")
	}))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRequireUserWithoutSessionCookie(t *testing.T) {
	g := newGallery(t, func(context.Context, identity.Credentials) (identity.UserRecord, error) {
		return identity.MustParseUserRecord(`{"id":7}`), nil
	})

	rr := httptest.NewRecorder()
	RequireUser(g)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next must not run")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
}
