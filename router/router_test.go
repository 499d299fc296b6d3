package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingGuard struct {
	calls    atomic.Int32
	decision Decision
	lastNav  Navigation
}

func (g *countingGuard) BeforeEnter(_ context.Context, nav Navigation) Decision {
	g.calls.Add(1)
	g.lastNav = nav
	return g.decision
}

func galleryTable(guard Guard) []Route {
	return []Route{
		{
			Path: "/",
			Children: []Route{
				{Path: "/", Name: "Home"},
				{Path: "/images", Name: "Images"},
			},
			BeforeEnter: guard,
		},
		{Path: "/login", Name: "Login"},
		{Path: "/signup", Name: "Signup"},
		{Path: CatchAllPath, Name: "NotFound"},
	}
}

func mustRouter(t *testing.T, routes []Route, opts ...Option) *Router {
	t.Helper()
	r, err := New(routes, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestResolve(t *testing.T) {
	r := mustRouter(t, galleryTable(nil))

	tests := []struct {
		path     string
		name     string
		catchAll bool
		chain    int
	}{
		{path: "/", name: "Home", chain: 2},
		{path: "", name: "Home", chain: 2},
		{path: "/images/", name: "Images", chain: 2},
		{path: "/images?page=2#top", name: "Images", chain: 2},
		{path: "/login", name: "Login", chain: 1},
		{path: "/signup", name: "Signup", chain: 1},
		{path: "/nope/deeper", name: "NotFound", catchAll: true, chain: 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, ok := r.Resolve(tt.path)
			if !ok {
				t.Fatalf("expected %q to resolve", tt.path)
			}
			if m.Name != tt.name || m.CatchAll != tt.catchAll || len(m.Chain()) != tt.chain {
				t.Fatalf("Resolve(%q) = name %q catchAll %v chain %v", tt.path, m.Name, m.CatchAll, m.Chain())
			}
		})
	}

	m, _ := r.Resolve("/nope/deeper")
	if m.Params["pathMatch"] != "nope/deeper" {
		t.Fatalf("unexpected catch-all capture %q", m.Params["pathMatch"])
	}
}

func TestResolveWithoutCatchAll(t *testing.T) {
	r := mustRouter(t, []Route{{Path: "/login", Name: "Login"}})
	if _, ok := r.Resolve("/missing"); ok {
		t.Fatal("expected no match")
	}
}

func TestNestedCatchAllPrefersLongestPrefix(t *testing.T) {
	r := mustRouter(t, []Route{
		{Path: "/docs/:rest(.*)*", Name: "Docs"},
		{Path: CatchAllPath, Name: "NotFound"},
	})
	m, _ := r.Resolve("/docs/a/b")
	if m.Name != "Docs" || m.Params["rest"] != "a/b" {
		t.Fatalf("unexpected match %+v", m)
	}
	m, _ = r.Resolve("/other")
	if m.Name != "NotFound" {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestNewRejectsInvalidTables(t *testing.T) {
	tests := map[string][]Route{
		"empty":          nil,
		"empty path":     {{Path: "", Name: "X"}},
		"duplicate name": {{Path: "/a", Name: "X"}, {Path: "/b", Name: "X"}},
		"duplicate path": {{Path: "/a", Name: "A"}, {Path: "/a/", Name: "B"}},
		"param":          {{Path: "/users/:id", Name: "User"}},
		"bad catch-all":  {{Path: "/", Children: []Route{{Path: "/", Children: []Route{{Path: CatchAllPath + "x"}}}}}},
	}
	for name, routes := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := New(routes); !errors.Is(err, ErrInvalidRoute) {
				t.Fatalf("expected ErrInvalidRoute, got %v", err)
			}
		})
	}
}

func TestLayoutIsNotDirectlyMatchable(t *testing.T) {
	r := mustRouter(t, []Route{
		{Path: "/admin", Children: []Route{{Path: "users", Name: "Users"}}},
	})
	if _, ok := r.Resolve("/admin"); ok {
		t.Fatal("layout record must not match")
	}
	m, ok := r.Resolve("/admin/users")
	if !ok || m.Name != "Users" {
		t.Fatalf("expected relative child to resolve, got %+v ok=%v", m, ok)
	}
}

func TestNavigateRunsLayoutGuard(t *testing.T) {
	guard := &countingGuard{decision: Continue()}
	r := mustRouter(t, galleryTable(guard))

	res, err := r.Navigate(context.Background(), Location{}, "/images")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.Status != StatusCompleted || res.Route != "Images" {
		t.Fatalf("unexpected result %+v", res)
	}
	if guard.calls.Load() != 1 {
		t.Fatalf("expected guard to run once, ran %d", guard.calls.Load())
	}
	if guard.lastNav.Guarded != "/" || guard.lastNav.Route != "Images" || guard.lastNav.To.Path != "/images" {
		t.Fatalf("unexpected navigation passed to guard: %+v", guard.lastNav)
	}
}

func TestNavigateSkipsGuardWithinEnteredLayout(t *testing.T) {
	guard := &countingGuard{decision: Continue()}
	r := mustRouter(t, galleryTable(guard))

	if _, err := r.Navigate(context.Background(), Location{Path: "/"}, "/images"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if guard.calls.Load() != 0 {
		t.Fatalf("expected guard to be skipped, ran %d", guard.calls.Load())
	}

	if _, err := r.Navigate(context.Background(), Location{Path: "/login"}, "/images"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if guard.calls.Load() != 1 {
		t.Fatalf("expected guard to run when entering from outside, ran %d", guard.calls.Load())
	}
}

func TestNavigateUnguardedRoutes(t *testing.T) {
	guard := &countingGuard{decision: Abort()}
	r := mustRouter(t, galleryTable(guard))

	for _, p := range []string{"/login", "/signup"} {
		res, err := r.Navigate(context.Background(), Location{}, p)
		if err != nil {
			t.Fatalf("Navigate(%s): %v", p, err)
		}
		if res.Status != StatusCompleted {
			t.Fatalf("Navigate(%s) status %v", p, res.Status)
		}
	}
	res, err := r.Navigate(context.Background(), Location{}, "/missing")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.Status != StatusNotFound || res.Route != "NotFound" {
		t.Fatalf("unexpected catch-all result %+v", res)
	}
	if guard.calls.Load() != 0 {
		t.Fatalf("guard must not run outside its subtree")
	}
}

func TestNavigateAbort(t *testing.T) {
	r := mustRouter(t, galleryTable(&countingGuard{decision: Abort()}))

	res, err := r.Navigate(context.Background(), Location{Path: "/login"}, "/")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.Status != StatusAborted || res.Route != "Home" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNavigateFollowsRedirect(t *testing.T) {
	r := mustRouter(t, galleryTable(&countingGuard{decision: Redirect("/login?redirect=%2Fimages")}))

	res, err := r.Navigate(context.Background(), Location{}, "/images")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.Status != StatusCompleted || res.Route != "Login" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.Redirected() || res.RedirectedFrom != "/images" {
		t.Fatalf("expected redirect from /images, got %+v", res)
	}
	if res.Location.Query().Get("redirect") != "/images" {
		t.Fatalf("unexpected redirect query %q", res.Location.RawQuery)
	}
}

func TestNavigateRedirectLoop(t *testing.T) {
	loop := GuardFunc(func(context.Context, Navigation) Decision { return Redirect("/") })
	r := mustRouter(t, galleryTable(loop), WithMaxRedirects(3))

	_, err := r.Navigate(context.Background(), Location{}, "/")
	if !errors.Is(err, ErrRedirectLoop) {
		t.Fatalf("expected ErrRedirectLoop, got %v", err)
	}
}

func TestNavigateGuardsRunOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) Guard {
		return GuardFunc(func(context.Context, Navigation) Decision {
			order = append(order, name)
			return Continue()
		})
	}
	r := mustRouter(t, []Route{
		{
			Path:        "/a",
			BeforeEnter: mark("outer"),
			Children: []Route{
				{Path: "b", Name: "B", BeforeEnter: mark("inner")},
			},
		},
	})

	if _, err := r.Navigate(context.Background(), Location{}, "/a/b"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("unexpected guard order %v", order)
	}
}

func TestNavigateHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := mustRouter(t, galleryTable(nil))
	if _, err := r.Navigate(ctx, Location{}, "/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNavigateRejectsExternalTarget(t *testing.T) {
	r := mustRouter(t, galleryTable(nil))
	if _, err := r.Navigate(context.Background(), Location{}, "https://evil.example/"); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	r := mustRouter(t, galleryTable(nil))
	if p, ok := r.Lookup("Images"); !ok || p != "/images" {
		t.Fatalf("Lookup(Images) = %q, %v", p, ok)
	}
	if _, ok := r.Lookup("Nope"); ok {
		t.Fatal("expected unknown name")
	}
}
