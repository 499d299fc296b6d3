// Package guard gates entry into protected routes on a successful current-user
// fetch.
//
// A [RouteGuard] is attached as the BeforeEnter hook of a layout record. For
// each navigation entering that record it takes the session handle from the
// navigation context, calls FetchUser, and waits for it to settle before
// deciding. The fetch error never reaches the router: it is logged, handed to
// the [Observer], and reduced to Continue, Abort or Redirect.
package guard

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/MrEthical07/goGallery/identity"
	"github.com/MrEthical07/goGallery/router"
	"github.com/MrEthical07/goGallery/session"
	"github.com/rs/zerolog"
)

// DefaultRedirectParam carries the blocked target on the failure redirect.
const DefaultRedirectParam = "redirect"

// ErrNoSession is reported when a navigation context carries no session handle.
var ErrNoSession = errors.New("no session handle in navigation context")

// Config controls what a blocked navigation turns into.
type Config struct {
	// FailureRedirect is where a blocked navigation is sent. Empty aborts
	// the navigation instead, leaving the visitor on the current route.
	FailureRedirect string
	// RedirectParam names the query parameter that carries the blocked
	// target. Empty means DefaultRedirectParam.
	RedirectParam string
}

// Outcome is the terminal state of one guard invocation.
type Outcome uint8

const (
	// Allowed means the fetch succeeded and the navigation continues.
	Allowed Outcome = iota + 1
	// Blocked means the fetch failed, or there was no session to fetch for.
	Blocked
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Event describes one settled guard invocation.
type Event struct {
	SessionID string
	Route     string
	Path      string
	Outcome   Outcome
	// Err is the swallowed failure when Outcome is Blocked.
	Err error
	// Redirect is the failure redirect target, empty on abort or allow.
	Redirect string
	Duration time.Duration
}

// Observer receives an Event for every guard invocation.
type Observer interface {
	ObserveGuard(ctx context.Context, event Event)
}

// RouteGuard is a [router.Guard] backed by the session in the navigation
// context.
type RouteGuard struct {
	cfg      Config
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// New returns a RouteGuard. observer may be nil.
func New(cfg Config, logger zerolog.Logger, observer Observer) *RouteGuard {
	if cfg.RedirectParam == "" {
		cfg.RedirectParam = DefaultRedirectParam
	}
	return &RouteGuard{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// BeforeEnter implements [router.Guard]. It never decides before FetchUser
// has returned.
func (g *RouteGuard) BeforeEnter(ctx context.Context, nav router.Navigation) router.Decision {
	start := g.now()

	store, ok := session.FromContext(ctx)
	if !ok {
		return g.block(ctx, nav, "", ErrNoSession, start)
	}

	if err := store.FetchUser(ctx); err != nil {
		return g.block(ctx, nav, store.SessionID(), err, start)
	}

	g.observe(ctx, Event{
		SessionID: store.SessionID(),
		Route:     nav.Route,
		Path:      nav.To.Path,
		Outcome:   Allowed,
		Duration:  g.now().Sub(start),
	})
	return router.Continue()
}

func (g *RouteGuard) block(ctx context.Context, nav router.Navigation, sessionID string, err error, start time.Time) router.Decision {
	g.logFailure(nav, err)

	decision := g.failureDecision(nav)
	g.observe(ctx, Event{
		SessionID: sessionID,
		Route:     nav.Route,
		Path:      nav.To.Path,
		Outcome:   Blocked,
		Err:       err,
		Redirect:  decision.Target(),
		Duration:  g.now().Sub(start),
	})
	return decision
}

func (g *RouteGuard) failureDecision(nav router.Navigation) router.Decision {
	if g.cfg.FailureRedirect == "" {
		return router.Abort()
	}

	target, err := url.Parse(g.cfg.FailureRedirect)
	if err != nil || target.Path == nav.To.Path {
		return router.Abort()
	}

	q := target.Query()
	q.Set(g.cfg.RedirectParam, nav.To.String())
	target.RawQuery = q.Encode()
	return router.Redirect(target.String())
}

func (g *RouteGuard) logFailure(nav router.Navigation, err error) {
	ev := g.logger.Warn()
	if isAuthFailure(err) {
		ev = g.logger.Debug()
	}

	ev = ev.Err(err).
		Str("route", nav.Route).
		Str("path", nav.To.Path)
	if fe, ok := identity.AsFetchError(err); ok {
		ev = ev.Str("kind", fe.Kind.String())
		if fe.StatusCode != 0 {
			ev = ev.Int("status", fe.StatusCode)
		}
	}
	ev.Msg("navigation blocked")
}

func isAuthFailure(err error) bool {
	if errors.Is(err, identity.ErrUnauthenticated) || errors.Is(err, identity.ErrSessionExpired) || errors.Is(err, ErrNoSession) {
		return true
	}
	fe, ok := identity.AsFetchError(err)
	return ok && fe.Kind == identity.KindCredentials
}

func (g *RouteGuard) observe(ctx context.Context, event Event) {
	if g.observer == nil {
		return
	}
	g.observer.ObserveGuard(ctx, event)
}
