package goGallery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/MrEthical07/goGallery/identity"
	"github.com/MrEthical07/goGallery/images"
	"github.com/MrEthical07/goGallery/internal/audit"
	"github.com/MrEthical07/goGallery/router"
	"github.com/MrEthical07/goGallery/session"
	"github.com/rs/zerolog"
)

// Gallery is the assembled application: session store, guarded router and
// image listing.
//
// Gallery methods are safe for concurrent use after [Builder.Build].
type Gallery struct {
	config   Config
	logger   zerolog.Logger
	sessions *session.Manager
	router   *router.Router
	images   images.Repository
	audit    *audit.Dispatcher
	metrics  *Metrics
	observer *observer
	closed   atomic.Bool
}

// Close flushes the audit dispatcher. It does not close the Redis client or
// the image repository.
func (g *Gallery) Close() {
	if g == nil || !g.closed.CompareAndSwap(false, true) {
		return
	}
	if g.audit != nil {
		g.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped on a full buffer.
func (g *Gallery) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// MetricsSnapshot copies the current counters.
func (g *Gallery) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// Config returns the configuration the gallery was built with.
func (g *Gallery) Config() Config {
	return g.config
}

// Session returns the session handle for v.
func (g *Gallery) Session(v Visitor) (*session.Store, error) {
	if g == nil || g.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if v.SessionID == "" {
		return nil, ErrVisitorRequired
	}
	return g.sessions.Session(v.SessionID, v.Credentials)
}

// Navigate runs a fresh navigation for v to path, as a full page load does.
//
// The visitor's session handle travels in the navigation context, where the
// route guard picks it up.
func (g *Gallery) Navigate(ctx context.Context, v Visitor, path string) (router.Result, error) {
	return g.NavigateFrom(ctx, v, router.Location{}, path)
}

// NavigateFrom runs a navigation for v from an already entered location.
// Guards of records shared with from are not re-run.
func (g *Gallery) NavigateFrom(ctx context.Context, v Visitor, from router.Location, path string) (router.Result, error) {
	store, err := g.Session(v)
	if err != nil {
		return router.Result{}, err
	}

	res, err := g.router.Navigate(session.NewContext(ctx, store), from, path)
	if err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("navigation failed")
		return router.Result{}, err
	}
	if res.Status == router.StatusNotFound {
		g.metrics.Inc(MetricNavigationNotFound)
	}
	return res, nil
}

// View renders the view model of a completed navigation. The user is the
// one currently held for v, if any.
func (g *Gallery) View(ctx context.Context, v Visitor, res router.Result) (ViewModel, error) {
	vm := ViewModel{
		Route:          res.Route,
		Path:           res.Location.String(),
		RedirectedFrom: res.RedirectedFrom,
	}
	user, ok, err := g.CurrentUser(ctx, v)
	if err != nil {
		return ViewModel{}, err
	}
	if ok {
		vm.User = &user
	}
	return vm, nil
}

// CurrentUser returns the user held for v without contacting the identity
// service.
func (g *Gallery) CurrentUser(ctx context.Context, v Visitor) (identity.UserRecord, bool, error) {
	store, err := g.Session(v)
	if err != nil {
		return identity.UserRecord{}, false, err
	}
	return store.User(ctx)
}

// FetchUser refreshes v's user from the identity service and returns it.
// Identity failures are returned wrapped in ErrUnauthorized.
func (g *Gallery) FetchUser(ctx context.Context, v Visitor) (identity.UserRecord, error) {
	store, err := g.Session(v)
	if err != nil {
		return identity.UserRecord{}, err
	}
	if err := store.FetchUser(ctx); err != nil {
		if errors.Is(err, identity.ErrIdentityFetch) {
			return identity.UserRecord{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return identity.UserRecord{}, err
	}
	user, ok, err := store.User(ctx)
	if err != nil {
		return identity.UserRecord{}, err
	}
	if !ok {
		return identity.UserRecord{}, ErrUnauthorized
	}
	return user, nil
}

// Logout clears the user held for v. The identity service session itself
// is not touched.
func (g *Gallery) Logout(ctx context.Context, v Visitor) error {
	store, err := g.Session(v)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return err
	}
	g.metrics.Inc(MetricLogout)
	g.observer.emit(ctx, AuditLogout, true, v.SessionID, "", "", nil, nil)
	return nil
}

// ListImages fetches v's user and lists the images they own, newest first.
// limit <= 0 uses Config.Images.DefaultListLimit.
func (g *Gallery) ListImages(ctx context.Context, v Visitor, limit int) ([]images.Image, error) {
	if g == nil || g.images == nil {
		return nil, ErrImagesUnavailable
	}
	user, err := g.FetchUser(ctx, v)
	if err != nil {
		return nil, err
	}
	return g.ListImagesFor(ctx, user, limit)
}

// ListImagesFor lists the images of an already fetched user.
func (g *Gallery) ListImagesFor(ctx context.Context, user identity.UserRecord, limit int) ([]images.Image, error) {
	if g == nil || g.images == nil {
		return nil, ErrImagesUnavailable
	}
	userID := user.ID()
	if userID == "" {
		return nil, ErrUserRecordNoID
	}
	if limit <= 0 {
		limit = g.config.Images.DefaultListLimit
	}
	return g.images.ListByUser(ctx, userID, limit)
}
