package router

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxRedirects bounds redirect chains when no option overrides it.
const DefaultMaxRedirects = 10

// ErrRedirectLoop is returned when a navigation follows more than the
// configured number of redirects.
var ErrRedirectLoop = errors.New("navigation redirect loop")

// Status is how a navigation ended.
type Status uint8

const (
	// StatusCompleted means the target record was reached.
	StatusCompleted Status = iota + 1
	// StatusAborted means a guard cancelled the navigation.
	StatusAborted
	// StatusNotFound means the target was only claimed by a catch-all
	// record, or by nothing at all.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result describes a settled navigation.
type Result struct {
	Status Status
	// Route is the name of the record reached, or the record that was
	// being entered when a guard aborted.
	Route string
	// Location is where the navigation ended, after redirects.
	Location Location
	Params   map[string]string
	// RedirectedFrom is the original target when at least one redirect
	// was followed.
	RedirectedFrom string
	Redirects      int
}

// Redirected reports whether the navigation ended somewhere other than its
// original target.
func (r Result) Redirected() bool {
	return r.Redirects > 0
}

// Navigate runs one navigation attempt from from to the target to.
//
// Guards of records already entered by from are skipped, so moving between
// children of a guarded layout does not re-run the layout's guard. A zero
// from is a fresh entry and runs every guard in the chain.
func (r *Router) Navigate(ctx context.Context, from Location, to string) (Result, error) {
	var fromRecords []*record
	if !from.IsZero() {
		if m, ok := r.resolve(from); ok {
			fromRecords = m.records
		}
	}

	target := to
	redirectedFrom := ""

	for redirects := 0; ; redirects++ {
		if redirects > r.maxRedirects {
			return Result{}, fmt.Errorf("%w: more than %d redirects from %q", ErrRedirectLoop, r.maxRedirects, redirectedFrom)
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		loc, err := ParseLocation(target)
		if err != nil {
			return Result{}, err
		}

		m, ok := r.resolve(loc)
		if !ok {
			return Result{
				Status:         StatusNotFound,
				Location:       loc,
				RedirectedFrom: redirectedFrom,
				Redirects:      redirects,
			}, nil
		}

		decision := r.runGuards(ctx, from, fromRecords, m)
		switch {
		case decision.IsAbort():
			return Result{
				Status:         StatusAborted,
				Route:          m.Name,
				Location:       loc,
				RedirectedFrom: redirectedFrom,
				Redirects:      redirects,
			}, nil
		case decision.IsRedirect():
			if redirectedFrom == "" {
				redirectedFrom = loc.String()
			}
			target = decision.Target()
			continue
		}

		status := StatusCompleted
		if m.CatchAll {
			status = StatusNotFound
		}
		return Result{
			Status:         status,
			Route:          m.Name,
			Location:       loc,
			Params:         m.Params,
			RedirectedFrom: redirectedFrom,
			Redirects:      redirects,
		}, nil
	}
}

func (r *Router) runGuards(ctx context.Context, from Location, fromRecords []*record, m Match) Decision {
	for _, rec := range m.records {
		if rec.guard == nil || containsRecord(fromRecords, rec) {
			continue
		}
		d := rec.guard.BeforeEnter(ctx, Navigation{
			From:    from,
			To:      m.Location,
			Route:   m.Name,
			Guarded: rec.path,
		})
		if !d.IsContinue() {
			return d
		}
	}
	return Continue()
}

func containsRecord(records []*record, rec *record) bool {
	for _, r := range records {
		if r == rec {
			return true
		}
	}
	return false
}
