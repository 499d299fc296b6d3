package router

import "context"

type decisionKind uint8

const (
	decisionContinue decisionKind = iota
	decisionAbort
	decisionRedirect
)

// Decision is a guard's answer for one navigation.
type Decision struct {
	kind   decisionKind
	target string
}

// Continue lets the navigation proceed to the next guard or the target.
func Continue() Decision {
	return Decision{kind: decisionContinue}
}

// Abort cancels the navigation; the visitor stays where they were.
func Abort() Decision {
	return Decision{kind: decisionAbort}
}

// Redirect cancels the navigation and starts a new one to target.
func Redirect(target string) Decision {
	return Decision{kind: decisionRedirect, target: target}
}

// IsContinue reports whether d lets the navigation proceed.
func (d Decision) IsContinue() bool { return d.kind == decisionContinue }

// IsAbort reports whether d cancels the navigation.
func (d Decision) IsAbort() bool { return d.kind == decisionAbort }

// IsRedirect reports whether d restarts the navigation elsewhere.
func (d Decision) IsRedirect() bool { return d.kind == decisionRedirect }

// Target returns the redirect target, or "" for other decisions.
func (d Decision) Target() string { return d.target }

func (d Decision) String() string {
	switch d.kind {
	case decisionAbort:
		return "abort"
	case decisionRedirect:
		return "redirect " + d.target
	default:
		return "continue"
	}
}

// Navigation is what a guard sees of the attempt it is gating.
type Navigation struct {
	From Location
	To   Location
	// Route is the name of the leaf record being navigated to.
	Route string
	// Guarded is the resolved path of the record whose guard is running.
	Guarded string
}

// Guard gates entry into a route record.
type Guard interface {
	BeforeEnter(ctx context.Context, nav Navigation) Decision
}

// GuardFunc adapts a function to [Guard].
type GuardFunc func(ctx context.Context, nav Navigation) Decision

// BeforeEnter calls f.
func (f GuardFunc) BeforeEnter(ctx context.Context, nav Navigation) Decision {
	return f(ctx, nav)
}
