package goGallery

import "context"

type visitorContextKey struct{}

// WithVisitor attaches v to ctx. HTTP middleware sets it once per request.
func WithVisitor(ctx context.Context, v Visitor) context.Context {
	return context.WithValue(ctx, visitorContextKey{}, v)
}

// VisitorFromContext returns the Visitor attached by WithVisitor.
func VisitorFromContext(ctx context.Context) (Visitor, bool) {
	if ctx == nil {
		return Visitor{}, false
	}
	v, ok := ctx.Value(visitorContextKey{}).(Visitor)
	if !ok || v.SessionID == "" {
		return Visitor{}, false
	}
	return v, true
}
