package session

import "context"

type storeContextKey struct{}

// NewContext attaches the session handle for the current navigation to ctx.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext returns the handle attached by NewContext.
func FromContext(ctx context.Context) (*Store, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(storeContextKey{}).(*Store)
	return s, ok && s != nil
}
