package router

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// ErrInvalidRoute is returned by New for a malformed route table.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrInvalidLocation is returned for a navigation target that is not a path.
	ErrInvalidLocation = errors.New("invalid location")
)

// CatchAllPath matches every path no other record claims.
const CatchAllPath = "/:pathMatch(.*)*"

var catchAllPattern = regexp.MustCompile(`^(.*?)/:([A-Za-z_][A-Za-z0-9_]*)\(\.\*\)\*$`)

// Route is one entry of the route table.
type Route struct {
	Path        string
	Name        string
	Children    []Route
	BeforeEnter Guard
}

// Location is a normalized navigation target.
type Location struct {
	Path     string
	RawQuery string
}

// ParseLocation normalizes raw into a Location: fragment dropped, trailing
// slash removed, empty path becomes "/".
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return Location{}, fmt.Errorf("%w: %q is not a local path", ErrInvalidLocation, raw)
	}
	return Location{Path: normalizePath(u.Path), RawQuery: u.RawQuery}, nil
}

// String returns the path with its query.
func (l Location) String() string {
	if l.RawQuery == "" {
		return l.Path
	}
	return l.Path + "?" + l.RawQuery
}

// Query parses the location's query string.
func (l Location) Query() url.Values {
	q, _ := url.ParseQuery(l.RawQuery)
	return q
}

// IsZero reports whether l is the empty starting location.
func (l Location) IsZero() bool {
	return l.Path == ""
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

type record struct {
	name   string
	path   string
	guard  Guard
	parent *record
	layout bool

	catchAll bool
	prefix   string
	param    string
}

// chain returns r and its ancestors, outermost first.
func (r *record) chain() []*record {
	var out []*record
	for cur := r; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (r *record) matchesPrefix(p string) bool {
	if r.prefix == "" {
		return true
	}
	return p == r.prefix || strings.HasPrefix(p, r.prefix+"/")
}

// Match is a resolved location.
type Match struct {
	Location Location
	// Name is the name of the matched leaf record.
	Name string
	// Params holds the catch-all capture, keyed by its parameter name.
	Params map[string]string
	// CatchAll is true when only a catch-all record claimed the path.
	CatchAll bool

	records []*record
}

// Chain returns the resolved paths of the matched records, outermost first.
func (m Match) Chain() []string {
	out := make([]string, len(m.records))
	for i, rec := range m.records {
		out[i] = rec.path
	}
	return out
}

// Router resolves locations against a fixed route table.
type Router struct {
	leaves       map[string]*record
	catchAlls    []*record
	names        map[string]*record
	maxRedirects int
}

// Option customizes a Router.
type Option func(*Router)

// WithMaxRedirects bounds the redirects one navigation may follow.
func WithMaxRedirects(n int) Option {
	return func(r *Router) {
		r.maxRedirects = n
	}
}

// New validates the route table and builds a Router.
func New(routes []Route, opts ...Option) (*Router, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: route table is empty", ErrInvalidRoute)
	}

	r := &Router{
		leaves:       make(map[string]*record),
		names:        make(map[string]*record),
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxRedirects < 0 {
		return nil, fmt.Errorf("%w: max redirects must be >= 0", ErrInvalidRoute)
	}

	for _, route := range routes {
		if err := r.add(route, nil); err != nil {
			return nil, err
		}
	}
	if len(r.leaves) == 0 && len(r.catchAlls) == 0 {
		return nil, fmt.Errorf("%w: no matchable routes", ErrInvalidRoute)
	}
	return r, nil
}

func (r *Router) add(route Route, parent *record) error {
	full, err := resolveRoutePath(route.Path, parent)
	if err != nil {
		return err
	}

	rec := &record{
		name:   route.Name,
		path:   full,
		guard:  route.BeforeEnter,
		parent: parent,
		layout: len(route.Children) > 0,
	}

	if route.Name != "" {
		if _, dup := r.names[route.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidRoute, route.Name)
		}
		r.names[route.Name] = rec
	}

	if m := catchAllPattern.FindStringSubmatch(full); m != nil {
		if rec.layout {
			return fmt.Errorf("%w: catch-all %q cannot have children", ErrInvalidRoute, full)
		}
		rec.catchAll = true
		rec.prefix = strings.TrimSuffix(m[1], "/")
		rec.param = m[2]
		r.catchAlls = append(r.catchAlls, rec)
		return nil
	}
	if strings.Contains(full, "/:") {
		return fmt.Errorf("%w: unsupported pattern %q", ErrInvalidRoute, full)
	}

	if rec.layout {
		for _, child := range route.Children {
			if err := r.add(child, rec); err != nil {
				return err
			}
		}
		return nil
	}

	if _, dup := r.leaves[full]; dup {
		return fmt.Errorf("%w: duplicate path %q", ErrInvalidRoute, full)
	}
	r.leaves[full] = rec
	return nil
}

func resolveRoutePath(p string, parent *record) (string, error) {
	if p == "" {
		if parent == nil {
			return "", fmt.Errorf("%w: empty path", ErrInvalidRoute)
		}
		return parent.path, nil
	}
	if strings.HasPrefix(p, "/") || parent == nil {
		if catchAllPattern.MatchString(p) {
			return p, nil
		}
		return normalizePath(p), nil
	}
	joined := strings.TrimSuffix(parent.path, "/") + "/" + p
	if catchAllPattern.MatchString(joined) {
		return joined, nil
	}
	return normalizePath(joined), nil
}

// Resolve matches raw against the route table.
func (r *Router) Resolve(raw string) (Match, bool) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return Match{}, false
	}
	return r.resolve(loc)
}

func (r *Router) resolve(loc Location) (Match, bool) {
	if rec, ok := r.leaves[loc.Path]; ok {
		return Match{Location: loc, Name: rec.name, records: rec.chain()}, true
	}

	var best *record
	for _, rec := range r.catchAlls {
		if !rec.matchesPrefix(loc.Path) {
			continue
		}
		if best == nil || len(rec.prefix) > len(best.prefix) {
			best = rec
		}
	}
	if best == nil {
		return Match{}, false
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(loc.Path, best.prefix), "/")
	return Match{
		Location: loc,
		Name:     best.name,
		Params:   map[string]string{best.param: rest},
		CatchAll: true,
		records:  best.chain(),
	}, true
}

// Lookup returns the resolved path of the named record.
func (r *Router) Lookup(name string) (string, bool) {
	rec, ok := r.names[name]
	if !ok {
		return "", false
	}
	return rec.path, true
}
