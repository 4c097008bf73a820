package route

import (
	"context"
	"maps"
	"net/url"
	"regexp"
	"slices"
)

// Name identifies a route. It is the discriminant returned by the matcher and
// the key used when building links from parameters.
type Name string

// Surface is one of the URL shapes a route can be matched against.
type Surface string

const (
	// SurfaceProtocol is the custom-scheme URL used by native clients.
	SurfaceProtocol Surface = "protocol"

	// SurfaceWebsite is the canonical HTTPS URL on the website host.
	SurfaceWebsite Surface = "website"
)

// Params is the canonical parameter record of a matched or built link.
type Params map[string]string

// Clone returns an independent copy of p. A nil record clones to an empty one.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// SortedKeys returns the keys in ascending byte order.
func (p Params) SortedKeys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Visibility controls on which surface an arbitrary parameter may be rendered
// as a query string value. The zero value allows both surfaces.
type Visibility int

const (
	// VisibleEverywhere renders the parameter on both surfaces.
	VisibleEverywhere Visibility = iota

	// OnlyProtocol renders the parameter on protocol URLs only.
	OnlyProtocol

	// OnlyWebsite renders the parameter on website URLs only.
	OnlyWebsite

	// Hidden keeps the parameter in the record but off every query string.
	Hidden
)

// Allows reports whether a parameter with this visibility may appear on s.
func (v Visibility) Allows(s Surface) bool {
	switch v {
	case VisibleEverywhere:
		return true
	case OnlyProtocol:
		return s == SurfaceProtocol
	case OnlyWebsite:
		return s == SurfaceWebsite
	default:
		return false
	}
}

// Format validates a parameter value. *regexp.Regexp satisfies it.
type Format interface {
	MatchString(s string) bool
}

// PathParam names a capture group of the pattern regex.
type PathParam struct {
	Name string
}

// QueryParam describes one query-string key read by a pattern.
type QueryParam struct {
	// Name is the key read from the query string.
	Name string

	// MappedName is the canonical key the value is stored under.
	// Empty means Name.
	MappedName string

	// Format validates present values. Nil accepts anything non-empty.
	Format Format

	// Required rejects the pattern when the value is absent, unless an
	// earlier parameter of the same Group already matched.
	Required bool

	// Group ties parameters into an OR-group: the pattern matches if at
	// least one member of each group that appears is present.
	Group string
}

// Key returns the canonical parameter name.
func (q QueryParam) Key() string {
	if q.MappedName != "" {
		return q.MappedName
	}
	return q.Name
}

// Pattern is one way of spelling a route on a surface.
type Pattern struct {
	Regex *regexp.Regexp
	Path  []PathParam
	Query []QueryParam
}

// TransformFunc maps raw matched parameters to the canonical record.
//
// Returning a nil Params (or an error) rejects the candidate and the matcher
// moves on to the next one. A non-nil, possibly empty, record replaces the
// matched parameters.
type TransformFunc func(ctx context.Context, params Params, u *url.URL) (Params, error)

// Template renders the path of a surface from canonical parameters. The
// result may contain {param} placeholders and a #fragment.
type Template func(params Params) string

// Literal returns a Template that always yields s.
func Literal(s string) Template {
	return func(Params) string { return s }
}

// Definition describes one deep-link kind.
type Definition struct {
	Name Name

	ProtocolPatterns []Pattern
	WebsitePatterns  []Pattern

	TransformProtocol TransformFunc
	TransformWebsite  TransformFunc

	// Arbitrary lists parameters that are accepted when building links and
	// where they may be rendered. Parameters not listed here render on both
	// surfaces.
	Arbitrary map[string]Visibility

	// ToProtocol and ToWebsite are nil when the route has no such surface.
	ToProtocol Template
	ToWebsite  Template
}

// Patterns returns the patterns declared for surface s.
func (d *Definition) Patterns(s Surface) []Pattern {
	if s == SurfaceProtocol {
		return d.ProtocolPatterns
	}
	return d.WebsitePatterns
}

// Transform returns the transform hook for surface s, or nil.
func (d *Definition) Transform(s Surface) TransformFunc {
	if s == SurfaceProtocol {
		return d.TransformProtocol
	}
	return d.TransformWebsite
}

// Template returns the render template for surface s, or nil.
func (d *Definition) Template(s Surface) Template {
	if s == SurfaceProtocol {
		return d.ToProtocol
	}
	return d.ToWebsite
}

// Visibility returns the visibility of parameter name on this route.
func (d *Definition) Visibility(name string) Visibility {
	return d.Arbitrary[name]
}
