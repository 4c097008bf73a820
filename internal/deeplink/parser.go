// Package deeplink is the entry point for resolving and building deep links.
//
// A Parser owns an immutable route table and turns any of the three URL
// surfaces into a Link:
//
//	scheme://navigation/home                      (protocol)
//	https://www.example.com/events/4821           (website)
//	https://<attribution host>?af_dp=...          (attribution redirect)
//
// and builds Links from route names and parameters. A Link renders back into
// every surface its route supports.
//
// Thread-safety: a Parser is safe for concurrent use once New returns. The
// only calls that block are the identifier lookups made by route transforms.
package deeplink

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/deeplink/internal/catalog"
	"github.com/roach88/deeplink/internal/idresolve"
	"github.com/roach88/deeplink/internal/route"
)

const (
	// DefaultProtocolScheme is the custom scheme of protocol links.
	DefaultProtocolScheme = "roblox"

	// DefaultWebsiteHost is the host of website links.
	DefaultWebsiteHost = catalog.DefaultWebsiteHost

	// DefaultAttributionHost is the host and path prefix of attribution
	// redirect links.
	DefaultAttributionHost = "ro.blox.com/Ebh5"
)

// Attribution redirect query keys.
const (
	attrProtocolKey       = "af_dp"
	attrLegacyProtocolKey = "deep_link_value"
	attrWebsiteKey        = "af_web_dp"
)

// Observer receives the outcome of every parse. Implementations must be safe
// for concurrent use.
type Observer interface {
	// Matched is called when a URL resolved to a route.
	Matched(s route.Surface, name route.Name)

	// Unmatched is called when no route accepted a URL.
	Unmatched(s route.Surface)

	// Rejected is called for each candidate dropped during a scan.
	Rejected(r route.Rejection)
}

// Parser resolves URLs into Links and builds Links from parameters.
type Parser struct {
	protocolScheme  string
	websiteHost     string
	attributionHost string
	apiDomain       string

	httpClient        *http.Client
	placeUniverse     idresolve.Lookup
	universeRootPlace idresolve.Lookup

	table      *route.Table
	matcher    *route.Matcher
	disallowed map[route.Name][]string
	logger     *slog.Logger
	observer   Observer
}

// Option configures a Parser.
type Option func(*Parser)

// WithProtocolScheme sets the custom scheme, e.g. "roblox".
func WithProtocolScheme(scheme string) Option {
	return func(p *Parser) {
		if scheme != "" {
			p.protocolScheme = scheme
		}
	}
}

// WithWebsiteHost sets the website host, e.g. "www.roblox.com".
func WithWebsiteHost(host string) Option {
	return func(p *Parser) {
		if host != "" {
			p.websiteHost = host
		}
	}
}

// WithAttributionHost sets the attribution redirect prefix (host plus path).
func WithAttributionHost(host string) Option {
	return func(p *Parser) {
		if host != "" {
			p.attributionHost = host
		}
	}
}

// WithAPIDomain sets the domain suffix of the identifier lookup services.
func WithAPIDomain(domain string) Option {
	return func(p *Parser) {
		if domain != "" {
			p.apiDomain = domain
		}
	}
}

// WithHTTPClient sets the client used by the default identifier lookups.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Parser) {
		p.httpClient = c
	}
}

// WithPlaceUniverseLookup replaces the place -> universe lookup.
func WithPlaceUniverseLookup(fn idresolve.Lookup) Option {
	return func(p *Parser) {
		p.placeUniverse = fn
	}
}

// WithUniverseRootPlaceLookup replaces the universe -> root place lookup.
func WithUniverseRootPlaceLookup(fn idresolve.Lookup) Option {
	return func(p *Parser) {
		p.universeRootPlace = fn
	}
}

// WithTable replaces the built-in route table. Lookup options are then
// ignored; the table's transforms carry their own.
func WithTable(t *route.Table) Option {
	return func(p *Parser) {
		p.table = t
	}
}

// WithDisallowedParams lists, per route, parameters that Create drops.
func WithDisallowedParams(m map[route.Name][]string) Option {
	return func(p *Parser) {
		p.disallowed = m
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(p *Parser) {
		p.observer = o
	}
}

// New creates a Parser. The route table is built once here, closing over the
// identifier lookups, and never changes afterwards.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		protocolScheme:  DefaultProtocolScheme,
		websiteHost:     DefaultWebsiteHost,
		attributionHost: DefaultAttributionHost,
		apiDomain:       idresolve.DefaultAPIDomain,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.table == nil {
		if p.placeUniverse == nil || p.universeRootPlace == nil {
			client := idresolve.NewClient(p.apiDomain, p.httpClient)
			client.Logger = p.logger
			if p.placeUniverse == nil {
				p.placeUniverse = client.PlaceUniverse
			}
			if p.universeRootPlace == nil {
				p.universeRootPlace = client.UniverseRootPlace
			}
		}
		p.table = catalog.New(catalog.Config{
			WebsiteHost:       p.websiteHost,
			PlaceUniverse:     p.placeUniverse,
			UniverseRootPlace: p.universeRootPlace,
		})
	}

	p.matcher = route.NewMatcher(p.table,
		route.WithLogger(p.logger),
		route.WithRejectHook(p.rejected),
	)

	p.logger.Debug("deep link parser ready",
		"routes", p.table.Len(),
		"protocol_scheme", p.protocolScheme,
		"website_host", p.websiteHost,
	)
	return p, nil
}

// Table returns the route table.
func (p *Parser) Table() *route.Table {
	return p.table
}

// ProtocolScheme returns the configured custom scheme.
func (p *Parser) ProtocolScheme() string {
	return p.protocolScheme
}

// WebsiteHost returns the configured website host.
func (p *Parser) WebsiteHost() string {
	return p.websiteHost
}

// AttributionHost returns the configured attribution prefix.
func (p *Parser) AttributionHost() string {
	return p.attributionHost
}

func (p *Parser) protocolPrefix() string {
	return p.protocolScheme + "://"
}

func (p *Parser) attributionPrefix() string {
	return "https://" + p.attributionHost
}

// hasPrefixFold is strings.HasPrefix ignoring ASCII case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Parse dispatches raw to the attribution, protocol or website parser based
// on its prefix.
func (p *Parser) Parse(ctx context.Context, raw string) (*Link, error) {
	switch {
	case strings.HasPrefix(raw, p.attributionPrefix()):
		return p.ParseAttribution(ctx, raw)
	case hasPrefixFold(raw, p.protocolPrefix()):
		return p.ParseProtocol(ctx, raw)
	default:
		return p.ParseWebsite(ctx, raw)
	}
}

// ParseProtocol resolves a protocol link such as
// "roblox://navigation/game_details?gameId=1".
//
// A path that contains '=' while the URL has no query component is read as
// the query string, so "roblox://placeId=1" resolves like
// "roblox://?placeId=1".
func (p *Parser) ParseProtocol(ctx context.Context, raw string) (*Link, error) {
	prefix := p.protocolPrefix()
	if !hasPrefixFold(raw, prefix) {
		return nil, route.NewNoMatchError(raw)
	}

	u, err := url.Parse(p.protocolScheme + ":///" + raw[len(prefix):])
	if err != nil {
		return nil, route.NewMalformedError(raw, err)
	}

	path := strings.TrimPrefix(u.EscapedPath(), "/")
	query := u.Query()
	if strings.Contains(path, "=") && u.RawQuery == "" && !strings.Contains(raw, "?") {
		query, _ = url.ParseQuery(path)
		path = ""
	}

	return p.match(ctx, route.SurfaceProtocol, route.Input{
		Raw:   raw,
		Path:  route.NormalizeProtocolPath(path),
		Query: query,
		URL:   u,
	})
}

// ParseWebsite resolves a website link such as
// "https://www.roblox.com/games/1818/name".
//
// The scheme must be http or https and the host must be the website host;
// a leading "www." is optional on either side. A leading locale segment
// ("/de/...", "/en-us/...") is ignored.
func (p *Parser) ParseWebsite(ctx context.Context, raw string) (*Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, route.NewMalformedError(raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, route.NewMalformedError(raw, nil)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, route.NewNoMatchError(raw)
	}
	if !sameHost(u.Hostname(), p.websiteHost) {
		return nil, route.NewNoMatchError(raw)
	}

	return p.match(ctx, route.SurfaceWebsite, route.Input{
		Raw:   raw,
		Path:  route.NormalizeWebsitePath(u.EscapedPath()),
		Query: u.Query(),
		URL:   u,
	})
}

// ParseAttribution resolves an attribution redirect link. The embedded
// protocol link (af_dp) is preferred; the website link (af_web_dp) is only
// used when af_dp is absent.
func (p *Parser) ParseAttribution(ctx context.Context, raw string) (*Link, error) {
	if !strings.HasPrefix(raw, p.attributionPrefix()) {
		return nil, route.NewNoMatchError(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, route.NewMalformedError(raw, err)
	}

	q := u.Query()
	if dp := q.Get(attrProtocolKey); dp != "" {
		return p.ParseProtocol(ctx, dp)
	}
	if webDP := q.Get(attrWebsiteKey); webDP != "" {
		return p.ParseWebsite(ctx, webDP)
	}
	return nil, route.NewNoMatchError(raw)
}

func (p *Parser) match(ctx context.Context, s route.Surface, in route.Input) (*Link, error) {
	m, err := p.matcher.Match(ctx, s, in)
	if err != nil {
		if route.IsNoMatch(err) {
			p.logger.Debug("no route matched", "surface", s, "url", in.Raw)
			if p.observer != nil {
				p.observer.Unmatched(s)
			}
		}
		return nil, err
	}

	if p.observer != nil {
		p.observer.Matched(s, m.Definition.Name)
	}
	return &Link{parser: p, def: m.Definition, params: m.Params.Clone()}, nil
}

func (p *Parser) rejected(r route.Rejection) {
	if p.observer != nil {
		p.observer.Rejected(r)
	}
}

// Create builds a Link for route name from caller-supplied values.
//
// Values are stringified; nil and empty values are dropped, as are keys the
// route does not declare and keys disallowed for the route. Returns an
// UNKNOWN_ROUTE error for an unknown name and MISSING_PARAMETER or
// INVALID_PARAMETER errors when validation fails. A record whose rendering
// would not parse back on one of the route's surfaces is MISSING_PARAMETER.
func (p *Parser) Create(name route.Name, values map[string]any) (*Link, error) {
	def, ok := p.table.Lookup(name)
	if !ok {
		return nil, route.NewUnknownRouteError(name)
	}

	strs := make(map[string]string, len(values))
	for key, value := range values {
		// Undeclared keys are dropped before they can fail stringification.
		if value == nil || !def.Declares(key) {
			continue
		}
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, route.NewInvalidParameterError(name, key, err.Error())
		}
		strs[key] = s
	}

	params, err := route.Build(def, strs, p.disallowed[name])
	if err != nil {
		return nil, err
	}
	return &Link{parser: p, def: def, params: params}, nil
}

// CreateVariant builds a Link from a typed parameter record.
func (p *Parser) CreateVariant(v catalog.Variant) (*Link, error) {
	values, err := catalog.Encode(v)
	if err != nil {
		return nil, err
	}
	return p.Create(v.Route(), values)
}

// sameHost compares hosts case-insensitively, ignoring a leading "www.".
func sameHost(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b
}
