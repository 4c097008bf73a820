package deeplink

import (
	"net/url"
	"strings"

	"github.com/roach88/deeplink/internal/catalog"
	"github.com/roach88/deeplink/internal/route"
)

// Link is a resolved deep link: a route and its validated parameters.
// Links are immutable.
type Link struct {
	parser *Parser
	def    *route.Definition
	params route.Params
}

// Route returns the route name.
func (l *Link) Route() route.Name {
	return l.def.Name
}

// Params returns a copy of the canonical parameters.
func (l *Link) Params() route.Params {
	return l.params.Clone()
}

// Variant returns the typed parameter record. It fails for routes that are
// not part of the built-in catalog.
func (l *Link) Variant() (catalog.Variant, error) {
	return catalog.Decode(l.def.Name, l.params)
}

// ProtocolURL renders the link as a protocol URL. It returns false when the
// route has no protocol form.
func (l *Link) ProtocolURL() (string, bool) {
	ref, ok := route.Render(l.def, route.SurfaceProtocol, l.params)
	if !ok {
		return "", false
	}
	return l.parser.protocolPrefix() + ref, true
}

// WebsiteURL renders the link as a website URL. It returns false when the
// route has no website form.
func (l *Link) WebsiteURL() (string, bool) {
	ref, ok := route.Render(l.def, route.SurfaceWebsite, l.params)
	if !ok {
		return "", false
	}
	if isAbsolute(ref) {
		return ref, true
	}
	return "https://" + l.parser.websiteHost + ref, true
}

// AttributionURL wraps the protocol and website URLs into an attribution
// redirect. It returns false only when the route has neither form.
func (l *Link) AttributionURL() (string, bool) {
	protocolURL, hasProtocol := l.ProtocolURL()
	websiteURL, hasWebsite := l.WebsiteURL()
	if !hasProtocol && !hasWebsite {
		return "", false
	}

	var b strings.Builder
	b.WriteString(l.parser.attributionPrefix())

	sep := byte('?')
	add := func(key, value string) {
		b.WriteByte(sep)
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
		sep = '&'
	}
	if hasProtocol {
		add(attrProtocolKey, protocolURL)
		add(attrLegacyProtocolKey, protocolURL)
	}
	if hasWebsite {
		add(attrWebsiteKey, websiteURL)
	}
	return b.String(), true
}

// Resolution is the flat, serializable view of a Link.
type Resolution struct {
	Route          route.Name   `json:"route" yaml:"route"`
	Params         route.Params `json:"params" yaml:"params"`
	ProtocolURL    string       `json:"protocol_url,omitempty" yaml:"protocol_url,omitempty"`
	WebsiteURL     string       `json:"website_url,omitempty" yaml:"website_url,omitempty"`
	AttributionURL string       `json:"attribution_url,omitempty" yaml:"attribution_url,omitempty"`
}

// Resolution renders every surface of the link.
func (l *Link) Resolution() Resolution {
	r := Resolution{Route: l.Route(), Params: l.Params()}
	r.ProtocolURL, _ = l.ProtocolURL()
	r.WebsiteURL, _ = l.WebsiteURL()
	r.AttributionURL, _ = l.AttributionURL()
	return r
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}
