package route

import (
	"maps"
	"regexp"
	"regexp/syntax"
	"slices"
	"strings"
)

// declaration is what a definition's patterns say about its parameters.
type declaration struct {
	// formats maps every declared key to the formats it must satisfy.
	formats map[string][]Format

	// required lists keys marked Required by any pattern, first-seen order.
	required []string
}

func declare(def *Definition) declaration {
	d := declaration{formats: map[string][]Format{}}
	seenRequired := map[string]bool{}

	for _, s := range []Surface{SurfaceProtocol, SurfaceWebsite} {
		for _, p := range def.Patterns(s) {
			for _, pp := range p.Path {
				if _, ok := d.formats[pp.Name]; !ok {
					d.formats[pp.Name] = nil
				}
			}
			for _, q := range p.Query {
				key := q.Key()
				if _, ok := d.formats[key]; !ok {
					d.formats[key] = nil
				}
				if q.Format != nil {
					d.formats[key] = append(d.formats[key], q.Format)
				}
				if q.Required && !seenRequired[key] {
					seenRequired[key] = true
					d.required = append(d.required, key)
				}
			}
		}
	}
	for key := range def.Arbitrary {
		if _, ok := d.formats[key]; !ok {
			d.formats[key] = nil
		}
	}
	return d
}

// Declares reports whether key is read by one of def's patterns (by canonical
// name) or listed among its arbitrary parameters.
func (d *Definition) Declares(key string) bool {
	_, ok := declare(d).formats[key]
	return ok
}

// Build turns caller-supplied values into a validated parameter record for
// def. It is the inverse entry point of Match.
//
// Only keys declared by one of the route's patterns (by canonical name) or by
// its arbitrary-parameter list are kept; keys listed in disallowed are
// dropped, as are empty values. Every kept value must satisfy each format
// declared for its key, and every key marked Required by any pattern must be
// present.
//
// A surface that is both rendered and parsed must also read back: its
// template may not leave a path placeholder empty, and at least one of its
// patterns has to accept the record (see accepts).
func Build(def *Definition, values map[string]string, disallowed []string) (Params, error) {
	d := declare(def)

	drop := make(map[string]bool, len(disallowed))
	for _, key := range disallowed {
		drop[key] = true
	}

	params := Params{}
	for key, value := range values {
		formats, ok := d.formats[key]
		if !ok || drop[key] || value == "" {
			continue
		}
		for _, f := range formats {
			if !f.MatchString(value) {
				return nil, NewInvalidParameterError(def.Name, key, value)
			}
		}
		params[key] = value
	}

	for _, key := range d.required {
		if params[key] == "" {
			return nil, NewMissingParameterError(def.Name, key)
		}
	}

	for _, s := range []Surface{SurfaceProtocol, SurfaceWebsite} {
		if missing := unreadable(def, s, params); missing != "" {
			return nil, NewMissingParameterError(def.Name, missing)
		}
	}

	return params, nil
}

// unreadable returns the first key params lacks for the rendering of s to
// parse back, or "" when nothing is missing. Surfaces without a template or
// without patterns are not checked.
func unreadable(def *Definition, s Surface, params Params) string {
	tpl := def.Template(s)
	patterns := def.Patterns(s)
	if tpl == nil || len(patterns) == 0 {
		return ""
	}

	// Placeholders in the fragment may render empty.
	path, _, _ := strings.Cut(tpl(params), "#")
	for _, token := range placeholder.FindAllString(path, -1) {
		if key := strings.Trim(token, "{}"); params[key] == "" {
			return key
		}
	}

	transformed := def.Transform(s) != nil
	var first string
	for i := range patterns {
		missing := accepts(&patterns[i], params, transformed)
		if missing == "" {
			return ""
		}
		if first == "" {
			first = missing
		}
	}
	return first
}

// accepts mirrors matchPattern against a parameter record. It returns the
// first key the pattern would find missing, or "" if it would match.
//
// Path captures are only checked when the surface has no transform, since a
// transform may rename them.
func accepts(p *Pattern, params Params, transformed bool) string {
	if !transformed {
		mandatory := mandatoryCaptures(p.Regex)
		for _, pp := range p.Path {
			if mandatory[pp.Name] && params[pp.Name] == "" {
				return pp.Name
			}
		}
	}

	groups := map[string]bool{}
	firstMember := map[string]string{}
	for _, q := range p.Query {
		key := q.Key()
		if q.Group != "" {
			if _, seen := groups[q.Group]; !seen {
				groups[q.Group] = false
				firstMember[q.Group] = key
			}
		}
		if params[key] == "" {
			if q.Required && !(q.Group != "" && groups[q.Group]) {
				return key
			}
			continue
		}
		if q.Group != "" {
			groups[q.Group] = true
		}
	}

	for _, group := range slices.Sorted(maps.Keys(groups)) {
		if !groups[group] {
			return firstMember[group]
		}
	}
	return ""
}

// mandatoryCaptures returns the named groups of re that take part in every
// match. A group under ?, *, {0,n} or one branch of an alternation is
// optional.
func mandatoryCaptures(re *regexp.Regexp) map[string]bool {
	tree, err := syntax.Parse(re.String(), syntax.Perl)
	if err != nil {
		return nil
	}

	out := map[string]bool{}
	var walk func(r *syntax.Regexp, optional bool)
	walk = func(r *syntax.Regexp, optional bool) {
		switch r.Op {
		case syntax.OpQuest, syntax.OpStar, syntax.OpAlternate:
			optional = true
		case syntax.OpRepeat:
			optional = optional || r.Min == 0
		case syntax.OpCapture:
			if r.Name != "" && !optional {
				out[r.Name] = true
			}
		}
		for _, sub := range r.Sub {
			walk(sub, optional)
		}
	}
	walk(tree, false)
	return out
}

// Summary is a flat description of a route for listings.
type Summary struct {
	Name             Name     `json:"name" yaml:"name"`
	ProtocolPatterns int      `json:"protocol_patterns" yaml:"protocol_patterns"`
	WebsitePatterns  int      `json:"website_patterns" yaml:"website_patterns"`
	ProtocolURL      bool     `json:"protocol_url" yaml:"protocol_url"`
	WebsiteURL       bool     `json:"website_url" yaml:"website_url"`
	Required         []string `json:"required,omitempty" yaml:"required,omitempty"`
	Optional         []string `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Describe summarizes def. Optional keys are sorted.
func Describe(def *Definition) Summary {
	d := declare(def)

	required := map[string]bool{}
	for _, key := range d.required {
		required[key] = true
	}
	var optional []string
	for key := range d.formats {
		if !required[key] {
			optional = append(optional, key)
		}
	}
	slices.Sort(optional)

	return Summary{
		Name:             def.Name,
		ProtocolPatterns: len(def.ProtocolPatterns),
		WebsitePatterns:  len(def.WebsitePatterns),
		ProtocolURL:      def.ToProtocol != nil,
		WebsiteURL:       def.ToWebsite != nil,
		Required:         d.required,
		Optional:         optional,
	}
}
