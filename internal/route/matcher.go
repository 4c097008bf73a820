package route

import (
	"context"
	"io"
	"log/slog"
	"net/url"
)

// Input is one normalized URL ready for matching.
type Input struct {
	// Raw is the original URL, used in errors.
	Raw string

	// Path is the normalized path (see NormalizeWebsitePath and
	// NormalizeProtocolPath).
	Path string

	// Query holds the query-string values.
	Query url.Values

	// URL is the parsed URL handed to transform hooks (fragment included).
	URL *url.URL
}

// RejectReason explains why a candidate pattern was skipped.
type RejectReason string

const (
	RejectPath             RejectReason = "path"
	RejectMissingRequired  RejectReason = "missing_required"
	RejectInvalidFormat    RejectReason = "invalid_format"
	RejectGroupUnsatisfied RejectReason = "group_unsatisfied"
	RejectTransform        RejectReason = "transform"
)

// Rejection describes a candidate whose regex matched but which was dropped.
type Rejection struct {
	Surface Surface
	Route   Name
	Pattern int
	Reason  RejectReason
	Param   string
	Err     error
}

// Match is the surviving candidate.
type Match struct {
	Definition *Definition
	Pattern    int
	Params     Params
}

// Matcher finds the first route of a Table that accepts an Input.
type Matcher struct {
	table    *Table
	logger   *slog.Logger
	onReject func(Rejection)
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithLogger sets the logger used for candidate diagnostics.
func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRejectHook registers fn to be called for every rejected candidate.
func WithRejectHook(fn func(Rejection)) MatcherOption {
	return func(m *Matcher) {
		m.onReject = fn
	}
}

// NewMatcher creates a Matcher over t.
func NewMatcher(t *Table, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		table:  t,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Table returns the table the matcher scans.
func (m *Matcher) Table() *Table {
	return m.table
}

// Match scans the table for surface s and returns the first surviving
// candidate.
//
// Candidates are consumed one at a time. A transform hook that rejects (or
// fails) does not end the scan: the next pattern, then the next route, is
// tried. Returns a NO_MATCH *Error when the table is exhausted, or the
// context error if ctx is done before a candidate survives.
func (m *Matcher) Match(ctx context.Context, s Surface, in Input) (*Match, error) {
	var (
		current *Definition
		index   int
	)

	for def, pattern := range m.table.Candidates(s) {
		if def != current {
			current, index = def, 0
		} else {
			index++
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params, rej := matchPattern(pattern, in)
		if rej != nil {
			if rej.Reason != RejectPath {
				m.reject(s, def, index, rej)
			}
			continue
		}

		if transform := def.Transform(s); transform != nil {
			out, err := transform(ctx, params, in.URL)
			if err != nil || out == nil {
				m.reject(s, def, index, &Rejection{Reason: RejectTransform, Err: err})
				continue
			}
			params = out
		}

		m.logger.Debug("route matched",
			"surface", s,
			"route", def.Name,
			"pattern", index,
		)
		return &Match{Definition: def, Pattern: index, Params: params}, nil
	}

	// A transform may have been cut short by ctx on the last candidate.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, NewNoMatchError(in.Raw)
}

func (m *Matcher) reject(s Surface, def *Definition, index int, rej *Rejection) {
	rej.Surface = s
	rej.Route = def.Name
	rej.Pattern = index

	m.logger.Debug("candidate rejected",
		"surface", s,
		"route", def.Name,
		"pattern", index,
		"reason", rej.Reason,
		"param", rej.Param,
		"error", rej.Err,
	)
	if m.onReject != nil {
		m.onReject(*rej)
	}
}

// matchPattern applies one pattern to in. It returns the extracted raw
// parameters, or a Rejection explaining why the pattern does not apply.
func matchPattern(p *Pattern, in Input) (Params, *Rejection) {
	sub := p.Regex.FindStringSubmatchIndex(in.Path)
	if sub == nil {
		return nil, &Rejection{Reason: RejectPath}
	}

	params := Params{}

	if len(p.Path) > 0 {
		if !hasNamedGroups(p) {
			return nil, &Rejection{Reason: RejectPath}
		}
		for _, pp := range p.Path {
			i := p.Regex.SubexpIndex(pp.Name)
			if i < 0 || sub[2*i] < 0 {
				continue
			}
			if v := in.Path[sub[2*i]:sub[2*i+1]]; v != "" {
				params[pp.Name] = v
			}
		}
	}

	// Groups seen in this pattern, and whether any member matched.
	groups := map[string]bool{}
	for _, q := range p.Query {
		if q.Group != "" {
			if _, seen := groups[q.Group]; !seen {
				groups[q.Group] = false
			}
		}

		value := in.Query.Get(q.Name)
		if value == "" {
			if q.Required && !(q.Group != "" && groups[q.Group]) {
				return nil, &Rejection{Reason: RejectMissingRequired, Param: q.Name}
			}
			continue
		}

		if q.Format != nil && !q.Format.MatchString(value) {
			return nil, &Rejection{Reason: RejectInvalidFormat, Param: q.Name}
		}

		if q.Group != "" {
			groups[q.Group] = true
		}
		params[q.Key()] = value
	}

	for group, ok := range groups {
		if !ok {
			return nil, &Rejection{Reason: RejectGroupUnsatisfied, Param: group}
		}
	}

	return params, nil
}

func hasNamedGroups(p *Pattern) bool {
	for _, name := range p.Regex.SubexpNames() {
		if name != "" {
			return true
		}
	}
	return false
}
