package store

import (
	"context"
	"fmt"
	"maps"

	"github.com/roach88/deeplink/internal/route"
)

// Resolver resolves a URL the way the corpus entries were produced.
// A route.IsNoMatch error means the URL resolves to nothing.
type Resolver func(ctx context.Context, url string) (route.Name, route.Params, error)

// Outcome classifies one verified entry.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeChanged Outcome = "changed"
	OutcomeError   Outcome = "error"
)

// Result is the verification of a single entry.
type Result struct {
	Entry     Entry
	Outcome   Outcome
	GotRoute  route.Name
	GotParams route.Params
	Err       error
}

// Report summarizes a verification pass.
type Report struct {
	Results []Result
	OK      int
	Changed int
	Errors  int
}

// Passed reports whether every entry still resolves as recorded.
func (r Report) Passed() bool {
	return r.Changed == 0 && r.Errors == 0
}

// Verify re-resolves every entry in recording order and compares the result
// with what was recorded. It stops early only when ctx is done.
func (s *Store) Verify(ctx context.Context, resolve Resolver) (Report, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}

	var report Report
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := verifyEntry(ctx, entry, resolve)
		switch res.Outcome {
		case OutcomeOK:
			report.OK++
		case OutcomeChanged:
			report.Changed++
		default:
			report.Errors++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func verifyEntry(ctx context.Context, entry Entry, resolve Resolver) Result {
	res := Result{Entry: entry}

	name, params, err := resolve(ctx, entry.URL)
	switch {
	case route.IsNoMatch(err):
		name, params = "", route.Params{}
	case err != nil:
		res.Outcome = OutcomeError
		res.Err = err
		return res
	}
	if params == nil {
		params = route.Params{}
	}

	res.GotRoute = name
	res.GotParams = params
	if name == entry.Route && maps.Equal(params, entry.Params) {
		res.Outcome = OutcomeOK
	} else {
		res.Outcome = OutcomeChanged
	}
	return res
}
