package harness

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/route"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Resolved() {
				fmt.Fprintf(&buf, "  [%d] %s %s -> %s %v\n", event.Seq, event.Kind, event.Input, event.Route, event.Params)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Kind, event.Input, event.Error)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks for a resolved event with the route whose
// params contain the expected ones (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Resolved() && string(event.Route) == assertion.Route && matchParams(event.Params, assertion.Params) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("route %s with params %v", assertion.Route, assertion.Params),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that routes first appear in the given order.
// Intervening events are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if !event.Resolved() {
			continue
		}
		name := string(event.Route)
		if positions[name] == 0 {
			positions[name] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range assertion.Routes {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all routes present: %v", assertion.Routes),
				Actual:   fmt.Sprintf("missing route: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Routes); i++ {
		prev := assertion.Routes[i-1]
		curr := assertion.Routes[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("routes in order: %v", assertion.Routes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the route resolved exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Resolved() && string(event.Route) == assertion.Route {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Route),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertRoundTrip re-parses the rendered URLs of every resolved event and
// checks they lead back to the same route and params.
func assertRoundTrip(ctx context.Context, p *deeplink.Parser, trace []TraceEvent, assertion Assertion) error {
	surfaces := assertion.Surfaces
	if len(surfaces) == 0 {
		surfaces = []string{string(route.SurfaceProtocol), string(route.SurfaceWebsite)}
	}

	for _, event := range trace {
		if !event.Resolved() {
			continue
		}
		for _, surface := range surfaces {
			raw := event.ProtocolURL
			if surface == string(route.SurfaceWebsite) {
				raw = event.WebsiteURL
			}
			if raw == "" {
				continue
			}

			link, err := p.Parse(ctx, raw)
			if err != nil {
				return &AssertionError{
					Type:     AssertRoundTrip,
					Expected: fmt.Sprintf("%s resolves to %s", raw, event.Route),
					Actual:   errorLabel(err),
					Trace:    trace,
				}
			}
			if link.Route() != event.Route || !maps.Equal(link.Params(), event.Params) {
				return &AssertionError{
					Type:     AssertRoundTrip,
					Expected: fmt.Sprintf("%s resolves to %s %v", raw, event.Route, event.Params),
					Actual:   fmt.Sprintf("%s %v", link.Route(), link.Params()),
					Trace:    trace,
				}
			}
		}
	}
	return nil
}

// matchParams checks actual contains every expected key and value.
func matchParams(actual route.Params, expected map[string]string) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// AssertionContext provides what round_trip assertions need.
type AssertionContext struct {
	Parser *deeplink.Parser
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertRoundTrip:
			if actx == nil || actx.Parser == nil {
				err = fmt.Errorf("assertion[%d]: round_trip requires a parser", i)
			} else {
				err = assertRoundTrip(actx.Ctx, actx.Parser, result.Trace, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
