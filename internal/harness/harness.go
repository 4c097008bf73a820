package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/route"
	"github.com/roach88/deeplink/internal/store"
	"github.com/roach88/deeplink/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	parser *deeplink.Parser
	corpus *store.Store
	logger *slog.Logger
	seq    int64
}

// NewParser builds the parser a scenario describes. Lookups never touch the
// network.
func NewParser(scenario *Scenario, logger *slog.Logger) (*deeplink.Parser, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := []deeplink.Option{
		deeplink.WithLogger(logger),
		deeplink.WithPlaceUniverseLookup(testutil.NewStaticLookup(scenario.Lookups.PlaceUniverse).Lookup),
		deeplink.WithUniverseRootPlaceLookup(testutil.NewStaticLookup(scenario.Lookups.UniverseRootPlace).Lookup),
	}
	cfg := scenario.Parser
	if cfg.ProtocolScheme != "" {
		opts = append(opts, deeplink.WithProtocolScheme(cfg.ProtocolScheme))
	}
	if cfg.WebsiteHost != "" {
		opts = append(opts, deeplink.WithWebsiteHost(cfg.WebsiteHost))
	}
	if cfg.AttributionHost != "" {
		opts = append(opts, deeplink.WithAttributionHost(cfg.AttributionHost))
	}
	if len(cfg.DisallowedParams) > 0 {
		disallowed := make(map[route.Name][]string, len(cfg.DisallowedParams))
		for name, params := range cfg.DisallowedParams {
			disallowed[route.Name(name)] = params
		}
		opts = append(opts, deeplink.WithDisallowedParams(disallowed))
	}
	return deeplink.New(opts...)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh parser and a fresh in-memory corpus.
// The returned error covers setup failures only; failed expectations and
// assertions are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := NewParser(scenario, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory corpus: %w", err)
	}
	defer st.Close()

	h := &Harness{parser: p, corpus: st, logger: logger}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Trace = append(result.Trace, event)

		if step.Expect != nil {
			for _, msg := range checkExpect(event, step.Expect) {
				result.AddError(fmt.Sprintf("step %d (%s %s): %s", i, event.Kind, event.Input, msg))
			}
		}
	}

	if err := h.verifyStable(ctx, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Parser: p, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, error) {
	h.seq++
	event := TraceEvent{Seq: h.seq, Kind: step.Kind()}

	var (
		link *deeplink.Link
		err  error
	)
	switch event.Kind {
	case KindCreate:
		event.Input = step.Create
		link, err = h.parser.Create(route.Name(step.Create), step.Params)
	default:
		event.Input = step.Parse
		link, err = h.parser.Parse(ctx, step.Parse)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return event, ctxErr
		}
		event.Error = errorLabel(err)
		h.logger.Debug("step failed", "seq", event.Seq, "kind", event.Kind, "input", event.Input, "error", err)
	} else {
		res := link.Resolution()
		event.Route = res.Route
		event.Params = res.Params
		event.ProtocolURL = res.ProtocolURL
		event.WebsiteURL = res.WebsiteURL
		event.AttributionURL = res.AttributionURL
	}

	if event.Kind == KindParse {
		if _, _, err := h.corpus.Record(ctx, event.Input, event.Route, event.Params); err != nil {
			return event, fmt.Errorf("record %q: %w", event.Input, err)
		}
	}
	return event, nil
}

// errorLabel prefers the stable error code over the message.
func errorLabel(err error) string {
	if code := route.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

// verifyStable re-resolves every parsed URL and flags any whose answer moved.
func (h *Harness) verifyStable(ctx context.Context, result *Result) error {
	report, err := h.corpus.Verify(ctx, func(ctx context.Context, raw string) (route.Name, route.Params, error) {
		link, err := h.parser.Parse(ctx, raw)
		if err != nil {
			if route.CodeOf(err) != "" {
				return "", nil, route.NewNoMatchError(raw)
			}
			return "", nil, err
		}
		return link.Route(), link.Params(), nil
	})
	if err != nil {
		return fmt.Errorf("verify corpus: %w", err)
	}
	for _, r := range report.Results {
		switch r.Outcome {
		case store.OutcomeChanged:
			result.AddError(fmt.Sprintf("unstable resolution for %s: %q %v then %q %v",
				r.Entry.URL, r.Entry.Route, r.Entry.Params, r.GotRoute, r.GotParams))
		case store.OutcomeError:
			result.AddError(fmt.Sprintf("re-resolving %s: %v", r.Entry.URL, r.Err))
		}
	}
	return nil
}

func checkExpect(event TraceEvent, want *Expect) []string {
	var errs []string
	mismatch := func(field string, want, got any) {
		errs = append(errs, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
	}

	if want.Error != "" {
		if event.Error != want.Error {
			mismatch("error", want.Error, orNone(event.Error))
		}
		return errs
	}
	if event.Error != "" {
		return []string{fmt.Sprintf("unexpected error %s", event.Error)}
	}

	if want.Route != "" && string(event.Route) != want.Route {
		mismatch("route", want.Route, event.Route)
	}
	if want.Params != nil && !maps.Equal(route.Params(want.Params), event.Params) {
		mismatch("params", want.Params, event.Params)
	}
	if want.ProtocolURL != "" && event.ProtocolURL != want.ProtocolURL {
		mismatch("protocol_url", want.ProtocolURL, orNone(event.ProtocolURL))
	}
	if want.WebsiteURL != "" && event.WebsiteURL != want.WebsiteURL {
		mismatch("website_url", want.WebsiteURL, orNone(event.WebsiteURL))
	}
	if want.AttributionURL != "" && event.AttributionURL != want.AttributionURL {
		mismatch("attribution_url", want.AttributionURL, orNone(event.AttributionURL))
	}
	return errs
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
