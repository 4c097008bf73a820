package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deeplink/internal/route"
)

func TestRun_ScenarioFiles(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Steps))
		})
	}
}

func TestRunWithGolden_BasicResolution(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "basic-resolution.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_TraceEvents(t *testing.T) {
	s := &Scenario{
		Name:        "trace",
		Description: "trace",
		Steps: []Step{
			{Parse: "roblox://navigation/home"},
			{Parse: "roblox://navigation/nowhere"},
			{Create: "itemDetails"},
			{Create: "noSuchRoute"},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 4)

	home := result.Trace[0]
	assert.Equal(t, int64(1), home.Seq)
	assert.Equal(t, KindParse, home.Kind)
	assert.Equal(t, route.Name("home"), home.Route)
	assert.Equal(t, "roblox://navigation/home", home.ProtocolURL)
	assert.True(t, home.Resolved())

	assert.Equal(t, "NO_MATCH", result.Trace[1].Error)
	assert.Equal(t, "MISSING_PARAMETER", result.Trace[2].Error)
	assert.Equal(t, KindCreate, result.Trace[2].Kind)
	assert.Equal(t, "UNKNOWN_ROUTE", result.Trace[3].Error)

	// No expectations, no assertions: errors in steps are not failures.
	assert.True(t, result.Pass)
}

func TestRun_ExpectMismatch(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "mismatch",
		Steps: []Step{
			{Parse: "roblox://navigation/home", Expect: &Expect{Route: "chat"}},
			{Parse: "roblox://navigation/nowhere", Expect: &Expect{Route: "home"}},
			{Parse: "roblox://navigation/home", Expect: &Expect{Error: "NO_MATCH"}},
			{Parse: "roblox://navigation/home", Expect: &Expect{Params: map[string]string{"x": "1"}}},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "route: expected chat, got home")
	assert.Contains(t, result.Errors[1], "unexpected error NO_MATCH")
	assert.Contains(t, result.Errors[2], "error: expected NO_MATCH, got (none)")
	assert.Contains(t, result.Errors[3], "params")
}

func TestRun_FailedAssertion(t *testing.T) {
	s := &Scenario{
		Name:        "count",
		Description: "count",
		Steps:       []Step{{Parse: "roblox://navigation/home"}},
		Assertions:  []Assertion{{Type: AssertTraceCount, Route: "home", Count: 2}},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2 occurrences of home")
}

func TestRun_RoundTripFailure(t *testing.T) {
	// The website form of externalWebLink lives on the help host and does
	// not resolve back.
	s := &Scenario{
		Name:        "round-trip",
		Description: "round-trip",
		Steps: []Step{
			{Create: "externalWebLink", Params: map[string]any{"domain": "zendesk", "locale": "en-us", "articleId": 123}},
		},
		Assertions: []Assertion{{Type: AssertRoundTrip, Surfaces: []string{"website"}}},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.True(t, result.Trace[0].Resolved(), result.Trace[0].Error)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: round_trip")
}

func TestRun_CancelledContext(t *testing.T) {
	s := &Scenario{
		Name:        "cancelled",
		Description: "cancelled",
		Steps:       []Step{{Parse: "roblox://navigation/home"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshot_Deterministic(t *testing.T) {
	result := &Result{Trace: []TraceEvent{
		{Seq: 1, Kind: KindParse, Input: "roblox://navigation/home", Route: "home", ProtocolURL: "roblox://navigation/home"},
		{Seq: 2, Kind: KindParse, Input: "x", Error: "MALFORMED_URL"},
	}}

	got, err := Snapshot("s", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"s","trace":[`+
			`{"input":"roblox://navigation/home","kind":"parse","params":{},"protocol_url":"roblox://navigation/home","route":"home","seq":1},`+
			`{"error":"MALFORMED_URL","input":"x","kind":"parse","seq":2}]}`,
		string(got))
}
