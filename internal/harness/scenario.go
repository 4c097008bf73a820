package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Parser overrides the parser defaults.
	Parser ParserConfig `yaml:"parser,omitempty"`

	// Lookups answer identifier lookups. Unknown IDs fail the lookup.
	Lookups Lookups `yaml:"lookups,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace.
	// Supported types: trace_contains, trace_order, trace_count, round_trip
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ParserConfig mirrors the parser options a scenario may set.
type ParserConfig struct {
	ProtocolScheme   string              `yaml:"protocol_scheme,omitempty"`
	WebsiteHost      string              `yaml:"website_host,omitempty"`
	AttributionHost  string              `yaml:"attribution_host,omitempty"`
	DisallowedParams map[string][]string `yaml:"disallowed_params,omitempty"`
}

// Lookups are static identifier answers.
type Lookups struct {
	PlaceUniverse     map[int64]int64 `yaml:"place_universe,omitempty"`
	UniverseRootPlace map[int64]int64 `yaml:"universe_root_place,omitempty"`
}

// Step is either a parse or a create. Exactly one of Parse and Create is set.
type Step struct {
	// Parse is a URL on any surface.
	Parse string `yaml:"parse,omitempty"`

	// Create is a route name; Params are its raw values.
	Create string         `yaml:"create,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`

	// Expect is checked against the step's outcome. Nil skips the check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Kind returns "parse" or "create".
func (s Step) Kind() string {
	if s.Create != "" {
		return KindCreate
	}
	return KindParse
}

// Expect specifies the expected outcome of a step. Only set fields are
// compared, except Params, which must match exactly when present.
type Expect struct {
	Route          string            `yaml:"route,omitempty"`
	Params         map[string]string `yaml:"params,omitempty"`
	Error          string            `yaml:"error,omitempty"`
	ProtocolURL    string            `yaml:"protocol_url,omitempty"`
	WebsiteURL     string            `yaml:"website_url,omitempty"`
	AttributionURL string            `yaml:"attribution_url,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a resolved step has Route and a superset of Params
	// - "trace_order": Routes first appear in this order
	// - "trace_count": Route resolves exactly Count times
	// - "round_trip": every resolved link re-parses from its rendered URLs
	Type string `yaml:"type"`

	Route  string            `yaml:"route,omitempty"`
	Params map[string]string `yaml:"params,omitempty"`
	Routes []string          `yaml:"routes,omitempty"`
	Count  int               `yaml:"count,omitempty"`

	// Surfaces limits round_trip to "protocol" or "website". Empty means both.
	Surfaces []string `yaml:"surfaces,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRoundTrip     = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Parse == "" && step.Create == "":
			return fmt.Errorf("steps[%d]: one of parse or create is required", i)
		case step.Parse != "" && step.Create != "":
			return fmt.Errorf("steps[%d]: parse and create are mutually exclusive", i)
		case step.Parse != "" && step.Params != nil:
			return fmt.Errorf("steps[%d]: params only apply to create", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && (e.Route != "" || e.Params != nil) {
			return fmt.Errorf("steps[%d].expect: error excludes route and params", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Route == "" {
			return fmt.Errorf("assertions[%d]: route is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Routes) == 0 {
			return fmt.Errorf("assertions[%d]: routes list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Route == "" {
			return fmt.Errorf("assertions[%d]: route is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRoundTrip:
		for _, s := range a.Surfaces {
			if s != "protocol" && s != "website" {
				return fmt.Errorf("assertions[%d]: unknown surface %q for round_trip", index, s)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
