package harness

import "github.com/roach88/deeplink/internal/route"

// Step kinds.
const (
	KindParse  = "parse"
	KindCreate = "create"
)

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Seq            int64        `json:"seq"`
	Kind           string       `json:"kind"`
	Input          string       `json:"input"`
	Route          route.Name   `json:"route,omitempty"`
	Params         route.Params `json:"params,omitempty"`
	ProtocolURL    string       `json:"protocol_url,omitempty"`
	WebsiteURL     string       `json:"website_url,omitempty"`
	AttributionURL string       `json:"attribution_url,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// Resolved reports whether the step produced a link.
func (e TraceEvent) Resolved() bool {
	return e.Error == ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
