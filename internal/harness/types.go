package harness

import "encoding/json"

// StepTrace records what one step did: the kind of step, what it named,
// and the wire-form ops the pass produced.
type StepTrace struct {
	Step      int               `json:"step"`
	Kind      string            `json:"kind"` // "invoke", "event", "tick", "advance"
	Name      string            `json:"name,omitempty"`
	At        string            `json:"at"`
	Ops       []json.RawMessage `json:"ops,omitempty"`
	Scheduled int               `json:"scheduled,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one entry per executed step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	// FinalContext is the trip's stored context after the last step.
	FinalContext map[string]any `json:"final_context,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []StepTrace{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
