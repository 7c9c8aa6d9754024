package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario's name.
	Scenario string `json:"scenario"`

	// Pass indicates overall success: every query matched its expectation.
	Pass bool `json:"pass"`

	// Queries holds one outcome per query, in scenario order.
	Queries []QueryOutcome `json:"queries"`

	// Errors contains mismatch messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// QueryOutcome is what one query produced.
type QueryOutcome struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// Got is the EDN rendering of the results, empty if the query failed.
	Got string `json:"got,omitempty"`

	// Len is the number of result elements.
	Len int `json:"len"`

	// Code is the error code if the query failed.
	Code string `json:"code,omitempty"`

	// Error is the error message if the query failed.
	Error string `json:"error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Queries:  []QueryOutcome{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addOutcome records a query outcome, failing the result with msg if the
// outcome did not match.
func (r *Result) addOutcome(o QueryOutcome, msg string) {
	r.Queries = append(r.Queries, o)
	if !o.Pass {
		r.AddError(msg)
	}
}
