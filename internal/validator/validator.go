package validator

import (
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/rule"
)

// Severity represents the impact of a validation issue.
type Severity int

const (
	// SeverityError indicates a blocking validation failure.
	SeverityError Severity = iota
	// SeverityWarning indicates a recommended but non-blocking issue.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue represents a single problem found inside a document.
type Issue struct {
	// Severity indicates the impact of the issue.
	Severity Severity `json:"severity"`
	// Field is the location inside the document (optional).
	Field string `json:"field,omitempty"`
	// Message is a human-readable description of the problem.
	Message string `json:"message"`
	// Context is additional detail such as source line numbers.
	Context map[string]string `json:"context,omitempty"`
}

// Status is the tri-state result of validating one file.
type Status int

const (
	// StatusSuccess means the document passed.
	StatusSuccess Status = iota
	// StatusFailure means the document (or its schema) is wrong.
	StatusFailure
	// StatusError means validation could not be carried out.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of validating a single file.
type Outcome struct {
	// Path is the validated file.
	Path string
	// Rule is the rule that was applied.
	Rule rule.Rule
	// Status is success, failure or error.
	Status Status
	// Kind classifies a non-success outcome. It is meaningless on success.
	Kind errors.Kind
	// Message is a one-line description naming the path.
	Message string
	// Schema is the governing schema, when one was involved.
	Schema string
	// Issues holds finer-grained findings.
	Issues []Issue
	// Err is the underlying error of a non-success outcome.
	Err error
}

// Succeeded builds a success outcome.
func Succeeded(path string, r rule.Rule, message string) Outcome {
	return Outcome{
		Path:    path,
		Rule:    r,
		Status:  StatusSuccess,
		Message: message,
	}
}

// Failed converts err into an outcome. Errors carrying a taxonomy kind are
// failures; anything else is an unexpected error. A nil err is a success with
// no message.
func Failed(path string, r rule.Rule, err error) Outcome {
	if err == nil {
		return Succeeded(path, r, "")
	}
	kind := errors.KindOf(err)
	status := StatusFailure
	if kind == errors.KindUnexpected {
		status = StatusError
	}
	return Outcome{
		Path:    path,
		Rule:    r,
		Status:  status,
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// AddError adds an error issue to the outcome. context may be nil.
func (o *Outcome) AddError(field, message string, context map[string]string) {
	o.Issues = append(o.Issues, Issue{
		Severity: SeverityError,
		Field:    field,
		Message:  message,
		Context:  context,
	})
}

// AddWarning adds a warning issue to the outcome.
func (o *Outcome) AddWarning(field, message string, context map[string]string) {
	o.Issues = append(o.Issues, Issue{
		Severity: SeverityWarning,
		Field:    field,
		Message:  message,
		Context:  context,
	})
}

// Errors returns the issues with SeverityError.
func (o Outcome) Errors() []Issue {
	return o.filter(SeverityError)
}

// Warnings returns the issues with SeverityWarning.
func (o Outcome) Warnings() []Issue {
	return o.filter(SeverityWarning)
}

func (o Outcome) filter(s Severity) []Issue {
	var res []Issue
	for _, i := range o.Issues {
		if i.Severity == s {
			res = append(res, i)
		}
	}
	return res
}

// Summary aggregates the outcomes of a run over many files.
type Summary struct {
	// Root is the directory that was walked. Empty for single-file runs.
	Root string
	// Checked counts dispatched files.
	Checked int
	// Passed counts successful outcomes.
	Passed int
	// Failed counts failure and error outcomes.
	Failed int
	// Skipped counts files no rule applies to.
	Skipped int
	// Outcomes lists every dispatched file in walk order.
	Outcomes []Outcome
	// Err is nil on full success; otherwise it holds the first failure
	// (fail-fast) or all of them combined (collect-all).
	Err error
}

// Add records an outcome and updates the counters.
func (s *Summary) Add(o Outcome) {
	s.Checked++
	if o.OK() {
		s.Passed++
	} else {
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// OK reports whether the run had no failures.
func (s *Summary) OK() bool {
	return s.Err == nil && s.Failed == 0
}
