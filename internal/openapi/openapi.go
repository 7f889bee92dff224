// Package openapi validates OpenAPI documents with github.com/erraggy/oastools.
package openapi

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/erraggy/oastools/parser"
	"github.com/erraggy/oastools/validator"

	"github.com/thoreinstein/docvalidate/internal/document"
	"github.com/thoreinstein/docvalidate/internal/errors"
)

// Violation is a single problem reported by the OpenAPI validator.
type Violation struct {
	// Path is the location inside the document (e.g. "paths./pets.get").
	Path string `json:"path"`
	// Message describes the problem.
	Message string `json:"message"`
	// Line is the 1-based source line, or 0 when unknown.
	Line int `json:"line,omitempty"`
	// Column is the 1-based source column, or 0 when unknown.
	Column int `json:"column,omitempty"`
}

func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d): %s", v.Path, v.Line, v.Column, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Result describes a validated OpenAPI document.
type Result struct {
	// Version is the detected OpenAPI version (e.g. "3.0.3").
	Version string
	// Errors are spec violations; any error makes the document invalid.
	Errors []Violation
	// Warnings are best-practice findings, present only when enabled.
	Warnings []Violation
}

// Validator checks documents for OpenAPI specification conformance.
type Validator struct {
	strict          bool
	includeWarnings bool
	logger          *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithStrict enables the validator's stricter best-practice checks.
func WithStrict(enabled bool) Option {
	return func(v *Validator) {
		v.strict = enabled
	}
}

// WithWarnings includes best-practice warnings in results.
func WithWarnings(enabled bool) Option {
	return func(v *Validator) {
		v.includeWarnings = enabled
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks doc as a full OpenAPI specification (2.0 or 3.x).
//
// A document the parser cannot recognise as OpenAPI, or one with violations,
// yields an error matching errors.ErrValidation. The result is returned
// alongside the error whenever validation ran.
func (v *Validator) Validate(doc *document.Document) (*Result, error) {
	parsed, err := parser.ParseWithOptions(
		parser.WithBytes(doc.Raw),
		parser.WithSourceName(doc.Path),
		parser.WithSourceMap(true),
	)
	if err != nil {
		return nil, errors.Mark(
			errors.Newf("%s is not a valid OpenAPI specification: %v", doc.Path, err),
			errors.ErrValidation)
	}

	v.logger.Debug("parsed OpenAPI document", "path", doc.Path, "version", parsed.Version)

	vr, err := validator.ValidateWithOptions(
		validator.WithParsed(*parsed),
		validator.WithStrictMode(v.strict),
		validator.WithIncludeWarnings(v.includeWarnings),
		validator.WithSourceMap(parsed.SourceMap),
	)
	if err != nil {
		return nil, errors.Mark(
			errors.Newf("%s is not a valid OpenAPI specification: %v", doc.Path, err),
			errors.ErrValidation)
	}

	res := &Result{
		Version:  vr.Version,
		Errors:   convert(vr.Errors),
		Warnings: convert(vr.Warnings),
	}
	if !vr.Valid {
		return res, errors.Mark(
			errors.Newf("%s is not a valid OpenAPI specification: %s", doc.Path, summarize(res.Errors)),
			errors.ErrValidation)
	}
	return res, nil
}

func convert(in []validator.ValidationError) []Violation {
	if len(in) == 0 {
		return nil
	}
	out := make([]Violation, 0, len(in))
	for _, e := range in {
		out = append(out, Violation{
			Path:    e.Path,
			Message: e.Message,
			Line:    e.Line,
			Column:  e.Column,
		})
	}
	return out
}

// summarize renders the first violation plus a count of the rest.
func summarize(vs []Violation) string {
	switch len(vs) {
	case 0:
		return "validation failed"
	case 1:
		return vs[0].String()
	default:
		var sb strings.Builder
		sb.WriteString(vs[0].String())
		fmt.Fprintf(&sb, " (and %d more)", len(vs)-1)
		return sb.String()
	}
}
