package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a validation failure or any other error, including
	// I/O and network problems.
	ExitUser = 1
)

// Sentinel errors for the validation error taxonomy.
var (
	// ErrParse indicates a document is not syntactically valid JSON or YAML,
	// or could not be read at all.
	ErrParse = crdb.New("parse error")

	// ErrSchemaNotFound indicates the schema governing an instance could not
	// be located, either via $schema or the fallback convention.
	ErrSchemaNotFound = crdb.New("schema not found")

	// ErrValidation indicates a document violates its schema or specification.
	ErrValidation = crdb.New("validation failed")

	// ErrSchema indicates a schema document is itself malformed.
	ErrSchema = crdb.New("invalid schema")

	// ErrUnexpected is the catch-all for I/O, network and permission problems.
	ErrUnexpected = crdb.New("unexpected error")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdb.New("invalid configuration")
)

// Re-exported helpers from github.com/cockroachdb/errors so callers only
// import this package.
var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As
	Mark  = crdb.Mark
)

// Kind classifies an error into the validation taxonomy.
type Kind int

const (
	// KindUnexpected is the catch-all kind.
	KindUnexpected Kind = iota
	// KindParse marks malformed JSON/YAML.
	KindParse
	// KindSchemaNotFound marks schema resolution failures.
	KindSchemaNotFound
	// KindValidation marks documents violating their schema or spec.
	KindValidation
	// KindSchema marks malformed schema documents.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindSchemaNotFound:
		return "SchemaNotFound"
	case KindValidation:
		return "ValidationFailure"
	case KindSchema:
		return "SchemaError"
	default:
		return "UnexpectedError"
	}
}

// MarshalText renders the kind by name so JSON reports stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf returns the taxonomy kind carried by err. Errors that were never
// marked with one of the sentinels are unexpected.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnexpected
	case crdb.Is(err, ErrParse):
		return KindParse
	case crdb.Is(err, ErrSchemaNotFound):
		return KindSchemaNotFound
	case crdb.Is(err, ErrSchema):
		return KindSchema
	case crdb.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindUnexpected
	}
}

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string

	// Reported is true when the failure was already printed, so the
	// entry point should not print it again.
	Reported bool
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewReportedError creates an ExitError with ExitUser code for a failure
// that has already been written to the output.
func NewReportedError(err error) *ExitError {
	return &ExitError{
		Err:      err,
		Code:     ExitUser,
		Reported: true,
	}
}

// NewUnexpectedError creates an ExitError with ExitUser code for a failure
// outside the validation taxonomy, such as an unwritable report file.
func NewUnexpectedError(err error) *ExitError {
	return NewExitError(crdb.Mark(err, ErrUnexpected), ExitUser)
}

// NewConfigError creates an ExitError with ExitUser code and a standard suggestion.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        crdb.Mark(err, ErrInvalidConfig),
		Code:       ExitUser,
		Suggestion: "Check docvalidate.yaml and DOCVALIDATE_* environment variables",
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
