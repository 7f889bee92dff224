// Package errors provides error handling conventions for the docvalidate CLI.
//
// This package defines the validation error taxonomy as sentinel errors,
// an ExitError type for CLI exit code handling, exit code constants, and
// re-exports of the github.com/cockroachdb/errors helpers used across the
// module.
//
// # Taxonomy
//
// Errors are classified by marking them with one of the sentinels:
//
//   - ErrParse: malformed JSON/YAML or an unreadable file
//   - ErrSchemaNotFound: the governing schema could not be located
//   - ErrValidation: a document violates its schema or the OpenAPI rules
//   - ErrSchema: a schema document is itself malformed
//   - ErrUnexpected: everything else (network, permissions, limits)
//
// Use [KindOf] to map an arbitrary error to its [Kind]:
//
//	err := errors.Mark(errors.Wrap(cause, "reading instance"), errors.ErrParse)
//	errors.KindOf(err) // KindParse
//
// # Exit Codes
//
//   - ExitSuccess (0): every validation passed
//   - ExitUser (1): a validation failed or any error occurred, I/O and
//     network failures included
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. Commands return it after printing their own failure line and
// set Reported so the entry point does not print the message twice.
package errors
