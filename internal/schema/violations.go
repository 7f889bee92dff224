package schema

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Violation is one failed keyword at a location in the checked document.
type Violation struct {
	// Location is a JSON pointer into the document; empty for the root.
	Location string
	// Keyword is the path of the failing keyword within its schema.
	Keyword string
	Message string
}

// ViolationError reports a document that does not satisfy a schema. Its
// message is a single line; Violations lists each failed keyword.
type ViolationError struct {
	msg        string
	Violations []Violation
	cause      *jsonschema.ValidationError
}

func newViolationError(msg string, ve *jsonschema.ValidationError) *ViolationError {
	return &ViolationError{msg: msg, Violations: violations(ve), cause: ve}
}

func (e *ViolationError) Error() string { return e.msg }

func (e *ViolationError) Unwrap() error { return e.cause }

// violations collects the leaves of the engine's error tree, in the order the
// engine reports them.
func violations(ve *jsonschema.ValidationError) []Violation {
	if ve == nil {
		return nil
	}
	if len(ve.Causes) == 0 {
		return []Violation{{
			Location: pointer(ve.InstanceLocation),
			Keyword:  pointer(ve.ErrorKind.KeywordPath()),
			Message:  ve.ErrorKind.LocalizedString(printer),
		}}
	}
	var vs []Violation
	for _, c := range ve.Causes {
		vs = append(vs, violations(c)...)
	}
	return vs
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func pointer(tokens []string) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteByte('/')
		sb.WriteString(pointerEscaper.Replace(t))
	}
	return sb.String()
}
