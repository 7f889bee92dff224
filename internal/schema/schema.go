package schema

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"

	"github.com/thoreinstein/docvalidate/internal/document"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/resolve"
)

// Draft202012URL is the canonical location of the Draft 2020-12 metaschema.
const Draft202012URL = "https://json-schema.org/draft/2020-12/schema"

// Validator checks schemas and validates instances against them.
type Validator struct {
	fs     afero.Fs
	meta   MetaschemaSource
	logger *slog.Logger
	remote httpLoader
}

// Option configures a Validator.
type Option func(*Validator)

// WithHTTPClient sets the client fetching http(s) $ref targets.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) {
		v.remote.client = c
	}
}

// WithFetchTimeout bounds each http(s) $ref download.
func WithFetchTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.remote.timeout = d
		}
	}
}

// NewValidator creates a Validator loading file $ref targets from fs and
// http(s) ones over the network. A nil meta uses the bundled metaschema.
func NewValidator(fs afero.Fs, meta MetaschemaSource, logger *slog.Logger, opts ...Option) *Validator {
	if meta == nil {
		meta = Bundled{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := &Validator{
		fs:     fs,
		meta:   meta,
		logger: logger,
		remote: httpLoader{client: http.DefaultClient, timeout: DefaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.remote.logger = logger
	return v
}

// CheckSchema verifies doc is a structurally valid schema by compiling it at
// its base URI. Compilation validates the document against the metaschema of
// its declared dialect and resolves every $ref.
//
// Failures match errors.ErrSchema. Metaschema violations found while
// compiling are listed by a *ViolationError in the chain.
func (v *Validator) CheckSchema(doc *document.Document) error {
	if _, err := v.compile(doc); err != nil {
		return err
	}
	return nil
}

// CheckMetaschema validates doc against the Draft 2020-12 metaschema.
// Violations match errors.ErrSchema and are listed by a *ViolationError in
// the chain; a metaschema that cannot be obtained is unexpected.
func (v *Validator) CheckMetaschema(ctx context.Context, doc *document.Document) error {
	meta, err := v.meta.Metaschema(ctx)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "loading Draft 2020-12 metaschema"), errors.ErrUnexpected)
	}

	if err := meta.Validate(doc.Value); err != nil {
		return errors.Mark(
			violationOf(err, "%s does not conform to the Draft 2020-12 metaschema: %s", doc.Path),
			errors.ErrSchema)
	}
	return nil
}

// ValidateInstance validates instance against schemaDoc, resolving $refs
// relative to the schema file. Violations match errors.ErrValidation and are
// listed by a *ViolationError in the chain; a schema that fails to compile
// matches errors.ErrSchema.
func (v *Validator) ValidateInstance(schemaDoc, instance *document.Document) error {
	base, err := resolve.BaseURI(schemaDoc.Path)
	if err != nil {
		return errors.Mark(err, errors.ErrUnexpected)
	}
	return v.ValidateInstanceAt(base, schemaDoc, instance)
}

// ValidateInstanceAt is ValidateInstance with the schema registered at base,
// the URI its relative $refs resolve against.
func (v *Validator) ValidateInstanceAt(base string, schemaDoc, instance *document.Document) error {
	sch, err := v.compileAt(base, schemaDoc)
	if err != nil {
		return err
	}

	if err := sch.Validate(instance.Value); err != nil {
		return errors.Mark(
			violationOf(err, "%s is not valid against %s: %s", instance.Path, schemaDoc.Path),
			errors.ErrValidation)
	}
	return nil
}

// violationOf formats err on one line after args. Engine validation errors
// stay reachable through a *ViolationError.
func violationOf(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, append(args, Flatten(err))...)
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return newViolationError(msg, ve)
	}
	return errors.New(msg)
}

func (v *Validator) compile(doc *document.Document) (*jsonschema.Schema, error) {
	base, err := resolve.BaseURI(doc.Path)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrUnexpected)
	}
	return v.compileAt(base, doc)
}

func (v *Validator) compileAt(base string, doc *document.Document) (*jsonschema.Schema, error) {
	c := v.newCompiler()
	if err := c.AddResource(base, doc.Value); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "adding schema %s", doc.Path), errors.ErrSchema)
	}

	v.logger.Debug("compiling schema", "path", doc.Path, "base_uri", base)
	sch, err := c.Compile(base)
	if err != nil && remoteLoadFailure(err) {
		return nil, errors.Mark(
			errors.Newf("compiling %s: %s", doc.Path, Flatten(err)),
			errors.ErrUnexpected)
	}
	if err != nil {
		// The engine checks the schema against its metaschema while compiling.
		var sve *jsonschema.SchemaValidationError
		if errors.As(err, &sve) {
			err = sve.Err
		}
		return nil, errors.Mark(
			violationOf(err, "%s is not a valid JSON Schema: %s", doc.Path),
			errors.ErrSchema)
	}
	return sch, nil
}

func (v *Validator) newCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	c.UseLoader(jsonschema.SchemeURLLoader{
		"file":  fsLoader{fs: v.fs},
		"http":  v.remote,
		"https": v.remote,
	})
	return c
}

// Flatten renders an engine error on a single line, joining the nested
// causes the engine prints one per line.
func Flatten(err error) string {
	if err == nil {
		return ""
	}
	lines := strings.Split(err.Error(), "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}
