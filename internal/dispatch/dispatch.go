// Package dispatch routes a file to the validation its rule calls for and
// turns the result into a validator.Outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/afero"

	"github.com/thoreinstein/docvalidate/internal/document"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/openapi"
	"github.com/thoreinstein/docvalidate/internal/resolve"
	"github.com/thoreinstein/docvalidate/internal/rule"
	"github.com/thoreinstein/docvalidate/internal/schema"
	"github.com/thoreinstein/docvalidate/internal/validator"
)

// Dispatcher validates individual files. It holds no per-file state, so one
// Dispatcher serves a whole run.
type Dispatcher struct {
	Loader   *document.Loader
	Resolver *resolve.Resolver
	Schemas  *schema.Validator
	OpenAPI  *openapi.Validator
	Logger   *slog.Logger
}

type options struct {
	maxSize int64
	meta    schema.MetaschemaSource
	oapi    []openapi.Option
	schemas []schema.Option
	logger  *slog.Logger
}

// Option configures a Dispatcher built by New.
type Option func(*options)

// WithMaxFileSize limits the size of files read.
func WithMaxFileSize(n int64) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// WithMetaschema selects where the Draft 2020-12 metaschema comes from.
func WithMetaschema(src schema.MetaschemaSource) Option {
	return func(o *options) {
		o.meta = src
	}
}

// WithOpenAPIOptions configures the OpenAPI validator.
func WithOpenAPIOptions(opts ...openapi.Option) Option {
	return func(o *options) {
		o.oapi = append(o.oapi, opts...)
	}
}

// WithSchemaOptions configures the JSON Schema validator.
func WithSchemaOptions(opts ...schema.Option) Option {
	return func(o *options) {
		o.schemas = append(o.schemas, opts...)
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New wires a Dispatcher reading from fs.
func New(fs afero.Fs, opts ...Option) *Dispatcher {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	loaderOpts := []document.Option{document.WithLogger(o.logger)}
	if o.maxSize > 0 {
		loaderOpts = append(loaderOpts, document.WithMaxSize(o.maxSize))
	}

	return &Dispatcher{
		Loader:   document.NewLoader(fs, loaderOpts...),
		Resolver: resolve.New(fs, o.logger),
		Schemas:  schema.NewValidator(fs, o.meta, o.logger, o.schemas...),
		OpenAPI:  openapi.New(append([]openapi.Option{openapi.WithLogger(o.logger)}, o.oapi...)...),
		Logger:   o.logger,
	}
}

// ValidateOne classifies path and runs the matching validation.
// Skip files succeed without being read.
func (d *Dispatcher) ValidateOne(ctx context.Context, path string) validator.Outcome {
	r := rule.Classify(path)
	if err := ctx.Err(); err != nil {
		return validator.Failed(path, r, errors.Mark(errors.Wrapf(err, "validating %s", path), errors.ErrUnexpected))
	}

	d.Logger.Debug("dispatching", "path", path, "rule", r)

	switch r {
	case rule.SchemaFile:
		return d.ValidateSchemaFile(ctx, path)
	case rule.OpenAPISchemaYAML, rule.YAMLInstance:
		return d.validateOpenAPI(path, r)
	case rule.JSONInstance:
		return d.ValidateInstance(ctx, path)
	default:
		return validator.Succeeded(path, rule.Skip, "")
	}
}

// ValidateSchemaFile checks that path holds a JSON Schema: it must compile
// (structure and $refs) and conform to the Draft 2020-12 metaschema.
func (d *Dispatcher) ValidateSchemaFile(ctx context.Context, path string) validator.Outcome {
	doc, err := d.Loader.LoadJSON(path)
	if err != nil {
		return validator.Failed(path, rule.SchemaFile, err)
	}
	if err := d.Schemas.CheckSchema(doc); err != nil {
		return withViolations(validator.Failed(path, rule.SchemaFile, err), err)
	}
	if err := d.Schemas.CheckMetaschema(ctx, doc); err != nil {
		return withViolations(validator.Failed(path, rule.SchemaFile, err), err)
	}
	return validator.Succeeded(path, rule.SchemaFile,
		fmt.Sprintf("%s is a valid Draft 2020-12 JSON Schema", path))
}

// ValidateOpenAPI checks that path holds a valid OpenAPI specification.
func (d *Dispatcher) ValidateOpenAPI(_ context.Context, path string) validator.Outcome {
	r := rule.Classify(path)
	if r != rule.OpenAPISchemaYAML {
		r = rule.YAMLInstance
	}
	return d.validateOpenAPI(path, r)
}

func (d *Dispatcher) validateOpenAPI(path string, r rule.Rule) validator.Outcome {
	doc, err := d.Loader.LoadYAML(path)
	if err != nil {
		return validator.Failed(path, r, err)
	}

	res, err := d.OpenAPI.Validate(doc)
	var o validator.Outcome
	if err != nil {
		o = validator.Failed(path, r, err)
	} else {
		o = validator.Succeeded(path, r, fmt.Sprintf("%s is a valid OpenAPI specification", path))
	}
	if res != nil {
		for _, v := range res.Errors {
			o.AddError(v.Path, v.Message, position(v))
		}
		for _, v := range res.Warnings {
			o.AddWarning(v.Path, v.Message, position(v))
		}
	}
	return o
}

func position(v openapi.Violation) map[string]string {
	if v.Line <= 0 {
		return nil
	}
	return map[string]string{
		"line":   strconv.Itoa(v.Line),
		"column": strconv.Itoa(v.Column),
	}
}

// withViolations adds one issue per failed schema keyword found in err.
func withViolations(o validator.Outcome, err error) validator.Outcome {
	var ve *schema.ViolationError
	if !errors.As(err, &ve) {
		return o
	}
	for _, v := range ve.Violations {
		var ctx map[string]string
		if v.Keyword != "" {
			ctx = map[string]string{"keyword": v.Keyword}
		}
		o.AddError(v.Location, v.Message, ctx)
	}
	return o
}

// ResolveSchema reports which schema governs the JSON instance at path.
func (d *Dispatcher) ResolveSchema(path string) (*resolve.SchemaReference, error) {
	doc, err := d.Loader.LoadJSON(path)
	if err != nil {
		return nil, err
	}
	return d.Resolver.ResolveSchemaForInstance(path, doc)
}

// ValidateInstance validates the JSON document at path against the schema it
// resolves to, either its $schema member or the fallback convention.
func (d *Dispatcher) ValidateInstance(_ context.Context, path string) validator.Outcome {
	doc, err := d.Loader.LoadJSON(path)
	if err != nil {
		return validator.Failed(path, rule.JSONInstance, err)
	}

	ref, err := d.Resolver.ResolveSchemaForInstance(path, doc)
	if err != nil {
		return validator.Failed(path, rule.JSONInstance, err)
	}
	d.Logger.Debug("schema resolved", "path", path, "schema", ref.SchemaPath, "source", ref.Source, "base_uri", ref.BaseURI)
	return d.validateAgainst(doc, ref.SchemaPath, ref.BaseURI)
}

// ValidateInstanceAgainst validates the JSON document at instancePath against
// the schema at schemaPath. $refs in the schema resolve relative to it.
func (d *Dispatcher) ValidateInstanceAgainst(_ context.Context, instancePath, schemaPath string) validator.Outcome {
	doc, err := d.Loader.LoadJSON(instancePath)
	if err != nil {
		return validator.Failed(instancePath, rule.JSONInstance, err)
	}
	base, err := resolve.BaseURI(schemaPath)
	if err != nil {
		return validator.Failed(instancePath, rule.JSONInstance, errors.Mark(err, errors.ErrUnexpected))
	}
	return d.validateAgainst(doc, schemaPath, base)
}

func (d *Dispatcher) validateAgainst(doc *document.Document, schemaPath, base string) validator.Outcome {
	o := d.checkAgainst(doc, schemaPath, base)
	o.Schema = schemaPath
	return o
}

func (d *Dispatcher) checkAgainst(doc *document.Document, schemaPath, base string) validator.Outcome {
	schemaDoc, err := d.Loader.LoadJSON(schemaPath)
	if err != nil {
		return validator.Failed(doc.Path, rule.JSONInstance, err)
	}
	if err := d.Schemas.ValidateInstanceAt(base, schemaDoc, doc); err != nil {
		return withViolations(validator.Failed(doc.Path, rule.JSONInstance, err), err)
	}
	return validator.Succeeded(doc.Path, rule.JSONInstance,
		fmt.Sprintf("%s is valid against %s (with $ref support)", doc.Path, schemaPath))
}

// ValidateSchemaPath validates a file named as a schema: JSON files as JSON
// Schemas and YAML files as OpenAPI specifications.
func (d *Dispatcher) ValidateSchemaPath(ctx context.Context, path string) validator.Outcome {
	switch {
	case rule.IsJSON(path):
		return d.ValidateSchemaFile(ctx, path)
	case rule.IsYAML(path):
		return d.ValidateOpenAPI(ctx, path)
	default:
		return validator.Failed(path, rule.Skip, errors.Mark(
			errors.Newf("unsupported schema file type: %s (want .json, .yaml or .yml)", path),
			errors.ErrValidation))
	}
}

// ValidatePair validates instancePath against schemaPath. A JSON instance is
// checked against a JSON schema; a YAML instance is checked as an OpenAPI
// specification on its own.
func (d *Dispatcher) ValidatePair(ctx context.Context, schemaPath, instancePath string) validator.Outcome {
	switch {
	case rule.IsJSON(schemaPath) && rule.IsJSON(instancePath):
		return d.ValidateInstanceAgainst(ctx, instancePath, schemaPath)
	case rule.IsYAML(instancePath):
		return d.ValidateOpenAPI(ctx, instancePath)
	default:
		return validator.Failed(instancePath, rule.Skip, errors.Mark(
			errors.Newf("unsupported combination of schema %s and instance %s", schemaPath, instancePath),
			errors.ErrValidation))
	}
}

// ValidateInstancePath validates a file named as an instance: JSON files
// against their resolved schema and YAML files as OpenAPI specifications.
func (d *Dispatcher) ValidateInstancePath(ctx context.Context, path string) validator.Outcome {
	switch {
	case rule.IsJSON(path):
		return d.ValidateInstance(ctx, path)
	case rule.IsYAML(path):
		return d.ValidateOpenAPI(ctx, path)
	default:
		return validator.Failed(path, rule.Skip, errors.Mark(
			errors.Newf("unsupported instance file type: %s (want .json, .yaml or .yml)", path),
			errors.ErrValidation))
	}
}
