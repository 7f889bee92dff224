// Package resolve locates the schema that governs a JSON instance.
//
// An instance names its schema through a top-level "$schema" member. When it
// does not, the fallback convention maps
//
//	<prefix>/instances/json/<rest>/<name>.json
//
// to
//
//	<prefix>/schemas/json/<rest>/<name>.schema.json
package resolve

import (
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/docvalidate/internal/document"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/pkg/fileutil"
)

// SchemaField is the instance member naming its schema.
const SchemaField = "$schema"

const (
	instancesSegment = "instances/json"
	schemasSegment   = "schemas/json"
	schemaSuffix     = ".schema.json"
)

// Source records which branch produced a SchemaReference.
type Source string

const (
	// SourceDeclared means the instance's $schema member named the schema.
	SourceDeclared Source = "declared"
	// SourceFallback means the path convention produced the schema path.
	SourceFallback Source = "fallback"
)

// SchemaReference associates an instance with the schema that governs it.
// It is produced fresh for every resolution.
type SchemaReference struct {
	InstancePath string
	SchemaPath   string
	// BaseURI is the file URL the schema's relative $refs resolve against.
	BaseURI string
	Source  Source
}

// Resolver resolves instance schemas against a filesystem.
type Resolver struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates a Resolver checking existence on fs.
func New(fs afero.Fs, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{fs: fs, logger: logger}
}

// ResolveSchemaForInstance returns the schema governing the instance at
// instancePath. doc is never modified.
//
// A declared $schema is used verbatim; otherwise FallbackPath is tried.
// Either branch performs exactly one existence check and fails with an error
// matching errors.ErrSchemaNotFound that names the path it attempted.
func (r *Resolver) ResolveSchemaForInstance(instancePath string, doc *document.Document) (*SchemaReference, error) {
	if raw, ok := doc.Field(SchemaField); ok {
		declared, ok := raw.(string)
		if !ok {
			return nil, errors.Wrapf(errors.ErrSchemaNotFound,
				"%s member in %s is not a string (got %T)", SchemaField, instancePath, raw)
		}

		schemaPath := DeclaredPath(declared)
		if !fileutil.Exists(r.fs, schemaPath) {
			return nil, errors.Wrapf(errors.ErrSchemaNotFound,
				"schema path in %s not found: %s", SchemaField, schemaPath)
		}

		r.logger.Debug("resolved declared schema", "instance", instancePath, "schema", schemaPath)
		return newReference(instancePath, schemaPath, SourceDeclared)
	}

	schemaPath := FallbackPath(instancePath)
	if !fileutil.Exists(r.fs, schemaPath) {
		return nil, errors.Wrapf(errors.ErrSchemaNotFound,
			"no %s property in %s, and fallback schema not found (expected %s)",
			SchemaField, instancePath, schemaPath)
	}

	r.logger.Debug("resolved fallback schema", "instance", instancePath, "schema", schemaPath)
	return newReference(instancePath, schemaPath, SourceFallback)
}

func newReference(instancePath, schemaPath string, src Source) (*SchemaReference, error) {
	base, err := BaseURI(schemaPath)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrUnexpected)
	}
	return &SchemaReference{InstancePath: instancePath, SchemaPath: schemaPath, BaseURI: base, Source: src}, nil
}

// DeclaredPath interprets a $schema value as a filesystem path.
// file:// URIs are converted to paths; anything else is taken literally.
func DeclaredPath(declared string) string {
	if strings.HasPrefix(declared, "file://") {
		if u, err := url.Parse(declared); err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path)
		}
	}
	return declared
}

// FallbackPath applies the directory/suffix convention to an instance path:
// every "instances/json" becomes "schemas/json" and the final extension is
// replaced with ".schema.json" (appended when there is none).
func FallbackPath(instancePath string) string {
	p := filepath.ToSlash(instancePath)
	p = strings.ReplaceAll(p, instancesSegment, schemasSegment)

	dir, name := splitLast(p)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return filepath.FromSlash(dir + name + schemaSuffix)
}

func splitLast(p string) (string, string) {
	i := strings.LastIndex(p, "/")
	return p[:i+1], p[i+1:]
}

// BaseURI returns the file URL of the absolute schema path, the base
// against which the schema's relative $refs resolve.
func BaseURI(schemaPath string) (string, error) {
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return "", errors.Wrapf(err, "resolving absolute path of %s", schemaPath)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
