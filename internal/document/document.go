// Package document loads JSON and YAML files into generic structured values.
package document

import (
	"bytes"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/pkg/fileutil"
)

// Format identifies the syntax a document was parsed from.
type Format string

const (
	// FormatJSON is JSON text.
	FormatJSON Format = "json"
	// FormatYAML is YAML text.
	FormatYAML Format = "yaml"
)

// Document is a parsed file. It is immutable once loaded.
type Document struct {
	// Path is the path the document was read from.
	Path string
	// Format is the syntax the document was parsed as.
	Format Format
	// Raw holds the file contents as read.
	Raw []byte
	// Value is the object/array/scalar tree. JSON numbers are json.Number.
	Value any
}

// Field returns the value of a top-level object member and whether it exists.
// Non-object documents have no fields.
func (d *Document) Field(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	obj, ok := d.Value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// Loader reads documents from a filesystem.
type Loader struct {
	fs      afero.Fs
	maxSize int64
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithMaxSize limits the size of files the loader will read.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader reading from fs.
func NewLoader(fs afero.Fs, opts ...Option) *Loader {
	l := &Loader{
		fs:      fs,
		maxSize: fileutil.DefaultMaxFileSize,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadJSON reads path and parses it as JSON.
//
// A missing file or malformed content yields an error marked errors.ErrParse.
// Trailing data after the top-level value is malformed content.
func (l *Loader) LoadJSON(path string) (*Document, error) {
	raw, err := l.read(path)
	if err != nil {
		return nil, err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s as JSON", path), errors.ErrParse)
	}

	l.logger.Debug("loaded document", "path", path, "format", FormatJSON, "bytes", len(raw))
	return &Document{Path: path, Format: FormatJSON, Raw: raw, Value: v}, nil
}

// LoadYAML reads path and parses it as YAML.
//
// Decoding targets a plain any, so tags never construct arbitrary types.
// An empty stream is treated as malformed content.
func (l *Loader) LoadYAML(path string) (*Document, error) {
	raw, err := l.read(path)
	if err != nil {
		return nil, err
	}

	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s as YAML", path), errors.ErrParse)
	}
	if v == nil {
		return nil, errors.Mark(errors.Newf("parsing %s as YAML: document is empty", path), errors.ErrParse)
	}

	l.logger.Debug("loaded document", "path", path, "format", FormatYAML, "bytes", len(raw))
	return &Document{Path: path, Format: FormatYAML, Raw: raw, Value: v}, nil
}

func (l *Loader) read(path string) ([]byte, error) {
	raw, err := fileutil.ReadFileWithLimit(l.fs, path, l.maxSize)
	if err == nil {
		return raw, nil
	}
	if errors.Is(err, fileutil.ErrFileTooLarge) {
		return nil, errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrUnexpected)
	}
	if errors.Is(err, afero.ErrFileNotFound) {
		return nil, errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrParse)
	}
	return nil, errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrUnexpected)
}
