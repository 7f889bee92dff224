package config

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/docvalidate/internal/errors"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidFormat indicates an unrecognized output format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidSource indicates an unrecognized metaschema source.
	ErrInvalidSource = errors.New("invalid metaschema source")

	// ErrNotPositive indicates a size or duration that must be above zero.
	ErrNotPositive = errors.New("must be positive")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidPattern indicates a malformed exclude glob.
	ErrInvalidPattern = errors.New("invalid exclude pattern")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	switch cfg.Format {
	case "text", "json":
	default:
		errs = append(errs, &FieldError{Field: "format", Value: cfg.Format, Err: ErrInvalidFormat})
	}

	switch cfg.Metaschema.Source {
	case SourceBundled, SourceRemote:
	default:
		errs = append(errs, &FieldError{Field: "metaschema.source", Value: cfg.Metaschema.Source, Err: ErrInvalidSource})
	}

	if cfg.Metaschema.Source == SourceRemote && cfg.Metaschema.URL == "" {
		errs = append(errs, &FieldError{Field: "metaschema.url", Err: ErrInvalidPath})
	}

	if cfg.Metaschema.Timeout <= 0 {
		errs = append(errs, &FieldError{Field: "metaschema.timeout", Value: cfg.Metaschema.Timeout.String(), Err: ErrNotPositive})
	}

	if cfg.MaxFileSize <= 0 {
		errs = append(errs, &FieldError{Field: "max_file_size", Err: ErrNotPositive})
	}

	if err := validatePath(cfg.Root); err != nil {
		errs = append(errs, &FieldError{Field: "root", Value: cfg.Root, Err: err})
	}

	if err := validatePath(cfg.ReportFile); err != nil {
		errs = append(errs, &FieldError{Field: "report_file", Value: cfg.ReportFile, Err: err})
	}

	for _, pattern := range cfg.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, &FieldError{Field: "exclude", Value: pattern, Err: ErrInvalidPattern})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty means "use the default".
	if path == "" {
		return nil
	}

	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	return nil
}

// FieldError represents an error for a specific configuration key.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
