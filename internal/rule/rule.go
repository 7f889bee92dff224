// Package rule decides which validation rule governs a file, from its name alone.
package rule

import (
	"path/filepath"
	"strings"
)

// Rule identifies how a file is validated.
type Rule int

const (
	// Skip marks files the tool does not understand.
	Skip Rule = iota
	// SchemaFile is a JSON Schema checked against the Draft 2020-12 metaschema.
	SchemaFile
	// OpenAPISchemaYAML is a YAML schema document validated as OpenAPI.
	OpenAPISchemaYAML
	// JSONInstance is a JSON document validated against its resolved schema.
	JSONInstance
	// YAMLInstance is a YAML document validated as a full OpenAPI specification.
	YAMLInstance
)

const (
	schemaJSONSuffix = ".schema.json"
	schemaInfix      = ".schema."
)

var names = map[Rule]string{
	Skip:              "skip",
	SchemaFile:        "schema",
	OpenAPISchemaYAML: "openapi-schema",
	JSONInstance:      "json-instance",
	YAMLInstance:      "yaml-instance",
}

func (r Rule) String() string {
	if s, ok := names[r]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the rule by name.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Classify returns the rule for path. It never touches the filesystem.
//
// Precedence, first match wins:
//
//  1. name ends with ".schema.json"              -> SchemaFile
//  2. ".yaml"/".yml" and name contains ".schema." -> OpenAPISchemaYAML
//  3. ".json"                                    -> JSONInstance
//  4. ".yaml"/".yml"                             -> YAMLInstance
//  5. anything else                              -> Skip
func Classify(path string) Rule {
	name := filepath.Base(path)
	ext := filepath.Ext(name)

	switch {
	case strings.HasSuffix(name, schemaJSONSuffix):
		return SchemaFile
	case IsYAML(name) && strings.Contains(name, schemaInfix):
		return OpenAPISchemaYAML
	case ext == ".json":
		return JSONInstance
	case IsYAML(name):
		return YAMLInstance
	default:
		return Skip
	}
}

// IsJSON reports whether path has a ".json" extension.
func IsJSON(path string) bool {
	return filepath.Ext(path) == ".json"
}

// IsYAML reports whether path has a ".yaml" or ".yml" extension.
func IsYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
