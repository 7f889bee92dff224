package dispatch

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/logging"
	"github.com/thoreinstein/docvalidate/internal/rule"
	"github.com/thoreinstein/docvalidate/internal/validator"
)

const openAPIDoc = `openapi: 3.0.3
info:
  title: Test API
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        '200':
          description: Success
`

func newDispatcher(t *testing.T, files map[string]string) *Dispatcher {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return New(fs, WithLogger(logging.ForTest(t)))
}

func TestValidateInstanceAgainst_EndToEnd(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/s.schema.json": `{"type":"object","required":["x"]}`,
		"/repo/good.json":     `{"x":1}`,
		"/repo/bad.json":      `{}`,
	})

	o := d.ValidateInstanceAgainst(t.Context(), "/repo/good.json", "/repo/s.schema.json")
	require.True(t, o.OK(), o.Message)
	assert.Equal(t, "/repo/good.json is valid against /repo/s.schema.json (with $ref support)", o.Message)
	assert.Equal(t, "/repo/s.schema.json", o.Schema)

	o = d.ValidateInstanceAgainst(t.Context(), "/repo/bad.json", "/repo/s.schema.json")
	assert.Equal(t, validator.StatusFailure, o.Status)
	assert.Equal(t, errors.KindValidation, o.Kind)
	assert.Contains(t, o.Message, "/repo/bad.json")
	assert.Contains(t, o.Message, "'x'")
	require.Len(t, o.Errors(), 1)
	assert.Equal(t, "", o.Errors()[0].Field)
	assert.Contains(t, o.Errors()[0].Message, "missing property")
	assert.Equal(t, "/required", o.Errors()[0].Context["keyword"])
}

func TestValidateInstance_Issues(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/schemas/json/pet.schema.json": `{
			"type": "object",
			"properties": {"name": {"type": "string"}, "age": {"type": "integer", "minimum": 0}}
		}`,
		"/repo/instances/json/pet.json": `{"name": 5, "age": -1}`,
	})

	o := d.ValidateInstance(t.Context(), "/repo/instances/json/pet.json")
	assert.Equal(t, validator.StatusFailure, o.Status)
	assert.Equal(t, errors.KindValidation, o.Kind)
	assert.Equal(t, "/repo/schemas/json/pet.schema.json", o.Schema)

	fields := map[string]string{}
	for _, i := range o.Errors() {
		fields[i.Field] = i.Context["keyword"]
	}
	assert.Equal(t, map[string]string{"/name": "/type", "/age": "/minimum"}, fields)
}

func TestValidateInstance_Resolution(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/schemas/json/person.schema.json": `{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"type": "object",
			"properties": {"name": {"type": "string"}},
			"required": ["name"]
		}`,
		"/repo/instances/json/person.json":   `{"name":"Ada"}`,
		"/repo/instances/json/declared.json": `{"$schema":"/repo/schemas/json/person.schema.json","name":"Ada"}`,
		"/repo/instances/json/foo/bar.json":  `{"name":"Ada"}`,
		"/repo/instances/json/dangling.json": `{"$schema":"/repo/schemas/json/nope.schema.json"}`,
	})

	t.Run("fallback", func(t *testing.T) {
		o := d.ValidateInstance(t.Context(), "/repo/instances/json/person.json")
		require.True(t, o.OK(), o.Message)
		assert.Equal(t, "/repo/schemas/json/person.schema.json", o.Schema)
	})

	t.Run("declared", func(t *testing.T) {
		o := d.ValidateInstance(t.Context(), "/repo/instances/json/declared.json")
		require.True(t, o.OK(), o.Message)
		assert.Equal(t, "/repo/schemas/json/person.schema.json", o.Schema)
	})

	t.Run("fallback missing", func(t *testing.T) {
		o := d.ValidateInstance(t.Context(), "/repo/instances/json/foo/bar.json")
		assert.Equal(t, validator.StatusFailure, o.Status)
		assert.Equal(t, errors.KindSchemaNotFound, o.Kind)
		assert.Contains(t, o.Message, "/repo/schemas/json/foo/bar.schema.json")
	})

	t.Run("declared missing", func(t *testing.T) {
		o := d.ValidateInstance(t.Context(), "/repo/instances/json/dangling.json")
		assert.Equal(t, errors.KindSchemaNotFound, o.Kind)
		assert.Contains(t, o.Message, "/repo/schemas/json/nope.schema.json")
	})
}

func TestSchemaFile_AcceptedAsReferrer(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/schemas/json/thing.schema.json": `{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object","required":["id"]}`,
		"/repo/data/thing.json":                `{"$schema":"/repo/schemas/json/thing.schema.json","id":7}`,
	})

	o := d.ValidateSchemaFile(t.Context(), "/repo/schemas/json/thing.schema.json")
	require.True(t, o.OK(), o.Message)
	assert.Equal(t, "/repo/schemas/json/thing.schema.json is a valid Draft 2020-12 JSON Schema", o.Message)

	o = d.ValidateInstance(t.Context(), "/repo/data/thing.json")
	assert.True(t, o.OK(), o.Message)
}

func TestValidateSchemaFile_Failures(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/syntax.schema.json": `{"type":`,
		"/repo/meta.schema.json":   `{"type":"objekt"}`,
	})

	o := d.ValidateSchemaFile(t.Context(), "/repo/syntax.schema.json")
	assert.Equal(t, errors.KindParse, o.Kind)
	assert.Equal(t, validator.StatusFailure, o.Status)

	o = d.ValidateSchemaFile(t.Context(), "/repo/meta.schema.json")
	assert.Equal(t, errors.KindSchema, o.Kind)
	require.NotEmpty(t, o.Errors())
	for _, i := range o.Errors() {
		assert.Equal(t, "/type", i.Field)
	}

	o = d.ValidateSchemaFile(t.Context(), "/repo/absent.schema.json")
	assert.Equal(t, errors.KindParse, o.Kind)
}

func TestValidateOne_Routing(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/README.md":                  "# hi",
		"/repo/api/pets.schema.yaml":       openAPIDoc,
		"/repo/api/pets.yml":               openAPIDoc,
		"/repo/api/broken.yaml":            "info: [",
		"/repo/a.schema.json":              `{"type":"string"}`,
		"/repo/schemas/json/b.schema.json": `{"type":"string"}`,
		"/repo/instances/json/b.json":      `"hello"`,
	})

	tests := []struct {
		path   string
		rule   rule.Rule
		status validator.Status
	}{
		{"/repo/README.md", rule.Skip, validator.StatusSuccess},
		{"/repo/api/pets.schema.yaml", rule.OpenAPISchemaYAML, validator.StatusSuccess},
		{"/repo/api/pets.yml", rule.YAMLInstance, validator.StatusSuccess},
		{"/repo/api/broken.yaml", rule.YAMLInstance, validator.StatusFailure},
		{"/repo/a.schema.json", rule.SchemaFile, validator.StatusSuccess},
		{"/repo/instances/json/b.json", rule.JSONInstance, validator.StatusSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			o := d.ValidateOne(t.Context(), tt.path)
			assert.Equal(t, tt.rule, o.Rule)
			assert.Equal(t, tt.status, o.Status, o.Message)
		})
	}
}

func TestValidateOne_Cancelled(t *testing.T) {
	d := newDispatcher(t, map[string]string{"/repo/a.json": `{}`})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	o := d.ValidateOne(ctx, "/repo/a.json")
	assert.Equal(t, validator.StatusError, o.Status)
	assert.Equal(t, errors.KindUnexpected, o.Kind)
}

func TestExplicitModes(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/s.schema.json": `{"type":"object"}`,
		"/repo/i.json":        `{}`,
		"/repo/api.yaml":      openAPIDoc,
		"/repo/notes.txt":     "hello",
	})
	ctx := t.Context()

	assert.True(t, d.ValidateSchemaPath(ctx, "/repo/s.schema.json").OK())
	assert.True(t, d.ValidateSchemaPath(ctx, "/repo/api.yaml").OK())
	o := d.ValidateSchemaPath(ctx, "/repo/notes.txt")
	assert.Equal(t, validator.StatusFailure, o.Status)
	assert.Contains(t, o.Message, "unsupported schema file type")

	assert.True(t, d.ValidatePair(ctx, "/repo/s.schema.json", "/repo/i.json").OK())
	assert.True(t, d.ValidatePair(ctx, "/repo/s.schema.json", "/repo/api.yaml").OK())
	o = d.ValidatePair(ctx, "/repo/api.yaml", "/repo/i.json")
	assert.Contains(t, o.Message, "unsupported combination")

	assert.True(t, d.ValidateInstancePath(ctx, "/repo/api.yaml").OK())
	o = d.ValidateInstancePath(ctx, "/repo/notes.txt")
	assert.Contains(t, o.Message, "unsupported instance file type")
}

func TestValidateOpenAPI_Issues(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/api.yaml": `openapi: 3.0.3
info:
  title: Test API
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        '200':
          description: Success
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Missing"
`,
	})

	o := d.ValidateOpenAPI(t.Context(), "/repo/api.yaml")
	assert.Equal(t, validator.StatusFailure, o.Status)
	assert.Equal(t, errors.KindValidation, o.Kind)
	require.NotEmpty(t, o.Errors())
	for _, i := range o.Errors() {
		assert.NotEmpty(t, i.Message)
	}
}

func TestResolveSchema(t *testing.T) {
	d := newDispatcher(t, map[string]string{
		"/repo/schemas/json/a.schema.json": `{}`,
		"/repo/custom.schema.json":         `{}`,
		"/repo/instances/json/a.json":      `{}`,
		"/repo/instances/json/b.json":      `{"$schema":"/repo/custom.schema.json"}`,
		"/repo/instances/json/c.json":      `{}`,
	})

	ref, err := d.ResolveSchema("/repo/instances/json/a.json")
	require.NoError(t, err)
	assert.Equal(t, "/repo/schemas/json/a.schema.json", ref.SchemaPath)

	ref, err = d.ResolveSchema("/repo/instances/json/b.json")
	require.NoError(t, err)
	assert.Equal(t, "/repo/custom.schema.json", ref.SchemaPath)

	_, err = d.ResolveSchema("/repo/instances/json/c.json")
	assert.Equal(t, errors.KindSchemaNotFound, errors.KindOf(err))
}
