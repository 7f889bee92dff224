package rule

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Rule
	}{
		// schema files win over the generic .json check
		{"schemas/json/a.schema.json", SchemaFile},
		{"/abs/path/person.schema.json", SchemaFile},
		{".schema.json", SchemaFile},

		{"api/pets.schema.yaml", OpenAPISchemaYAML},
		{"api/pets.schema.yml", OpenAPISchemaYAML},
		{"api/pets.schema.v2.yaml", OpenAPISchemaYAML},

		{"instances/json/a.json", JSONInstance},
		{"package.json", JSONInstance},
		{"weird.schema.v2.json", JSONInstance},

		{"openapi.yaml", YAMLInstance},
		{"spec/openapi.yml", YAMLInstance},

		{"README.md", Skip},
		{"Makefile", Skip},
		{"a.json.bak", Skip},
		{"schema.JSON", Skip},
		{"dir.schema.json/readme.txt", Skip},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassify_SchemaJSONPrecedence(t *testing.T) {
	for _, name := range []string{"a.schema.json", "nested/dir/b.schema.json", "x.y.schema.json"} {
		if !IsJSON(name) {
			t.Fatalf("%q should also match the generic .json pattern", name)
		}
		if got := Classify(name); got != SchemaFile {
			t.Errorf("Classify(%q) = %v, want %v", name, got, SchemaFile)
		}
	}
}

func TestRule_String(t *testing.T) {
	tests := []struct {
		r    Rule
		want string
	}{
		{Skip, "skip"},
		{SchemaFile, "schema"},
		{OpenAPISchemaYAML, "openapi-schema"},
		{JSONInstance, "json-instance"},
		{YAMLInstance, "yaml-instance"},
		{Rule(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("Rule.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
