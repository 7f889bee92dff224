package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/docvalidate/internal/discovery"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/logging"
)

func init() {
	color.NoColor = true
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)
}

// workspace runs the test from an empty directory with an isolated XDG
// config home and returns that directory.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

var validTree = map[string]string{
	"schemas/json/person.schema.json": `{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object","required":["name"]}`,
	"instances/json/person.json":      `{"name":"Ada"}`,
	"api/openapi.yaml":                `openapi: 3.0.3
info:
  title: Test API
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        '200':
          description: Success
`,
	"README.md": "# docs",
}

func requireReported(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %T", err)
	assert.Equal(t, errors.ExitUser, exitErr.Code)
	assert.True(t, exitErr.Reported)
}

func TestRoot_Discovery(t *testing.T) {
	workspace(t, validTree)

	out, err := execute(t)
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 5)
	assert.Equal(t, "Auto-discovering validations under .", got[0])
	assert.Equal(t, "✓ api/openapi.yaml is a valid OpenAPI specification", got[1])
	assert.Equal(t, "✓ instances/json/person.json is valid against schemas/json/person.schema.json (with $ref support)", got[2])
	assert.Equal(t, "✓ schemas/json/person.schema.json is a valid Draft 2020-12 JSON Schema", got[3])
	assert.Equal(t, "All validations passed!", got[4])
}

func TestRoot_DiscoveryFailFast(t *testing.T) {
	files := map[string]string{
		"a/bad.json":         `{`,
		"b/good.schema.json": `{"type":"string"}`,
		"c/bad.json":         `[`,
	}

	t.Run("fail fast", func(t *testing.T) {
		workspace(t, files)
		out, err := execute(t, "--root", ".")
		requireReported(t, err)
		assert.Contains(t, out, "✗ ")
		assert.NotContains(t, out, "good.schema.json")
		assert.NotContains(t, out, "All validations passed!")
	})

	t.Run("keep going", func(t *testing.T) {
		workspace(t, files)
		out, err := execute(t, "--keep-going")
		requireReported(t, err)
		assert.Contains(t, out, "✓ b/good.schema.json")
		assert.Equal(t, 2, strings.Count(out, "✗ "))
		assert.Contains(t, out, "Validation failed: 2 of 3 file(s)")
	})
}

func TestRoot_SingleFileModes(t *testing.T) {
	workspace(t, map[string]string{
		"s.schema.json": `{"type":"object","required":["x"]}`,
		"good.json":     `{"x":1}`,
		"bad.json":      `{}`,
		"api.yaml":      validTree["api/openapi.yaml"],
		"notes.txt":     "hi",
	})

	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr bool
	}{
		{"schema", []string{"--schema", "s.schema.json"}, "✓ s.schema.json is a valid Draft 2020-12 JSON Schema", false},
		{"openapi schema", []string{"--schema", "api.yaml"}, "✓ api.yaml is a valid OpenAPI specification", false},
		{"pair", []string{"--schema", "s.schema.json", "--instance", "good.json"}, "✓ good.json is valid against s.schema.json (with $ref support)", false},
		{"pair failure", []string{"--schema", "s.schema.json", "--instance", "bad.json"}, "missing property", true},
		{"instance without schema", []string{"--instance", "good.json"}, "fallback schema not found (expected good.schema.json)", true},
		{"instance yaml", []string{"--instance", "api.yaml"}, "✓ api.yaml is a valid OpenAPI specification", false},
		{"unsupported", []string{"--schema", "notes.txt"}, "unsupported schema file type", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				requireReported(t, err)
				assert.True(t, strings.HasPrefix(out, "✗ "), out)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out, tt.wantOut)
			assert.NotContains(t, out, "Auto-discovering")
		})
	}
}

func TestRoot_JSONFormat(t *testing.T) {
	workspace(t, validTree)

	out, err := execute(t, "--format", "json")
	require.NoError(t, err)

	var report struct {
		Root     string `json:"root"`
		OK       bool   `json:"ok"`
		Checked  int    `json:"checked"`
		Skipped  int    `json:"skipped"`
		Outcomes []struct {
			Path   string `json:"path"`
			Status string `json:"status"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, ".", report.Root)
	assert.True(t, report.OK)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Outcomes, 3)
}

func TestRoot_ReportFile(t *testing.T) {
	dir := workspace(t, validTree)

	out, err := execute(t, "--report-file", "report.json")
	require.NoError(t, err)
	assert.Contains(t, out, "All validations passed!")

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var report struct {
		OK      bool `json:"ok"`
		Checked int  `json:"checked"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.True(t, report.OK)
	assert.Equal(t, 3, report.Checked)
}

func TestRoot_ReportFileUnwritable(t *testing.T) {
	workspace(t, validTree)

	_, err := execute(t, "--report-file", filepath.Join("missing", "dir", "report.json"))
	require.Error(t, err)
	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, errors.ExitUser, exitErr.Code)
	assert.False(t, exitErr.Reported)
	assert.True(t, errors.Is(err, errors.ErrUnexpected))
	assert.Contains(t, err.Error(), "writing report to")
}

func TestRoot_SkipsOwnFiles(t *testing.T) {
	tree := map[string]string{
		"docvalidate.yaml": "fail_fast: true\nreport_file: report.json\n",
	}
	for k, v := range validTree {
		tree[k] = v
	}
	dir := workspace(t, tree)

	for run := 1; run <= 2; run++ {
		out, err := execute(t)
		require.NoError(t, err, "run %d:\n%s", run, out)
		assert.NotContains(t, out, "docvalidate.yaml")
		assert.NotContains(t, out, "report.json")
		assert.Len(t, lines(out), 5)
		assert.FileExists(t, filepath.Join(dir, "report.json"))
	}

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "docvalidate.yaml")
	assert.NotContains(t, out, "report.json")
}

func TestRoot_SkipsReportFileFlag(t *testing.T) {
	workspace(t, validTree)

	for run := 1; run <= 2; run++ {
		out, err := execute(t, "--report-file", "out.json")
		require.NoError(t, err, "run %d:\n%s", run, out)
		assert.NotContains(t, out, "out.json")
	}
}

func TestRoot_ConfigFile(t *testing.T) {
	workspace(t, map[string]string{
		"docvalidate.yaml":    "root: docs\nformat: json\n",
		"docs/a.schema.json":  `{"type":"string"}`,
		"outside/broken.json": `{`,
	})

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, `"root": "docs"`)
	assert.NotContains(t, out, "broken.json")
}

func TestRoot_InvalidConfig(t *testing.T) {
	workspace(t, nil)

	_, err := execute(t, "--format", "xml")
	require.Error(t, err)
	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.False(t, exitErr.Reported)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	assert.NotEmpty(t, exitErr.Suggestion)
}

func TestRoot_RejectsArgs(t *testing.T) {
	workspace(t, nil)
	_, err := execute(t, "somewhere")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	workspace(t, validTree)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"yaml-instance\tapi/openapi.yaml",
		"json-instance\tinstances/json/person.json",
		"schema\tschemas/json/person.schema.json",
	}, lines(out))

	out, err = execute(t, "list", "schemas", "--format", "json")
	require.NoError(t, err)
	var entries []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "schema", entries[0]["rule"])
}

func TestPick(t *testing.T) {
	workspace(t, validTree)

	orig := findEntry
	t.Cleanup(func() { findEntry = orig })

	var offered []discovery.Entry
	var described string
	findEntry = func(entries []discovery.Entry, describe func(discovery.Entry) string) (int, error) {
		offered = entries
		described = describe(entries[1])
		return 1, nil
	}

	out, err := execute(t, "pick")
	require.NoError(t, err)
	assert.Len(t, offered, 3)
	assert.Equal(t, "✓ instances/json/person.json is valid against schemas/json/person.schema.json (with $ref support)\n", out)
	assert.Contains(t, described, "Fallback schema: "+filepath.FromSlash("schemas/json/person.schema.json"))
}

func TestPick_PreviewDeclaredSchema(t *testing.T) {
	workspace(t, map[string]string{
		"schemas/json/person.schema.json": validTree["schemas/json/person.schema.json"],
		"custom/person.schema.json":       `{"type":"object"}`,
		"instances/json/declared.json":    `{"$schema":"custom/person.schema.json","name":"Ada"}`,
		"instances/json/orphan.json":      `{"name":"Ada"}`,
	})

	orig := findEntry
	t.Cleanup(func() { findEntry = orig })

	previews := map[string]string{}
	findEntry = func(entries []discovery.Entry, describe func(discovery.Entry) string) (int, error) {
		for _, e := range entries {
			previews[filepath.ToSlash(e.Path)] = describe(e)
		}
		return 0, fuzzyfinder.ErrAbort
	}

	_, err := execute(t, "pick")
	require.NoError(t, err)

	declared := previews["instances/json/declared.json"]
	assert.Contains(t, declared, "Declared schema: custom/person.schema.json")
	assert.NotContains(t, declared, "Fallback")

	orphan := previews["instances/json/orphan.json"]
	assert.Contains(t, orphan, "Schema: unresolved")
	assert.Contains(t, orphan, filepath.FromSlash("schemas/json/orphan.schema.json"))

	assert.Equal(t, "Path: "+filepath.FromSlash("schemas/json/person.schema.json")+"\nRule: schema\n",
		previews["schemas/json/person.schema.json"])
}

func TestPick_Empty(t *testing.T) {
	workspace(t, map[string]string{"README.md": "# docs"})

	out, err := execute(t, "pick")
	require.NoError(t, err)
	assert.Equal(t, "No validatable files under .\n", out)
}

func TestVersion(t *testing.T) {
	workspace(t, nil)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "docvalidate version "))
	assert.Contains(t, out, "commit:")
	assert.Contains(t, out, "go:     go")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.Contains(t, info["go_version"], "go")
}

func TestSetupLogging_VerbosityFlags(t *testing.T) {
	origVerbosity := verbosity
	defer func() { verbosity = origVerbosity }()

	tests := []struct {
		name      string
		verbosity int
		wantLevel slog.Level
	}{
		{"default (0)", 0, slog.LevelWarn},
		{"verbose (1)", 1, slog.LevelInfo},
		{"debug (2)", 2, slog.LevelDebug},
		{"trace (3)", 3, logging.LevelTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbosity = tt.verbosity
			if err := setupLogging(rootCmd); err != nil {
				t.Fatalf("setupLogging failed: %v", err)
			}

			logger := slog.Default()
			if !logger.Enabled(t.Context(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > logging.LevelTrace {
				shouldBeDisabled := tt.wantLevel - 4
				if logger.Enabled(t.Context(), shouldBeDisabled) {
					t.Errorf("expected level %v to be disabled", shouldBeDisabled)
				}
			}
		})
	}
}

func TestSetupLogging_EnvVar(t *testing.T) {
	origVerbosity := verbosity
	defer func() { verbosity = origVerbosity }()

	tests := []struct {
		name      string
		envVal    string
		wantLevel slog.Level
	}{
		{"DOCVALIDATE_DEBUG=1", "1", slog.LevelDebug},
		{"DOCVALIDATE_DEBUG=true", "true", slog.LevelDebug},
		{"DOCVALIDATE_DEBUG=2", "2", logging.LevelTrace},
		{"DOCVALIDATE_DEBUG=0", "0", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbosity = 0
			t.Setenv("DOCVALIDATE_DEBUG", tt.envVal)

			if err := setupLogging(rootCmd); err != nil {
				t.Fatalf("setupLogging failed: %v", err)
			}

			if !slog.Default().Enabled(t.Context(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
		})
	}
}

func TestSetupLogging_QuietMutualExclusion(t *testing.T) {
	origVerbosity := verbosity
	origQuiet := quiet
	defer func() {
		verbosity = origVerbosity
		quiet = origQuiet
	}()

	verbosity = 1
	quiet = true

	if err := setupLogging(rootCmd); err == nil {
		t.Error("expected error when both quiet and verbose are set")
	}
}

func TestSetupLogging_LogFile(t *testing.T) {
	origFile := logFile
	origVerbosity := verbosity
	defer func() {
		logFile = origFile
		verbosity = origVerbosity
	}()

	logFile = filepath.Join(t.TempDir(), "docvalidate.log")
	verbosity = 1
	require.NoError(t, setupLogging(rootCmd))

	slog.Info("hello", "path", "a.json")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "a.json", entry["path"])
}

func TestSetupLogging_Color(t *testing.T) {
	orig, origNoColor := colorFlag, color.NoColor
	defer func() {
		colorFlag = orig
		color.NoColor = origNoColor
	}()
	t.Setenv("NO_COLOR", "1")

	colorFlag = "always"
	require.NoError(t, setupLogging(rootCmd))
	assert.False(t, color.NoColor)

	colorFlag = "auto"
	require.NoError(t, setupLogging(rootCmd))
	assert.True(t, color.NoColor)

	colorFlag = "rainbow"
	err := setupLogging(rootCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rainbow")
}
