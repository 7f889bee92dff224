// Package commands implements the CLI commands for docvalidate.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/thoreinstein/docvalidate/cmd"
	"github.com/thoreinstein/docvalidate/internal/config"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/logging"
)

// appFs is the filesystem every command reads from.
var appFs = afero.NewOsFs()

// Flag values.
var (
	schemaFlag       string
	instanceFlag     string
	configFile       string
	rootFlag         string
	keepGoing        bool
	formatFlag       string
	metaschemaSource string
	strictOpenAPI    bool
	verbosity        int
	quiet            bool
	logFormat        string
	logFile          string
	colorFlag        string
	reportFile       string
)

// loadedConfig and configLoadErr hold the outcome of initConfig.
var (
	loadedConfig  *config.Config
	configLoadErr error
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVar(&schemaFlag, "schema", "",
		"schema file to validate (.json as JSON Schema, .yaml/.yml as OpenAPI)")
	rootCmd.Flags().StringVar(&instanceFlag, "instance", "",
		"instance file to validate (against --schema, or its resolved schema)")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "",
		"config file (default: ./docvalidate.yaml, then $XDG_CONFIG_HOME/docvalidate/docvalidate.yaml)")
	pf.StringVar(&rootFlag, "root", "",
		"directory to auto-discover from (default: config root, else .)")
	pf.BoolVar(&keepGoing, "keep-going", false,
		"validate every file instead of stopping at the first failure")
	pf.StringVar(&formatFlag, "format", "text",
		"output format: text, json")
	pf.StringVar(&reportFile, "report-file", "",
		"also write the JSON report to this file (never validated itself)")
	pf.StringVar(&metaschemaSource, "metaschema-source", config.SourceBundled,
		"where the Draft 2020-12 metaschema comes from: bundled, remote")
	pf.BoolVar(&strictOpenAPI, "strict-openapi", false,
		"enable stricter OpenAPI checks")
	pf.CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	pf.BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error log output")
	pf.StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	pf.StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	pf.StringVar(&colorFlag, "color", string(logging.ColorAuto),
		"colorize output: auto, always, never")

	rootCmd.Version = cmd.Info().Version
	rootCmd.SetVersionTemplate("docvalidate version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// flagKeys maps persistent flags onto config keys so an explicit flag wins
// over the file and the environment.
var flagKeys = map[string]string{
	"root":              "root",
	"format":            "format",
	"metaschema-source": "metaschema.source",
	"strict-openapi":    "openapi.strict",
	"report-file":       "report_file",
}

func initConfig() {
	viper.Reset()
	for flag, key := range flagKeys {
		if f := rootCmd.PersistentFlags().Lookup(flag); f != nil && f.Changed {
			_ = viper.BindPFlag(key, f)
		}
	}

	config.Init()
	loadedConfig, configLoadErr = config.Load(configFile)
	if configLoadErr != nil {
		return
	}
	if keepGoing {
		loadedConfig.FailFast = false
	}
	if errs := config.Validate(loadedConfig); len(errs) > 0 {
		configLoadErr = multierr.Combine(errs...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docvalidate",
	Short: "Validate JSON Schemas, JSON documents and OpenAPI specifications",
	Long: `docvalidate checks structured documents against their schemas.

With no flags it walks a directory tree and validates every file a rule
applies to:

  *.schema.json          Draft 2020-12 JSON Schema (metaschema check)
  *.schema.yaml|yml      OpenAPI specification
  *.json                 JSON instance, against its $schema or the
                         instances/json -> schemas/json fallback
  *.yaml|yml             OpenAPI specification

Directories named .git or node_modules are not entered; set the exclude
config key to change the list. Symlinked files are validated, symlinked
directories are not followed. The loaded config file and the report file
are never validated.

Use --schema and/or --instance to validate specific files instead.`,
	Example: `  # Validate everything under the current directory
  docvalidate

  # Validate one JSON Schema
  docvalidate --schema schemas/json/person.schema.json

  # Validate an instance against an explicit schema
  docvalidate --schema schemas/json/person.schema.json --instance data/ada.json

  # Keep going past failures and emit a JSON report
  docvalidate --root services --keep-going --format json`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging first
		if err := setupLogging(cmd); err != nil {
			return err
		}
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		if configLoadErr != nil {
			return errors.NewConfigError(configLoadErr)
		}
		return nil
	},
	RunE: runRoot,
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("DOCVALIDATE_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	mode, err := logging.ParseColorMode(colorFlag)
	if err != nil {
		return errors.NewUserError(err, "use --color auto, always or never")
	}
	color.NoColor = !logging.ColorEnabled(cmd.OutOrStdout(), mode)

	logCfg := logging.Config{
		Level:  level,
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
		Color:  mode,
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		logCfg.Tee = f
	}

	logger := logging.New(logCfg)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// Execute runs the root command. SIGINT cancels the run between files.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
