package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/docvalidate/internal/config"
	"github.com/thoreinstein/docvalidate/internal/discovery"
	"github.com/thoreinstein/docvalidate/internal/dispatch"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/logging"
	"github.com/thoreinstein/docvalidate/internal/openapi"
	"github.com/thoreinstein/docvalidate/internal/paths"
	"github.com/thoreinstein/docvalidate/internal/schema"
	"github.com/thoreinstein/docvalidate/internal/validator"
	"github.com/thoreinstein/docvalidate/pkg/fileutil"
)

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := loadedConfig
	logger := logging.FromContext(ctx)

	reporter, err := newReporter(cmd, cfg)
	if err != nil {
		return err
	}
	d := newDispatcher(cfg, logger)

	var o validator.Outcome
	switch {
	case schemaFlag != "" && instanceFlag != "":
		o = d.ValidatePair(ctx, schemaFlag, instanceFlag)
	case schemaFlag != "":
		o = d.ValidateSchemaPath(ctx, schemaFlag)
	case instanceFlag != "":
		o = d.ValidateInstancePath(ctx, instanceFlag)
	default:
		root, err := discoveryRoot(cfg, nil)
		if err != nil {
			return err
		}
		return runDiscovery(ctx, cfg, d, reporter, root, logger)
	}
	return reportSingle(cfg, reporter, o)
}

func newReporter(cmd *cobra.Command, cfg *config.Config) (*validator.Reporter, error) {
	format, err := validator.ParseFormat(cfg.Format)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	return validator.NewReporter(cmd.OutOrStdout(), format), nil
}

// newDispatcher wires the validation engine from configuration.
func newDispatcher(cfg *config.Config, logger *slog.Logger) *dispatch.Dispatcher {
	var meta schema.MetaschemaSource = schema.Bundled{}
	if cfg.Metaschema.Source == config.SourceRemote {
		meta = schema.Remote{URL: cfg.Metaschema.URL, Timeout: cfg.Metaschema.Timeout}
	}

	return dispatch.New(appFs,
		dispatch.WithMaxFileSize(cfg.MaxFileSize),
		dispatch.WithMetaschema(meta),
		dispatch.WithOpenAPIOptions(
			openapi.WithStrict(cfg.OpenAPI.Strict),
			openapi.WithWarnings(cfg.OpenAPI.IncludeWarnings),
		),
		dispatch.WithSchemaOptions(schema.WithFetchTimeout(cfg.Metaschema.Timeout)),
		dispatch.WithLogger(logger),
	)
}

func newWalker(cfg *config.Config, d *dispatch.Dispatcher, reporter *validator.Reporter, logger *slog.Logger) *discovery.Walker {
	exclude := cfg.Exclude
	if exclude == nil {
		exclude = discovery.DefaultExclude
	}
	return &discovery.Walker{
		FS:         appFs,
		Dispatcher: d,
		Reporter:   reporter,
		FailFast:   cfg.FailFast,
		Exclude:    exclude,
		Ignore:     ownFiles(cfg),
		Logger:     logger,
	}
}

// ownFiles lists the files docvalidate itself reads or writes, which
// discovery must not mistake for documents.
func ownFiles(cfg *config.Config) []string {
	var files []string
	if cfg.File != "" {
		files = append(files, cfg.File)
	}
	if cfg.ReportFile != "" {
		files = append(files, cfg.ReportFile)
	}
	return files
}

// discoveryRoot picks the directory to walk: a positional argument, then
// the configured root, then the working directory.
func discoveryRoot(cfg *config.Config, args []string) (string, error) {
	root := cfg.Root
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		root = "."
	}
	root, err := paths.ExpandHome(root)
	if err != nil {
		return "", errors.NewUnexpectedError(err)
	}
	return root, nil
}

func runDiscovery(ctx context.Context, cfg *config.Config, d *dispatch.Dispatcher, reporter *validator.Reporter, root string, logger *slog.Logger) error {
	logger.Info("starting discovery", "root", root, "fail_fast", cfg.FailFast)

	summary := newWalker(cfg, d, reporter, logger).Run(ctx, root)
	if err := reporter.Finish(summary); err != nil {
		return errors.NewUnexpectedError(err)
	}
	if err := writeReportFile(cfg, summary); err != nil {
		return err
	}
	if !summary.OK() {
		return errors.NewReportedError(summary.Err)
	}
	return nil
}

// reportSingle prints the outcome of a single-file validation and maps it to
// the command's error.
func reportSingle(cfg *config.Config, reporter *validator.Reporter, o validator.Outcome) error {
	if err := reporter.Report(o); err != nil {
		return errors.NewUnexpectedError(err)
	}

	summary := &validator.Summary{}
	summary.Add(o)
	if !o.OK() {
		summary.Err = o.Err
	}
	if err := reporter.Finish(summary); err != nil {
		return errors.NewUnexpectedError(err)
	}
	if err := writeReportFile(cfg, summary); err != nil {
		return err
	}

	if !o.OK() {
		return errors.NewReportedError(o.Err)
	}
	return nil
}

// writeReportFile saves the JSON report to --report-file, if set.
func writeReportFile(cfg *config.Config, summary *validator.Summary) error {
	path := cfg.ReportFile
	if path == "" {
		return nil
	}
	data, err := validator.MarshalReport(summary)
	if err != nil {
		return errors.NewUnexpectedError(err)
	}
	if err := fileutil.WriteFileAtomic(appFs, path, data, 0o644); err != nil {
		return errors.NewUnexpectedError(errors.Wrapf(err, "writing report to %s", path))
	}
	return nil
}
