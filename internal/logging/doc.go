// Package logging provides the slog setup for docvalidate.
//
// Diagnostics go to stderr through a TTY-aware text [Handler] (or slog's
// JSON handler), optionally fanned out to a log file with [MultiHandler].
// Validation results never go through the logger; they are written by the
// reporter to stdout.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//		Color:  logging.ColorAuto,
//		Tee:    logFile, // optional JSON copy
//	})
//	ctx = logging.NewContext(ctx, logger)
//
// # Testing
//
// Use [ForTest] to route log output through the testing framework:
//
//	d := dispatch.New(fs, dispatch.WithLogger(logging.ForTest(t)))
package logging
