// Package discovery walks a directory tree and validates every file a rule
// applies to.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/thoreinstein/docvalidate/internal/dispatch"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/rule"
	"github.com/thoreinstein/docvalidate/internal/validator"
)

// DefaultExclude lists directory names never descended into.
var DefaultExclude = []string{".git", "node_modules"}

// errStop ends a fail-fast walk early.
var errStop = errors.New("stop walk")

// Entry is a discovered file and the rule that governs it.
type Entry struct {
	Path string    `json:"path"`
	Rule rule.Rule `json:"rule"`
}

// Walker validates the files under a root directory.
type Walker struct {
	// FS is the filesystem walked.
	FS afero.Fs
	// Dispatcher validates each discovered file.
	Dispatcher *dispatch.Dispatcher
	// Reporter receives one outcome per validated file. Optional.
	Reporter *validator.Reporter
	// FailFast stops the walk at the first non-success outcome.
	FailFast bool
	// Exclude holds filepath.Match patterns for directory base names to skip.
	Exclude []string
	// Ignore lists individual files never validated, such as docvalidate's
	// own config file and report. Paths are compared in absolute form.
	Ignore []string
	// Logger receives debug output. Optional.
	Logger *slog.Logger
}

func (w *Walker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}

func (w *Walker) excluded(name string) bool {
	for _, pattern := range w.Exclude {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *Walker) ignored(path string) bool {
	if len(w.Ignore) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range w.Ignore {
		if other, err := filepath.Abs(p); err == nil && other == abs {
			return true
		}
	}
	return false
}

// isFile reports whether path is a regular file. Symlinks count when they
// point at one; symlinked directories are not descended into.
func (w *Walker) isFile(path string, info fs.FileInfo) bool {
	if info.Mode().IsRegular() {
		return true
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := w.FS.Stat(path)
	return err == nil && target.Mode().IsRegular()
}

// walk visits every regular file under root in lexical order, skipping
// excluded directories and ignored files, and calls fn with its path and rule.
func (w *Walker) walk(root string, fn func(path string, r rule.Rule) error) error {
	return afero.Walk(w.FS, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "walking %s", path), errors.ErrUnexpected)
		}
		if info.IsDir() {
			if path != root && w.excluded(info.Name()) {
				w.logger().Debug("skipping excluded directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !w.isFile(path, info) {
			return nil
		}
		if w.ignored(path) {
			w.logger().Debug("skipping own file", "path", path)
			return nil
		}
		return fn(path, rule.Classify(path))
	})
}

// Run validates every file under root and reports each outcome.
//
// In fail-fast mode the walk stops after the first non-success outcome and
// Summary.Err is that outcome's error. Otherwise every file is validated and
// Summary.Err combines all failures. Cancelling ctx stops the walk between
// files.
func (w *Walker) Run(ctx context.Context, root string) *validator.Summary {
	log := w.logger()
	summary := &validator.Summary{Root: root}
	var errs error

	if w.Reporter != nil {
		w.Reporter.Header(root)
	}

	walkErr := w.walk(root, func(path string, r rule.Rule) error {
		if err := ctx.Err(); err != nil {
			return errors.Mark(errors.Wrap(err, "discovery interrupted"), errors.ErrUnexpected)
		}
		if r == rule.Skip {
			summary.Skipped++
			return nil
		}

		log.Debug("validating", "path", path, "rule", r)
		o := w.Dispatcher.ValidateOne(ctx, path)
		summary.Add(o)
		if w.Reporter != nil {
			if err := w.Reporter.Report(o); err != nil {
				return errors.Mark(errors.Wrap(err, "reporting outcome"), errors.ErrUnexpected)
			}
		}

		if o.OK() {
			return nil
		}
		errs = multierr.Append(errs, outcomeErr(o))
		if w.FailFast {
			return errStop
		}
		return nil
	})

	switch {
	case walkErr == nil, errors.Is(walkErr, errStop):
	default:
		errs = multierr.Append(errs, walkErr)
	}
	summary.Err = errs

	log.Debug("discovery finished",
		"root", root,
		"checked", summary.Checked,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped)
	return summary
}

func outcomeErr(o validator.Outcome) error {
	if o.Err != nil {
		return o.Err
	}
	return errors.New(o.Message)
}

// List returns every file under root that some rule applies to, in walk
// order.
func (w *Walker) List(root string) ([]Entry, error) {
	var entries []Entry
	err := w.walk(root, func(path string, r rule.Rule) error {
		if r != rule.Skip {
			entries = append(entries, Entry{Path: path, Rule: r})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
