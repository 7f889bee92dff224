package commands

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/docvalidate/internal/discovery"
	"github.com/thoreinstein/docvalidate/internal/dispatch"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/logging"
	"github.com/thoreinstein/docvalidate/internal/resolve"
	"github.com/thoreinstein/docvalidate/internal/rule"
)

func init() {
	rootCmd.AddCommand(pickCmd)
}

var pickCmd = &cobra.Command{
	Use:   "pick [root]",
	Short: "Fuzzy-find a discovered file and validate it",
	Long: `Open an interactive finder over the files discovery would validate, then
validate the selected one. Escape or Ctrl-C aborts without validating.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPick,
}

// findEntry lets the user choose one entry, showing describe's text for the
// highlighted one. It is swapped out in tests.
var findEntry = func(entries []discovery.Entry, describe func(discovery.Entry) string) (int, error) {
	return fuzzyfinder.Find(
		entries,
		func(i int) string {
			return fmt.Sprintf("%s: %s", entries[i].Rule, entries[i].Path)
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return describe(entries[i])
		}),
	)
}

// previewer describes how an entry would be validated, resolving JSON
// instances the way validation will.
func previewer(d *dispatch.Dispatcher) func(discovery.Entry) string {
	return func(e discovery.Entry) string {
		s := fmt.Sprintf("Path: %s\nRule: %s\n", e.Path, e.Rule)
		if e.Rule != rule.JSONInstance {
			return s
		}
		ref, err := d.ResolveSchema(e.Path)
		switch {
		case err != nil:
			s += fmt.Sprintf("Schema: unresolved (%v)\n", err)
		case ref.Source == resolve.SourceDeclared:
			s += fmt.Sprintf("Declared schema: %s\n", ref.SchemaPath)
		default:
			s += fmt.Sprintf("Fallback schema: %s\n", ref.SchemaPath)
		}
		return s
	}
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadedConfig
	logger := logging.FromContext(ctx)

	root, err := discoveryRoot(cfg, args)
	if err != nil {
		return err
	}

	entries, err := newWalker(cfg, nil, nil, logger).List(root)
	if err != nil {
		return errors.NewUnexpectedError(err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No validatable files under %s\n", root)
		return nil
	}

	d := newDispatcher(cfg, logger)
	idx, err := findEntry(entries, previewer(d))
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil
		}
		return errors.Wrap(err, "interactive selection failed")
	}

	reporter, err := newReporter(cmd, cfg)
	if err != nil {
		return err
	}
	o := d.ValidateOne(ctx, entries[idx].Path)
	return reportSingle(cfg, reporter, o)
}
