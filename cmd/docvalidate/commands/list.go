package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/docvalidate/internal/discovery"
	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/logging"
	"github.com/thoreinstein/docvalidate/internal/validator"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [root]",
	Short: "List the files discovery would validate",
	Long: `List every file under root that a validation rule applies to, with the
rule that would be used. Nothing is validated.`,
	Example: `  docvalidate list
  docvalidate list services --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig
	root, err := discoveryRoot(cfg, args)
	if err != nil {
		return err
	}

	w := newWalker(cfg, nil, nil, logging.FromContext(cmd.Context()))
	entries, err := w.List(root)
	if err != nil {
		return errors.NewUnexpectedError(err)
	}

	out := cmd.OutOrStdout()
	if validator.Format(cfg.Format) == validator.FormatJSON {
		if entries == nil {
			entries = []discovery.Entry{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(entries), "encoding JSON list")
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\n", e.Rule, e.Path)
	}
	return nil
}
