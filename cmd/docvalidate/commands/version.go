package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/docvalidate/cmd"
	"github.com/thoreinstein/docvalidate/internal/validator"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long: `Print the version, commit, build date and Go version of docvalidate.

With --format json the same fields are printed as a JSON object.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		info := cmd.Info()
		out := c.OutOrStdout()

		if validator.Format(formatFlag) == validator.FormatJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintf(out, "docvalidate version %s\n", info.Version)
		fmt.Fprintf(out, "  commit: %s\n", info.Commit)
		fmt.Fprintf(out, "  built:  %s\n", info.Date)
		fmt.Fprintf(out, "  go:     %s\n", info.GoVersion)
		return nil
	},
}
