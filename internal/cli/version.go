package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/output"
	"github.com/mrz1836/alphscan/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()
		if GetCmdContext(cmd).Fmt.Format() == output.FormatJSON {
			return writeJSON(cmd.OutOrStdout(), info)
		}
		outln(cmd.OutOrStdout(), info.String())
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
