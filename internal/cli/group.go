package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/output"
	"github.com/mrz1836/alphscan/internal/wallet"
)

// groupCmd reports the group of addresses.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var groupCmd = &cobra.Command{
	Use:     "group <address>...",
	Short:   "Show the group of one or more addresses",
	Example: `  alphscan group 1qUhzfi2GxZ3tV7tv9a4HoNu8azz7M4HkxTAi2erzLHS`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runGroup,
}

type addressGroup struct {
	Address string      `json:"address"`
	Group   chain.Group `json:"group"`
}

func runGroup(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	results := make([]addressGroup, 0, len(args))
	for _, arg := range args {
		group, err := wallet.ParseAddress(arg)
		if err != nil {
			return err
		}
		results = append(results, addressGroup{Address: wallet.SanitizeAddress(arg), Group: group})
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}

	table := output.NewTable("ADDRESS", "GROUP")
	for _, r := range results {
		table.AddRow(r.Address, r.Group.String())
	}
	return table.Render(cmd.OutOrStdout())
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(groupCmd)
}
