package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/addrstore"
	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/output"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	addressesWallet string
	addressesGroup  string
)

// addressesCmd is the parent command for recorded addresses.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Inspect addresses recorded by discovery",
	Long:  `Inspect the active addresses saved by 'alphscan discover --save'.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the recorded addresses of a wallet",
	Example: `  alphscan addresses list --wallet main
  alphscan addresses list --wallet main --group 1 -o json`,
	Args: cobra.NoArgs,
	RunE: runAddressesList,
}

func runAddressesList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	var filter *chain.Group
	if addressesGroup != "" {
		g, err := chain.ParseGroup(addressesGroup)
		if err != nil {
			return scanerr.WithSuggestion(err, "--group must be between 0 and 3")
		}
		filter = &g
	}

	exists, err := cc.Storage.Exists(addressesWallet)
	if err != nil {
		return err
	}
	if !exists {
		return scanerr.WithDetails(scanerr.ErrWalletNotFound, map[string]string{"wallet": addressesWallet})
	}

	store, err := addrstore.Open(cc.Cfg.StorePath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	all, err := store.Addresses(addressesWallet)
	if err != nil {
		return err
	}

	addrs := make([]addrstore.StoredAddress, 0, len(all))
	for _, a := range all {
		if filter == nil || a.Group == *filter {
			addrs = append(addrs, a)
		}
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), addrs)
	}
	displayAddressesText(cmd.OutOrStdout(), addrs)
	return nil
}

func displayAddressesText(w io.Writer, addresses []addrstore.StoredAddress) {
	if len(addresses) == 0 {
		outln(w, "No recorded addresses. Run 'alphscan discover --wallet <name> --save' first.")
		return
	}

	outln(w)
	outln(w, "  Index  Address                                      First seen")
	outln(w, "  ─────  ───────────────────────────────────────────  ───────────────────")

	current := chain.Group(chain.TotalGroups)
	for _, addr := range addresses {
		if addr.Group != current {
			if current != chain.TotalGroups {
				outln(w)
			}
			out(w, "  [GROUP %d]\n", addr.Group)
			current = addr.Group
		}

		out(w, "  %5d  %-43s  %s\n",
			addr.Index, truncateAddressDisplay(addr.Address), addr.FirstSeen.Local().Format("2006-01-02 15:04:05"))
	}

	outln(w)
}

// truncateAddressDisplay shortens an address for table display.
func truncateAddressDisplay(addr string) string {
	if len(addr) > 43 {
		return addr[:20] + "..." + addr[len(addr)-20:]
	}
	return strings.TrimSpace(addr)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	addressesListCmd.Flags().StringVarP(&addressesWallet, "wallet", "w", "", "wallet name")
	addressesListCmd.Flags().StringVarP(&addressesGroup, "group", "g", "", "only show this group (0-3)")
	_ = addressesListCmd.MarkFlagRequired("wallet")

	addressesCmd.AddCommand(addressesListCmd)
	rootCmd.AddCommand(addressesCmd)
}
