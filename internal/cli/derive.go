package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/output"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	deriveKeys  keySource
	deriveGroup string
	deriveCount int
	deriveSkip  string
	deriveQR    bool
)

// deriveCmd prints the next addresses of a group without touching the network.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the next addresses of a group",
	Long: `Derive addresses of one group in increasing index order, skipping the
indexes given with --skip. No explorer requests are made.`,
	Example: `  alphscan derive --wallet main --group 0 --count 3
  alphscan derive --wallet main --group 2 --skip 7,9 --qr`,
	RunE: runDerive,
}

// deriveResponse is the JSON output of derive.
type deriveResponse struct {
	Group     chain.Group     `json:"group"`
	Skip      []uint32        `json:"skip"`
	Addresses []chain.Address `json:"addresses"`
}

func runDerive(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	group, err := chain.ParseGroup(deriveGroup)
	if err != nil {
		return scanerr.WithSuggestion(err, "--group must be between 0 and 3")
	}
	if deriveCount < 1 {
		return scanerr.WithDetails(
			scanerr.WithSuggestion(scanerr.ErrInvalidInput, "--count must be at least 1"),
			map[string]string{"count": strconv.Itoa(deriveCount)},
		)
	}
	skip, err := parseIndexList(deriveSkip)
	if err != nil {
		return err
	}

	deriver, _, err := deriveKeys.deriver(cmd, cc)
	if err != nil {
		return err
	}
	defer deriver.Wipe()

	addrs, err := deriver.DeriveAddresses(cmd.Context(), group, deriveCount, skip)
	if err != nil {
		return err
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), deriveResponse{Group: group, Skip: skip, Addresses: addrs})
	}
	return displayDeriveText(cmd.OutOrStdout(), addrs, deriveQR)
}

func displayDeriveText(w io.Writer, addrs []chain.Address, qr bool) error {
	table := output.NewTable("INDEX", "ADDRESS", "PATH").AlignRight(0)
	for _, a := range addrs {
		table.AddRow(strconv.FormatUint(uint64(a.Index), 10), a.Hash, a.Path)
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if !qr || len(addrs) == 0 {
		return nil
	}
	outln(w)
	err := output.WriteAddressQR(w, addrs[0])
	if errors.Is(err, output.ErrNotTerminal) {
		output.Warnf(w, "%s", output.ErrNotTerminal.Message)
		return nil
	}
	return err
}

// parseIndexList parses a comma-separated list of derivation indexes.
func parseIndexList(s string) ([]uint32, error) {
	out := []uint32{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, scanerr.WithDetails(
				scanerr.WithSuggestion(scanerr.ErrInvalidInput, "--skip takes comma-separated indexes, e.g. 7,9"),
				map[string]string{"index": part},
			)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	deriveKeys.register(deriveCmd)
	deriveCmd.Flags().StringVarP(&deriveGroup, "group", "g", "0", "address group (0-3)")
	deriveCmd.Flags().IntVarP(&deriveCount, "count", "n", 1, "number of addresses")
	deriveCmd.Flags().StringVar(&deriveSkip, "skip", "", "comma-separated indexes to skip")
	deriveCmd.Flags().BoolVar(&deriveQR, "qr", false, "render the first address as a QR code")

	rootCmd.AddCommand(deriveCmd)
}
