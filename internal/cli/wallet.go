package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/addrstore"
	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/output"
	"github.com/mrz1836/alphscan/internal/vault"
	"github.com/mrz1836/alphscan/internal/wallet"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// createWords is the number of words for mnemonic generation.
	createWords int
	// createPassphrase indicates whether to prompt for a BIP39 passphrase.
	createPassphrase bool
	// importStdin reads the mnemonic from stdin instead of a hidden prompt.
	importStdin bool
	// importPassphrase indicates whether to prompt for a BIP39 passphrase during import.
	importPassphrase bool
	// deleteForce skips the safety check of wallet delete.
	deleteForce bool
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
	Long:  `Create, import, list, and remove encrypted HD wallets.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new HD wallet",
	Long: `Create a new HD wallet with a BIP39 mnemonic phrase.

The mnemonic will be displayed once - write it down and store it securely.
You will be prompted for a password to encrypt the wallet file.`,
	Example: `  alphscan wallet create main
  alphscan wallet create main --words 24 --passphrase`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a wallet from a mnemonic or hex seed",
	Example: `  alphscan wallet import main
  cat backup.txt | alphscan wallet import main --mnemonic-stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletImport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Args:  cobra.NoArgs,
	RunE:  runWalletList,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show wallet details",
	Long:  `Show wallet metadata and the first address of every group. No password is needed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWalletShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a wallet and its recorded addresses",
	Args:  cobra.ExactArgs(1),
	RunE:  runWalletDelete,
}

// walletDetail is the JSON output of wallet create, import, and show.
type walletDetail struct {
	wallet.Summary

	Mnemonic        string `json:"mnemonic,omitempty"`
	StoredAddresses int    `json:"stored_addresses"`
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	if err := checkNewWallet(cc, name); err != nil {
		return err
	}
	if createWords != 12 && createWords != 24 {
		return wallet.ErrInvalidWordCount
	}

	mnemonic, err := wallet.GenerateMnemonic(createWords)
	if err != nil {
		return err
	}

	passphrase := ""
	if createPassphrase {
		if passphrase, err = promptPassphraseFn(); err != nil {
			return err
		}
	}

	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return err
	}
	defer vault.Zero(seed)

	wlt, err := saveNewWallet(cc, name, seed)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(w, walletDetail{Summary: wlt.ToSummary(), Mnemonic: mnemonic})
	}

	displayMnemonic(w, mnemonic)
	displayFirstAddresses(w, wlt.FirstAddresses)
	outln(w)
	output.Successf(w, "Wallet '%s' created", name)
	return nil
}

func runWalletImport(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	if err := checkNewWallet(cc, name); err != nil {
		return err
	}

	var (
		input string
		err   error
	)
	if importStdin {
		input, err = readSecretInput(cmd.InOrStdin())
	} else {
		input, err = promptMnemonicFn()
	}
	if err != nil {
		return err
	}

	passphrase := ""
	if importPassphrase {
		if passphrase, err = promptPassphraseFn(); err != nil {
			return err
		}
	}

	seed, err := wallet.SeedFromInput(input, passphrase)
	if err != nil {
		return err
	}
	defer vault.Zero(seed)

	wlt, err := saveNewWallet(cc, name, seed)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(w, walletDetail{Summary: wlt.ToSummary()})
	}

	displayFirstAddresses(w, wlt.FirstAddresses)
	outln(w)
	output.Successf(w, "Wallet '%s' imported", name)
	output.Infof(w, "Run 'alphscan discover --wallet %s --save' to find its active addresses", name)
	return nil
}

// checkNewWallet validates name and makes sure it is free.
func checkNewWallet(cc *CommandContext, name string) error {
	if err := wallet.ValidateWalletName(name); err != nil {
		if s := wallet.SuggestWalletName(name); s != "" {
			return scanerr.WithDetails(err, map[string]string{"suggested_name": s})
		}
		return err
	}

	exists, err := cc.Storage.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return scanerr.WithDetails(wallet.ErrWalletExists, map[string]string{"wallet": name})
	}
	return nil
}

// saveNewWallet derives the wallet metadata from seed and stores it under a
// freshly prompted password.
func saveNewWallet(cc *CommandContext, name string, seed []byte) (*wallet.Wallet, error) {
	deriver, err := wallet.NewHDDeriver(seed)
	if err != nil {
		return nil, err
	}
	defer deriver.Wipe()

	wlt, err := wallet.NewWallet(name, deriver)
	if err != nil {
		return nil, err
	}

	password, err := promptNewPasswordFn()
	if err != nil {
		return nil, err
	}
	defer vault.Zero(password)

	if err := cc.Storage.Save(wlt, seed, password); err != nil {
		return nil, err
	}
	cc.Log.Debug("wallet %s saved", name)
	return wlt, nil
}

func runWalletList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	names, err := cc.Storage.List()
	if err != nil {
		return err
	}

	summaries := make([]wallet.Summary, 0, len(names))
	for _, name := range names {
		wlt, err := cc.Storage.LoadMetadata(name)
		if err != nil {
			cc.Log.Error("skipping wallet %s: %v", name, err)
			continue
		}
		summaries = append(summaries, wlt.ToSummary())
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(w, summaries)
	}

	if len(summaries) == 0 {
		outln(w, "No wallets found.")
		outln(w, "Create one with: alphscan wallet create <name>")
		return nil
	}

	table := output.NewTable("NAME", "CREATED", "LAST DISCOVERY")
	for _, s := range summaries {
		table.AddRow(s.Name, s.CreatedAt.Format(time.DateTime), formatDiscoveryTime(s.LastDiscovery))
	}
	return table.Render(w)
}

func runWalletShow(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	wlt, err := cc.Storage.LoadMetadata(name)
	if err != nil {
		if scanerr.Is(err, scanerr.ErrWalletNotFound) {
			return scanerr.WithSuggestion(err,
				fmt.Sprintf("wallet '%s' not found. List wallets with: alphscan wallet list", name))
		}
		return err
	}

	store, err := addrstore.Open(cc.Cfg.StorePath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	indexes, err := store.Indexes(name)
	if err != nil {
		return err
	}

	detail := walletDetail{Summary: wlt.ToSummary(), StoredAddresses: len(indexes)}

	w := cmd.OutOrStdout()
	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(w, detail)
	}

	out(w, "Wallet:         %s\n", detail.Name)
	out(w, "Created:        %s\n", detail.CreatedAt.Format(time.DateTime))
	out(w, "Last discovery: %s\n", formatDiscoveryTime(detail.LastDiscovery))
	out(w, "Recorded:       %d active addresses\n", detail.StoredAddresses)
	outln(w)
	displayFirstAddresses(w, detail.Addresses)
	return nil
}

func runWalletDelete(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name := args[0]

	if !deleteForce {
		return scanerr.WithSuggestion(scanerr.ErrInvalidInput,
			"deleting a wallet cannot be undone; repeat with --force")
	}

	if err := cc.Storage.Delete(name); err != nil {
		return err
	}

	store, err := addrstore.Open(cc.Cfg.StorePath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Forget(name); err != nil {
		return err
	}

	return output.FormatSuccess(cmd.OutOrStdout(), fmt.Sprintf("wallet '%s' deleted", name), cc.Fmt.Format())
}

// displayMnemonic shows the mnemonic phrase with formatting.
func displayMnemonic(w io.Writer, mnemonic string) {
	outln(w)
	outln(w, "═══════════════════════════════════════════════════════════════")
	outln(w, "                    RECOVERY PHRASE")
	outln(w, "═══════════════════════════════════════════════════════════════")
	outln(w)
	outln(w, "Write down these words in order and store them securely.")
	outln(w, "This is the ONLY way to recover your wallet.")
	outln(w)

	for i, word := range strings.Fields(mnemonic) {
		out(w, "%2d. %s\n", i+1, word)
	}

	outln(w)
	outln(w, "═══════════════════════════════════════════════════════════════")
	outln(w)
}

// displayFirstAddresses lists the lowest-index address of each group.
func displayFirstAddresses(w io.Writer, addrs map[chain.Group]string) {
	groups := make([]chain.Group, 0, len(addrs))
	for g := range addrs {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	outln(w, "First address per group:")
	for _, g := range groups {
		out(w, "  [%d] %s\n", g, addrs[g])
	}
}

func formatDiscoveryTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	walletCreateCmd.Flags().IntVar(&createWords, "words", 12, "mnemonic length: 12 or 24")
	walletCreateCmd.Flags().BoolVar(&createPassphrase, "passphrase", false, "prompt for a BIP39 passphrase")

	walletImportCmd.Flags().BoolVar(&importStdin, "mnemonic-stdin", false, "read the mnemonic or hex seed from stdin")
	walletImportCmd.Flags().BoolVar(&importPassphrase, "passphrase", false, "prompt for a BIP39 passphrase")

	walletDeleteCmd.Flags().BoolVar(&deleteForce, "force", false, "confirm the deletion")

	walletCmd.AddCommand(walletCreateCmd, walletImportCmd, walletListCmd, walletShowCmd, walletDeleteCmd)
	rootCmd.AddCommand(walletCmd)
}
