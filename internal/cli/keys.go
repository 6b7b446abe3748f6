package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/vault"
	"github.com/mrz1836/alphscan/internal/wallet"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// keySource selects where a command gets its key material from.
type keySource struct {
	wallet        string
	mnemonicStdin bool
	passphrase    bool
}

// register adds the key source flags to cmd.
func (k *keySource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&k.wallet, "wallet", "w", "", "stored wallet to use")
	cmd.Flags().BoolVar(&k.mnemonicStdin, "mnemonic-stdin", false, "read a mnemonic or hex seed from stdin instead of a stored wallet")
	cmd.Flags().BoolVar(&k.passphrase, "passphrase", false, "prompt for a BIP39 passphrase (with --mnemonic-stdin)")
	cmd.MarkFlagsMutuallyExclusive("wallet", "mnemonic-stdin")
}

// deriver builds an HD deriver from the selected source. For a stored wallet
// the wallet metadata is returned too. The caller must Wipe the deriver.
func (k *keySource) deriver(cmd *cobra.Command, cc *CommandContext) (*wallet.HDDeriver, *wallet.Wallet, error) {
	switch {
	case k.wallet != "":
		return loadWalletDeriver(cc, k.wallet)
	case k.mnemonicStdin:
		d, err := stdinDeriver(cmd, k.passphrase)
		return d, nil, err
	default:
		return nil, nil, scanerr.WithSuggestion(
			scanerr.ErrInvalidInput,
			"select key material with --wallet NAME or --mnemonic-stdin",
		)
	}
}

// loadWalletDeriver decrypts a stored wallet.
func loadWalletDeriver(cc *CommandContext, name string) (*wallet.HDDeriver, *wallet.Wallet, error) {
	if cc.Storage == nil {
		return nil, nil, scanerr.ErrWalletNotFound
	}

	password, err := promptPasswordFn(fmt.Sprintf("Enter password for wallet %q: ", name))
	if err != nil {
		return nil, nil, err
	}
	defer vault.Zero(password)

	wlt, seed, err := cc.Storage.Load(name, password)
	if err != nil {
		return nil, nil, err
	}
	defer seed.Destroy()

	d, err := wallet.NewHDDeriverFromSecure(seed)
	if err != nil {
		return nil, nil, err
	}
	return d, wlt, nil
}

// stdinDeriver builds a deriver from a mnemonic or hex seed piped on stdin.
func stdinDeriver(cmd *cobra.Command, askPassphrase bool) (*wallet.HDDeriver, error) {
	input, err := readSecretInput(cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	passphrase := ""
	if askPassphrase {
		if passphrase, err = promptPassphraseFn(); err != nil {
			return nil, err
		}
	}

	seed, err := wallet.SeedFromInput(input, passphrase)
	if err != nil {
		return nil, err
	}
	defer vault.Zero(seed)

	return wallet.NewHDDeriver(seed)
}
