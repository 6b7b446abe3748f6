package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mrz1836/alphscan/internal/vault"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// maxSecretInput bounds how much is read from stdin for a mnemonic.
const maxSecretInput = 4096

// minPasswordLength is the shortest accepted wallet password.
const minPasswordLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // Replaceable for tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptPassphraseFn  = promptPassphrase
	promptMnemonicFn    = promptMnemonic
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		vault.Zero(password)
		return nil, scanerr.WithSuggestion(
			scanerr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		vault.Zero(password)
		return nil, err
	}
	defer vault.Zero(confirm)

	if string(password) != string(confirm) {
		vault.Zero(password)
		return nil, scanerr.WithSuggestion(
			scanerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptPassphrase prompts for an optional BIP39 passphrase.
func promptPassphrase() (string, error) {
	outln(os.Stderr, "\nBIP39 Passphrase (leave empty if the wallet has none):")

	passphrase, err := promptPassword("Enter passphrase: ")
	if err != nil {
		return "", err
	}
	defer vault.Zero(passphrase)

	return string(passphrase), nil
}

// promptMnemonic reads a mnemonic with hidden input.
func promptMnemonic() (string, error) {
	secret, err := promptPassword("Enter mnemonic (all words on one line): ")
	if err != nil {
		return "", err
	}
	defer vault.Zero(secret)

	if len(secret) == 0 {
		return "", scanerr.WithSuggestion(scanerr.ErrInvalidInput, "no input provided")
	}
	return string(secret), nil
}

// readSecretInput reads a mnemonic or hex seed piped on r. Lines are joined
// with spaces so word-per-line lists work.
func readSecretInput(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(io.LimitReader(r, maxSecretInput))

	var parts []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			parts = append(parts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	if len(parts) == 0 {
		return "", scanerr.WithSuggestion(scanerr.ErrInvalidInput, "no mnemonic received on stdin")
	}
	return strings.Join(parts, " "), nil
}
