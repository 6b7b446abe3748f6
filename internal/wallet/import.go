package wallet

import (
	"encoding/hex"
	"strings"

	"github.com/mrz1836/go-sanitize"

	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// InputFormat is the detected format of wallet import input.
type InputFormat int

// Supported import formats.
const (
	FormatUnknown InputFormat = iota
	FormatMnemonic
	FormatHexSeed
)

// String returns the string representation of the input format.
func (f InputFormat) String() string {
	switch f {
	case FormatMnemonic:
		return "mnemonic"
	case FormatHexSeed:
		return "hex seed"
	case FormatUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// DetectInputFormat classifies import input as a mnemonic or a raw hex seed.
func DetectInputFormat(input string) InputFormat {
	input = strings.TrimSpace(input)
	if input == "" {
		return FormatUnknown
	}

	if isHexSeed(input) {
		return FormatHexSeed
	}

	words := strings.Fields(normalizeMnemonic(input))
	if len(words) == 12 || len(words) == 24 {
		return FormatMnemonic
	}
	return FormatUnknown
}

// SeedFromInput turns import input into a BIP39 seed. The passphrase only
// applies to mnemonics.
func SeedFromInput(input, passphrase string) ([]byte, error) {
	switch DetectInputFormat(input) {
	case FormatMnemonic:
		return MnemonicToSeed(input, passphrase)
	case FormatHexSeed:
		return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(input), "0x"))
	case FormatUnknown:
		return nil, scanerr.WithSuggestion(scanerr.ErrInvalidInput, "provide a 12 or 24 word mnemonic or a 64-byte hex seed")
	default:
		return nil, scanerr.ErrInvalidInput
	}
}

// isHexSeed reports whether s is a 64-byte hex string.
func isHexSeed(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 128 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// SanitizeAddress strips every character outside the base58 alphabet.
func SanitizeAddress(input string) string {
	return sanitize.BitcoinAddress(strings.TrimSpace(input))
}
