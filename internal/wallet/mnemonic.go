// Package wallet provides wallet management for alphscan: BIP39 mnemonics,
// BIP44 address derivation on the Alephium coin type, and encrypted storage.
package wallet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// maxTypoDistance is the largest edit distance still offered as a correction.
const maxTypoDistance = 2

var (
	// ErrInvalidWordCount indicates the mnemonic must be 12 or 24 words.
	ErrInvalidWordCount = scanerr.WithSuggestion(scanerr.ErrInvalidInput, "word count must be 12 or 24")

	// ErrInvalidMnemonic indicates the mnemonic is not valid.
	ErrInvalidMnemonic = scanerr.ErrInvalidMnemonic

	// listMarkerRegex matches "1." "2)" "3:" and "-" "*" "•" at line starts,
	// as found in phrases copied from backups.
	listMarkerRegex = regexp.MustCompile(`(?m)^\s*(?:\d+[.):]|[-*•])\s*`)
)

// entropyBits maps the supported phrase lengths to their entropy size.
var entropyBits = map[int]int{12: 128, 24: 256} //nolint:gochecknoglobals // lookup table

// GenerateMnemonic creates a new 12 or 24 word phrase.
func GenerateMnemonic(words int) (string, error) {
	bits, ok := entropyBits[words]
	if !ok {
		return "", ErrInvalidWordCount
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word count, vocabulary and checksum.
//
// Failures are ErrInvalidMnemonic. Unknown words are listed in the details
// under "word_<position>" (1-based) and close BIP39 words are offered in the
// suggestion, so the CLI can point at the exact word to fix.
func ValidateMnemonic(mnemonic string) error {
	words := strings.Fields(normalizeMnemonic(mnemonic))
	if _, ok := entropyBits[len(words)]; !ok {
		return scanerr.WithSuggestion(
			scanerr.WithDetails(ErrInvalidMnemonic, map[string]string{"word_count": strconv.Itoa(len(words))}),
			"a recovery phrase has 12 or 24 words",
		)
	}

	details := make(map[string]string)
	var fixes []string
	for i, word := range words {
		if _, known := bip39.GetWordIndex(word); known {
			continue
		}
		details["word_"+strconv.Itoa(i+1)] = word
		if closest := closestWord(word); closest != "" {
			fixes = append(fixes, fmt.Sprintf("word %d: did you mean '%s' instead of '%s'?", i+1, closest, word))
		}
	}
	if len(details) > 0 {
		err := scanerr.WithDetails(ErrInvalidMnemonic, details)
		if len(fixes) > 0 {
			err = scanerr.WithSuggestion(err, strings.Join(fixes, "\n"))
		}
		return err
	}

	if _, err := bip39.MnemonicToByteArray(strings.Join(words, " ")); err != nil {
		return scanerr.WithSuggestion(ErrInvalidMnemonic, "all words are valid but the checksum does not match; check the word order")
	}
	return nil
}

// MnemonicToSeed validates the phrase and stretches it into a 64-byte seed.
// The caller must zero the seed after use.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(normalizeMnemonic(mnemonic), passphrase), nil
}

// normalizeMnemonic lowercases the phrase, strips list markers and commas and
// collapses whitespace to single spaces.
func normalizeMnemonic(input string) string {
	input = listMarkerRegex.ReplaceAllString(strings.ToLower(input), " ")
	input = strings.ReplaceAll(input, ",", " ")
	return strings.Join(strings.Fields(input), " ")
}

// closestWord returns the BIP39 word nearest to word, or "" when none is
// within maxTypoDistance.
func closestWord(word string) string {
	best, bestDist := "", maxTypoDistance+1
	for _, candidate := range bip39.GetWordList() {
		if d := levenshtein.ComputeDistance(word, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
