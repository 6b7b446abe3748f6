package wallet

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// testMnemonic is the all-zero-entropy BIP39 vector.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// BIP39 vectors from https://github.com/trezor/python-mnemonic/blob/master/vectors.json
// (passphrase "TREZOR").
//
//nolint:gochecknoglobals // BIP39 reference test vectors
var bip39TestVectors = []struct {
	mnemonic string
	seed     string
}{
	{
		mnemonic: testMnemonic,
		seed:     "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
	},
	{
		mnemonic: "legal winner thank year wave sausage worth useful legal winner thank yellow",
		seed:     "2e8905819b8723fe2c1d161860e5ee1830318dbf49a83bd451cfb8440c28bd6fa457fe1296106559a3c80937a1c1069be3a3a5bd381ee6260e8d9739fce1f607",
	},
	{
		mnemonic: "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong",
		seed:     "ac27495480225222079d7be181583751e86f571027b0497b5b5d11218e0a8a13332572917f0f8e5a589620c6f15b11c61dee327651a14c34e18231052e48c069",
	},
	{
		mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
		seed:     "bda85446c68413707090a52022edd26a1c9462295029f2e60cd7c4f2bbd3097170af7a4d73245cafa9c3cca8d561a7c3de6f5d4a10be8ed2a5e608d68f92fcc8",
	},
}

func TestGenerateMnemonic(t *testing.T) {
	t.Parallel()
	for _, count := range []int{12, 24} {
		mnemonic, err := GenerateMnemonic(count)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(mnemonic), count)
		require.NoError(t, ValidateMnemonic(mnemonic))
	}

	_, err := GenerateMnemonic(15)
	require.ErrorIs(t, err, scanerr.ErrInvalidInput)
}

func TestMnemonicToSeed_Vectors(t *testing.T) {
	t.Parallel()
	for _, tc := range bip39TestVectors {
		tc := tc
		t.Run(tc.mnemonic[:20], func(t *testing.T) {
			t.Parallel()
			require.NoError(t, ValidateMnemonic(tc.mnemonic))

			seed, err := MnemonicToSeed(tc.mnemonic, "TREZOR")
			require.NoError(t, err)
			assert.Equal(t, tc.seed, hex.EncodeToString(seed))
		})
	}
}

func TestMnemonicToSeed_NormalizesInput(t *testing.T) {
	t.Parallel()
	plain, err := MnemonicToSeed(testMnemonic, "")
	require.NoError(t, err)

	messy, err := MnemonicToSeed("  "+strings.ToUpper(strings.ReplaceAll(testMnemonic, " ", ",\n")), "")
	require.NoError(t, err)

	assert.Equal(t, plain, messy)
}

func TestValidateMnemonic_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		mnemonic string
		details  map[string]string
	}{
		{"unknown word", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon xyzqwerty", map[string]string{"word_12": "xyzqwerty"}},
		{"wrong word count", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", map[string]string{"word_count": "11"}},
		{"invalid checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", nil},
		{"empty string", "", map[string]string{"word_count": "0"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMnemonic(tc.mnemonic)
			require.ErrorIs(t, err, scanerr.ErrInvalidMnemonic)

			var se *scanerr.ScanError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.details, se.Details)
			assert.NotEmpty(t, se.Suggestion)
		})
	}
}

//nolint:misspell // Intentional typos for testing
func TestValidateMnemonic_ReportsTypoPositions(t *testing.T) {
	t.Parallel()
	err := ValidateMnemonic("abondon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon xyzqwerty")
	require.ErrorIs(t, err, scanerr.ErrInvalidMnemonic)

	var se *scanerr.ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, map[string]string{"word_1": "abondon", "word_12": "xyzqwerty"}, se.Details)
	assert.Equal(t, "word 1: did you mean 'abandon' instead of 'abondon'?", se.Suggestion)
}

func TestNormalizeMnemonic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "abandon abandon about", "abandon abandon about"},
		{"mixed whitespace", "  abandon  \t abandon \n about  ", "abandon abandon about"},
		{"mixed case", "Abandon ABANDON About", "abandon abandon about"},
		{"commas", "abandon,abandon, about", "abandon abandon about"},
		{"numbered list", "1. abandon\n2) abandon\n3: about", "abandon abandon about"},
		{"bullets", "- abandon\n* abandon\n• about", "abandon abandon about"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, normalizeMnemonic(tc.input))
		})
	}
}

//nolint:misspell // Intentional typos for testing
func TestClosestWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{"abondon", "abandon"},
		{"abanddon", "abandon"},
		{"abandon", "abandon"},
		{"zooo", "zoo"},
		{"xyzqwerty", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, closestWord(tc.input))
		})
	}
}
