package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

func TestDetectInputFormat(t *testing.T) {
	t.Parallel()
	hexSeed := strings.Repeat("ab", 64)

	tests := []struct {
		input    string
		expected InputFormat
	}{
		{testMnemonic, FormatMnemonic},
		{"1. abandon\n2. abandon\n3. abandon\n4. abandon\n5. abandon\n6. abandon\n7. abandon\n8. abandon\n9. abandon\n10. abandon\n11. abandon\n12. about", FormatMnemonic},
		{hexSeed, FormatHexSeed},
		{"0x" + hexSeed, FormatHexSeed},
		{"", FormatUnknown},
		{"abandon about", FormatUnknown},
		{strings.Repeat("zz", 64), FormatUnknown},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, DetectInputFormat(tc.input), tc.input)
	}

	assert.Equal(t, "mnemonic", FormatMnemonic.String())
	assert.Equal(t, "hex seed", FormatHexSeed.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestSeedFromInput(t *testing.T) {
	t.Parallel()
	fromMnemonic, err := SeedFromInput(testMnemonic, "")
	require.NoError(t, err)
	assert.Len(t, fromMnemonic, 64)

	hexSeed := strings.Repeat("01", 64)
	fromHex, err := SeedFromInput(hexSeed, "ignored")
	require.NoError(t, err)
	assert.Equal(t, byte(1), fromHex[63])
	assert.Len(t, fromHex, 64)
}

//nolint:misspell // Intentional typo for testing
func TestSeedFromInput_Errors(t *testing.T) {
	t.Parallel()
	_, err := SeedFromInput("abondon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")
	require.ErrorIs(t, err, scanerr.ErrInvalidMnemonic)

	var se *scanerr.ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "abondon", se.Details["word_1"])
	assert.Contains(t, se.Suggestion, "did you mean 'abandon'")

	_, err = SeedFromInput("hello", "")
	require.ErrorIs(t, err, scanerr.ErrInvalidInput)
}

func TestSanitizeAddress(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "19aEFKVjosxocFLYzmcvszXHH7o5rav9G76mqnoaAJfTh",
		SanitizeAddress(" 19aEFKVjosxocFLYzmcvszXHH7o5rav9G76mqnoaAJfTh\t"))
}
