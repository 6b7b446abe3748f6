package wallet

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// Groups of the first 24 indexes of testMnemonic on m/44'/1234'/0'/0:
//
//	group 0: 12 22
//	group 1: 1 2 3 4 6 10 13 18 21
//	group 2: 7 9 11 16 17 23
//	group 3: 0 5 8 14 15 19 20
func newTestDeriver(t *testing.T) *HDDeriver {
	t.Helper()
	seed, err := MnemonicToSeed(testMnemonic, "")
	require.NoError(t, err)

	d, err := NewHDDeriver(seed)
	require.NoError(t, err)
	return d
}

func TestDeriveAddress_KnownVectors(t *testing.T) {
	t.Parallel()
	d := newTestDeriver(t)

	tests := []struct {
		index     uint32
		group     chain.Group
		address   string
		publicKey string
	}{
		{0, 3, "1qUhzfi2GxZ3tV7tv9a4HoNu8azz7M4HkxTAi2erzLHS", "024739d2f1248040b3cd9b15a0d2877790b5ee57d526d99004fe41f4088dc890bb"},
		{1, 1, "1HZAyYQTHoR44JiMndj361mWgsyGUAHicUR6PbTkPxgKd", "03258de666c40bca959c0fc01e67282a13bba9bb071329db8aeb51a06f00721a0b"},
		{7, 2, "12X57vbG6MB1Bog5o71NpDvcf3ipgRCHhNE2W9zoH59Dr", "02f4df48cc9327a4c37822ec84f207c082f6a75aa9498db68f721c6604f6730e71"},
		{12, 0, "19aEFKVjosxocFLYzmcvszXHH7o5rav9G76mqnoaAJfTh", "0324295b5005d5f033e3bb59cb9a31cf74be624aaa520af9b78edcde09c3b6bcd8"},
	}

	for _, tc := range tests {
		addr, err := d.DeriveAddress(tc.index)
		require.NoError(t, err)

		assert.Equal(t, tc.address, addr.Hash, "index %d", tc.index)
		assert.Equal(t, tc.group, addr.Group, "index %d", tc.index)
		assert.Equal(t, tc.publicKey, addr.PublicKey, "index %d", tc.index)
		assert.Equal(t, tc.index, addr.Index)
		assert.Equal(t, chain.DerivationPath(tc.index), addr.Path)
	}
}

func TestDeriveAddresses_FiltersByGroup(t *testing.T) {
	t.Parallel()
	d := newTestDeriver(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		group    chain.Group
		amount   int
		skip     []uint32
		expected []uint32
	}{
		{"group 1 from zero", 1, 5, nil, []uint32{1, 2, 3, 4, 6}},
		{"group 1 with skips", 1, 5, []uint32{2, 4, 5, 7}, []uint32{1, 3, 6, 10, 13}},
		{"group 0 is sparse", 0, 2, nil, []uint32{12, 22}},
		{"foreign skips ignored", 2, 3, []uint32{0, 1, 2, 3}, []uint32{7, 9, 11}},
		{"group 3 skipping its own", 3, 2, []uint32{0, 5, 8}, []uint32{14, 15}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			addrs, err := d.DeriveAddresses(ctx, tc.group, tc.amount, tc.skip)
			require.NoError(t, err)
			require.Len(t, addrs, tc.amount)
			assert.Equal(t, tc.expected, chain.Indexes(addrs))
			for _, a := range addrs {
				assert.Equal(t, tc.group, a.Group)
			}
		})
	}
}

func TestDeriveAddresses_Deterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	first, err := newTestDeriver(t).DeriveAddresses(ctx, 2, 4, []uint32{9})
	require.NoError(t, err)
	second, err := newTestDeriver(t).DeriveAddresses(ctx, 2, 4, []uint32{9})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDeriveAddresses_EdgeCases(t *testing.T) {
	t.Parallel()
	d := newTestDeriver(t)
	ctx := context.Background()

	addrs, err := d.DeriveAddresses(ctx, 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, addrs)

	_, err = d.DeriveAddresses(ctx, 1, -1, nil)
	require.ErrorIs(t, err, scanerr.ErrInvalidInput)

	_, err = d.DeriveAddresses(ctx, chain.Group(chain.TotalGroups), 1, nil)
	require.ErrorIs(t, err, scanerr.ErrInvalidGroup)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.DeriveAddresses(canceled, 0, 1, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewHDDeriver_NoSeed(t *testing.T) {
	t.Parallel()
	_, err := NewHDDeriver(nil)
	require.ErrorIs(t, err, scanerr.ErrKeyMaterialUnavailable)

	_, err = NewHDDeriverFromSecure(nil)
	require.ErrorIs(t, err, scanerr.ErrKeyMaterialUnavailable)
}

func TestHDDeriver_Wipe(t *testing.T) {
	t.Parallel()
	d := newTestDeriver(t)

	cached, err := d.DeriveAddress(0)
	require.NoError(t, err)

	d.Wipe()
	d.Wipe()

	again, err := d.DeriveAddress(0)
	require.NoError(t, err)
	assert.Equal(t, cached, again)

	_, err = d.DeriveAddress(1)
	require.ErrorIs(t, err, scanerr.ErrKeyMaterialUnavailable)

	_, err = d.DeriveAddresses(context.Background(), 1, 1, nil)
	require.ErrorIs(t, err, scanerr.ErrKeyMaterialUnavailable)
}

func TestAddressFromPublicKey(t *testing.T) {
	t.Parallel()
	pub, err := hex.DecodeString("0324295b5005d5f033e3bb59cb9a31cf74be624aaa520af9b78edcde09c3b6bcd8")
	require.NoError(t, err)

	address, pkh := AddressFromPublicKey(pub)
	assert.Equal(t, "19aEFKVjosxocFLYzmcvszXHH7o5rav9G76mqnoaAJfTh", address)
	assert.Len(t, pkh, 32)
	assert.Equal(t, chain.Group(0), chain.GroupOfPublicKeyHash(pkh))
}

func TestParseAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		address string
		group   chain.Group
	}{
		{"1qUhzfi2GxZ3tV7tv9a4HoNu8azz7M4HkxTAi2erzLHS", 3},
		{"1HZAyYQTHoR44JiMndj361mWgsyGUAHicUR6PbTkPxgKd", 1},
		{" 12X57vbG6MB1Bog5o71NpDvcf3ipgRCHhNE2W9zoH59Dr\n", 2},
		{"19aEFKVjosxocFLYzmcvszXHH7o5rav9G76mqnoaAJfTh", 0},
	}

	for _, tc := range tests {
		group, err := ParseAddress(tc.address)
		require.NoError(t, err)
		assert.Equal(t, tc.group, group)
	}

	for _, bad := range []string{"", "1111", "0x742d35Cc6634C0532925a3b844Bc9e7595f8b2E0"} {
		_, err := ParseAddress(bad)
		require.ErrorIs(t, err, scanerr.ErrInvalidInput, bad)
	}
}
