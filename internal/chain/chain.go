// Package chain provides the address group model and shared network helpers.
package chain

import (
	"fmt"
	"strconv"
	"strings"

	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// TotalGroups is the number of address groups (shards) defined by the protocol.
const TotalGroups = 4

// CoinType is the BIP44 coin type used for address derivation.
const CoinType uint32 = 1234

// Group identifies an address shard in [0, TotalGroups).
type Group uint8

// IsValid returns true if the group is within the protocol range.
func (g Group) IsValid() bool {
	return int(g) < TotalGroups
}

// String returns the decimal group number.
func (g Group) String() string {
	return strconv.Itoa(int(g))
}

// ParseGroup parses a decimal group number.
func ParseGroup(s string) (Group, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n >= TotalGroups {
		return 0, scanerr.WithDetails(scanerr.ErrInvalidGroup, map[string]string{"group": s})
	}
	return Group(n), nil
}

// AllGroups returns every group in index order.
func AllGroups() []Group {
	groups := make([]Group, TotalGroups)
	for i := range groups {
		groups[i] = Group(i)
	}
	return groups
}

// GroupOfPublicKeyHash returns the group of a P2PKH lockup script given its
// 32-byte public key hash.
//
// The script hint is djb2(hash) with the low bit set; the group is the xor of
// the hint's four bytes modulo TotalGroups.
func GroupOfPublicKeyHash(hash []byte) Group {
	hint := djb2(hash) | 1
	return Group(xorByte(hint) % TotalGroups)
}

// djb2 computes the djb2 hash using wrapping 32-bit arithmetic.
func djb2(data []byte) uint32 {
	var hash uint32 = 5381
	for _, b := range data {
		hash = (hash << 5) + hash + uint32(b)
	}
	return hash
}

// xorByte folds a 32-bit value into one byte by xoring its big-endian bytes.
func xorByte(v uint32) uint32 {
	b0 := (v >> 24) & 0xff
	b1 := (v >> 16) & 0xff
	b2 := (v >> 8) & 0xff
	b3 := v & 0xff
	return b0 ^ b1 ^ b2 ^ b3
}

// DerivationPath returns the BIP44 path of an address index on the default account.
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/%d'/0'/0/%d", CoinType, index)
}
