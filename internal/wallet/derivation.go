package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/blake2b"

	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/vault"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

const (
	// p2pkhPrefix is the address type byte of a pay-to-public-key-hash lockup script.
	p2pkhPrefix byte = 0x00

	// MaxAddressIndex is the last non-hardened child index.
	MaxAddressIndex = bip32.FirstHardenedChild - 1

	// cancelCheckInterval is how many indexes are scanned between context checks.
	cancelCheckInterval = 64
)

// ErrIndexSpaceExhausted indicates no further non-hardened indexes remain.
var ErrIndexSpaceExhausted = scanerr.WithSuggestion(
	scanerr.ErrDerivationFailed,
	"the non-hardened index space of the account is exhausted",
)

// HDDeriver derives grouped addresses on m/44'/1234'/0'/0 from a BIP39 seed.
// Derived addresses are memoized by index, so repeated scans from index zero
// only pay for derivation once. It is safe for concurrent use.
type HDDeriver struct {
	mu       sync.Mutex
	external *bip32.Key
	cache    map[uint32]chain.Address
}

// NewHDDeriver builds a deriver from seed. The seed is not retained.
func NewHDDeriver(seed []byte) (*HDDeriver, error) {
	if len(seed) == 0 {
		return nil, scanerr.ErrKeyMaterialUnavailable
	}

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, scanerr.Wrap(scanerr.ErrDerivationFailed, "creating master key: %v", err)
	}

	external, err := deriveExternalChain(master)
	if err != nil {
		return nil, err
	}

	return &HDDeriver{
		external: external,
		cache:    make(map[uint32]chain.Address),
	}, nil
}

// NewHDDeriverFromSecure builds a deriver from sealed seed material.
func NewHDDeriverFromSecure(seed *vault.SecureBytes) (*HDDeriver, error) {
	if seed == nil {
		return nil, scanerr.ErrKeyMaterialUnavailable
	}
	return NewHDDeriver(seed.Bytes())
}

// deriveExternalChain walks m/44'/1234'/0'/0.
func deriveExternalChain(master *bip32.Key) (*bip32.Key, error) {
	steps := []struct {
		name  string
		index uint32
	}{
		{"purpose", bip32.FirstHardenedChild + 44},
		{"coin type", bip32.FirstHardenedChild + chain.CoinType},
		{"account", bip32.FirstHardenedChild},
		{"change", 0},
	}

	key := master
	for _, step := range steps {
		child, err := key.NewChildKey(step.index)
		if err != nil {
			return nil, scanerr.Wrap(scanerr.ErrDerivationFailed, "deriving %s key: %v", step.name, err)
		}
		key = child
	}
	return key, nil
}

// Wipe drops the key material. Later derivations of uncached indexes fail
// with ErrKeyMaterialUnavailable.
func (d *HDDeriver) Wipe() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.external != nil {
		vault.Zero(d.external.Key)
		vault.Zero(d.external.ChainCode)
		d.external = nil
	}
}

// DeriveAddress derives the address at index regardless of its group.
func (d *HDDeriver) DeriveAddress(index uint32) (chain.Address, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deriveLocked(index)
}

func (d *HDDeriver) deriveLocked(index uint32) (chain.Address, error) {
	if addr, ok := d.cache[index]; ok {
		return addr, nil
	}
	if d.external == nil {
		return chain.Address{}, scanerr.ErrKeyMaterialUnavailable
	}
	if index > MaxAddressIndex {
		return chain.Address{}, scanerr.WithDetails(ErrIndexSpaceExhausted, map[string]string{
			"index": fmt.Sprint(index),
		})
	}

	child, err := d.external.NewChildKey(index)
	if err != nil {
		return chain.Address{}, scanerr.Wrap(scanerr.ErrDerivationFailed, "deriving index %d: %v", index, err)
	}
	pub := child.PublicKey().Key

	hash, pkh := AddressFromPublicKey(pub)
	addr := chain.Address{
		Hash:      hash,
		Index:     index,
		Group:     chain.GroupOfPublicKeyHash(pkh),
		PublicKey: hex.EncodeToString(pub),
		Path:      chain.DerivationPath(index),
	}
	d.cache[index] = addr
	return addr, nil
}

// DeriveAddresses returns the next amount addresses of group in increasing
// index order, scanning from index zero and skipping every index in skip as
// well as every index whose address falls in another group.
func (d *HDDeriver) DeriveAddresses(ctx context.Context, group chain.Group, amount int, skip []uint32) ([]chain.Address, error) {
	if !group.IsValid() {
		return nil, scanerr.WithDetails(scanerr.ErrInvalidGroup, map[string]string{"group": group.String()})
	}
	if amount < 0 {
		return nil, scanerr.WithDetails(scanerr.ErrInvalidInput, map[string]string{"amount": fmt.Sprint(amount)})
	}
	if amount == 0 {
		return []chain.Address{}, nil
	}

	skipped := make(map[uint32]struct{}, len(skip))
	for _, idx := range skip {
		skipped[idx] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]chain.Address, 0, amount)
	for index := uint32(0); len(out) < amount; index++ {
		if index%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if _, ok := skipped[index]; ok {
			continue
		}

		addr, err := d.deriveLocked(index)
		if err != nil {
			return nil, err
		}
		if addr.Group == group {
			out = append(out, addr)
		}

		if index == MaxAddressIndex && len(out) < amount {
			return nil, ErrIndexSpaceExhausted
		}
	}
	return out, nil
}

// AddressFromPublicKey returns the base58 P2PKH address of a compressed
// public key and the blake2b-256 hash it commits to.
func AddressFromPublicKey(pub []byte) (string, []byte) {
	sum := blake2b.Sum256(pub)

	raw := make([]byte, 0, 1+len(sum))
	raw = append(raw, p2pkhPrefix)
	raw = append(raw, sum[:]...)

	return base58.Encode(raw), sum[:]
}

// ParseAddress decodes a base58 P2PKH address and returns its group.
func ParseAddress(address string) (chain.Group, error) {
	raw := base58.Decode(SanitizeAddress(address))
	if len(raw) != 1+blake2b.Size256 || raw[0] != p2pkhPrefix {
		return 0, scanerr.WithDetails(ErrInvalidAddress, map[string]string{"address": address})
	}
	return chain.GroupOfPublicKeyHash(raw[1:]), nil
}
