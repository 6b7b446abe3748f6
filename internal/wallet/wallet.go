package wallet

import (
	"regexp"
	"time"

	"github.com/mrz1836/go-sanitize"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// FormatVersion is the current wallet file format version.
const FormatVersion = 1

var (
	// ErrWalletNotFound indicates the wallet does not exist.
	ErrWalletNotFound = scanerr.ErrWalletNotFound

	// ErrWalletExists indicates a wallet with that name already exists.
	ErrWalletExists = scanerr.ErrWalletExists

	// ErrInvalidWalletName indicates the wallet name is invalid.
	ErrInvalidWalletName = scanerr.WithSuggestion(scanerr.ErrInvalidInput, "wallet name must be 1-64 alphanumeric characters, underscores, or hyphens")

	// ErrInvalidAddress indicates a string is not a P2PKH address.
	ErrInvalidAddress = scanerr.WithSuggestion(scanerr.ErrInvalidInput, "expected a base58 P2PKH address")

	walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// Wallet is the non-secret metadata stored alongside the sealed seed.
type Wallet struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`

	// FirstAddresses holds the lowest-index address of each group.
	FirstAddresses map[chain.Group]string `json:"first_addresses"`

	// LastDiscovery is the time of the last completed discovery run.
	LastDiscovery *time.Time `json:"last_discovery,omitempty"`
}

// Summary is a lightweight wallet representation for listing.
type Summary struct {
	Name          string                 `json:"name"`
	CreatedAt     time.Time              `json:"created_at"`
	Addresses     map[chain.Group]string `json:"addresses"`
	LastDiscovery *time.Time             `json:"last_discovery,omitempty"`
}

// ValidateWalletName checks if a wallet name is valid.
func ValidateWalletName(name string) error {
	if !walletNameRegex.MatchString(name) {
		return ErrInvalidWalletName
	}
	return nil
}

// SuggestWalletName provides a sanitized version of an invalid wallet name,
// or an empty string when nothing usable remains.
func SuggestWalletName(name string) string {
	suggested := sanitize.PathName(name)
	if len(suggested) > 64 {
		suggested = suggested[:64]
	}
	return suggested
}

// NewWallet creates wallet metadata and records the first address of every group.
func NewWallet(name string, deriver *HDDeriver) (*Wallet, error) {
	if err := ValidateWalletName(name); err != nil {
		if s := SuggestWalletName(name); s != "" {
			return nil, scanerr.WithDetails(err, map[string]string{"suggested_name": s})
		}
		return nil, err
	}

	w := &Wallet{
		Name:           name,
		CreatedAt:      time.Now().UTC(),
		Version:        FormatVersion,
		FirstAddresses: make(map[chain.Group]string, chain.TotalGroups),
	}

	for index := uint32(0); len(w.FirstAddresses) < chain.TotalGroups; index++ {
		addr, err := deriver.DeriveAddress(index)
		if err != nil {
			return nil, err
		}
		if _, ok := w.FirstAddresses[addr.Group]; !ok {
			w.FirstAddresses[addr.Group] = addr.Hash
		}
	}

	return w, nil
}

// MarkDiscovered records the completion time of a discovery run.
func (w *Wallet) MarkDiscovered(at time.Time) {
	at = at.UTC()
	w.LastDiscovery = &at
}

// ToSummary creates a summary representation of the wallet.
func (w *Wallet) ToSummary() Summary {
	return Summary{
		Name:          w.Name,
		CreatedAt:     w.CreatedAt,
		Addresses:     w.FirstAddresses,
		LastDiscovery: w.LastDiscovery,
	}
}
