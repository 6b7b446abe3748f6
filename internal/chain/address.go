package chain

// Address is an HD-derived address together with its derivation metadata.
// Values are immutable once derived.
type Address struct {
	// Hash is the externally visible base58 address.
	Hash string `json:"address"`

	// Index is the non-hardened BIP44 address index.
	Index uint32 `json:"index"`

	// Group is the shard the address belongs to.
	Group Group `json:"group"`

	// PublicKey is the compressed public key in hex.
	PublicKey string `json:"public_key,omitempty"`

	// Path is the full derivation path.
	Path string `json:"path,omitempty"`
}

// Hashes returns the address strings of addrs in order.
func Hashes(addrs []Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hash
	}
	return out
}

// Indexes returns the derivation indexes of addrs in order.
func Indexes(addrs []Address) []uint32 {
	out := make([]uint32, len(addrs))
	for i, a := range addrs {
		out[i] = a.Index
	}
	return out
}
