// Package addrstore persists the discovered addresses of each wallet in a
// bbolt database.
package addrstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

const (
	// filePermissions for the database file.
	filePermissions = 0o600

	// dirPermissions for the directory holding the database.
	dirPermissions = 0o750

	// openTimeout bounds how long Open waits for the file lock.
	openTimeout = time.Second
)

// bucketWallets is the root bucket; it holds one nested bucket per wallet,
// keyed by big-endian derivation index so cursor scans run in index order.
var bucketWallets = []byte("wallets")

// StoredAddress is an active address recorded for a wallet.
type StoredAddress struct {
	Address   string      `json:"address"`
	Index     uint32      `json:"index"`
	Group     chain.Group `json:"group"`
	Path      string      `json:"path,omitempty"`
	PublicKey string      `json:"public_key,omitempty"`

	// RunID is the discovery run that first found the address.
	RunID     string    `json:"run_id,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store is a handle on the address database. It is safe for concurrent use.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens or creates the database at path. Only one process may hold it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, scanerr.Wrap(scanerr.ErrStoreUnavailable, "creating store directory: %v", err)
	}

	db, err := bolt.Open(path, filePermissions, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, scanerr.WithDetails(
			scanerr.Wrap(scanerr.ErrStoreUnavailable, "opening %s: %v", path, err),
			map[string]string{"path": path},
		)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketWallets)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, scanerr.Wrap(scanerr.ErrStoreUnavailable, "initializing store: %v", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveDiscovered records the addresses found by a discovery run. Known
// addresses only get LastSeen refreshed. It returns how many were new.
func (s *Store) SaveDiscovered(wallet, runID string, addrs []chain.Address, at time.Time) (int, error) {
	if wallet == "" {
		return 0, scanerr.WithDetails(scanerr.ErrInvalidInput, map[string]string{"wallet": wallet})
	}
	at = at.UTC()
	added := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketWallets).CreateBucketIfNotExists([]byte(wallet))
		if err != nil {
			return err
		}

		for _, a := range addrs {
			k := indexKey(a.Index)

			rec := StoredAddress{
				Address:   a.Hash,
				Index:     a.Index,
				Group:     a.Group,
				Path:      a.Path,
				PublicKey: a.PublicKey,
				RunID:     runID,
				FirstSeen: at,
			}
			if v := b.Get(k); v != nil {
				var prev StoredAddress
				if err := json.Unmarshal(v, &prev); err != nil {
					return fmt.Errorf("decoding index %d: %w", a.Index, err)
				}
				if prev.Address != a.Hash {
					return scanerr.WithDetails(scanerr.ErrInvalidInput, map[string]string{
						"index":    fmt.Sprint(a.Index),
						"stored":   prev.Address,
						"received": a.Hash,
					})
				}
				rec.RunID = prev.RunID
				rec.FirstSeen = prev.FirstSeen
			} else {
				added++
			}
			rec.LastSeen = at

			v, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if scanerr.Is(err, scanerr.ErrInvalidInput) {
			return 0, err
		}
		return 0, scanerr.Wrap(scanerr.ErrStoreUnavailable, "saving addresses of %s: %v", wallet, err)
	}
	return added, nil
}

// Addresses returns the stored addresses of wallet ordered by group, then
// index. An unknown wallet has none.
func (s *Store) Addresses(wallet string) ([]StoredAddress, error) {
	out := []StoredAddress{}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWallets).Bucket([]byte(wallet))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec StoredAddress
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding index %d: %w", binary.BigEndian.Uint32(k), err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, scanerr.Wrap(scanerr.ErrStoreUnavailable, "reading addresses of %s: %v", wallet, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

// Indexes returns the stored derivation indexes of wallet in ascending order.
// They seed the skip set of the next discovery run.
func (s *Store) Indexes(wallet string) ([]uint32, error) {
	out := []uint32{}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWallets).Bucket([]byte(wallet))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			out = append(out, binary.BigEndian.Uint32(k))
		}
		return nil
	})
	if err != nil {
		return nil, scanerr.Wrap(scanerr.ErrStoreUnavailable, "reading indexes of %s: %v", wallet, err)
	}
	return out, nil
}

// Wallets returns the names of wallets with stored addresses, sorted.
func (s *Store) Wallets() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWallets).ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, scanerr.Wrap(scanerr.ErrStoreUnavailable, "listing wallets: %v", err)
	}
	return names, nil
}

// Forget removes every stored address of wallet.
func (s *Store) Forget(wallet string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketWallets).DeleteBucket([]byte(wallet))
		if scanerr.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return scanerr.Wrap(scanerr.ErrStoreUnavailable, "forgetting %s: %v", wallet, err)
	}
	return nil
}

func indexKey(index uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, index)
	return k
}
