package discovery

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// SkipSet is the set of derivation indexes already handed out in a run.
// It only grows and is safe for concurrent use.
type SkipSet struct {
	mu      sync.Mutex
	indexes map[uint32]struct{}
}

// NewSkipSet returns a set seeded with indexes known from earlier runs.
func NewSkipSet(seed ...uint32) *SkipSet {
	s := &SkipSet{indexes: make(map[uint32]struct{}, len(seed))}
	for _, idx := range seed {
		s.indexes[idx] = struct{}{}
	}
	return s
}

// Len returns the number of indexes in the set.
func (s *SkipSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indexes)
}

// Snapshot returns the indexes in ascending order.
func (s *SkipSet) Snapshot() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SkipSet) snapshotLocked() []uint32 {
	out := make([]uint32, 0, len(s.indexes))
	for idx := range s.indexes {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// Reserve derives amount fresh addresses of group and adds their indexes to
// the set. The set stays locked while the deriver runs, so concurrent callers
// never observe the same snapshot.
//
// The deriver must return exactly amount addresses of group, none of them
// already in the set; a violation fails with ErrDerivationFailed.
func (s *SkipSet) Reserve(ctx context.Context, deriver Deriver, group chain.Group, amount int) ([]chain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs, err := deriver.DeriveAddresses(ctx, group, amount, s.snapshotLocked())
	if err != nil {
		return nil, err
	}
	if len(addrs) != amount {
		return nil, scanerr.WithDetails(scanerr.ErrDerivationFailed, map[string]string{
			"group":     group.String(),
			"requested": fmt.Sprint(amount),
			"derived":   fmt.Sprint(len(addrs)),
		})
	}

	seen := make(map[uint32]struct{}, len(addrs))
	for _, a := range addrs {
		_, used := s.indexes[a.Index]
		_, dup := seen[a.Index]
		seen[a.Index] = struct{}{}
		if used || dup || a.Group != group {
			return nil, scanerr.WithDetails(scanerr.ErrDerivationFailed, map[string]string{
				"group": group.String(),
				"index": fmt.Sprint(a.Index),
			})
		}
	}
	for _, a := range addrs {
		s.indexes[a.Index] = struct{}{}
	}
	return addrs, nil
}
