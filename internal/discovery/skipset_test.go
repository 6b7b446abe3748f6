package discovery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

func TestSkipSet_Basics(t *testing.T) {
	t.Parallel()

	s := NewSkipSet(9, 3, 3, 1)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []uint32{1, 3, 9}, s.Snapshot())

	empty := NewSkipSet()
	assert.Empty(t, empty.Snapshot())
	assert.Equal(t, 0, empty.Len())
}

func TestSkipSet_ReserveExtendsSet(t *testing.T) {
	t.Parallel()

	s := NewSkipSet(0)
	d := &mockDeriver{}

	addrs, err := s.Reserve(context.Background(), d, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 8, 12}, chain.Indexes(addrs))
	assert.Equal(t, []uint32{0, 4, 8, 12}, s.Snapshot())

	addrs, err = s.Reserve(context.Background(), d, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{16}, chain.Indexes(addrs))

	require.Len(t, d.calls, 2)
	assert.Equal(t, []uint32{0, 4, 8, 12}, d.calls[1].skip)
}

func TestSkipSet_ReserveConcurrent(t *testing.T) {
	t.Parallel()

	s := NewSkipSet()
	// Every index belongs to every group, so unsynchronized callers would collide.
	d := &mockDeriver{groupOf: func(uint32) chain.Group { return 0 }}

	var wg sync.WaitGroup
	results := make([][]chain.Address, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			addrs, err := s.Reserve(context.Background(), d, 0, 5)
			assert.NoError(t, err)
			results[i] = addrs
		}()
	}
	wg.Wait()

	seen := make(map[uint32]bool)
	for _, batch := range results {
		for _, a := range batch {
			assert.False(t, seen[a.Index], "index %d reserved twice", a.Index)
			seen[a.Index] = true
		}
	}
	assert.Len(t, seen, 40)
	assert.Equal(t, 40, s.Len())
}

// reusingDeriver ignores the skip list.
type reusingDeriver struct{}

func (reusingDeriver) DeriveAddresses(_ context.Context, group chain.Group, amount int, _ []uint32) ([]chain.Address, error) {
	out := make([]chain.Address, amount)
	for i := range out {
		out[i] = mockAddress(uint32(i), group) //nolint:gosec // small test index
	}
	return out, nil
}

func TestSkipSet_ReserveRejectsContractViolations(t *testing.T) {
	t.Parallel()

	s := NewSkipSet(1)
	_, err := s.Reserve(context.Background(), reusingDeriver{}, 0, 3)
	require.ErrorIs(t, err, scanerr.ErrDerivationFailed)
	assert.Equal(t, 1, s.Len(), "failed reservation must not grow the set")

	_, err = NewSkipSet().Reserve(context.Background(), &mockDeriver{short: true}, 2, 3)
	require.ErrorIs(t, err, scanerr.ErrDerivationFailed)

	var se *scanerr.ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "3", se.Details["requested"])
	assert.Equal(t, "2", se.Details["derived"])
}

func TestSkipSet_ReserveRejectsWrongGroup(t *testing.T) {
	t.Parallel()

	d := &mockDeriver{}
	wrong := deriverFunc(func(ctx context.Context, _ chain.Group, amount int, skip []uint32) ([]chain.Address, error) {
		return d.DeriveAddresses(ctx, 1, amount, skip)
	})

	_, err := NewSkipSet().Reserve(context.Background(), wrong, 0, 2)
	require.ErrorIs(t, err, scanerr.ErrDerivationFailed)
}

type deriverFunc func(ctx context.Context, group chain.Group, amount int, skip []uint32) ([]chain.Address, error)

func (f deriverFunc) DeriveAddresses(ctx context.Context, group chain.Group, amount int, skip []uint32) ([]chain.Address, error) {
	return f(ctx, group, amount, skip)
}
