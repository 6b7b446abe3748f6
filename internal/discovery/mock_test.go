package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrz1836/alphscan/internal/chain"
)

// mockDeriver assigns index i to group i%4 unless groupOf is set, and
// behaves like the HD deriver otherwise: it scans upward from zero and
// skips indexes in the skip list.
type mockDeriver struct {
	mu        sync.Mutex
	groupOf   func(uint32) chain.Group
	err       error
	failOn    int // 1-based call number that fails; 0 fails every call when err is set
	short     bool
	callCount int
	calls     []deriveCall
}

type deriveCall struct {
	group   chain.Group
	amount  int
	skip    []uint32
	indexes []uint32
}

func mockAddress(index uint32, group chain.Group) chain.Address {
	return chain.Address{
		Hash:  fmt.Sprintf("addr-%d", index),
		Index: index,
		Group: group,
		Path:  chain.DerivationPath(index),
	}
}

func (m *mockDeriver) DeriveAddresses(ctx context.Context, group chain.Group, amount int, skip []uint32) ([]chain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	if m.err != nil && (m.failOn == 0 || m.failOn == m.callCount) {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groupOf := m.groupOf
	if groupOf == nil {
		groupOf = func(i uint32) chain.Group { return chain.Group(i % chain.TotalGroups) }
	}

	skipped := make(map[uint32]bool, len(skip))
	for _, idx := range skip {
		skipped[idx] = true
	}

	out := make([]chain.Address, 0, amount)
	for idx := uint32(0); len(out) < amount; idx++ {
		if skipped[idx] || groupOf(idx) != group {
			continue
		}
		out = append(out, mockAddress(idx, group))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}

	m.calls = append(m.calls, deriveCall{
		group:   group,
		amount:  amount,
		skip:    append([]uint32(nil), skip...),
		indexes: chain.Indexes(out),
	})
	return out, nil
}

// mockProber answers from a fixed set of active addresses.
type mockProber struct {
	mu        sync.Mutex
	active    map[string]bool
	err       error
	failOn    int
	truncate  bool
	callCount int
	calls     [][]string
}

func newMockProber(active ...string) *mockProber {
	p := &mockProber{active: make(map[string]bool)}
	for _, a := range active {
		p.active[a] = true
	}
	return p
}

func (m *mockProber) ProbeActivity(ctx context.Context, addresses []string) ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.calls = append(m.calls, append([]string(nil), addresses...))
	if m.err != nil && (m.failOn == 0 || m.failOn == m.callCount) {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flags := make([]bool, len(addresses))
	for i, a := range addresses {
		flags[i] = m.active[a]
	}
	if m.truncate && len(flags) > 0 {
		flags = flags[:len(flags)-1]
	}
	return flags, nil
}

func (m *mockProber) callSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.calls))
	for i, c := range m.calls {
		sizes[i] = len(c)
	}
	return sizes
}

// recordingLogger collects log lines.
type recordingLogger struct {
	mu     sync.Mutex
	debugs []string
	errors []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}
