// Package discovery finds the active addresses of a grouped HD wallet by
// deriving addresses per group until a run of unused addresses is seen.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/metrics"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// DefaultMinGap is the number of consecutive unused addresses that ends the
// search in a group.
const DefaultMinGap = 5

// Scanning phases reported through ProgressUpdate.
const (
	PhaseDerive   = "derive"
	PhaseProbe    = "probe"
	PhaseEvaluate = "evaluate"
	PhaseComplete = "complete"
)

// ErrInvalidMinGap indicates a non-positive minimum gap.
var ErrInvalidMinGap = &scanerr.ScanError{
	Code:       "INVALID_MIN_GAP",
	Message:    "minimum gap must be positive",
	Suggestion: "use a gap of at least 1 (default 5)",
	ExitCode:   scanerr.ExitInput,
}

// Deriver produces fresh addresses of a group. It must return exactly amount
// addresses in increasing index order and never an index listed in skip.
type Deriver interface {
	DeriveAddresses(ctx context.Context, group chain.Group, amount int, skip []uint32) ([]chain.Address, error)
}

// ActivityProber reports, per address and in input order, whether the
// address was ever used on chain.
type ActivityProber interface {
	ProbeActivity(ctx context.Context, addresses []string) ([]bool, error)
}

// Logger is the logging surface used during discovery.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// ProgressUpdate provides feedback during a discovery run.
type ProgressUpdate struct {
	// Phase is one of the Phase constants.
	Phase string

	// Group is the group being worked on. Meaningless for a probe that
	// covers the initial batch of every group.
	Group chain.Group

	// Iteration counts probe rounds of the group, starting at 1.
	Iteration int

	// Addresses is the size of the batch derived or probed.
	Addresses int

	// ActiveFound is the number of active addresses found so far in the group.
	ActiveFound int

	// Gap is the trailing unused run after the last evaluation.
	Gap int

	Message string
}

// ProgressCallback is called during discovery to report progress.
// It may be called from several goroutines in concurrent mode.
type ProgressCallback func(ProgressUpdate)

// Options configures a Discoverer.
type Options struct {
	// MinGap is the default minimum trailing gap per group.
	// Default: DefaultMinGap (5).
	MinGap int

	// Concurrent runs the follow-up rounds of the groups in parallel.
	// Results are identical to the sequential mode.
	Concurrent bool

	ProgressCallback ProgressCallback
	Logger           Logger

	// Metrics receives run counters. Default: metrics.Global.
	Metrics *metrics.Metrics
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{MinGap: DefaultMinGap}
}

// Request describes one discovery run.
type Request struct {
	// SkipWithGroup seeds the skip set with indexes already known to the wallet.
	SkipWithGroup []uint32

	// SkipGroupless is accepted for the groupless address scheme, which is
	// not searched yet.
	SkipGroupless []uint32

	// MinGap overrides Options.MinGap when non-zero.
	MinGap int
}

// GroupStats summarizes the search of one group.
type GroupStats struct {
	Group     chain.Group `json:"group"`
	Derived   int         `json:"derived"`
	Rounds    int         `json:"rounds"`
	Active    int         `json:"active"`
	FinalGap  int         `json:"final_gap"`
	LastIndex uint32      `json:"last_index"`
}

// Result is the outcome of a discovery run.
type Result struct {
	RunID uuid.UUID `json:"run_id"`

	// Addresses holds the active addresses of every group, in group order
	// and derivation order within a group.
	Addresses []chain.Address `json:"addresses"`

	Groups []GroupStats `json:"groups"`

	// ProbeCalls is the number of ActivityProber calls made.
	ProbeCalls int `json:"probe_calls"`

	// AddressesProbed is the total number of addresses sent to the prober.
	AddressesProbed int `json:"addresses_probed"`

	// Used is the with-group skip set at the end of the run.
	Used []uint32 `json:"-"`

	Duration time.Duration `json:"duration"`
}

// Discoverer searches the groups of a wallet for active addresses.
type Discoverer struct {
	deriver Deriver
	prober  ActivityProber
	opts    Options
}

// New creates a Discoverer. A nil opts uses DefaultOptions. The options are
// copied; later changes by the caller have no effect.
func New(deriver Deriver, prober ActivityProber, opts *Options) *Discoverer {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.MinGap == 0 {
		o.MinGap = DefaultMinGap
	}
	return &Discoverer{deriver: deriver, prober: prober, opts: o}
}

// Discover returns the active addresses of every group. Any derivation or
// probe error aborts the run and is returned unchanged, with no partial
// result.
func (d *Discoverer) Discover(ctx context.Context, req Request) ([]chain.Address, error) {
	res, err := d.DiscoverWithStats(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Addresses, nil
}

// DiscoverWithStats is Discover with run statistics.
func (d *Discoverer) DiscoverWithStats(ctx context.Context, req Request) (*Result, error) {
	minGap := d.opts.MinGap
	if req.MinGap != 0 {
		minGap = req.MinGap
	}
	if minGap < 1 {
		return nil, scanerr.WithDetails(ErrInvalidMinGap, map[string]string{"min_gap": fmt.Sprint(minGap)})
	}

	m := d.opts.Metrics
	if m == nil {
		m = metrics.Global
	}

	r := &run{
		id:     uuid.New(),
		d:      d,
		minGap: minGap,
		skip:   NewSkipSet(req.SkipWithGroup...),
	}
	if len(req.SkipGroupless) > 0 {
		// TODO: search groupless addresses once their gap semantics are defined;
		// the skip indexes are only logged until then.
		d.debug("run %s: ignoring %d groupless skip indexes", r.id, len(req.SkipGroupless))
	}

	start := time.Now()
	res, err := r.execute(ctx)
	m.RecordDiscoveryRun(err)
	if err != nil {
		d.logError("run %s: discovery failed: %v", r.id, err)
		return nil, err
	}
	res.Duration = time.Since(start)

	d.debug("run %s: %d active addresses, %d probe calls, %d addresses probed, %d indexes used in %s",
		r.id, len(res.Addresses), res.ProbeCalls, res.AddressesProbed, r.skip.Len(), res.Duration)
	return res, nil
}

// groupScan is the state of one group's search.
type groupScan struct {
	group  chain.Group
	gap    int
	active []chain.Address
	stats  GroupStats
}

// absorb evaluates a probed batch and carries the gap forward.
func (g *groupScan) absorb(batch []chain.Address, activity []bool) error {
	state, err := EvaluateGap(batch, activity, g.gap)
	if err != nil {
		return err
	}
	g.gap = state.Gap
	g.active = append(g.active, state.Active...)

	g.stats.Derived += len(batch)
	g.stats.Rounds++
	g.stats.Active = len(g.active)
	g.stats.FinalGap = g.gap
	if n := len(batch); n > 0 && batch[n-1].Index > g.stats.LastIndex {
		g.stats.LastIndex = batch[n-1].Index
	}
	return nil
}

// run holds the state shared by the groups of one discovery run.
type run struct {
	id     uuid.UUID
	d      *Discoverer
	minGap int
	skip   *SkipSet

	mu         sync.Mutex
	probeCalls int
	probed     int
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	groups := chain.AllGroups()
	scans := make([]*groupScan, len(groups))
	batches := make([][]chain.Address, len(groups))

	// Initial batch of every group, probed together.
	var initial []chain.Address
	for i, g := range groups {
		scans[i] = &groupScan{group: g, stats: GroupStats{Group: g}}

		batch, err := r.skip.Reserve(ctx, r.d.deriver, g, r.minGap)
		if err != nil {
			return nil, err
		}
		batches[i] = batch
		initial = append(initial, batch...)
		r.d.progress(ProgressUpdate{Phase: PhaseDerive, Group: g, Iteration: 1, Addresses: len(batch)})
	}

	activity, err := r.probe(ctx, initial)
	if err != nil {
		return nil, err
	}

	offset := 0
	for i, batch := range batches {
		end := offset + len(batch)
		if err := scans[i].absorb(batch, activity[offset:end]); err != nil {
			return nil, err
		}
		offset = end
		r.evaluated(scans[i])
	}

	if r.d.opts.Concurrent {
		eg, egCtx := errgroup.WithContext(ctx)
		for _, s := range scans {
			s := s
			eg.Go(func() error {
				return r.extend(egCtx, s)
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, s := range scans {
			if err := r.extend(ctx, s); err != nil {
				return nil, err
			}
		}
	}

	res := &Result{
		RunID:      r.id,
		Addresses:  []chain.Address{},
		Groups:     make([]GroupStats, 0, len(scans)),
		ProbeCalls: r.probeCalls,
		Used:       r.skip.Snapshot(),
	}
	for _, s := range scans {
		res.Addresses = append(res.Addresses, s.active...)
		res.Groups = append(res.Groups, s.stats)
	}
	res.AddressesProbed = r.probed
	return res, nil
}

// extend keeps deriving and probing the group until its gap reaches minGap.
// Each round asks for exactly the addresses still missing from the gap.
func (r *run) extend(ctx context.Context, s *groupScan) error {
	for s.gap < r.minGap {
		remaining := r.minGap - s.gap

		batch, err := r.skip.Reserve(ctx, r.d.deriver, s.group, remaining)
		if err != nil {
			return err
		}
		r.d.progress(ProgressUpdate{
			Phase:     PhaseDerive,
			Group:     s.group,
			Iteration: s.stats.Rounds + 1,
			Addresses: len(batch),
			Gap:       s.gap,
		})

		activity, err := r.probe(ctx, batch)
		if err != nil {
			return err
		}
		if err := s.absorb(batch, activity); err != nil {
			return err
		}
		r.evaluated(s)
	}

	r.d.progress(ProgressUpdate{
		Phase:       PhaseComplete,
		Group:       s.group,
		Iteration:   s.stats.Rounds,
		ActiveFound: len(s.active),
		Gap:         s.gap,
		Message:     fmt.Sprintf("group %s complete", s.group),
	})
	return nil
}

// probe calls the prober and enforces the length contract.
func (r *run) probe(ctx context.Context, batch []chain.Address) ([]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.probeCalls++
	r.probed += len(batch)
	r.mu.Unlock()

	r.d.progress(ProgressUpdate{Phase: PhaseProbe, Addresses: len(batch)})

	activity, err := r.d.prober.ProbeActivity(ctx, chain.Hashes(batch))
	if err != nil {
		return nil, err
	}
	if len(activity) != len(batch) {
		return nil, scanerr.WithDetails(scanerr.ErrActivityMismatch, map[string]string{
			"expected": fmt.Sprint(len(batch)),
			"received": fmt.Sprint(len(activity)),
		})
	}
	return activity, nil
}

func (r *run) evaluated(s *groupScan) {
	r.d.debug("run %s: group %s round %d: gap %d, %d active", r.id, s.group, s.stats.Rounds, s.gap, len(s.active))
	r.d.progress(ProgressUpdate{
		Phase:       PhaseEvaluate,
		Group:       s.group,
		Iteration:   s.stats.Rounds,
		ActiveFound: len(s.active),
		Gap:         s.gap,
	})
}

func (d *Discoverer) progress(update ProgressUpdate) {
	if d.opts.ProgressCallback != nil {
		d.opts.ProgressCallback(update)
	}
}

func (d *Discoverer) debug(format string, args ...any) {
	if d.opts.Logger != nil {
		d.opts.Logger.Debug(format, args...)
	}
}

func (d *Discoverer) logError(format string, args ...any) {
	if d.opts.Logger != nil {
		d.opts.Logger.Error(format, args...)
	}
}
