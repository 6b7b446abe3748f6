package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/addrstore"
	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/config"
	"github.com/mrz1836/alphscan/internal/discovery"
	"github.com/mrz1836/alphscan/internal/explorer"
	"github.com/mrz1836/alphscan/internal/metrics"
	"github.com/mrz1836/alphscan/internal/output"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	discoverKeys        keySource
	discoverGap         int
	discoverConcurrent  bool
	discoverExplorerURL string
	discoverSave        bool
	discoverRescan      bool
	discoverTimeout     time.Duration
)

// discoverCmd searches every group for active addresses.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find the active addresses of a wallet in every group",
	Long: `Derive addresses group by group and ask the explorer which of them were
ever used. A group is finished once at least --gap consecutive unused
addresses follow its last active one.

With --wallet, indexes already recorded for the wallet are skipped, so only
addresses found since the last saved run are reported. Use --rescan to
search from scratch.`,
	Example: `  alphscan discover --wallet main --save
  alphscan discover --wallet main --gap 20 --concurrent
  echo "$MNEMONIC" | alphscan discover --mnemonic-stdin -o json`,
	RunE: runDiscover,
}

// discoverResponse is the JSON output of discover.
type discoverResponse struct {
	RunID           string                 `json:"run_id"`
	Wallet          string                 `json:"wallet,omitempty"`
	MinGap          int                    `json:"min_gap"`
	Concurrent      bool                   `json:"concurrent"`
	Skipped         int                    `json:"skipped"`
	Addresses       []chain.Address        `json:"addresses"`
	Groups          []discovery.GroupStats `json:"groups"`
	ProbeCalls      int                    `json:"probe_calls"`
	AddressesProbed int                    `json:"addresses_probed"`
	DurationMs      int64                  `json:"duration_ms"`
	Saved           *int                   `json:"saved,omitempty"`
	Metrics         *metrics.Snapshot      `json:"metrics,omitempty"`
}

//nolint:gocognit,gocyclo // CLI flow involves validation, key loading, discovery and persistence steps
func runDiscover(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	if discoverSave && discoverKeys.wallet == "" {
		return scanerr.WithSuggestion(scanerr.ErrInvalidInput, "--save requires --wallet")
	}

	minGap := cc.Cfg.Discovery.MinGap
	if cmd.Flags().Changed("gap") {
		minGap = discoverGap
	}
	if minGap < 1 {
		return scanerr.WithDetails(discovery.ErrInvalidMinGap, map[string]string{"min_gap": strconv.Itoa(minGap)})
	}

	baseURL := cc.Cfg.Explorer.URL
	if discoverExplorerURL != "" {
		baseURL = config.SanitizeURL(discoverExplorerURL)
	}

	deriver, wlt, err := discoverKeys.deriver(cmd, cc)
	if err != nil {
		return err
	}
	defer deriver.Wipe()

	var (
		store *addrstore.Store
		skip  []uint32
	)
	if discoverKeys.wallet != "" && (discoverSave || !discoverRescan) {
		store, err = addrstore.Open(cc.Cfg.StorePath())
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if !discoverRescan {
			if skip, err = store.Indexes(discoverKeys.wallet); err != nil {
				return err
			}
		}
	}

	runMetrics := metrics.New()
	client := explorer.NewClient(explorer.Options{
		BaseURL:   baseURL,
		APIKey:    cc.Cfg.Explorer.APIKey,
		Timeout:   cc.Cfg.ExplorerTimeout(),
		RateLimit: cc.Cfg.Explorer.RateLimit,
		RateBurst: cc.Cfg.Explorer.RateBurst,
		PageSize:  cc.Cfg.Explorer.PageSize,
		Logger:    cc.Log,
		Metrics:   runMetrics,
	})

	isJSON := cc.Fmt.Format() == output.FormatJSON
	opts := &discovery.Options{
		MinGap:     minGap,
		Concurrent: discoverConcurrent || cc.Cfg.Discovery.Concurrent,
		Logger:     cc.Log,
		Metrics:    runMetrics,
	}
	if !isJSON {
		opts.ProgressCallback = progressPrinter(cmd.ErrOrStderr())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if discoverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, discoverTimeout)
		defer cancel()
	}

	res, err := discovery.New(deriver, client, opts).DiscoverWithStats(ctx, discovery.Request{
		SkipWithGroup: skip,
	})
	if err != nil {
		return err
	}

	resp := discoverResponse{
		RunID:           res.RunID.String(),
		Wallet:          discoverKeys.wallet,
		MinGap:          minGap,
		Concurrent:      opts.Concurrent,
		Skipped:         len(skip),
		Addresses:       res.Addresses,
		Groups:          res.Groups,
		ProbeCalls:      res.ProbeCalls,
		AddressesProbed: res.AddressesProbed,
		DurationMs:      res.Duration.Milliseconds(),
	}
	if cc.Cfg.Output.Verbose {
		snap := runMetrics.Snapshot()
		resp.Metrics = &snap
	}

	if discoverSave {
		now := time.Now()
		added, saveErr := store.SaveDiscovered(discoverKeys.wallet, resp.RunID, res.Addresses, now)
		if saveErr != nil {
			return saveErr
		}
		resp.Saved = &added

		wlt.MarkDiscovered(now)
		if err := cc.Storage.Update(wlt); err != nil {
			return fmt.Errorf("updating wallet metadata: %w", err)
		}
	}

	if isJSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	return displayDiscoverText(cmd.OutOrStdout(), resp)
}

// progressPrinter reports finished evaluations on w. Concurrent runs call it
// from several goroutines, so writes are serialized.
func progressPrinter(w io.Writer) discovery.ProgressCallback {
	var mu sync.Mutex
	return func(u discovery.ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()
		switch u.Phase {
		case discovery.PhaseEvaluate:
			out(w, "  group %d: round %d, %d active, gap %d\n", u.Group, u.Iteration, u.ActiveFound, u.Gap)
		case discovery.PhaseComplete:
			out(w, "  %s\n", u.Message)
		}
	}
}

func displayDiscoverText(w io.Writer, resp discoverResponse) error {
	outln(w)
	if len(resp.Addresses) == 0 {
		outln(w, "No active addresses found.")
	} else {
		table := output.NewTable("GROUP", "INDEX", "ADDRESS", "PATH").AlignRight(1)
		for _, a := range resp.Addresses {
			table.AddRow(a.Group.String(), strconv.FormatUint(uint64(a.Index), 10), a.Hash, a.Path)
		}
		if err := table.Render(w); err != nil {
			return err
		}
	}

	outln(w)
	groups := output.NewTable("GROUP", "ACTIVE", "DERIVED", "ROUNDS", "GAP").AlignRight(1, 2, 3, 4)
	for _, g := range resp.Groups {
		groups.AddRow(g.Group.String(), strconv.Itoa(g.Active), strconv.Itoa(g.Derived),
			strconv.Itoa(g.Rounds), strconv.Itoa(g.FinalGap))
	}
	if err := groups.Render(w); err != nil {
		return err
	}

	outln(w)
	out(w, "Run %s: %d active, %d probe calls, %d addresses probed (gap %d)\n",
		resp.RunID, len(resp.Addresses), resp.ProbeCalls, resp.AddressesProbed, resp.MinGap)
	if resp.Skipped > 0 {
		out(w, "Skipped %d indexes already recorded for %s.\n", resp.Skipped, resp.Wallet)
	}
	if resp.Saved != nil {
		output.Successf(w, "Saved %d new addresses to wallet %s", *resp.Saved, resp.Wallet)
	}
	if resp.Metrics != nil {
		out(w, "Explorer: %d requests, %d errors, %.1f ms average latency\n",
			resp.Metrics.ExplorerRequests, resp.Metrics.ExplorerErrors, resp.Metrics.ExplorerLatencyMs)
	}
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	discoverKeys.register(discoverCmd)
	discoverCmd.Flags().IntVar(&discoverGap, "gap", discovery.DefaultMinGap, "minimum run of unused addresses that ends a group")
	discoverCmd.Flags().BoolVar(&discoverConcurrent, "concurrent", false, "search the groups in parallel")
	discoverCmd.Flags().StringVar(&discoverExplorerURL, "explorer", "", "explorer backend URL (overrides config)")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "record the found addresses for the wallet")
	discoverCmd.Flags().BoolVar(&discoverRescan, "rescan", false, "ignore addresses already recorded for the wallet")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 0, "abort the run after this long (0 for no limit)")

	rootCmd.AddCommand(discoverCmd)
}
