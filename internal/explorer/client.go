// Package explorer queries an Alephium explorer backend for address activity.
package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mrz1836/alphscan/internal/chain"
	"github.com/mrz1836/alphscan/internal/metrics"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

const (
	// MaxAddressesPerRequest is the page size accepted by the used-addresses endpoint.
	MaxAddressesPerRequest = 80

	// DefaultRateLimit is the default request rate (requests per second).
	DefaultRateLimit = 5

	// DefaultRateBurst allows short bursts above the rate limit.
	DefaultRateBurst = 10

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 15 * time.Second

	// APIKeyHeader carries the optional explorer API key.
	APIKeyHeader = "X-API-KEY" //nolint:gosec // G101: header name, not a credential

	usedAddressesEndpoint = "/addresses/used"

	// maxErrorBody limits how much of an error response is kept for diagnostics.
	maxErrorBody = 512

	// breakerFailures is the consecutive failure count that opens the breaker.
	breakerFailures = 5
)

// Logger is the logging surface used by the client.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the explorer backend root, e.g. https://backend.mainnet.alephium.org.
	BaseURL string

	// APIKey is sent in the X-API-KEY header when set.
	APIKey string

	Timeout   time.Duration
	RateLimit float64
	RateBurst int

	// PageSize caps addresses per request; values outside (0, 80] use 80.
	PageSize int

	// Retry overrides the retry policy for transient failures.
	Retry *chain.RetryConfig

	HTTPClient *http.Client
	Logger     Logger
	Metrics    *metrics.Metrics
}

// Client checks whether addresses have ever appeared in a transaction.
// Pages are sent sequentially; a Client is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retry      chain.RetryConfig
	logger     Logger
	metrics    *metrics.Metrics
}

// NewClient creates an explorer client.
func NewClient(opts Options) *Client {
	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	rateBurst := opts.RateBurst
	if rateBurst <= 0 {
		rateBurst = DefaultRateBurst
	}

	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > MaxAddressesPerRequest {
		pageSize = MaxAddressesPerRequest
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	retry := chain.DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Global
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		pageSize:   pageSize,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		retry:      retry,
		logger:     opts.Logger,
		metrics:    m,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "explorer",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.debug("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return c
}

// ProbeActivity reports, for each address in order, whether it has any
// transaction history. Addresses are split into pages of at most PageSize
// and sent one page at a time. Any page failure aborts the whole call.
// An empty input performs no request.
func (c *Client) ProbeActivity(ctx context.Context, addresses []string) ([]bool, error) {
	if len(addresses) == 0 {
		return []bool{}, nil
	}

	results := make([]bool, 0, len(addresses))
	for i := 0; i < len(addresses); i += c.pageSize {
		end := min(i+c.pageSize, len(addresses))
		page := addresses[i:end]

		flags, err := c.probePage(ctx, page)
		if err != nil {
			return nil, err
		}
		results = append(results, flags...)
	}

	active := 0
	for _, used := range results {
		if used {
			active++
		}
	}
	c.metrics.RecordProbe(len(addresses), active)
	c.debug("probed %d addresses, %d active", len(addresses), active)

	return results, nil
}

// probePage queries one page with rate limiting, circuit breaking and retries.
func (c *Client) probePage(ctx context.Context, page []string) ([]bool, error) {
	flags, err := chain.RetryWithConfig(ctx, c.retry, func() ([]bool, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.postUsed(ctx, page)
		})
		if err != nil {
			return nil, err
		}
		return out.([]bool), nil
	})
	if err != nil {
		c.logError("activity probe failed for %d addresses: %v", len(page), err)
		return nil, classify(err)
	}

	if len(flags) != len(page) {
		return nil, scanerr.WithDetails(scanerr.ErrActivityMismatch, map[string]string{
			"expected": fmt.Sprint(len(page)),
			"received": fmt.Sprint(len(flags)),
		})
	}
	return flags, nil
}

// postUsed performs a single POST /addresses/used call.
func (c *Client) postUsed(ctx context.Context, page []string) (flags []bool, err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordExplorerCall(usedAddressesEndpoint, time.Since(start), err)
	}()

	body, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+usedAddressesEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %w", chain.ErrTimeout, err)
		}
		return nil, chain.WrapRetryable(fmt.Errorf("sending HTTP request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(&flags); err != nil {
		return nil, scanerr.Wrap(scanerr.ErrActivityMismatch, "decoding response: %v", err)
	}
	return flags, nil
}

// statusError converts a non-200 response into a typed error.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	cause := fmt.Errorf("explorer returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))) //nolint:err113 // dynamic status

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &chain.RetryAfterError{
			Err:   fmt.Errorf("%w: %w", chain.ErrRateLimited, cause),
			After: chain.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case chain.IsRetryableStatus(resp.StatusCode):
		return chain.WrapRetryable(cause)
	default:
		return scanerr.Wrap(scanerr.ErrNetworkError, "%v", cause)
	}
}

// classify maps transport failures onto NETWORK_ERROR unless they already
// carry a more specific code or are context errors. Client timeouts can also
// match context.DeadlineExceeded, so they are checked first.
func classify(err error) error {
	switch {
	case scanerr.Is(err, chain.ErrTimeout):
		return scanerr.Wrap(scanerr.ErrNetworkError, "%v", err)
	case scanerr.Is(err, context.Canceled), scanerr.Is(err, context.DeadlineExceeded):
		return err
	case scanerr.Is(err, scanerr.ErrActivityMismatch), scanerr.Is(err, scanerr.ErrNetworkError):
		return err
	default:
		return scanerr.Wrap(scanerr.ErrNetworkError, "%v", err)
	}
}

func (c *Client) debug(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(format, args...)
	}
}

func (c *Client) logError(format string, args ...any) {
	if c.logger != nil {
		c.logger.Error(format, args...)
	}
}
