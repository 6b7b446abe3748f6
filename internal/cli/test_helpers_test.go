package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Known addresses of testMnemonic.
const (
	addrIdx0  = "1qUhzfi2GxZ3tV7tv9a4HoNu8azz7M4HkxTAi2erzLHS"   // group 3
	addrIdx1  = "1HZAyYQTHoR44JiMndj361mWgsyGUAHicUR6PbTkPxgKd"  // group 1
	addrIdx7  = "12X57vbG6MB1Bog5o71NpDvcf3ipgRCHhNE2W9zoH59Dr"  // group 2
	addrIdx12 = "19aEFKVjosxocFLYzmcvszXHH7o5rav9G76mqnoaAJfTh" // group 0
)

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password []byte, passphrase string) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origPassphrase := promptPassphraseFn
	origMnemonic := promptMnemonicFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptPassphraseFn = origPassphrase
		promptMnemonicFn = origMnemonic
	})
	promptPasswordFn = func(_ string) ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptNewPasswordFn = func() ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptPassphraseFn = func() (string, error) {
		return passphrase, nil
	}
	promptMnemonicFn = func() (string, error) {
		return testMnemonic, nil
	}
}

// resetCommandState restores every flag to its default and drops contexts
// left over from a previous run.
func resetCommandState() {
	var visit func(*cobra.Command, func(*cobra.Command))
	visit = func(c *cobra.Command, fn func(*cobra.Command)) {
		fn(c)
		for _, sub := range c.Commands() {
			visit(sub, fn)
		}
	}
	visit(rootCmd, func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		c.SetContext(context.Background())
	})
}

// runCLI executes the root command with args in home and returns stdout and
// stderr. Output defaults to text; pass "-o json" to override.
func runCLI(t *testing.T, home, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--home", home, "-o", "text"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute()
	return stdout.String(), stderr.String(), err
}

// explorerStub serves /addresses/used, marking the configured addresses as used.
type explorerStub struct {
	mu       sync.Mutex
	active   map[string]bool
	requests [][]string
}

func newExplorerStub(t *testing.T, active ...string) (*explorerStub, *httptest.Server) {
	t.Helper()
	stub := &explorerStub{active: make(map[string]bool)}
	for _, a := range active {
		stub.active[a] = true
	}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *explorerStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/addresses/used" {
		http.NotFound(w, r)
		return
	}

	var addrs []string
	if err := json.NewDecoder(r.Body).Decode(&addrs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, addrs)
	s.mu.Unlock()

	flags := make([]bool, len(addrs))
	for i, a := range addrs {
		flags[i] = s.active[a]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(flags)
}

func (s *explorerStub) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func decodeJSON(t *testing.T, data string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(data), v), data)
}
