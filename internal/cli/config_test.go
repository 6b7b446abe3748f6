package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/alphscan/internal/config"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

func TestConfigShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvExplorerAPIKey, "abcdef123456")
	t.Setenv(config.EnvMinGap, "12")

	stdout, _, err := runCLI(t, home, "", "-o", "json", "config", "show")
	require.NoError(t, err)

	var shown config.Config
	decodeJSON(t, stdout, &shown)
	assert.Equal(t, home, shown.Home)
	assert.Equal(t, "****3456", shown.Explorer.APIKey)
	assert.Equal(t, 12, shown.Discovery.MinGap)
	assert.Equal(t, config.DefaultExplorerURL, shown.Explorer.URL)
	assert.Equal(t, filepath.Join(home, "alphscan.log"), shown.Logging.File)

	stdout, _, err = runCLI(t, home, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "min_gap: 12")
	assert.NotContains(t, stdout, "abcdef")
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()
	path := config.Path(home)

	_, _, err := runCLI(t, home, "", "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, _, err = runCLI(t, home, "", "config", "init")
	require.ErrorIs(t, err, scanerr.ErrInvalidInput)

	_, _, err = runCLI(t, home, "", "config", "init", "--force")
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, home, loaded.Home)
	assert.Equal(t, 5, loaded.Discovery.MinGap)
}

func TestConfigFileDrivesDiscovery(t *testing.T) {
	withMockPrompts(t, testPassword, "")
	home := t.TempDir()
	_, srv := newExplorerStub(t)

	cfgFile := config.Defaults()
	cfgFile.Home = home
	cfgFile.Explorer.URL = srv.URL
	cfgFile.Discovery.MinGap = 2
	require.NoError(t, config.Save(cfgFile, config.Path(home)))

	stdout, _, err := runCLI(t, home, testMnemonic, "-o", "json", "discover", "--mnemonic-stdin")
	require.NoError(t, err)

	var resp discoverResponse
	decodeJSON(t, stdout, &resp)
	assert.Equal(t, 2, resp.MinGap)
	assert.Equal(t, 8, resp.AddressesProbed)
}

func TestConfigInvalidFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(home), []byte("explorer: [unclosed"), 0o600))

	_, _, err := runCLI(t, home, "", "config", "show")
	require.ErrorIs(t, err, scanerr.ErrConfigInvalid)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("abc"))
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "****bcde", maskSecret("abcde"))
}
