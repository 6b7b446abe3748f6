package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/alphscan/internal/config"
	"github.com/mrz1836/alphscan/internal/output"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// configInitForce allows overwriting an existing config file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configInitForce bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Show the effective configuration or write a default config file.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after the config file, environment variables and
flags were applied. The explorer API key is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	shown := *cc.Cfg
	if shown.Explorer.APIKey != "" {
		shown.Explorer.APIKey = maskSecret(shown.Explorer.APIKey)
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(w, shown)
	}

	out(w, "# %s\n", config.Path(config.ExpandHome(shown.Home)))
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(shown); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	home := config.ExpandHome(cc.Cfg.Home)
	path := config.Path(home)

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return scanerr.WithSuggestion(
			scanerr.WithDetails(scanerr.ErrInvalidInput, map[string]string{"path": path}),
			"a config file already exists; use --force to overwrite it",
		)
	}

	if err := os.MkdirAll(home, 0o750); err != nil {
		return err
	}

	defaults := config.Defaults()
	defaults.Home = cc.Cfg.Home
	if err := config.Save(defaults, path); err != nil {
		return err
	}

	return output.FormatSuccess(cmd.OutOrStdout(), "wrote "+path, cc.Fmt.Format())
}

// maskSecret keeps the last four characters of s.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
