// Package cli implements the alphscan command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/config"
	"github.com/mrz1836/alphscan/internal/output"
	"github.com/mrz1836/alphscan/internal/wallet"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	helpOnce sync.Once
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "alphscan",
	Short: "Discover the active addresses of an HD wallet across all groups",
	Long: `alphscan walks the BIP44 address chain of a wallet, sorts the derived
addresses into their groups and asks an explorer backend which of them were
ever used. Each group is searched until a run of unused addresses at least
as long as the gap limit follows the last active one.

Example:
  alphscan wallet import main
  alphscan discover --wallet main --save
  alphscan derive --wallet main --group 2 --count 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	helpOnce.Do(func() { indexSubcommands(rootCmd) })

	err := rootCmd.Execute()
	if err != nil {
		// Format and print error
		if formatter != nil {
			_ = output.FormatError(rootCmd.ErrOrStderr(), err, formatter.Format())
		} else {
			_ = output.FormatError(rootCmd.ErrOrStderr(), err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return scanerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter, and
// attaches them to the command being run.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !scanerr.Is(err, scanerr.ErrConfigNotFound) {
			return err
		}
		cfg = config.Defaults()
	}
	if cfg.Home == "" || cfg.Home == config.Defaults().Home {
		cfg.Home = home
	}

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if cfg.Logging.File == config.Defaults().Logging.File {
		cfg.Logging.File = filepath.Join(cfg.Home, "alphscan.log")
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	// Initialize logger
	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	// Initialize formatter
	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	detectedFormat := output.DetectFormat(cmd.OutOrStdout(), explicitFormat)
	formatter = output.NewFormatter(detectedFormat, cmd.OutOrStdout())

	SetCmdContext(cmd, NewCommandContext(cfg, logger, formatter).
		WithStorage(wallet.NewFileStorage(cfg.WalletsDir())))

	return nil
}

// indexSubcommands appends a table of the available subcommands to the long
// help of every command group below cmd, so "alphscan wallet --help" lists
// create, import and the rest without maintaining the text by hand.
func indexSubcommands(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		indexSubcommands(sub)
	}
	if cmd == rootCmd || !cmd.HasAvailableSubCommands() {
		return
	}

	table := output.NewTable()
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			table.AddRow(" "+sub.Name(), sub.Short)
		}
	}
	cmd.Long = strings.TrimRight(cmd.Long, "\n") + "\n\nSubcommands:\n" + table.String()
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "alphscan data directory (default: ~/.alphscan)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
