package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/alphscan/internal/config"
	"github.com/mrz1836/alphscan/internal/output"
	"github.com/mrz1836/alphscan/internal/wallet"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Log     LogWriter
	Fmt     FormatProvider
	Storage wallet.Storage
}

type cmdContextKey struct{}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	return &CommandContext{
		Cfg: cfg,
		Log: logger,
		Fmt: formatter,
	}
}

// WithStorage sets the wallet storage.
func (c *CommandContext) WithStorage(s wallet.Storage) *CommandContext {
	c.Storage = s
	return c
}

// SetCmdContext attaches the command context to cmd.
func SetCmdContext(cmd *cobra.Command, c *CommandContext) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cmdContextKey{}, c))
}

// GetCmdContext returns the context attached by SetCmdContext, falling back
// to the package globals.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok {
			return c
		}
	}

	c := &CommandContext{Cfg: cfg, Fmt: formatter}
	if logger != nil {
		c.Log = logger
	}
	if cfg != nil {
		c.Storage = wallet.NewFileStorage(cfg.WalletsDir())
	}
	return c
}
