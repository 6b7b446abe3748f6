package cli

import (
	"github.com/mrz1836/alphscan/internal/config"
	"github.com/mrz1836/alphscan/internal/discovery"
	"github.com/mrz1836/alphscan/internal/explorer"
	"github.com/mrz1836/alphscan/internal/output"
	"github.com/mrz1836/alphscan/internal/wallet"
)

// Compile-time interface checks.
var (
	_ LogWriter      = (*config.Logger)(nil)
	_ FormatProvider = (*output.Formatter)(nil)

	_ discovery.Deriver        = (*wallet.HDDeriver)(nil)
	_ discovery.ActivityProber = (*explorer.Client)(nil)
	_ discovery.Logger         = LogWriter(nil)
	_ explorer.Logger          = LogWriter(nil)
)

// LogWriter provides logging capabilities.
// This interface enables mocking logging in tests.
type LogWriter interface {
	// Debug logs a debug-level message.
	Debug(format string, args ...any)

	// Error logs an error-level message.
	Error(format string, args ...any)

	// Close closes the logger and releases resources.
	Close() error
}

// FormatProvider provides output format information.
// This interface enables mocking output formatting in tests.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format
}
