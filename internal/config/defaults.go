package config

import "time"

// DefaultExplorerURL is the default mainnet explorer backend.
const DefaultExplorerURL = "https://backend.mainnet.alephium.org"

// DefaultExplorerTimeout bounds a single explorer request.
const DefaultExplorerTimeout = 15 * time.Second

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.alphscan",
		Explorer: ExplorerConfig{
			URL:            DefaultExplorerURL,
			TimeoutSeconds: int(DefaultExplorerTimeout / time.Second),
			RateLimit:      5,
			RateBurst:      10,
			PageSize:       80,
		},
		Discovery: DiscoveryConfig{
			MinGap:     5,
			Concurrent: false,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.alphscan/alphscan.log",
		},
	}
}
