package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome           = "ALPHSCAN_HOME"
	EnvExplorerURL    = "ALPHSCAN_EXPLORER_URL"
	EnvExplorerAPIKey = "ALPHSCAN_EXPLORER_API_KEY" // #nosec G101 -- false positive, this is a const name not a credential
	EnvOutputFormat   = "ALPHSCAN_OUTPUT_FORMAT"
	EnvVerbose        = "ALPHSCAN_VERBOSE"
	EnvLogLevel       = "ALPHSCAN_LOG_LEVEL"
	EnvMinGap         = "ALPHSCAN_MIN_GAP"
	EnvNoColor        = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvExplorerURL); v != "" {
		cfg.Explorer.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvExplorerAPIKey); v != "" {
		cfg.Explorer.APIKey = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvMinGap); v != "" {
		if gap, err := strconv.Atoi(v); err == nil && gap > 0 {
			cfg.Discovery.MinGap = gap
		}
	}

	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters, surrounding
// whitespace and any trailing slash.
func SanitizeURL(url string) string {
	return strings.TrimRight(sanitize.URL(strings.TrimSpace(url)), "/")
}
