package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-webshot/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // WEBSHOT_CONFIG: config file name or path
	OutputDir  string // WEBSHOT_OUTPUT_DIR: default output directory
	Format     string // WEBSHOT_FORMAT: png, jpeg, pdf
	Device     string // WEBSHOT_DEVICE: viewport preset
	NavTimeout string // WEBSHOT_NAV_TIMEOUT: navigation timeout
	PoolSize   int    // WEBSHOT_POOL_SIZE: render contexts
	History    bool   // WEBSHOT_HISTORY: "1" or "true" enables the run log
}

// knownEnvVars lists valid WEBSHOT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"WEBSHOT_CONFIG":      true,
	"WEBSHOT_OUTPUT_DIR":  true,
	"WEBSHOT_FORMAT":      true,
	"WEBSHOT_DEVICE":      true,
	"WEBSHOT_NAV_TIMEOUT": true,
	"WEBSHOT_POOL_SIZE":   true,
	"WEBSHOT_HISTORY":     true,
	"WEBSHOT_CONTAINER":   true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and booleans are ignored, not errors.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("WEBSHOT_CONFIG"),
		OutputDir:  os.Getenv("WEBSHOT_OUTPUT_DIR"),
		Format:     os.Getenv("WEBSHOT_FORMAT"),
		Device:     os.Getenv("WEBSHOT_DEVICE"),
		NavTimeout: os.Getenv("WEBSHOT_NAV_TIMEOUT"),
	}

	if size := os.Getenv("WEBSHOT_POOL_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			cfg.PoolSize = n
		}
	}

	if v, err := strconv.ParseBool(os.Getenv("WEBSHOT_HISTORY")); err == nil {
		cfg.History = v
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized WEBSHOT_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "WEBSHOT_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies set environment values over the loaded config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Format != "" {
		cfg.Capture.Format = env.Format
	}
	if env.Device != "" {
		cfg.Capture.Device = env.Device
	}
	if env.NavTimeout != "" {
		cfg.Browser.NavigationTimeout = env.NavTimeout
	}
	if env.PoolSize > 0 {
		cfg.Pool.Size = env.PoolSize
	}
	if env.History {
		cfg.History.Enabled = true
	}
}
