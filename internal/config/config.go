package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-webshot/internal/fileutil"
	"github.com/alnah/go-webshot/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field limits.
const (
	MaxPathLength       = 4096
	MaxPatternLength    = 512
	MaxPatterns         = 500
	MaxDeviceNameLength = 50
	MaxDevices          = 50

	MaxPoolSize          = 64
	MaxNavigationTimeout = 5 * time.Minute
	MaxImageTimeout      = time.Minute
	MaxDelay             = 30 * time.Second
	MaxViewportSize      = 16384
	MaxQuality           = 100
)

// Config holds all configuration for the capture CLI.
type Config struct {
	Pool      PoolConfig      `yaml:"pool"`
	Browser   BrowserConfig   `yaml:"browser"`
	Capture   CaptureConfig   `yaml:"capture"`
	Blocklist BlocklistConfig `yaml:"blocklist"`
	Output    OutputConfig    `yaml:"output"`
	History   HistoryConfig   `yaml:"history"`
}

// PoolConfig sizes and recycles the render context pool.
// Durations are Go duration strings ("5m", "100ms"); empty = default.
type PoolConfig struct {
	Size              int    `yaml:"size"`              // 0 = GOMAXPROCS/2, clamped to 1-8
	MaxContextAge     string `yaml:"maxContextAge"`     // default: 5m
	AcquireRetryDelay string `yaml:"acquireRetryDelay"` // default: 100ms
}

// BrowserConfig defines how Chrome is launched and bounded.
type BrowserConfig struct {
	Bin               string `yaml:"bin"`               // Empty = ROD_BROWSER_BIN or downloaded Chromium
	NoSandbox         bool   `yaml:"noSandbox"`         // Required in most containers
	NavigationTimeout string `yaml:"navigationTimeout"` // default: 30s
	ImageTimeout      string `yaml:"imageTimeout"`      // default: 5s
}

// CaptureConfig holds default per-capture options.
type CaptureConfig struct {
	Format   string                    `yaml:"format"`  // "png", "jpeg", "pdf" (default: "png")
	Quality  int                       `yaml:"quality"` // 1-100, jpeg only (default: 80)
	Device   string                    `yaml:"device"`  // preset name
	Width    int                       `yaml:"width"`
	Height   int                       `yaml:"height"`
	Delay    string                    `yaml:"delay"` // extra wait, max 30s
	FullPage bool                      `yaml:"fullPage"`
	Devices  map[string]ViewportConfig `yaml:"devices"` // extra or overriding presets
}

// ViewportConfig is a device preset size in CSS pixels.
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BlocklistConfig controls request interception.
type BlocklistConfig struct {
	Disabled bool     `yaml:"disabled"`
	Extra    []string `yaml:"extra"` // glob patterns added to the built-in list
}

// OutputConfig defines where captures are written.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = current directory
}

// HistoryConfig enables the capture run log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // Empty = user cache dir
}

// Validate checks ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	// Validate pool fields
	if c.Pool.Size < 0 || c.Pool.Size > MaxPoolSize {
		return fmt.Errorf("%w: pool.size: must be between 0 and %d, got %d", ErrInvalidValue, MaxPoolSize, c.Pool.Size)
	}
	if err := validateDuration("pool.maxContextAge", c.Pool.MaxContextAge, 0); err != nil {
		return err
	}
	if err := validateDuration("pool.acquireRetryDelay", c.Pool.AcquireRetryDelay, 0); err != nil {
		return err
	}

	// Validate browser fields
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	if err := validateDuration("browser.navigationTimeout", c.Browser.NavigationTimeout, MaxNavigationTimeout); err != nil {
		return err
	}
	if err := validateDuration("browser.imageTimeout", c.Browser.ImageTimeout, MaxImageTimeout); err != nil {
		return err
	}

	// Validate capture fields
	if err := c.Capture.validate(); err != nil {
		return err
	}

	// Validate blocklist patterns
	if len(c.Blocklist.Extra) > MaxPatterns {
		return fmt.Errorf("%w: blocklist.extra: %d patterns (max %d)", ErrInvalidValue, len(c.Blocklist.Extra), MaxPatterns)
	}
	for i, p := range c.Blocklist.Extra {
		field := fmt.Sprintf("blocklist.extra[%d]", i)
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %s: empty pattern", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field, p, MaxPatternLength); err != nil {
			return err
		}
	}

	// Validate paths
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("history.path", c.History.Path, MaxPathLength); err != nil {
		return err
	}

	return nil
}

func (c *CaptureConfig) validate() error {
	switch strings.ToLower(c.Format) {
	case "", "png", "jpeg", "jpg", "pdf":
		// valid
	default:
		return fmt.Errorf("%w: capture.format: %q (must be png, jpeg, or pdf)", ErrInvalidValue, c.Format)
	}
	if c.Quality < 0 || c.Quality > MaxQuality {
		return fmt.Errorf("%w: capture.quality: must be between 1 and %d, got %d", ErrInvalidValue, MaxQuality, c.Quality)
	}
	if err := validateSize("capture", c.Width, c.Height); err != nil {
		return err
	}
	if err := validateDuration("capture.delay", c.Delay, MaxDelay); err != nil {
		return err
	}

	if len(c.Devices) > MaxDevices {
		return fmt.Errorf("%w: capture.devices: %d presets (max %d)", ErrInvalidValue, len(c.Devices), MaxDevices)
	}
	for name, vp := range c.Devices {
		field := "capture.devices." + name
		if name == "" {
			return fmt.Errorf("%w: capture.devices: empty preset name", ErrInvalidValue)
		}
		if err := validateFieldLength(field, name, MaxDeviceNameLength); err != nil {
			return err
		}
		if vp.Width <= 0 || vp.Height <= 0 {
			return fmt.Errorf("%w: %s: width and height are required", ErrInvalidValue, field)
		}
		if err := validateSize(field, vp.Width, vp.Height); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateDuration parses a non-negative duration string. max 0 = unbounded.
func validateDuration(fieldName, value string, max time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a duration (e.g. 30s, 5m)", ErrInvalidValue, fieldName, value)
	}
	if d < 0 {
		return fmt.Errorf("%w: %s: must not be negative, got %v", ErrInvalidValue, fieldName, d)
	}
	if max > 0 && d > max {
		return fmt.Errorf("%w: %s: must be at most %v, got %v", ErrInvalidValue, fieldName, max, d)
	}
	return nil
}

// validateSize checks an optional width/height pair: both zero or both set.
func validateSize(fieldName string, w, h int) error {
	if w == 0 && h == 0 {
		return nil
	}
	if w < 1 || h < 1 || w > MaxViewportSize || h > MaxViewportSize {
		return fmt.Errorf("%w: %s: %dx%d (each side must be between 1 and %d)", ErrInvalidValue, fieldName, w, h, MaxViewportSize)
	}
	return nil
}

// Duration parses a validated duration field. Empty or invalid values
// yield 0, which callers treat as "use the default".
func Duration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Size:              0,
			MaxContextAge:     "5m",
			AcquireRetryDelay: "100ms",
		},
		Browser: BrowserConfig{
			NavigationTimeout: "30s",
			ImageTimeout:      "5s",
		},
		Capture: CaptureConfig{
			Format:  "png",
			Quality: 80,
		},
		Blocklist: BlocklistConfig{Disabled: false},
		Output:    OutputConfig{DefaultDir: ""},
		History:   HistoryConfig{Enabled: false},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Unset fields keep their defaults.
	cfg := DefaultConfig()
	if err := yamlutil.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yamlutil.Encode(cfg)
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-webshot/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-webshot", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
