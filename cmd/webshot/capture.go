package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	webshot "github.com/alnah/go-webshot"
	"github.com/alnah/go-webshot/internal/blocklist"
	"github.com/alnah/go-webshot/internal/config"
	"github.com/alnah/go-webshot/internal/fileutil"
	"github.com/alnah/go-webshot/internal/hints"
	"github.com/alnah/go-webshot/internal/history"
	flag "github.com/spf13/pflag"
)

// Sentinel errors for CLI operations.
var (
	ErrNoURLs         = errors.New("no URL specified")
	ErrInvalidFlag    = errors.New("invalid flag")
	ErrWriteOutput    = errors.New("failed to write output")
	ErrHistory        = errors.New("history database error")
	ErrPartialFailure = errors.New("some captures failed")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// maxNameLength bounds file names derived from URLs.
const maxNameLength = 120

// unsafeNameChars matches runs of characters not kept in derived file names.
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// captureOutcome is one URL's result as seen by the CLI.
type captureOutcome struct {
	webshot.BatchItem
	OutputPath string
}

// runCapture orchestrates the capture command.
func runCapture(ctx context.Context, args []string, env *Environment) error {
	flags, urls, err := parseCaptureFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := loadCaptureConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}

	// CLI wins over env and file
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(urls) == 0 {
		return ErrNoURLs
	}
	if len(urls) > webshot.MaxBatchSize {
		return fmt.Errorf("%w: %d URLs (max %d)", webshot.ErrBatchTooLarge, len(urls), webshot.MaxBatchSize)
	}

	devices := buildDevices(cfg)
	opts, err := buildCaptureOptions(cfg)
	if err != nil {
		return err
	}

	// Validate every URL before paying for a browser launch
	for _, u := range urls {
		if err := (webshot.CaptureRequest{URL: u, CaptureOptions: opts}).Validate(devices); err != nil {
			if errors.Is(err, webshot.ErrInvalidDevice) {
				return fmt.Errorf("%w%s", err, hints.ForDevice(slices.Sorted(maps.Keys(devices))))
			}
			return err
		}
	}

	outputs, err := resolveOutputPaths(urls, flags.output, cfg.Output.DefaultDir, opts.Format)
	if err != nil {
		return err
	}

	logger := newLogger(env, flags.common)
	svcOpts, err := buildServiceOptions(cfg, devices, logger)
	if err != nil {
		return err
	}

	start := env.Now()
	svc, err := env.NewCapturer(ctx, svcOpts...)
	if err != nil {
		return fmt.Errorf("starting browser: %w%s", err, hints.ForBrowserConnect())
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("closing browser", "error", err)
		}
	}()

	items, err := captureURLs(ctx, svc, urls, opts)
	if err != nil {
		return err
	}
	if flags.common.verbose {
		stats := svc.PoolStats()
		logger.Debug("pool", "capacity", stats.Capacity, "total", stats.Total, "overflow", stats.Overflow)
	}

	results := writeOutputs(items, outputs)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)

	if cfg.History.Enabled {
		if err := recordHistory(ctx, env, cfg, opts.Format, results); err != nil {
			fmt.Fprintf(env.Stderr, "warning: %v\n", err)
		}
	}

	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Done in %v\n", env.Now().Sub(start).Round(time.Millisecond))
	}

	switch {
	case failed == 0:
		return nil
	case len(results) == 1:
		return results[0].Err
	default:
		return fmt.Errorf("%w: %d of %d", ErrPartialFailure, failed, len(results))
	}
}

// loadCaptureConfig loads the config named by flag or WEBSHOT_CONFIG,
// or returns the defaults when neither is set.
func loadCaptureConfig(flagConfig string, envCfg *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(configCandidates(name)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// configCandidates lists where a config name is searched, for hints.
func configCandidates(name string) []string {
	paths := []string{name + ".yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "go-webshot", name+".yaml"))
	}
	return paths
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *captureFlags, cfg *config.Config) {
	if flags.history {
		cfg.History.Enabled = true
	}

	// Render flags
	r := flags.render
	if r.format != "" {
		cfg.Capture.Format = r.format
	}
	if r.quality != 0 {
		cfg.Capture.Quality = r.quality
	}
	if r.device != "" {
		cfg.Capture.Device = r.device
	}
	if r.width != 0 || r.height != 0 {
		cfg.Capture.Width = r.width
		cfg.Capture.Height = r.height
		// explicit size beats a preset from config
		if r.device == "" {
			cfg.Capture.Device = ""
		}
	}
	if r.delay != "" {
		cfg.Capture.Delay = r.delay
	}
	if r.fullPage {
		cfg.Capture.FullPage = true
	}
	if r.noBlock {
		cfg.Blocklist.Disabled = true
	}

	// Browser flags
	b := flags.browser
	if b.poolSize != 0 {
		cfg.Pool.Size = b.poolSize
	}
	if b.navTimeout != "" {
		cfg.Browser.NavigationTimeout = b.navTimeout
	}
	if b.bin != "" {
		cfg.Browser.Bin = b.bin
	}
	if b.noSandbox {
		cfg.Browser.NoSandbox = true
	}
}

// buildDevices merges config presets over the built-in ones.
func buildDevices(cfg *config.Config) map[string]webshot.Viewport {
	devices := webshot.DefaultDevices()
	for name, vp := range cfg.Capture.Devices {
		devices[strings.ToLower(name)] = webshot.Viewport{Width: vp.Width, Height: vp.Height}
	}
	return devices
}

// buildCaptureOptions converts the validated capture section.
func buildCaptureOptions(cfg *config.Config) (webshot.CaptureOptions, error) {
	format, err := webshot.ParseFormat(cfg.Capture.Format)
	if err != nil {
		return webshot.CaptureOptions{}, err
	}

	return webshot.CaptureOptions{
		Format:          format,
		Quality:         cfg.Capture.Quality,
		Device:          cfg.Capture.Device,
		Width:           cfg.Capture.Width,
		Height:          cfg.Capture.Height,
		Delay:           config.Duration(cfg.Capture.Delay),
		FullPage:        cfg.Capture.FullPage,
		DisableBlocking: cfg.Blocklist.Disabled,
	}, nil
}

// buildServiceOptions maps config onto library options.
// Zero durations keep the library defaults.
func buildServiceOptions(cfg *config.Config, devices map[string]webshot.Viewport, logger *slog.Logger) ([]webshot.Option, error) {
	opts := []webshot.Option{
		webshot.WithPoolSize(webshot.ResolvePoolSize(cfg.Pool.Size)),
		webshot.WithDevices(devices),
		webshot.WithLogger(logger),
	}

	if d := config.Duration(cfg.Pool.MaxContextAge); d > 0 {
		opts = append(opts, webshot.WithMaxContextAge(d))
	}
	if d := config.Duration(cfg.Pool.AcquireRetryDelay); d > 0 {
		opts = append(opts, webshot.WithAcquireRetryDelay(d))
	}
	if d := config.Duration(cfg.Browser.NavigationTimeout); d > 0 {
		opts = append(opts, webshot.WithNavigationTimeout(d))
	}
	if d := config.Duration(cfg.Browser.ImageTimeout); d > 0 {
		opts = append(opts, webshot.WithImageTimeout(d))
	}
	if cfg.Browser.Bin != "" {
		opts = append(opts, webshot.WithBrowserBin(cfg.Browser.Bin))
	}
	if cfg.Browser.NoSandbox {
		opts = append(opts, webshot.WithNoSandbox(true))
	}

	switch {
	case cfg.Blocklist.Disabled:
		opts = append(opts, webshot.WithBlocklist(nil))
	case len(cfg.Blocklist.Extra) > 0:
		m, err := blocklist.Default(cfg.Blocklist.Extra...)
		if err != nil {
			return nil, fmt.Errorf("%w: blocklist.extra: %v", config.ErrInvalidValue, err)
		}
		opts = append(opts, webshot.WithBlocklist(m))
	}

	return opts, nil
}

// newLogger builds the library logger: debug when verbose, errors only
// when quiet, warnings otherwise.
func newLogger(env *Environment, f commonFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case f.verbose:
		level = slog.LevelDebug
	case f.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: level}))
}

// captureURLs captures one URL directly or many through the batch API.
// Per-URL failures are returned inside the items.
func captureURLs(ctx context.Context, svc Capturer, urls []string, opts webshot.CaptureOptions) ([]webshot.BatchItem, error) {
	if len(urls) == 1 {
		item := webshot.BatchItem{URL: urls[0]}
		res, err := svc.Capture(ctx, webshot.CaptureRequest{URL: urls[0], CaptureOptions: opts})
		if err != nil {
			item.Err = err
			item.Error = err.Error()
			return []webshot.BatchItem{item}, nil
		}
		item.Success = true
		item.Data = res.Data
		item.ContentType = res.ContentType
		item.Duration = res.Duration
		return []webshot.BatchItem{item}, nil
	}

	outcome, err := svc.CaptureMany(ctx, urls, opts)
	if err != nil {
		return nil, err
	}
	return outcome.Items, nil
}

// resolveOutputPaths picks a file per URL. A single URL with an -o value
// that has an extension writes exactly there; otherwise -o (or the config
// default) is a directory and names are derived from the URLs.
func resolveOutputPaths(urls []string, flagOutput, defaultDir string, format webshot.Format) ([]string, error) {
	if len(urls) == 1 && flagOutput != "" && filepath.Ext(flagOutput) != "" {
		if err := os.MkdirAll(filepath.Dir(flagOutput), dirPermissions); err != nil {
			return nil, fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
		}
		return []string{flagOutput}, nil
	}

	dir := flagOutput
	if dir == "" {
		dir = defaultDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}

	// taken holds every stem handed out, suffixed ones included, so a
	// generated "-N" never lands on another URL's natural name.
	taken := make(map[string]bool, len(urls))
	paths := make([]string, len(urls))
	for i, u := range urls {
		base := outputName(u)
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		taken[name] = true
		paths[i] = filepath.Join(dir, name+"."+format.Extension())
	}
	return paths, nil
}

// outputName derives a file name stem from host and path.
func outputName(rawURL string) string {
	name := "capture"
	if u, err := url.Parse(rawURL); err == nil {
		if stem := strings.Trim(unsafeNameChars.ReplaceAllString(u.Host+u.Path, "_"), "_."); stem != "" {
			name = stem
		}
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}

// writeOutputs writes each successful capture to its path. A write
// failure turns that item into a failure.
func writeOutputs(items []webshot.BatchItem, paths []string) []captureOutcome {
	results := make([]captureOutcome, len(items))
	for i, item := range items {
		results[i] = captureOutcome{BatchItem: item, OutputPath: paths[i]}
		if !item.Success {
			continue
		}
		if err := fileutil.WriteFileAtomic(paths[i], item.Data, filePermissions); err != nil {
			err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
			results[i].Success = false
			results[i].Err = err
			results[i].Error = err.Error()
		}
	}
	return results
}

// printResults outputs capture results and returns the failure count.
func printResults(results []captureOutcome, quiet, verbose bool, env *Environment) int {
	failed := 0

	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.URL, r.Err, hintFor(r.URL, r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d bytes, %v)\n", r.URL, r.OutputPath, len(r.Data), r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}

	return failed
}

// hintFor picks a hint for a per-URL capture failure.
func hintFor(rawURL string, err error) string {
	switch {
	case errors.Is(err, webshot.ErrNavigationTimeout):
		return hints.ForNavigationTimeout()
	case errors.Is(err, webshot.ErrNavigation):
		return hints.ForNavigation(rawURL)
	case errors.Is(err, webshot.ErrAcquireContext):
		return hints.ForBrowserConnect()
	}
	return ""
}

// recordHistory stores run metadata. Captured bytes are not stored.
func recordHistory(ctx context.Context, env *Environment, cfg *config.Config, format webshot.Format, results []captureOutcome) error {
	path, err := historyPath(cfg.History.Path)
	if err != nil {
		return err
	}

	store, err := env.OpenHistory(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHistory, err)
	}
	defer store.Close()

	now := env.Now()
	entries := make([]history.Entry, len(results))
	for i, r := range results {
		entries[i] = history.Entry{
			URL:        r.URL,
			Format:     string(format),
			Success:    r.Success,
			Error:      r.Error,
			Bytes:      len(r.Data),
			Duration:   r.Duration,
			CapturedAt: now,
		}
	}

	if _, err := store.Record(context.WithoutCancel(ctx), entries); err != nil {
		return fmt.Errorf("%w: %v", ErrHistory, err)
	}
	return nil
}

// historyPath returns the configured path or the default location.
func historyPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	path, err := history.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHistory, err)
	}
	return path, nil
}
