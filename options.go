package webshot

import (
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/alnah/go-webshot/internal/blocklist"
)

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	poolSize     int // 0 = ResolvePoolSize default
	maxAge       time.Duration
	retryDelay   time.Duration
	navTimeout   time.Duration
	imageTimeout time.Duration

	filter     RequestFilter
	filterSet  bool
	devices    map[string]Viewport
	browserBin string
	noSandbox  bool
	logger     *slog.Logger
	engine     renderEngine // injected by tests
	now        func() time.Time
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		maxAge:       DefaultMaxContextAge,
		retryDelay:   DefaultAcquireRetryDelay,
		navTimeout:   DefaultNavigationTimeout,
		imageTimeout: DefaultImageTimeout,
		devices:      DefaultDevices(),
		logger:       slog.New(slog.DiscardHandler),
		now:          time.Now,
	}
}

// WithPoolSize sets the number of pooled render contexts.
// Panics if n <= 0 (programmer error, similar to time.NewTicker).
func WithPoolSize(n int) Option {
	if n <= 0 {
		panic("webshot: WithPoolSize size must be positive")
	}
	return func(s *Service) {
		s.cfg.poolSize = n
	}
}

// WithMaxContextAge sets the age past which a released context is
// replaced with a fresh one.
// Panics if d <= 0.
func WithMaxContextAge(d time.Duration) Option {
	if d <= 0 {
		panic("webshot: WithMaxContextAge duration must be positive")
	}
	return func(s *Service) {
		s.cfg.maxAge = d
	}
}

// WithAcquireRetryDelay sets how long Acquire waits for a busy pool to
// free a slot before creating an overflow context.
// Panics if d <= 0.
func WithAcquireRetryDelay(d time.Duration) Option {
	if d <= 0 {
		panic("webshot: WithAcquireRetryDelay duration must be positive")
	}
	return func(s *Service) {
		s.cfg.retryDelay = d
	}
}

// WithNavigationTimeout bounds navigation up to DOMContentLoaded.
// Panics if d <= 0.
func WithNavigationTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("webshot: WithNavigationTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.navTimeout = d
	}
}

// WithImageTimeout bounds the wait for images to settle.
// Panics if d <= 0.
func WithImageTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("webshot: WithImageTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.imageTimeout = d
	}
}

// WithBlocklist replaces the built-in blocklist. A nil filter, including
// a nil *blocklist.Matcher, turns request interception off for every
// capture.
func WithBlocklist(f RequestFilter) Option {
	if m, ok := f.(*blocklist.Matcher); ok && m == nil {
		f = nil
	}
	return func(s *Service) {
		s.cfg.filter = f
		s.cfg.filterSet = true
	}
}

// WithDevices replaces the device preset table. Names are matched
// case-insensitively.
func WithDevices(devices map[string]Viewport) Option {
	return func(s *Service) {
		s.cfg.devices = make(map[string]Viewport, len(devices))
		for name, vp := range devices {
			s.cfg.devices[strings.ToLower(name)] = vp
		}
	}
}

// WithBrowserBin uses a pre-installed Chrome binary instead of the one
// rod downloads.
func WithBrowserBin(path string) Option {
	return func(s *Service) {
		s.cfg.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox (containers, CI).
func WithNoSandbox(v bool) Option {
	return func(s *Service) {
		s.cfg.noSandbox = v
	}
}

// WithLogger sets the logger for pool and capture diagnostics.
// The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.cfg.logger = l
		}
	}
}

// withEngine injects a render engine (tests).
func withEngine(e renderEngine) Option {
	return func(s *Service) {
		s.cfg.engine = e
	}
}

// withClock injects a time source (tests).
func withClock(now func() time.Time) Option {
	return func(s *Service) {
		s.cfg.now = now
	}
}

// Devices returns a copy of the configured device table.
func (s *Service) Devices() map[string]Viewport {
	return maps.Clone(s.cfg.devices)
}
