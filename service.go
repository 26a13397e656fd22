package webshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/alnah/go-webshot/internal/blocklist"
)

// Service captures web pages on a pool of render contexts sharing one
// headless Chrome. Create with NewService, use Capture or CaptureMany, and
// Close when done. Safe for concurrent use.
type Service struct {
	cfg     serviceConfig
	engine  renderEngine
	pool    *ContextPool
	capture *capturer

	closeOnce sync.Once
	closeErr  error
}

// NewService launches the browser and fills the context pool.
// ctx bounds startup only. Any failure tears down what was started.
func NewService(ctx context.Context, opts ...Option) (*Service, error) {
	s := &Service{cfg: defaultServiceConfig()}
	for _, opt := range opts {
		opt(s)
	}

	if !s.cfg.filterSet {
		m, err := blocklist.Default()
		if err != nil {
			return nil, fmt.Errorf("compiling blocklist: %w", err)
		}
		s.cfg.filter = m
	}

	s.engine = s.cfg.engine
	if s.engine == nil {
		e, err := launchRodEngine(engineConfig{bin: s.cfg.browserBin, noSandbox: s.cfg.noSandbox})
		if err != nil {
			return nil, err
		}
		s.engine = e
	}

	pool, err := newContextPool(ctx, s.engine, poolConfig{
		size:       ResolvePoolSize(s.cfg.poolSize),
		maxAge:     s.cfg.maxAge,
		retryDelay: s.cfg.retryDelay,
		logger:     s.cfg.logger,
		now:        s.cfg.now,
	})
	if err != nil {
		if cerr := s.engine.Close(); cerr != nil {
			s.cfg.logger.Warn("closing browser", "error", cerr)
		}
		return nil, err
	}
	s.pool = pool

	s.capture = &capturer{
		pool:       pool,
		filter:     s.cfg.filter,
		devices:    s.cfg.devices,
		navTimeout: s.cfg.navTimeout,
		ready:      newReadinessWaiter(s.cfg.imageTimeout, s.cfg.logger),
		logger:     s.cfg.logger,
		now:        s.cfg.now,
	}

	return s, nil
}

// Capture renders one page. The context bounds the whole capture; the
// navigation step is additionally bounded by the navigation timeout.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	if err := req.Validate(s.cfg.devices); err != nil {
		return nil, err
	}
	return s.capture.capture(ctx, req)
}

// PoolStats returns a snapshot of pool usage.
func (s *Service) PoolStats() PoolStats {
	return s.pool.Stats()
}

// Close destroys every render context and shuts the browser down.
// Safe to call more than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.pool.Close()
		if err := s.engine.Close(); err != nil {
			s.closeErr = fmt.Errorf("%w: %v", ErrBrowserClose, err)
		}
	})
	return s.closeErr
}
