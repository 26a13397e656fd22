package webshot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one context is available.
	MinPoolSize = 1

	// MaxPoolSize caps auto-sized pools; each context holds a live tab.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// Pool timing defaults.
const (
	DefaultMaxContextAge     = 5 * time.Minute
	DefaultAcquireRetryDelay = 100 * time.Millisecond

	contextCreateTimeout = 30 * time.Second
)

// overflowID marks a context created outside the arena.
const overflowID = -1

// poolConfig holds ContextPool settings.
type poolConfig struct {
	size       int
	maxAge     time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// pooledContext is one arena entry. Its busy state lives in the pool's
// bitmap at index id.
type pooledContext struct {
	id        int
	page      page
	createdAt time.Time
}

// ContextPool owns a fixed-size arena of render contexts sharing one
// browser process.
//
// Slots are addressed by stable IDs. A nil slot is vacant: its context was
// retired and a replacement is pending (or must be rescheduled). All
// bookkeeping happens under mu; browser I/O never does.
type ContextPool struct {
	engine renderEngine
	cfg    poolConfig

	ctx    context.Context // pool lifetime, cancelled by Close
	cancel context.CancelFunc

	mu        sync.Mutex
	slots     []*pooledContext
	busy      []bool
	replacing []bool
	overflow  int
	closed    bool

	bg sync.WaitGroup // retire/replace/destroy goroutines
}

// newContextPool creates cfg.size contexts concurrently. Any failure
// destroys what was created and returns the error: there is no partial
// startup.
func newContextPool(ctx context.Context, engine renderEngine, cfg poolConfig) (*ContextPool, error) {
	if cfg.size < MinPoolSize {
		cfg.size = MinPoolSize
	}
	if cfg.maxAge <= 0 {
		cfg.maxAge = DefaultMaxContextAge
	}
	if cfg.retryDelay <= 0 {
		cfg.retryDelay = DefaultAcquireRetryDelay
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	lifetime, cancel := context.WithCancel(context.Background())
	p := &ContextPool{
		engine:    engine,
		cfg:       cfg,
		ctx:       lifetime,
		cancel:    cancel,
		slots:     make([]*pooledContext, cfg.size),
		busy:      make([]bool, cfg.size),
		replacing: make([]bool, cfg.size),
	}

	g, gctx := errgroup.WithContext(ctx)
	for id := range p.slots {
		g.Go(func() error {
			pc, err := p.create(gctx, id)
			if err != nil {
				return err
			}
			p.slots[id] = pc // distinct index per goroutine; Wait publishes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, pc := range p.slots {
			if pc != nil {
				p.destroy(pc)
			}
		}
		cancel()
		return nil, err
	}

	cfg.logger.Debug("context pool ready", "size", cfg.size, "max_age", cfg.maxAge)
	return p, nil
}

// Acquire returns a free context and a release func bound to it.
//
// When every slot is busy it waits once for the retry delay and rescans;
// if still nothing is free it creates an overflow context outside the
// arena so the caller is never blocked indefinitely. Acquirers are not
// served in FIFO order.
//
// release must be called exactly once; extra calls are no-ops.
func (p *ContextPool) Acquire(ctx context.Context) (page, func(), error) {
	pc, err := p.claim()
	if err != nil {
		return nil, nil, err
	}

	if pc == nil {
		if err := sleep(ctx, p.cfg.retryDelay); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrAcquireContext, err)
		}
		if pc, err = p.claim(); err != nil {
			return nil, nil, err
		}
	}

	if pc != nil {
		var once sync.Once
		return pc.page, func() { once.Do(func() { p.release(pc) }) }, nil
	}

	return p.acquireOverflow(ctx)
}

// claim atomically finds a free slot and marks it busy.
// Returns nil, nil when every present slot is busy.
func (p *ContextPool) claim() (*pooledContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	p.refillLocked()

	for id, pc := range p.slots {
		if pc != nil && !p.busy[id] {
			p.busy[id] = true
			return pc, nil
		}
	}
	return nil, nil
}

// acquireOverflow creates an untracked context. It is destroyed on
// release rather than joining the arena.
func (p *ContextPool) acquireOverflow(ctx context.Context) (page, func(), error) {
	pc, err := p.create(ctx, overflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: overflow: %v", ErrAcquireContext, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.destroy(pc)
		return nil, nil, ErrPoolClosed
	}
	p.overflow++
	live := p.overflow
	p.mu.Unlock()

	p.cfg.logger.Debug("overflow context created", "overflow", live, "capacity", p.cfg.size)

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.mu.Lock()
			p.overflow--
			if p.closed {
				p.mu.Unlock()
				p.destroy(pc)
				return
			}
			p.bg.Add(1)
			p.mu.Unlock()

			go func() {
				defer p.bg.Done()
				p.destroy(pc)
			}()
		})
	}
	return pc.page, release, nil
}

// release frees a tracked slot, or retires it when older than maxAge.
// Retirement and replacement run in the background.
func (p *ContextPool) release(pc *pooledContext) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		// Close already destroyed every tracked context.
		return
	}

	p.busy[pc.id] = false

	if age := p.cfg.now().Sub(pc.createdAt); age > p.cfg.maxAge {
		p.slots[pc.id] = nil
		p.cfg.logger.Debug("retiring render context", "slot", pc.id, "age", age.Round(time.Second))

		p.bg.Add(1)
		go func() {
			defer p.bg.Done()
			p.destroy(pc)
		}()

		p.scheduleReplaceLocked(pc.id)
	}
}

// refillLocked reschedules replacements for vacant slots whose previous
// replacement attempt failed.
func (p *ContextPool) refillLocked() {
	for id, pc := range p.slots {
		if pc == nil && !p.replacing[id] {
			p.scheduleReplaceLocked(id)
		}
	}
}

// scheduleReplaceLocked starts a background creation for slot id.
func (p *ContextPool) scheduleReplaceLocked(id int) {
	p.replacing[id] = true
	p.bg.Add(1)

	go func() {
		defer p.bg.Done()

		pc, err := p.create(p.ctx, id)

		p.mu.Lock()
		p.replacing[id] = false
		if err != nil {
			p.mu.Unlock()
			if p.ctx.Err() == nil {
				p.cfg.logger.Warn("replacing render context", "slot", id, "error", err)
			}
			return
		}
		if p.closed {
			p.mu.Unlock()
			p.destroy(pc)
			return
		}
		p.slots[id] = pc
		p.busy[id] = false
		p.mu.Unlock()
	}()
}

// Stats returns a snapshot of slot usage.
func (p *ContextPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := PoolStats{Capacity: p.cfg.size, Overflow: p.overflow}
	for id, pc := range p.slots {
		if pc == nil {
			continue
		}
		s.Total++
		if p.busy[id] {
			s.InUse++
		}
	}
	s.Available = s.Total - s.InUse
	return s
}

// Size returns the configured capacity.
func (p *ContextPool) Size() int {
	return p.cfg.size
}

// Close destroys every tracked context, including ones still in use, and
// waits for background work. Destruction errors are logged, never
// returned. The engine itself is closed by the owner.
func (p *ContextPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true

	tracked := make([]*pooledContext, 0, len(p.slots))
	for id, pc := range p.slots {
		if pc != nil {
			tracked = append(tracked, pc)
		}
		p.slots[id] = nil
		p.busy[id] = false
	}
	p.mu.Unlock()

	p.cancel()

	for _, pc := range tracked {
		p.destroy(pc)
	}
	p.bg.Wait()
}

// create asks the engine for a new context bounded by contextCreateTimeout.
func (p *ContextPool) create(ctx context.Context, id int) (*pooledContext, error) {
	ctx, cancel := context.WithTimeout(ctx, contextCreateTimeout)
	defer cancel()

	pg, err := p.engine.NewContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContextCreate, err)
	}
	return &pooledContext{id: id, page: pg, createdAt: p.cfg.now()}, nil
}

// destroy closes a context, logging failures.
func (p *ContextPool) destroy(pc *pooledContext) {
	if err := pc.page.Close(); err != nil {
		p.cfg.logger.Warn("destroying render context", "slot", pc.id, "error", err)
	}
}

// ResolvePoolSize determines the pool size.
// Priority: explicit value > GOMAXPROCS-based calculation.
func ResolvePoolSize(n int) int {
	if n > 0 {
		return n
	}

	// GOMAXPROCS is container-aware when automaxprocs is loaded
	available := runtime.GOMAXPROCS(0)
	n = available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
