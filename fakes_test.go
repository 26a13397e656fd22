package webshot

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ysmood/gson"
)

// Compile-time interface checks.
var (
	_ renderEngine = (*fakeEngine)(nil)
	_ page         = (*fakePage)(nil)
)

// fakeEngine implements renderEngine and hands out fakePages.
type fakeEngine struct {
	mu sync.Mutex

	// failFrom makes NewContext fail once this many contexts exist
	// (0 = never fail).
	failFrom int
	err      error
	// configure customizes each new page before it is returned.
	configure func(*fakePage)

	pages  []*fakePage
	closed int
}

func (e *fakeEngine) NewContext(ctx context.Context) (page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return nil, e.err
	}
	if e.failFrom > 0 && len(e.pages) >= e.failFrom {
		return nil, errors.New("target crashed")
	}

	p := &fakePage{scrollHeight: 300}
	if e.configure != nil {
		e.configure(p)
	}
	e.pages = append(e.pages, p)
	return p, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

func (e *fakeEngine) setErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *fakeEngine) created() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pages)
}

func (e *fakeEngine) closedPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, p := range e.pages {
		if p.isClosed() {
			n++
		}
	}
	return n
}

// fakePage implements page, recording every call.
type fakePage struct {
	mu sync.Mutex

	calls        []string
	filter       RequestFilter
	stopped      bool
	viewport     Viewport
	navigatedTo  string
	quality      int
	viewportOnly []bool
	resetCtxErr  error
	closed       bool

	scrollHeight  int
	pendingImages int

	// navigate overrides the default Navigate behavior.
	navigate func(ctx context.Context, url string) error
	// waitImages overrides the image wait result.
	waitImages func(ctx context.Context) (int, error)

	interceptErr  error
	viewportErr   error
	scrollErr     error
	screenshotErr error
	pdfErr        error
	resetErr      error
	panicOnShot   bool
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Intercept(filter RequestFilter) (func() error, error) {
	p.record("intercept")
	if p.interceptErr != nil {
		return nil, p.interceptErr
	}
	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()
	return func() error {
		p.record("stop")
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		return nil
	}, nil
}

func (p *fakePage) SetViewport(ctx context.Context, vp Viewport) error {
	p.record("viewport")
	if p.viewportErr != nil {
		return p.viewportErr
	}
	p.mu.Lock()
	p.viewport = vp
	p.mu.Unlock()
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.record("navigate")
	p.mu.Lock()
	p.navigatedTo = url
	p.mu.Unlock()
	if p.navigate != nil {
		return p.navigate(ctx, url)
	}
	return ctx.Err()
}

func (p *fakePage) Eval(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	switch js {
	case scrollByJS:
		p.record("scroll")
		if p.scrollErr != nil {
			return gson.JSON{}, p.scrollErr
		}
		return gson.New(p.scrollHeight), nil

	case scrollTopJS:
		p.record("scrollTop")
		return gson.New(nil), nil

	case waitImagesJS:
		p.record("images")
		p.mu.Lock()
		p.viewportOnly = append(p.viewportOnly, args[0].(bool))
		p.mu.Unlock()
		if p.waitImages != nil {
			n, err := p.waitImages(ctx)
			return gson.New(n), err
		}
		return gson.New(p.pendingImages), nil
	}
	return gson.JSON{}, errors.New("unexpected script")
}

func (p *fakePage) Screenshot(ctx context.Context, fullPage bool, format Format, quality int) ([]byte, error) {
	p.record("screenshot")
	if p.panicOnShot {
		panic("renderer exploded")
	}
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	p.mu.Lock()
	p.quality = quality
	p.mu.Unlock()
	if format == FormatJPEG {
		return []byte("\xff\xd8\xff jpeg"), nil
	}
	return []byte("\x89PNG fake"), nil
}

func (p *fakePage) PDF(ctx context.Context) ([]byte, error) {
	p.record("pdf")
	if p.pdfErr != nil {
		return nil, p.pdfErr
	}
	return []byte("%PDF-1.4 fake"), nil
}

func (p *fakePage) Reset(ctx context.Context) error {
	p.record("reset")
	p.mu.Lock()
	p.resetCtxErr = ctx.Err()
	p.mu.Unlock()
	return p.resetErr
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePage) callLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// newTestService builds a Service on a fake engine with fast timings.
func newTestService(t testing.TB, engine *fakeEngine, opts ...Option) *Service {
	t.Helper()

	base := []Option{
		withEngine(engine),
		WithPoolSize(2),
		WithAcquireRetryDelay(time.Millisecond),
		WithImageTimeout(50 * time.Millisecond),
	}
	svc, err := NewService(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	svc.capture.ready.scrollInterval = 0
	svc.capture.ready.settle = 0
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}
