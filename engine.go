package webshot

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/alnah/go-webshot/internal/process"
)

// RequestFilter decides whether an outgoing request is suppressed.
// *blocklist.Matcher satisfies it.
type RequestFilter interface {
	ShouldBlock(url string) bool
}

// renderEngine is the shared browser process. It hands out isolated
// render contexts.
type renderEngine interface {
	NewContext(ctx context.Context) (page, error)
	Close() error
}

// page is one isolated render context: an incognito browser context
// holding a single tab. Blocking methods take a ctx that bounds the call.
type page interface {
	// Intercept routes every request of the tab through filter until stop
	// is called. Matched requests fail with BlockedByClient.
	Intercept(filter RequestFilter) (stop func() error, err error)
	SetViewport(ctx context.Context, vp Viewport) error
	// Navigate loads url and returns once DOMContentLoaded fired.
	Navigate(ctx context.Context, url string) error
	// Eval runs a JS function expression and awaits its promise.
	Eval(ctx context.Context, js string, args ...any) (gson.JSON, error)
	Screenshot(ctx context.Context, fullPage bool, format Format, quality int) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)
	// Reset points the tab at about:blank without waiting for lifecycle
	// events, dropping the previous document before the next acquire.
	Reset(ctx context.Context) error
	Close() error
}

// Compile-time interface checks.
var (
	_ renderEngine = (*rodEngine)(nil)
	_ page         = (*rodPage)(nil)
)

// A4 page size and margins in inches for document output.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.4
)

// engineConfig holds browser launch settings.
type engineConfig struct {
	bin       string // empty = ROD_BROWSER_BIN or rod-managed Chromium
	noSandbox bool
}

// rodEngine implements renderEngine using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodEngine struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	ctx      context.Context
	cancel   context.CancelFunc
}

// launchRodEngine starts one headless Chrome process and connects to it.
func launchRodEngine(cfg engineConfig) (*rodEngine, error) {
	l := launcher.New()

	bin := cfg.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if cfg.noSandbox || bin != "" || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	browser := rod.New().ControlURL(u).NoDefaultDevice().Context(ctx)
	if err := browser.Connect(); err != nil {
		cancel()
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	return &rodEngine{launcher: l, browser: browser, ctx: ctx, cancel: cancel}, nil
}

// NewContext creates an incognito browser context with one blank tab.
// ctx bounds both CDP calls; the returned handles are rebound to the
// engine lifetime so they outlive ctx.
func (e *rodEngine) NewContext(ctx context.Context) (page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inc, err := e.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("creating incognito context: %w", err)
	}

	p, err := inc.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = inc.Context(e.ctx).Close()
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	return &rodPage{incognito: inc.Context(e.ctx), page: p.Context(e.ctx)}, nil
}

// Close shuts the browser down and reaps its process tree.
func (e *rodEngine) Close() error {
	err := e.browser.Close()
	e.cancel()

	if pid := e.launcher.PID(); pid != 0 {
		process.KillProcessGroup(pid)
	}
	e.launcher.Kill()
	e.launcher.Cleanup()

	return err
}

// rodPage implements page on one incognito tab.
type rodPage struct {
	incognito *rod.Browser
	page      *rod.Page
}

func (p *rodPage) Intercept(filter RequestFilter) (func() error, error) {
	router := p.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if filter.ShouldBlock(h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		_ = router.Stop()
		return nil, err
	}

	go router.Run()

	return router.Stop, nil
}

func (p *rodPage) SetViewport(ctx context.Context, vp Viewport) error {
	return p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: 1,
	})
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)

	wait := pg.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	wait()

	// wait returns early without error when ctx ends
	return ctx.Err()
}

func (p *rodPage) Eval(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

func (p *rodPage) Screenshot(ctx context.Context, fullPage bool, format Format, quality int) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if format == FormatJPEG {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = &quality
	}
	return p.page.Context(ctx).Screenshot(fullPage, req)
}

func (p *rodPage) PDF(ctx context.Context) ([]byte, error) {
	reader, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

func (p *rodPage) Reset(ctx context.Context) error {
	return p.page.Context(ctx).Navigate(blankURL)
}

// Close closes the tab and disposes its incognito context.
func (p *rodPage) Close() error {
	pageErr := p.page.Close()
	if err := p.incognito.Close(); err != nil {
		return err
	}
	return pageErr
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
