package webshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// DefaultNavigationTimeout bounds navigation up to DOMContentLoaded.
const DefaultNavigationTimeout = 30 * time.Second

const (
	blankURL     = "about:blank"
	resetTimeout = 5 * time.Second
)

// capturer runs one capture on a pooled context.
type capturer struct {
	pool       *ContextPool
	filter     RequestFilter // nil disables interception entirely
	devices    map[string]Viewport
	navTimeout time.Duration
	ready      readinessWaiter
	logger     *slog.Logger
	now        func() time.Time
}

// capture renders req.URL and returns the encoded output.
// The context is released on every path, including panics.
func (c *capturer) capture(ctx context.Context, req CaptureRequest) (res *CaptureResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := c.now()

	pg, release, err := c.pool.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, ErrAcquireContext) {
			err = fmt.Errorf("%w: %w", ErrAcquireContext, err)
		}
		return nil, err
	}

	var stop func() error
	defer func() {
		if stop != nil {
			if err := stop(); err != nil {
				c.logger.Warn("removing request filter", "url", req.URL, "error", err)
			}
		}
		c.reset(ctx, pg)
		release()
	}()

	if c.filter != nil && !req.DisableBlocking {
		stop, err = pg.Intercept(subresourceFilter{target: req.URL, next: c.filter})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIntercept, err)
		}
	}

	if err := pg.SetViewport(ctx, req.viewport(c.devices)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrViewport, err)
	}

	if err := c.navigate(ctx, pg, req.URL); err != nil {
		return nil, err
	}

	if err := c.ready.wait(ctx, pg, req.FullPage, req.Delay); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadiness, err)
	}

	format := req.format()
	var data []byte
	if format == FormatPDF {
		data, err = pg.PDF(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
		}
	} else {
		data, err = pg.Screenshot(ctx, req.FullPage, format, req.quality())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
		}
	}

	elapsed := c.now().Sub(start)
	c.logger.Debug("captured", "url", req.URL, "format", format, "bytes", len(data), "duration", elapsed)

	return &CaptureResult{
		URL:         req.URL,
		Format:      format,
		ContentType: format.ContentType(),
		Data:        data,
		Duration:    elapsed,
	}, nil
}

// navigate loads target, separating the navigation timeout from other
// failures. Caller cancellation is reported as a navigation error.
func (c *capturer) navigate(ctx context.Context, pg page, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, c.navTimeout)
	defer cancel()

	err := pg.Navigate(navCtx, target)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %v", ErrNavigationTimeout, target, c.navTimeout)
	}
	return fmt.Errorf("%w: %s: %v", ErrNavigation, target, err)
}

// reset blanks the tab so the next holder starts clean. It runs even when
// the caller's context is already done.
func (c *capturer) reset(ctx context.Context, pg page) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetTimeout)
	defer cancel()

	if err := pg.Reset(ctx); err != nil {
		c.logger.Warn("resetting render context", "error", err)
	}
}

// subresourceFilter never blocks the document being captured, even when
// it matches a pattern.
type subresourceFilter struct {
	target string
	next   RequestFilter
}

func (f subresourceFilter) ShouldBlock(u string) bool {
	if sameDocument(u, f.target) {
		return false
	}
	return f.next.ShouldBlock(u)
}

// sameDocument compares URLs ignoring the fragment and the trailing slash
// Chrome adds to an empty path.
func sameDocument(a, b string) bool {
	return documentKey(a) == documentKey(b)
}

func documentKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}
