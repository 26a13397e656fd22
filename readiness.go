package webshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultImageTimeout bounds the in-page wait for images to settle.
const DefaultImageTimeout = 5 * time.Second

// Lazy-load scroll parameters.
const (
	scrollStepPixels = 100
	scrollInterval   = 100 * time.Millisecond
	maxScrollSteps   = 500 // stops infinite feeds
	scrollSettle     = 200 * time.Millisecond

	// imageWaitGrace lets the in-page timer fire before the Go-side bound.
	imageWaitGrace = time.Second
)

// scrollByJS scrolls down by the given step and returns the document
// height, which grows as lazy content is appended.
const scrollByJS = `(step) => {
	window.scrollBy(0, step);
	const body = document.body ? document.body.scrollHeight : 0;
	return Math.max(body, document.documentElement.scrollHeight);
}`

const scrollTopJS = `() => { window.scrollTo(0, 0); }`

// waitImagesJS resolves with the number of images still pending: 0 once
// every tracked image loaded or failed, or the remaining count when the
// timeout fires first. viewportOnly restricts tracking to images
// intersecting the visible area.
const waitImagesJS = `(viewportOnly, timeoutMs) => new Promise((resolve) => {
	const vw = window.innerWidth;
	const vh = window.innerHeight;
	const visible = (img) => {
		const r = img.getBoundingClientRect();
		return r.bottom > 0 && r.right > 0 && r.top < vh && r.left < vw;
	};
	const pending = Array.from(document.images)
		.filter((img) => !img.complete && (!viewportOnly || visible(img)));
	if (pending.length === 0) {
		resolve(0);
		return;
	}
	let left = pending.length;
	const timer = setTimeout(() => resolve(left), timeoutMs);
	const settle = () => {
		left--;
		if (left === 0) {
			clearTimeout(timer);
			resolve(0);
		}
	};
	for (const img of pending) {
		img.addEventListener("load", settle, { once: true });
		img.addEventListener("error", settle, { once: true });
	}
})`

// readinessWaiter decides when a navigated page is ready to be captured.
type readinessWaiter struct {
	imageTimeout   time.Duration
	scrollStep     int
	scrollInterval time.Duration
	maxScrollSteps int
	settle         time.Duration
	logger         *slog.Logger
}

func newReadinessWaiter(imageTimeout time.Duration, logger *slog.Logger) readinessWaiter {
	if imageTimeout <= 0 {
		imageTimeout = DefaultImageTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return readinessWaiter{
		imageTimeout:   imageTimeout,
		scrollStep:     scrollStepPixels,
		scrollInterval: scrollInterval,
		maxScrollSteps: maxScrollSteps,
		settle:         scrollSettle,
		logger:         logger,
	}
}

// wait runs the lazy-load pass (fullPage only), the image wait, then the
// explicit delay.
func (w readinessWaiter) wait(ctx context.Context, pg page, fullPage bool, delay time.Duration) error {
	if fullPage {
		if err := w.autoScroll(ctx, pg); err != nil {
			return fmt.Errorf("scrolling: %w", err)
		}
	}

	if err := w.waitImages(ctx, pg, !fullPage); err != nil {
		return fmt.Errorf("waiting for images: %w", err)
	}

	if delay > 0 {
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// autoScroll walks the page down one step at a time so lazy loaders fire,
// then returns to the top.
func (w readinessWaiter) autoScroll(ctx context.Context, pg page) error {
	distance := 0
	for step := 0; step < w.maxScrollSteps; step++ {
		height, err := pg.Eval(ctx, scrollByJS, w.scrollStep)
		if err != nil {
			return err
		}
		distance += w.scrollStep
		if distance >= height.Int() {
			break
		}
		if err := sleep(ctx, w.scrollInterval); err != nil {
			return err
		}
	}

	if _, err := pg.Eval(ctx, scrollTopJS); err != nil {
		return err
	}
	return sleep(ctx, w.settle)
}

// waitImages blocks until tracked images settle or imageTimeout passes.
// An expired wait is logged; only cancellation and script failures are
// errors.
func (w readinessWaiter) waitImages(ctx context.Context, pg page, viewportOnly bool) error {
	evalCtx, cancel := context.WithTimeout(ctx, w.imageTimeout+imageWaitGrace)
	defer cancel()

	res, err := pg.Eval(evalCtx, waitImagesJS, viewportOnly, w.imageTimeout.Milliseconds())
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn("image wait expired", "timeout", w.imageTimeout)
			return nil
		}
		return err
	}

	if pending := res.Int(); pending > 0 {
		w.logger.Warn("image wait expired", "pending", pending, "timeout", w.imageTimeout)
	}
	return nil
}

// sleep pauses for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
