package webshot

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func newFastWaiter(t *testing.T) (readinessWaiter, *syncBuffer) {
	t.Helper()

	logger, logs := newTestLogger()
	w := newReadinessWaiter(20*time.Millisecond, logger)
	w.scrollInterval = 0
	w.settle = 0
	return w, logs
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

func TestNewReadinessWaiter_Defaults(t *testing.T) {
	t.Parallel()

	w := newReadinessWaiter(0, nil)

	if w.imageTimeout != DefaultImageTimeout {
		t.Errorf("imageTimeout = %v, want %v", w.imageTimeout, DefaultImageTimeout)
	}
	if w.scrollStep != 100 {
		t.Errorf("scrollStep = %d, want 100", w.scrollStep)
	}
	if w.scrollInterval != 100*time.Millisecond {
		t.Errorf("scrollInterval = %v, want 100ms", w.scrollInterval)
	}
	if w.settle != 200*time.Millisecond {
		t.Errorf("settle = %v, want 200ms", w.settle)
	}
	if w.logger == nil {
		t.Error("logger is nil")
	}
}

func TestReadiness_ViewportOnly(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)
	pg := &fakePage{scrollHeight: 1000}

	if err := w.wait(context.Background(), pg, false, 0); err != nil {
		t.Fatalf("wait() error = %v", err)
	}

	if got := pg.callLog(); !slices.Equal(got, []string{"images"}) {
		t.Errorf("calls = %v, want [images]", got)
	}
	if !slices.Equal(pg.viewportOnly, []bool{true}) {
		t.Errorf("viewportOnly = %v, want [true]", pg.viewportOnly)
	}
}

func TestReadiness_FullPageScrollsBeforeImageWait(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)
	pg := &fakePage{scrollHeight: 1000}

	if err := w.wait(context.Background(), pg, true, 0); err != nil {
		t.Fatalf("wait() error = %v", err)
	}

	calls := pg.callLog()
	if n := countCalls(calls, "scroll"); n != 10 {
		t.Errorf("scroll steps = %d, want 10 for a 1000px page", n)
	}

	tail := calls[len(calls)-2:]
	if !slices.Equal(tail, []string{"scrollTop", "images"}) {
		t.Errorf("calls end with %v, want [scrollTop images]", tail)
	}
	if !slices.Equal(pg.viewportOnly, []bool{false}) {
		t.Errorf("viewportOnly = %v, want [false] after scroll pass", pg.viewportOnly)
	}
}

func TestReadiness_ScrollIsBounded(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)
	w.maxScrollSteps = 7
	pg := &fakePage{scrollHeight: 1 << 30}

	if err := w.autoScroll(context.Background(), pg); err != nil {
		t.Fatalf("autoScroll() error = %v", err)
	}

	if n := countCalls(pg.callLog(), "scroll"); n != 7 {
		t.Errorf("scroll steps = %d, want 7", n)
	}
}

func TestReadiness_ShortPageScrollsOnce(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)
	pg := &fakePage{scrollHeight: 50}

	if err := w.autoScroll(context.Background(), pg); err != nil {
		t.Fatalf("autoScroll() error = %v", err)
	}

	if n := countCalls(pg.callLog(), "scroll"); n != 1 {
		t.Errorf("scroll steps = %d, want 1", n)
	}
}

func TestReadiness_ScrollError(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)
	pg := &fakePage{scrollErr: errors.New("execution context destroyed")}

	err := w.wait(context.Background(), pg, true, 0)
	if err == nil || !strings.Contains(err.Error(), "execution context destroyed") {
		t.Errorf("wait() error = %v, want scroll failure", err)
	}
	if n := countCalls(pg.callLog(), "images"); n != 0 {
		t.Error("image wait ran after failed scroll pass")
	}
}

func TestReadiness_PendingImagesAreLoggedNotFailed(t *testing.T) {
	t.Parallel()

	w, logs := newFastWaiter(t)
	pg := &fakePage{pendingImages: 3}

	if err := w.wait(context.Background(), pg, false, 0); err != nil {
		t.Fatalf("wait() error = %v", err)
	}
	if !containsAll(logs.String(), "image wait expired", "pending=3") {
		t.Errorf("log = %q, want image wait expiry with pending count", logs.String())
	}
}

func TestReadiness_HungImageWaitIsBounded(t *testing.T) {
	t.Parallel()

	w, logs := newFastWaiter(t)
	pg := &fakePage{
		waitImages: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}

	start := time.Now()
	if err := w.wait(context.Background(), pg, false, 0); err != nil {
		t.Fatalf("wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > w.imageTimeout+imageWaitGrace+time.Second {
		t.Errorf("wait() took %v, want bounded by image timeout plus grace", elapsed)
	}
	if !strings.Contains(logs.String(), "image wait expired") {
		t.Errorf("log = %q, want image wait expiry", logs.String())
	}
}

func TestReadiness_ImageWaitScriptError(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)
	pg := &fakePage{
		waitImages: func(context.Context) (int, error) {
			return 0, errors.New("page crashed")
		},
	}

	if err := w.wait(context.Background(), pg, false, 0); err == nil {
		t.Error("wait() error = nil, want script failure")
	}
}

func TestReadiness_Delay(t *testing.T) {
	t.Parallel()

	w, _ := newFastWaiter(t)

	t.Run("waits for the delay", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		if err := w.wait(context.Background(), &fakePage{}, false, 30*time.Millisecond); err != nil {
			t.Fatalf("wait() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("wait() returned after %v, want at least 30ms", elapsed)
		}
	})

	t.Run("cancelled during delay", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := w.wait(ctx, &fakePage{}, false, time.Minute)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("wait() error = %v, want %v", err, context.DeadlineExceeded)
		}
	})
}

func TestSleep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		d       time.Duration
		cancel  bool
		wantErr error
	}{
		{"zero returns immediately", 0, false, nil},
		{"positive completes", time.Millisecond, false, nil},
		{"cancelled context", time.Minute, true, context.Canceled},
		{"zero with cancelled context", 0, true, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			} else {
				defer cancel()
			}

			if err := sleep(ctx, tt.d); !errors.Is(err, tt.wantErr) {
				t.Errorf("sleep() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
