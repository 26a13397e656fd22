package main

// Notes:
// - fakeCapturer stands in for *webshot.Service so no browser is launched.
// - runMain is tested for dispatch and exit codes; capture behavior is
//   covered in capture_test.go.

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	webshot "github.com/alnah/go-webshot"
	"github.com/alnah/go-webshot/internal/history"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake capturer
// ---------------------------------------------------------------------------

type fakeCapturer struct {
	mu       sync.Mutex
	errs     map[string]error
	requests []webshot.CaptureRequest
	batches  int
	closed   bool
}

func newFakeCapturer() *fakeCapturer {
	return &fakeCapturer{errs: make(map[string]error)}
}

func (f *fakeCapturer) Capture(_ context.Context, req webshot.CaptureRequest) (*webshot.CaptureResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if err := f.errs[req.URL]; err != nil {
		return nil, err
	}
	format := req.Format
	if format == "" {
		format = webshot.FormatPNG
	}
	return &webshot.CaptureResult{
		URL:         req.URL,
		Format:      format,
		ContentType: format.ContentType(),
		Data:        []byte("capture:" + req.URL),
		Duration:    10 * time.Millisecond,
	}, nil
}

func (f *fakeCapturer) CaptureMany(ctx context.Context, urls []string, opts webshot.CaptureOptions) (*webshot.BatchOutcome, error) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()

	out := &webshot.BatchOutcome{Count: len(urls)}
	for _, u := range urls {
		item := webshot.BatchItem{URL: u}
		res, err := f.Capture(ctx, webshot.CaptureRequest{URL: u, CaptureOptions: opts})
		if err != nil {
			item.Err, item.Error = err, err.Error()
			out.FailedCount++
		} else {
			item.Success, item.Data, item.ContentType = true, res.Data, res.ContentType
			out.SuccessCount++
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeCapturer) PoolStats() webshot.PoolStats {
	return webshot.PoolStats{Capacity: 2, Total: 2, Available: 2}
}

func (f *fakeCapturer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeCapturer) calls() []webshot.CaptureRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webshot.CaptureRequest(nil), f.requests...)
}

// testEnv wires fc into an Environment with captured output.
type testEnv struct {
	*Environment
	stdout, stderr *bytes.Buffer
	started        int
	opts           []webshot.Option
}

func newTestEnv(fc *fakeCapturer) *testEnv {
	te := &testEnv{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	te.Environment = &Environment{
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewCapturer: func(_ context.Context, opts ...webshot.Option) (Capturer, error) {
			te.started++
			te.opts = opts
			return fc, nil
		},
		OpenHistory: history.Open,
	}
	return te
}

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch
// ---------------------------------------------------------------------------

func TestRunMain_NoArgs(t *testing.T) {
	t.Parallel()

	te := newTestEnv(newFakeCapturer())
	if code := runMain([]string{"webshot"}, te.Environment); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(te.stderr.String(), "Usage: webshot") {
		t.Errorf("expected usage on stderr, got %q", te.stderr.String())
	}
}

func TestRunMain_Version(t *testing.T) {
	t.Parallel()

	te := newTestEnv(newFakeCapturer())
	if code := runMain([]string{"webshot", "version"}, te.Environment); code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
	if !strings.Contains(te.stdout.String(), "webshot "+Version) {
		t.Errorf("stdout = %q", te.stdout.String())
	}
}

func TestRunMain_Help(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"webshot", "help"}, "Commands:"},
		{[]string{"webshot", "help", "capture"}, "--full-page"},
		{[]string{"webshot", "help", "history"}, "--runs"},
		{[]string{"webshot", "--help"}, "Commands:"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(newFakeCapturer())
			if code := runMain(tt.args, te.Environment); code != ExitSuccess {
				t.Errorf("exit code = %d, want %d", code, ExitSuccess)
			}
			if !strings.Contains(te.stdout.String(), tt.want) {
				t.Errorf("help output missing %q", tt.want)
			}
		})
	}
}

func TestRunMain_ImplicitCapture(t *testing.T) {
	t.Parallel()

	fc := newFakeCapturer()
	te := newTestEnv(fc)
	dir := t.TempDir()

	code := runMain([]string{"webshot", "https://example.com", "-o", dir}, te.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, te.stderr.String())
	}
	if got := len(fc.calls()); got != 1 {
		t.Errorf("captures = %d, want 1", got)
	}
}

func TestRunMain_UnknownFlag(t *testing.T) {
	t.Parallel()

	te := newTestEnv(newFakeCapturer())
	code := runMain([]string{"webshot", "capture", "--bogus", "https://example.com"}, te.Environment)
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if te.started != 0 {
		t.Error("browser should not start on flag errors")
	}
}

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"https://example.com"}, false},
		{[]string{"-v", "https://example.com"}, true},
		{[]string{"capture", "--verbose"}, true},
		{[]string{"--version"}, false},
	}

	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
