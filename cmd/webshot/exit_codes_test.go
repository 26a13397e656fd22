package main

// Notes:
// - exitCodeFor: every sentinel the CLI can surface is mapped, plus wrapped
//   errors to verify the errors.Is() chain.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	webshot "github.com/alnah/go-webshot"
	"github.com/alnah/go-webshot/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Partial batch failure (exit 5)
		{"partial failure", ErrPartialFailure, ExitPartial},
		{"wrapped partial", fmt.Errorf("%w: 1 of 3", ErrPartialFailure), ExitPartial},

		// Browser errors (exit 4)
		{"browser connect", webshot.ErrBrowserConnect, ExitBrowser},
		{"context create", webshot.ErrContextCreate, ExitBrowser},
		{"acquire context", webshot.ErrAcquireContext, ExitBrowser},
		{"navigation", webshot.ErrNavigation, ExitBrowser},
		{"navigation timeout", webshot.ErrNavigationTimeout, ExitBrowser},
		{"readiness", webshot.ErrReadiness, ExitBrowser},
		{"screenshot", webshot.ErrScreenshot, ExitBrowser},
		{"pdf generation", webshot.ErrPDFGeneration, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("starting browser: %w", webshot.ErrBrowserConnect), ExitBrowser},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"history", ErrHistory, ExitIO},

		// Usage/config/validation errors (exit 2)
		{"no urls", ErrNoURLs, ExitUsage},
		{"invalid flag", ErrInvalidFlag, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"invalid url", webshot.ErrInvalidURL, ExitUsage},
		{"invalid device", webshot.ErrInvalidDevice, ExitUsage},
		{"batch too large", webshot.ErrBatchTooLarge, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading config: %w", config.ErrConfigParse), ExitUsage},

		// General errors (exit 1)
		{"unknown error", errors.New("something unexpected"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("Unix conventions broken: %d/%d/%d", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitBrowser, ExitPartial} {
		if code >= 126 {
			t.Errorf("exit code %d should be < 126", code)
		}
	}
}
