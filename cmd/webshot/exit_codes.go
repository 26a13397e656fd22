package main

import (
	"errors"
	"os"

	webshot "github.com/alnah/go-webshot"
	"github.com/alnah/go-webshot/internal/config"
	flag "github.com/spf13/pflag"
)

// Exit codes for the webshot CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All captures succeeded
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Output not writable, permission denied
	ExitBrowser = 4 // Browser launch or capture pipeline errors
	ExitPartial = 5 // Some URLs in a batch failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Partial batch failure (exit 5); checked first since it summarizes items
	if errors.Is(err, ErrPartialFailure) {
		return ExitPartial
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, ErrNoURLs) ||
		errors.Is(err, ErrInvalidFlag) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, webshot.ErrInvalidURL) ||
		errors.Is(err, webshot.ErrInvalidFormat) ||
		errors.Is(err, webshot.ErrInvalidQuality) ||
		errors.Is(err, webshot.ErrInvalidDevice) ||
		errors.Is(err, webshot.ErrInvalidViewport) ||
		errors.Is(err, webshot.ErrInvalidDelay) ||
		errors.Is(err, webshot.ErrEmptyBatch) ||
		errors.Is(err, webshot.ErrBatchTooLarge) {
		return ExitUsage
	}

	// Browser errors (exit 4)
	if errors.Is(err, webshot.ErrBrowserConnect) ||
		errors.Is(err, webshot.ErrContextCreate) ||
		errors.Is(err, webshot.ErrAcquireContext) ||
		errors.Is(err, webshot.ErrPoolClosed) ||
		errors.Is(err, webshot.ErrIntercept) ||
		errors.Is(err, webshot.ErrViewport) ||
		errors.Is(err, webshot.ErrNavigation) ||
		errors.Is(err, webshot.ErrNavigationTimeout) ||
		errors.Is(err, webshot.ErrReadiness) ||
		errors.Is(err, webshot.ErrScreenshot) ||
		errors.Is(err, webshot.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrHistory) {
		return ExitIO
	}

	return ExitGeneral
}
