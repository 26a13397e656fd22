package webshot

import "errors"

// Sentinel errors for library operations.
var (
	// Startup errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrContextCreate  = errors.New("failed to create render context")
	ErrBrowserClose   = errors.New("failed to close browser")

	// Pool errors.
	ErrPoolClosed     = errors.New("context pool is closed")
	ErrAcquireContext = errors.New("failed to acquire render context")

	// Per-capture errors.
	ErrIntercept         = errors.New("failed to install request filter")
	ErrViewport          = errors.New("failed to set viewport")
	ErrNavigation        = errors.New("navigation failed")
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrReadiness         = errors.New("page readiness check failed")
	ErrScreenshot        = errors.New("screenshot capture failed")
	ErrPDFGeneration     = errors.New("PDF generation failed")

	// Batch errors.
	ErrEmptyBatch    = errors.New("batch contains no URLs")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")

	// Request validation errors.
	ErrInvalidURL      = errors.New("invalid URL")
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrInvalidQuality  = errors.New("invalid image quality")
	ErrInvalidDevice   = errors.New("unknown device preset")
	ErrInvalidViewport = errors.New("invalid viewport size")
	ErrInvalidDelay    = errors.New("invalid delay")
)
