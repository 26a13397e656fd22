package webshot

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Format is the kind of output a capture produces.
type Format string

// Output formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Extension returns the conventional file extension, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatPDF:
		return "pdf"
	default:
		return "png"
	}
}

// ParseFormat normalizes a user-provided format name.
// "jpg" is accepted as an alias for jpeg; empty means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q (must be png, jpeg, or pdf)", ErrInvalidFormat, s)
}

// Capture option bounds.
const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 80

	MaxDelay = 30 * time.Second

	MinViewportSize = 1
	MaxViewportSize = 16384

	// MaxBatchSize caps the URLs accepted by one CaptureMany call.
	MaxBatchSize = 20
)

// Device preset names.
const (
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
)

// Viewport is a layout rectangle in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport is used when neither a device nor a size is given.
var DefaultViewport = Viewport{Width: 1280, Height: 720}

// DefaultDevices returns a fresh copy of the built-in device presets.
func DefaultDevices() map[string]Viewport {
	return map[string]Viewport{
		DeviceDesktop: {Width: 1280, Height: 720},
		DeviceTablet:  {Width: 768, Height: 1024},
		DeviceMobile:  {Width: 375, Height: 667},
	}
}

// CaptureOptions configures how a page is captured.
// The zero value captures a 1280x720 PNG of the viewport with blocking on.
type CaptureOptions struct {
	Format  Format        // png (default), jpeg, pdf
	Quality int           // 1-100, jpeg only; 0 means DefaultQuality
	Device  string        // named preset; overrides Width/Height
	Width   int           // explicit viewport width
	Height  int           // explicit viewport height
	Delay   time.Duration // extra wait after readiness, 0-30s

	// FullPage captures the whole scrollable area and triggers a
	// lazy-load scroll pass before waiting for images.
	FullPage bool

	// DisableBlocking lets ad, consent and tracking requests through.
	DisableBlocking bool
}

// CaptureRequest is one page to capture.
type CaptureRequest struct {
	URL string
	CaptureOptions
}

// Validate checks request fields against the known presets in devices.
// A nil devices map means DefaultDevices.
func (r CaptureRequest) Validate(devices map[string]Viewport) error {
	if err := validateURL(r.URL); err != nil {
		return err
	}
	return r.CaptureOptions.Validate(devices)
}

// Validate checks option ranges. A nil devices map means DefaultDevices.
func (o CaptureOptions) Validate(devices map[string]Viewport) error {
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}

	if o.Quality != 0 && (o.Quality < MinQuality || o.Quality > MaxQuality) {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidQuality, o.Quality, MinQuality, MaxQuality)
	}

	if o.Device != "" {
		if devices == nil {
			devices = DefaultDevices()
		}
		if _, ok := devices[strings.ToLower(o.Device)]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidDevice, o.Device)
		}
	}

	if o.Width != 0 || o.Height != 0 {
		if !inRange(o.Width, MinViewportSize, MaxViewportSize) || !inRange(o.Height, MinViewportSize, MaxViewportSize) {
			return fmt.Errorf("%w: %dx%d (each side must be between %d and %d)", ErrInvalidViewport, o.Width, o.Height, MinViewportSize, MaxViewportSize)
		}
	}

	if o.Delay < 0 || o.Delay > MaxDelay {
		return fmt.Errorf("%w: %v (must be between 0 and %v)", ErrInvalidDelay, o.Delay, MaxDelay)
	}

	return nil
}

// viewport resolves the effective viewport: device preset, then explicit
// size, then DefaultViewport.
func (o CaptureOptions) viewport(devices map[string]Viewport) Viewport {
	if o.Device != "" {
		if vp, ok := devices[strings.ToLower(o.Device)]; ok {
			return vp
		}
	}
	if o.Width > 0 && o.Height > 0 {
		return Viewport{Width: o.Width, Height: o.Height}
	}
	return DefaultViewport
}

// format returns the effective format (png when unset).
func (o CaptureOptions) format() Format {
	f, err := ParseFormat(string(o.Format))
	if err != nil {
		return FormatPNG
	}
	return f
}

// quality returns the effective jpeg quality.
func (o CaptureOptions) quality() int {
	if o.Quality == 0 {
		return DefaultQuality
	}
	return o.Quality
}

// CaptureResult holds the rendered output of one capture.
type CaptureResult struct {
	URL         string
	Format      Format
	ContentType string
	Data        []byte
	Duration    time.Duration
}

// BatchItem is the outcome of one URL in a batch.
// Exactly one of Data or Err is set.
type BatchItem struct {
	URL         string
	Success     bool
	Data        []byte
	ContentType string
	Err         error
	Error       string // Err.Error(), empty on success
	Duration    time.Duration
}

// BatchOutcome aggregates a CaptureMany call. Items follow input order.
type BatchOutcome struct {
	Items           []BatchItem
	Count           int
	SuccessCount    int
	FailedCount     int
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

// PoolStats is a point-in-time snapshot of the context pool.
// Available+InUse always equals Total. Overflow contexts are not counted
// in Total.
type PoolStats struct {
	Capacity  int
	Total     int
	Available int
	InUse     int
	Overflow  int
}

// validateURL requires an absolute http(s) URL. No normalization is done.
func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q (scheme must be http or https)", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q (missing host)", ErrInvalidURL, raw)
	}
	return nil
}

// inRange reports whether min <= v <= max.
func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}
