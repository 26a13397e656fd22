package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds per-capture rendering flags.
type renderFlags struct {
	format   string
	quality  int
	device   string
	width    int
	height   int
	delay    string
	fullPage bool
	noBlock  bool
}

// browserFlags holds pool and browser launch flags.
type browserFlags struct {
	poolSize   int
	navTimeout string
	bin        string
	noSandbox  bool
}

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	common  commonFlags
	output  string
	render  renderFlags
	browser browserFlags
	history bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show timing and browser activity")
}

// addRenderFlags adds capture option flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "output format: png, jpeg, pdf")
	fs.IntVar(&f.quality, "quality", 0, "jpeg quality (1-100)")
	fs.StringVarP(&f.device, "device", "d", "", "viewport preset: desktop, tablet, mobile")
	fs.IntVar(&f.width, "width", 0, "viewport width in CSS pixels")
	fs.IntVar(&f.height, "height", 0, "viewport height in CSS pixels")
	fs.StringVar(&f.delay, "delay", "", "extra wait before capture (e.g., 500ms, 2s)")
	fs.BoolVar(&f.fullPage, "full-page", false, "capture the whole scrollable page")
	fs.BoolVar(&f.noBlock, "no-block", false, "allow ads, trackers and consent widgets")
}

// addBrowserFlags adds pool and browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.IntVarP(&f.poolSize, "pool-size", "w", 0, "render contexts (0 = auto)")
	fs.StringVar(&f.navTimeout, "nav-timeout", "", "navigation timeout (e.g., 30s, 1m)")
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome/Chromium executable")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
}

// newCaptureFlagSet builds the capture FlagSet bound to f.
func newCaptureFlagSet(f *captureFlags, usage io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.SetOutput(usage)

	fs.StringVarP(&f.output, "output", "o", "", "output file (single URL) or directory")
	fs.BoolVar(&f.history, "history", false, "record this run in the history database")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addBrowserFlags(fs, &f.browser)

	fs.Usage = func() { printCaptureUsage(usage) }
	return fs
}

// parseCaptureFlags parses capture command flags and returns the URLs.
func parseCaptureFlags(args []string, usage io.Writer) (*captureFlags, []string, error) {
	f := &captureFlags{}
	fs := newCaptureFlagSet(f, usage)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
