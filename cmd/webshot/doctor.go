package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	webshot "github.com/alnah/go-webshot"
	"github.com/alnah/go-webshot/internal/blocklist"
	"github.com/alnah/go-webshot/internal/fileutil"
	"github.com/alnah/go-webshot/internal/hints"
	"github.com/alnah/go-webshot/internal/history"
)

// launchProbeTimeout bounds `doctor --launch`, which may download Chromium.
const launchProbeTimeout = 2 * time.Minute

type level string

const (
	levelOK    level = "ok"
	levelWarn  level = "warn"
	levelError level = "error"
)

type doctorItem struct {
	Level level  `json:"level"`
	Text  string `json:"text"`
}

type doctorSection struct {
	Name  string       `json:"name"`
	Items []doctorItem `json:"items"`
}

// doctorReport collects findings grouped by section, in check order.
type doctorReport struct {
	Status   string          `json:"status"` // "ready", "warnings", "errors"
	Platform string          `json:"platform"`
	CPUs     int             `json:"cpus"`
	Sections []doctorSection `json:"sections"`

	launchFailed bool
}

func (r *doctorReport) add(section string, lv level, format string, args ...any) {
	item := doctorItem{Level: lv, Text: fmt.Sprintf(format, args...)}
	for i := range r.Sections {
		if r.Sections[i].Name == section {
			r.Sections[i].Items = append(r.Sections[i].Items, item)
			return
		}
	}
	r.Sections = append(r.Sections, doctorSection{Name: section, Items: []doctorItem{item}})
}

func (r *doctorReport) count(lv level) int {
	n := 0
	for _, s := range r.Sections {
		for _, it := range s.Items {
			if it.Level == lv {
				n++
			}
		}
	}
	return n
}

func (r *doctorReport) finish() {
	switch {
	case r.count(levelError) > 0:
		r.Status = "errors"
	case r.count(levelWarn) > 0:
		r.Status = "warnings"
	default:
		r.Status = "ready"
	}
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	json   bool
	launch bool
}

// runDoctorCmd checks the capture setup and returns an exit code:
// 0 when ready (warnings included), 1 on errors, 4 when --launch could
// not start the browser.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	f := &doctorFlags{}
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.BoolVar(&f.json, "json", false, "output JSON")
	fs.BoolVar(&f.launch, "launch", false, "start a one-context pool to verify the browser")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return report(env.Stderr, fmt.Errorf("%w: %v", ErrInvalidFlag, err))
	}

	r := &doctorReport{
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		CPUs:     runtime.GOMAXPROCS(0),
	}
	checkBrowser(r)
	checkSandbox(r)
	checkBlocklist(r)
	checkStorage(r)
	if f.launch {
		checkLaunch(ctx, r, env)
	}
	r.finish()

	if f.json {
		_ = writeJSON(env.Stdout, r)
	} else {
		printDoctorReport(env.Stdout, r)
	}

	switch {
	case r.launchFailed:
		return ExitBrowser
	case r.Status == "errors":
		return ExitGeneral
	default:
		return ExitSuccess
	}
}

// checkBrowser locates Chrome. A missing browser is only a warning since
// rod downloads Chromium on first launch.
func checkBrowser(r *doctorReport) {
	const section = "Browser"

	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin == "" {
		var found bool
		if bin, found = launcher.LookPath(); !found {
			r.add(section, levelWarn, "Chrome/Chromium not found; it will be downloaded on first capture (or set ROD_BROWSER_BIN)")
			return
		}
	}
	if !fileutil.FileExists(bin) {
		r.add(section, levelError, "no browser executable at %s", bin)
		return
	}
	r.add(section, levelOK, "found %s", bin)

	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- path comes from launcher or ROD_BROWSER_BIN
	if err != nil {
		r.add(section, levelWarn, "could not read version: %v", err)
		return
	}
	r.add(section, levelOK, "%s", strings.TrimSpace(string(out)))
}

// checkSandbox warns when Chrome's sandbox is likely to fail to start.
func checkSandbox(r *doctorReport) {
	const section = "Sandbox"

	noSandbox := os.Getenv("ROD_NO_SANDBOX") == "1"
	container, signal := detectContainer()
	ci := hints.InCI()

	if container {
		r.add(section, levelOK, "container detected (%s)", signal)
	}
	if ci != "" {
		r.add(section, levelOK, "CI detected (%s)", ci)
	}

	switch {
	case noSandbox:
		r.add(section, levelOK, "sandbox disabled (ROD_NO_SANDBOX=1)")
	case container || ci != "":
		r.add(section, levelWarn, "sandbox enabled inside a container or CI; set ROD_NO_SANDBOX=1 or pass --no-sandbox")
	default:
		r.add(section, levelOK, "sandbox enabled")
	}
}

// detectContainer reports the first container signal found.
func detectContainer() (bool, string) {
	switch {
	case os.Getenv("WEBSHOT_CONTAINER") == "1":
		return true, "WEBSHOT_CONTAINER=1"
	case fileutil.FileExists("/.dockerenv"):
		return true, "/.dockerenv"
	case os.Getenv("container") != "":
		return true, "container=" + os.Getenv("container")
	case os.Getenv("KUBERNETES_SERVICE_HOST") != "":
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

func checkBlocklist(r *doctorReport) {
	m, err := blocklist.Default()
	if err != nil {
		r.add("Blocklist", levelError, "built-in patterns do not compile: %v", err)
		return
	}
	r.add("Blocklist", levelOK, "%d built-in patterns", m.Len())
}

// checkStorage probes the temp dir and the default history database.
func checkStorage(r *doctorReport) {
	const section = "Storage"

	tmp, err := os.CreateTemp("", "webshot-doctor-*")
	if err != nil {
		r.add(section, levelError, "temp directory %s not writable", os.TempDir())
	} else {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		r.add(section, levelOK, "temp directory writable")
	}

	path, err := history.DefaultPath()
	if err != nil {
		r.add(section, levelWarn, "no history location: %v", err)
		return
	}
	store, err := history.Open(path)
	if err != nil {
		r.add(section, levelWarn, "history database unavailable: %v", err)
		return
	}
	_ = store.Close()
	r.add(section, levelOK, "history at %s", path)
}

// checkLaunch starts a one-context pool through the environment's
// capturer factory and shuts it down again.
func checkLaunch(ctx context.Context, r *doctorReport, env *Environment) {
	const section = "Launch"

	ctx, cancel := context.WithTimeout(ctx, launchProbeTimeout)
	defer cancel()

	start := time.Now()
	svc, err := env.NewCapturer(ctx,
		webshot.WithPoolSize(1),
		webshot.WithNoSandbox(os.Getenv("ROD_NO_SANDBOX") == "1"),
	)
	if err != nil {
		r.launchFailed = true
		r.add(section, levelError, "browser did not start: %v", err)
		return
	}
	stats := svc.PoolStats()
	r.add(section, levelOK, "pool ready in %v (%d/%d contexts available)",
		time.Since(start).Round(time.Millisecond), stats.Available, stats.Total)

	if err := svc.Close(); err != nil {
		r.add(section, levelWarn, "shutdown: %v", err)
	}
}

func printDoctorReport(w io.Writer, r *doctorReport) {
	fmt.Fprintf(w, "webshot doctor (%s, %d CPUs)\n\n", r.Platform, r.CPUs)

	for _, s := range r.Sections {
		fmt.Fprintln(w, s.Name)
		for _, it := range s.Items {
			fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(string(it.Level)), it.Text)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to capture")
	case "warnings":
		fmt.Fprintf(w, "Status: Ready with %d warning(s)\n", r.count(levelWarn))
	case "errors":
		fmt.Fprintf(w, "Status: Not ready (%d error(s))\n", r.count(levelError))
	}
}
