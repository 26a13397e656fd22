// Package hints builds short, actionable suffixes for capture errors.
// Every hint renders as "\n  hint: <text>" so it can be appended to an
// error message as is.
package hints

import (
	"net/url"
	"os"
	"strings"

	"github.com/alnah/go-webshot/internal/fileutil"
)

const prefix = "\n  hint: "

// CIVariables are environment variables whose presence means a CI runner.
var CIVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// IsInContainer reports whether Docker's /.dockerenv marker is present.
// Tests replace it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI returns the first CI variable set, or "".
func InCI() string {
	for _, v := range CIVariables {
		if os.Getenv(v) != "" {
			return v
		}
	}
	return ""
}

// ForBrowserConnect suggests fixes for a browser that failed to launch.
func ForBrowserConnect() string {
	var tips []string
	if os.Getenv("ROD_NO_SANDBOX") != "1" && (InCI() != "" || IsInContainer()) {
		tips = append(tips, "set ROD_NO_SANDBOX=1 or pass --no-sandbox for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		tips = append(tips, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	tips = append(tips, "run `webshot doctor --launch` to test the browser")
	return join(tips...)
}

// ForNavigationTimeout suggests raising the navigation bound for slow sites.
func ForNavigationTimeout() string {
	return join("slow sites may need a longer --nav-timeout")
}

// ForNavigation returns a hint for a page that failed to load.
func ForNavigation(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		switch h := u.Hostname(); {
		case h == "localhost", h == "::1", strings.HasPrefix(h, "127."):
			return join("the browser resolves localhost inside its own network namespace")
		}
	}
	return join("check the URL opens in a regular browser")
}

// ForConfigNotFound points at --config, or at the user config location
// among searched when there is one.
func ForConfigNotFound(searched []string) string {
	tip := "use --config /path/to/file.yaml"
	for _, p := range searched {
		if strings.Contains(p, "go-webshot") {
			return join(tip + " or create " + p)
		}
	}
	return join(tip)
}

// ForOutputDirectory is appended when the output directory cannot be created.
func ForOutputDirectory() string {
	return join("check parent directory exists and is writable")
}

// ForDevice lists the known presets after an unknown device name.
func ForDevice(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return join("available: " + strings.Join(available, ", "))
}

func join(tips ...string) string {
	if len(tips) == 0 {
		return ""
	}
	return prefix + strings.Join(tips, "; ")
}
