package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: webshot [capture] [flags] <url>...")
	fmt.Fprintln(w, "       webshot <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  capture    Capture web pages as PNG, JPEG or PDF (default)")
	fmt.Fprintln(w, "  doctor     Check browser and system setup")
	fmt.Fprintln(w, "  history    Show recorded capture runs")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'webshot help <command>' for details on a specific command.")
}

// printCaptureUsage prints usage for the capture command.
func printCaptureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: webshot capture <url>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render pages in headless Chrome and write one file per URL (max 20).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (one URL) or directory")
	fmt.Fprintln(w, "  -f, --format <s>          Format: png, jpeg, pdf")
	fmt.Fprintln(w, "      --quality <n>         JPEG quality (1-100)")
	fmt.Fprintln(w, "      --history             Record the run in the history database")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Viewport:")
	fmt.Fprintln(w, "  -d, --device <s>          Preset: desktop, tablet, mobile")
	fmt.Fprintln(w, "      --width <n>           Viewport width in CSS pixels")
	fmt.Fprintln(w, "      --height <n>          Viewport height in CSS pixels")
	fmt.Fprintln(w, "      --full-page           Capture the whole scrollable page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Loading:")
	fmt.Fprintln(w, "      --delay <d>           Extra wait before capture (max 30s)")
	fmt.Fprintln(w, "      --nav-timeout <d>     Navigation timeout (default 30s)")
	fmt.Fprintln(w, "      --no-block            Allow ads, trackers and consent widgets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "  -w, --pool-size <n>       Render contexts (0 = auto)")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium executable")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show timing and browser activity")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 error, 2 usage, 3 I/O, 4 browser, 5 some URLs failed.")
}

// printHistoryUsage prints usage for the history command.
func printHistoryUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: webshot history [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show captures recorded with --history or history.enabled.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -n, --limit <n>           Rows to show (default 20)")
	fmt.Fprintln(w, "      --runs                Summarize per run")
	fmt.Fprintln(w, "      --path <path>         History database path")
	fmt.Fprintln(w, "      --json                Output JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "capture":
		printCaptureUsage(env.Stdout)
	case "history":
		printHistoryUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: webshot doctor [--json] [--launch]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, sandbox and storage setup. --launch also starts")
		fmt.Fprintln(env.Stdout, "a one-context pool to prove the browser runs.")
	case "config":
		fmt.Fprintln(env.Stdout, "Usage: webshot config [capture flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the configuration a capture would use after merging")
		fmt.Fprintln(env.Stdout, "the config file, WEBSHOT_* environment variables and flags.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: webshot version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: webshot help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
