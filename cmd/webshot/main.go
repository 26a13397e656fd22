package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()

	// Configure GOMAXPROCS before the pool size is derived from it.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if hasVerboseFlag(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	os.Exit(runMain(os.Args, env))
}

// runMain dispatches to a command and returns the process exit code.
// A first argument that is not a known command is treated as a URL,
// so `webshot https://example.com` is shorthand for `webshot capture ...`.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]

	ctx, stop := notifyContext(context.Background())
	defer stop()

	switch cmd {
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "webshot %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "history":
		return report(env.Stderr, runHistoryCmd(ctx, rest, env))
	case "config":
		return report(env.Stderr, runConfigCmd(rest, env))
	case "capture":
		// explicit form
	default:
		rest = args[1:]
	}

	return report(env.Stderr, runCapture(ctx, rest, env))
}

// report prints err and maps it to an exit code.
func report(w io.Writer, err error) int {
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return exitCodeFor(err)
}

// hasVerboseFlag scans raw arguments before flag parsing.
func hasVerboseFlag(args []string) bool {
	return slices.Contains(args, "-v") || slices.Contains(args, "--verbose")
}
