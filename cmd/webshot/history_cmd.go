package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-webshot/internal/history"
)

// historyFlags holds flags for the history command.
type historyFlags struct {
	path  string
	limit int
	runs  bool
	json  bool
}

// runHistoryCmd lists recent captures or runs from the history database.
func runHistoryCmd(ctx context.Context, args []string, env *Environment) error {
	f := &historyFlags{}
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.StringVar(&f.path, "path", "", "history database path")
	fs.IntVarP(&f.limit, "limit", "n", history.DefaultLimit, "rows to show")
	fs.BoolVar(&f.runs, "runs", false, "summarize per run instead of per URL")
	fs.BoolVar(&f.json, "json", false, "output JSON")
	fs.Usage = func() { printHistoryUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}

	path, err := historyPath(f.path)
	if err != nil {
		return err
	}
	store, err := env.OpenHistory(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHistory, err)
	}
	defer store.Close()

	if f.runs {
		runs, err := store.Runs(ctx, f.limit)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrHistory, err)
		}
		if f.json {
			return writeJSON(env.Stdout, runs)
		}
		printRuns(env.Stdout, runs)
		return nil
	}

	entries, err := store.Recent(ctx, f.limit)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHistory, err)
	}
	if f.json {
		return writeJSON(env.Stdout, entries)
	}
	printEntries(env.Stdout, entries)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No captures recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tFORMAT\tSIZE\tDURATION\tURL")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%s\n",
			e.CapturedAt.Local().Format(time.DateTime), status, e.Format, e.Bytes, e.Duration, e.URL)
	}
	_ = tw.Flush()
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tURLS\tOK\tFAILED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%v\n",
			r.StartedAt.Local().Format(time.DateTime), r.ID[:min(8, len(r.ID))], r.Count, r.Succeeded, r.Failed, r.Duration)
	}
	_ = tw.Flush()
}
