//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// notifyContext derives the context every command runs under. Ctrl-C
// cancels it, aborting captures in flight before Service.Close shuts
// Chrome down. Windows has no SIGTERM to listen for.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
