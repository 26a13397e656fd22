//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// notifyContext derives the context every command runs under. Ctrl-C or
// SIGTERM cancels it, which aborts pending acquires, navigations and
// readiness waits; the deferred Service.Close then shuts Chrome down.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
