package main

// Notes:
// - Actual OS signal delivery is not tested; only context wiring.

import (
	"context"
	"testing"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("stop cancels context", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		select {
		case <-ctx.Done():
			t.Fatal("context should not start cancelled")
		default:
		}

		stop()
		<-ctx.Done()
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		<-ctx.Done()
		if ctx.Err() == nil {
			t.Error("expected context error after parent cancel")
		}
	})
}
