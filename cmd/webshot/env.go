package main

import (
	"context"
	"io"
	"os"
	"time"

	webshot "github.com/alnah/go-webshot"
	"github.com/alnah/go-webshot/internal/history"
)

// Capturer is the part of *webshot.Service the CLI drives.
type Capturer interface {
	Capture(ctx context.Context, req webshot.CaptureRequest) (*webshot.CaptureResult, error)
	CaptureMany(ctx context.Context, urls []string, opts webshot.CaptureOptions) (*webshot.BatchOutcome, error)
	PoolStats() webshot.PoolStats
	Close() error
}

// Compile-time interface implementation check.
var _ Capturer = (*webshot.Service)(nil)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, browser startup, and the history store.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	NewCapturer func(ctx context.Context, opts ...webshot.Option) (Capturer, error)
	OpenHistory func(path string) (*history.Store, error)
}

// DefaultEnv returns the production environment backed by a real browser.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewCapturer: func(ctx context.Context, opts ...webshot.Option) (Capturer, error) {
			return webshot.NewService(ctx, opts...)
		},
		OpenHistory: history.Open,
	}
}
