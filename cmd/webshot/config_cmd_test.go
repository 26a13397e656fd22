package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-webshot/internal/config"
	"github.com/alnah/go-webshot/internal/yamlutil"
)

func TestRunConfigCmd_Defaults(t *testing.T) {
	t.Parallel()

	te := newTestEnv(newFakeCapturer())
	if err := runConfigCmd(nil, te.Environment); err != nil {
		t.Fatalf("runConfigCmd() error = %v", err)
	}

	got := &config.Config{}
	if err := yamlutil.Decode(te.stdout.Bytes(), got); err != nil {
		t.Fatalf("output is not a valid config: %v\n%s", err, te.stdout.String())
	}
	want := config.DefaultConfig()
	if got.Capture.Format != want.Capture.Format {
		t.Errorf("format = %q, want %q", got.Capture.Format, want.Capture.Format)
	}
	if te.started != 0 {
		t.Error("config should not start a browser")
	}
}

func TestRunConfigCmd_FlagsOverride(t *testing.T) {
	t.Parallel()

	te := newTestEnv(newFakeCapturer())
	if err := runConfigCmd([]string{"-f", "pdf", "--history"}, te.Environment); err != nil {
		t.Fatalf("runConfigCmd() error = %v", err)
	}

	got := &config.Config{}
	if err := yamlutil.Decode(te.stdout.Bytes(), got); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got.Capture.Format != "pdf" {
		t.Errorf("format = %q, want pdf", got.Capture.Format)
	}
	if !got.History.Enabled {
		t.Error("history should be enabled by --history")
	}
}

func TestRunConfigCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"positional argument", []string{"https://example.com"}},
		{"unknown flag", []string{"--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(newFakeCapturer())
			err := runConfigCmd(tt.args, te.Environment)
			if !errors.Is(err, ErrInvalidFlag) {
				t.Errorf("error = %v, want %v", err, ErrInvalidFlag)
			}
		})
	}
}

func TestRunMain_Config(t *testing.T) {
	t.Parallel()

	te := newTestEnv(newFakeCapturer())
	if code := runMain([]string{"webshot", "config", "-d", "mobile"}, te.Environment); code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, te.stderr.String())
	}
	if !strings.Contains(te.stdout.String(), "mobile") {
		t.Errorf("output missing device:\n%s", te.stdout.String())
	}
}
