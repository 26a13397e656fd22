package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-webshot/internal/config"
)

// runConfigCmd prints the effective configuration as YAML after config
// file, environment and flags are merged. It accepts the capture flags so
// `webshot config -c ci -f pdf` shows what a capture with those flags uses.
func runConfigCmd(args []string, env *Environment) error {
	flags, rest, err := parseCaptureFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: config takes no arguments, got %q", ErrInvalidFlag, rest[0])
	}

	envCfg := loadEnvConfig()
	cfg, err := loadCaptureConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = env.Stdout.Write(out)
	return err
}
