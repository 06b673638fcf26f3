package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/host/pwhost"
	"github.com/entrhq/formpilot/pkg/host/rodhost"
	"github.com/entrhq/formpilot/pkg/logging"
)

// browserHost is a connected host document and the call that releases it.
type browserHost struct {
	doc   host.Document
	close func() error
}

func (h *browserHost) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// openHost connects the configured browser binding and selects the host tab.
func openHost(ctx context.Context, cfg *config.Config, log *logging.Logger) (*browserHost, error) {
	matcher, err := cfg.URLMatcher()
	if err != nil {
		return nil, err
	}

	switch cfg.Host.Driver {
	case config.DriverRod:
		b, err := rodhost.Connect(ctx, rodhost.Options{
			ControlURL:   cfg.Host.CDPURL,
			Headless:     cfg.Host.Headless,
			UserDataDir:  cfg.Host.UserDataDir,
			StartURL:     cfg.Host.StartURL,
			ContentFrame: cfg.Host.ContentFrame,
			Matcher:      matcher,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
		return &browserHost{doc: b.Document(), close: b.Close}, nil

	case config.DriverPlaywright:
		b, err := pwhost.Connect(ctx, pwhost.Options{
			CDPURL:       cfg.Host.CDPURL,
			Headless:     cfg.Host.Headless,
			UserDataDir:  cfg.Host.UserDataDir,
			StartURL:     cfg.Host.StartURL,
			ContentFrame: cfg.Host.ContentFrame,
			Matcher:      matcher,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
		return &browserHost{doc: b.Document(), close: b.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported host driver: %s", cfg.Host.Driver)
	}
}

// lockPath returns the run lock file, next to the browser profile when one is
// configured so two profiles can be driven side by side.
func lockPath(cfg *config.Config) (string, error) {
	if cfg.Host.LockFile != "" {
		return cfg.Host.LockFile, nil
	}
	if cfg.Host.UserDataDir != "" {
		return filepath.Join(cfg.Host.UserDataDir, "formpilot.lock"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".formpilot", "run.lock"), nil
}
