// Package config loads the formpilot configuration file.
//
// The file is YAML. Every key is optional; anything left out keeps its
// default. Durations are Go duration strings such as "1500ms" or "2s".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/formpilot/pkg/fields"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/intake"
	"github.com/entrhq/formpilot/pkg/watch"
	"github.com/entrhq/formpilot/pkg/workflow"
)

// Driver selects the browser binding.
type Driver string

const (
	// DriverPlaywright drives the browser with playwright-go.
	DriverPlaywright Driver = "playwright"
	// DriverRod drives the browser with go-rod.
	DriverRod Driver = "rod"
)

// Config is the complete formpilot configuration.
type Config struct {
	Host     HostConfig       `yaml:"host" json:"host"`
	Delays   workflow.Delays  `yaml:"delays" json:"delays"`
	Keywords inspect.Keywords `yaml:"keywords" json:"keywords"`
	Mapper   MapperConfig     `yaml:"mapper" json:"mapper"`
	Intake   intake.Config    `yaml:"intake" json:"intake"`
	Drop     watch.Config     `yaml:"drop" json:"drop"`

	Referral  workflow.Referral   `yaml:"referral" json:"referral"`
	Shortcuts []workflow.Shortcut `yaml:"shortcuts" json:"shortcuts"`

	// StepTimeout bounds the host calls of one workflow step.
	StepTimeout time.Duration `yaml:"step_timeout" json:"step_timeout"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// HostConfig selects and attaches to the browser showing the host application.
type HostConfig struct {
	Driver Driver `yaml:"driver" json:"driver"`

	// CDPURL attaches to a running browser over the DevTools protocol. When
	// empty a browser is launched.
	CDPURL string `yaml:"cdp_url" json:"cdp_url"`

	// StartURL is opened when no page matches Allowed.
	StartURL string `yaml:"start_url" json:"start_url"`

	Headless    bool   `yaml:"headless" json:"headless"`
	UserDataDir string `yaml:"user_data_dir" json:"user_data_dir"`

	// Allowed and Denied are URL glob patterns selecting the host tab.
	Allowed []string `yaml:"allowed" json:"allowed"`
	Denied  []string `yaml:"denied,omitempty" json:"denied,omitempty"`

	// ContentFrame is the CSS selector of the frame holding the workflow screens.
	ContentFrame string `yaml:"content_frame" json:"content_frame"`

	// LockFile guards against two processes driving the same browser profile.
	LockFile string `yaml:"lock_file" json:"lock_file"`
}

// MapperConfig tunes the text-to-field mapper.
type MapperConfig struct {
	// SingleLineThreshold is the length above which single-line input is
	// scanned for embedded labels.
	SingleLineThreshold int `yaml:"single_line_threshold" json:"single_line_threshold"`

	// Aliases maps extra label phrases to canonical labels.
	Aliases map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// LoggingConfig configures the log files.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level" json:"level"`
	Dir   string `yaml:"dir" json:"dir"`
}

// DefaultConfig returns a configuration for the production host.
func DefaultConfig() *Config {
	wf := workflow.DefaultConfig()
	return &Config{
		Host: HostConfig{
			Driver:       DriverPlaywright,
			StartURL:     "https://www.promedico-asp.nl/promedico/",
			Allowed:      []string{"https://*.promedico-asp.nl/*"},
			ContentFrame: "iframe#panelBackCompatibility-frame",
		},
		Delays:   wf.Delays,
		Keywords: inspect.DefaultKeywords(),
		Mapper: MapperConfig{
			SingleLineThreshold: fields.DefaultSingleLineThreshold,
		},
		Intake:      intake.DefaultConfig(),
		Drop:        watch.DefaultConfig(),
		Referral:    wf.Referral,
		Shortcuts:   wf.Shortcuts,
		StepTimeout: wf.StepTimeout,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.formpilot/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".formpilot", "config.yaml"), nil
}

// Load reads the configuration at path over the defaults and validates it.
// An empty path reads the default location, where a missing file is not an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	switch c.Host.Driver {
	case DriverPlaywright, DriverRod:
	default:
		return fmt.Errorf("invalid host driver: %s (must be '%s' or '%s')", c.Host.Driver, DriverPlaywright, DriverRod)
	}
	if _, err := c.URLMatcher(); err != nil {
		return err
	}

	if err := c.Delays.Validate(); err != nil {
		return err
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step_timeout must be positive, got %s", c.StepTimeout)
	}

	if c.Mapper.SingleLineThreshold < 0 {
		return fmt.Errorf("single_line_threshold cannot be negative")
	}
	if _, err := c.Vocabulary(); err != nil {
		return err
	}

	if c.Drop.Dir != "" {
		if err := c.Drop.Validate(); err != nil {
			return fmt.Errorf("drop: %w", err)
		}
	}

	names := make(map[string]bool, len(c.Shortcuts))
	for _, s := range c.Shortcuts {
		if s.Name == "" || s.Menu == "" || s.Button == "" {
			return fmt.Errorf("shortcut %q needs a name, menu and button", s.Name)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate shortcut: %s", s.Name)
		}
		names[s.Name] = true
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	return nil
}

// Workflow returns the driver configuration.
func (c *Config) Workflow() workflow.Config {
	return workflow.Config{
		Delays:      c.Delays,
		Referral:    c.Referral,
		Shortcuts:   c.Shortcuts,
		StepTimeout: c.StepTimeout,
	}
}

// Vocabulary returns the default label vocabulary extended with the
// configured aliases.
func (c *Config) Vocabulary() (fields.Vocabulary, error) {
	vocab, err := fields.DefaultVocabulary().Merge(c.Mapper.Aliases)
	if err != nil {
		return nil, fmt.Errorf("mapper aliases: %w", err)
	}
	return vocab, nil
}

// Parser returns a field parser using the configured vocabulary.
func (c *Config) Parser() (*fields.Parser, error) {
	vocab, err := c.Vocabulary()
	if err != nil {
		return nil, err
	}
	return fields.NewParser(vocab, c.Mapper.SingleLineThreshold), nil
}

// URLMatcher compiles the host tab patterns.
func (c *Config) URLMatcher() (*host.URLMatcher, error) {
	m, err := host.NewURLMatcher(c.Host.Allowed, c.Host.Denied)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	return m, nil
}
