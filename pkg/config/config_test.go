package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/pkg/fields"
	"github.com/entrhq/formpilot/pkg/workflow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverPlaywright, cfg.Host.Driver)
	assert.Equal(t, workflow.DefaultDelays(), cfg.Delays)
	assert.Equal(t, workflow.DefaultConfig(), cfg.Workflow())
	assert.Equal(t, fields.DefaultSingleLineThreshold, cfg.Mapper.SingleLineThreshold)
	assert.Empty(t, cfg.Drop.Dir)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
host:
  driver: rod
  cdp_url: ws://127.0.0.1:9222/devtools/browser/abc
delays:
  navigate: 3s
  advance: 2500ms
mapper:
  aliases:
    Familienaam: Surname
intake:
  practitioner_needles: ["E.A.", "Westerbeek van Eerten"]
drop:
  dir: /tmp/formpilot-drop
  batch_window: 1s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverRod, cfg.Host.Driver)
	assert.Equal(t, 3*time.Second, cfg.Delays.Navigate)
	assert.Equal(t, 2500*time.Millisecond, cfg.Delays.Advance)
	assert.Equal(t, workflow.DefaultDelays().Upload, cfg.Delays.Upload, "unset delays keep their default")
	assert.Equal(t, []string{"E.A.", "Westerbeek van Eerten"}, cfg.Intake.PractitionerNeedles)
	assert.Equal(t, "praktijkMedewerker", cfg.Intake.PractitionerSelect)
	assert.Equal(t, time.Second, cfg.Drop.BatchWindow)
	assert.Equal(t, "debug", cfg.Logging.Level)

	parser, err := cfg.Parser()
	require.NoError(t, err)
	rec := parser.Parse("Familienaam: Jansen")
	assert.Equal(t, "Jansen", rec.Value(fields.Surname))
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero delay", "delays:\n  upload: 0s\n", "upload"},
		{"negative delay", "delays:\n  shortcut: -1s\n", "shortcut"},
		{"unknown driver", "host:\n  driver: selenium\n", "driver"},
		{"unknown alias label", "mapper:\n  aliases:\n    Naam: Nickname\n", "Nickname"},
		{"bad log level", "logging:\n  level: loud\n", "level"},
		{"duplicate shortcut", "shortcuts:\n  - {name: a, menu: m, button: b}\n  - {name: a, menu: m, button: b}\n", "duplicate"},
		{"drop without window", "drop:\n  dir: /tmp/x\n  batch_window: 0s\n", "batch window"},
		{"malformed yaml", "delays: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delays.Navigate = 4 * time.Second

	data, err := cfg.Marshal()
	require.NoError(t, err)

	loaded, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg.Host, loaded.Host)
	assert.Equal(t, cfg.Delays, loaded.Delays)
	assert.Equal(t, cfg.Keywords, loaded.Keywords)
	assert.Equal(t, cfg.Shortcuts, loaded.Shortcuts)
	assert.Equal(t, cfg.Drop, loaded.Drop)
}
