package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/internal/testsupport"
	"github.com/entrhq/formpilot/pkg/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseCommand_Table(t *testing.T) {
	path := writeFile(t, "mail.txt", "Achternaam: Vries\nVoorletters: A.B.\n")

	out, err := execute(t, "parse", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Surname")
	assert.Contains(t, out, "Vries")
	assert.Contains(t, out, "A.B.")
}

func TestParseCommand_JSON(t *testing.T) {
	path := writeFile(t, "mail.txt", "Achternaam: Vries\n")

	out, err := execute(t, "parse", "--json", "--file", path)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"Surname": "Vries"}, got)
}

func TestParseCommand_EmptyInput(t *testing.T) {
	path := writeFile(t, "empty.txt", "  \n")

	_, err := execute(t, "parse", "--file", path)
	assert.ErrorContains(t, err, "no text")
}

func TestIntakeCommand_DryRun(t *testing.T) {
	path := writeFile(t, "mail.txt", "Achternaam: Vries\n")

	out, err := execute(t, "intake", "--dry-run", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Vries")
}

func TestClassifyCommand_SavedPage(t *testing.T) {
	page := writeFile(t, "page.html", testsupport.HostPage)
	frame := writeFile(t, "frame.html", testsupport.UploadScreen)

	out, err := execute(t, "classify", page, "--frame", frame, "--url", testsupport.HostURL, "--frame-url", testsupport.UploadFrameURL)
	require.NoError(t, err)
	assert.Contains(t, out, "file_upload")
}

func TestGoToCommand_List(t *testing.T) {
	out, err := execute(t, "goto", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "medovd-import")
	assert.Contains(t, out, "inschrijven")
}

func TestConfigCommand_InitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Host, loaded.Host)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "content_frame")
}

func TestRootCommand_RejectsBadConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", "host:\n  driver: selenium\n")

	_, err := execute(t, "--config", path, "goto", "--list")
	assert.ErrorContains(t, err, "driver")
}
