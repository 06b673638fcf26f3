package rodhost

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/types"
)

const fixture = `<html><body>
<button id="top">Zoeken</button>
<iframe id="content" srcdoc="<form><button id='next'>Volgende</button><input id='omschrijving' name='omschrijving'><select id='kind'><option value='1'>Brief</option><option value='2'>Verslag</option></select></form>"></iframe>
</body></html>`

func TestDocument_SpillAndRelease(t *testing.T) {
	d, err := newDocument(nil, nil, "", logging.Nop("test"))
	assert.Nil(t, d)
	require.Error(t, err)

	d = &Document{log: logging.Nop("test")}
	first, err := d.spill([]types.FileRef{{Name: "../export.edi", Data: []byte("UNB")}})
	require.NoError(t, err)
	second, err := d.spill([]types.FileRef{{Name: "export.edi", Data: []byte("UNH")}})
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, "export.edi", filepath.Base(first[0]))
	assert.NotEqual(t, first[0], second[0], "each assignment gets its own directory")
	data, err := os.ReadFile(first[0])
	require.NoError(t, err)
	assert.Equal(t, "UNB", string(data))

	d.release()
	_, err = os.Stat(first[0])
	assert.True(t, os.IsNotExist(err))
}

func TestDocument_Browser(t *testing.T) {
	if testing.Short() || os.Getenv("FORMPILOT_BROWSER_TESTS") == "" {
		t.Skip("set FORMPILOT_BROWSER_TESTS to run against a real browser")
	}

	ctx := context.Background()
	b, err := Connect(ctx, Options{
		Headless:     true,
		StartURL:     "data:text/html," + url.PathEscape(fixture),
		ContentFrame: "iframe#content",
	})
	require.NoError(t, err)
	defer b.Close()
	doc := b.Document()

	snap, err := doc.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Frame)
	assert.True(t, snap.Frame.HasElementID("omschrijving"))

	h, err := doc.FindByVisibleText(ctx, host.RoleControl, "volgende")
	require.NoError(t, err)
	assert.Equal(t, "button", h.Tag())

	field, err := doc.FindByAttributeSubstring(ctx, host.KindField, "name", "OMSCHRIJ")
	require.NoError(t, err)
	require.NoError(t, field.SetValue(ctx, "Ontslagbrief"))
	value, err := field.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ontslagbrief", value)

	sel, err := doc.FindByID(ctx, "kind")
	require.NoError(t, err)
	options, err := sel.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []host.Option{{Text: "Brief", Value: "1"}, {Text: "Verslag", Value: "2"}}, options)
	assert.ErrorIs(t, sel.SetValue(ctx, "9"), host.ErrNotFound)

	_, err = doc.FindByID(ctx, "absent")
	assert.ErrorIs(t, err, host.ErrNotFound)
}
