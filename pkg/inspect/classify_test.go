package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/pkg/types"
)

const hostPage = `<html><body><div id="menu">Zoeken</div><iframe id="panelBackCompatibility-frame"></iframe></body></html>`

func snapshot(t *testing.T, frame string) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot("https://host/index.html", hostPage, "https://host/frame.html", frame)
	require.NoError(t, err)
	return snap
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  types.WorkflowState
	}{
		{
			name: "initial choice",
			frame: `<ul><li><a>Brief samenstellen</a></li><li><a>Document scannen</a></li>
				<li><a>Document uploaden</a></li></ul>`,
			want: types.StateInitialChoice,
		},
		{
			name:  "file upload",
			frame: `<h2>Document uploaden</h2><input type="file" name="bestand"><button>Verder</button>`,
			want:  types.StateFileUploadScreen,
		},
		{
			name:  "control step",
			frame: `<h2>Document uploaden</h2><p>Controleer het document</p><button>Volgende</button>`,
			want:  types.StateControlStep,
		},
		{
			name:  "control step with submit input",
			frame: `<p>PREVIEW</p><input type="submit" value="Doorgaan">`,
			want:  types.StateControlStep,
		},
		{
			name:  "review marker without control",
			frame: `<h2>Document uploaden</h2><p>Controleer het document</p>`,
			want:  types.StateUnknown,
		},
		{
			name:  "description by id",
			frame: `<h2>Document uploaden</h2><textarea id="docOmschrijving"></textarea>`,
			want:  types.StateDescriptionScreen,
		},
		{
			name:  "description by header group",
			frame: `<p>Bestand</p><p>Omschrijving</p><input name="document.omschrijving">`,
			want:  types.StateDescriptionScreen,
		},
		{
			name:  "unrelated screen",
			frame: `<h2>Agenda</h2><p>Geen afspraken</p>`,
			want:  types.StateOffTarget,
		},
		{
			name:  "workflow screen without markers",
			frame: `<h2>Document scannen</h2><p>Bezig...</p>`,
			want:  types.StateUnknown,
		},
	}

	kw := DefaultKeywords()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(snapshot(t, tt.frame), kw))
		})
	}
}

func TestClassify_Priority(t *testing.T) {
	kw := DefaultKeywords()

	// A description field wins over a file input on the same screen
	snap := snapshot(t, `<input type="file"><input id="omschrijving">`)
	assert.Equal(t, types.StateDescriptionScreen, Classify(snap, kw))

	// A file input wins over the choice options
	snap = snapshot(t, `<a>Brief samenstellen</a><a>Document scannen</a><a>Document uploaden</a><input type="file">`)
	assert.Equal(t, types.StateFileUploadScreen, Classify(snap, kw))
}

func TestClassify_Idempotent(t *testing.T) {
	kw := DefaultKeywords()
	snap := snapshot(t, `<h2>Document uploaden</h2><p>Controleer</p><button>Volgende</button>`)

	first := Classify(snap, kw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(snap, kw))
	}
}

func TestClassify_Unreadable(t *testing.T) {
	assert.Equal(t, types.StateUnknown, Classify(nil, DefaultKeywords()))
	assert.Equal(t, types.StateUnknown, Classify(&Snapshot{}, DefaultKeywords()))
}

func TestClassify_MainPageWithoutFrame(t *testing.T) {
	snap, err := NewSnapshot("https://host/index.html", `<h2>Document uploaden</h2><input type="file">`, "", "")
	require.NoError(t, err)
	assert.Nil(t, snap.Frame)
	assert.Equal(t, types.StateFileUploadScreen, Classify(snap, DefaultKeywords()))
}

func TestIsAuthorizedContext(t *testing.T) {
	kw := DefaultKeywords()

	assert.True(t, IsAuthorizedContext(snapshot(t, `<h2>document UPLOADEN</h2>`), kw))
	assert.True(t, IsAuthorizedContext(snapshot(t, `<p>Omschrijving</p><p>Bestand</p>`), kw))
	assert.False(t, IsAuthorizedContext(snapshot(t, `<p>Omschrijving</p>`), kw))
	assert.False(t, IsAuthorizedContext(nil, kw))

	// Text in scripts is not rendered and does not count
	assert.False(t, IsAuthorizedContext(snapshot(t, `<script>var t = "Document uploaden";</script>`), kw))

	// The page text counts as well as the frame text
	snap, err := NewSnapshot("https://host/index.html", `<h1>Brief samenstellen</h1>`, "https://host/f.html", `<p>x</p>`)
	require.NoError(t, err)
	assert.True(t, IsAuthorizedContext(snap, kw))
}

func TestIsImportScreen(t *testing.T) {
	kw := DefaultKeywords()

	assert.True(t, IsImportScreen(snapshot(t, `<input type="file" id="ediFile"><input type="file" id="correspondentieFile">`), kw))
	assert.False(t, IsImportScreen(snapshot(t, `<input type="file" id="ediFile">`), kw))
	assert.False(t, IsImportScreen(nil, kw))
}

func TestIsPatientForm(t *testing.T) {
	kw := DefaultKeywords()

	snap, err := NewSnapshot("https://host/admin.onderhoud.patienten.html", `<form></form>`, "", "")
	require.NoError(t, err)
	assert.True(t, IsPatientForm(snap, kw))
	assert.False(t, IsPatientForm(snapshot(t, `<form></form>`), kw))
}

func TestIsContactPage(t *testing.T) {
	kw := DefaultKeywords()

	snap, err := NewSnapshot("https://host/index.html", hostPage, "https://host/medischdossier.journaal.html", `<p>Journaal</p>`)
	require.NoError(t, err)
	assert.True(t, IsContactPage(snap, kw))
	assert.False(t, IsContactPage(snapshot(t, `<p>Journaal</p>`), kw))
}

func TestScope_Text(t *testing.T) {
	sc, err := ParseScope("u", `<p>  Hallo
		wereld </p><style>p{}</style>`)
	require.NoError(t, err)
	assert.Equal(t, "Hallo wereld", sc.Text())
	assert.True(t, sc.ContainsText("HALLO"))
}
