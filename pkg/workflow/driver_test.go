package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/internal/testsupport"
	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/host/memdoc"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/notify"
	"github.com/entrhq/formpilot/pkg/session"
	"github.com/entrhq/formpilot/pkg/types"
)

type harness struct {
	doc         *memdoc.Document
	sched       *testsupport.ManualScheduler
	sess        *session.Session
	notes       *notify.Recorder
	driver      *Driver
	transitions []Transition
}

func newHarness(t *testing.T, doc *memdoc.Document) *harness {
	t.Helper()
	h := &harness{
		doc:   doc,
		sched: &testsupport.ManualScheduler{},
		sess:  session.New(),
		notes: &notify.Recorder{},
	}
	exec := action.New(doc, inspect.DefaultKeywords())
	h.driver = NewDriver(context.Background(), exec, h.sched, h.sess, Options{
		Config:       DefaultConfig(),
		Notifier:     h.notes,
		OnTransition: func(tr Transition) { h.transitions = append(h.transitions, tr) },
	})
	return h
}

func (h *harness) actionKinds() []string {
	var out []string
	for _, a := range h.doc.Actions() {
		out = append(out, a.Kind+":"+a.Target)
	}
	return out
}

// uploaded returns the file names assigned to each file input, in order.
// The inputs themselves are gone once the wizard has moved on.
func (h *harness) uploaded() []string {
	var out []string
	for _, a := range h.doc.Actions() {
		if a.Kind == "set_files" {
			out = append(out, a.Target+"="+a.Value)
		}
	}
	return out
}

func (h *harness) stages() []Stage {
	var out []Stage
	for _, tr := range h.transitions {
		out = append(out, tr.Stage)
	}
	return out
}

var letter = types.FileRef{Name: "verwijsbrief cardioloog.pdf", MimeType: "application/pdf", Data: []byte("not really a pdf")}

func TestDriver_UploadFromInitialChoice(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.ChoiceScreen))
	delays := DefaultDelays()

	h.driver.Upload(letter)
	h.sched.Flush()
	assert.Equal(t, StageAwaitingNavigation, h.driver.Stage())
	assert.Equal(t, "verwijsbrief cardioloog", h.sess.Stem())

	h.sched.Advance(delays.Navigate)
	assert.Equal(t, StageAwaitingAdvance1, h.driver.Stage())
	require.Len(t, h.doc.FilesOf("bestand"), 1)
	assert.Equal(t, letter.Name, h.doc.FilesOf("bestand")[0].Name)

	h.sched.Advance(delays.Upload)
	assert.Equal(t, StageAwaitingAdvance2, h.driver.Stage())

	h.sched.Advance(delays.Advance)
	assert.Equal(t, StageAwaitingDescription, h.driver.Stage())

	h.sched.Advance(delays.Description)
	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, "verwijsbrief cardioloog", h.doc.ValueOf("omschrijving"))
	assert.Zero(t, h.sched.Pending())

	assert.Equal(t, []Stage{
		StageIdle,
		StageAwaitingNavigation,
		StageUploading,
		StageAwaitingAdvance1,
		StageAwaitingAdvance2,
		StageAwaitingDescription,
		StageDone,
	}, h.stages())

	assert.Equal(t, []string{
		"click:Document uploaden",
		"set_files:bestand",
		"click:Verder",
		"click:Volgende",
		"set_value:omschrijving",
	}, h.actionKinds())

	last, ok := h.notes.Last()
	require.True(t, ok)
	assert.Equal(t, types.SeveritySuccess, last.Severity)
	assert.Contains(t, last.Message, "verwijsbrief cardioloog")
	assert.Nil(t, h.sess.Task())
}

func TestDriver_UploadFromUploadScreen(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.UploadScreen))

	h.driver.Upload(letter)
	h.sched.RunAll()

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.NotContains(t, h.stages(), StageAwaitingNavigation)
	assert.Equal(t, "verwijsbrief cardioloog", h.doc.ValueOf("omschrijving"))
}

func TestDriver_GuardFailureActsNever(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.OffTargetScreen))

	h.driver.Upload(letter)
	h.sched.RunAll()

	assert.Equal(t, StageAborted, h.driver.Stage())
	assert.Empty(t, h.doc.Actions())
	assert.Equal(t, []string{msgNotUploadPage}, h.notes.Messages(types.SeverityError))
}

func TestDriver_UnexpectedScreenAborts(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.ControlScreen))

	h.driver.Upload(letter)
	h.sched.RunAll()

	assert.Equal(t, StageAborted, h.driver.Stage())
	assert.Empty(t, h.doc.Actions())
	assert.Equal(t, []string{msgUnknownState}, h.notes.Messages(types.SeverityError))
}

func TestDriver_StaleContinuationAborts(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.ChoiceScreen))

	h.driver.Upload(letter)
	h.sched.Flush()
	require.Equal(t, StageAwaitingNavigation, h.driver.Stage())

	// The host shows a different screen by the time the delay expires
	require.NoError(t, h.doc.SetFrame(testsupport.UploadFrameURL, testsupport.ControlScreen))
	h.sched.RunAll()

	assert.Equal(t, StageAborted, h.driver.Stage())
	assert.Equal(t, []string{"click:Document uploaden"}, h.actionKinds())
	assert.Empty(t, h.doc.FilesOf("bestand"))
}

func TestDriver_GuardRecheckedBeforeEveryStep(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.UploadScreen))

	h.driver.Upload(letter)
	h.sched.Flush()
	require.Equal(t, StageAwaitingAdvance1, h.driver.Stage())

	// The user navigated away while the upload delay was running
	require.NoError(t, h.doc.SetFrame(testsupport.UploadFrameURL, testsupport.OffTargetScreen))
	h.sched.RunAll()

	assert.Equal(t, StageAborted, h.driver.Stage())
	assert.Equal(t, []string{"set_files:bestand"}, h.actionKinds())
	assert.Contains(t, h.notes.Messages(types.SeverityError), msgNotUploadPage)
}

func TestDriver_NewTaskSupersedes(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.ChoiceScreen))
	second := types.FileRef{Name: "labuitslag.pdf"}

	h.driver.Upload(letter)
	h.sched.Flush()
	first := h.driver.JobID()
	require.Equal(t, StageAwaitingNavigation, h.driver.Stage())

	// Second drop lands on the upload screen the first task navigated to
	h.driver.Upload(second)
	h.sched.Flush()
	assert.NotEqual(t, first, h.driver.JobID())
	assert.Equal(t, "labuitslag", h.sess.Stem())

	h.sched.RunAll()

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, []string{"bestand=labuitslag.pdf"}, h.uploaded())
	assert.Equal(t, "labuitslag", h.doc.ValueOf("omschrijving"))
}

func TestDriver_NoAdvanceControlPromptsManual(t *testing.T) {
	doc := testsupport.NewHost(t, testsupport.UploadFrameURL,
		`<h2>Document uploaden</h2><input type="file" id="bestand">`)
	h := newHarness(t, doc)

	h.driver.Upload(letter)
	h.sched.RunAll()

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Len(t, doc.FilesOf("bestand"), 1)
	assert.Contains(t, h.notes.Messages(types.SeverityInfo), msgManualAdvance)
}

func TestDriver_ReviewWithoutPreviewWording(t *testing.T) {
	doc := testsupport.NewHost(t, testsupport.UploadFrameURL, testsupport.UploadScreen)
	doc.OnClick("Verder", func(d *memdoc.Document) {
		require.NoError(t, d.SetFrame(testsupport.UploadFrameURL,
			`<h2>Document uploaden</h2><p>Het document is ontvangen.</p><button>Doorgaan</button>`))
	})
	doc.OnClick("Doorgaan", func(d *memdoc.Document) {
		require.NoError(t, d.SetFrame(testsupport.UploadFrameURL, testsupport.DescriptionScreen))
	})
	h := newHarness(t, doc)

	h.driver.Upload(letter)
	h.sched.RunAll()

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, []string{
		"set_files:bestand",
		"click:Verder",
		"click:Doorgaan",
		"set_value:omschrijving",
	}, h.actionKinds())
	assert.Equal(t, "verwijsbrief cardioloog", doc.ValueOf("omschrijving"))
}

func TestDriver_ReviewWithoutSubmitControl(t *testing.T) {
	doc := testsupport.NewHost(t, testsupport.UploadFrameURL, testsupport.UploadScreen)
	doc.OnClick("Verder", func(d *memdoc.Document) {
		require.NoError(t, d.SetFrame(testsupport.UploadFrameURL,
			`<h2>Document uploaden</h2><p>Het document wordt verwerkt.</p>`))
	})
	h := newHarness(t, doc)

	h.driver.Upload(letter)
	h.sched.RunAll()

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, []string{"set_files:bestand", "click:Verder"}, h.actionKinds())
	assert.Contains(t, h.notes.Messages(types.SeverityInfo), msgDescriptionMissing)
}

func TestDriver_AccessFaultRetriedByDescriptionStep(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.UploadScreen))
	delays := DefaultDelays()

	h.driver.Upload(letter)
	h.sched.Flush()
	h.sched.Advance(delays.Upload)
	require.Equal(t, StageAwaitingAdvance2, h.driver.Stage())

	h.doc.SetUnreadable(true)
	h.sched.Advance(delays.Advance)
	assert.Equal(t, StageAwaitingDescription, h.driver.Stage())

	// The host recovers and shows the description screen on its own
	h.doc.SetUnreadable(false)
	require.NoError(t, h.doc.SetFrame(testsupport.UploadFrameURL, testsupport.DescriptionScreen))
	h.sched.Advance(delays.Description)

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, "verwijsbrief cardioloog", h.doc.ValueOf("omschrijving"))
}

func TestDriver_DescriptionAlreadyFilled(t *testing.T) {
	doc := testsupport.NewWizard(t, testsupport.UploadScreen)
	h := newHarness(t, doc)

	h.driver.Upload(letter)
	h.sched.Flush()
	h.sched.Advance(DefaultDelays().Upload + DefaultDelays().Advance)
	require.Equal(t, StageAwaitingDescription, h.driver.Stage())

	// Someone typed a description before the delay expired
	handle, err := doc.FindByID(context.Background(), "omschrijving")
	require.NoError(t, err)
	require.NoError(t, handle.SetValue(context.Background(), "door gebruiker"))

	h.sched.RunAll()
	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, "door gebruiker", doc.ValueOf("omschrijving"))
	assert.Contains(t, h.notes.Messages(types.SeverityInfo), msgDescriptionPresent)
}

func TestDriver_PairedImport(t *testing.T) {
	edi := types.FileRef{Name: "patient.EDI", Data: []byte("UNB")}
	archive := types.FileRef{Name: "correspondentie.zip", Data: []byte("PK")}

	t.Run("one edi and one zip", func(t *testing.T) {
		h := newHarness(t, testsupport.NewHost(t, testsupport.ImportFrameURL, testsupport.ImportScreen))

		h.driver.HandleDrop([]types.FileRef{archive, edi})
		h.sched.Flush()
		assert.Equal(t, []string{"set_files:ediFile", "set_files:correspondentieFile"}, h.actionKinds())

		h.sched.Advance(DefaultDelays().Import)
		assert.Equal(t, StageDone, h.driver.Stage())
		assert.Equal(t, []string{
			"set_files:ediFile",
			"set_files:correspondentieFile",
			"click:Script_Bestand inlezen",
		}, h.actionKinds())
		assert.Equal(t, "patient.EDI", h.doc.FilesOf("ediFile")[0].Name)
		assert.Equal(t, "correspondentie.zip", h.doc.FilesOf("correspondentieFile")[0].Name)
	})

	tests := []struct {
		name  string
		files []types.FileRef
	}{
		{"two edi files", []types.FileRef{edi, {Name: "tweede.edi"}}},
		{"two zip files", []types.FileRef{archive, {Name: "tweede.zip"}}},
		{"three files", []types.FileRef{edi, archive, {Name: "extra.pdf"}}},
		{"single file", []types.FileRef{edi}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testsupport.NewHost(t, testsupport.ImportFrameURL, testsupport.ImportScreen))

			h.driver.HandleDrop(tt.files)
			h.sched.RunAll()

			assert.Empty(t, h.doc.Actions())
			assert.Empty(t, h.notes.Events())
			assert.Equal(t, StageIdle, h.driver.Stage())
		})
	}
}

func TestDriver_ImportScreenGoneBeforeSubmit(t *testing.T) {
	h := newHarness(t, testsupport.NewHost(t, testsupport.ImportFrameURL, testsupport.ImportScreen))

	h.driver.Import([]types.FileRef{{Name: "a.edi"}, {Name: "b.zip"}})
	h.sched.Flush()
	require.NoError(t, h.doc.SetFrame(testsupport.SearchFrameURL, testsupport.SearchScreen))
	h.sched.RunAll()

	assert.Equal(t, StageAborted, h.driver.Stage())
	for _, a := range h.doc.Actions() {
		assert.NotEqual(t, "click", a.Kind)
	}
}

func TestDriver_DropOutsideImportScreenUploadsFirstFile(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.UploadScreen))

	h.driver.HandleDrop([]types.FileRef{letter, {Name: "tweede.pdf"}})
	h.sched.RunAll()

	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, []string{"bestand=" + letter.Name}, h.uploaded())
	assert.Equal(t, "verwijsbrief cardioloog", h.doc.ValueOf("omschrijving"))
}

func TestDriver_Refer(t *testing.T) {
	doc := testsupport.NewJournal(t)
	h := newHarness(t, doc)

	var result error = errors.New("not called")
	h.driver.Refer("CAR", "https://zorgdomein.example/verwijzen", func(err error) { result = err })
	h.sched.RunAll()

	require.NoError(t, result)
	assert.Equal(t, StageDone, h.driver.Stage())
	assert.Equal(t, "CAR", doc.ValueOf("specMnem"))
	assert.Equal(t, []string{
		"click:Verwijzen",
		"set_value:specMnem",
		"click:action_via zorgDomein",
		"open_url:",
	}, h.actionKinds())
	assert.Equal(t, "https://zorgdomein.example/verwijzen", doc.Actions()[3].Value)
}

func TestDriver_ReferOffContactPage(t *testing.T) {
	h := newHarness(t, testsupport.NewWizard(t, testsupport.ChoiceScreen))

	var result error
	h.driver.Refer("CAR", "https://zorgdomein.example", func(err error) { result = err })
	h.sched.RunAll()

	assert.ErrorIs(t, result, action.ErrPrecondition)
	assert.Empty(t, h.doc.Actions())
	assert.Equal(t, []string{msgNotContactPage}, h.notes.Messages(types.SeverityError))
}

func TestDriver_ReferLeavesContactPageMidway(t *testing.T) {
	doc := testsupport.NewJournal(t)
	h := newHarness(t, doc)

	var result error
	h.driver.Refer("CAR", "https://zorgdomein.example", func(err error) { result = err })
	h.sched.Flush()
	require.Equal(t, []string{"click:Verwijzen"}, h.actionKinds())

	// The practitioner opened another patient before the form appeared
	require.NoError(t, doc.SetFrame(testsupport.UploadFrameURL, testsupport.ChoiceScreen))
	h.sched.RunAll()

	assert.Equal(t, StageAborted, h.driver.Stage())
	assert.ErrorIs(t, result, action.ErrPrecondition)
	assert.Equal(t, []string{"click:Verwijzen"}, h.actionKinds())
	assert.Equal(t, []string{msgNotContactPage}, h.notes.Messages(types.SeverityError))
}

func TestDriver_GoTo(t *testing.T) {
	doc := testsupport.NewMenuHost(t)
	h := newHarness(t, doc)

	var result error = errors.New("not called")
	h.driver.GoTo("medovd-import", func(err error) { result = err })
	h.sched.Flush()
	assert.Equal(t, StageAwaitingNavigation, h.driver.Stage())

	h.sched.Advance(DefaultDelays().Shortcut)
	require.NoError(t, result)

	snap, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, inspect.IsImportScreen(snap, inspect.DefaultKeywords()))
}

func TestDriver_GoToUnknown(t *testing.T) {
	h := newHarness(t, testsupport.NewMenuHost(t))

	var result error
	h.driver.GoTo("agenda", func(err error) { result = err })
	h.sched.RunAll()

	assert.ErrorIs(t, result, ErrUnknownShortcut)
	assert.Empty(t, h.doc.Actions())
}

func TestDriver_SupersededCallback(t *testing.T) {
	h := newHarness(t, testsupport.NewJournal(t))

	var first error
	h.driver.Refer("CAR", "", func(err error) { first = err })
	h.sched.Flush()
	h.driver.GoTo("inschrijven", nil)
	h.sched.Flush()

	assert.ErrorIs(t, first, ErrSuperseded)
}

func TestPairFiles(t *testing.T) {
	edi, archive, ok := pairFiles([]types.FileRef{{Name: "x.zip"}, {Name: "y.edi"}})
	require.True(t, ok)
	assert.Equal(t, "y.edi", edi.Name)
	assert.Equal(t, "x.zip", archive.Name)

	_, _, ok = pairFiles([]types.FileRef{{Name: "x.zip"}, {Name: "y.zip"}})
	assert.False(t, ok)
}

func TestDelays_Validate(t *testing.T) {
	assert.NoError(t, DefaultDelays().Validate())

	d := DefaultDelays()
	d.Advance = 0
	assert.ErrorContains(t, d.Validate(), "advance")

	d = DefaultDelays()
	d.Shortcut = -time.Second
	assert.Error(t, d.Validate())
}
