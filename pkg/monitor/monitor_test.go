package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/formpilot/internal/testsupport"
	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/host/memdoc"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/notify"
	"github.com/entrhq/formpilot/pkg/session"
	"github.com/entrhq/formpilot/pkg/types"
	"github.com/entrhq/formpilot/pkg/workflow"
)

func setup(t *testing.T, frame string, stem string) (*memdoc.Document, *testsupport.ManualScheduler, *Monitor, *notify.Recorder) {
	t.Helper()
	doc := testsupport.NewHost(t, testsupport.UploadFrameURL, frame)
	sched := &testsupport.ManualScheduler{}
	sess := session.New()
	if stem != "" {
		sess.Remember(stem)
	}
	notes := &notify.Recorder{}
	m := New(action.New(doc, inspect.DefaultKeywords()), sched, sess, Options{Notifier: notes})
	return doc, sched, m, notes
}

func setValues(doc *memdoc.Document) int {
	n := 0
	for _, a := range doc.Actions() {
		if a.Kind == "set_value" {
			n++
		}
	}
	return n
}

func TestMonitor_FillsOnce(t *testing.T) {
	doc, sched, m, notes := setup(t, testsupport.DescriptionScreen, "ontslagbrief")
	ctx := context.Background()

	m.Trigger(ctx)
	sched.Flush()
	assert.Equal(t, "ontslagbrief", doc.ValueOf("omschrijving"))

	m.Trigger(ctx)
	sched.Flush()
	assert.Equal(t, 1, setValues(doc))
	assert.EqualValues(t, 1, m.Fills())
	assert.Equal(t, []string{"✓ Omschrijving ingevuld: ontslagbrief"}, notes.Messages(types.SeveritySuccess))
}

func TestMonitor_CoalescesTriggers(t *testing.T) {
	_, sched, m, _ := setup(t, testsupport.DescriptionScreen, "ontslagbrief")

	for i := 0; i < 5; i++ {
		m.Trigger(context.Background())
	}
	assert.Equal(t, 1, sched.Pending())
}

func TestMonitor_Ignores(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		stem  string
	}{
		{"no remembered stem", testsupport.DescriptionScreen, ""},
		{"upload screen", testsupport.UploadScreen, "ontslagbrief"},
		{"unrelated page", testsupport.OffTargetScreen, "ontslagbrief"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, sched, m, notes := setup(t, tt.frame, tt.stem)

			m.Trigger(context.Background())
			sched.Flush()

			assert.Empty(t, doc.Actions())
			assert.Empty(t, notes.Events())
		})
	}
}

func TestMonitor_DoesNotOverwrite(t *testing.T) {
	doc, sched, m, _ := setup(t, testsupport.DescriptionScreen, "ontslagbrief")
	h, err := doc.FindByID(context.Background(), "omschrijving")
	require.NoError(t, err)
	require.NoError(t, h.SetValue(context.Background(), "handmatig"))

	m.Trigger(context.Background())
	sched.Flush()

	assert.Equal(t, "handmatig", doc.ValueOf("omschrijving"))
	assert.Zero(t, m.Fills())
}

func TestMonitor_SharesFillWithDriver(t *testing.T) {
	doc := testsupport.NewWizard(t, testsupport.UploadScreen)
	sched := &testsupport.ManualScheduler{}
	sess := session.New()
	notes := &notify.Recorder{}
	exec := action.New(doc, inspect.DefaultKeywords())

	m := New(exec, sched, sess, Options{Notifier: notes})
	d := workflow.NewDriver(context.Background(), exec, sched, sess, workflow.Options{
		Config:   workflow.DefaultConfig(),
		Notifier: notes,
	})

	d.Upload(types.FileRef{Name: "ontslagbrief.pdf"})
	sched.Flush()
	delays := workflow.DefaultDelays()
	sched.Advance(delays.Upload + delays.Advance)
	require.Equal(t, workflow.StageAwaitingDescription, d.Stage())

	// The description screen rendered; the monitor gets there first
	m.Trigger(context.Background())
	sched.RunAll()

	assert.Equal(t, workflow.StageDone, d.Stage())
	assert.Equal(t, "ontslagbrief", doc.ValueOf("omschrijving"))
	assert.Equal(t, 1, setValues(doc))
	assert.EqualValues(t, 1, m.Fills())
}

func TestMonitor_RunFollowsMutations(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc, sched, m, _ := setup(t, testsupport.UploadScreen, "ontslagbrief")
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	// Keep mutating until the subscription is live and a check is queued
	require.Eventually(t, func() bool {
		if err := doc.SetFrame(testsupport.UploadFrameURL, testsupport.DescriptionScreen); err != nil {
			return false
		}
		return sched.Pending() > 0
	}, 2*time.Second, 10*time.Millisecond)

	sched.Flush()
	assert.Equal(t, "ontslagbrief", doc.ValueOf("omschrijving"))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type plainDocument struct {
	host.Document
}

func TestMonitor_RunRequiresObserver(t *testing.T) {
	doc := plainDocument{Document: testsupport.NewHost(t, testsupport.UploadFrameURL, testsupport.DescriptionScreen)}
	m := New(action.New(doc, inspect.DefaultKeywords()), &testsupport.ManualScheduler{}, session.New(), Options{})

	assert.ErrorIs(t, m.Run(context.Background()), ErrNotObservable)
}
