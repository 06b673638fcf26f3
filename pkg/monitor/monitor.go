// Package monitor fills the upload description whenever the host re-renders
// into the description screen, independent of where the workflow driver is.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/notify"
	"github.com/entrhq/formpilot/pkg/session"
	"github.com/entrhq/formpilot/pkg/types"
	"github.com/entrhq/formpilot/pkg/workflow"
)

const msgFilled = "✓ Omschrijving ingevuld: %s"

// ErrNotObservable is returned by Run when the document cannot report mutations.
var ErrNotObservable = errors.New("document does not report mutations")

// Options configures a Monitor.
type Options struct {
	Notifier notify.Notifier
	Logger   *logging.Logger
}

// Monitor reacts to document mutations. Checks run on the same scheduler as
// the workflow driver and at most one check is queued at a time, so a burst
// of mutations costs one snapshot.
type Monitor struct {
	exec     *action.Executor
	sched    workflow.Scheduler
	sess     *session.Session
	notifier notify.Notifier
	log      *logging.Logger

	queued atomic.Bool
	fills  atomic.Int64
}

// New creates a monitor.
func New(exec *action.Executor, sched workflow.Scheduler, sess *session.Session, opts Options) *Monitor {
	if opts.Notifier == nil {
		opts.Notifier = notify.Multi{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop("monitor")
	}
	return &Monitor{
		exec:     exec,
		sched:    sched,
		sess:     sess,
		notifier: opts.Notifier,
		log:      opts.Logger,
	}
}

// Run subscribes to the document's mutations and triggers a check for each
// signal until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	observer, ok := m.exec.Document().(host.Observer)
	if !ok {
		return ErrNotObservable
	}
	signals, err := observer.Mutations(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to mutations: %w", err)
	}

	m.log.Infof("watching document mutations")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			m.Trigger(ctx)
		}
	}
}

// Trigger queues a check on the scheduler unless one is already queued.
func (m *Monitor) Trigger(ctx context.Context) {
	if !m.queued.CompareAndSwap(false, true) {
		return
	}
	m.sched.Post(func() {
		m.queued.Store(false)
		m.check(ctx)
	})
}

// Fills returns how many descriptions the monitor has written.
func (m *Monitor) Fills() int64 {
	return m.fills.Load()
}

func (m *Monitor) check(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stem := m.sess.Stem()
	if stem == "" {
		return
	}

	err := m.exec.Guarded(ctx, []types.WorkflowState{types.StateDescriptionScreen},
		func(ctx context.Context, _ types.WorkflowState, _ *inspect.Snapshot) error {
			wrote, err := workflow.FillDescription(ctx, m.exec, stem)
			if err != nil {
				return err
			}
			if wrote {
				m.fills.Add(1)
				m.log.Infof("description filled with %q", stem)
				m.notifier.Notify(fmt.Sprintf(msgFilled, stem), types.SeveritySuccess)
			}
			return nil
		})

	switch {
	case err == nil,
		errors.Is(err, action.ErrPrecondition),
		errors.Is(err, action.ErrGuardFailure):
	default:
		m.log.Debugf("description check: %v", err)
	}
}
