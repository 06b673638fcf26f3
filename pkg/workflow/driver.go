package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/notify"
	"github.com/entrhq/formpilot/pkg/session"
	"github.com/entrhq/formpilot/pkg/types"
)

var (
	// ErrSuperseded is reported to a job's callback when a newer job replaces it.
	ErrSuperseded = errors.New("superseded by a newer task")

	// ErrUnknownShortcut is returned for a shortcut name that is not configured.
	ErrUnknownShortcut = errors.New("unknown shortcut")
)

// step identifies one scheduled continuation. A continuation only runs if the
// driver still expects exactly this step when it fires.
type step struct {
	jobID  string
	stage  Stage
	action string
}

type job struct {
	id     string
	kind   JobKind
	stage  Stage
	expect step
	task   *types.PendingTask
	done   func(error)
}

// Options configures a Driver.
type Options struct {
	Config   Config
	Notifier notify.Notifier
	Logger   *logging.Logger

	// OnTransition, when set, is called after every stage change.
	OnTransition func(Transition)
}

// Driver runs the multi-step flows against the host document: the upload
// wizard, the paired EDI/archive import, the referral flow and menu
// shortcuts. All document access happens on the scheduler's timeline. At most
// one job is live; starting a job supersedes the previous one, whose pending
// continuations then become no-ops.
type Driver struct {
	ctx          context.Context
	exec         *action.Executor
	sched        Scheduler
	sess         *session.Session
	cfg          Config
	notifier     notify.Notifier
	log          *logging.Logger
	onTransition func(Transition)

	mu  sync.Mutex
	job job
}

// NewDriver creates a driver. ctx bounds every host call the driver makes.
func NewDriver(ctx context.Context, exec *action.Executor, sched Scheduler, sess *session.Session, opts Options) *Driver {
	cfg := opts.Config
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultConfig().StepTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Multi{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop("workflow")
	}
	return &Driver{
		ctx:          ctx,
		exec:         exec,
		sched:        sched,
		sess:         sess,
		cfg:          cfg,
		notifier:     opts.Notifier,
		log:          opts.Logger,
		onTransition: opts.OnTransition,
		job:          job{stage: StageIdle},
	}
}

// Stage returns the stage of the current job.
func (d *Driver) Stage() Stage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.job.stage
}

// JobID returns the id of the current job, or "" before the first job.
func (d *Driver) JobID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.job.id
}

// Upload starts the upload wizard for file.
func (d *Driver) Upload(file types.FileRef) {
	d.sched.Post(func() { d.startUpload(file) })
}

// HandleDrop routes dropped files: on the import screen they go to the paired
// import, anywhere else the first file starts an upload.
func (d *Driver) HandleDrop(files []types.FileRef) {
	d.sched.Post(func() {
		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.StepTimeout)
		defer cancel()

		if d.onImportScreen(ctx) {
			d.startImport(files)
			return
		}
		if len(files) == 0 {
			return
		}
		if len(files) > 1 {
			d.log.Infof("drop of %d files outside the import screen, uploading %s only", len(files), files[0].Name)
		}
		d.startUpload(files[0])
	})
}

// Import starts the paired import for files. Anything but exactly one .edi
// and one .zip file is ignored.
func (d *Driver) Import(files []types.FileRef) {
	d.sched.Post(func() { d.startImport(files) })
}

// Refer opens the referral form on the consultation journal, enters the
// specialism code and hands off to the referral service. With a non-empty
// targetURL that address is opened in a new browser context. done, when set,
// receives the outcome.
func (d *Driver) Refer(code, targetURL string, done func(error)) {
	d.sched.Post(func() { d.startReferral(code, targetURL, done) })
}

// GoTo runs the named menu shortcut. done, when set, receives the outcome.
func (d *Driver) GoTo(name string, done func(error)) {
	d.sched.Post(func() { d.startShortcut(name, done) })
}

// begin makes a new job current, superseding the previous one.
func (d *Driver) begin(kind JobKind, id string, task *types.PendingTask, done func(error)) {
	d.mu.Lock()
	prev := d.job
	d.job = job{id: id, kind: kind, stage: StageIdle, task: task, done: done}
	d.mu.Unlock()

	if prev.id != "" && !prev.stage.Terminal() {
		d.log.Infof("job %s (%s) superseded by %s (%s) at stage %s", prev.id, prev.kind, id, kind, prev.stage)
		if prev.done != nil {
			prev.done(ErrSuperseded)
		}
	}
	d.log.Infof("job %s (%s) started", id, kind)
	d.emit(Transition{JobID: id, Kind: kind, Stage: StageIdle})
}

// schedule moves the current job to stage and runs fn after delay, provided
// the job is still waiting for this step when the timer fires.
func (d *Driver) schedule(delay time.Duration, stage Stage, actionName string, fn func(ctx context.Context)) {
	k, ok := d.expect(stage, actionName)
	if !ok {
		return
	}
	d.sched.After(delay, func() { d.fire(k, fn) })
}

// post is schedule without a delay.
func (d *Driver) post(stage Stage, actionName string, fn func(ctx context.Context)) {
	k, ok := d.expect(stage, actionName)
	if !ok {
		return
	}
	d.sched.Post(func() { d.fire(k, fn) })
}

func (d *Driver) expect(stage Stage, actionName string) (step, bool) {
	d.mu.Lock()
	if d.job.stage.Terminal() {
		d.mu.Unlock()
		return step{}, false
	}
	changed := d.job.stage != stage
	d.job.stage = stage
	k := step{jobID: d.job.id, stage: stage, action: actionName}
	d.job.expect = k
	t := Transition{JobID: d.job.id, Kind: d.job.kind, Stage: stage}
	d.mu.Unlock()

	if changed {
		d.log.Debugf("job %s -> %s (%s)", k.jobID, stage, actionName)
		d.emit(t)
	}
	return k, true
}

// fire runs a continuation if it is still the expected one.
func (d *Driver) fire(k step, fn func(ctx context.Context)) {
	d.mu.Lock()
	current := d.job.expect == k && !d.job.stage.Terminal()
	task := d.job.task
	d.mu.Unlock()

	if !current {
		d.log.Debugf("stale continuation %s/%s/%s ignored", k.jobID, k.stage, k.action)
		return
	}
	if task != nil && !d.sess.IsActive(task.ID) {
		d.log.Debugf("continuation %s/%s for inactive task ignored", k.jobID, k.action)
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.StepTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("panic in %s/%s: %v", k.jobID, k.action, r)
			d.abort(k.jobID, msgInternalError, fmt.Errorf("panic: %v", r))
		}
	}()
	fn(ctx)
}

// complete ends job jobID successfully.
func (d *Driver) complete(jobID, message string, severity types.Severity) {
	d.finish(jobID, StageDone, message, severity, nil)
}

// abort ends job jobID with an error notification. An empty message ends the
// job silently.
func (d *Driver) abort(jobID, message string, err error) {
	if err == nil {
		err = errors.New(message)
	}
	d.finish(jobID, StageAborted, message, types.SeverityError, err)
}

func (d *Driver) finish(jobID string, stage Stage, message string, severity types.Severity, err error) {
	d.mu.Lock()
	if d.job.id != jobID || d.job.stage.Terminal() {
		d.mu.Unlock()
		return
	}
	d.job.stage = stage
	j := d.job
	d.mu.Unlock()

	if j.task != nil {
		d.sess.Finish(j.task.ID)
	}
	if err != nil {
		d.log.Warnf("job %s (%s) %s: %v", j.id, j.kind, stage, err)
	} else {
		d.log.Infof("job %s (%s) %s", j.id, j.kind, stage)
	}
	if message != "" {
		d.notifier.Notify(message, severity)
	}
	d.emit(Transition{JobID: j.id, Kind: j.kind, Stage: stage, Err: err})
	if j.done != nil {
		j.done(err)
	}
}

func (d *Driver) notify(message string, severity types.Severity) {
	d.notifier.Notify(message, severity)
}

func (d *Driver) emit(t Transition) {
	if d.onTransition != nil {
		d.onTransition(t)
	}
}

// currentTask returns the task of the current job.
func (d *Driver) currentTask() *types.PendingTask {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.job.task
}

func (d *Driver) currentJobID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.job.id
}

func newJobID() string {
	return uuid.New().String()
}
