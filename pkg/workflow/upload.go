package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/types"
)

var descriptionKinds = []host.Kind{host.KindInput, host.KindTextArea}

// startUpload begins the upload wizard for file:
//
//	Idle -> AwaitingNavigation -> Uploading -> AwaitingAdvance1 ->
//	AwaitingAdvance2 -> AwaitingDescription -> Done
//
// Every step re-reads the document and re-checks the guard before acting.
func (d *Driver) startUpload(file types.FileRef) {
	task := types.NewPendingTask(types.TaskSingleFileUpload, file)
	d.sess.Begin(task)
	d.begin(JobUpload, task.ID, task, nil)
	d.post(StageIdle, "start", d.uploadStart)
}

func (d *Driver) uploadStart(ctx context.Context) {
	id := d.currentJobID()
	kw := d.exec.Keywords()

	err := d.exec.Guarded(ctx, []types.WorkflowState{types.StateInitialChoice, types.StateFileUploadScreen},
		func(ctx context.Context, state types.WorkflowState, _ *inspect.Snapshot) error {
			if state == types.StateFileUploadScreen {
				d.post(StageUploading, "upload", d.uploadAssign)
				return nil
			}
			if err := d.exec.Invoke(ctx, host.RoleClickable, kw.UploadEntry); err != nil {
				return err
			}
			d.notify(msgNavigating, types.SeverityInfo)
			d.schedule(d.cfg.Delays.Navigate, StageAwaitingNavigation, "navigate", d.uploadNavigated)
			return nil
		})
	if err != nil {
		d.abortFor(id, err, msgUploadEntryMissing, msgUnknownState)
	}
}

func (d *Driver) uploadNavigated(ctx context.Context) {
	id := d.currentJobID()

	err := d.exec.Guarded(ctx, []types.WorkflowState{types.StateFileUploadScreen},
		func(context.Context, types.WorkflowState, *inspect.Snapshot) error {
			d.post(StageUploading, "upload", d.uploadAssign)
			return nil
		})
	if err != nil {
		d.abortFor(id, err, msgUploadScreenMissing, msgUploadScreenMissing)
	}
}

func (d *Driver) uploadAssign(ctx context.Context) {
	id := d.currentJobID()
	task := d.currentTask()

	err := d.exec.Guarded(ctx, []types.WorkflowState{types.StateFileUploadScreen},
		func(ctx context.Context, _ types.WorkflowState, _ *inspect.Snapshot) error {
			input, err := d.exec.FindField(ctx, host.KindFile, "type", "file")
			if err != nil {
				return err
			}
			if err := d.exec.AssignFiles(ctx, input, task.Files[:1]); err != nil {
				return err
			}

			file := task.Files[0]
			if pages := pageCount(file); pages > 0 {
				d.notify(fmt.Sprintf(msgFileAddedPages, file.Name, pages), types.SeveritySuccess)
			} else {
				d.notify(fmt.Sprintf(msgFileAdded, file.Name), types.SeveritySuccess)
			}
			d.schedule(d.cfg.Delays.Upload, StageAwaitingAdvance1, "advance1", d.uploadAdvance1)
			return nil
		})
	if err != nil {
		d.abortFor(id, err, msgUploadFieldMissing, msgUploadFieldMissing)
	}
}

func (d *Driver) uploadAdvance1(ctx context.Context) {
	id := d.currentJobID()
	kw := d.exec.Keywords()

	err := d.exec.Guarded(ctx,
		[]types.WorkflowState{types.StateFileUploadScreen, types.StateControlStep, types.StateDescriptionScreen},
		func(ctx context.Context, state types.WorkflowState, _ *inspect.Snapshot) error {
			if state == types.StateDescriptionScreen {
				d.post(StageAwaitingDescription, "describe", d.uploadDescribe)
				return nil
			}
			if err := d.exec.Invoke(ctx, host.RoleControl, kw.AdvanceLabels...); err != nil {
				return err
			}
			d.notify(msgAdvance, types.SeveritySuccess)
			d.schedule(d.cfg.Delays.Advance, StageAwaitingAdvance2, "advance2", d.uploadAdvance2)
			return nil
		})

	switch {
	case err == nil:
	case errors.Is(err, action.ErrTargetNotFound), errors.Is(err, action.ErrAccessFault):
		// The file is attached; the user can continue by hand.
		d.complete(id, msgManualAdvance, types.SeverityInfo)
	default:
		d.abortFor(id, err, msgManualAdvance, msgUnknownState)
	}
}

func (d *Driver) uploadAdvance2(ctx context.Context) {
	id := d.currentJobID()
	kw := d.exec.Keywords()

	err := d.exec.Guarded(ctx, nil,
		func(ctx context.Context, state types.WorkflowState, snap *inspect.Snapshot) error {
			if state == types.StateDescriptionScreen {
				d.post(StageAwaitingDescription, "describe", d.uploadDescribe)
				return nil
			}
			// Any other screen that still offers a submit control is a
			// review step, with or without the preview wording.
			if target := snap.Target(); state == types.StateControlStep || (target != nil && target.HasSubmitControl()) {
				err := d.exec.Invoke(ctx, host.RoleControl, kw.SecondAdvanceLabels...)
				if err != nil && !errors.Is(err, action.ErrTargetNotFound) {
					return err
				}
				if err == nil {
					d.notify(msgToDescription, types.SeveritySuccess)
				}
			}
			d.schedule(d.cfg.Delays.Description, StageAwaitingDescription, "describe", d.uploadDescribe)
			return nil
		})

	switch {
	case err == nil:
	case errors.Is(err, action.ErrAccessFault):
		// Treated as an unknown screen; the description step retries.
		d.schedule(d.cfg.Delays.Description, StageAwaitingDescription, "describe", d.uploadDescribe)
	default:
		d.abortFor(id, err, msgUnknownState, msgUnknownState)
	}
}

func (d *Driver) uploadDescribe(ctx context.Context) {
	id := d.currentJobID()
	stem := d.sess.Stem()

	err := d.exec.Guarded(ctx, []types.WorkflowState{types.StateDescriptionScreen},
		func(ctx context.Context, _ types.WorkflowState, _ *inspect.Snapshot) error {
			wrote, err := FillDescription(ctx, d.exec, stem)
			if err != nil {
				return err
			}
			if wrote {
				d.complete(id, fmt.Sprintf(msgDescriptionFilled, stem), types.SeveritySuccess)
			} else {
				d.complete(id, msgDescriptionPresent, types.SeverityInfo)
			}
			return nil
		})

	if err == nil {
		return
	}
	if errors.Is(err, action.ErrGuardFailure) {
		d.abort(id, msgNotUploadPage, err)
		return
	}
	// The change monitor may still fill the field once it appears.
	d.complete(id, msgDescriptionMissing, types.SeverityInfo)
}

// abortFor aborts with the message matching err: the guard message for guard
// failures, notFound for missing targets, other for everything else.
func (d *Driver) abortFor(id string, err error, notFound, other string) {
	switch {
	case errors.Is(err, action.ErrGuardFailure):
		d.abort(id, msgNotUploadPage, err)
	case errors.Is(err, action.ErrTargetNotFound):
		d.abort(id, notFound, err)
	case errors.Is(err, action.ErrAccessFault):
		d.abort(id, msgAccessFault, err)
	default:
		d.abort(id, other, err)
	}
}

// FillDescription writes stem into the empty description field of the
// current screen. It reports false when the field already holds a value and
// returns action.ErrTargetNotFound when there is no description field.
func FillDescription(ctx context.Context, exec *action.Executor, stem string) (bool, error) {
	if stem == "" {
		return false, nil
	}
	for _, needle := range exec.Keywords().DescriptionNeedles {
		for _, kind := range descriptionKinds {
			for _, attribute := range []string{"name", "id"} {
				wrote, err := exec.WriteIfEmpty(ctx, kind, attribute, needle, stem)
				if errors.Is(err, action.ErrTargetNotFound) {
					continue
				}
				return wrote, err
			}
		}
	}
	return false, fmt.Errorf("%w: description field", action.ErrTargetNotFound)
}
