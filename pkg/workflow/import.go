package workflow

import (
	"context"
	"errors"

	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/types"
)

var errNotImportScreen = errors.New("import screen not shown")

// pairFiles returns the .edi and .zip file of a two-file drop.
func pairFiles(files []types.FileRef) (edi, archive types.FileRef, ok bool) {
	if len(files) != 2 {
		return types.FileRef{}, types.FileRef{}, false
	}
	var haveEDI, haveArchive bool
	for _, f := range files {
		switch {
		case f.HasExtension(".edi") && !haveEDI:
			edi, haveEDI = f, true
		case f.HasExtension(".zip") && !haveArchive:
			archive, haveArchive = f, true
		}
	}
	return edi, archive, haveEDI && haveArchive
}

func (d *Driver) onImportScreen(ctx context.Context) bool {
	snap, err := d.exec.Snapshot(ctx)
	if err != nil {
		return false
	}
	return inspect.IsImportScreen(snap, d.exec.Keywords())
}

// startImport fills the EDI and archive inputs of the import screen and,
// after the import delay, submits them. Drops that are not exactly one .edi
// and one .zip file, or that arrive off the import screen, are ignored
// without notification.
func (d *Driver) startImport(files []types.FileRef) {
	edi, archive, ok := pairFiles(files)
	if !ok {
		d.log.Debugf("import ignored: %d files are not one .edi and one .zip", len(files))
		return
	}

	task := types.NewPendingTask(types.TaskPairedFileImport, edi, archive)
	d.sess.Begin(task)
	d.begin(JobImport, task.ID, task, nil)
	d.post(StageUploading, "import-assign", d.importAssign)
}

func (d *Driver) importAssign(ctx context.Context) {
	id := d.currentJobID()
	task := d.currentTask()
	kw := d.exec.Keywords()

	if !d.onImportScreen(ctx) {
		d.abort(id, "", errNotImportScreen)
		return
	}

	ediInput, err := d.exec.FindID(ctx, kw.ImportEDIInput)
	if err != nil {
		d.abort(id, "", err)
		return
	}
	archiveInput, err := d.exec.FindID(ctx, kw.ImportArchiveInput)
	if err != nil {
		d.abort(id, "", err)
		return
	}
	if _, err := d.exec.FindID(ctx, kw.ImportSubmit); err != nil {
		d.abort(id, "", err)
		return
	}

	if err := d.exec.AssignFiles(ctx, ediInput, task.Files[:1]); err != nil {
		d.abort(id, msgAccessFault, err)
		return
	}
	if err := d.exec.AssignFiles(ctx, archiveInput, task.Files[1:2]); err != nil {
		d.abort(id, msgAccessFault, err)
		return
	}

	d.notify(msgImportFilesAdded, types.SeveritySuccess)
	d.schedule(d.cfg.Delays.Import, StageAwaitingAdvance1, "import-submit", d.importSubmit)
}

func (d *Driver) importSubmit(ctx context.Context) {
	id := d.currentJobID()

	if !d.onImportScreen(ctx) {
		d.abort(id, msgImportScreenGone, errNotImportScreen)
		return
	}
	if err := d.exec.InvokeID(ctx, d.exec.Keywords().ImportSubmit); err != nil {
		d.abort(id, msgImportTargetsGone, err)
		return
	}
	d.complete(id, msgImportSubmitted, types.SeveritySuccess)
}
