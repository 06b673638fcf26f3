package workflow

import (
	"context"
	"fmt"

	"github.com/entrhq/formpilot/pkg/types"
)

func (d *Driver) startShortcut(name string, done func(error)) {
	shortcut, ok := d.cfg.Shortcut(name)
	if !ok {
		d.notify(fmt.Sprintf(msgShortcutUnknown, name), types.SeverityError)
		if done != nil {
			done(fmt.Errorf("%w: %s", ErrUnknownShortcut, name))
		}
		return
	}

	d.begin(JobShortcut, newJobID(), nil, done)
	d.post(StageIdle, "menu", func(ctx context.Context) {
		id := d.currentJobID()
		if err := d.exec.InvokeID(ctx, shortcut.Menu); err != nil {
			d.abort(id, fmt.Sprintf(msgMenuMissing, shortcut.Menu), err)
			return
		}
		d.schedule(d.cfg.Delays.Shortcut, StageAwaitingNavigation, "sidebar", func(ctx context.Context) {
			d.shortcutButton(ctx, shortcut)
		})
	})
}

func (d *Driver) shortcutButton(ctx context.Context, shortcut Shortcut) {
	id := d.currentJobID()
	if err := d.exec.InvokeID(ctx, shortcut.Button); err != nil {
		d.abort(id, fmt.Sprintf(msgButtonMissing, shortcut.Button), err)
		return
	}
	title := shortcut.Title
	if title == "" {
		title = shortcut.Name
	}
	d.complete(id, fmt.Sprintf(msgShortcutDone, title), types.SeveritySuccess)
}
