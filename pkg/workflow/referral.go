package workflow

import (
	"context"
	"fmt"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/types"
)

func (d *Driver) startReferral(code, targetURL string, done func(error)) {
	d.begin(JobReferral, newJobID(), nil, done)
	d.post(StageIdle, "referral-start", func(ctx context.Context) {
		d.referralStart(ctx, code, targetURL)
	})
}

// onContactPage re-reads the document and aborts job id unless the content
// frame still shows the consultation journal.
func (d *Driver) onContactPage(ctx context.Context, id string) bool {
	snap, err := d.exec.Snapshot(ctx)
	if err != nil {
		d.abort(id, msgAccessFault, err)
		return false
	}
	if !inspect.IsContactPage(snap, d.exec.Keywords()) {
		d.abort(id, msgNotContactPage, fmt.Errorf("%w: not on the consultation journal", action.ErrPrecondition))
		return false
	}
	return true
}

func (d *Driver) referralStart(ctx context.Context, code, targetURL string) {
	id := d.currentJobID()

	if !d.onContactPage(ctx, id) {
		return
	}

	if err := d.exec.Invoke(ctx, host.RoleClickable, d.cfg.Referral.ActionLabel); err != nil {
		d.abort(id, msgReferralMissing, err)
		return
	}
	d.schedule(d.cfg.Delays.ReferralForm, StageAwaitingNavigation, "referral-form", func(ctx context.Context) {
		d.referralForm(ctx, code, targetURL)
	})
}

func (d *Driver) referralForm(ctx context.Context, code, targetURL string) {
	id := d.currentJobID()
	if !d.onContactPage(ctx, id) {
		return
	}

	if code != "" {
		ok, err := d.exec.Fill(ctx, d.cfg.Referral.CodeField, code)
		if err != nil {
			d.abort(id, msgAccessFault, err)
			return
		}
		if !ok {
			d.log.Warnf("referral code field %s not found", d.cfg.Referral.CodeField)
		}
	}

	if err := d.exec.InvokeID(ctx, d.cfg.Referral.ViaButton); err != nil {
		d.abort(id, msgReferralFormGone, err)
		return
	}
	d.schedule(d.cfg.Delays.ReferralOpen, StageAwaitingAdvance1, "referral-open", func(ctx context.Context) {
		d.referralOpen(ctx, targetURL)
	})
}

func (d *Driver) referralOpen(ctx context.Context, targetURL string) {
	id := d.currentJobID()
	if !d.onContactPage(ctx, id) {
		return
	}

	if targetURL != "" {
		if err := d.exec.OpenURL(ctx, targetURL); err != nil {
			d.abort(id, msgAccessFault, err)
			return
		}
		d.complete(id, fmt.Sprintf(msgReferralOpened, targetURL), types.SeveritySuccess)
		return
	}

	if err := d.exec.InvokeID(ctx, d.cfg.Referral.FallbackButton); err != nil {
		d.abort(id, msgReferralFormGone, err)
		return
	}
	d.complete(id, msgReferralSubmitted, types.SeveritySuccess)
}
