// Package intake writes a parsed field record into the patient registration
// form through a static alias table of target ids and value transforms.
package intake

import (
	"context"
	"errors"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/fields"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/logging"
)

const personPrefix = "patientPersoonWrapper.persoon."

// Rule maps one canonical label to a target element id.
type Rule struct {
	Label     fields.Label
	Target    string
	Transform Transform
}

// DefaultRules returns the alias table of the registration form. The order is
// the order in which fields are written.
func DefaultRules() []Rule {
	return []Rule{
		{Label: fields.MaidenName, Target: personPrefix + "achternaam"},
		{Label: fields.Surname, Target: personPrefix + "partnerachternaam"},
		{Label: fields.Prefix, Target: personPrefix + "tussenvoegsel"},
		{Label: fields.NameOrder, Target: personPrefix + "naamgebruik", Transform: NameOrder},
		{Label: fields.Initials, Target: personPrefix + "voorletters", Transform: Initials},
		{Label: fields.FirstNames, Target: personPrefix + "roepnaam"},
		{Label: fields.Birthdate, Target: personPrefix + "geboortedatum", Transform: Date},
		{Label: fields.Birthplace, Target: personPrefix + "geboorteplaats"},
		{Label: fields.Gender, Target: personPrefix + "geslachtString", Transform: Gender},
		{Label: fields.Occupation, Target: personPrefix + "beroep"},
		{Label: fields.Phone, Target: personPrefix + "telefoonnummer1"},
		{Label: fields.Email, Target: personPrefix + "email"},
		{Label: fields.BSN, Target: "bsn"},
		{Label: fields.IDNumber, Target: personPrefix + "identificatieDocNumber"},
		{Label: fields.IDType, Target: personPrefix + "widDocSoort", Transform: IDType},
	}
}

// Config holds the fixed selections made on every fill.
type Config struct {
	// PractitionerSelect is the id of the practitioner select.
	PractitionerSelect string `yaml:"practitioner_select" json:"practitioner_select"`

	// PractitionerNeedles must all appear in the chosen option's text. No
	// selection is made when empty.
	PractitionerNeedles []string `yaml:"practitioner_needles" json:"practitioner_needles"`

	// IdentityVerifiedRadio is the id of the "identity verified: yes" radio.
	// It is checked on every fill when set.
	IdentityVerifiedRadio string `yaml:"identity_verified_radio" json:"identity_verified_radio"`
}

// DefaultConfig returns the selections for the registration form.
func DefaultConfig() Config {
	return Config{
		PractitionerSelect:    "praktijkMedewerker",
		IdentityVerifiedRadio: "identiteitVergewistJa",
	}
}

// Result summarises one fill.
type Result struct {
	// Written counts successful writes, including the fixed selections.
	Written int

	// Missed lists labels present in the record whose target or option was
	// not found.
	Missed []fields.Label
}

// Writer fills the registration form.
type Writer struct {
	exec   *action.Executor
	rules  []Rule
	config Config
	log    *logging.Logger
}

// NewWriter creates a writer using the default alias table.
func NewWriter(exec *action.Executor, config Config, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.Nop("intake")
	}
	return &Writer{exec: exec, rules: DefaultRules(), config: config, log: log}
}

// Ready reports whether the document shows the registration form.
func (w *Writer) Ready(ctx context.Context) bool {
	snap, err := w.exec.Snapshot(ctx)
	if err != nil {
		return false
	}
	return inspect.IsPatientForm(snap, w.exec.Keywords())
}

// Fill writes rec into the form. Missing targets and unmatched options are
// counted as misses and never stop the fill; only a cancelled context does.
func (w *Writer) Fill(ctx context.Context, rec fields.Record) (Result, error) {
	var res Result

	for _, rule := range w.rules {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		raw, ok := rec.Get(rule.Label)
		if !ok || raw == "" {
			continue
		}
		value := raw
		if rule.Transform != nil {
			value = rule.Transform(raw)
		}

		written, err := w.exec.Fill(ctx, rule.Target, value)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			w.log.Warnf("fill %s into %s: %v", rule.Label, rule.Target, err)
		}
		if written {
			res.Written++
			continue
		}
		w.log.Debugf("no target for %s (%s)", rule.Label, rule.Target)
		res.Missed = append(res.Missed, rule.Label)
	}

	if w.config.PractitionerSelect != "" && len(w.config.PractitionerNeedles) > 0 {
		ok, err := w.exec.SelectContaining(ctx, w.config.PractitionerSelect, w.config.PractitionerNeedles...)
		if err != nil {
			w.log.Warnf("select practitioner: %v", err)
		}
		if ok {
			res.Written++
		}
	}

	if w.config.IdentityVerifiedRadio != "" {
		ok, err := w.exec.Check(ctx, w.config.IdentityVerifiedRadio)
		if err != nil {
			w.log.Warnf("check identity verified: %v", err)
		}
		if ok {
			res.Written++
		}
	}

	return res, ctx.Err()
}
