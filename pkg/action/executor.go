// Package action performs guarded synthetic interactions against the host
// document. Every state-changing step re-reads the document, re-checks the
// workflow guard and the classified screen, and isolates host faults into
// typed errors so that a failing step never takes the caller down with it.
package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/types"
)

var (
	// ErrGuardFailure means the document is not inside the upload workflow.
	ErrGuardFailure = errors.New("not in the document upload workflow")

	// ErrTargetNotFound means an expected control or field is missing.
	ErrTargetNotFound = errors.New("target not found")

	// ErrAccessFault means the document content could not be read or driven.
	ErrAccessFault = errors.New("document not accessible")

	// ErrPrecondition means the classified screen is not one the step acts on.
	ErrPrecondition = errors.New("unexpected screen")
)

// Executor performs interactions against one host document.
type Executor struct {
	doc host.Document
	kw  inspect.Keywords
}

// New creates an executor for doc.
func New(doc host.Document, kw inspect.Keywords) *Executor {
	return &Executor{doc: doc, kw: kw}
}

// Document returns the host document.
func (e *Executor) Document() host.Document {
	return e.doc
}

// Keywords returns the marker table used for classification.
func (e *Executor) Keywords() inspect.Keywords {
	return e.kw
}

// Observe captures and classifies the document. An unreadable document
// yields StateUnknown and a nil snapshot.
func (e *Executor) Observe(ctx context.Context) (types.WorkflowState, *inspect.Snapshot) {
	var snap *inspect.Snapshot
	err := isolate(func() error {
		var err error
		snap, err = e.doc.Snapshot(ctx)
		return err
	})
	if err != nil {
		return types.StateUnknown, nil
	}
	return inspect.Classify(snap, e.kw), snap
}

// Snapshot captures the document, mapping failures to ErrAccessFault.
func (e *Executor) Snapshot(ctx context.Context) (*inspect.Snapshot, error) {
	var snap *inspect.Snapshot
	err := isolate(func() error {
		var err error
		snap, err = e.doc.Snapshot(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccessFault, err)
	}
	return snap, nil
}

// Guarded runs fn after confirming, on a fresh snapshot, that the guard holds
// and that the classified screen is one of preconditions. An empty
// precondition set accepts any screen.
func (e *Executor) Guarded(ctx context.Context, preconditions []types.WorkflowState, fn func(ctx context.Context, state types.WorkflowState, snap *inspect.Snapshot) error) error {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !inspect.IsAuthorizedContext(snap, e.kw) {
		return ErrGuardFailure
	}
	state := inspect.Classify(snap, e.kw)
	if len(preconditions) > 0 && !state.In(preconditions...) {
		return fmt.Errorf("%w: %s", ErrPrecondition, state)
	}
	return fn(ctx, state, snap)
}

// FindControl locates a control by its visible text.
func (e *Executor) FindControl(ctx context.Context, role host.Role, texts ...string) (host.Handle, error) {
	var h host.Handle
	err := isolate(func() error {
		var err error
		h, err = e.doc.FindByVisibleText(ctx, role, texts...)
		return err
	})
	if err != nil {
		return nil, classifyErr(err, fmt.Sprintf("control %q", strings.Join(texts, "|")))
	}
	return h, nil
}

// FindField locates a field by an attribute substring.
func (e *Executor) FindField(ctx context.Context, kind host.Kind, attribute, needle string) (host.Handle, error) {
	var h host.Handle
	err := isolate(func() error {
		var err error
		h, err = e.doc.FindByAttributeSubstring(ctx, kind, attribute, needle)
		return err
	})
	if err != nil {
		return nil, classifyErr(err, fmt.Sprintf("%s with %s like %q", kind, attribute, needle))
	}
	return h, nil
}

// FindID locates an element by id.
func (e *Executor) FindID(ctx context.Context, id string) (host.Handle, error) {
	var h host.Handle
	err := isolate(func() error {
		var err error
		h, err = e.doc.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, classifyErr(err, fmt.Sprintf("element #%s", id))
	}
	return h, nil
}

// Invoke clicks the first control of role whose text contains any of texts.
func (e *Executor) Invoke(ctx context.Context, role host.Role, texts ...string) error {
	h, err := e.FindControl(ctx, role, texts...)
	if err != nil {
		return err
	}
	return e.Click(ctx, h)
}

// InvokeID clicks the element with the given id.
func (e *Executor) InvokeID(ctx context.Context, id string) error {
	h, err := e.FindID(ctx, id)
	if err != nil {
		return err
	}
	return e.Click(ctx, h)
}

// Click clicks h.
func (e *Executor) Click(ctx context.Context, h host.Handle) error {
	if err := isolate(func() error { return h.Click(ctx) }); err != nil {
		return fmt.Errorf("%w: click: %v", ErrAccessFault, err)
	}
	return nil
}

// AssignFiles sets the files of a file input.
func (e *Executor) AssignFiles(ctx context.Context, h host.Handle, files []types.FileRef) error {
	if err := isolate(func() error { return h.SetFiles(ctx, files) }); err != nil {
		return fmt.Errorf("%w: assign files: %v", ErrAccessFault, err)
	}
	return nil
}

// WriteIfEmpty writes value into the first field of kind whose attribute
// contains needle, unless the field already holds a value. It reports whether
// it wrote.
func (e *Executor) WriteIfEmpty(ctx context.Context, kind host.Kind, attribute, needle, value string) (bool, error) {
	h, err := e.FindField(ctx, kind, attribute, needle)
	if err != nil {
		return false, err
	}
	return e.writeHandleIfEmpty(ctx, h, value)
}

func (e *Executor) writeHandleIfEmpty(ctx context.Context, h host.Handle, value string) (bool, error) {
	var current string
	if err := isolate(func() error {
		var err error
		current, err = h.Value(ctx)
		return err
	}); err != nil {
		return false, fmt.Errorf("%w: read value: %v", ErrAccessFault, err)
	}
	if strings.TrimSpace(current) != "" {
		return false, nil
	}
	if err := isolate(func() error { return h.SetValue(ctx, value) }); err != nil {
		return false, fmt.Errorf("%w: write value: %v", ErrAccessFault, err)
	}
	return true, nil
}

// Fill writes value into the element with the given id. Selects take the
// option chosen by host.MatchOption, radio buttons are checked, and
// everything else receives value as text. It reports false without error
// when the element or a matching option is missing.
func (e *Executor) Fill(ctx context.Context, id, value string) (bool, error) {
	h, err := e.FindID(ctx, id)
	if errors.Is(err, ErrTargetNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch h.Tag() {
	case "select":
		return e.selectWhere(ctx, h, func(options []host.Option) (host.Option, bool) {
			return host.MatchOption(options, value)
		})
	case "input":
		var inputType string
		if err := isolate(func() error {
			var err error
			inputType, err = h.Type(ctx)
			return err
		}); err != nil {
			return false, fmt.Errorf("%w: read type: %v", ErrAccessFault, err)
		}
		if inputType == "radio" || inputType == "checkbox" {
			return e.check(ctx, h)
		}
	}

	if err := isolate(func() error { return h.SetValue(ctx, value) }); err != nil {
		return false, fmt.Errorf("%w: write value: %v", ErrAccessFault, err)
	}
	return true, nil
}

// SelectContaining picks the first option of the select with the given id
// whose text contains every needle. It reports false without error when the
// select or a matching option is missing.
func (e *Executor) SelectContaining(ctx context.Context, id string, needles ...string) (bool, error) {
	h, err := e.FindID(ctx, id)
	if errors.Is(err, ErrTargetNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.selectWhere(ctx, h, func(options []host.Option) (host.Option, bool) {
		for _, opt := range options {
			all := true
			for _, needle := range needles {
				if !strings.Contains(opt.Text, needle) {
					all = false
					break
				}
			}
			if all {
				return opt, true
			}
		}
		return host.Option{}, false
	})
}

// Check checks the radio button or checkbox with the given id. It reports
// false without error when the element is missing.
func (e *Executor) Check(ctx context.Context, id string) (bool, error) {
	h, err := e.FindID(ctx, id)
	if errors.Is(err, ErrTargetNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.check(ctx, h)
}

// OpenURL opens url in a new browser context.
func (e *Executor) OpenURL(ctx context.Context, url string) error {
	if err := isolate(func() error { return e.doc.OpenURL(ctx, url) }); err != nil {
		return fmt.Errorf("%w: open url: %v", ErrAccessFault, err)
	}
	return nil
}

func (e *Executor) check(ctx context.Context, h host.Handle) (bool, error) {
	if err := isolate(func() error { return h.Check(ctx) }); err != nil {
		return false, fmt.Errorf("%w: check: %v", ErrAccessFault, err)
	}
	return true, nil
}

func (e *Executor) selectWhere(ctx context.Context, h host.Handle, pick func([]host.Option) (host.Option, bool)) (bool, error) {
	var options []host.Option
	if err := isolate(func() error {
		var err error
		options, err = h.Options(ctx)
		return err
	}); err != nil {
		return false, fmt.Errorf("%w: read options: %v", ErrAccessFault, err)
	}
	opt, ok := pick(options)
	if !ok {
		return false, nil
	}
	if err := isolate(func() error { return h.SetValue(ctx, opt.Value) }); err != nil {
		return false, fmt.Errorf("%w: select option: %v", ErrAccessFault, err)
	}
	return true, nil
}

// classifyErr maps a lookup error onto the executor's error kinds.
func classifyErr(err error, what string) error {
	if errors.Is(err, host.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, what)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrAccessFault, what, err)
}

// isolate runs fn, turning a panic inside a host binding into an error.
func isolate(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host binding panic: %v", r)
		}
	}()
	return fn()
}
