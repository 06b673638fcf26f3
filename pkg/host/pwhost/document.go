package pwhost

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/types"
)

// Document implements host.Document, host.Observer and host.DropBridge over
// one Playwright page.
type Document struct {
	owner        *Browser
	page         playwright.Page
	contentFrame string
	log          *logging.Logger

	mutations host.Fanout

	mu        sync.Mutex
	observing bool
	bridged   bool
	released  bool
	drops     []func([]types.FileRef)
}

func newDocument(owner *Browser, page playwright.Page, contentFrame string, log *logging.Logger) *Document {
	return &Document{
		owner:        owner,
		page:         page,
		contentFrame: contentFrame,
		log:          log,
	}
}

// frames returns the content frame, when present, followed by the main frame.
func (d *Document) frames(ctx context.Context) ([]playwright.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	main := d.page.MainFrame()
	if d.contentFrame == "" {
		return []playwright.Frame{main}, nil
	}
	el, err := d.page.QuerySelector(d.contentFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to query content frame: %w", err)
	}
	if el == nil {
		return []playwright.Frame{main}, nil
	}
	frame, err := el.ContentFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to enter content frame: %w", err)
	}
	if frame == nil {
		return []playwright.Frame{main}, nil
	}
	return []playwright.Frame{frame, main}, nil
}

// Snapshot implements host.Document.
func (d *Document) Snapshot(ctx context.Context) (*inspect.Snapshot, error) {
	frames, err := d.frames(ctx)
	if err != nil {
		return nil, err
	}
	markup, err := d.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	var frameURL, frameMarkup string
	if len(frames) > 1 {
		frameURL = frames[0].URL()
		if frameMarkup, err = frames[0].Content(); err != nil {
			return nil, fmt.Errorf("failed to read content frame: %w", err)
		}
	}
	return inspect.NewSnapshot(d.page.URL(), markup, frameURL, frameMarkup)
}

// FindByVisibleText implements host.Document.
func (d *Document) FindByVisibleText(ctx context.Context, role host.Role, texts ...string) (host.Handle, error) {
	return d.find(ctx, role.Selector(), func(el playwright.ElementHandle) (bool, error) {
		label, err := evalString(el, host.LabelFunction, nil)
		if err != nil {
			return false, err
		}
		return host.MatchesText(label, texts), nil
	})
}

// FindByAttributeSubstring implements host.Document.
func (d *Document) FindByAttributeSubstring(ctx context.Context, kind host.Kind, attribute, needle string) (host.Handle, error) {
	return d.find(ctx, kind.AttributeSelector(attribute, needle), nil)
}

// FindByID implements host.Document.
func (d *Document) FindByID(ctx context.Context, id string) (host.Handle, error) {
	return d.find(ctx, `[id="`+strings.ReplaceAll(id, `"`, `\"`)+`"]`, nil)
}

func (d *Document) find(ctx context.Context, selector string, accept func(playwright.ElementHandle) (bool, error)) (host.Handle, error) {
	frames, err := d.frames(ctx)
	if err != nil {
		return nil, err
	}
	for _, frame := range frames {
		els, err := frame.QuerySelectorAll(selector)
		if err != nil {
			return nil, fmt.Errorf("failed to query %q: %w", selector, err)
		}
		for _, el := range els {
			if accept != nil {
				ok, err := accept(el)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			return wrap(el)
		}
	}
	return nil, host.ErrNotFound
}

// OpenURL implements host.Document.
func (d *Document) OpenURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bctx, err := d.owner.newContext()
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{Timeout: timeout(ctx)}); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// Mutations implements host.Observer.
func (d *Document) Mutations(ctx context.Context) (<-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.observing {
		if err := d.install(host.MutationBinding, host.ObserverScript, func(...interface{}) {
			d.mutations.Notify()
		}); err != nil {
			return nil, err
		}
		d.observing = true
	}
	return d.mutations.Subscribe(ctx), nil
}

// OnDrop implements host.DropBridge.
func (d *Document) OnDrop(_ context.Context, fn func(files []types.FileRef)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drops = append(d.drops, fn)
	if d.bridged {
		return nil
	}
	if err := d.install(host.DropBinding, host.DropScript, d.dropped); err != nil {
		return err
	}
	d.bridged = true
	return nil
}

func (d *Document) dropped(args ...interface{}) {
	if len(args) == 0 {
		return
	}
	payload, ok := args[0].(string)
	if !ok {
		d.log.Warnf("ignoring drop with payload of type %T", args[0])
		return
	}
	files, err := host.DecodeDrop(payload)
	if err != nil {
		d.log.Warnf("ignoring drop: %v", err)
		return
	}
	if len(files) == 0 {
		return
	}

	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	handlers := make([]func([]types.FileRef), len(d.drops))
	copy(handlers, d.drops)
	d.mu.Unlock()
	for _, fn := range handlers {
		fn(files)
	}
}

// install exposes binding in every frame of the page, registers script for
// every new document and runs it in the documents already loaded. Callers
// hold d.mu.
func (d *Document) install(binding, script string, fn func(args ...interface{})) error {
	err := d.page.ExposeFunction(binding, func(args ...interface{}) interface{} {
		fn(args...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose %s: %w", binding, err)
	}
	if err := d.page.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
		return fmt.Errorf("failed to register script: %w", err)
	}

	frames, err := d.frames(context.Background())
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if _, err := frame.Evaluate(script); err != nil {
			d.log.Debugf("failed to run %s script in loaded document: %v", binding, err)
		}
	}
	return nil
}

// release stops delivering notifications. Playwright has no call to remove
// an exposed function, so the bindings stay until the page closes.
func (d *Document) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	d.drops = nil
}

// timeout converts the deadline of ctx to a Playwright timeout in
// milliseconds. It returns nil without a deadline, which keeps the page
// default.
func timeout(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return &ms
}
