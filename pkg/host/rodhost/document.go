package rodhost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/types"
)

const locationFunction = `function() { return window.location.href }`

// Document implements host.Document, host.Observer and host.DropBridge over
// one browser tab.
type Document struct {
	browser      *rod.Browser
	page         *rod.Page
	contentFrame string
	log          *logging.Logger

	mutations host.Fanout

	mu        sync.Mutex
	observing bool
	bridged   bool
	drops     []func([]types.FileRef)
	stops     []func() error
	spillDir  string
}

func newDocument(browser *rod.Browser, page *rod.Page, contentFrame string, log *logging.Logger) (*Document, error) {
	if page == nil {
		return nil, fmt.Errorf("no page selected")
	}
	return &Document{
		browser:      browser,
		page:         page,
		contentFrame: contentFrame,
		log:          log,
	}, nil
}

// scopes returns the content frame, when present, followed by the page.
func (d *Document) scopes(ctx context.Context) ([]*rod.Page, error) {
	page := d.page.Context(ctx)
	if d.contentFrame == "" {
		return []*rod.Page{page}, nil
	}
	frames, err := page.Elements(d.contentFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to query content frame: %w", err)
	}
	if len(frames) == 0 {
		return []*rod.Page{page}, nil
	}
	frame, err := frames.First().Frame()
	if err != nil {
		return nil, fmt.Errorf("failed to enter content frame: %w", err)
	}
	return []*rod.Page{frame, page}, nil
}

// Snapshot implements host.Document.
func (d *Document) Snapshot(ctx context.Context) (*inspect.Snapshot, error) {
	page := d.page.Context(ctx)
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read page info: %w", err)
	}
	markup, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	scopes, err := d.scopes(ctx)
	if err != nil {
		return nil, err
	}
	var frameURL, frameMarkup string
	if len(scopes) > 1 {
		frame := scopes[0]
		res, err := frame.Eval(locationFunction)
		if err != nil {
			return nil, fmt.Errorf("failed to read frame location: %w", err)
		}
		frameURL = res.Value.Str()
		if frameMarkup, err = frame.HTML(); err != nil {
			return nil, fmt.Errorf("failed to read content frame: %w", err)
		}
	}
	return inspect.NewSnapshot(info.URL, markup, frameURL, frameMarkup)
}

// FindByVisibleText implements host.Document.
func (d *Document) FindByVisibleText(ctx context.Context, role host.Role, texts ...string) (host.Handle, error) {
	return d.find(ctx, role.Selector(), func(el *rod.Element) (bool, error) {
		res, err := el.Eval(host.LabelFunction)
		if err != nil {
			return false, err
		}
		return host.MatchesText(res.Value.Str(), texts), nil
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

func (d *Document) find(ctx context.Context, selector string, accept func(*rod.Element) (bool, error)) (host.Handle, error) {
	scopes, err := d.scopes(ctx)
	if err != nil {
		return nil, err
	}
	for _, scope := range scopes {
		els, err := scope.Elements(selector)
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
			return wrap(d, el)
		}
	}
	return nil, host.ErrNotFound
}

// OpenURL implements host.Document.
func (d *Document) OpenURL(ctx context.Context, url string) error {
	_, err := d.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// Mutations implements host.Observer. The observer script is installed once
// and survives navigation.
func (d *Document) Mutations(ctx context.Context) (<-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.observing {
		if err := d.install(host.MutationBinding, host.ObserverScript, func(gson.JSON) {
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

func (d *Document) dropped(req gson.JSON) {
	files, err := host.DecodeDrop(req.Str())
	if err != nil {
		d.log.Warnf("ignoring drop: %v", err)
		return
	}
	if len(files) == 0 {
		return
	}
	d.mu.Lock()
	handlers := make([]func([]types.FileRef), len(d.drops))
	copy(handlers, d.drops)
	d.mu.Unlock()
	for _, fn := range handlers {
		fn(files)
	}
}

// install exposes binding to the page, registers script for every new
// document and runs it in the documents already loaded. Callers hold d.mu.
func (d *Document) install(binding, script string, fn func(gson.JSON)) error {
	stop, err := d.page.Expose(binding, func(req gson.JSON) (interface{}, error) {
		fn(req)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose %s: %w", binding, err)
	}
	d.stops = append(d.stops, stop)

	remove, err := d.page.EvalOnNewDocument(script)
	if err != nil {
		return fmt.Errorf("failed to register script: %w", err)
	}
	d.stops = append(d.stops, remove)

	scopes, err := d.scopes(context.Background())
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		if _, err := scope.Eval(`function() { ` + script + ` }`); err != nil {
			d.log.Debugf("failed to run %s script in loaded document: %v", binding, err)
		}
	}
	return nil
}

// spill writes files to a fresh directory so the browser can read them from
// disk, and returns their paths.
func (d *Document) spill(files []types.FileRef) ([]string, error) {
	d.mu.Lock()
	if d.spillDir == "" {
		dir, err := os.MkdirTemp("", "formpilot-rod-")
		if err != nil {
			d.mu.Unlock()
			return nil, fmt.Errorf("failed to create spill directory: %w", err)
		}
		d.spillDir = dir
	}
	root := d.spillDir
	d.mu.Unlock()

	dir, err := os.MkdirTemp(root, "set-")
	if err != nil {
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, filepath.Base(f.Name))
		if err := os.WriteFile(path, f.Data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (d *Document) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, stop := range d.stops {
		if err := stop(); err != nil {
			d.log.Debugf("failed to remove binding: %v", err)
		}
	}
	d.stops = nil
	if d.spillDir != "" {
		os.RemoveAll(d.spillDir)
		d.spillDir = ""
	}
}
