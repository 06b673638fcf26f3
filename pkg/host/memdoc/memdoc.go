// Package memdoc is an in-memory host.Document over parsed markup. Click hooks
// stand in for the host application's own page transitions, which makes the
// package suitable for tests and for replaying saved pages offline.
package memdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/types"
)

// ErrUnreadable is returned by Snapshot while the document is marked unreadable.
var ErrUnreadable = errors.New("memdoc: content not readable")

// Action records one state-changing interaction.
type Action struct {
	Kind   string // "set_value", "set_files", "click", "check", "open_url"
	Target string // element id, name or text
	Value  string
}

// Hook runs after a click on a matching element. It may replace the page or
// frame markup to simulate navigation.
type Hook func(d *Document)

type clickHook struct {
	match string
	fn    Hook
}

// Document is an in-memory host document.
type Document struct {
	mu          sync.Mutex
	url         string
	page        *html.Node
	frameURL    string
	frame       *html.Node
	unreadable  bool
	files       map[*html.Node][]types.FileRef
	hooks       []clickHook
	actions     []Action
	mutations   host.Fanout
	drops       []func([]types.FileRef)
}

// New creates a document with the given top-level page.
func New(url, markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{
		url:   url,
		page:  root,
		files: make(map[*html.Node][]types.FileRef),
	}, nil
}

// SetPage replaces the top-level page.
func (d *Document) SetPage(url, markup string) error {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	d.mu.Lock()
	d.url = url
	d.page = root
	d.mu.Unlock()
	d.notify()
	return nil
}

// SetFrame replaces the content frame. An empty markup removes the frame.
func (d *Document) SetFrame(url, markup string) error {
	var root *html.Node
	if markup != "" {
		var err error
		root, err = html.Parse(strings.NewReader(markup))
		if err != nil {
			return fmt.Errorf("failed to parse HTML: %w", err)
		}
	}
	d.mu.Lock()
	d.frameURL = url
	d.frame = root
	d.mu.Unlock()
	d.notify()
	return nil
}

// SetUnreadable makes Snapshot fail, simulating an access fault.
func (d *Document) SetUnreadable(unreadable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unreadable = unreadable
}

// OnClick registers a hook for clicks on elements whose id equals match or
// whose visible text contains match, ignoring case.
func (d *Document) OnClick(match string, fn Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, clickHook{match: match, fn: fn})
}

// Actions returns the interactions performed so far.
func (d *Document) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Action, len(d.actions))
	copy(out, d.actions)
	return out
}

// Snapshot implements host.Document.
func (d *Document) Snapshot(ctx context.Context) (*inspect.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	if d.unreadable {
		d.mu.Unlock()
		return nil, ErrUnreadable
	}
	url, frameURL := d.url, d.frameURL
	page, err := render(d.page)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	var frame string
	if d.frame != nil {
		if frame, err = render(d.frame); err != nil {
			d.mu.Unlock()
			return nil, err
		}
	}
	d.mu.Unlock()

	return inspect.NewSnapshot(url, page, frameURL, frame)
}

// FindByVisibleText implements host.Document.
func (d *Document) FindByVisibleText(ctx context.Context, role host.Role, texts ...string) (host.Handle, error) {
	return d.find(ctx, func(n *html.Node) bool {
		return matchesRole(n, role) && host.MatchesText(visibleText(n), texts)
	})
}

// FindByAttributeSubstring implements host.Document.
func (d *Document) FindByAttributeSubstring(ctx context.Context, kind host.Kind, attribute, needle string) (host.Handle, error) {
	return d.find(ctx, func(n *html.Node) bool {
		if !kind.Matches(n.Data, getAttr(n, "type")) {
			return false
		}
		value, ok := lookupAttr(n, attribute)
		return ok && inspect.ContainsFold(value, needle)
	})
}

// FindByID implements host.Document.
func (d *Document) FindByID(ctx context.Context, id string) (host.Handle, error) {
	return d.find(ctx, func(n *html.Node) bool {
		return getAttr(n, "id") == id
	})
}

// OpenURL implements host.Document.
func (d *Document) OpenURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.record(Action{Kind: "open_url", Value: url})
	return nil
}

// Mutations implements host.Observer.
func (d *Document) Mutations(ctx context.Context) (<-chan struct{}, error) {
	return d.mutations.Subscribe(ctx), nil
}

// OnDrop implements host.DropBridge. Handlers stay registered for the life
// of the document.
func (d *Document) OnDrop(_ context.Context, fn func(files []types.FileRef)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drops = append(d.drops, fn)
	return nil
}

// Drop simulates files dropped onto the page.
func (d *Document) Drop(files []types.FileRef) {
	d.mu.Lock()
	fns := slices.Clone(d.drops)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(files)
	}
}

// ValueOf returns the current value of the element with the given id.
func (d *Document) ValueOf(id string) string {
	h, err := d.FindByID(context.Background(), id)
	if err != nil {
		return ""
	}
	value, _ := h.Value(context.Background())
	return value
}

// FilesOf returns the files assigned to the element with the given id.
func (d *Document) FilesOf(id string) []types.FileRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, root := range d.scopes() {
		if n := findNode(root, func(n *html.Node) bool { return getAttr(n, "id") == id }); n != nil {
			return d.files[n]
		}
	}
	return nil
}

func (d *Document) find(ctx context.Context, fn func(*html.Node) bool) (host.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unreadable {
		return nil, ErrUnreadable
	}
	for _, root := range d.scopes() {
		if n := findNode(root, fn); n != nil {
			return &element{doc: d, node: n}, nil
		}
	}
	return nil, host.ErrNotFound
}

// scopes returns the lookup order: frame first, then page. Caller holds mu.
func (d *Document) scopes() []*html.Node {
	if d.frame != nil {
		return []*html.Node{d.frame, d.page}
	}
	return []*html.Node{d.page}
}

func (d *Document) record(a Action) {
	d.mu.Lock()
	d.actions = append(d.actions, a)
	d.mu.Unlock()
	d.notify()
}

func (d *Document) notify() {
	d.mutations.Notify()
}

func (d *Document) hooksFor(n *html.Node) []Hook {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := getAttr(n, "id")
	text := visibleText(n)
	var out []Hook
	for _, h := range d.hooks {
		if (id != "" && h.match == id) || host.MatchesText(text, []string{h.match}) {
			out = append(out, h.fn)
		}
	}
	return out
}

func render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), nil
}
