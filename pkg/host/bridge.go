package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/entrhq/formpilot/pkg/types"
)

// Names of the page functions the bindings expose to injected scripts.
const (
	MutationBinding = "__formpilotMutation"
	DropBinding     = "__formpilotDrop"
)

// ObserverScript reports content-tree mutations of the document it runs in
// to the mutation binding. Bindings inject it into every frame.
const ObserverScript = `(() => {
  if (window.__formpilotObserver) return;
  const notify = () => { if (window.` + MutationBinding + `) window.` + MutationBinding + `(''); };
  const start = () => {
    if (window.__formpilotObserver) return;
    window.__formpilotObserver = new MutationObserver(notify);
    window.__formpilotObserver.observe(document.documentElement, { childList: true, subtree: true });
    notify();
  };
  if (document.documentElement) start(); else document.addEventListener('DOMContentLoaded', start);
})();`

// DropScript forwards files dropped anywhere on the document to the drop
// binding as a JSON array of {name, type, data} with base64 data.
const DropScript = `(() => {
  if (window.__formpilotDropInstalled) return;
  window.__formpilotDropInstalled = true;
  const read = (f) => new Promise((resolve, reject) => {
    const r = new FileReader();
    r.onload = () => resolve({ name: f.name, type: f.type, data: String(r.result).split(',')[1] || '' });
    r.onerror = () => reject(r.error);
    r.readAsDataURL(f);
  });
  const hasFiles = (e) => e.dataTransfer && Array.from(e.dataTransfer.types || []).includes('Files');
  document.addEventListener('dragover', (e) => { if (hasFiles(e)) e.preventDefault(); }, true);
  document.addEventListener('drop', async (e) => {
    if (!hasFiles(e) || !e.dataTransfer.files.length || !window.` + DropBinding + `) return;
    e.preventDefault();
    e.stopPropagation();
    const files = await Promise.all(Array.from(e.dataTransfer.files).map(read));
    window.` + DropBinding + `(JSON.stringify(files));
  }, true);
})();`

// LabelFunction returns the text an element is matched by: the value of
// inputs, the visible text of everything else.
const LabelFunction = `function() {
  if (this.tagName === 'INPUT') return this.value || '';
  return this.innerText || this.textContent || '';
}`

// OptionsFunction returns the options of a select element as {text, value}.
const OptionsFunction = `function() {
  return Array.from(this.options || []).map((o) => ({ text: o.text, value: o.value }));
}`

// AssignFunction sets the value of a field and dispatches input and change
// events the way a user edit would.
const AssignFunction = `function(value) {
  this.value = value;
  this.dispatchEvent(new Event('input', { bubbles: true }));
  this.dispatchEvent(new Event('change', { bubbles: true }));
}`

// DropBridge is implemented by documents that forward files dropped onto the
// page. fn is called from the binding's goroutine.
type DropBridge interface {
	OnDrop(ctx context.Context, fn func(files []types.FileRef)) error
}

type droppedFile struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// DecodeDrop decodes the payload DropScript sends.
func DecodeDrop(payload string) ([]types.FileRef, error) {
	var dropped []droppedFile
	if err := json.Unmarshal([]byte(payload), &dropped); err != nil {
		return nil, fmt.Errorf("decode drop payload: %w", err)
	}
	files := make([]types.FileRef, 0, len(dropped))
	for _, d := range dropped {
		if d.Name == "" {
			continue
		}
		files = append(files, types.FileRef{Name: d.Name, MimeType: d.Type, Data: d.Data})
	}
	return files, nil
}

// Signal is a coalescing notification channel: any number of Notify calls
// between two receives deliver one value. Notify after Close is a no-op.
type Signal struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

// NewSignal creates an open signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// C returns the receive channel. It is closed by Close.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// Notify delivers a value unless one is already pending.
func (s *Signal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Close closes the channel.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Fanout distributes one source of notifications to per-subscriber signals
// that end with their subscriber's context.
type Fanout struct {
	mu   sync.Mutex
	subs map[*Signal]struct{}
}

// Subscribe returns a channel that receives coalesced notifications until
// ctx ends.
func (f *Fanout) Subscribe(ctx context.Context) <-chan struct{} {
	sig := NewSignal()
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[*Signal]struct{})
	}
	f.subs[sig] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, sig)
		f.mu.Unlock()
		sig.Close()
	}()
	return sig.C()
}

// Notify notifies every subscriber.
func (f *Fanout) Notify() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sig := range f.subs {
		sig.Notify()
	}
}
