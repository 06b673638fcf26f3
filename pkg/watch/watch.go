// Package watch turns files written into a drop folder into drop events.
// Files that appear within one batch window of each other form one drop, so
// an .edi file and its archive saved together arrive as a pair.
package watch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/types"
)

// Config configures a drop folder.
type Config struct {
	Dir string `yaml:"dir" json:"dir"`

	// BatchWindow is how long the folder must stay quiet before the files
	// collected so far are delivered as one drop.
	BatchWindow time.Duration `yaml:"batch_window" json:"batch_window"`

	// Ignore holds glob patterns for base names that are never delivered,
	// such as partial downloads and editor lock files.
	Ignore []string `yaml:"ignore" json:"ignore"`

	// MaxSize skips files larger than this many bytes. Zero means no limit.
	MaxSize int64 `yaml:"max_size" json:"max_size"`

	// Remove deletes files once they have been read.
	Remove bool `yaml:"remove" json:"remove"`
}

// DefaultConfig returns the drop folder defaults. Dir is left empty and
// disables the folder.
func DefaultConfig() Config {
	return Config{
		BatchWindow: 750 * time.Millisecond,
		Ignore:      []string{".*", "~$*", "*.part", "*.crdownload", "*.tmp"},
		MaxSize:     50 << 20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BatchWindow <= 0 {
		return fmt.Errorf("batch window must be positive, got %s", c.BatchWindow)
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("max size must not be negative, got %d", c.MaxSize)
	}
	for _, pattern := range c.Ignore {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Handler receives one drop. It is called from the folder's goroutine.
type Handler func(files []types.FileRef)

// DropFolder watches one directory.
type DropFolder struct {
	cfg     Config
	handler Handler
	log     *logging.Logger
	ignore  []glob.Glob

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending []string
	seen    map[string]bool
	last    time.Time
}

// New creates a drop folder for cfg.Dir, creating the directory if needed.
func New(cfg Config, handler Handler, log *logging.Logger) (*DropFolder, error) {
	if cfg.Dir == "" {
		return nil, errors.New("drop folder: no directory configured")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("drop folder: %w", err)
	}
	if log == nil {
		log = logging.Nop("watch")
	}

	ignore := make([]glob.Glob, 0, len(cfg.Ignore))
	for _, pattern := range cfg.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("drop folder: ignore pattern %q: %w", pattern, err)
		}
		ignore = append(ignore, g)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("drop folder: create %s: %w", cfg.Dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("drop folder: %w", err)
	}
	if err := watcher.Add(cfg.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("drop folder: watch %s: %w", cfg.Dir, err)
	}

	return &DropFolder{
		cfg:     cfg,
		handler: handler,
		log:     log,
		ignore:  ignore,
		watcher: watcher,
		seen:    make(map[string]bool),
	}, nil
}

// Dir returns the watched directory.
func (f *DropFolder) Dir() string {
	return f.cfg.Dir
}

// Run delivers drops until ctx ends, then closes the watcher.
func (f *DropFolder) Run(ctx context.Context) error {
	defer f.watcher.Close()

	tick := f.cfg.BatchWindow / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	f.log.Infof("watching drop folder %s", f.cfg.Dir)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			f.handleEvent(event)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warnf("drop folder error: %v", err)

		case <-ticker.C:
			if paths := f.due(time.Now()); len(paths) > 0 {
				f.deliver(paths)
			}
		}
	}
}

func (f *DropFolder) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if f.ignored(filepath.Base(event.Name)) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.seen[event.Name] {
		f.seen[event.Name] = true
		f.pending = append(f.pending, event.Name)
	}
	f.last = time.Now()
}

func (f *DropFolder) ignored(name string) bool {
	for _, g := range f.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// due returns the pending batch once the folder has been quiet for the
// batch window.
func (f *DropFolder) due(now time.Time) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 || now.Sub(f.last) < f.cfg.BatchWindow {
		return nil
	}
	paths := f.pending
	f.pending = nil
	f.seen = make(map[string]bool)
	return paths
}

func (f *DropFolder) deliver(paths []string) {
	files := make([]types.FileRef, 0, len(paths))
	for _, path := range paths {
		file, err := f.read(path)
		if err != nil {
			f.log.Warnf("skipping %s: %v", path, err)
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return
	}

	f.log.Infof("drop of %d file(s) from %s", len(files), f.cfg.Dir)
	f.handler(files)
}

func (f *DropFolder) read(path string) (types.FileRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.FileRef{}, err
	}
	if !info.Mode().IsRegular() {
		return types.FileRef{}, errors.New("not a regular file")
	}
	if f.cfg.MaxSize > 0 && info.Size() > f.cfg.MaxSize {
		return types.FileRef{}, fmt.Errorf("%d bytes exceeds the %d byte limit", info.Size(), f.cfg.MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.FileRef{}, err
	}
	if f.cfg.Remove {
		if err := os.Remove(path); err != nil {
			f.log.Warnf("could not remove %s: %v", path, err)
		}
	}

	return types.FileRef{
		Name:     filepath.Base(path),
		MimeType: DetectMimeType(filepath.Base(path), data),
		Data:     data,
	}, nil
}

// DetectMimeType derives a MIME type from the file extension, falling back
// to content sniffing.
func DetectMimeType(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
