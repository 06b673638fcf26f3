// Package notify delivers short user feedback messages. Notifications are
// fire-and-forget: a notifier never returns an error and never blocks the
// workflow on its output.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/types"
)

// Notifier is the notification surface.
type Notifier interface {
	Notify(message string, severity types.Severity)
}

// Terminal prints notifications as single styled lines.
type Terminal struct {
	mu     sync.Mutex
	writer io.Writer
	color  bool
}

// NewTerminal creates a terminal notifier. Styling is enabled only when w is
// a terminal.
func NewTerminal(w io.Writer) *Terminal {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Terminal{writer: w, color: color}
}

// Notify implements Notifier.
func (t *Terminal) Notify(message string, severity types.Severity) {
	event := types.NewNotification(message, severity)
	stamp := event.At.Format("15:04:05")
	icon := iconFor(severity)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.color {
		fmt.Fprintf(t.writer, "%s %s\n",
			timeStyle.Render(stamp),
			styleFor(string(severity)).Render(icon+" "+message))
		return
	}
	fmt.Fprintf(t.writer, "%s %s %s\n", stamp, icon, message)
}

func iconFor(severity types.Severity) string {
	switch severity {
	case types.SeveritySuccess:
		return "✓"
	case types.SeverityError:
		return "✗"
	default:
		return "•"
	}
}

// Log writes notifications to a component logger.
type Log struct {
	log *logging.Logger
}

// NewLog creates a notifier backed by log.
func NewLog(log *logging.Logger) *Log {
	return &Log{log: log}
}

// Notify implements Notifier.
func (l *Log) Notify(message string, severity types.Severity) {
	switch severity {
	case types.SeverityError:
		l.log.Errorf("notification: %s", message)
	default:
		l.log.Infof("notification (%s): %s", severity, message)
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(message string, severity types.Severity) {
	for _, n := range m {
		if n != nil {
			n.Notify(message, severity)
		}
	}
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu     sync.Mutex
	events []types.NotificationEvent
}

// Notify implements Notifier.
func (r *Recorder) Notify(message string, severity types.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, types.NewNotification(message, severity))
}

// Events returns the recorded notifications.
func (r *Recorder) Events() []types.NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.NotificationEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (types.NotificationEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return types.NotificationEvent{}, false
	}
	return r.events[len(r.events)-1], true
}

// Messages returns the recorded messages of the given severity.
func (r *Recorder) Messages(severity types.Severity) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Severity == severity {
			out = append(out, e.Message)
		}
	}
	return out
}
