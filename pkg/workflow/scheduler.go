package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/formpilot/pkg/logging"
)

// Scheduler runs functions one at a time on a single timeline.
type Scheduler interface {
	// Post queues fn to run as soon as possible.
	Post(fn func())

	// After queues fn to run once d has elapsed.
	After(d time.Duration, fn func())
}

// Timeline is a Scheduler backed by one goroutine. Posted functions never run
// concurrently with each other, and a panic in one of them is logged and
// swallowed so the timeline keeps running.
type Timeline struct {
	mu     sync.Mutex
	queue  []func()
	timers map[*time.Timer]struct{}
	closed bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	log  *logging.Logger
}

// NewTimeline starts a timeline.
func NewTimeline(log *logging.Logger) *Timeline {
	if log == nil {
		log = logging.Nop("timeline")
	}
	t := &Timeline{
		timers: make(map[*time.Timer]struct{}),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		log:    log,
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Post implements Scheduler. Calls after Close are dropped.
func (t *Timeline) Post(fn func()) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.queue = append(t.queue, fn)
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// After implements Scheduler.
func (t *Timeline) After(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, timer)
		t.mu.Unlock()
		t.Post(fn)
	})
	t.timers[timer] = struct{}{}
}

// Close stops pending timers, drops queued functions and waits for the
// function currently running, if any.
func (t *Timeline) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for timer := range t.timers {
		timer.Stop()
	}
	t.timers = nil
	t.queue = nil
	t.mu.Unlock()

	close(t.done)
	t.wg.Wait()
}

func (t *Timeline) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case <-t.wake:
		}

		for {
			t.mu.Lock()
			if t.closed || len(t.queue) == 0 {
				t.mu.Unlock()
				break
			}
			fn := t.queue[0]
			t.queue[0] = nil
			t.queue = t.queue[1:]
			t.mu.Unlock()

			t.safeRun(fn)
		}
	}
}

func (t *Timeline) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Errorf("timeline: recovered panic: %v", fmt.Sprint(r))
		}
	}()
	fn()
}
