package testsupport

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler is a deterministic scheduler driven by virtual time. Nothing
// runs until the test calls Advance or Flush, and everything runs on the
// calling goroutine.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	queue []scheduled
}

type scheduled struct {
	at  time.Duration
	seq int
	fn  func()
}

// Post queues fn at the current virtual time.
func (s *ManualScheduler) Post(fn func()) {
	s.After(0, fn)
}

// After queues fn at the current virtual time plus d.
func (s *ManualScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.queue = append(s.queue, scheduled{at: s.now + d, seq: s.seq, fn: fn})
}

// Flush runs everything due at the current virtual time, including work that
// becomes due while flushing.
func (s *ManualScheduler) Flush() {
	s.Advance(0)
}

// Advance moves virtual time forward by d, running due functions in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		fn, ok := s.next(target)
		if !ok {
			break
		}
		fn()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// RunAll runs until nothing is queued, advancing virtual time as needed.
func (s *ManualScheduler) RunAll() {
	for s.Pending() > 0 {
		s.mu.Lock()
		s.sort()
		at := s.queue[0].at
		s.mu.Unlock()
		s.Advance(at - s.Now())
	}
}

// Pending returns the number of queued functions.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) next(target time.Duration) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	s.sort()
	head := s.queue[0]
	if head.at > target {
		return nil, false
	}
	s.queue = s.queue[1:]
	if head.at > s.now {
		s.now = head.at
	}
	return head.fn, true
}

func (s *ManualScheduler) sort() {
	sort.Slice(s.queue, func(i, j int) bool {
		if s.queue[i].at != s.queue[j].at {
			return s.queue[i].at < s.queue[j].at
		}
		return s.queue[i].seq < s.queue[j].seq
	})
}
