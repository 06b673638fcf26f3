// Package session holds the state that lives as long as one automation
// session: the active task and the filename stem it remembered.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/entrhq/formpilot/pkg/types"
)

// Session is the explicit context shared by the workflow driver, the change
// monitor and the intake writer. It is safe for concurrent use.
type Session struct {
	id string

	mu   sync.RWMutex
	task *types.PendingTask
	stem string
}

// New creates an empty session.
func New() *Session {
	return &Session{id: uuid.New().String()}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Begin makes task the active task and remembers its stem, replacing any
// previous task and stem.
func (s *Session) Begin(task *types.PendingTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.task = task
	if task != nil {
		s.stem = task.Stem
	}
}

// Finish clears the active task if it is still the one with the given id.
// The remembered stem is kept for the change monitor.
func (s *Session) Finish(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil && s.task.ID == taskID {
		s.task = nil
	}
}

// Task returns the active task, or nil.
func (s *Session) Task() *types.PendingTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.task
}

// IsActive reports whether taskID identifies the active task.
func (s *Session) IsActive(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.task != nil && s.task.ID == taskID
}

// Stem returns the remembered filename stem.
func (s *Session) Stem() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stem
}

// Remember overwrites the remembered stem.
func (s *Session) Remember(stem string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stem = stem
}
