package types

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskKind defines the kind of automation task started by a drop.
type TaskKind string

const (
	TaskSingleFileUpload TaskKind = "single_file_upload" // TaskSingleFileUpload walks the upload wizard for one document.
	TaskPairedFileImport TaskKind = "paired_file_import" // TaskPairedFileImport fills the EDI and archive inputs of the import screen.
)

// FileRef is a dropped file payload. Data is always populated; Path is set
// when the file also exists on disk.
type FileRef struct {
	Name     string
	Path     string
	MimeType string
	Data     []byte
}

// Stem returns the file name without its final extension.
func (f FileRef) Stem() string {
	base := filepath.Base(f.Name)
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// HasExtension reports whether the file name ends with ext, ignoring case.
// ext includes the leading dot.
func (f FileRef) HasExtension(ext string) bool {
	return strings.HasSuffix(strings.ToLower(f.Name), strings.ToLower(ext))
}

// PendingTask is the single live automation task of a session.
type PendingTask struct {
	ID        string
	Kind      TaskKind
	Files     []FileRef
	Stem      string
	StartedAt time.Time
}

// NewPendingTask creates a task for the given files. The remembered name stem
// is taken from the first file.
func NewPendingTask(kind TaskKind, files ...FileRef) *PendingTask {
	task := &PendingTask{
		ID:        uuid.New().String(),
		Kind:      kind,
		Files:     files,
		StartedAt: time.Now(),
	}
	if len(files) > 0 {
		task.Stem = files[0].Stem()
	}
	return task
}
