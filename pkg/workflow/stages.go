package workflow

// Stage is the driver's position in a task.
type Stage string

const (
	StageIdle                Stage = "idle"
	StageAwaitingNavigation  Stage = "awaiting_navigation"
	StageUploading           Stage = "uploading"
	StageAwaitingAdvance1    Stage = "awaiting_advance_1"
	StageAwaitingAdvance2    Stage = "awaiting_advance_2"
	StageAwaitingDescription Stage = "awaiting_description"
	StageDone                Stage = "done"
	StageAborted             Stage = "aborted"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Terminal reports whether the stage ends a task.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageAborted
}

// JobKind identifies the flow a job runs.
type JobKind string

const (
	JobUpload   JobKind = "upload"
	JobImport   JobKind = "import"
	JobReferral JobKind = "referral"
	JobShortcut JobKind = "shortcut"
)

// Transition reports a stage change of a job.
type Transition struct {
	JobID string
	Kind  JobKind
	Stage Stage
	Err   error
}
