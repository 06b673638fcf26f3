package types

// WorkflowState identifies which screen of the upload wizard is currently shown.
// It is always derived from a content snapshot and never stored.
type WorkflowState string

const (
	StateUnknown           WorkflowState = "unknown"            // StateUnknown means the screen could not be read or recognised.
	StateInitialChoice     WorkflowState = "initial_choice"     // StateInitialChoice is the letter/scan/upload choice screen.
	StateFileUploadScreen  WorkflowState = "file_upload"        // StateFileUploadScreen shows a file input.
	StateControlStep       WorkflowState = "control_step"       // StateControlStep is the review step between upload and description.
	StateDescriptionScreen WorkflowState = "description_screen" // StateDescriptionScreen carries the description field.
	StateOffTarget         WorkflowState = "off_target"         // StateOffTarget is a readable page outside the upload workflow.
)

// String returns the state name.
func (s WorkflowState) String() string {
	return string(s)
}

// In reports whether s is one of the given states.
func (s WorkflowState) In(states ...WorkflowState) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}
