package types

import "time"

// Severity defines how a notification is presented to the user.
type Severity string

const (
	SeverityInfo    Severity = "info"    // SeverityInfo reports progress.
	SeveritySuccess Severity = "success" // SeveritySuccess reports a completed action.
	SeverityError   Severity = "error"   // SeverityError reports an aborted step.
)

// NotificationEvent is an ephemeral user feedback signal.
type NotificationEvent struct {
	Message  string
	Severity Severity
	At       time.Time
}

// NewNotification creates a notification stamped with the current time.
func NewNotification(message string, severity Severity) NotificationEvent {
	return NotificationEvent{
		Message:  message,
		Severity: severity,
		At:       time.Now(),
	}
}
