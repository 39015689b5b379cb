package orchestrator

import (
	"fmt"
	"time"

	"vmflow/internal/events"
)

// WorkflowState is the single global enum describing what the engine is
// currently doing. It lives in the shared store so every vmflow process
// observes the same value; only the orchestrator writes it.
type WorkflowState string

const (
	StateIdle        WorkflowState = "Idle"
	StateInMigration WorkflowState = "InMigration"
	StateMigrated    WorkflowState = "Migrated"
	StateRestarting  WorkflowState = "Restarting"
	StateFailed      WorkflowState = "Failed"
)

// Status is the derived, read-only workflow snapshot. It is assembled
// from independent store reads, so a reader may observe a state change
// before its matching error or timestamp fields arrive. That eventual
// consistency window is documented behavior, not a defect.
type Status struct {
	State            WorkflowState           `json:"state"`
	Events           []events.MigrationEvent `json:"events"`
	CurrentOperation string                  `json:"currentOperation,omitempty"`
	StartTime        *time.Time              `json:"startTime,omitempty"`
	EndTime          *time.Time              `json:"endTime,omitempty"`
	Error            string                  `json:"error,omitempty"`
}

// NotificationKind distinguishes the two notification flavors raised by
// the orchestrator.
type NotificationKind string

const (
	// NotificationState signals a workflow state transition.
	NotificationState NotificationKind = "state"
	// NotificationEvent carries one newly observed canonical event.
	NotificationEvent NotificationKind = "event"
)

// Notification is what subscribers (the realtime gateway) receive for
// every state transition and every newly appended execution event.
type Notification struct {
	Kind  NotificationKind       `json:"kind"`
	State WorkflowState          `json:"state,omitempty"`
	Event *events.MigrationEvent `json:"event,omitempty"`
}

// ValidationError rejects a command synchronously without mutating any
// workflow state. It is safe to retry the command after fixing the input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ExecutionError reports an external executor failure. The workflow has
// already moved to Failed and the message is persisted verbatim so
// operators can diagnose without log access.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// cancelledByUser is the fixed error persisted by CancelMigration.
const cancelledByUser = "cancelled by user"
