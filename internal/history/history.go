package history

import (
	"context"
	"encoding/json"
	"time"

	"vmflow/internal/store"
	"vmflow/pkg/logging"
)

const subsystem = "History"

// Action identifies one recordable orchestration action.
type Action string

const (
	ActionStartMigration    Action = "START_MIGRATION"
	ActionCompleteMigration Action = "COMPLETE_MIGRATION"
	ActionFailedMigration   Action = "FAILED_MIGRATION"
	ActionStartRestart      Action = "START_RESTART"
	ActionCompleteRestart   Action = "COMPLETE_RESTART"
	ActionFailedRestart     Action = "FAILED_RESTART"
	ActionCancelMigration   Action = "CANCEL_MIGRATION"
)

// Record is one audit entry, keyed in the store by correlation id.
type Record struct {
	Action    Action    `json:"action"`
	UserID    string    `json:"userId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder appends audit records to the shared store. Recording is
// fire-and-forget: failures are logged and never affect orchestration.
type Recorder struct {
	store store.Store
	keys  store.Keys
}

// NewRecorder creates a recorder writing through the given store.
func NewRecorder(s store.Store, keys store.Keys) *Recorder {
	return &Recorder{store: s, keys: keys}
}

// Record appends one audit entry for the given correlation id.
func (r *Recorder) Record(ctx context.Context, correlationID string, action Action, userID, detail string) {
	entry := Record{
		Action:    action,
		UserID:    userID,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		logging.Error(subsystem, err, "Failed to encode audit record %s/%s", correlationID, action)
		return
	}
	if err := r.store.Append(ctx, r.keys.History(correlationID), string(payload)); err != nil {
		logging.Error(subsystem, err, "Failed to append audit record %s/%s", correlationID, action)
		return
	}
	logging.Debug(subsystem, "Recorded %s for %s", action, correlationID)
}
