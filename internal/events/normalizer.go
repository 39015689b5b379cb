package events

import (
	"encoding/json"
	"time"
)

// rawTypeTable maps the external executor event vocabulary onto the
// canonical event types. Raw types outside this table pass through
// unchanged.
var rawTypeTable = map[string]EventType{
	"VmStartedEvent":      EventVMStarted,
	"VmMigratedEvent":     EventVMMigration,
	"VmShutdownEvent":     EventVMShutdown,
	"ServerShutdownEvent": EventServerShutdown,
}

// rawEvent is the superset decode target for one stored event entry. It
// accepts both the canonical field names and the short names the
// executors emit, so a single decode pass serves both shapes.
type rawEvent struct {
	Type      string     `json:"type"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Success   *bool      `json:"success,omitempty"`
	Error     string     `json:"error,omitempty"`
	Message   string     `json:"message,omitempty"`

	// Executor field names.
	VM          string `json:"vm,omitempty"`
	Moid        string `json:"moid,omitempty"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Server      string `json:"server,omitempty"`

	// Canonical field names.
	VMName          string `json:"vmName,omitempty"`
	VMMoid          string `json:"vmMoid,omitempty"`
	SourceMoid      string `json:"sourceMoid,omitempty"`
	DestinationMoid string `json:"destinationMoid,omitempty"`
	ServerName      string `json:"serverName,omitempty"`
	ServerMoid      string `json:"serverMoid,omitempty"`
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Normalize maps one stored event entry onto the canonical schema. It
// never fails: malformed JSON yields a failure event carrying the decode
// error, and unrecognized types pass through with only type, timestamp
// and success populated.
//
// Both the full-log status path and the broadcast polling path go
// through this function, so the two observe identical canonical events
// for the same stored entry.
func Normalize(data []byte) MigrationEvent {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return MigrationEvent{
			Timestamp: time.Now(),
			Success:   false,
			Error:     "malformed event entry: " + err.Error(),
		}
	}

	ev := MigrationEvent{
		Timestamp: time.Now(),
		Success:   true,
		Error:     raw.Error,
		Message:   raw.Message,
	}
	if raw.Timestamp != nil {
		ev.Timestamp = *raw.Timestamp
	}
	if raw.Success != nil {
		ev.Success = *raw.Success
	}
	// An error field always wins over any success flag the executor set.
	if raw.Error != "" {
		ev.Success = false
	}

	if CanonicalType(EventType(raw.Type)) {
		ev.Type = EventType(raw.Type)
	} else {
		mapped, known := rawTypeTable[raw.Type]
		if !known {
			// Intentional fallback, not a parse error: keep the foreign
			// type string and attempt no field mapping.
			ev.Type = EventType(raw.Type)
			return ev
		}
		ev.Type = mapped
	}

	switch ev.Type {
	case EventVMStarted, EventVMShutdown:
		ev.VMName = firstNonEmpty(raw.VMName, raw.VM)
		ev.VMMoid = firstNonEmpty(raw.VMMoid, raw.Moid)
	case EventVMMigration:
		ev.VMName = firstNonEmpty(raw.VMName, raw.VM)
		ev.VMMoid = firstNonEmpty(raw.VMMoid, raw.Moid)
		ev.SourceMoid = firstNonEmpty(raw.SourceMoid, raw.Source)
		ev.DestinationMoid = firstNonEmpty(raw.DestinationMoid, raw.Destination)
	case EventServerShutdown:
		ev.ServerName = firstNonEmpty(raw.ServerName, raw.Server)
		ev.ServerMoid = firstNonEmpty(raw.ServerMoid, raw.Moid)
	}

	return ev
}

// NormalizeAll maps a batch of stored entries in order.
func NormalizeAll(entries []string) []MigrationEvent {
	if len(entries) == 0 {
		return nil
	}
	out := make([]MigrationEvent, 0, len(entries))
	for _, entry := range entries {
		out = append(out, Normalize([]byte(entry)))
	}
	return out
}
