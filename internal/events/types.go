package events

import "time"

// EventType identifies the canonical kind of a migration event.
type EventType string

const (
	// EventVMStarted indicates a virtual machine powered on.
	EventVMStarted EventType = "VmStarted"

	// EventVMMigration indicates a virtual machine moved between hosts.
	EventVMMigration EventType = "VmMigration"

	// EventVMShutdown indicates a virtual machine powered off.
	EventVMShutdown EventType = "VmShutdown"

	// EventServerShutdown indicates a whole host powered off.
	EventServerShutdown EventType = "ServerShutdown"
)

// MigrationEvent is the canonical, stable-shaped record describing one
// unit of progress during a workflow execution. Events are appended to
// the shared store by the external executors and never mutated; ordering
// is arrival order.
type MigrationEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`

	VMName          string `json:"vmName,omitempty"`
	VMMoid          string `json:"vmMoid,omitempty"`
	SourceMoid      string `json:"sourceMoid,omitempty"`
	DestinationMoid string `json:"destinationMoid,omitempty"`
	ServerName      string `json:"serverName,omitempty"`
	ServerMoid      string `json:"serverMoid,omitempty"`

	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// CanonicalType reports whether t is one of the four canonical event
// types. Events of any other type pass through normalization with only
// type, timestamp and success guaranteed.
func CanonicalType(t EventType) bool {
	switch t {
	case EventVMStarted, EventVMMigration, EventVMShutdown, EventServerShutdown:
		return true
	}
	return false
}

// RecentWindow is the number of trailing events consumers should treat
// as "current" for reporting. The stored log itself is unbounded.
const RecentWindow = 10
