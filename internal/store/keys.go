package store

import "fmt"

// Keys builds the namespaced key set for one vmflow deployment. Every
// process pointed at the same Redis server with the same prefix observes
// the same workflow state.
type Keys struct {
	prefix string
}

// NewKeys creates a key builder with the given prefix. An empty prefix
// falls back to "vmflow".
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "vmflow"
	}
	return Keys{prefix: prefix}
}

// State is the key holding the global WorkflowState value.
func (k Keys) State() string { return k.prefix + ":migration:state" }

// Events is the list key the executors and the orchestrator append raw
// execution events to.
func (k Keys) Events() string { return k.prefix + ":migration:events" }

// Operation holds the current operation description.
func (k Keys) Operation() string { return k.prefix + ":migration:operation" }

// StartedAt holds the RFC3339Nano workflow start timestamp.
func (k Keys) StartedAt() string { return k.prefix + ":migration:started_at" }

// EndedAt holds the RFC3339Nano workflow end timestamp.
func (k Keys) EndedAt() string { return k.prefix + ":migration:ended_at" }

// Error holds the last workflow error verbatim.
func (k Keys) Error() string { return k.prefix + ":migration:error" }

// History is the audit record list for one correlation id.
func (k Keys) History(correlationID string) string {
	return fmt.Sprintf("%s:history:%s", k.prefix, correlationID)
}

// Workflow returns every key cleared by a full migration data wipe.
// History lists are deliberately excluded; audit records outlive the
// workflow they describe.
func (k Keys) Workflow() []string {
	return []string{
		k.State(),
		k.Events(),
		k.Operation(),
		k.StartedAt(),
		k.EndedAt(),
		k.Error(),
	}
}
