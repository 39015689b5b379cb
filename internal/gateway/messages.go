package gateway

import "encoding/json"

// Message is the envelope for every frame exchanged with a client.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client-issued command types.
const (
	MsgGetStatus      = "getStatus"
	MsgStartMigration = "startMigration"
	MsgRestartServers = "restartServers"
	MsgCancel         = "cancelMigration"
	MsgClear          = "clearMigration"
	MsgListPlans      = "listPlans"
)

// Server-issued message types.
const (
	MsgStatus       = "status"
	MsgStateChanged = "stateChanged"
	MsgEvent        = "migrationEvent"
	MsgCommandAck   = "commandAck"
	MsgCommandError = "commandError"
	MsgAuthRefresh  = "authRefreshRequested"
	MsgPlans        = "plans"
)

// startPayload carries the startMigration command argument. Plan may be
// a catalog name or an absolute path.
type startPayload struct {
	Plan string `json:"plan"`
}

// ackPayload acknowledges a successfully dispatched command.
type ackPayload struct {
	Command string `json:"command"`
}

// errorPayload reports a failed command to the issuing client only.
type errorPayload struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}

func newMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, err
		}
		msg.Payload = raw
	}
	return msg, nil
}
