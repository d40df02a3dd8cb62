package protocol

import "encoding/json"

const Version = "0.1"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeAct     = "ACT"
	TypeEvent   = "EVENT"
)

// Event types carried inside EVENT messages.
const (
	EventActionResult = "ACTION_RESULT"
	EventChat         = "CHAT"
	EventContainer    = "CONTAINER"
)

// SystemSender is the "from" value of chat lines sent by the server itself.
const SystemSender = "SYSTEM"

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Type returns the event's "type" field, or "" when missing.
func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}
