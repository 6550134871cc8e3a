package events

import (
	"encoding/json"
	"time"
)

const (
	RunStarted  = "run_started"
	RunFinished = "run_finished"
	RunFailed   = "run_failed"
	Ping        = "ping"
)

// Version of the envelope; bumped when Data shapes change incompatibly.
const Version = 1

// Event is the envelope every notification travels in. Seq is assigned by
// the hub and is zero for events that never went through one.
type Event struct {
	Seq       uint64          `json:"seq,omitempty"`
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an event carrying data encoded as JSON.
func New(reqID, typ string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	return Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
}

func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}
