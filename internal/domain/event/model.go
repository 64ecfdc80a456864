package event

import (
	"bytes"
	"encoding/json"
)

// Type is the open vocabulary of workflow event tags.
type Type string

const (
	TypeAgentMessage      Type = "agent_message"
	TypeGovernanceVote    Type = "governance_vote"
	TypeDecisionFinalized Type = "decision_finalized"
)

// IsGovernance reports whether events of this type belong in the governance feed.
func (t Type) IsGovernance() bool {
	switch t {
	case TypeAgentMessage, TypeGovernanceVote, TypeDecisionFinalized:
		return true
	default:
		return false
	}
}

// Event is a single recorded workflow event. Events are never mutated once
// accepted by a Store.
type Event struct {
	EventID       string          `json:"event_id"`
	RunID         string          `json:"run_id"`
	PulseID       *string         `json:"pulse_id"`
	TS            string          `json:"ts"`
	Type          Type            `json:"type"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Title         string          `json:"title"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ParentEventID *string         `json:"parent_event_id,omitempty"`
	Severity      *string         `json:"severity,omitempty"`
}

// UnmarshalJSON decodes an event. ts may be any JSON value: strings are taken
// as-is, other values keep their raw text, and null reads as empty. Ordering
// then goes through ParseTimestamp, so an odd ts never rejects a trace.
func (e *Event) UnmarshalJSON(data []byte) error {
	type fields Event
	aux := struct {
		*fields
		TS json.RawMessage `json:"ts"`
	}{fields: (*fields)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.TS = timestampText(aux.TS)
	return nil
}

func timestampText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Pulse returns the pulse label, or "" when the event carries none.
func (e Event) Pulse() string {
	if e.PulseID == nil {
		return ""
	}
	return *e.PulseID
}

// Vote is one member's ballot inside a governance_vote payload.
type Vote struct {
	Member string `json:"member"`
	Vote   string `json:"vote"`
}

// PayloadDetails is the display subset of a payload. Nothing in the replay
// core branches on it.
type PayloadDetails struct {
	Message   string `json:"message,omitempty"`
	Rationale string `json:"rationale,omitempty"`
	Votes     []Vote `json:"votes,omitempty"`
}

// Details decodes the known display fields of the payload. Payloads of any
// other shape yield zero details.
func (e Event) Details() PayloadDetails {
	var details PayloadDetails
	if len(e.Payload) == 0 {
		return details
	}
	_ = json.Unmarshal(e.Payload, &details)
	return details
}
