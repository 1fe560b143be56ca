package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// WildcardTopic subscribes to every message regardless of its type.
const WildcardTopic = "*"

// Push message types sent by the voting server.
const (
	MessageInitialData      = "initial_data"
	MessageResultsUpdate    = "results_update"
	MessageVoteCast         = "vote_cast"
	MessageReset            = "reset"
	MessageUnlock           = "unlock"
	MessageCandidatesUpdate = "candidates_update"
)

// Message is the {type, data} envelope carried by every push frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`

	raw []byte
}

// NewMessage encodes data into an envelope of the given type.
func NewMessage(msgType string, data interface{}) (Message, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: payload}, nil
}

// DecodeMessage parses a raw frame. Frames that are not JSON objects or lack
// a non-empty string "type" are rejected with ErrDecode.
func DecodeMessage(frame []byte) (Message, error) {
	var envelope struct {
		Type *string         `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if envelope.Type == nil || *envelope.Type == "" {
		return Message{}, fmt.Errorf("%w: missing message type", ErrDecode)
	}

	data := envelope.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	return Message{
		Type: *envelope.Type,
		Data: data,
		raw:  bytes.Clone(frame),
	}, nil
}

// Envelope returns the full {type, data} encoding of the message, reusing
// the received frame when there is one.
func (m Message) Envelope() json.RawMessage {
	if m.raw != nil {
		return m.raw
	}
	data := m.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	out, err := json.Marshal(struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{m.Type, data})
	if err != nil {
		// Data was not valid JSON; degrade to a null payload.
		out, _ = json.Marshal(struct {
			Type string      `json:"type"`
			Data interface{} `json:"data"`
		}{m.Type, nil})
	}
	return out
}

type VoteCastData struct {
	CandidateID   int    `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
}

// InfoData is the payload of reset, unlock and candidates_update messages.
type InfoData struct {
	Message string `json:"message"`
}
