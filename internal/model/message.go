package model

import "errors"

// MessageType identifies a control frame sent to a remote peer.
type MessageType string

const (
	// MessageTypeOpen acknowledges a successful fresh registration.
	MessageTypeOpen MessageType = "OPEN"

	// MessageTypeError precedes every rejection close.
	MessageTypeError MessageType = "ERROR"

	// MessageTypeIDTaken rejects an attempt to claim an identifier that
	// is registered under a different token.
	MessageTypeIDTaken MessageType = "ID_TAKEN"
)

// Message is a control frame on the wire.
type Message struct {
	Type    MessageType   `json:"type"`
	Payload *ErrorPayload `json:"payload,omitempty"`
}

// ErrorPayload carries the human-readable reason of an ERROR or
// ID_TAKEN frame.
type ErrorPayload struct {
	Msg string `json:"msg"`
}

// OpenMessage builds the OPEN acknowledgement frame.
func OpenMessage() *Message {
	return &Message{Type: MessageTypeOpen}
}

// ErrorMessage builds the rejection frame for err. ErrIDTaken gets its
// dedicated frame type; every other rejection is a plain ERROR frame.
func ErrorMessage(err error) *Message {
	typ := MessageTypeError
	if errors.Is(err, ErrIDTaken) {
		typ = MessageTypeIDTaken
	}
	return &Message{Type: typ, Payload: &ErrorPayload{Msg: err.Error()}}
}
