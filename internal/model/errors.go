package model

import "errors"

var (
	// ErrInvalidParams is returned when the handshake is missing one of
	// id, token or key.
	ErrInvalidParams = errors.New("id, token and key are required")

	// ErrInvalidKey is returned when the presented key does not match
	// the configured shared key.
	ErrInvalidKey = errors.New("invalid key provided")

	// ErrIDTaken is returned when the identifier is registered under a
	// different token.
	ErrIDTaken = errors.New("ID is taken")

	// ErrConnectionLimit is returned when the concurrent-session
	// ceiling has been reached.
	ErrConnectionLimit = errors.New("server has reached its maximum number of connections")
)
