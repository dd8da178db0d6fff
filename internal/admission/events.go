package admission

import (
	"sync"

	"github.com/peer-rendezvous/backend/internal/model"
)

// Events is the notification surface the owning service subscribes to.
// Callbacks are optional; unset ones are skipped.
type Events struct {
	mu sync.RWMutex

	connectionReady func(peer *model.Peer)
	message         func(peer *model.Peer, msg map[string]any)
	sessionClosed   func(peer *model.Peer)
	relayError      func(err error)
	gateError       func(err error)
	evicted         func(peer *model.Peer)
}

// NewEvents creates an empty notification surface.
func NewEvents() *Events {
	return &Events{}
}

// SetOnConnectionReady registers the callback fired after a transport
// is bound to a session, on every successful admission path.
func (e *Events) SetOnConnectionReady(fn func(peer *model.Peer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectionReady = fn
}

// SetOnMessage registers the callback fired for each relayed inbound
// message, with src already stamped with the sender's identifier.
func (e *Events) SetOnMessage(fn func(peer *model.Peer, msg map[string]any)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.message = fn
}

// SetOnSessionClosed registers the callback fired when a session is
// removed because its bound transport closed.
func (e *Events) SetOnSessionClosed(fn func(peer *model.Peer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionClosed = fn
}

// SetOnRelayError registers the callback fired for non-fatal relay
// failures such as unparseable payloads.
func (e *Events) SetOnRelayError(fn func(err error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relayError = fn
}

// SetOnGateError registers the callback fired for every protocol
// rejection.
func (e *Events) SetOnGateError(fn func(err error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gateError = fn
}

// SetOnEvicted registers the callback fired exactly once per evicted
// session.
func (e *Events) SetOnEvicted(fn func(peer *model.Peer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evicted = fn
}

func (e *Events) fireConnectionReady(peer *model.Peer) {
	e.mu.RLock()
	fn := e.connectionReady
	e.mu.RUnlock()
	if fn != nil {
		fn(peer)
	}
}

func (e *Events) fireMessage(peer *model.Peer, msg map[string]any) {
	e.mu.RLock()
	fn := e.message
	e.mu.RUnlock()
	if fn != nil {
		fn(peer, msg)
	}
}

func (e *Events) fireSessionClosed(peer *model.Peer) {
	e.mu.RLock()
	fn := e.sessionClosed
	e.mu.RUnlock()
	if fn != nil {
		fn(peer)
	}
}

func (e *Events) fireRelayError(err error) {
	e.mu.RLock()
	fn := e.relayError
	e.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func (e *Events) fireGateError(err error) {
	e.mu.RLock()
	fn := e.gateError
	e.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func (e *Events) fireEvicted(peer *model.Peer) {
	e.mu.RLock()
	fn := e.evicted
	e.mu.RUnlock()
	if fn != nil {
		fn(peer)
	}
}
