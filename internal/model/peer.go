// Package model holds the peer session entity, the wire frames exchanged
// with remote peers, and the protocol error values.
package model

import "sync"

// ReconnectToken is the reserved token value a peer presents to force
// eviction of an existing session registered under the same identifier.
const ReconnectToken = "__RECONNECT__"

// Transport is the session-facing surface of one live connection.
// A peer holds at most one transport at a time and never shares it.
type Transport interface {
	Send(v any) error
	Close() error
}

// Peer represents a registered, authenticated session endpoint.
// The identifier is peer-chosen and unique among live sessions; the
// token proves ownership of the identifier for the session's duration.
type Peer struct {
	id    string
	token string

	mu        sync.Mutex
	transport Transport
}

// NewPeer creates a peer with the given identifier and token and no
// bound transport.
func NewPeer(id, token string) *Peer {
	return &Peer{id: id, token: token}
}

// ID returns the peer's identifier.
func (p *Peer) ID() string {
	return p.id
}

// Token returns the peer's secret token.
func (p *Peer) Token() string {
	return p.token
}

// Transport returns the currently bound transport, or nil.
func (p *Peer) Transport() Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transport
}

// SetTransport binds t as the peer's current transport. Passing nil
// unbinds without closing.
func (p *Peer) SetTransport(t Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport = t
}

// ReleaseTransport clears the bound transport only if t is still the
// current one. It reports whether the release happened, so a delayed
// close from a replaced transport cannot tear down the session that
// has since rebound.
func (p *Peer) ReleaseTransport(t Transport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport != t {
		return false
	}
	p.transport = nil
	return true
}
