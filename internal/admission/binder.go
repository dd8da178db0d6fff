package admission

import (
	"encoding/json"
	"fmt"

	"github.com/peer-rendezvous/backend/internal/model"
)

// bind wires transport events to the session lifecycle, flushes any
// messages queued while the peer was unbound, and signals readiness.
// It runs on every successful admission path.
func (a *Admitter) bind(peer *model.Peer, conn Conn) {
	conn.SetOnData(func(data []byte) {
		a.relay(peer, data)
	})
	conn.SetOnClose(func() {
		a.teardown(peer, conn)
	})

	for _, msg := range a.reg.Drain(peer.ID()) {
		if err := conn.Send(msg); err != nil {
			a.log.Debug().Err(err).Str("id", peer.ID()).Msg("failed to flush queued message")
			break
		}
	}

	a.events.fireConnectionReady(peer)
}

// relay forwards one inbound payload upward with src stamped with the
// verified sender identity. Parse failures are non-fatal; the session
// and transport stay up.
func (a *Admitter) relay(peer *model.Peer, data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		a.events.fireRelayError(fmt.Errorf("unparseable message from %s: %w", peer.ID(), err))
		return
	}
	msg["src"] = peer.ID()
	a.events.fireMessage(peer, msg)
}

// teardown handles a transport close. Only the currently bound
// transport may end the session; a delayed close from a transport that
// has since been replaced is a no-op. It takes admitMu so the release
// check and the registry removal are one atomic unit with respect to
// admission: a rebind cannot slip in between them and have its freshly
// bound session deleted.
func (a *Admitter) teardown(peer *model.Peer, conn Conn) {
	a.admitMu.Lock()
	defer a.admitMu.Unlock()

	if !peer.ReleaseTransport(conn) {
		return
	}
	a.reg.Remove(peer.ID())
	a.events.fireSessionClosed(peer)
	a.log.Info().Str("id", peer.ID()).Msg("session closed")
}
