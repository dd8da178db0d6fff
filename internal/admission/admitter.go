// Package admission turns raw inbound connections into authenticated,
// uniquely-identified sessions: it validates handshake credentials,
// enforces the concurrent-session ceiling, handles rebind and forced
// reconnect, and relays inbound messages upward tagged with the
// verified sender identity.
package admission

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/peer-rendezvous/backend/internal/model"
	"github.com/peer-rendezvous/backend/internal/registry"
)

// Conn is the connection surface the admitter works against: the
// peer-facing transport plus registration of transport-level events.
type Conn interface {
	model.Transport
	SetOnData(fn func(data []byte))
	SetOnClose(fn func())
}

// Params are the handshake parameters of one connection attempt.
type Params struct {
	ID    string
	Token string
	Key   string
}

// Options configure an Admitter.
type Options struct {
	// Key is the shared secret every connection attempt must present.
	Key string

	// MaxConnections is the concurrent-session ceiling.
	MaxConnections int

	// ReuseEvictedToken keeps the presented token for the replacement
	// session after a forced reconnect. When false the replacement
	// session is issued a freshly generated token.
	ReuseEvictedToken bool
}

// Admitter decides, per connection attempt, whether to register a new
// session, rebind an existing one, evict and replace one, or reject.
type Admitter struct {
	opts   Options
	reg    *registry.Registry
	events *Events
	log    zerolog.Logger

	// admitMu serializes the lookup-then-mutate admission sequence so
	// two racing attempts for one identifier cannot both register or
	// both evict.
	admitMu sync.Mutex
}

// NewAdmitter creates an admitter over the given registry.
func NewAdmitter(reg *registry.Registry, events *Events, opts Options, log zerolog.Logger) *Admitter {
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = 5000
	}
	if events == nil {
		events = NewEvents()
	}
	return &Admitter{
		opts:   opts,
		reg:    reg,
		events: events,
		log:    log,
	}
}

// Events returns the notification surface.
func (a *Admitter) Events() *Events {
	return a.events
}

// Admit runs the full admission sequence for one connection attempt.
// On rejection the error frame has been sent and the connection
// closed; the returned error names the rejection. On success the
// returned peer is bound to conn and connection-ready has fired.
func (a *Admitter) Admit(conn Conn, p Params) (*model.Peer, error) {
	if err := a.gate(p); err != nil {
		a.reject(conn, p, err)
		return nil, err
	}

	peer, replaced, err := a.admit(conn, p)

	// Displaced transports are closed outside the critical section so
	// their close handling can re-enter teardown without deadlocking.
	if replaced != nil {
		if closeErr := replaced.Close(); closeErr != nil {
			a.log.Warn().Err(closeErr).Str("id", p.ID).Msg("error closing replaced transport")
		}
	}

	if err != nil {
		a.reject(conn, p, err)
		return nil, err
	}
	return peer, nil
}

// admit is the lookup-then-mutate admission decision, serialized under
// admitMu so two racing attempts for one identifier cannot both
// register or both evict. Any transport it displaces is returned for
// the caller to best-effort close.
func (a *Admitter) admit(conn Conn, p Params) (peer *model.Peer, replaced model.Transport, err error) {
	a.admitMu.Lock()
	defer a.admitMu.Unlock()

	existing, ok := a.reg.Lookup(p.ID)
	switch {
	case !ok:
		peer, err = a.register(conn, p.ID, p.Token)
		if err != nil {
			return nil, nil, err
		}
		a.bind(peer, conn)
		return peer, nil, nil

	case existing.Token() == p.Token:
		// Rebind: same session object, new transport, no OPEN frame.
		replaced = existing.Transport()
		existing.SetTransport(conn)
		a.log.Debug().Str("id", p.ID).Msg("session rebound to new transport")
		a.bind(existing, conn)
		return existing, replaced, nil

	case p.Token == model.ReconnectToken:
		replaced = a.evict(existing)
		token := p.Token
		if !a.opts.ReuseEvictedToken {
			token = uuid.New().String()
		}
		peer, err = a.register(conn, p.ID, token)
		if err != nil {
			return nil, replaced, err
		}
		a.bind(peer, conn)
		return peer, replaced, nil

	default:
		return nil, nil, model.ErrIDTaken
	}
}

// gate verifies structural and authentication preconditions before any
// registry access.
func (a *Admitter) gate(p Params) error {
	if p.ID == "" || p.Token == "" || p.Key == "" {
		return model.ErrInvalidParams
	}
	if p.Key != a.opts.Key {
		return model.ErrInvalidKey
	}
	return nil
}

// register creates and stores a new session, then acknowledges it with
// an OPEN frame.
func (a *Admitter) register(conn Conn, id, token string) (*model.Peer, error) {
	if a.reg.Count() >= a.opts.MaxConnections {
		return nil, model.ErrConnectionLimit
	}

	peer := model.NewPeer(id, token)
	peer.SetTransport(conn)
	a.reg.Insert(peer)

	if err := conn.Send(model.OpenMessage()); err != nil {
		a.log.Warn().Err(err).Str("id", id).Msg("failed to send open frame")
	}
	a.log.Info().Str("id", id).Msg("session registered")
	return peer, nil
}

// evict removes an existing session to make room for a reconnect under
// the same identifier. The transport is detached and returned for a
// best-effort close by the caller; the remaining cleanup runs
// unconditionally, whatever that close's outcome.
func (a *Admitter) evict(peer *model.Peer) model.Transport {
	t := peer.Transport()
	peer.SetTransport(nil)
	a.reg.ClearQueue(peer.ID())
	a.reg.Remove(peer.ID())
	a.events.fireEvicted(peer)
	a.log.Info().Str("id", peer.ID()).Msg("session evicted for reconnect")
	return t
}

// reject sends the protocol-error frame for err and terminates the
// connection. No session state is touched beyond what the state
// machine already decided.
func (a *Admitter) reject(conn Conn, p Params, err error) {
	if sendErr := conn.Send(model.ErrorMessage(err)); sendErr != nil {
		a.log.Debug().Err(sendErr).Msg("failed to send error frame")
	}
	_ = conn.Close()
	a.events.fireGateError(err)
	a.log.Warn().Err(err).Str("id", p.ID).Msg("connection rejected")
}
