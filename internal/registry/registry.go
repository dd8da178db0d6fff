// Package registry provides the in-memory store mapping identifiers to
// live peer sessions, plus the per-identifier outbound message queues.
package registry

import (
	"sync"

	"github.com/peer-rendezvous/backend/internal/model"
)

// Registry maps identifiers to live peers. All operations are atomic;
// at most one peer exists per identifier at any instant.
type Registry struct {
	mu     sync.RWMutex
	peers  map[string]*model.Peer
	queues map[string][]any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		peers:  make(map[string]*model.Peer),
		queues: make(map[string][]any),
	}
}

// Lookup returns the peer registered under id, if any.
func (r *Registry) Lookup(id string) (*model.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peer, ok := r.peers[id]
	return peer, ok
}

// Insert registers the peer under its identifier, replacing any
// previous entry for the same identifier.
func (r *Registry) Insert(peer *model.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[peer.ID()] = peer
}

// Remove deletes the peer registered under id. Removing an unknown id
// is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

// Count returns the number of live peers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// LiveIDs returns the identifiers of all live peers.
func (r *Registry) LiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue buffers an outbound message for the peer identified by id,
// to be delivered when its next transport binds.
func (r *Registry) Enqueue(id string, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[id] = append(r.queues[id], msg)
}

// Drain removes and returns all buffered messages for id in enqueue
// order.
func (r *Registry) Drain(id string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.queues[id]
	delete(r.queues, id)
	return msgs
}

// ClearQueue discards any buffered messages for id.
func (r *Registry) ClearQueue(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queues, id)
}
