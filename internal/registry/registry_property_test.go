package registry

import (
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/peer-rendezvous/backend/internal/model"
)

// For any interleaving of concurrent inserts and removals, the
// registry holds at most one peer per identifier and the live count
// equals the number of distinct live identifiers.
func TestRegistrySingleSessionInvariantProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	// Keep generated sizes within the idGen filter's len<=16 bound so
	// the SuchThat filter does not exhaust gopter's discard budget.
	parameters.MaxSize = 17

	properties := gopter.NewProperties(parameters)

	idGen := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= 16
	})

	properties.Property("concurrent inserts for one id leave exactly one live peer", prop.ForAll(
		func(id string, workers int) bool {
			reg := New()

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					reg.Insert(model.NewPeer(id, "token"))
				}()
			}
			wg.Wait()

			if reg.Count() != 1 {
				return false
			}
			_, ok := reg.Lookup(id)
			return ok
		},
		idGen,
		gen.IntRange(2, 16),
	))

	properties.Property("live ids match inserted minus removed", prop.ForAll(
		func(ids []string, removeEvery int) bool {
			reg := New()

			live := make(map[string]bool)
			for i, id := range ids {
				reg.Insert(model.NewPeer(id, "token"))
				live[id] = true
				if removeEvery > 0 && i%removeEvery == 0 {
					reg.Remove(id)
					delete(live, id)
				}
			}

			got := reg.LiveIDs()
			if len(got) != len(live) {
				return false
			}
			for _, id := range got {
				if !live[id] {
					return false
				}
			}
			return reg.Count() == len(live)
		},
		gen.SliceOf(idGen),
		gen.IntRange(1, 4),
	))

	properties.Property("queues preserve enqueue order and drain once", prop.ForAll(
		func(id string, payloads []string) bool {
			reg := New()

			for _, p := range payloads {
				reg.Enqueue(id, p)
			}

			drained := reg.Drain(id)
			if len(drained) != len(payloads) {
				return false
			}
			for i, p := range payloads {
				if drained[i] != p {
					return false
				}
			}
			return len(reg.Drain(id)) == 0
		},
		idGen,
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
