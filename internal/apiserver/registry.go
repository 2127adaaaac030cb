package apiserver

import (
	"sync"

	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/pkg/pool"
)

// Registry is the live directory of schedulers and pools the
// introspection API walks. cmd/esrtd registers each Instance and Pool
// as it constructs them; nothing here drives scheduling, it only
// answers read queries about what's running.
type Registry struct {
	mu    sync.RWMutex
	scheds map[string]*scheduler.Instance
	pools  map[string]pool.Pool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		scheds: make(map[string]*scheduler.Instance),
		pools:  make(map[string]pool.Pool),
	}
}

// RegisterScheduler adds inst to the directory, indexed by its ID.
func (r *Registry) RegisterScheduler(inst *scheduler.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheds[inst.ID()] = inst
}

// RegisterPool adds p to the directory, indexed by its ID.
func (r *Registry) RegisterPool(p pool.Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[p.ID()] = p
}

// Scheduler returns the registered Instance for id, or nil if none.
func (r *Registry) Scheduler(id string) *scheduler.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scheds[id]
}

// Pool returns the registered Pool for id, or nil if none.
func (r *Registry) Pool(id string) pool.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pools[id]
}

// Schedulers returns every registered Instance, in no particular order.
func (r *Registry) Schedulers() []*scheduler.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*scheduler.Instance, 0, len(r.scheds))
	for _, inst := range r.scheds {
		out = append(out, inst)
	}
	return out
}
