package pool

import (
	"sync"

	"github.com/me/esrt/pkg/model"
)

// FIFOPool is a single-queue, first-in-first-out Pool. It is the pool
// behind the BASIC scheduler definition and the default pool created
// for a new execution stream's main scheduler.
type FIFOPool struct {
	mu        sync.Mutex
	id        string
	access    model.AccessMode
	automatic bool
	units     []WorkUnit
	blocked   int
	refCount  int
}

// NewFIFOPool constructs a FIFOPool with the given process-unique id and
// access mode. automatic marks the pool as owned by whichever scheduler
// last releases it (destroyed alongside it).
func NewFIFOPool(id string, access model.AccessMode, automatic bool) *FIFOPool {
	return &FIFOPool{id: id, access: access, automatic: automatic}
}

func (p *FIFOPool) ID() string { return p.id }

func (p *FIFOPool) Push(w WorkUnit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.units = append(p.units, w)
}

func (p *FIFOPool) Pop() (WorkUnit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.units) == 0 {
		return nil, false
	}
	w := p.units[0]
	p.units = p.units[1:]
	return w, true
}

func (p *FIFOPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.units)
}

func (p *FIFOPool) TotalSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.units) + p.blocked
}

func (p *FIFOPool) AccessMode() model.AccessMode { return p.access }

func (p *FIFOPool) Retain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refCount++
}

func (p *FIFOPool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refCount > 0 {
		p.refCount--
	}
}

func (p *FIFOPool) RefCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refCount
}

func (p *FIFOPool) NumScheds() int { return p.RefCount() }

func (p *FIFOPool) Automatic() bool { return p.automatic }

func (p *FIFOPool) AcceptMigration(source Pool, ctx MigrationContext) bool {
	if ctx.DifferentES {
		return AcceptBindSchedulerAcrossES(source.AccessMode())
	}
	return acceptGeneral(source.AccessMode(), p.access)
}
