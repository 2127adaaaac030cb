package pool

import (
	"sync"

	"github.com/me/esrt/pkg/model"
)

// NumPriorityLevels is the number of discrete priority levels a
// PriorityPool maintains, mirroring the reference runtime's
// ABTI_SCHED_NUM_PRIO.
const NumPriorityLevels = 3

// PrioritizedWorkUnit is a WorkUnit that additionally declares which
// priority level it belongs to. Units pushed without this interface
// land in the lowest-priority (last-drained) level.
type PrioritizedWorkUnit interface {
	WorkUnit
	Priority() int
}

// PriorityPool is a Pool backed by NumPriorityLevels FIFO queues. Pop
// always drains the highest-priority non-empty level first; within a
// level, order is FIFO.
type PriorityPool struct {
	mu        sync.Mutex
	id        string
	access    model.AccessMode
	automatic bool
	levels    [NumPriorityLevels][]WorkUnit
	blocked   int
	refCount  int
}

// NewPriorityPool constructs a PriorityPool with the given process-unique
// id and access mode.
func NewPriorityPool(id string, access model.AccessMode, automatic bool) *PriorityPool {
	return &PriorityPool{id: id, access: access, automatic: automatic}
}

func (p *PriorityPool) ID() string { return p.id }

func levelFor(w WorkUnit) int {
	if pw, ok := w.(PrioritizedWorkUnit); ok {
		lvl := pw.Priority()
		if lvl < 0 {
			return 0
		}
		if lvl >= NumPriorityLevels {
			return NumPriorityLevels - 1
		}
		return lvl
	}
	return NumPriorityLevels - 1
}

func (p *PriorityPool) Push(w WorkUnit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lvl := levelFor(w)
	p.levels[lvl] = append(p.levels[lvl], w)
}

func (p *PriorityPool) Pop() (WorkUnit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for lvl := 0; lvl < NumPriorityLevels; lvl++ {
		if len(p.levels[lvl]) > 0 {
			w := p.levels[lvl][0]
			p.levels[lvl] = p.levels[lvl][1:]
			return w, true
		}
	}
	return nil, false
}

func (p *PriorityPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for lvl := range p.levels {
		n += len(p.levels[lvl])
	}
	return n
}

func (p *PriorityPool) TotalSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.blocked
	for lvl := range p.levels {
		n += len(p.levels[lvl])
	}
	return n
}

func (p *PriorityPool) AccessMode() model.AccessMode { return p.access }

func (p *PriorityPool) Retain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refCount++
}

func (p *PriorityPool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refCount > 0 {
		p.refCount--
	}
}

func (p *PriorityPool) RefCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refCount
}

func (p *PriorityPool) NumScheds() int { return p.RefCount() }

func (p *PriorityPool) Automatic() bool { return p.automatic }

func (p *PriorityPool) AcceptMigration(source Pool, ctx MigrationContext) bool {
	if ctx.DifferentES {
		return AcceptBindSchedulerAcrossES(source.AccessMode())
	}
	return acceptGeneral(source.AccessMode(), p.access)
}
