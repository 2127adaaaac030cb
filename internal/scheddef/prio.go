package scheddef

import (
	"time"

	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

var prioKind = NewKind()

// PoolOrderFunc decides, for a scheduler bound to numPools pools, the
// order in which Run should poll them on a given pass. A nil result or
// nil func means "ascending index order." Instance.SetData a
// PoolOrderFunc before Run's first iteration to override it — this is
// the hook internal/policyscript uses to let a JavaScript-defined
// priority function drive pool selection instead of the compiled
// default.
type PoolOrderFunc func(numPools int) []int

func defaultOrder(numPools int) []int {
	order := make([]int, numPools)
	for i := range order {
		order[i] = i
	}
	return order
}

// Prio is the predefined multi-level priority scheduler: its first
// bound pool is expected to be a pool.PriorityPool (which itself drains
// highest-priority-first), and Run additionally supports reordering
// which bound pool gets checked first via a PoolOrderFunc stashed in
// the instance's Data.
var Prio = WithKind(Definition{
	Init: func(h Handle, cfg Config) error { return nil },
	Run: func(h Handle) {
		for {
			if stop, _ := h.HasToStop(); stop {
				return
			}
			order := defaultOrder(h.NumPools())
			if fn, ok := h.Data().(PoolOrderFunc); ok && fn != nil {
				if custom := fn(h.NumPools()); custom != nil {
					order = custom
				}
			}
			dispatched := false
			for _, idx := range order {
				p := h.Pool(idx)
				if p == nil {
					continue
				}
				if w, ok := p.Pop(); ok {
					h.Dispatch(w)
					if !w.Done() {
						p.Push(w)
					}
					dispatched = true
					break
				}
			}
			if !dispatched {
				time.Sleep(idlePoll)
			}
		}
	},
	Free: func(h Handle) error { return nil },
	GetMigrationPool: func(h Handle) pool.Pool {
		return h.Pool(0)
	},
}, prioKind)

// PrioType mirrors BasicType: priority schedulers dispatch both ULTs
// and tasks unless a caller asks for ABT_SCHED_TASK_ONLY.
const PrioType = model.SchedULT
