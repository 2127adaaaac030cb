package scheddef

import (
	"time"

	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

// idlePoll is how long Run backs off when every bound pool is empty,
// so an idle scheduler doesn't spin a whole OS thread at 100% CPU.
const idlePoll = 200 * time.Microsecond

var basicKind = NewKind()

// Basic is the predefined round-robin scheduler: it scans its bound
// pools in order every iteration and dispatches the first work unit it
// finds. With a single pool this degenerates to plain FIFO draining,
// which is what sched_create_basic and ABT_SCHED_DEFAULT give callers
// that don't care about scheduling policy.
var Basic = WithKind(Definition{
	Init: func(h Handle, cfg Config) error { return nil },
	Run: func(h Handle) {
		for {
			if stop, _ := h.HasToStop(); stop {
				return
			}
			dispatched := false
			for i := 0; i < h.NumPools(); i++ {
				p := h.Pool(i)
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
}, basicKind)

// BasicType is the SchedType newly created basic schedulers use unless
// overridden: both ULTs and tasks may be dispatched.
const BasicType = model.SchedULT
