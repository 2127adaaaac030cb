package xstream

import (
	"fmt"
	"sync/atomic"

	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

var ultCounter uint64

func nextULTID() string {
	return fmt.Sprintf("ult-%d", atomic.AddUint64(&ultCounter, 1))
}

// ULT is a cooperatively-scheduled work unit with its own goroutine
// standing in for a dedicated stack. Fn runs on that goroutine and must
// call Yield to hand control back to the ES voluntarily; returning from
// Fn ends the ULT for good.
type ULT struct {
	id string
	fn func(u *ULT, es *ES)

	resumeCh chan struct{}
	yieldCh  chan struct{}
	started  bool
	done     atomic.Bool
}

// NewULT constructs a ULT from fn. The goroutine backing it is not
// started until the ES first dispatches it.
func NewULT(fn func(u *ULT, es *ES)) *ULT {
	return &ULT{
		id:       nextULTID(),
		fn:       fn,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan struct{}),
	}
}

// ID implements pool.WorkUnit.
func (u *ULT) ID() string { return u.id }

// Kind implements pool.WorkUnit.
func (u *ULT) Kind() model.WorkKind { return model.KindULT }

// Done reports whether Fn has returned.
func (u *ULT) Done() bool { return u.done.Load() }

// Yield hands control back to the ES currently running this ULT and
// blocks until the ES resumes it. Must only be called from inside Fn,
// on the ULT's own goroutine.
func (u *ULT) Yield(es *ES) {
	u.yieldCh <- struct{}{}
	<-u.resumeCh
}

// ContextSwitch runs to (resuming it if already started, or starting
// its goroutine for the first time) and blocks the calling goroutine
// until to either yields or returns. from is recorded as the ES's
// previously-current work unit and restored as current once to yields
// back; from may be nil.
func (es *ES) ContextSwitch(from pool.WorkUnit, to *ULT) {
	if !to.started {
		to.started = true
		go func() {
			<-to.resumeCh
			to.fn(to, es)
			to.done.Store(true)
			to.yieldCh <- struct{}{}
		}()
	}

	es.current = to
	to.resumeCh <- struct{}{}
	<-to.yieldCh
	es.current = from
}
