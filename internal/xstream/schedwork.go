package xstream

import (
	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/pkg/model"
)

// SchedWorkUnit wraps a Scheduler Instance so it can be pushed into
// another scheduler's pool as a migratable work unit (used =
// model.InPool). Dispatching one pushes it onto the ES's scheduler
// stack and runs it as a nested scheduling episode until it terminates,
// then pops the stack back to the prior scheduler.
type SchedWorkUnit struct {
	Instance *scheduler.Instance
}

// ID implements pool.WorkUnit.
func (s *SchedWorkUnit) ID() string { return s.Instance.ID() }

// Kind implements pool.WorkUnit.
func (s *SchedWorkUnit) Kind() model.WorkKind { return model.KindSched }

// Done reports whether the wrapped scheduler has reached the
// Terminated state. In practice it's always true by the time a
// scheddef.Definition's Run loop checks it: runNestedSched blocks on
// Instance.Run for the whole nested scheduling episode, and Run only
// returns once that instance's own HasToStop has committed
// SchedTerminated. The re-push-if-not-done branch in Basic/Prio exists
// for work units that can genuinely yield mid-flight (a ULT); for a
// migrated scheduler it's dead code, kept only because Done is part of
// the shared pool.WorkUnit interface.
func (s *SchedWorkUnit) Done() bool {
	return s.Instance.State() == model.SchedTerminated
}
