// Package xstream implements the Execution Stream: the goroutine,
// pinned to one OS thread, that drives a stack of Scheduler Instances
// and hands popped work units to ULTs or tasks.
//
// The reference runtime's context_switch between ULT stacks has no
// direct Go equivalent — Go doesn't expose stackful coroutines. Here
// every ULT gets its own goroutine, parked on an unbuffered channel
// until the ES resumes it; the ES's own goroutine blocks on the
// matching channel until the ULT yields or returns, which reproduces
// "exactly one of these runs at a time" without needing to touch a
// stack pointer directly.
package xstream

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

var esCounter uint64

func nextESID() string {
	return fmt.Sprintf("es-%d", atomic.AddUint64(&esCounter, 1))
}

// ES is an Execution Stream: one pinned OS thread driving a stack of
// Scheduler Instances, the topmost of which is currently dispatching
// work.
type ES struct {
	id string

	topSchedMu sync.Mutex
	schedStack []*scheduler.Instance

	mainULT *ULT
	current pool.WorkUnit

	logger *slog.Logger

	running atomic.Bool
}

// New constructs an ES with top as its initial (and, until PushSched is
// called, only) scheduler. top.AttachES(es) is called so HasToStop can
// find its owning stream.
func New(top *scheduler.Instance, logger *slog.Logger) *ES {
	if logger == nil {
		logger = slog.Default()
	}
	es := &ES{
		id:         nextESID(),
		schedStack: []*scheduler.Instance{top},
	}
	es.logger = logger.With("component", "xstream", "es_id", es.id)
	top.AttachES(es)
	if err := top.Associate(model.Main); err != nil {
		es.logger.Warn("top scheduler already associated", "error", err)
	}
	return es
}

// ID returns the ES's process-unique identifier.
func (es *ES) ID() string { return es.id }

// TopScheduler returns the currently-topmost Scheduler Instance.
func (es *ES) TopScheduler() *scheduler.Instance {
	es.topSchedMu.Lock()
	defer es.topSchedMu.Unlock()
	return es.schedStack[len(es.schedStack)-1]
}

// PushSched pushes a new top scheduler onto the stack, e.g. when a
// migrated Scheduler Instance work unit is dispatched and begins
// running as a nested scheduler. PopSched restores the prior top.
func (es *ES) PushSched(inst *scheduler.Instance) {
	es.topSchedMu.Lock()
	es.schedStack = append(es.schedStack, inst)
	es.topSchedMu.Unlock()
	inst.AttachES(es)
}

// PopSched removes the topmost scheduler from the stack, restoring the
// prior one. It is a no-op if only one scheduler remains.
func (es *ES) PopSched() {
	es.topSchedMu.Lock()
	defer es.topSchedMu.Unlock()
	if len(es.schedStack) <= 1 {
		return
	}
	es.schedStack = es.schedStack[:len(es.schedStack)-1]
}

// BindScheduler implements the "add a scheduler to a pool" operation
// (Scenarios S1 and S2 of the access-mode matrix): inst, a standalone
// scheduler not yet running anywhere, is migrated onto target's
// scheduler stack as a nested scheduling episode. The pool it lands in
// is chosen by target's current top scheduler's GetMigrationPool,
// which checks the access-mode matrix using inst's own first pool as
// the source side: AcceptBindSchedulerAcrossES when target runs on a
// different ES than es, or the ordinary migration-accept rule when it
// doesn't (same-ES binding to a pool of possibly different access,
// i.e. S2). Once accepted, inst is marked InPool and wrapped as a
// SchedWorkUnit so PushSched/PopSched run it the next time it's
// dispatched.
func (es *ES) BindScheduler(target *ES, inst *scheduler.Instance) error {
	source := inst.Pool(0)
	if source == nil {
		return model.InvalidPoolAccess.Wrap("scheduler %s has no pool of its own to bind with", inst.ID())
	}
	dest, err := target.TopScheduler().GetMigrationPool(source, pool.MigrationContext{DifferentES: es != target})
	if err != nil {
		return err
	}
	if err := inst.Associate(model.InPool); err != nil {
		return err
	}
	dest.Push(&SchedWorkUnit{Instance: inst})
	return nil
}

// PushExternal implements the "push a task directly onto a pool"
// operation (Scenario S3): target is a pool owned by owner's top
// scheduler, and caller is the execution stream actually creating t.
// If caller is owner itself, this is the recursive case — a task
// already dispatched from target creating another task on that same
// pool — checked via AcceptPushRecursive. Otherwise it's a genuine
// cross-ES push, checked via AcceptPushFromAnotherES. Both bypass the
// scheduler's own Run loop entirely: t lands straight in target.
func PushExternal(caller, owner *ES, target pool.Pool, t *Task) error {
	var ok bool
	if caller == owner {
		ok = pool.AcceptPushRecursive(target.AccessMode())
	} else {
		ok = pool.AcceptPushFromAnotherES(target.AccessMode())
	}
	if !ok {
		return model.InvalidPoolAccess.Wrap("pool %s refuses a push from this context", target.ID())
	}
	target.Push(t)
	return nil
}

// LockTopSched implements scheduler.ESHandle: it guards the window
// during which a cross-ES migration may try to bind to this ES's top
// scheduler while has_to_stop is deciding whether to terminate it.
func (es *ES) LockTopSched() { es.topSchedMu.Lock() }

// UnlockTopSched implements scheduler.ESHandle.
func (es *ES) UnlockTopSched() { es.topSchedMu.Unlock() }

// HasMainULT implements scheduler.ESHandle.
func (es *ES) HasMainULT() bool { return es.mainULT != nil }

// SwitchToMain implements scheduler.ESHandle: it yields the currently
// running ULT/task back to the ES's registered main ULT, if any, the
// same way the reference runtime's has_to_stop jumps back to the
// caller's original context when there's nothing left to schedule and
// no finish request pending.
func (es *ES) SwitchToMain() {
	if es.mainULT == nil {
		return
	}
	es.ContextSwitch(es.current, es.mainULT)
}

// SetMainULT registers the ULT that SwitchToMain resumes when the
// scheduler goes idle without a pending finish/exit request. Typically
// the ULT that called Run to start this ES's scheduling loop.
func (es *ES) SetMainULT(u *ULT) { es.mainULT = u }

// Dispatch implements scheduler.ESHandle: it runs a popped work unit to
// completion (Task), to its next yield point (ULT), or as a nested
// scheduling episode (a migrated Scheduler Instance).
func (es *ES) Dispatch(w pool.WorkUnit) {
	switch w.Kind() {
	case model.KindTask:
		es.runTask(w)
	case model.KindULT:
		if es.TopScheduler().Type() == model.SchedTaskOnly {
			es.logger.Error("refusing to park a ULT inside a task-only scheduler", "id", w.ID())
			return
		}
		u, ok := w.(*ULT)
		if !ok {
			es.logger.Error("work unit declares KindULT but is not *ULT", "id", w.ID())
			return
		}
		es.ContextSwitch(es.current, u)
	case model.KindSched:
		sw, ok := w.(*SchedWorkUnit)
		if !ok {
			es.logger.Error("work unit declares KindSched but is not *SchedWorkUnit", "id", w.ID())
			return
		}
		es.runNestedSched(sw.Instance)
	default:
		es.logger.Error("work unit has unknown kind", "id", w.ID())
	}
}

func (es *ES) runTask(w pool.WorkUnit) {
	t, ok := w.(*Task)
	if !ok {
		es.logger.Error("work unit declares KindTask but is not *Task", "id", w.ID())
		return
	}
	defer func() {
		if r := recover(); r != nil {
			es.logger.Error("task panicked", "id", t.ID(), "panic", r)
		}
	}()
	t.fn(es)
}

func (es *ES) runNestedSched(inst *scheduler.Instance) {
	es.PushSched(inst)
	defer es.PopSched()
	inst.Run()
}

// Run pins the calling goroutine to its OS thread and drives the
// topmost scheduler's Run hook until it decides to stop. Run returns
// once the top scheduler terminates.
func (es *ES) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	es.running.Store(true)
	defer es.running.Store(false)

	es.logger.Info("execution stream starting")
	es.TopScheduler().Run()
	es.logger.Info("execution stream stopped")
}

// Running reports whether Run is currently executing on this ES.
func (es *ES) Running() bool { return es.running.Load() }
