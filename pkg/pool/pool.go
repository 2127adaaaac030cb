// Package pool implements the Pool contract consumed by the scheduler
// core: an ordered multiset of work units with a declared access mode
// and a retain/release counter tracking which schedulers bind it.
//
// The core (internal/scheduler) depends only on the Pool interface
// below; FIFOPool and PriorityPool are concrete implementations a
// caller plugs in, the same way the reference runtime treats pools as
// an external collaborator to the scheduler core.
package pool

import "github.com/me/esrt/pkg/model"

// WorkUnit is anything a Pool can hold: a Task, a ULT, or a Scheduler
// Instance pushed as a migratable work unit (used = IN_POOL).
type WorkUnit interface {
	// ID returns a process-unique identifier for logging/introspection.
	ID() string
	// Kind reports whether this is a task, a ULT, or a migrating scheduler.
	Kind() model.WorkKind
	// Done reports whether the unit has run to completion. A task is
	// always Done immediately after a single Dispatch; a ULT is Done
	// only once its function returns rather than yields; a migrated
	// scheduler work unit is Done once its nested Run terminates. A
	// scheduler's Run loop re-pushes a popped, not-yet-Done unit into
	// the pool it came from instead of discarding it.
	Done() bool
}

// Pool is the contract the scheduler core depends on. Implementations
// must be safe for concurrent use by multiple execution streams,
// subject to the constraints their own AccessMode declares.
type Pool interface {
	// ID returns a process-unique identifier for logging/introspection.
	ID() string

	// Push adds a work unit. Callers must have already validated the
	// access-mode matrix via AcceptMigration or
	// AcceptPushFromAnotherES/AcceptPushRecursive where applicable;
	// Push itself does not re-check access mode.
	Push(w WorkUnit)

	// Pop removes and returns the next work unit, or (nil, false) if empty.
	Pop() (WorkUnit, bool)

	// Size returns the number of immediately poppable work units
	// (excludes blocked/migrating units).
	Size() int

	// TotalSize returns Size plus any blocked/migrating units.
	TotalSize() int

	// AccessMode returns the pool's immutable access-mode declaration.
	AccessMode() model.AccessMode

	// Retain increments the scheduler-binding refcount. Called once per
	// scheduler that binds this pool.
	Retain()

	// Release decrements the scheduler-binding refcount. Called once per
	// scheduler that releases this pool (e.g. on sched_free).
	Release()

	// RefCount returns the current scheduler-binding refcount.
	RefCount() int

	// NumScheds returns the number of schedulers currently binding this
	// pool. For the pools implemented here NumScheds always equals
	// RefCount; the two are kept distinct in the interface because the
	// reference runtime tracks them as separate counters.
	NumScheds() int

	// Automatic reports whether this pool is owned by the scheduler that
	// last releases it (destroyed along with it), as opposed to a
	// user-created pool that outlives its binding schedulers.
	Automatic() bool

	// AcceptMigration reports whether a work unit may migrate from
	// source into this pool, given this pool's access mode and the
	// calling ES context. See access_matrix.go.
	AcceptMigration(source Pool, ctx MigrationContext) bool
}

// MigrationContext carries the information the access-mode matrix needs
// to decide whether a cross-ES or cross-access operation is permitted.
// The zero value describes "same ES, no cross-access concern."
type MigrationContext struct {
	// DifferentES is true when the candidate pool is being bound to, or
	// pushed into from, an execution stream other than the one that
	// currently owns it as a top-scheduler pool.
	DifferentES bool
	// SourceIsSecondary is true for Scenario S2 ("add to another
	// access"): the source pool is a secondary pool on the same ES as
	// the candidate, and the two have (possibly) different access modes.
	// AcceptMigration does not read it: S2 uses the same rule as any
	// same-ES migration (acceptGeneral).
	SourceIsSecondary bool
}
