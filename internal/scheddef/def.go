// Package scheddef holds the Scheduler Definition vtable: the set of
// hooks (init/run/free/get_migration_pool) that give a Scheduler
// Instance its behavior, plus a process-unique kind identity used to
// tell two definitions apart without comparing function pointers.
//
// A Definition never touches a scheduler.Instance directly — that
// would create an import cycle, since internal/scheduler depends on
// scheddef for the Definition type itself. Instead every hook is
// handed a Handle, the minimal read/write view onto an Instance that
// internal/scheduler.Instance implements.
package scheddef

import (
	"sync/atomic"

	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

// Handle is the view a Definition's hooks get onto the Scheduler
// Instance they're attached to.
type Handle interface {
	// Pools returns the pools bound to this instance, in bind order.
	Pools() []pool.Pool
	// Pool returns the pool at idx, or nil if out of range.
	Pool(idx int) pool.Pool
	// NumPools returns len(Pools()).
	NumPools() int
	// SetData stores scheduler-definition-private state on the instance.
	SetData(v any)
	// Data returns whatever SetData last stored, or nil.
	Data() any
	// HasToStop runs the stop/finish/exit decision procedure and reports
	// whether the Run hook should return.
	HasToStop() (bool, error)
	// Kind returns the definition's process-unique kind identity.
	Kind() uint64
	// Dispatch hands a popped work unit to the owning execution stream
	// for actual execution (context-switch for a ULT, direct call for a
	// task, recursive Run for a migrated scheduler).
	Dispatch(w pool.WorkUnit)
}

// Config is the pool set and type a new Instance is constructed with.
type Config struct {
	Pools []pool.Pool
	Type  model.SchedType
}

// Definition is the immutable vtable a Scheduler Instance is stamped
// from. Two Instances created from the same Definition value share a
// Kind; a Definition built via NewKind always gets a fresh one.
type Definition struct {
	kind uint64

	// Init runs once, right after an Instance is constructed and its
	// pools are bound. A non-nil error aborts construction;
	// scheduler.Create then releases every pool it had bound.
	Init func(h Handle, cfg Config) error

	// Run is the scheduler's main loop. It must call h.HasToStop()
	// periodically and return once it reports true.
	Run func(h Handle)

	// Free releases any Definition-private resources Init allocated.
	// Called at most once, during sched_free.
	Free func(h Handle) error

	// GetMigrationPool chooses which bound pool a migrating work unit
	// should land in. A nil field means "use pool 0"; a nil return from
	// a non-nil hook makes the migration fail with InvalidPoolAccess.
	GetMigrationPool func(h Handle) pool.Pool
}

// Kind returns the definition's process-unique identity.
func (d Definition) Kind() uint64 { return d.kind }

var kindCounter uint64

// NewKind allocates a fresh process-unique scheduler-definition kind.
// Call once per distinct Definition and reuse the result across every
// Instance stamped from it — two instances sharing a Kind is how the
// runtime recognizes "these are the same kind of scheduler" without
// comparing function values, which Go forbids.
func NewKind() uint64 {
	return atomic.AddUint64(&kindCounter, 1)
}

// WithKind returns a copy of d stamped with kind. Predefined
// definitions call this once at package init time.
func WithKind(d Definition, kind uint64) Definition {
	d.kind = kind
	return d
}
