// Package scheduler implements the Scheduler Instance: the mutable
// runtime state stamped from a scheddef.Definition, the stop/finish/exit
// request protocol, and pool association rules. This is the core the
// rest of the runtime (execution streams, pools, CLI/API introspection)
// is built around.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/me/esrt/internal/scheddef"
	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

// ESHandle is the slice of an execution stream's state a Scheduler
// Instance needs once it becomes that ES's top scheduler: the mutex
// guarding concurrent pool binding/migration, and the ability to yield
// back to the ES's main ULT when idle and not finishing.
//
// Defined here, rather than in internal/xstream, so that package can
// depend on this one (for Instance) without a cycle: xstream.ES
// implements ESHandle.
type ESHandle interface {
	LockTopSched()
	UnlockTopSched()
	HasMainULT() bool
	SwitchToMain()
	Dispatch(w pool.WorkUnit)
}

// AuditSink receives lifecycle events as a Scheduler Instance moves
// through its state machine. A nil AuditSink is valid: Instance treats
// every call as optional and skips it entirely.
type AuditSink interface {
	RecordSchedEvent(schedID string, kind uint64, event string, detail string)
}

var idCounter uint64

func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, atomic.AddUint64(&idCounter, 1))
}

// Instance is a Scheduler Instance: the live, mutable counterpart to an
// immutable scheddef.Definition. Exactly one Instance exists per
// created scheduler; it is identified by ID() for logging and
// introspection purposes.
type Instance struct {
	mu sync.Mutex

	id      string
	def     scheddef.Definition
	pools   []pool.Pool
	state   model.SchedState
	used    model.UsedState
	typ     model.SchedType
	request atomic.Uint32
	data    any

	es ESHandle

	logger *slog.Logger
	audit  AuditSink
}

// Create builds a new Instance from def, binding pools (retaining each)
// and running def.Init. If Init returns an error, every pool retained
// so far is released before Create returns the error: the reference
// runtime leaves this rollback to the caller, but since nothing outside
// this package can reach a half-constructed Instance, doing it here
// removes a whole class of caller mistakes.
func Create(def scheddef.Definition, pools []pool.Pool, typ model.SchedType, logger *slog.Logger) (*Instance, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inst := &Instance{
		id:    nextID("sched"),
		def:   def,
		pools: append([]pool.Pool{}, pools...),
		state: model.SchedReady,
		used:  model.NotUsed,
		typ:   typ,
	}
	inst.logger = logger.With("component", "scheduler", "sched_id", inst.id, "kind", def.Kind())

	for _, p := range inst.pools {
		p.Retain()
		inst.recordEvent("pool-bind", fmt.Sprintf("pool=%s access=%s", p.ID(), p.AccessMode()))
	}

	if def.Init != nil {
		if err := def.Init(inst, scheddef.Config{Pools: inst.pools, Type: typ}); err != nil {
			for _, p := range inst.pools {
				p.Release()
				inst.recordEvent("pool-release", fmt.Sprintf("pool=%s reason=init-failed", p.ID()))
			}
			return nil, fmt.Errorf("scheduler init: %w", err)
		}
	}
	inst.recordEvent("create", fmt.Sprintf("pools=%d type=%s", len(inst.pools), typ))
	return inst, nil
}

// CreateBasic builds an Instance from a predefined scheduler looked up
// in reg. If pools is empty, a single automatic FIFOPool with PR_SW
// access is created for it, mirroring ABT_sched_create_basic's default
// ABT_POOL_ACCESS_MPSC pool.
func CreateBasic(reg *scheddef.Registry, predef model.SchedPredef, pools []pool.Pool, logger *slog.Logger) (*Instance, error) {
	def, err := reg.Get(predef)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		pools = []pool.Pool{pool.NewFIFOPool(nextID("pool"), model.PRSW, true)}
	}
	return Create(def, pools, model.SchedULT, logger)
}

func (inst *Instance) recordEvent(event, detail string) {
	inst.logger.Debug("scheduler lifecycle", "event", event, "detail", detail)
	if inst.audit != nil {
		inst.audit.RecordSchedEvent(inst.id, inst.def.Kind(), event, detail)
	}
}

// SetAuditSink attaches an optional lifecycle audit sink. Passing nil
// detaches it. Safe to call at any point in the Instance's lifetime.
func (inst *Instance) SetAuditSink(sink AuditSink) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.audit = sink
}

// ID returns the Instance's process-unique identifier.
func (inst *Instance) ID() string { return inst.id }

// Kind returns the process-unique identity of the Definition this
// Instance was stamped from.
func (inst *Instance) Kind() uint64 { return inst.def.Kind() }

// Type reports whether this Instance may dispatch ULTs and tasks, or
// tasks only.
func (inst *Instance) Type() model.SchedType {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.typ
}

// State returns the Instance's current lifecycle state.
func (inst *Instance) State() model.SchedState {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state
}

func (inst *Instance) setState(s model.SchedState) {
	inst.mu.Lock()
	inst.state = s
	inst.mu.Unlock()
}

// Pools returns the pools bound to this Instance, in bind order. The
// returned slice is a copy; callers must not rely on further mutation
// of the Instance being visible through it.
func (inst *Instance) Pools() []pool.Pool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	out := make([]pool.Pool, len(inst.pools))
	copy(out, inst.pools)
	return out
}

// Pool returns the pool at idx, or nil if idx is out of range. It is
// meant for internal callers (the scheddef Run loops) that only ever
// index within [0, NumPools()); callers taking idx from outside the
// package, such as the introspection API, should use GetPools instead,
// which reports the out-of-range access spec.md's get_pools surfaces
// as a model.Sched error.
func (inst *Instance) Pool(idx int) pool.Pool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if idx < 0 || idx >= len(inst.pools) {
		return nil
	}
	return inst.pools[idx]
}

// NumPools returns the number of pools bound to this Instance.
func (inst *Instance) NumPools() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return len(inst.pools)
}

// GetPools returns up to max pools starting at idx, in bind order. It
// fails with model.Sched if idx is out of range, matching the
// documented purpose of that error code ("an out-of-range pool
// slice"). A max of 0 or less returns every pool from idx onward.
func (inst *Instance) GetPools(idx, max int) ([]pool.Pool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if idx < 0 || idx >= len(inst.pools) {
		return nil, model.Sched.Wrap("scheduler %s: pool index %d out of range [0, %d)", inst.id, idx, len(inst.pools))
	}
	end := len(inst.pools)
	if max > 0 && idx+max < end {
		end = idx + max
	}
	out := make([]pool.Pool, end-idx)
	copy(out, inst.pools[idx:end])
	return out, nil
}

// GetSize returns the sum of Size() across every bound pool: the
// number of immediately poppable work units, excluding blocked or
// migrating ones.
func (inst *Instance) GetSize() int {
	total := 0
	for _, p := range inst.Pools() {
		total += p.Size()
	}
	return total
}

// GetTotalSize returns the sum of TotalSize() across every bound pool.
func (inst *Instance) GetTotalSize() int {
	total := 0
	for _, p := range inst.Pools() {
		total += p.TotalSize()
	}
	return total
}

// SetData stores scheduler-definition-private state.
func (inst *Instance) SetData(v any) {
	inst.mu.Lock()
	inst.data = v
	inst.mu.Unlock()
}

// Data returns whatever SetData last stored, or nil.
func (inst *Instance) Data() any {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.data
}

// Dispatch hands a popped work unit to the owning execution stream. If
// this Instance has not yet been associated with an ES, Dispatch is a
// no-op: this can only happen if a Definition's Run hook calls it
// before association, which is a caller bug it has no way to surface
// other than silently dropping the unit.
func (inst *Instance) Dispatch(w pool.WorkUnit) {
	inst.mu.Lock()
	es := inst.es
	inst.mu.Unlock()
	if es != nil {
		es.Dispatch(w)
	}
}

// Associate marks the Instance as used, either as an ES's main
// scheduler (model.Main) or as a migratable work unit pushed into
// another scheduler's pool (model.InPool). It fails with
// model.Sched if the Instance is already associated: the reference
// runtime's used field is write-once.
func (inst *Instance) Associate(use model.UsedState) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.used != model.NotUsed {
		return model.Sched.Wrap("scheduler %s already associated as %s", inst.id, inst.used)
	}
	inst.used = use
	return nil
}

// Used returns how this Instance is currently associated.
func (inst *Instance) Used() model.UsedState {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.used
}

// AttachES associates this Instance with the execution stream that will
// run it as its top scheduler, enabling the idle-yield and
// stop-protocol locking steps of HasToStop. Called by the ES: by
// xstream.New for its initial top scheduler, just before
// Associate(model.Main), and by PushSched for a nested scheduler.
func (inst *Instance) AttachES(es ESHandle) {
	inst.mu.Lock()
	inst.es = es
	inst.mu.Unlock()
}

// Run invokes the Definition's Run hook with this Instance as its
// Handle, transitioning to Running first.
func (inst *Instance) Run() {
	inst.setState(model.SchedRunning)
	inst.recordEvent("run", "")
	if inst.def.Run != nil {
		inst.def.Run(inst)
	}
}

// Finish requests a graceful stop: the scheduler terminates once every
// bound pool is drained. Safe to call from any goroutine.
func (inst *Instance) Finish() {
	inst.request.Or(uint32(model.ReqFinish))
	inst.recordEvent("finish-requested", "")
}

// Exit requests an immediate stop, regardless of pending work. Safe to
// call from any goroutine.
func (inst *Instance) Exit() {
	inst.request.Or(uint32(model.ReqExit))
	inst.recordEvent("exit-requested", "")
}

// HasToStop runs the stop/finish/exit decision procedure. It is meant
// to be polled from inside the Definition's Run hook, which only runs
// once this Instance is attached to an execution stream via AttachES;
// calling it before that returns model.InvalidXStream, mirroring the
// reference runtime's "calling thread isn't attached to an ES" check.
//
// This normalizes one asymmetry present in the reference runtime: its
// exit-request branch locks the owning ES's top-scheduler mutex but
// never unlocks it, and its finish-request branch only unlocks when the
// recheck finds pending work. Both are almost certainly oversights
// rather than intentional lock hand-off — nothing downstream expects to
// find that mutex still held — so this implementation always releases
// it before returning.
func (inst *Instance) HasToStop() (bool, error) {
	inst.mu.Lock()
	attached := inst.es != nil
	inst.mu.Unlock()
	if !attached {
		return false, model.InvalidXStream.Wrap("scheduler %s has_to_stop called outside any execution stream", inst.id)
	}

	if inst.request.Load()&uint32(model.ReqExit) != 0 {
		inst.lockES()
		inst.setState(model.SchedTerminated)
		inst.unlockES()
		inst.recordEvent("terminated", "exit request")
		return true, nil
	}

	if inst.GetTotalSize() != 0 {
		return false, nil
	}

	if inst.request.Load()&uint32(model.ReqFinish) != 0 {
		inst.lockES()
		defer inst.unlockES()
		if inst.GetTotalSize() == 0 {
			inst.setState(model.SchedTerminated)
			inst.recordEvent("terminated", "finish request, pools drained")
			return true, nil
		}
		return false, nil
	}

	inst.mu.Lock()
	es := inst.es
	inst.mu.Unlock()
	if es != nil && es.HasMainULT() {
		es.SwitchToMain()
	}
	return false, nil
}

func (inst *Instance) lockES() {
	inst.mu.Lock()
	es := inst.es
	inst.mu.Unlock()
	if es != nil {
		es.LockTopSched()
	}
}

func (inst *Instance) unlockES() {
	inst.mu.Lock()
	es := inst.es
	inst.mu.Unlock()
	if es != nil {
		es.UnlockTopSched()
	}
}

// GetMigrationPool picks the pool a migrating work unit originating
// from source should land in: the Definition's GetMigrationPool hook
// if it defines one, else the first bound pool. It fails with
// model.InvalidSched if this Instance has already terminated, and with
// model.InvalidPoolAccess if the chosen pool rejects the migration.
func (inst *Instance) GetMigrationPool(source pool.Pool, ctx pool.MigrationContext) (pool.Pool, error) {
	if inst.State() == model.SchedTerminated {
		return nil, model.InvalidSched.Wrap("scheduler %s has terminated", inst.id)
	}

	var candidate pool.Pool
	if inst.def.GetMigrationPool != nil {
		candidate = inst.def.GetMigrationPool(inst)
	} else if inst.NumPools() > 0 {
		candidate = inst.Pool(0)
	}
	if candidate == nil {
		return nil, model.InvalidPoolAccess.Wrap("scheduler %s has no pool to migrate into", inst.id)
	}
	if !candidate.AcceptMigration(source, ctx) {
		return nil, model.InvalidPoolAccess.Wrap("pool %s rejected migration from %s", candidate.ID(), source.ID())
	}
	return candidate, nil
}

// Free releases every bound pool and runs the Definition's Free hook.
// Called at most once; calling it twice double-releases pools, which
// is a caller bug this does not attempt to guard against, matching the
// reference runtime's single-free contract.
func (inst *Instance) Free() error {
	inst.mu.Lock()
	pools := append([]pool.Pool{}, inst.pools...)
	def := inst.def
	inst.mu.Unlock()

	for _, p := range pools {
		p.Release()
		inst.recordEvent("pool-release", fmt.Sprintf("pool=%s reason=free", p.ID()))
	}

	var err error
	if def.Free != nil {
		err = def.Free(inst)
	}
	inst.recordEvent("free", "")
	return err
}
