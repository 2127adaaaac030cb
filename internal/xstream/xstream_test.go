package xstream

import (
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/me/esrt/internal/scheddef"
	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newRunningES(t *testing.T) (*ES, *scheduler.Instance) {
	t.Helper()
	reg := scheddef.NewRegistry(testLogger())
	inst, err := scheduler.CreateBasic(reg, model.SchedBasic, nil, testLogger())
	if err != nil {
		t.Fatalf("CreateBasic: %v", err)
	}
	es := New(inst, testLogger())
	return es, inst
}

func TestDispatchRunsTaskSynchronously(t *testing.T) {
	es, inst := newRunningES(t)
	var ran atomic.Bool
	task := NewTask(func(es *ES) { ran.Store(true) })
	inst.Pool(0).Push(task)

	done := make(chan struct{})
	go func() {
		es.Run()
		close(done)
	}()

	inst.Finish()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ES.Run did not return after Finish with drained pool")
	}
	if !ran.Load() {
		t.Errorf("task did not run")
	}
}

func TestULTYieldsBackToScheduler(t *testing.T) {
	es, inst := newRunningES(t)
	var steps []string
	u := NewULT(func(u *ULT, es *ES) {
		steps = append(steps, "a")
		u.Yield(es)
		steps = append(steps, "b")
	})
	inst.Pool(0).Push(u)

	done := make(chan struct{})
	go func() {
		es.Run()
		close(done)
	}()

	// Give the scheduler a moment to dispatch the ULT to its first
	// yield point, then request a drain-and-stop.
	time.Sleep(20 * time.Millisecond)
	inst.Finish()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ES.Run did not return")
	}
	if len(steps) != 2 || steps[0] != "a" || steps[1] != "b" {
		t.Errorf("steps = %v, want [a b]", steps)
	}
	if !u.Done() {
		t.Errorf("ULT not marked done")
	}
}

func TestExitStopsImmediatelyWithPendingWork(t *testing.T) {
	es, inst := newRunningES(t)
	inst.Pool(0).Push(NewTask(func(es *ES) {}))
	inst.Pool(0).Push(NewTask(func(es *ES) {}))

	done := make(chan struct{})
	go func() {
		es.Run()
		close(done)
	}()

	inst.Exit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ES.Run did not return after Exit")
	}
	if got := inst.State(); got != model.SchedTerminated {
		t.Errorf("State() = %s, want TERMINATED", got)
	}
}

func TestDispatchRefusesULTOnTaskOnlyScheduler(t *testing.T) {
	p := pool.NewFIFOPool("task-only-pool", model.PRSW, true)
	inst, err := scheduler.Create(scheddef.Basic, []pool.Pool{p}, model.SchedTaskOnly, testLogger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	es := New(inst, testLogger())

	var ran atomic.Bool
	u := NewULT(func(u *ULT, es *ES) { ran.Store(true) })
	p.Push(u)

	done := make(chan struct{})
	go func() {
		es.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	inst.Exit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ES.Run did not return after Exit")
	}
	if ran.Load() {
		t.Errorf("ULT ran on a task-only scheduler, want refused")
	}
}

func TestBindSchedulerAcrossES(t *testing.T) {
	// source is the scheduler being migrated's own pool. SRSW is
	// shared-reader, so Scenario S1 (add to another ES) accepts it.
	srcPool := pool.NewFIFOPool("src", model.SRSW, true)
	migrating, err := scheduler.Create(scheddef.Basic, []pool.Pool{srcPool}, model.SchedULT, testLogger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// target stands in for a second execution stream, running on its
	// own goroutine exactly like a real second ES would.
	target, targetInst := newRunningES(t)
	targetDone := make(chan struct{})
	go func() {
		target.Run()
		close(targetDone)
	}()

	source, _ := newRunningES(t)
	if err := source.BindScheduler(target, migrating); err != nil {
		t.Fatalf("BindScheduler: %v", err)
	}
	if got := migrating.Used(); got != model.InPool {
		t.Errorf("migrating.Used() = %s, want InPool", got)
	}

	// Nothing was ever pushed into migrating's own pool, so once it
	// starts running as a nested episode on target, has_to_stop sees
	// an empty pool immediately; Exit beforehand makes that episode
	// terminate the first time it's polled instead of idling forever.
	migrating.Exit()

	time.Sleep(20 * time.Millisecond)
	targetInst.Finish()

	select {
	case <-targetDone:
	case <-time.After(2 * time.Second):
		t.Fatal("target ES did not drain the migrated scheduler")
	}
	if got := migrating.State(); got != model.SchedTerminated {
		t.Errorf("migrating.State() = %s, want TERMINATED", got)
	}
}

func TestBindSchedulerAcrossESRejectsPrivateReaderSource(t *testing.T) {
	// PRW is private-reader; Scenario S1 rejects binding it to a pool
	// owned by a different execution stream.
	srcPool := pool.NewFIFOPool("src", model.PRW, true)
	migrating, err := scheduler.Create(scheddef.Basic, []pool.Pool{srcPool}, model.SchedULT, testLogger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	target, _ := newRunningES(t)
	source, _ := newRunningES(t)
	if err := source.BindScheduler(target, migrating); err == nil {
		t.Fatalf("BindScheduler with private-reader source: want error, got nil")
	}
	if got := migrating.Used(); got != model.NotUsed {
		t.Errorf("migrating.Used() = %s after rejected bind, want NotUsed", got)
	}
}

func TestPushExternalRecursiveVsCrossES(t *testing.T) {
	// PR_PW accepts a push from another ES but rejects a recursive
	// push (a task on this pool creating another task on it).
	owner, _ := newRunningES(t)
	other, _ := newRunningES(t)
	target := pool.NewFIFOPool("target", model.PRPW, true)

	if err := PushExternal(owner, owner, target, NewTask(func(es *ES) {})); err == nil {
		t.Errorf("PushExternal recursive on PR_PW: want error, got nil")
	}
	if target.Size() != 0 {
		t.Errorf("target.Size() = %d after rejected recursive push, want 0", target.Size())
	}

	if err := PushExternal(other, owner, target, NewTask(func(es *ES) {})); err != nil {
		t.Errorf("PushExternal from another ES on PR_PW: %v", err)
	}
	if target.Size() != 1 {
		t.Errorf("target.Size() = %d after accepted cross-ES push, want 1", target.Size())
	}
}

func TestPushAndPopSchedStack(t *testing.T) {
	es, top := newRunningES(t)
	reg := scheddef.NewRegistry(testLogger())
	nested, err := scheduler.CreateBasic(reg, model.SchedBasic, []pool.Pool{pool.NewFIFOPool("nested", model.PRW, true)}, testLogger())
	if err != nil {
		t.Fatalf("CreateBasic: %v", err)
	}

	if es.TopScheduler() != top {
		t.Fatalf("TopScheduler() before push = %v, want top", es.TopScheduler())
	}
	es.PushSched(nested)
	if es.TopScheduler() != nested {
		t.Fatalf("TopScheduler() after push = %v, want nested", es.TopScheduler())
	}
	es.PopSched()
	if es.TopScheduler() != top {
		t.Fatalf("TopScheduler() after pop = %v, want top", es.TopScheduler())
	}
}
