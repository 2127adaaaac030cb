package xstream

import (
	"fmt"
	"sync/atomic"

	"github.com/me/esrt/pkg/model"
)

var taskCounter uint64

func nextTaskID() string {
	return fmt.Sprintf("task-%d", atomic.AddUint64(&taskCounter, 1))
}

// Task is a run-to-completion work unit with no stack of its own: Fn
// runs synchronously on the ES's own goroutine, so it must not block
// indefinitely or the whole execution stream stalls with it.
type Task struct {
	id string
	fn func(es *ES)
}

// NewTask constructs a Task from fn.
func NewTask(fn func(es *ES)) *Task {
	return &Task{id: nextTaskID(), fn: fn}
}

// ID implements pool.WorkUnit.
func (t *Task) ID() string { return t.id }

// Kind implements pool.WorkUnit.
func (t *Task) Kind() model.WorkKind { return model.KindTask }

// Done always reports true: a task runs to completion the moment it
// is dispatched, so it is never re-pushed into its pool.
func (t *Task) Done() bool { return true }
