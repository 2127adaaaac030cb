package pool

import (
	"testing"

	"github.com/me/esrt/pkg/model"
)

type fakeUnit struct {
	id   string
	kind model.WorkKind
	prio int
}

func (f fakeUnit) ID() string           { return f.id }
func (f fakeUnit) Kind() model.WorkKind { return f.kind }
func (f fakeUnit) Done() bool           { return true }
func (f fakeUnit) Priority() int        { return f.prio }

func TestFIFOPoolOrdering(t *testing.T) {
	p := NewFIFOPool("p1", model.PRW, true)
	p.Push(fakeUnit{id: "a"})
	p.Push(fakeUnit{id: "b"})
	p.Push(fakeUnit{id: "c"})

	if got := p.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}
	for _, want := range []string{"a", "b", "c"} {
		w, ok := p.Pop()
		if !ok {
			t.Fatalf("Pop() returned ok=false, want a unit")
		}
		if w.ID() != want {
			t.Errorf("Pop() = %s, want %s", w.ID(), want)
		}
	}
	if _, ok := p.Pop(); ok {
		t.Errorf("Pop() on empty pool returned ok=true")
	}
}

func TestFIFOPoolRefCount(t *testing.T) {
	p := NewFIFOPool("p1", model.PRW, false)
	p.Retain()
	p.Retain()
	if got := p.RefCount(); got != 2 {
		t.Fatalf("RefCount() = %d, want 2", got)
	}
	p.Release()
	if got := p.NumScheds(); got != 1 {
		t.Fatalf("NumScheds() = %d, want 1", got)
	}
	p.Release()
	p.Release()
	if got := p.RefCount(); got != 0 {
		t.Fatalf("RefCount() = %d, want 0 (must not go negative)", got)
	}
}

func TestFIFOPoolAcceptMigrationDifferentES(t *testing.T) {
	target := NewFIFOPool("t", model.PRW, true)
	source := NewFIFOPool("s", model.SRPW, true)
	if !target.AcceptMigration(source, MigrationContext{DifferentES: true}) {
		t.Errorf("AcceptMigration across ES from SR_PW source rejected, want accepted")
	}

	source2 := NewFIFOPool("s2", model.PRSW, true)
	if target.AcceptMigration(source2, MigrationContext{DifferentES: true}) {
		t.Errorf("AcceptMigration across ES from PR_SW source accepted, want rejected")
	}
}

func TestFIFOPoolAcceptMigrationSameES(t *testing.T) {
	target := NewFIFOPool("t", model.SRPW, true)
	source := NewFIFOPool("s", model.PRW, true)
	if target.AcceptMigration(source, MigrationContext{}) {
		t.Errorf("AcceptMigration(PRW -> SR_PW) accepted, want rejected")
	}

	target2 := NewFIFOPool("t2", model.PRW, true)
	if !target2.AcceptMigration(source, MigrationContext{}) {
		t.Errorf("AcceptMigration(PRW -> PRW) rejected, want accepted")
	}
}
