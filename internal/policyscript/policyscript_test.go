package policyscript

import "testing"

func TestPoolOrderReverses(t *testing.T) {
	ev, err := New(`function poolOrder(n) {
		var order = [];
		for (var i = n - 1; i >= 0; i--) { order.push(i); }
		return order;
	}`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := ev.PoolOrder(3)
	want := []int{2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("PoolOrder(3) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PoolOrder(3) = %v, want %v", got, want)
		}
	}
}

func TestNewRejectsMissingFunction(t *testing.T) {
	if _, err := New(`var x = 1;`); err == nil {
		t.Fatal("New: want error for script missing poolOrder, got nil")
	}
}

func TestPoolOrderReturnsNilOnScriptError(t *testing.T) {
	ev, err := New(`function poolOrder(n) { throw new Error("boom"); }`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := ev.PoolOrder(2); got != nil {
		t.Fatalf("PoolOrder = %v, want nil", got)
	}
}
