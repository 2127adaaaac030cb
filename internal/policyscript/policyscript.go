// Package policyscript lets a topology replace the compiled
// ascending pool order a PRIO scheduler uses by default with a
// JavaScript function, evaluated through goja the same way the
// reference CWL expression evaluator embeds a JS runtime for
// user-supplied expressions.
package policyscript

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/me/esrt/internal/scheddef"
)

// Evaluator wraps a goja.Runtime preloaded with a user script that
// must define a poolOrder(numPools) function returning an array of
// pool indices.
type Evaluator struct {
	vm *goja.Runtime
	fn goja.Callable
}

// New compiles script and resolves its poolOrder function.
func New(script string) (*Evaluator, error) {
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("policy script: %w", err)
	}
	fnVal := vm.Get("poolOrder")
	if fnVal == nil || goja.IsUndefined(fnVal) {
		return nil, fmt.Errorf("policy script: poolOrder function not defined")
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, fmt.Errorf("policy script: poolOrder is not callable")
	}
	return &Evaluator{vm: vm, fn: fn}, nil
}

// PoolOrder calls the script's poolOrder(numPools) function and
// converts its return value into a []int. Any evaluation error or
// malformed return value yields a nil slice, which scheddef.Prio's Run
// loop treats as "fall back to ascending order."
func (e *Evaluator) PoolOrder(numPools int) []int {
	result, err := e.fn(goja.Undefined(), e.vm.ToValue(numPools))
	if err != nil {
		return nil
	}
	exported := result.Export()
	raw, ok := exported.([]any)
	if !ok {
		return nil
	}
	order := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int64:
			order = append(order, int(n))
		case float64:
			order = append(order, int(n))
		default:
			return nil
		}
	}
	return order
}

// AsPoolOrderFunc adapts e into the scheddef.PoolOrderFunc signature so
// it can be stashed in a Scheduler Instance's Data via SetData.
func (e *Evaluator) AsPoolOrderFunc() scheddef.PoolOrderFunc {
	return e.PoolOrder
}
