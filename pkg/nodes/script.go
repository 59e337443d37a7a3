package nodes

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aretw0/canopy/pkg/blackboard"
)

// Expressions are compiled once per source text and evaluated against a
// snapshot of the blackboard. Undefined keys evaluate to nil.
var programs sync.Map // string -> *vm.Program

func compile(code string) (*vm.Program, error) {
	if p, ok := programs.Load(code); ok {
		return p.(*vm.Program), nil
	}
	p, err := expr.Compile(code,
		expr.Env(map[string]any{}),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", code, err)
	}
	programs.Store(code, p)
	return p, nil
}

// Evaluate runs the boolean expression code against bb.
func Evaluate(code string, bb *blackboard.Blackboard) (bool, error) {
	p, err := compile(code)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(p, bb.Snapshot())
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", code, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: got %T, want bool", code, out)
	}
	return b, nil
}
