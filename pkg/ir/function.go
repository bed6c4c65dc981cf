package ir

import (
	"fmt"
	"strings"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

// Function is a combinational, block-structured unit: no signals, no
// suspension, terminated along every path by Ret/RetValue (spec.md §2).
type Function struct {
	baseUnit
	layout *FunctionLayout
}

// NewFunction creates an empty function named name with the given
// argument and return types.
func NewFunction(name string, args []*hwtype.Type, ret *hwtype.Type) *Function {
	return &Function{
		baseUnit: newBaseUnit(name, UnitFunction, NewFunctionSig(args, ret)),
		layout:   NewFunctionLayout(),
	}
}

// Layout returns the function's block/instruction ordering.
func (f *Function) Layout() *FunctionLayout { return f.layout }

func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s (%d args) -> %s", f.name, len(f.sig.Ins), f.ReturnType())
	return b.String()
}
