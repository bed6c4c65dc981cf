package ir

import "github.com/llhd-ir/llhd/pkg/hwtype"

// UnitKind distinguishes the three unit flavors LLHD supports, each
// with its own execution model (spec.md §2).
type UnitKind int

const (
	// UnitFunction is a combinational, block-structured unit: no
	// signals, no time, pure data flow terminated by Ret/RetValue.
	UnitFunction UnitKind = iota
	// UnitProcess is a block-structured unit that may suspend on Wait/
	// WaitTime and drive signals; models explicit event-driven control
	// flow.
	UnitProcess
	// UnitEntity is a netlist-style unit with no control flow: a flat,
	// unordered (but deterministically laid out) list of concurrent
	// signal assignments.
	UnitEntity
)

func (k UnitKind) String() string {
	switch k {
	case UnitFunction:
		return "func"
	case UnitProcess:
		return "proc"
	case UnitEntity:
		return "entity"
	}
	return "?"
}

// Unit is the common interface implemented by Function, Process and
// Entity: every unit exposes its name, signature, data-flow graph and
// argument values. Layout is kind-specific (FunctionLayout vs.
// InstLayout) and is reached through the concrete type.
type Unit interface {
	Name() string
	Kind() UnitKind
	Sig() Signature
	DFG() *DataFlowGraph
	Args() []Value
}

// baseUnit factors the fields shared by Function, Process and Entity:
// a name, a signature and a data-flow graph. Each embeds this and adds
// its own layout.
type baseUnit struct {
	name string
	kind UnitKind
	sig  Signature
	dfg  *DataFlowGraph
	args []Value
}

func newBaseUnit(name string, kind UnitKind, sig Signature) baseUnit {
	dfg := NewDataFlowGraph()
	args := make([]Value, len(sig.Ins))
	for i, ty := range sig.Ins {
		args[i] = dfg.AddArg(ty)
	}
	return baseUnit{name: name, kind: kind, sig: sig, dfg: dfg, args: args}
}

func (u *baseUnit) Name() string        { return u.name }
func (u *baseUnit) Kind() UnitKind      { return u.kind }
func (u *baseUnit) Sig() Signature      { return u.sig }
func (u *baseUnit) DFG() *DataFlowGraph { return u.dfg }
func (u *baseUnit) Args() []Value       { return u.args }

// ReturnType reports the declared return type of a function/process
// unit (hwtype.Void() for processes and entities).
func (u *baseUnit) ReturnType() *hwtype.Type {
	if u.sig.Ret != nil {
		return u.sig.Ret
	}
	return hwtype.Void()
}
