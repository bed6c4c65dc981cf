package ir

import (
	"fmt"
	"math/big"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

// ExtUnitData records what an ExtUnit declaration refers to: the name
// and signature of a function/process/entity defined elsewhere, used
// by Call/Inst instructions and resolved to a concrete unit only at
// link time (pkg/llhdmod).
type ExtUnitData struct {
	Name string
	Sig  *hwtype.Type
}

// DataFlowGraph owns every instruction, value and external-unit
// declaration belonging to a single unit: an arena plus the side
// tables needed to answer "what type is this value" and "who uses
// this value" in O(1), the way the original crate's DataFlowGraph
// does (ir/mod.rs). It does not order instructions; pkg/ir's Layout
// types own that (spec.md §4.3).
type DataFlowGraph struct {
	insts      PrimaryTable[Inst, InstData]
	instTypes  SecondaryTable[Inst, *hwtype.Type]
	instValue  SecondaryTable[Inst, Value]
	instNames  SecondaryTable[Inst, string]

	values    PrimaryTable[Value, ValueData]
	valueName SecondaryTable[Value, string]
	uses      map[Value][]Use

	args      PrimaryTable[Arg, *hwtype.Type]
	argValues []Value

	outs      PrimaryTable[Arg, *hwtype.Type]
	outValues []Value

	extUnits PrimaryTable[ExtUnit, ExtUnitData]
}

// NewDataFlowGraph returns an empty data-flow graph.
func NewDataFlowGraph() *DataFlowGraph {
	return &DataFlowGraph{uses: make(map[Value][]Use)}
}

// AddArg declares a new unit input argument of the given type and
// returns the Value denoting it.
func (g *DataFlowGraph) AddArg(ty *hwtype.Type) Value {
	a := g.args.Add(ty)
	v := g.values.Add(ValueData{Kind: ValueArg, Type: ty, Arg: a})
	g.argValues = append(g.argValues, v)
	return v
}

// ArgValue returns the Value for the n'th declared argument.
func (g *DataFlowGraph) ArgValue(n Arg) Value {
	if int(n) >= len(g.argValues) {
		return NoValue
	}
	return g.argValues[n]
}

// NumArgs returns how many arguments have been declared.
func (g *DataFlowGraph) NumArgs() int { return g.args.Len() }

// AddOut declares a new entity output signal of the given type and
// returns the Value denoting it; entity builders connect it to a
// driven signal with Con (spec.md §3's "Con" opcode).
func (g *DataFlowGraph) AddOut(ty *hwtype.Type) Value {
	a := g.outs.Add(ty)
	v := g.values.Add(ValueData{Kind: ValueOutArg, Type: ty, Arg: a})
	g.outValues = append(g.outValues, v)
	return v
}

// OutValue returns the Value for the n'th declared output.
func (g *DataFlowGraph) OutValue(n Arg) Value {
	if int(n) >= len(g.outValues) {
		return NoValue
	}
	return g.outValues[n]
}

// NumOuts returns how many outputs have been declared.
func (g *DataFlowGraph) NumOuts() int { return g.outs.Len() }

// AddInst inserts data as a new instruction producing a value of
// resultType (hwtype.Void() for instructions with no result) and
// registers the uses it makes of its value operands. It does not
// place the instruction in any block; callers go through
// FunctionLayout/InstLayout to do that (spec.md §4.3/§4.4).
func (g *DataFlowGraph) AddInst(data InstData, resultType *hwtype.Type) Inst {
	inst := g.insts.Add(data)
	g.instTypes.Set(inst, resultType)
	if !resultType.IsVoid() {
		v := g.values.Add(ValueData{Kind: ValueInst, Type: resultType, Inst: inst})
		g.instValue.Set(inst, v)
	}
	for slot, arg := range data.Args() {
		g.addUse(arg, inst, slot)
	}
	return inst
}

func (g *DataFlowGraph) addUse(v Value, user Inst, slot int) {
	g.uses[v] = append(g.uses[v], Use{User: user, Slot: slot})
}

// InstData returns the payload of inst.
func (g *DataFlowGraph) InstData(inst Inst) InstData { return g.insts.Get(inst) }

// Opcode returns the opcode of inst.
func (g *DataFlowGraph) Opcode(inst Inst) Opcode { return g.insts.Get(inst).Opcode() }

// HasResult reports whether inst produces a (non-void) value.
func (g *DataFlowGraph) HasResult(inst Inst) bool {
	ty, ok := g.instTypes.Get(inst)
	return ok && !ty.IsVoid()
}

// InstResult returns the value produced by inst, or NoValue if it has
// none.
func (g *DataFlowGraph) InstResult(inst Inst) Value {
	if v, ok := g.instValue.Get(inst); ok {
		return v
	}
	return NoValue
}

// GetInstResult is an alias for InstResult.
func (g *DataFlowGraph) GetInstResult(inst Inst) Value { return g.InstResult(inst) }

// ValueType returns the static type of v.
func (g *DataFlowGraph) ValueType(v Value) *hwtype.Type {
	return g.values.Get(v).Type
}

// ValueData returns the full ValueData describing v.
func (g *DataFlowGraph) ValueData(v Value) ValueData { return g.values.Get(v) }

// Uses returns every operand slot currently referencing v.
func (g *DataFlowGraph) Uses(v Value) []Use {
	return append([]Use(nil), g.uses[v]...)
}

// ReplaceUse rewrites every use of oldV to refer to newV instead,
// returning the number of uses rewritten.
func (g *DataFlowGraph) ReplaceUse(oldV, newV Value) int {
	uses := g.uses[oldV]
	for _, use := range uses {
		data := g.insts.Get(use.User)
		data.SetArg(use.Slot, newV)
		g.addUse(newV, use.User, use.Slot)
	}
	delete(g.uses, oldV)
	return len(uses)
}

// RemoveInst deletes inst from the arena, dropping it from the use
// lists of every value it referenced. It is the caller's
// responsibility (via Layout) to first unlink it from block order and
// to verify it has no remaining uses of its own result.
func (g *DataFlowGraph) RemoveInst(inst Inst) {
	data := g.insts.Get(inst)
	for slot, arg := range data.Args() {
		g.removeUse(arg, inst, slot)
	}
	if v, ok := g.instValue.Get(inst); ok {
		delete(g.uses, v)
		g.instValue.Clear(inst)
	}
	g.instTypes.Clear(inst)
	g.instNames.Clear(inst)
	g.insts.Remove(inst)
}

func (g *DataFlowGraph) removeUse(v Value, user Inst, slot int) {
	list := g.uses[v]
	for i, u := range list {
		if u.User == user && u.Slot == slot {
			g.uses[v] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// SetName attaches a source-level name to inst's result, used only for
// assembly output (spec.md §6's `%name` syntax); it has no semantic
// effect.
func (g *DataFlowGraph) SetName(inst Inst, name string) { g.instNames.Set(inst, name) }

// Name returns the name attached to inst's result, if any.
func (g *DataFlowGraph) Name(inst Inst) (string, bool) { return g.instNames.Get(inst) }

// GetConstInt returns the big.Int immediate of a ConstInt-producing
// value, or nil if v is not such a constant.
func (g *DataFlowGraph) GetConstInt(v Value) *big.Int {
	d := g.values.Get(v)
	if d.Kind != ValueInst {
		return nil
	}
	ci, ok := g.insts.Get(d.Inst).(*ConstInt)
	if !ok {
		return nil
	}
	return ci.Imm
}

// GetConstTime returns the ConstTime payload of a ConstTime-producing
// value, or nil if v is not such a constant.
func (g *DataFlowGraph) GetConstTime(v Value) *ConstTime {
	d := g.values.Get(v)
	if d.Kind != ValueInst {
		return nil
	}
	ct, ok := g.insts.Get(d.Inst).(*ConstTime)
	if !ok {
		return nil
	}
	return ct
}

// AddExtern declares an external unit reference named name with
// signature sig, returning its id for use in Call/Inst instructions.
func (g *DataFlowGraph) AddExtern(name string, sig *hwtype.Type) ExtUnit {
	return g.extUnits.Add(ExtUnitData{Name: name, Sig: sig})
}

// ExternSig returns the declared signature of an external unit.
func (g *DataFlowGraph) ExternSig(u ExtUnit) *hwtype.Type {
	return g.extUnits.Get(u).Sig
}

// ExternName returns the declared name of an external unit.
func (g *DataFlowGraph) ExternName(u ExtUnit) string {
	return g.extUnits.Get(u).Name
}

// ExternUnits returns every externally-declared unit id in this graph.
func (g *DataFlowGraph) ExternUnits() []ExtUnit { return g.extUnits.Keys() }

// NewPlaceholder allocates a value of the given type with no defining
// instruction yet, for building mutually-recursive graphs; callers
// must ReplaceUse it away before the unit is finished.
func (g *DataFlowGraph) NewPlaceholder(ty *hwtype.Type) Value {
	return g.values.Add(ValueData{Kind: ValuePlaceholder, Type: ty})
}

// Insts returns every live instruction id in the graph, in allocation
// order. Iteration order for assembly output instead follows Layout.
func (g *DataFlowGraph) Insts() []Inst { return g.insts.Keys() }

func (g *DataFlowGraph) String() string {
	return fmt.Sprintf("dfg{%d insts, %d values}", g.insts.Len(), g.values.Len())
}
