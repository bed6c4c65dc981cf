package ir

import "github.com/llhd-ir/llhd/pkg/hwtype"

// Inst identifies an instruction within a unit's arena. Ids are
// allocated from zero; NoInst is the explicit sentinel for "no
// instruction".
type Inst uint32

// NoInst is the sentinel Inst id meaning "absent" (e.g. a block with no
// terminator yet, or a value with no defining instruction).
const NoInst Inst = ^Inst(0)

// Value identifies an SSA-style value: either an instruction result, a
// unit argument, or a placeholder.
type Value uint32

// NoValue is the sentinel Value id.
const NoValue Value = ^Value(0)

// Block identifies a basic block within a unit's layout.
type Block uint32

// NoBlock is the sentinel Block id.
const NoBlock Block = ^Block(0)

// Arg identifies one of a unit's input arguments.
type Arg uint32

// ExtUnit identifies a declaration of an external function/process/
// entity referenced by Call/Inst instructions, local to one unit.
type ExtUnit uint32

// ValueKind distinguishes what a Value denotes.
type ValueKind int

const (
	// ValueInst marks a value as the result of a non-void instruction.
	ValueInst ValueKind = iota
	// ValueArg marks a value as one of the unit's input arguments.
	ValueArg
	// ValueOutArg marks a value as one of an entity's output signals.
	ValueOutArg
	// ValuePlaceholder marks a value allocated ahead of the instruction
	// that will define it, used while building recursive/forward
	// references; resolved via DataFlowGraph.ReplaceUse before the unit
	// is considered complete.
	ValuePlaceholder
)

// ValueData records what a Value denotes and its static type.
type ValueData struct {
	Kind ValueKind
	Type *hwtype.Type
	Inst Inst // valid when Kind == ValueInst
	Arg  Arg  // valid when Kind == ValueArg
}

// Use records one operand position referencing a Value, so that a
// value's users can be enumerated and rewired in RemoveInst/ReplaceUse
// without scanning every instruction (spec.md §4.2's "use tracking").
type Use struct {
	User Inst
	Slot int
}
