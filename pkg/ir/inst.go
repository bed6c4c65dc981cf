package ir

import (
	"fmt"
	"math/big"
)

// Opcode identifies the operation an instruction performs. Its validity
// against a unit kind, terminator/const/temporal classification, and
// printed mnemonic are all driven off this single tag, mirroring the
// original crate's Opcode enum (ir/inst.rs).
type Opcode int

const (
	OpConstInt Opcode = iota
	OpConstTime
	OpAlias
	OpNot
	OpNeg
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpSmul
	OpSdiv
	OpSmod
	OpSrem
	OpUmul
	OpUdiv
	OpUmod
	OpUrem
	OpEq
	OpNeq
	OpSlt
	OpSgt
	OpSle
	OpSge
	OpUlt
	OpUgt
	OpUle
	OpUge
	OpShl
	OpShr
	OpMux
	OpReg
	OpArray
	OpArrayUniform
	OpStruct
	OpInsField
	OpInsSlice
	OpExtField
	OpExtSlice
	OpCon
	OpDel
	OpCall
	OpInst
	OpSig
	OpPrb
	OpDrv
	OpDrvCond
	OpVar
	OpLd
	OpSt
	OpHalt
	OpRet
	OpRetValue
	OpBr
	OpBrCond
	OpWait
	OpWaitTime
)

var opcodeNames = map[Opcode]string{
	OpConstInt: "const", OpConstTime: "const", OpAlias: "alias",
	OpNot: "not", OpNeg: "neg", OpAdd: "add", OpSub: "sub",
	OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpSmul: "smul", OpSdiv: "sdiv", OpSmod: "smod", OpSrem: "srem",
	OpUmul: "umul", OpUdiv: "udiv", OpUmod: "umod", OpUrem: "urem",
	OpEq: "eq", OpNeq: "neq",
	OpSlt: "slt", OpSgt: "sgt", OpSle: "sle", OpSge: "sge",
	OpUlt: "ult", OpUgt: "ugt", OpUle: "ule", OpUge: "uge",
	OpShl: "shl", OpShr: "shr", OpMux: "mux", OpReg: "reg",
	OpArray: "array", OpArrayUniform: "array", OpStruct: "struct",
	OpInsField: "insfield", OpInsSlice: "insslice",
	OpExtField: "extfield", OpExtSlice: "extslice",
	OpCon: "con", OpDel: "del",
	OpCall: "call", OpInst: "inst",
	OpSig: "sig", OpPrb: "prb", OpDrv: "drv", OpDrvCond: "drv",
	OpVar: "var", OpLd: "ld", OpSt: "st",
	OpHalt: "halt", OpRet: "ret", OpRetValue: "ret",
	OpBr: "br", OpBrCond: "br", OpWait: "wait", OpWaitTime: "wait",
}

// String returns the opcode's printed mnemonic (spec.md §6 grammar).
func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}

// IsConst reports whether o produces a compile-time constant value.
func (o Opcode) IsConst() bool {
	return o == OpConstInt || o == OpConstTime
}

// IsTerminator reports whether o ends a basic block.
func (o Opcode) IsTerminator() bool {
	switch o {
	case OpHalt, OpRet, OpRetValue, OpBr, OpBrCond, OpWait, OpWaitTime:
		return true
	}
	return false
}

// IsReturn reports whether o is one of the two return-family
// terminators.
func (o Opcode) IsReturn() bool {
	return o == OpRet || o == OpRetValue
}

// IsTemporal reports whether o suspends the calling process, i.e. is a
// region-boundary instruction for the temporal region graph (spec.md
// §4.7/§4.8).
func (o Opcode) IsTemporal() bool {
	return o == OpWait || o == OpWaitTime
}

// ValidIn reports whether o may appear in a unit of the given kind
// (spec.md §3's opcode/unit-kind compatibility table): signal ops are
// shared by Process and Entity, structural ops are Entity-only, Ret is
// Function-only, and Wait/Halt are Process-only.
func (o Opcode) ValidIn(kind UnitKind) bool {
	switch o {
	case OpSig, OpPrb, OpDrv, OpDrvCond:
		return kind == UnitProcess || kind == UnitEntity
	case OpCon, OpDel, OpReg, OpInst:
		return kind == UnitEntity
	case OpRet, OpRetValue:
		return kind == UnitFunction
	case OpHalt, OpWait, OpWaitTime:
		return kind == UnitProcess
	case OpVar, OpLd, OpSt, OpBr, OpBrCond, OpCall:
		return kind == UnitFunction || kind == UnitProcess
	default:
		return true
	}
}

// RegMode selects which edge(s) of a Reg instruction's trigger value
// sample its data input (spec.md §3).
type RegMode int

const (
	RegLow RegMode = iota
	RegHigh
	RegRise
	RegFall
	RegBoth
)

func (m RegMode) String() string {
	switch m {
	case RegLow:
		return "low"
	case RegHigh:
		return "high"
	case RegRise:
		return "rise"
	case RegFall:
		return "fall"
	case RegBoth:
		return "both"
	}
	return "?"
}

// InstData is the tagged-union payload of an instruction: its shape
// (operand/block/immediate layout) depends on its opcode family, the
// way the original crate's InstData enum varies per-opcode. Every
// variant implements Opcode/Args/Blocks/SetArg/ReplaceBlock so generic code
// (the verifier, the printer, use-rewriting) never needs a type switch
// for the common cases.
type InstData interface {
	Opcode() Opcode
	Args() []Value
	Blocks() []Block
	// SetArg overwrites the i'th value operand as numbered by Args,
	// used by DataFlowGraph.ReplaceUse to rewire operands in place
	// without needing one type switch per call site.
	SetArg(i int, v Value)
	// ReplaceBlock retargets every occurrence of old among Blocks to
	// new, a no-op for opcodes with no block operands. Used by
	// pkg/tcm's auxiliary-block insertion to redirect a terminator at
	// an existing predecessor without rebuilding the instruction.
	ReplaceBlock(old, repl Block)
}

// Nullary instructions take no value or block operands (Halt).
type Nullary struct {
	Op Opcode
}

func (d *Nullary) Opcode() Opcode      { return d.Op }
func (d *Nullary) Args() []Value       { return nil }
func (d *Nullary) Blocks() []Block     { return nil }
func (d *Nullary) SetArg(i int, v Value) { panic("SetArg: nullary instruction has no operands") }
func (d *Nullary) ReplaceBlock(old, repl Block) {}

// Unary instructions take exactly one value operand.
type Unary struct {
	Op  Opcode
	Arg Value
}

func (d *Unary) Opcode() Opcode  { return d.Op }
func (d *Unary) Args() []Value   { return []Value{d.Arg} }
func (d *Unary) Blocks() []Block { return nil }
func (d *Unary) SetArg(i int, v Value) {
	if i != 0 {
		panic("SetArg: unary instruction has one operand")
	}
	d.Arg = v
}
func (d *Unary) ReplaceBlock(old, repl Block) {}

// Binary instructions take exactly two value operands.
type Binary struct {
	Op   Opcode
	Args_ [2]Value
}

func (d *Binary) Opcode() Opcode  { return d.Op }
func (d *Binary) Args() []Value   { return d.Args_[:] }
func (d *Binary) Blocks() []Block { return nil }
func (d *Binary) SetArg(i int, v Value) { d.Args_[i] = v }
func (d *Binary) ReplaceBlock(old, repl Block) {}

// Ternary instructions take exactly three value operands (Shl/Shr's
// value/amount/fill, Drv's signal/value/delay).
type Ternary struct {
	Op   Opcode
	Args_ [3]Value
}

func (d *Ternary) Opcode() Opcode  { return d.Op }
func (d *Ternary) Args() []Value   { return d.Args_[:] }
func (d *Ternary) Blocks() []Block { return nil }
func (d *Ternary) SetArg(i int, v Value) { d.Args_[i] = v }
func (d *Ternary) ReplaceBlock(old, repl Block) {}

// Jump is an unconditional branch to a single successor block (Br).
type Jump struct {
	BlockTarget Block
}

func (d *Jump) Opcode() Opcode  { return OpBr }
func (d *Jump) Args() []Value   { return nil }
func (d *Jump) Blocks() []Block { return []Block{d.BlockTarget} }
func (d *Jump) SetArg(i int, v Value) { panic("SetArg: br has no value operands") }
func (d *Jump) ReplaceBlock(old, repl Block) {
	if d.BlockTarget == old {
		d.BlockTarget = repl
	}
}

// Branch is a conditional branch with a value condition and two
// successor blocks, taken in order [false-target, true-target] (BrCond).
type Branch struct {
	Cond     Value
	Targets  [2]Block
}

func (d *Branch) Opcode() Opcode  { return OpBrCond }
func (d *Branch) Args() []Value   { return []Value{d.Cond} }
func (d *Branch) Blocks() []Block { return d.Targets[:] }
func (d *Branch) SetArg(i int, v Value) {
	if i != 0 {
		panic("SetArg: br cond has one value operand")
	}
	d.Cond = v
}
func (d *Branch) ReplaceBlock(old, repl Block) {
	for i, t := range d.Targets {
		if t == old {
			d.Targets[i] = repl
		}
	}
}

// Wait suspends the calling process until woken, resuming at Resume.
// If IsTimed, Args[0] is the timeout (a time-typed value) and the
// remaining Args are the sensitivity list; otherwise all of Args is the
// sensitivity list (Wait/WaitTime).
type Wait struct {
	Op      Opcode
	Resume  Block
	IsTimed bool
	ArgsV   []Value
}

func (d *Wait) Opcode() Opcode  { return d.Op }
func (d *Wait) Args() []Value   { return d.ArgsV }
func (d *Wait) Blocks() []Block { return []Block{d.Resume} }
func (d *Wait) SetArg(i int, v Value) { d.ArgsV[i] = v }
func (d *Wait) ReplaceBlock(old, repl Block) {
	if d.Resume == old {
		d.Resume = repl
	}
}

// Sensitivity returns the non-timeout portion of a wait's argument
// list (the signals being probed).
func (d *Wait) Sensitivity() []Value {
	if d.IsTimed {
		return d.ArgsV[1:]
	}
	return d.ArgsV
}

// Timeout returns the timeout operand of a timed wait.
func (d *Wait) Timeout() Value {
	return d.ArgsV[0]
}

// Call invokes an external function/process or instantiates an
// external entity, referencing its declaration and splitting its flat
// argument list into NumIns inputs (remaining entries are entity
// outputs, used only by Inst).
type Call struct {
	Op     Opcode
	Unit   ExtUnit
	NumIns uint16
	ArgsV  []Value
}

func (d *Call) Opcode() Opcode  { return d.Op }
func (d *Call) Args() []Value   { return d.ArgsV }
func (d *Call) Blocks() []Block { return nil }
func (d *Call) SetArg(i int, v Value) { d.ArgsV[i] = v }
func (d *Call) ReplaceBlock(old, repl Block) {}

// Ins returns the call's input arguments.
func (d *Call) Ins() []Value { return d.ArgsV[:d.NumIns] }

// Outs returns the Inst instruction's connected output signals.
func (d *Call) Outs() []Value { return d.ArgsV[d.NumIns:] }

// InsExt inserts (InsField/InsSlice) or extracts (ExtField/ExtSlice) a
// sub-element of an aggregate or array value at a static offset, with a
// second immediate giving a slice's length (ExtSlice/InsSlice only).
type InsExt struct {
	Op     Opcode
	Args_  [2]Value
	Imm0   int
	Imm1   int
}

func (d *InsExt) Opcode() Opcode  { return d.Op }
func (d *InsExt) Args() []Value   { return d.Args_[:] }
func (d *InsExt) Blocks() []Block { return nil }
func (d *InsExt) SetArg(i int, v Value) { d.Args_[i] = v }
func (d *InsExt) ReplaceBlock(old, repl Block) {}

// Array builds an N-element array by repeating a single value
// (ArrayUniform).
type Array struct {
	Imm int
	Arg Value
}

func (d *Array) Opcode() Opcode  { return OpArrayUniform }
func (d *Array) Args() []Value   { return []Value{d.Arg} }
func (d *Array) Blocks() []Block { return nil }
func (d *Array) SetArg(i int, v Value) {
	if i != 0 {
		panic("SetArg: array-uniform has one value operand")
	}
	d.Arg = v
}
func (d *Array) ReplaceBlock(old, repl Block) {}

// Aggregate builds an array or struct value from an explicit element
// list (Array/Struct).
type Aggregate struct {
	Op    Opcode
	ArgsV []Value
}

func (d *Aggregate) Opcode() Opcode  { return d.Op }
func (d *Aggregate) Args() []Value   { return d.ArgsV }
func (d *Aggregate) Blocks() []Block { return nil }
func (d *Aggregate) SetArg(i int, v Value) { d.ArgsV[i] = v }
func (d *Aggregate) ReplaceBlock(old, repl Block) {}

// Reg models a sequential register: each element of ArgsV is sampled
// into the result under the corresponding Modes[i]/TriggersV[i] rule.
type Reg struct {
	ArgsV     []Value
	Modes     []RegMode
	TriggersV []Value
}

func (d *Reg) Opcode() Opcode  { return OpReg }
func (d *Reg) Args() []Value   { return append(append([]Value(nil), d.ArgsV...), d.TriggersV...) }
func (d *Reg) Blocks() []Block { return nil }
func (d *Reg) SetArg(i int, v Value) {
	if i < len(d.ArgsV) {
		d.ArgsV[i] = v
		return
	}
	d.TriggersV[i-len(d.ArgsV)] = v
}
func (d *Reg) ReplaceBlock(old, repl Block) {}

// ConstInt is an arbitrary-width integer constant, stored as a
// math/big.Int since no pack library offers an immediate-size-agnostic
// integer type (see DESIGN.md).
type ConstInt struct {
	Imm *big.Int
}

func (d *ConstInt) Opcode() Opcode  { return OpConstInt }
func (d *ConstInt) Args() []Value   { return nil }
func (d *ConstInt) Blocks() []Block { return nil }
func (d *ConstInt) SetArg(i int, v Value) { panic("SetArg: const int has no value operands") }
func (d *ConstInt) ReplaceBlock(old, repl Block) {}

// ConstTime is a physical-time constant: Time is the exact rational
// number of base time units (seconds, via big.Rat), Delta counts
// delta-cycle steps and Epsilon counts epsilon (solver-iteration)
// steps within the same delta (spec.md §3, grounded on konst.rs's
// ConstTime).
type ConstTime struct {
	Time    *big.Rat
	Delta   uint
	Epsilon uint
}

func (d *ConstTime) Opcode() Opcode  { return OpConstTime }
func (d *ConstTime) Args() []Value   { return nil }
func (d *ConstTime) Blocks() []Block { return nil }
func (d *ConstTime) SetArg(i int, v Value) { panic("SetArg: const time has no value operands") }
func (d *ConstTime) ReplaceBlock(old, repl Block) {}
