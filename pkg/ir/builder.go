package ir

import (
	"math/big"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

// posKind tags an insertion position (spec.md §4.4).
type posKind int

const (
	posNone posKind = iota
	posAppend
	posPrepend
	posAfter
	posBefore
)

// insertPos is the builder's cursor: where the next instruction will
// be attached. Append/Prepend name a block (ignored by entities, which
// have none); After/Before name an anchor instruction.
type insertPos struct {
	kind  posKind
	block Block
	inst  Inst
}

// layoutUnit is implemented by Function and Process: the two unit
// kinds that share FunctionLayout's nested block/instruction lists.
type layoutUnit interface {
	Unit
	Layout() *FunctionLayout
}

// FunctionBuilder inserts instructions into a Function or Process
// following the current insertion position, panicking on programmer
// misuse (spec.md §4.4): no block selected, or building a block inside
// an entity (entities use EntityBuilder instead, which has no such
// method at all).
type FunctionBuilder struct {
	unit layoutUnit
	pos  insertPos
}

// NewFunctionBuilder returns a builder with no insertion position set;
// callers must call Append/Prepend/After/Before before emitting any
// instruction.
func NewFunctionBuilder(u layoutUnit) *FunctionBuilder {
	return &FunctionBuilder{unit: u, pos: insertPos{kind: posNone}}
}

// CreateBlock appends a new block to the unit and returns its id.
func (b *FunctionBuilder) CreateBlock() Block {
	return b.unit.Layout().AppendBlock()
}

// Append points the builder at the end of bb.
func (b *FunctionBuilder) Append(bb Block) { b.pos = insertPos{kind: posAppend, block: bb} }

// Prepend points the builder at the start of bb.
func (b *FunctionBuilder) Prepend(bb Block) { b.pos = insertPos{kind: posPrepend, block: bb} }

// After points the builder immediately after inst.
func (b *FunctionBuilder) After(inst Inst) { b.pos = insertPos{kind: posAfter, inst: inst} }

// Before points the builder immediately before inst.
func (b *FunctionBuilder) Before(inst Inst) { b.pos = insertPos{kind: posBefore, inst: inst} }

// CurrentBlock returns the block the builder would insert into right
// now, and whether one is known (false if no position is set or the
// anchor instruction has since been removed).
func (b *FunctionBuilder) CurrentBlock() (Block, bool) {
	switch b.pos.kind {
	case posAppend, posPrepend:
		return b.pos.block, true
	case posAfter, posBefore:
		bb := b.unit.Layout().InstBlock(b.pos.inst)
		return bb, bb != NoBlock
	default:
		return NoBlock, false
	}
}

func (b *FunctionBuilder) place(inst Inst) {
	layout := b.unit.Layout()
	switch b.pos.kind {
	case posNone:
		panic("ir: no block selected to insert into")
	case posAppend:
		layout.AppendInst(inst, b.pos.block)
	case posPrepend:
		layout.PrependInst(inst, b.pos.block)
	case posAfter:
		layout.InsertInstAfter(inst, b.pos.inst)
		b.pos.inst = inst
	case posBefore:
		layout.InsertInstBefore(inst, b.pos.inst)
	}
}

func (b *FunctionBuilder) unitIface() Unit { return b.unit }

func (b *FunctionBuilder) liftType(ty *hwtype.Type, _ Opcode) *hwtype.Type { return ty }

// Ins returns the instruction builder for b, with one method per
// opcode (spec.md §4.4).
func (b *FunctionBuilder) Ins() *InstBuilder { return &InstBuilder{b: b} }

// EntityBuilder inserts instructions into an Entity's single
// instruction list, applying the entity-specific implicit
// signal-lifting rule: any non-void, non-const, non-signal result type
// is automatically wrapped in signal(T), since every persistent value
// inside an entity is a signal (spec.md §4.4, grounded on entity.rs's
// build_inst).
type EntityBuilder struct {
	entity *Entity
	pos    insertPos
}

// NewEntityBuilder returns a builder positioned to append to e.
func NewEntityBuilder(e *Entity) *EntityBuilder {
	return &EntityBuilder{entity: e, pos: insertPos{kind: posAppend}}
}

// Append points the builder at the end of the entity.
func (b *EntityBuilder) Append() { b.pos = insertPos{kind: posAppend} }

// Prepend points the builder at the start of the entity.
func (b *EntityBuilder) Prepend() { b.pos = insertPos{kind: posPrepend} }

// After points the builder immediately after inst.
func (b *EntityBuilder) After(inst Inst) { b.pos = insertPos{kind: posAfter, inst: inst} }

// Before points the builder immediately before inst.
func (b *EntityBuilder) Before(inst Inst) { b.pos = insertPos{kind: posBefore, inst: inst} }

func (b *EntityBuilder) place(inst Inst) {
	layout := b.entity.Layout()
	switch b.pos.kind {
	case posAppend:
		layout.AppendInst(inst)
	case posPrepend:
		layout.PrependInst(inst)
	case posAfter:
		layout.InsertInstAfter(inst, b.pos.inst)
		b.pos.inst = inst
	case posBefore:
		layout.InsertInstBefore(inst, b.pos.inst)
	default:
		panic("ir: no position selected to insert into")
	}
}

func (b *EntityBuilder) unitIface() Unit { return b.entity }

func (b *EntityBuilder) liftType(ty *hwtype.Type, op Opcode) *hwtype.Type {
	if !ty.IsSignal() && !ty.IsVoid() && !op.IsConst() {
		return hwtype.Signal(ty)
	}
	return ty
}

// Ins returns the instruction builder for b.
func (b *EntityBuilder) Ins() *InstBuilder { return &InstBuilder{b: b} }

// unitBuilder is the minimal surface InstBuilder needs from either
// concrete builder, letting one set of opcode methods serve both
// (spec.md §4.4: "UnitBuilder ... exposes ins()").
type unitBuilder interface {
	place(Inst)
	unitIface() Unit
	liftType(ty *hwtype.Type, op Opcode) *hwtype.Type
}

// InstBuilder is a temporary handle used to construct a single
// instruction: one convenience method per opcode, each computing the
// result type from its operands' types, inserting via the owning
// builder's current position, and returning the produced Value (or
// Inst, for instructions with no result).
type InstBuilder struct {
	b unitBuilder
}

func (ib *InstBuilder) dfg() *DataFlowGraph { return ib.b.unitIface().DFG() }

func (ib *InstBuilder) valueType(v Value) *hwtype.Type { return ib.dfg().ValueType(v) }

// build inserts data with the given raw result type (before any
// entity signal-lifting), places it, and returns its Inst id.
func (ib *InstBuilder) build(data InstData, ty *hwtype.Type) Inst {
	lifted := ib.b.liftType(ty, data.Opcode())
	inst := ib.dfg().AddInst(data, lifted)
	ib.b.place(inst)
	return inst
}

func (ib *InstBuilder) result(inst Inst) Value { return ib.dfg().InstResult(inst) }

// ConstInt builds `a = const iN imm`.
func (ib *InstBuilder) ConstInt(width int, value *big.Int) Value {
	inst := ib.build(&ConstInt{Imm: value}, hwtype.Int(width))
	return ib.result(inst)
}

// ConstTime builds `a = const time imm`.
func (ib *InstBuilder) ConstTime(time *big.Rat, delta, epsilon uint) Value {
	inst := ib.build(&ConstTime{Time: time, Delta: delta, Epsilon: epsilon}, hwtype.Time())
	return ib.result(inst)
}

// Alias builds `a = x`.
func (ib *InstBuilder) Alias(x Value) Value {
	inst := ib.build(&Unary{Op: OpAlias, Arg: x}, ib.valueType(x))
	return ib.result(inst)
}

func (ib *InstBuilder) unary(op Opcode, x Value) Value {
	inst := ib.build(&Unary{Op: op, Arg: x}, ib.valueType(x))
	return ib.result(inst)
}

func (ib *InstBuilder) binary(op Opcode, ty *hwtype.Type, x, y Value) Value {
	inst := ib.build(&Binary{Op: op, Args_: [2]Value{x, y}}, ty)
	return ib.result(inst)
}

func (ib *InstBuilder) arith(op Opcode, x, y Value) Value {
	return ib.binary(op, ib.valueType(x), x, y)
}

func (ib *InstBuilder) compare(op Opcode, x, y Value) Value {
	return ib.binary(op, hwtype.Int(1), x, y)
}

// Not builds `a = not type x`.
func (ib *InstBuilder) Not(x Value) Value { return ib.unary(OpNot, x) }

// Neg builds `a = neg type x`.
func (ib *InstBuilder) Neg(x Value) Value { return ib.unary(OpNeg, x) }

// Add builds `a = add type x, y`.
func (ib *InstBuilder) Add(x, y Value) Value { return ib.arith(OpAdd, x, y) }

// Sub builds `a = sub type x, y`.
func (ib *InstBuilder) Sub(x, y Value) Value { return ib.arith(OpSub, x, y) }

// And builds `a = and type x, y`.
func (ib *InstBuilder) And(x, y Value) Value { return ib.arith(OpAnd, x, y) }

// Or builds `a = or type x, y`.
func (ib *InstBuilder) Or(x, y Value) Value { return ib.arith(OpOr, x, y) }

// Xor builds `a = xor type x, y`.
func (ib *InstBuilder) Xor(x, y Value) Value { return ib.arith(OpXor, x, y) }

// Smul builds `a = smul type x, y`.
func (ib *InstBuilder) Smul(x, y Value) Value { return ib.arith(OpSmul, x, y) }

// Sdiv builds `a = sdiv type x, y`.
func (ib *InstBuilder) Sdiv(x, y Value) Value { return ib.arith(OpSdiv, x, y) }

// Smod builds `a = smod type x, y`.
func (ib *InstBuilder) Smod(x, y Value) Value { return ib.arith(OpSmod, x, y) }

// Srem builds `a = srem type x, y`.
func (ib *InstBuilder) Srem(x, y Value) Value { return ib.arith(OpSrem, x, y) }

// Umul builds `a = umul type x, y`.
func (ib *InstBuilder) Umul(x, y Value) Value { return ib.arith(OpUmul, x, y) }

// Udiv builds `a = udiv type x, y`.
func (ib *InstBuilder) Udiv(x, y Value) Value { return ib.arith(OpUdiv, x, y) }

// Umod builds `a = umod type x, y`.
func (ib *InstBuilder) Umod(x, y Value) Value { return ib.arith(OpUmod, x, y) }

// Urem builds `a = urem type x, y`.
func (ib *InstBuilder) Urem(x, y Value) Value { return ib.arith(OpUrem, x, y) }

// Eq builds `a = eq type x, y`.
func (ib *InstBuilder) Eq(x, y Value) Value { return ib.compare(OpEq, x, y) }

// Neq builds `a = neq type x, y`.
func (ib *InstBuilder) Neq(x, y Value) Value { return ib.compare(OpNeq, x, y) }

// Slt builds `a = slt type x, y`.
func (ib *InstBuilder) Slt(x, y Value) Value { return ib.compare(OpSlt, x, y) }

// Sgt builds `a = sgt type x, y`.
func (ib *InstBuilder) Sgt(x, y Value) Value { return ib.compare(OpSgt, x, y) }

// Sle builds `a = sle type x, y`.
func (ib *InstBuilder) Sle(x, y Value) Value { return ib.compare(OpSle, x, y) }

// Sge builds `a = sge type x, y`.
func (ib *InstBuilder) Sge(x, y Value) Value { return ib.compare(OpSge, x, y) }

// Ult builds `a = ult type x, y`.
func (ib *InstBuilder) Ult(x, y Value) Value { return ib.compare(OpUlt, x, y) }

// Ugt builds `a = ugt type x, y`.
func (ib *InstBuilder) Ugt(x, y Value) Value { return ib.compare(OpUgt, x, y) }

// Ule builds `a = ule type x, y`.
func (ib *InstBuilder) Ule(x, y Value) Value { return ib.compare(OpUle, x, y) }

// Uge builds `a = uge type x, y`.
func (ib *InstBuilder) Uge(x, y Value) Value { return ib.compare(OpUge, x, y) }

// Shl builds `a = shl type x, y, z`: shifts x left, shifting in bits
// from z, discarding the top len(y) bits (y's width need not match x).
func (ib *InstBuilder) Shl(x, y, z Value) Value {
	inst := ib.build(&Ternary{Op: OpShl, Args_: [3]Value{x, y, z}}, ib.valueType(x))
	return ib.result(inst)
}

// Shr builds `a = shr type x, y, z`: the mirror of Shl.
func (ib *InstBuilder) Shr(x, y, z Value) Value {
	inst := ib.build(&Ternary{Op: OpShr, Args_: [3]Value{x, y, z}}, ib.valueType(x))
	return ib.result(inst)
}

// Mux builds `a = mux type x, y`: x must be an array, y selects one of
// its elements.
func (ib *InstBuilder) Mux(x, y Value) Value {
	ty := ib.valueType(x)
	if ty.Kind() != hwtype.KindArray {
		panic("ir: argument to mux must be of array type")
	}
	inst := ib.build(&Binary{Op: OpMux, Args_: [2]Value{x, y}}, ty.Elem())
	return ib.result(inst)
}

// RegInput is one (data, mode, trigger) triple of a Reg instruction.
type RegInput struct {
	Data    Value
	Mode    RegMode
	Trigger Value
}

// Reg builds `a = reg type init (, data mode trigger)*`.
func (ib *InstBuilder) Reg(init Value, inputs []RegInput) Value {
	data := make([]Value, len(inputs))
	triggers := make([]Value, len(inputs))
	modes := make([]RegMode, len(inputs))
	for i, in := range inputs {
		data[i] = in.Data
		triggers[i] = in.Trigger
		modes[i] = in.Mode
	}
	inst := ib.build(&Reg{ArgsV: append([]Value{init}, data...), Modes: modes, TriggersV: triggers}, ib.valueType(init))
	return ib.result(inst)
}

// ArrayUniform builds `a = array imm, type x`.
func (ib *InstBuilder) ArrayUniform(imm int, x Value) Value {
	inst := ib.build(&Array{Imm: imm, Arg: x}, hwtype.Array(imm, ib.valueType(x)))
	return ib.result(inst)
}

// BuildArray builds `a = array args`.
func (ib *InstBuilder) BuildArray(args []Value) Value {
	if len(args) == 0 {
		panic("ir: array must have at least one element")
	}
	ty := hwtype.Array(len(args), ib.valueType(args[0]))
	inst := ib.build(&Aggregate{Op: OpArray, ArgsV: append([]Value(nil), args...)}, ty)
	return ib.result(inst)
}

// BuildStruct builds `a = struct args`.
func (ib *InstBuilder) BuildStruct(args []Value) Value {
	fields := make([]*hwtype.Type, len(args))
	for i, a := range args {
		fields[i] = ib.valueType(a)
	}
	inst := ib.build(&Aggregate{Op: OpStruct, ArgsV: append([]Value(nil), args...)}, hwtype.Struct(fields))
	return ib.result(inst)
}

// InsField builds `a = insfield type x, y, imm`: replaces field imm of
// aggregate x with y.
func (ib *InstBuilder) InsField(x, y Value, imm int) Value {
	inst := ib.build(&InsExt{Op: OpInsField, Args_: [2]Value{x, y}, Imm0: imm}, ib.valueType(x))
	return ib.result(inst)
}

// InsSlice builds `a = insslice type x, y, imm0, imm1`: replaces the
// imm1-element slice of array x starting at imm0 with y.
func (ib *InstBuilder) InsSlice(x, y Value, imm0, imm1 int) Value {
	inst := ib.build(&InsExt{Op: OpInsSlice, Args_: [2]Value{x, y}, Imm0: imm0, Imm1: imm1}, ib.valueType(x))
	return ib.result(inst)
}

// ExtField builds `a = extfield type x, imm`: extracts field/element imm
// of a struct or array, looking through an outer pointer/signal.
func (ib *InstBuilder) ExtField(x Value, imm int) Value {
	ty := ib.valueType(x)
	wrap := func(inner *hwtype.Type) *hwtype.Type { return inner }
	switch ty.Kind() {
	case hwtype.KindPointer:
		inner := ty.Elem()
		wrap = hwtype.Pointer
		ty = inner
	case hwtype.KindSignal:
		inner := ty.Elem()
		wrap = hwtype.Signal
		ty = inner
	}
	var fieldTy *hwtype.Type
	switch ty.Kind() {
	case hwtype.KindStruct:
		fields := ty.Fields()
		if imm >= len(fields) {
			panic("ir: field index in extf out of range")
		}
		fieldTy = fields[imm]
	case hwtype.KindArray:
		fieldTy = ty.Elem()
	default:
		panic("ir: argument to extf must be of struct or array type")
	}
	inst := ib.build(&InsExt{Op: OpExtField, Args_: [2]Value{x, NoValue}, Imm0: imm}, wrap(fieldTy))
	return ib.result(inst)
}

// ExtSlice builds `a = extslice type x, imm0, imm1`: extracts an imm1-long
// slice of array or integer x starting at imm0.
func (ib *InstBuilder) ExtSlice(x Value, imm0, imm1 int) Value {
	ty := ib.valueType(x)
	var resultTy *hwtype.Type
	switch ty.Kind() {
	case hwtype.KindArray:
		resultTy = hwtype.Array(imm1, ty.Elem())
	case hwtype.KindInt:
		resultTy = hwtype.Int(imm1)
	default:
		panic("ir: argument to exts must be of array or integer type")
	}
	inst := ib.build(&InsExt{Op: OpExtSlice, Args_: [2]Value{x, NoValue}, Imm0: imm0, Imm1: imm1}, resultTy)
	return ib.result(inst)
}

// Con builds `con x, y`: structurally connects signal x to signal y
// inside an entity (entity-only, spec.md §3).
func (ib *InstBuilder) Con(x, y Value) Inst {
	return ib.build(&Binary{Op: OpCon, Args_: [2]Value{x, y}}, hwtype.Void())
}

// Del builds `a = del x, y`: a delayed alias of x through y.
func (ib *InstBuilder) Del(x, y Value) Value {
	inst := ib.build(&Binary{Op: OpDel, Args_: [2]Value{x, y}}, ib.valueType(x))
	return ib.result(inst)
}

// Call builds `a = call unit (args...)`: invokes an external function
// or process.
func (ib *InstBuilder) Call(unit ExtUnit, args []Value) Value {
	_, ret := ib.dfg().ExternSig(unit).AsFunc()
	data := &Call{Op: OpCall, Unit: unit, NumIns: uint16(len(args)), ArgsV: append([]Value(nil), args...)}
	inst := ib.build(data, ret)
	return ib.result(inst)
}

// Inst builds `inst unit (inputs...) -> (outputs...)`: instantiates an
// external entity (entity-only, spec.md §3).
func (ib *InstBuilder) Inst(unit ExtUnit, inputs, outputs []Value) Inst {
	args := append(append([]Value(nil), inputs...), outputs...)
	data := &Call{Op: OpInst, Unit: unit, NumIns: uint16(len(inputs)), ArgsV: args}
	return ib.build(data, hwtype.Void())
}

// Sig builds `a = sig x`: creates a signal initialized to x.
func (ib *InstBuilder) Sig(x Value) Value {
	inst := ib.build(&Unary{Op: OpSig, Arg: x}, hwtype.Signal(ib.valueType(x)))
	return ib.result(inst)
}

// Prb builds `a = prb x`: probes the current value of signal x.
func (ib *InstBuilder) Prb(x Value) Value {
	ty := ib.valueType(x)
	if !ty.IsSignal() {
		panic("ir: argument to prb must be of signal type")
	}
	inst := ib.build(&Unary{Op: OpPrb, Arg: x}, ty.Elem())
	return ib.result(inst)
}

// Drv builds `drv x, y, z`: drives signal x to value y, after delay z
// (process or entity).
func (ib *InstBuilder) Drv(x, y, z Value) Inst {
	return ib.build(&Ternary{Op: OpDrv, Args_: [3]Value{x, y, z}}, hwtype.Void())
}

// DrvCond builds `drv_cond x, y, z, c`: like Drv, but the assignment
// only takes effect when the i1 condition c is true; a statically-false
// c makes the drive dead, which the verifier does not reject (see
// DESIGN.md's Open Question on DrvCond).
func (ib *InstBuilder) DrvCond(x, y, z, c Value) Inst {
	data := &Aggregate{Op: OpDrvCond, ArgsV: []Value{x, y, z, c}}
	return ib.build(data, hwtype.Void())
}

// Var builds `a = var x`: allocates mutable local storage initialized
// to x (function/process-only).
func (ib *InstBuilder) Var(x Value) Value {
	inst := ib.build(&Unary{Op: OpVar, Arg: x}, hwtype.Pointer(ib.valueType(x)))
	return ib.result(inst)
}

// Ld builds `a = ld x`: loads through pointer x.
func (ib *InstBuilder) Ld(x Value) Value {
	ty := ib.valueType(x)
	if !ty.IsPointer() {
		panic("ir: argument to ld must be of pointer type")
	}
	inst := ib.build(&Unary{Op: OpLd, Arg: x}, ty.Elem())
	return ib.result(inst)
}

// St builds `st x, y`: stores y through pointer x.
func (ib *InstBuilder) St(x, y Value) Inst {
	return ib.build(&Binary{Op: OpSt, Args_: [2]Value{x, y}}, hwtype.Void())
}

// Halt builds `halt`.
func (ib *InstBuilder) Halt() Inst { return ib.build(&Nullary{Op: OpHalt}, hwtype.Void()) }

// Ret builds `ret`.
func (ib *InstBuilder) Ret() Inst { return ib.build(&Nullary{Op: OpRet}, hwtype.Void()) }

// RetValue builds `ret type x`.
func (ib *InstBuilder) RetValue(x Value) Inst {
	return ib.build(&Unary{Op: OpRetValue, Arg: x}, hwtype.Void())
}

// Br builds `br bb`.
func (ib *InstBuilder) Br(bb Block) Inst {
	return ib.build(&Jump{BlockTarget: bb}, hwtype.Void())
}

// BrCond builds `br x, bb0, bb1`: branches to bb1 if x is true, bb0
// otherwise.
func (ib *InstBuilder) BrCond(x Value, bb0, bb1 Block) Inst {
	return ib.build(&Branch{Cond: x, Targets: [2]Block{bb0, bb1}}, hwtype.Void())
}

// Wait builds `wait bb, args`: suspends until any signal in args
// changes, resuming at bb.
func (ib *InstBuilder) Wait(bb Block, args []Value) Inst {
	return ib.build(&Wait{Op: OpWait, Resume: bb, ArgsV: append([]Value(nil), args...)}, hwtype.Void())
}

// WaitTime builds `wait bb, time, args`: like Wait, but also resumes
// unconditionally after time elapses.
func (ib *InstBuilder) WaitTime(bb Block, time Value, args []Value) Inst {
	all := append([]Value{time}, args...)
	return ib.build(&Wait{Op: OpWaitTime, Resume: bb, IsTimed: true, ArgsV: all}, hwtype.Void())
}
