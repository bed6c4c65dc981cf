// Package verify implements the LLHD well-formedness checker: a
// single-pass, error-accumulating traversal of a module's units
// (spec.md §4.6), grounded on the original crate's `llhd-check` CLI
// contract and _examples/raymyers-ralph-cc-go's "collect every error,
// report them all" integration-test style.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
)

// Error is a single well-formedness violation, always attributable to
// one unit and (when applicable) one instruction or block.
type Error struct {
	Unit    llhdmod.ModUnit
	Inst    ir.Inst
	HasInst bool
	Block   ir.Block
	Message string
}

func (e *Error) Error() string {
	if e.HasInst {
		return fmt.Sprintf("unit %v, inst %v: %s", e.Unit, e.Inst, e.Message)
	}
	return fmt.Sprintf("unit %v: %s", e.Unit, e.Message)
}

// Verifier accumulates Errors across one or more VerifyModule/VerifyUnit
// calls without aborting at the first failure (spec.md §4.6).
type Verifier struct {
	errs []*Error
}

// New returns an empty Verifier.
func New() *Verifier { return &Verifier{} }

func (v *Verifier) fail(unit llhdmod.ModUnit, msg string, args ...any) {
	v.errs = append(v.errs, &Error{Unit: unit, Message: fmt.Sprintf(msg, args...)})
}

func (v *Verifier) failInst(unit llhdmod.ModUnit, inst ir.Inst, msg string, args ...any) {
	v.errs = append(v.errs, &Error{Unit: unit, Inst: inst, HasInst: true, Message: fmt.Sprintf(msg, args...)})
}

// Finish returns every error accumulated so far, sorted for
// deterministic output (by unit, then instruction id), or nil if the
// module verified cleanly.
func (v *Verifier) Finish() []*Error {
	if len(v.errs) == 0 {
		return nil
	}
	sorted := append([]*Error(nil), v.errs...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Inst < b.Inst
	})
	return sorted
}

// VerifyModule checks every locally-defined unit of m plus the
// module-wide invariants (no duplicate global names, every ExtUnit
// plausibly resolvable) and returns every Error found.
func VerifyModule(m *llhdmod.Module) []*Error {
	v := New()
	v.checkNoDuplicateGlobals(m)
	for _, id := range m.Units() {
		if m.IsDeclaration(id) {
			continue
		}
		v.verifyUnit(m, id)
	}
	return v.Finish()
}

// VerifyUnit checks a single unit in isolation (no module-wide checks).
func VerifyUnit(m *llhdmod.Module, id llhdmod.ModUnit) []*Error {
	v := New()
	v.verifyUnit(m, id)
	return v.Finish()
}

func (v *Verifier) checkNoDuplicateGlobals(m *llhdmod.Module) {
	seen := map[string]llhdmod.ModUnit{}
	for _, id := range m.Units() {
		name := m.Name(id)
		if name.Kind != llhdmod.NameGlobal {
			continue
		}
		if first, ok := seen[name.Text]; ok {
			v.fail(id, "global name %q is also used by unit %v", name.Text, first)
			continue
		}
		seen[name.Text] = id
	}
}

func (v *Verifier) verifyUnit(m *llhdmod.Module, id llhdmod.ModUnit) {
	unit := m.Unit(id)
	kind := unit.Kind()
	dfg := unit.DFG()

	v.checkExterns(m, id, dfg)

	switch u := unit.(type) {
	case *ir.Function:
		v.checkBlockStructured(id, kind, dfg, u.Layout())
	case *ir.Process:
		v.checkBlockStructured(id, kind, dfg, u.Layout())
	case *ir.Entity:
		v.checkFlat(id, kind, dfg, u.Layout())
	}
}

func (v *Verifier) checkExterns(m *llhdmod.Module, id llhdmod.ModUnit, dfg *ir.DataFlowGraph) {
	for _, ext := range dfg.ExternUnits() {
		name := dfg.ExternName(ext)
		if _, ok := m.FindGlobal(trimSigil(name)); !ok {
			cands := 0
			for _, other := range m.Units() {
				if m.Name(other).Kind == llhdmod.NameGlobal && m.Name(other).Text == trimSigil(name) {
					cands++
				}
			}
			if cands == 0 {
				v.fail(id, "reference to %q has no plausible referent in this module", name)
			}
			// cands > 1 (ambiguous) is a link-time concern, reported by
			// pkg/llhdmod.Link; the verifier only asserts "some referent
			// plausibly exists".
		}
	}
}

func trimSigil(name string) string {
	if len(name) > 0 && (name[0] == '@' || name[0] == '%') {
		return name[1:]
	}
	return name
}

// checkBlockStructured verifies a Function or Process: every block
// ends with exactly one terminator, no terminator appears mid-block, no
// block is empty, and every instruction's operand/branch-target/call
// contract holds.
func (v *Verifier) checkBlockStructured(id llhdmod.ModUnit, kind ir.UnitKind, dfg *ir.DataFlowGraph, layout *ir.FunctionLayout) {
	blockSet := map[ir.Block]bool{}
	for _, b := range layout.Blocks() {
		blockSet[b] = true
	}

	for _, b := range layout.Blocks() {
		insts := layout.Insts(b)
		if len(insts) == 0 {
			v.fail(id, "block %v is empty", b)
			continue
		}
		for i, inst := range insts {
			op := dfg.Opcode(inst)
			isLast := i == len(insts)-1
			if op.IsTerminator() && !isLast {
				v.failInst(id, inst, "terminator %s appears before the end of block %v", op, b)
			}
			if !op.IsTerminator() && isLast {
				v.failInst(id, inst, "block %v does not end with a terminator", b)
			}
			v.checkOpcodeValidity(id, kind, inst, op)
			v.checkOperandContract(id, kind, dfg, inst, op)
			v.checkBranchTargets(id, dfg, inst, op, blockSet)
		}
	}
}

// checkFlat verifies an Entity: no block structure, so only the
// per-opcode contract and validity checks apply; Con/Drv/Inst never
// terminate anything.
func (v *Verifier) checkFlat(id llhdmod.ModUnit, kind ir.UnitKind, dfg *ir.DataFlowGraph, layout *ir.InstLayout) {
	for _, inst := range layout.Insts() {
		op := dfg.Opcode(inst)
		v.checkOpcodeValidity(id, kind, inst, op)
		v.checkOperandContract(id, kind, dfg, inst, op)
	}
}

func (v *Verifier) checkOpcodeValidity(id llhdmod.ModUnit, kind ir.UnitKind, inst ir.Inst, op ir.Opcode) {
	if !op.ValidIn(kind) {
		v.failInst(id, inst, "opcode %s is not permitted in a %s unit", op, kind)
	}
}

func (v *Verifier) checkBranchTargets(id llhdmod.ModUnit, dfg *ir.DataFlowGraph, inst ir.Inst, op ir.Opcode, blocks map[ir.Block]bool) {
	for _, bb := range dfg.InstData(inst).Blocks() {
		if !blocks[bb] {
			v.failInst(id, inst, "%s targets block %v, which does not belong to this unit", op, bb)
		}
	}
}

// checkOperandContract enforces the per-opcode operand-type rules of
// spec.md §3: every argument's static type must be consistent with
// what the opcode expects, and Call/Inst arity must match the
// referenced signature.
func (v *Verifier) checkOperandContract(id llhdmod.ModUnit, kind ir.UnitKind, dfg *ir.DataFlowGraph, inst ir.Inst, op ir.Opcode) {
	data := dfg.InstData(inst)
	args := data.Args()

	typeOf := func(val ir.Value) *hwtype.Type {
		if val == ir.NoValue {
			return hwtype.Void()
		}
		return dfg.ValueType(val)
	}

	switch d := data.(type) {
	case *ir.Binary:
		switch op {
		case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor,
			ir.OpSmul, ir.OpSdiv, ir.OpSmod, ir.OpSrem,
			ir.OpUmul, ir.OpUdiv, ir.OpUmod, ir.OpUrem:
			v.requireSameType(id, inst, typeOf(args[0]), typeOf(args[1]))
		case ir.OpEq, ir.OpNeq, ir.OpSlt, ir.OpSgt, ir.OpSle, ir.OpSge, ir.OpUlt, ir.OpUgt, ir.OpUle, ir.OpUge:
			v.requireSameType(id, inst, typeOf(args[0]), typeOf(args[1]))
		case ir.OpMux:
			if typeOf(d.Args_[0]).Kind() != hwtype.KindArray {
				v.failInst(id, inst, "mux's first operand must be an array")
			}
		case ir.OpCon, ir.OpSt:
			// Con/St connect two independently-typed values (signal or
			// pointer target vs. driven value); no further static check.
		case ir.OpDel:
			// Del's second operand is a delay value, not required to
			// share a type with x.
		}
	case *ir.Unary:
		switch op {
		case ir.OpNot, ir.OpNeg, ir.OpAlias:
			// result type already computed as x's type by the builder.
		case ir.OpSig:
		case ir.OpPrb:
			if !typeOf(d.Arg).IsSignal() {
				v.failInst(id, inst, "prb's operand must be of signal type")
			}
		case ir.OpVar:
		case ir.OpLd:
			if !typeOf(d.Arg).IsPointer() {
				v.failInst(id, inst, "ld's operand must be of pointer type")
			}
		case ir.OpRetValue:
		}
	case *ir.Ternary:
		if op == ir.OpDrv {
			if !typeOf(d.Args_[0]).IsSignal() {
				v.failInst(id, inst, "drv's first operand must be of signal type")
			}
		}
	case *ir.Aggregate:
		if op == ir.OpDrvCond {
			if len(d.ArgsV) == 4 && !typeOf(d.ArgsV[0]).IsSignal() {
				v.failInst(id, inst, "drv's first operand must be of signal type")
			}
			if len(d.ArgsV) == 4 && !typeOf(d.ArgsV[3]).Equal(hwtype.Int(1)) {
				v.failInst(id, inst, "drv's condition operand must be i1")
			}
		}
	case *ir.Call:
		v.checkCallArity(id, kind, dfg, inst, d)
	case *ir.Reg:
		for _, m := range d.Modes {
			_ = m // every RegMode value is structurally valid; nothing to reject.
		}
	}
}

func (v *Verifier) requireSameType(id llhdmod.ModUnit, inst ir.Inst, a, b *hwtype.Type) {
	if !a.Equal(b) {
		v.failInst(id, inst, "operand type mismatch: %s vs %s", a, b)
	}
}

func (v *Verifier) checkCallArity(id llhdmod.ModUnit, kind ir.UnitKind, dfg *ir.DataFlowGraph, inst ir.Inst, d *ir.Call) {
	sig := dfg.ExternSig(d.Unit)
	if d.Op == ir.OpCall {
		if sig.Kind() != hwtype.KindFunc {
			v.failInst(id, inst, "call references %q, which is not a function/process", dfg.ExternName(d.Unit))
			return
		}
		argTys, _ := sig.AsFunc()
		if len(d.Ins()) != len(argTys) {
			v.failInst(id, inst, "call argument count %d does not match signature arity %d", len(d.Ins()), len(argTys))
			return
		}
		for i, a := range d.Ins() {
			if !dfg.ValueType(a).Equal(argTys[i]) {
				v.failInst(id, inst, "call argument %d has type %s, want %s", i, dfg.ValueType(a), argTys[i])
			}
		}
		return
	}
	// OpInst: instantiation against an entity signature.
	if sig.Kind() != hwtype.KindEntity {
		v.failInst(id, inst, "inst references %q, which is not an entity", dfg.ExternName(d.Unit))
		return
	}
	ins, outs := sig.AsEntity()
	if len(d.Ins()) != len(ins) || len(d.Outs()) != len(outs) {
		v.failInst(id, inst, "instantiation arity (%d ins, %d outs) does not match signature (%d ins, %d outs)",
			len(d.Ins()), len(d.Outs()), len(ins), len(outs))
	}
}

func (v *Verifier) joinErrors() string {
	var b strings.Builder
	for _, e := range v.errs {
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
