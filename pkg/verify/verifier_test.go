package verify

import (
	"math/big"
	"testing"

	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
)

func buildCleanFunction() *llhdmod.Module {
	m := llhdmod.NewModule()
	f := ir.NewFunction("add8", []*hwtype.Type{hwtype.Int(8), hwtype.Int(8)}, hwtype.Int(8))
	b := ir.NewFunctionBuilder(f)
	bb := b.CreateBlock()
	b.Append(bb)
	sum := b.Ins().Add(f.Args()[0], f.Args()[1])
	b.Ins().RetValue(sum)
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: "add8"}, f)
	return m
}

func TestVerifyModuleCleanFunction(t *testing.T) {
	m := buildCleanFunction()
	if errs := VerifyModule(m); len(errs) != 0 {
		t.Fatalf("expected no verification errors, got %v", errs)
	}
}

func TestVerifyRejectsEmptyBlock(t *testing.T) {
	m := llhdmod.NewModule()
	f := ir.NewFunction("f", nil, hwtype.Void())
	b := ir.NewFunctionBuilder(f)
	b.CreateBlock() // never filled in
	id := m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "f"}, f)

	errs := VerifyModule(m)
	if len(errs) == 0 {
		t.Fatalf("expected an error for an empty block")
	}
	found := false
	for _, e := range errs {
		if e.Unit == id {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected error attributed to unit %v", id)
	}
}

func TestVerifyRejectsOpcodeInWrongUnitKind(t *testing.T) {
	m := llhdmod.NewModule()
	f := ir.NewFunction("f", []*hwtype.Type{hwtype.Signal(hwtype.Int(1))}, hwtype.Void())
	b := ir.NewFunctionBuilder(f)
	bb := b.CreateBlock()
	b.Append(bb)
	// Sig/Prb/Drv are process/entity-only; Prb inside a function should be flagged.
	b.Ins().Prb(f.Args()[0])
	b.Ins().Ret()
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "f"}, f)

	errs := VerifyModule(m)
	if len(errs) == 0 {
		t.Fatalf("expected an opcode-validity error")
	}
}

func TestVerifyRejectsBranchToForeignBlock(t *testing.T) {
	m := llhdmod.NewModule()
	f := ir.NewFunction("f", nil, hwtype.Void())
	other := ir.NewFunction("other", nil, hwtype.Void())
	ob := ir.NewFunctionBuilder(other)
	// Block ids are per-unit indices from 0: other's first block has the
	// same id as f's only block, so target other's second block.
	ob.CreateBlock()
	foreignBlock := ob.CreateBlock()

	b := ir.NewFunctionBuilder(f)
	bb := b.CreateBlock()
	b.Append(bb)
	b.Ins().Br(foreignBlock)
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "f"}, f)

	errs := VerifyModule(m)
	if len(errs) == 0 {
		t.Fatalf("expected a foreign-block branch-target error")
	}
}

func TestVerifyRejectsOperandTypeMismatch(t *testing.T) {
	m := llhdmod.NewModule()
	f := ir.NewFunction("f", nil, hwtype.Int(8))
	b := ir.NewFunctionBuilder(f)
	bb := b.CreateBlock()
	b.Append(bb)
	x := b.Ins().ConstInt(8, big.NewInt(1))
	y := b.Ins().ConstInt(16, big.NewInt(2))
	sum := b.Ins().Add(x, y)
	b.Ins().RetValue(sum)
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "f"}, f)

	errs := VerifyModule(m)
	if len(errs) == 0 {
		t.Fatalf("expected an operand type mismatch error")
	}
}

func TestVerifyRejectsDuplicateGlobalNames(t *testing.T) {
	m := llhdmod.NewModule()
	f1 := ir.NewFunction("dup", nil, hwtype.Void())
	fb1 := ir.NewFunctionBuilder(f1)
	b1 := fb1.CreateBlock()
	fb1.Append(b1)
	fb1.Ins().Ret()
	f2 := ir.NewFunction("dup", nil, hwtype.Void())
	fb2 := ir.NewFunctionBuilder(f2)
	b2 := fb2.CreateBlock()
	fb2.Append(b2)
	fb2.Ins().Ret()
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: "dup"}, f1)
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: "dup"}, f2)

	errs := VerifyModule(m)
	if len(errs) == 0 {
		t.Fatalf("expected a duplicate-global-name error")
	}
}

func TestVerifyEntityCleanBuild(t *testing.T) {
	m := llhdmod.NewModule()
	e := ir.NewEntity("buf", []*hwtype.Type{hwtype.Signal(hwtype.Int(8))}, []*hwtype.Type{hwtype.Signal(hwtype.Int(8))})
	b := ir.NewEntityBuilder(e)
	probed := b.Ins().Prb(e.Args()[0])
	b.Ins().Drv(e.Outs()[0], probed, ir.NoValue)
	m.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: "buf"}, e)

	if errs := VerifyModule(m); len(errs) != 0 {
		t.Fatalf("expected no verification errors for a clean entity, got %v", errs)
	}
}
