package ir

import (
	"math/big"
	"testing"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

func TestAddInstTracksResultAndUses(t *testing.T) {
	g := NewDataFlowGraph()
	a := g.AddArg(hwtype.Int(8))
	b := g.AddArg(hwtype.Int(8))

	addInst := g.AddInst(&Binary{Op: OpAdd, Args_: [2]Value{a, b}}, hwtype.Int(8))
	if !g.HasResult(addInst) {
		t.Fatalf("add instruction should have a result")
	}
	sum := g.InstResult(addInst)
	if sum == NoValue {
		t.Fatalf("expected a result value")
	}
	if !g.ValueType(sum).Equal(hwtype.Int(8)) {
		t.Fatalf("result type = %s, want i8", g.ValueType(sum))
	}

	uses := g.Uses(a)
	if len(uses) != 1 || uses[0].User != addInst || uses[0].Slot != 0 {
		t.Fatalf("unexpected uses of a: %+v", uses)
	}
}

func TestReplaceUseRewritesOperand(t *testing.T) {
	g := NewDataFlowGraph()
	a := g.AddArg(hwtype.Int(1))
	c := g.AddInst(&ConstInt{Imm: big.NewInt(0)}, hwtype.Int(1))
	cv := g.InstResult(c)

	not := g.AddInst(&Unary{Op: OpNot, Arg: a}, hwtype.Int(1))
	if n := g.ReplaceUse(a, cv); n != 1 {
		t.Fatalf("expected ReplaceUse to report 1 rewritten use, got %d", n)
	}

	got := g.InstData(not).Args()[0]
	if got != cv {
		t.Fatalf("ReplaceUse did not rewrite operand: got %v, want %v", got, cv)
	}
	if len(g.Uses(a)) != 0 {
		t.Fatalf("expected no remaining uses of a")
	}
	if len(g.Uses(cv)) != 1 {
		t.Fatalf("expected one use of the replacement value")
	}
}

func TestRemoveInstDropsUses(t *testing.T) {
	g := NewDataFlowGraph()
	a := g.AddArg(hwtype.Int(1))
	not := g.AddInst(&Unary{Op: OpNot, Arg: a}, hwtype.Int(1))
	g.RemoveInst(not)
	if len(g.Uses(a)) != 0 {
		t.Fatalf("expected uses dropped after RemoveInst")
	}
}

func TestConstAccessors(t *testing.T) {
	g := NewDataFlowGraph()
	ci := g.AddInst(&ConstInt{Imm: big.NewInt(42)}, hwtype.Int(32))
	v := g.InstResult(ci)
	if g.GetConstInt(v).Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("GetConstInt mismatch")
	}

	ct := g.AddInst(&ConstTime{Time: big.NewRat(1, 1000), Delta: 1}, hwtype.Time())
	tv := g.InstResult(ct)
	got := g.GetConstTime(tv)
	if got == nil || got.Delta != 1 {
		t.Fatalf("GetConstTime mismatch: %+v", got)
	}
}

func TestExternDeclaration(t *testing.T) {
	g := NewDataFlowGraph()
	sig := hwtype.Func([]*hwtype.Type{hwtype.Int(8)}, hwtype.Int(8))
	ext := g.AddExtern("@helper", sig)
	if g.ExternName(ext) != "@helper" {
		t.Fatalf("ExternName mismatch")
	}
	if !g.ExternSig(ext).Equal(sig) {
		t.Fatalf("ExternSig mismatch")
	}
}
