package ir

import (
	"math/big"
	"testing"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

func TestFunctionBuilderAddAndReturn(t *testing.T) {
	f := NewFunction("add8", []*hwtype.Type{hwtype.Int(8), hwtype.Int(8)}, hwtype.Int(8))
	b := NewFunctionBuilder(f)
	bb := b.CreateBlock()
	b.Append(bb)
	ins := b.Ins()

	sum := ins.Add(f.Args()[0], f.Args()[1])
	ins.RetValue(sum)

	insts := f.Layout().Insts(bb)
	if len(insts) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(insts))
	}
	if f.DFG().Opcode(insts[0]) != OpAdd {
		t.Fatalf("first inst should be add, got %s", f.DFG().Opcode(insts[0]))
	}
	if !f.DFG().Opcode(insts[1]).IsTerminator() {
		t.Fatalf("second inst should be a terminator")
	}
	if !f.DFG().ValueType(sum).Equal(hwtype.Int(8)) {
		t.Fatalf("sum type = %s, want i8", f.DFG().ValueType(sum))
	}
}

func TestFunctionBuilderPanicsWithNoPosition(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when inserting with no position selected")
		}
	}()
	f := NewFunction("f", nil, hwtype.Void())
	b := NewFunctionBuilder(f)
	b.Ins().Ret()
}

func TestFunctionBuilderBranching(t *testing.T) {
	f := NewFunction("pick", []*hwtype.Type{hwtype.Int(1)}, hwtype.Int(8))
	b := NewFunctionBuilder(f)
	entry := b.CreateBlock()
	onTrue := b.CreateBlock()
	onFalse := b.CreateBlock()

	b.Append(entry)
	b.Ins().BrCond(f.Args()[0], onFalse, onTrue)

	b.Append(onTrue)
	one := b.Ins().ConstInt(8, big.NewInt(1))
	b.Ins().RetValue(one)

	b.Append(onFalse)
	zero := b.Ins().ConstInt(8, big.NewInt(0))
	b.Ins().RetValue(zero)

	if f.Layout().Entry() != entry {
		t.Fatalf("Entry() = %v, want %v", f.Layout().Entry(), entry)
	}
	if len(f.Layout().Blocks()) != 3 {
		t.Fatalf("expected 3 blocks")
	}
}

func TestEntityBuilderSignalLifting(t *testing.T) {
	e := NewEntity("buf", []*hwtype.Type{hwtype.Signal(hwtype.Int(8))}, []*hwtype.Type{hwtype.Signal(hwtype.Int(8))})
	b := NewEntityBuilder(e)
	ins := b.Ins()

	probed := ins.Prb(e.Args()[0])
	notProbed := ins.Not(probed)
	if !e.DFG().ValueType(notProbed).IsSignal() {
		t.Fatalf("entity result of `not` should be implicitly lifted to a signal, got %s", e.DFG().ValueType(notProbed))
	}

	ins.Con(e.Outs()[0], notProbed)
	if len(e.Layout().Insts()) != 3 {
		t.Fatalf("expected 3 instructions in entity, got %d", len(e.Layout().Insts()))
	}
}

func TestEntityMux(t *testing.T) {
	e := NewEntity("mux2", []*hwtype.Type{hwtype.Int(1), hwtype.Int(8), hwtype.Int(8)}, []*hwtype.Type{hwtype.Int(8)})
	b := NewEntityBuilder(e)
	ins := b.Ins()
	arr := ins.BuildArray([]Value{e.Args()[1], e.Args()[2]})
	picked := ins.Mux(arr, e.Args()[0])

	pickedTy := e.DFG().ValueType(picked)
	if !pickedTy.IsSignal() {
		t.Fatalf("mux result in an entity should be lifted to a signal, got %s", pickedTy)
	}
	if !pickedTy.Elem().Equal(hwtype.Int(8)) {
		t.Fatalf("mux result element type = %s, want i8", pickedTy.Elem())
	}
}

func TestProcessWaitTime(t *testing.T) {
	p := NewProcess("ticker", []*hwtype.Type{hwtype.Signal(hwtype.Int(1))})
	b := NewFunctionBuilder(p)
	entry := b.CreateBlock()
	b.Append(entry)
	ins := b.Ins()

	sig := p.Args()[0]
	probe := ins.Prb(sig)
	delay := ins.ConstTime(big.NewRat(1, 1), 0, 0)
	ins.WaitTime(entry, delay, []Value{sig})

	term := p.Layout().Terminator(entry)
	data := p.DFG().InstData(term)
	wait, ok := data.(*Wait)
	if !ok {
		t.Fatalf("terminator should be a Wait, got %T", data)
	}
	if !wait.IsTimed {
		t.Fatalf("expected a timed wait")
	}
	if wait.Timeout() != delay {
		t.Fatalf("Timeout() = %v, want %v", wait.Timeout(), delay)
	}
	if len(wait.Sensitivity()) != 1 || wait.Sensitivity()[0] != sig {
		t.Fatalf("Sensitivity() = %v, want [%v]", wait.Sensitivity(), sig)
	}
	_ = probe
}
