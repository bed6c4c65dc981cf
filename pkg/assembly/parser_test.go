package assembly

import (
	"math/big"
	"testing"

	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
)

func newSingleProcessModule(p *ir.Process) *llhdmod.Module {
	mod := llhdmod.NewModule()
	mod.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "rt"}, p)
	return mod
}

func newSingleEntityModule(e *ir.Entity) *llhdmod.Module {
	mod := llhdmod.NewModule()
	mod.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "e"}, e)
	return mod
}

// buildArithAndControlFlowProcess exercises constants, arithmetic, a
// signal drive, conditional control flow and a wait in one process, to
// put a broad slice of the printer/parser's opcode coverage through a
// single round trip.
func buildArithAndControlFlowProcess(t *testing.T) *ir.Process {
	t.Helper()
	p := ir.NewProcess("rt", []*hwtype.Type{hwtype.Int(1), hwtype.Signal(hwtype.Int(8))})
	b := ir.NewFunctionBuilder(p)
	cond := p.Args()[0]
	out := p.Args()[1]

	head := b.CreateBlock()
	then := b.CreateBlock()
	join := b.CreateBlock()

	b.Append(head)
	one := b.Ins().ConstInt(8, big.NewInt(1))
	two := b.Ins().ConstInt(8, big.NewInt(2))
	sum := b.Ins().Add(one, two)
	_ = sum
	b.Ins().BrCond(cond, join, then)

	b.Append(then)
	delay := b.Ins().ConstTime(big.NewRat(0, 1), 0, 0)
	b.Ins().Drv(out, two, delay)
	b.Ins().Br(join)

	b.Append(join)
	b.Ins().Wait(head, []ir.Value{out})

	return p
}

func printProcess(t *testing.T, p *ir.Process) string {
	t.Helper()
	mod := newSingleProcessModule(p)
	return Print(mod)
}

func TestParseRoundTripsPrinterOutput(t *testing.T) {
	p := buildArithAndControlFlowProcess(t)
	first := printProcess(t, p)

	mod, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse failed on printer output: %v\n%s", err, first)
	}

	second := Print(mod)
	if first != second {
		t.Fatalf("round trip mismatch:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("func @oops ( {{{"); err == nil {
		t.Fatalf("expected a parse error on malformed input")
	}
}

func TestParseEntityRoundTrips(t *testing.T) {
	e := ir.NewEntity("e", []*hwtype.Type{hwtype.Signal(hwtype.Int(4))}, []*hwtype.Type{hwtype.Signal(hwtype.Int(4))})
	b := ir.NewEntityBuilder(e)
	in := e.Args()[0]
	out := e.Outs()[0]
	v := b.Ins().Prb(in)
	delay := b.Ins().ConstTime(big.NewRat(1, 1000000000), 0, 0)
	b.Ins().Drv(out, v, delay)

	mod := newSingleEntityModule(e)
	first := Print(mod)

	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, first)
	}
	second := Print(parsed)
	if first != second {
		t.Fatalf("round trip mismatch:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}
