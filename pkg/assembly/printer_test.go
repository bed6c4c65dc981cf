package assembly

import (
	"math/big"
	"strings"
	"testing"

	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
)

// buildSampleModule constructs a module declaring an external function
// and an external entity, a local process that calls the function, and
// a local entity that instantiates the external entity twice — an
// adaptation of the build-and-print scenario to this package's concrete
// type model (processes carry no output list here, so the external
// declaration that stands in for a connectable unit is an entity).
func buildSampleModule(t *testing.T) *llhdmod.Module {
	t.Helper()
	mod := llhdmod.NewModule()

	mod.Declare(llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: "my_func"}, ir.UnitFunction,
		ir.NewFunctionSig([]*hwtype.Type{hwtype.Int(32)}, hwtype.Int(3)))
	mod.Declare(llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: "my_ent"}, ir.UnitEntity,
		ir.NewEntitySig([]*hwtype.Type{hwtype.Signal(hwtype.Int(8))}, []*hwtype.Type{hwtype.Signal(hwtype.Int(8))}))

	foo := ir.NewProcess("foo", nil)
	fb := ir.NewFunctionBuilder(foo)
	entry := fb.CreateBlock()
	fb.Append(entry)
	fooExt := foo.DFG().AddExtern("@my_func", hwtype.Func([]*hwtype.Type{hwtype.Int(32)}, hwtype.Int(3)))
	arg := fb.Ins().ConstInt(32, big.NewInt(9001))
	fb.Ins().Call(fooExt, []ir.Value{arg})
	fb.Ins().Halt()
	mod.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "foo"}, foo)

	bar := ir.NewEntity("bar", nil, nil)
	eb := ir.NewEntityBuilder(bar)
	barExt := bar.DFG().AddExtern("@my_ent", hwtype.Entity(
		[]*hwtype.Type{hwtype.Signal(hwtype.Int(8))}, []*hwtype.Type{hwtype.Signal(hwtype.Int(8))}))
	zero := eb.Ins().ConstInt(8, big.NewInt(0))
	s0 := eb.Ins().Sig(zero)
	s1 := eb.Ins().Sig(zero)
	eb.Ins().Inst(barExt, []ir.Value{s0}, []ir.Value{s1})
	eb.Ins().Inst(barExt, []ir.Value{s1}, []ir.Value{s0})
	mod.AddUnit(llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: "bar"}, bar)

	return mod
}

func TestPrintBuildAndPrintScenario(t *testing.T) {
	mod := buildSampleModule(t)
	out := Print(mod)

	for _, token := range []string{"func @my_func", "proc %foo", "entity %bar", "const i32 9001"} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected printed output to contain %q, got:\n%s", token, out)
		}
	}
	if n := strings.Count(out, "call "); n != 1 {
		t.Fatalf("expected exactly one call, got %d in:\n%s", n, out)
	}
	if n := strings.Count(out, "inst "); n != 2 {
		t.Fatalf("expected exactly two inst, got %d in:\n%s", n, out)
	}
}

func TestFormatSITime(t *testing.T) {
	cases := []struct {
		rat  *big.Rat
		want string
	}{
		{big.NewRat(0, 1), "0s"},
		{big.NewRat(1, 1), "1s"},
		{big.NewRat(1, 1000), "1ms"},
		{big.NewRat(10, 1000000000), "10ns"},
		{big.NewRat(500, 1000000000000), "500ps"},
	}
	for _, c := range cases {
		if got := formatSITime(c.rat); got != c.want {
			t.Errorf("formatSITime(%v) = %q, want %q", c.rat, got, c.want)
		}
	}
}

func TestFormatConstTimeAppendsDeltaAndEpsilon(t *testing.T) {
	ct := &ir.ConstTime{Time: big.NewRat(0, 1), Delta: 2, Epsilon: 3}
	if got, want := formatConstTime(ct), "0s 2d 3e"; got != want {
		t.Fatalf("formatConstTime = %q, want %q", got, want)
	}
}
