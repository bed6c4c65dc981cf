package llhdmod

import (
	"testing"

	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
)

func TestRunToFixedPointStopsWhenPassReportsNoChange(t *testing.T) {
	m := NewModule()
	f := ir.NewFunction("f", nil, hwtype.Void())
	fb := ir.NewFunctionBuilder(f)
	bb := fb.CreateBlock()
	fb.Append(bb)
	fb.Ins().Ret()
	m.AddUnit(UnitName{Kind: NameLocal, Text: "f"}, f)

	calls := 0
	pass := func(u ir.Unit) bool {
		calls++
		return calls < 3
	}
	changed := RunToFixedPoint(m, pass)
	if !changed {
		t.Fatalf("expected changed=true")
	}
	if calls != 3 {
		t.Fatalf("expected pass invoked until it returns false (3 calls), got %d", calls)
	}
}

func TestRunToFixedPointNoChange(t *testing.T) {
	m := NewModule()
	f := ir.NewFunction("f", nil, hwtype.Void())
	fb := ir.NewFunctionBuilder(f)
	bb := fb.CreateBlock()
	fb.Append(bb)
	fb.Ins().Ret()
	m.AddUnit(UnitName{Kind: NameLocal, Text: "f"}, f)

	changed := RunToFixedPoint(m, func(ir.Unit) bool { return false })
	if changed {
		t.Fatalf("expected changed=false when the pass never reports a change")
	}
}
