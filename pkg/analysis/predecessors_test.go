package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
)

// buildDiamond builds entry -> {left, right} -> merge, all branching
// on the function's single i1 argument.
func buildDiamond(t *testing.T) (*ir.Function, ir.Block, ir.Block, ir.Block, ir.Block) {
	t.Helper()
	f := ir.NewFunction("diamond", []*hwtype.Type{hwtype.Int(1)}, hwtype.Void())
	b := ir.NewFunctionBuilder(f)

	entry := b.CreateBlock()
	left := b.CreateBlock()
	right := b.CreateBlock()
	merge := b.CreateBlock()

	b.Append(entry)
	b.Ins().BrCond(f.Args()[0], left, right)

	b.Append(left)
	b.Ins().Br(merge)

	b.Append(right)
	b.Ins().Br(merge)

	b.Append(merge)
	b.Ins().Ret()

	return f, entry, left, right, merge
}

func TestPredecessorsDiamond(t *testing.T) {
	f, entry, left, right, merge := buildDiamond(t)
	pt := NewPredecessors(f.DFG(), f.Layout())

	if preds := pt.Predecessors(entry); len(preds) != 0 {
		t.Fatalf("expected entry to have no predecessors, got %v", preds)
	}
	if preds := pt.Predecessors(left); len(preds) != 1 || preds[0] != entry {
		t.Fatalf("expected left's only predecessor to be entry, got %v", preds)
	}
	if preds := pt.Predecessors(right); len(preds) != 1 || preds[0] != entry {
		t.Fatalf("expected right's only predecessor to be entry, got %v", preds)
	}
	mergePreds := pt.Predecessors(merge)
	if diff := cmp.Diff([]ir.Block{left, right}, mergePreds); diff != "" {
		t.Fatalf("merge predecessors mismatch (-want +got):\n%s", diff)
	}
}
