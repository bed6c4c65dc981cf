package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/llhd-ir/llhd/pkg/ir"
)

func TestDominatorTreeDiamond(t *testing.T) {
	f, entry, left, right, merge := buildDiamond(t)
	pt := NewPredecessors(f.DFG(), f.Layout())
	dt := NewDominatorTree(f.DFG(), f.Layout(), pt)

	if got := dt.Dominator(entry); got != entry {
		t.Fatalf("expected entry to dominate itself, got %v", got)
	}
	if got := dt.Dominator(left); got != entry {
		t.Fatalf("expected entry to immediately dominate left, got %v", got)
	}
	if got := dt.Dominator(right); got != entry {
		t.Fatalf("expected entry to immediately dominate right, got %v", got)
	}
	if got := dt.Dominator(merge); got != entry {
		t.Fatalf("expected entry to immediately dominate merge (neither branch alone does), got %v", got)
	}

	if !dt.Dominates(entry, merge) {
		t.Fatalf("expected entry to dominate merge")
	}
	if dt.Dominates(left, merge) {
		t.Fatalf("left does not dominate merge: right reaches it too")
	}
	if dt.Dominates(right, merge) {
		t.Fatalf("right does not dominate merge: left reaches it too")
	}
	if !dt.Dominates(entry, left) || !dt.Dominates(entry, right) {
		t.Fatalf("expected entry to dominate both arms")
	}
}

func TestDominatorTreeBlockOrder(t *testing.T) {
	f, entry, left, right, merge := buildDiamond(t)
	pt := NewPredecessors(f.DFG(), f.Layout())
	dt := NewDominatorTree(f.DFG(), f.Layout(), pt)

	if dt.BlockOrder(entry) <= dt.BlockOrder(merge) {
		t.Fatalf("expected entry's postorder number to exceed merge's (entry dominates merge)")
	}
	post := dt.BlocksPostOrder()
	want := []ir.Block{merge, left, right, entry}
	if diff := cmp.Diff(want, post); diff != "" {
		t.Fatalf("postorder mismatch (-want +got):\n%s", diff)
	}
}
