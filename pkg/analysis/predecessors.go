// Package analysis computes structural properties of a unit's control
// flow graph: predecessor edges, dominance and the temporal region
// graph used by pkg/tcm (spec.md §4.7).
package analysis

import (
	"github.com/llhd-ir/llhd/pkg/ir"
)

// PredecessorTable maps each block to the set of blocks that branch
// into it. NewPredecessors builds the full structural CFG (every
// terminator's targets); NewTemporalPredecessors restricts itself to
// edges that do not cross a Wait/WaitTime suspension point, which is
// what the dominator tree used by hoisting in pkg/tcm needs (spec.md
// §4.7, grounded on src/pass/tcm.rs's distinct `PredecessorTable::new`
// vs. `PredecessorTable::new_temporal` constructors).
type PredecessorTable struct {
	preds map[ir.Block]ir.OrderedSet[ir.Block]
}

func newPredecessorTable() *PredecessorTable {
	return &PredecessorTable{preds: map[ir.Block]ir.OrderedSet[ir.Block]{}}
}

func (t *PredecessorTable) add(from, to ir.Block) {
	s, ok := t.preds[to]
	if !ok {
		s = ir.NewOrderedSet[ir.Block]()
		t.preds[to] = s
	}
	s.Add(from)
}

// Predecessors returns the blocks that branch into bb, in sorted
// order, or nil if bb has none (e.g. it is the entry block).
func (t *PredecessorTable) Predecessors(bb ir.Block) []ir.Block {
	s, ok := t.preds[bb]
	if !ok {
		return nil
	}
	return s.Sorted()
}

// NewPredecessors builds the full structural predecessor table: every
// edge a block's terminator names, temporal or not.
func NewPredecessors(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout) *PredecessorTable {
	t := newPredecessorTable()
	for _, bb := range layout.Blocks() {
		term := layout.Terminator(bb)
		if term == ir.NoInst {
			continue
		}
		for _, target := range dfg.InstData(term).Blocks() {
			t.add(bb, target)
		}
	}
	return t
}

// NewTemporalPredecessors builds the predecessor table restricted to
// edges whose source terminator is not a Wait/WaitTime: a wait
// suspends the process, so its resume target is reached only by a
// fresh re-entry into the unit, not by straight-line dominance from
// the block containing the wait (spec.md §4.7).
func NewTemporalPredecessors(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout) *PredecessorTable {
	t := newPredecessorTable()
	for _, bb := range layout.Blocks() {
		term := layout.Terminator(bb)
		if term == ir.NoInst {
			continue
		}
		op := dfg.Opcode(term)
		if op.IsTemporal() {
			continue
		}
		for _, target := range dfg.InstData(term).Blocks() {
			t.add(bb, target)
		}
	}
	return t
}
