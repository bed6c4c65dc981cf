package analysis

import (
	"gonum.org/v1/gonum/graph/simple"

	"github.com/llhd-ir/llhd/pkg/ir"
)

// DominatorTree computes immediate dominance over a unit's control
// flow graph using the Cooper/Harvey/Kennedy iterative algorithm
// ("A Simple, Fast Dominance Algorithm"), the same algorithm the
// original crate's gcse-family dominator pass uses (spec.md §4.7). The
// CFG itself is modeled as a gonum simple.DirectedGraph (nodes =
// blocks, edges = successor edges read off each block's terminator),
// which gives the reverse-postorder numbering the algorithm needs; the
// fixed-point intersection loop below is plain Go since gonum's graph
// packages only build/traverse graphs, they do not compute dominance.
type DominatorTree struct {
	entry    ir.Block
	postNum  map[ir.Block]int
	rpo      []ir.Block
	idom     map[ir.Block]ir.Block
	preds    *PredecessorTable
}

// NewDominatorTree builds the dominator tree of a Function/Process
// unit's CFG. pt supplies the predecessor edges to intersect over;
// callers pass either the structural table (normal dominance) or the
// temporal-edges-only table (pkg/tcm's prb-hoisting pass, spec.md
// §4.8 step 1).
func NewDominatorTree(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, pt *PredecessorTable) *DominatorTree {
	entry := layout.Entry()
	g := simple.NewDirectedGraph()
	for _, bb := range layout.Blocks() {
		g.AddNode(simple.Node(bb))
	}
	for _, bb := range layout.Blocks() {
		term := layout.Terminator(bb)
		if term == ir.NoInst {
			continue
		}
		for _, target := range dfg.InstData(term).Blocks() {
			if !g.HasEdgeFromTo(int64(bb), int64(target)) {
				g.SetEdge(simple.Edge{F: simple.Node(bb), T: simple.Node(target)})
			}
		}
	}

	dt := &DominatorTree{entry: entry, postNum: map[ir.Block]int{}, idom: map[ir.Block]ir.Block{}, preds: pt}
	if entry == ir.NoBlock {
		return dt
	}

	var postorder []ir.Block
	visited := map[ir.Block]bool{}
	var visit func(b ir.Block)
	visit = func(b ir.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		it := g.From(int64(b))
		var succs []ir.Block
		for it.Next() {
			succs = append(succs, ir.Block(it.Node().ID()))
		}
		sortBlocks(succs)
		for _, s := range succs {
			visit(s)
		}
		postorder = append(postorder, b)
	}
	visit(entry)

	for i, b := range postorder {
		dt.postNum[b] = i
	}
	dt.rpo = make([]ir.Block, len(postorder))
	for i, b := range postorder {
		dt.rpo[len(postorder)-1-i] = b
	}

	dt.idom[entry] = entry
	changed := true
	for changed {
		changed = false
		for _, b := range dt.rpo {
			if b == entry {
				continue
			}
			var newIdom ir.Block
			haveIdom := false
			for _, p := range pt.Predecessors(b) {
				if _, ok := dt.idom[p]; !ok {
					continue
				}
				if !haveIdom {
					newIdom = p
					haveIdom = true
					continue
				}
				newIdom = dt.intersect(newIdom, p)
			}
			if !haveIdom {
				continue
			}
			if prev, ok := dt.idom[b]; !ok || prev != newIdom {
				dt.idom[b] = newIdom
				changed = true
			}
		}
	}
	return dt
}

func (dt *DominatorTree) intersect(a, b ir.Block) ir.Block {
	for a != b {
		for dt.postNum[a] < dt.postNum[b] {
			a = dt.idom[a]
		}
		for dt.postNum[b] < dt.postNum[a] {
			b = dt.idom[b]
		}
	}
	return a
}

// Dominator returns bb's immediate dominator, or NoBlock if bb is
// unreachable from the entry block. The entry block is its own
// immediate dominator by convention, so Dominator(entry) == entry.
func (dt *DominatorTree) Dominator(bb ir.Block) ir.Block {
	if d, ok := dt.idom[bb]; ok {
		return d
	}
	return ir.NoBlock
}

// Dominates reports whether a dominates b (every path from the entry
// block to b passes through a). A block always dominates itself.
func (dt *DominatorTree) Dominates(a, b ir.Block) bool {
	if _, ok := dt.idom[b]; !ok {
		return false
	}
	cur := b
	for {
		if cur == a {
			return true
		}
		if cur == dt.entry {
			return false
		}
		cur = dt.idom[cur]
	}
}

// BlocksPostOrder returns every reachable block in postorder.
func (dt *DominatorTree) BlocksPostOrder() []ir.Block {
	out := make([]ir.Block, len(dt.rpo))
	for i, b := range dt.rpo {
		out[len(dt.rpo)-1-i] = b
	}
	return out
}

// BlockOrder returns bb's postorder number (entry has the highest
// number), the same ordering intersect climbs idom chains by. Used by
// pkg/tcm's nearest-common-ancestor finger walk to decide which
// finger to climb: a block's dominators always have a higher
// BlockOrder than the block itself.
func (dt *DominatorTree) BlockOrder(bb ir.Block) int { return dt.postNum[bb] }

// ValueDominatesBlock reports whether v is available at the start of
// bb: true when v is a unit argument (always available) or an output
// argument, or when the block defining v dominates bb (spec.md §4.7).
func ValueDominatesBlock(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, dt *DominatorTree, v ir.Value, bb ir.Block) bool {
	data := dfg.ValueData(v)
	if data.Kind != ir.ValueInst {
		return true
	}
	defBlock := layout.InstBlock(data.Inst)
	if defBlock == ir.NoBlock {
		return false
	}
	return dt.Dominates(defBlock, bb)
}

func sortBlocks(s []ir.Block) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
