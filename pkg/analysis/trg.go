package analysis

import "github.com/llhd-ir/llhd/pkg/ir"

// TemporalRegion identifies one maximal run of blocks reached without
// crossing a Wait/WaitTime suspension point.
type TemporalRegion int

// TemporalRegionData describes one temporal region: its member blocks,
// whether it is the region entered on unit invocation, and its head/
// tail blocks and instructions (spec.md §4.7, ported field-for-field
// from src/pass/tcm.rs's TemporalRegionData).
type TemporalRegionData struct {
	ID TemporalRegion

	// Blocks is the set of blocks assigned to this region.
	Blocks ir.OrderedSet[ir.Block]

	// Entry is true for the region entered when the unit starts
	// executing (the region containing layout.Entry()).
	Entry bool

	// HeadInsts are the temporal instructions — residing in blocks
	// *outside* this region, in the predecessors of HeadBlocks — whose
	// resume target introduces this region.
	HeadInsts ir.OrderedSet[ir.Inst]

	// HeadBlocks are the first blocks jumped into upon entering this
	// region.
	HeadBlocks ir.OrderedSet[ir.Block]

	// HeadTight is true when every HeadBlocks entry is reachable only
	// from a different region (never from within this one).
	HeadTight bool

	// TailInsts are the temporal instructions — residing in blocks
	// *inside* this region, in TailBlocks — that terminate it.
	TailInsts ir.OrderedSet[ir.Inst]

	// TailBlocks are the last blocks of this region: blocks ending in a
	// Wait/WaitTime, or branching to a block of a different region.
	TailBlocks ir.OrderedSet[ir.Block]

	// TailTight is true when every TailBlocks entry branches only to a
	// different region (never back into this one).
	TailTight bool
}

// IsHead reports whether bb is one of this region's head blocks.
func (d *TemporalRegionData) IsHead(bb ir.Block) bool { return d.Blocks != nil && d.HeadBlocks.Contains(bb) }

// IsTail reports whether bb is one of this region's tail blocks.
func (d *TemporalRegionData) IsTail(bb ir.Block) bool { return d.TailBlocks.Contains(bb) }

// HeadBlocksSorted returns HeadBlocks in ascending id order.
func (d *TemporalRegionData) HeadBlocksSorted() []ir.Block { return d.HeadBlocks.Sorted() }

// TailBlocksSorted returns TailBlocks in ascending id order.
func (d *TemporalRegionData) TailBlocksSorted() []ir.Block { return d.TailBlocks.Sorted() }

// TailInstsSorted returns TailInsts in ascending id order.
func (d *TemporalRegionData) TailInstsSorted() []ir.Inst { return d.TailInsts.Sorted() }

// TemporalRegionGraph partitions a unit's blocks into temporal regions
// (spec.md §4.7), the structure pkg/tcm's five passes operate over.
type TemporalRegionGraph struct {
	Regions []*TemporalRegionData
	blockOf map[ir.Block]TemporalRegion
}

// RegionOf returns the region bb belongs to.
func (g *TemporalRegionGraph) RegionOf(bb ir.Block) TemporalRegion { return g.blockOf[bb] }

// Region returns the data for region tr.
func (g *TemporalRegionGraph) Region(tr TemporalRegion) *TemporalRegionData { return g.Regions[tr] }

// IsHead reports whether bb is a head block of its own region.
func (g *TemporalRegionGraph) IsHead(bb ir.Block) bool {
	return g.Region(g.RegionOf(bb)).IsHead(bb)
}

// IsTail reports whether bb is a tail block of its own region.
func (g *TemporalRegionGraph) IsTail(bb ir.Block) bool {
	return g.Region(g.RegionOf(bb)).IsTail(bb)
}

// NewTemporalRegionGraph computes the TRG of a Function/Process unit,
// ported from TemporalRegionGraph::new in src/pass/tcm.rs: seed a
// worklist with the entry block and every Wait/WaitTime target, then
// flood-fill non-temporal successor edges. A block reachable from more
// than one region keeps the region that reached it first; it is not
// split off into a region of its own. Edges into it from the other
// regions make it a head block, and their source blocks tail blocks.
func NewTemporalRegionGraph(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout) *TemporalRegionGraph {
	entry := layout.Entry()

	type queueItem struct{ bb ir.Block }
	var todo []queueItem
	seen := map[ir.Block]bool{}
	push := func(bb ir.Block) {
		if !seen[bb] {
			seen[bb] = true
			todo = append(todo, queueItem{bb})
		}
	}
	push(entry)
	for _, bb := range layout.Blocks() {
		term := layout.Terminator(bb)
		if term == ir.NoInst {
			continue
		}
		if dfg.Opcode(term).IsTemporal() {
			for _, target := range dfg.InstData(term).Blocks() {
				push(target)
			}
		}
	}

	nextID := 0
	blocks := map[ir.Block]TemporalRegion{}
	headBlocks := ir.NewOrderedSet[ir.Block]()
	tailBlocks := ir.NewOrderedSet[ir.Block]()

	roots := append([]queueItem(nil), todo...)
	for _, item := range roots {
		blocks[item.bb] = TemporalRegion(nextID)
		headBlocks.Add(item.bb)
		nextID++
	}

	for len(todo) > 0 {
		bb := todo[0].bb
		todo = todo[1:]
		tr := blocks[bb]

		term := layout.Terminator(bb)
		if term == ir.NoInst {
			continue
		}
		if dfg.Opcode(term).IsTemporal() {
			tailBlocks.Add(bb)
			continue
		}
		for _, target := range dfg.InstData(term).Blocks() {
			if seen[target] {
				continue
			}
			seen[target] = true
			todo = append(todo, queueItem{target})
			if _, assigned := blocks[target]; assigned {
				newTR := TemporalRegion(nextID)
				blocks[target] = newTR
				headBlocks.Add(target)
				tailBlocks.Add(bb)
				nextID++
			} else {
				blocks[target] = tr
			}
		}
	}

	regions := make([]*TemporalRegionData, nextID)
	for i := range regions {
		regions[i] = &TemporalRegionData{
			ID:         TemporalRegion(i),
			Blocks:     ir.NewOrderedSet[ir.Block](),
			HeadInsts:  ir.NewOrderedSet[ir.Inst](),
			HeadBlocks: ir.NewOrderedSet[ir.Block](),
			HeadTight:  true,
			TailInsts:  ir.NewOrderedSet[ir.Inst](),
			TailBlocks: ir.NewOrderedSet[ir.Block](),
			TailTight:  true,
		}
	}
	regions[blocks[entry]].Entry = true

	pt := NewPredecessors(dfg, layout)

	for bb, id := range blocks {
		reg := regions[id]
		reg.Blocks.Add(bb)

		isHead := headBlocks.Contains(bb)
		isTightHead := true
		for _, pred := range pt.Predecessors(bb) {
			diff := blocks[pred] != id
			isHead = isHead || diff
			isTightHead = isTightHead && diff
		}
		if isHead {
			reg.HeadBlocks.Add(bb)
			reg.HeadTight = reg.HeadTight && isTightHead
		}

		isTail := tailBlocks.Contains(bb)
		isTightTail := true
		term := layout.Terminator(bb)
		var succs []ir.Block
		if term != ir.NoInst {
			succs = dfg.InstData(term).Blocks()
		}
		for _, succ := range succs {
			diff := blocks[succ] != id
			isTail = isTail || diff
			isTightTail = isTightTail && diff
		}
		if isTail {
			reg.TailBlocks.Add(bb)
			reg.TailTight = reg.TailTight && isTightTail
		}

		for _, pred := range pt.Predecessors(bb) {
			if blocks[pred] != id {
				if t := layout.Terminator(pred); t != ir.NoInst {
					reg.HeadInsts.Add(t)
				}
			}
		}

		if term != ir.NoInst {
			for _, succ := range succs {
				if blocks[succ] != id {
					reg.TailInsts.Add(term)
					break
				}
			}
		}
	}

	return &TemporalRegionGraph{Regions: regions, blockOf: blocks}
}
