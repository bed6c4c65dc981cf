// Package tcm implements temporal code motion: the optimization pass
// that rearranges a process's temporal instructions so that probing
// inputs happens as early as possible and driving outputs happens as
// late as possible within a temporal region (spec.md §4.8), ported
// algorithm-for-algorithm from
// _examples/original_source/src/pass/tcm.rs's five phases.
package tcm

import (
	"math/big"

	"github.com/llhd-ir/llhd/pkg/analysis"
	"github.com/llhd-ir/llhd/pkg/ir"
)

// Unit is the minimal surface Run needs: a block-structured unit
// (Function or Process) exposing its data-flow graph and layout. Both
// *ir.Function and *ir.Process satisfy it structurally.
type Unit interface {
	ir.Unit
	Layout() *ir.FunctionLayout
}

// Run applies one iteration of temporal code motion to u, returning
// whether it changed anything. pkg/llhdmod.RunToFixedPoint calls Run
// repeatedly per unit until it reports no further change (spec.md §5).
func Run(u Unit) bool {
	dfg := u.DFG()
	layout := u.Layout()
	b := ir.NewFunctionBuilder(u)

	modified := false
	modified = hoistProbes(dfg, layout) || modified
	modified = fuseWaits(dfg, layout, b) || modified
	modified = addAuxBlocks(dfg, layout, b) || modified
	modified = pushDrives(dfg, layout, b) || modified
	return modified
}

func removeInstFull(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, inst ir.Inst) {
	layout.RemoveInst(inst)
	dfg.RemoveInst(inst)
}

// hoistProbes moves Prb instructions operating directly on a unit
// argument (never a local instruction result) up to the single head
// block of their temporal region, provided the move would still
// dominate every use of the probed value — step 1 of spec.md §4.8,
// ported from tcm.rs's first TemporalCodeMotion::run_on_cfg block.
func hoistProbes(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout) bool {
	trg := analysis.NewTemporalRegionGraph(dfg, layout)
	tempPT := analysis.NewTemporalPredecessors(dfg, layout)
	tempDT := analysis.NewDominatorTree(dfg, layout, tempPT)

	modified := false
	for _, tr := range trg.Regions {
		heads := tr.HeadBlocksSorted()
		if len(heads) != 1 {
			continue
		}
		headBB := heads[0]

		hoist := ir.NewOrderedSet[ir.Inst]()
		for _, bb := range tr.Blocks.Sorted() {
			for _, inst := range layout.Insts(bb) {
				if dfg.Opcode(inst) != ir.OpPrb {
					continue
				}
				arg := dfg.InstData(inst).Args()[0]
				if dfg.ValueData(arg).Kind == ir.ValueInst {
					continue // only hoist probes of unit arguments/outputs
				}

				dominates := tempDT.Dominates(headBB, bb)
				result := dfg.InstResult(inst)
				for _, use := range dfg.Uses(result) {
					userBB := layout.InstBlock(use.User)
					dominates = dominates && tempDT.Dominates(headBB, userBB)
				}
				if dominates {
					hoist.Add(inst)
				}
			}
		}

		for _, inst := range hoist.Sorted() {
			layout.RemoveInst(inst)
			layout.PrependInst(inst, headBB)
			modified = true
		}
	}
	return modified
}

// fuseWaits merges structurally-identical Wait/WaitTime instructions
// that terminate the same temporal region into a single shared block —
// step 2 of spec.md §4.8.
func fuseWaits(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, b *ir.FunctionBuilder) bool {
	trg := analysis.NewTemporalRegionGraph(dfg, layout)
	modified := false

	for _, tr := range trg.Regions {
		tails := tr.TailInstsSorted()
		if len(tails) <= 1 {
			continue
		}

		groups := map[string][]ir.Inst{}
		var order []string
		for _, inst := range tails {
			data := dfg.InstData(inst)
			wait, ok := data.(*ir.Wait)
			if !ok {
				continue
			}
			key := waitKey(wait)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], inst)
		}

		for _, key := range order {
			insts := groups[key]
			if len(insts) <= 1 {
				continue
			}

			unifiedBB := layout.AppendBlock()
			for _, inst := range insts {
				b.After(inst)
				b.Ins().Br(unifiedBB)
			}

			layout.RemoveInst(insts[0])
			layout.AppendInst(insts[0], unifiedBB)
			for _, inst := range insts[1:] {
				removeInstFull(dfg, layout, inst)
			}
			modified = true
		}
	}
	return modified
}

func waitKey(w *ir.Wait) string {
	key := make([]byte, 0, 4+4*len(w.ArgsV))
	appendU32 := func(v uint32) {
		key = append(key, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	appendU32(uint32(w.Op))
	appendU32(uint32(w.Resume))
	if w.IsTimed {
		key = append(key, 1)
	} else {
		key = append(key, 0)
	}
	for _, a := range w.ArgsV {
		appendU32(uint32(a))
	}
	return string(key)
}

// addAuxBlocks inserts an auxiliary entry block whenever two or more
// edges from the same foreign temporal region converge on the same
// head block, so pushDrives later has a dedicated place to sink drives
// into ahead of that specific region transition — step 3 of spec.md
// §4.8.
func addAuxBlocks(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, b *ir.FunctionBuilder) bool {
	pt := analysis.NewPredecessors(dfg, layout)
	trg := analysis.NewTemporalRegionGraph(dfg, layout)
	modified := false

	var headBBs []ir.Block
	for _, bb := range layout.Blocks() {
		if trg.IsHead(bb) {
			headBBs = append(headBBs, bb)
		}
	}

	for _, bb := range headBBs {
		tr := trg.RegionOf(bb)
		instsByRegion := map[analysis.TemporalRegion][]ir.Inst{}
		regionSet := ir.NewOrderedSet[analysis.TemporalRegion]()
		for _, pred := range pt.Predecessors(bb) {
			predTR := trg.RegionOf(pred)
			if predTR == tr {
				continue
			}
			regionSet.Add(predTR)
			instsByRegion[predTR] = append(instsByRegion[predTR], layout.Terminator(pred))
		}

		for _, srcTR := range regionSet.Sorted() {
			insts := instsByRegion[srcTR]
			if len(insts) < 2 {
				continue
			}
			auxBB := layout.AppendBlock()
			b.Append(auxBB)
			b.Ins().Br(bb)
			for _, inst := range insts {
				dfg.InstData(inst).ReplaceBlock(bb, auxBB)
			}
			modified = true
		}
	}
	return modified
}

type pathCond struct {
	value    ir.Value
	polarity bool
}

// pushDrives sinks Drv/DrvCond instructions to the tail blocks of
// their temporal region, conjoining the branch conditions that guard
// the path from the drive's original block to each tail in reverse
// CFG order — step 4 of spec.md §4.8. A drive that cannot be moved
// (an operand or branch condition fails to dominate the destination)
// aborts the rest of its signal's pending drives, matching tcm.rs's
// ordering rule: later drives to the same signal must not be sunk past
// an earlier one that could not move.
func pushDrives(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, b *ir.FunctionBuilder) bool {
	pt := analysis.NewPredecessors(dfg, layout)
	dt := analysis.NewDominatorTree(dfg, layout, pt)

	aliases := map[ir.Value]ir.Value{}
	drvSeq := map[ir.Value][]ir.Inst{}
	signalOrder := ir.NewOrderedSet[ir.Value]()

	post := dt.BlocksPostOrder()
	for i := len(post) - 1; i >= 0; i-- {
		bb := post[i]
		for _, inst := range layout.Insts(bb) {
			data := dfg.InstData(inst)
			op := dfg.Opcode(inst)
			if op == ir.OpDrv || op == ir.OpDrvCond {
				signal := resolveAlias(aliases, data.Args()[0])
				signalOrder.Add(signal)
				drvSeq[signal] = append(drvSeq[signal], inst)
				continue
			}
			if !dfg.HasResult(inst) {
				continue
			}
			value := dfg.InstResult(inst)
			if !dfg.ValueType(value).IsSignal() {
				continue
			}
			for _, arg := range data.Args() {
				if arg == ir.NoValue || !dfg.ValueType(arg).IsSignal() {
					continue
				}
				aliases[value] = resolveAlias(aliases, arg)
			}
		}
	}

	trg := analysis.NewTemporalRegionGraph(dfg, layout)
	modified := false

	for _, signal := range signalOrder.Sorted() {
		drives := drvSeq[signal]
		for i := len(drives) - 1; i >= 0; i-- {
			drive := drives[i]
			driveBB := layout.InstBlock(drive)
			if driveBB == ir.NoBlock {
				continue // already removed by an earlier coalesce in this run
			}
			if trg.IsTail(driveBB) {
				continue
			}
			if trg.Region(trg.RegionOf(driveBB)).TailBlocks.Len() == 0 {
				continue
			}

			moved := pushDrive(dfg, layout, b, dt, trg, drive)
			modified = modified || moved
			if !moved {
				break
			}
		}
	}

	for _, block := range layout.Blocks() {
		modified = coalesceDrives(dfg, layout, b, block) || modified
	}

	return modified
}

func resolveAlias(aliases map[ir.Value]ir.Value, v ir.Value) ir.Value {
	if a, ok := aliases[v]; ok {
		return a
	}
	return v
}

func pushDrive(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, b *ir.FunctionBuilder, dt *analysis.DominatorTree, trg *analysis.TemporalRegionGraph, drive ir.Inst) bool {
	srcBB := layout.InstBlock(drive)
	tr := trg.RegionOf(srcBB)

	type move struct {
		dst   ir.Block
		conds []pathCond
	}
	var moves []move

	for _, dstBB := range trg.Region(tr).TailBlocksSorted() {
		for _, arg := range dfg.InstData(drive).Args() {
			if arg == ir.NoValue {
				continue
			}
			if !analysis.ValueDominatesBlock(dfg, layout, dt, arg, dstBB) {
				return false
			}
		}

		srcFinger, dstFinger := srcBB, dstBB
		var conds []pathCond
		for srcFinger != dstFinger {
			i1, i2 := dt.BlockOrder(srcFinger), dt.BlockOrder(dstFinger)
			switch {
			case i1 < i2:
				parent := dt.Dominator(srcFinger)
				if srcFinger == parent {
					return false
				}
				term := layout.Terminator(parent)
				if dfg.Opcode(term) == ir.OpBrCond {
					branch := dfg.InstData(term).(*ir.Branch)
					if !analysis.ValueDominatesBlock(dfg, layout, dt, branch.Cond, dstBB) {
						return false
					}
					for idx, target := range branch.Targets {
						if target == srcFinger {
							conds = append(conds, pathCond{value: branch.Cond, polarity: idx != 0})
							break
						}
					}
				}
				srcFinger = parent
			case i2 < i1:
				parent := dt.Dominator(dstFinger)
				if dstFinger == parent {
					return false
				}
				dstFinger = parent
			default:
				return false
			}
		}
		moves = append(moves, move{dst: dstBB, conds: conds})
	}

	for _, mv := range moves {
		b.Prepend(mv.dst)
		cond := b.Ins().ConstInt(1, big.NewInt(1))
		for i := len(mv.conds) - 1; i >= 0; i-- {
			c := mv.conds[i]
			v := c.value
			if !c.polarity {
				v = b.Ins().Not(v)
			}
			cond = b.Ins().And(cond, v)
		}
		if dfg.Opcode(drive) == ir.OpDrvCond {
			cond = b.Ins().And(cond, dfg.InstData(drive).Args()[3])
		}
		args := dfg.InstData(drive).Args()
		b.Ins().DrvCond(args[0], args[1], args[2], cond)
	}

	removeInstFull(dfg, layout, drive)
	return true
}

// coalesceDrives folds runs of drives to the same signal with the same
// delay into a single DrvCond, ORing their conditions and muxing each
// later drive's value in on that drive's own condition — step 5 of
// spec.md §4.8. The combined instruction is always placed immediately
// before block's terminator: every original drive's operands are
// already available there, and anchoring on the (never-removed)
// terminator avoids referencing an instruction this pass is about to
// delete, which an intrusive list cannot do safely.
func coalesceDrives(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, b *ir.FunctionBuilder, block ir.Block) bool {
	term := layout.Terminator(block)
	if term == ir.NoInst {
		return false
	}

	delayGroups := map[ir.Value][]ir.Inst{}
	delayOrder := ir.NewOrderedSet[ir.Value]()
	for _, inst := range layout.Insts(block) {
		op := dfg.Opcode(inst)
		if op != ir.OpDrv && op != ir.OpDrvCond {
			continue
		}
		delay := dfg.InstData(inst).Args()[2]
		delayOrder.Add(delay)
		delayGroups[delay] = append(delayGroups[delay], inst)
	}

	modified := false
	for _, delay := range delayOrder.Sorted() {
		drives := delayGroups[delay]
		var runs [][]ir.Inst
		for _, inst := range drives {
			signal := dfg.InstData(inst).Args()[0]
			if len(runs) > 0 {
				last := runs[len(runs)-1]
				if dfg.InstData(last[0]).Args()[0] == signal {
					runs[len(runs)-1] = append(last, inst)
					continue
				}
			}
			runs = append(runs, []ir.Inst{inst})
		}

		for _, run := range runs {
			if len(run) <= 1 {
				continue
			}

			b.Before(term)
			target := dfg.InstData(run[0]).Args()[0]
			cond := driveCond(b, dfg, run[0])
			value := dfg.InstData(run[0]).Args()[1]
			removeInstFull(dfg, layout, run[0])

			for _, d := range run[1:] {
				b.Before(term)
				c := driveCond(b, dfg, d)
				v := dfg.InstData(d).Args()[1]
				if cond != c {
					cond = b.Ins().Or(cond, c)
				}
				if value != v {
					vs := b.Ins().BuildArray([]ir.Value{value, v})
					value = b.Ins().Mux(vs, c)
				}
				removeInstFull(dfg, layout, d)
			}

			b.Before(term)
			b.Ins().DrvCond(target, value, delay, cond)
			modified = true
		}
	}
	return modified
}

func driveCond(b *ir.FunctionBuilder, dfg *ir.DataFlowGraph, inst ir.Inst) ir.Value {
	if dfg.Opcode(inst) == ir.OpDrvCond {
		return dfg.InstData(inst).Args()[3]
	}
	return b.Ins().ConstInt(1, big.NewInt(1))
}
