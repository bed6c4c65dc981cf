package assembly

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
)

// nameAssigner deterministically uniquifies every value and block of a
// single unit into a printable name, grounded on assembly.rs's Writer:
// a per-unit counter hands out `%0, %1, …` to anything without a source
// name, while named instruction results collide-suffix against a
// per-unit table (`%x, %x1, %x2, …`). Blocks and unit arguments carry
// no source name in this IR (pkg/ir.DataFlowGraph only remembers names
// for instruction results), so they always go through the counter.
type nameAssigner struct {
	counter     int
	used        map[string]int
	valueNames  map[ir.Value]string
	blockNames  map[ir.Block]string
}

func newNameAssigner() *nameAssigner {
	return &nameAssigner{
		used:       map[string]int{},
		valueNames: map[ir.Value]string{},
		blockNames: map[ir.Block]string{},
	}
}

func (na *nameAssigner) fresh() string {
	n := strconv.Itoa(na.counter)
	na.counter++
	return n
}

func (na *nameAssigner) uniquify(base string) string {
	n, seen := na.used[base]
	na.used[base] = n + 1
	if !seen {
		return base
	}
	return base + strconv.Itoa(n)
}

func (na *nameAssigner) assignValue(v ir.Value, named bool, base string) {
	if _, ok := na.valueNames[v]; ok {
		return
	}
	if named {
		na.valueNames[v] = na.uniquify(base)
	} else {
		na.valueNames[v] = na.fresh()
	}
}

func (na *nameAssigner) valueName(v ir.Value) string {
	n, ok := na.valueNames[v]
	if !ok {
		panic("assembly: printer referenced an unnamed value")
	}
	return "%" + n
}

func (na *nameAssigner) assignBlock(b ir.Block) {
	if _, ok := na.blockNames[b]; ok {
		return
	}
	na.blockNames[b] = "bb" + na.fresh()
}

func (na *nameAssigner) blockName(b ir.Block) string {
	n, ok := na.blockNames[b]
	if !ok {
		panic("assembly: printer referenced an unnamed block")
	}
	return n
}

// Print renders mod as LLHD assembly text.
func Print(mod *llhdmod.Module) string {
	var b strings.Builder
	ids := mod.Units()
	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n")
		}
		printUnit(&b, mod, id)
	}
	return b.String()
}

func printUnit(b *strings.Builder, mod *llhdmod.Module, id llhdmod.ModUnit) {
	name := mod.Name(id)
	kind := mod.Kind(id)
	sig := mod.Signature(id)

	if mod.IsDeclaration(id) {
		fmt.Fprintf(b, "declare %s %s %s\n", kind, name, sigText(sig, kind))
		return
	}

	switch kind {
	case ir.UnitFunction:
		printFunctionLike(b, "func", name.String(), mod.GetFunction(id).DFG(), mod.GetFunction(id).Layout(), mod.GetFunction(id).Args(), sig, kind)
	case ir.UnitProcess:
		printFunctionLike(b, "proc", name.String(), mod.GetProcess(id).DFG(), mod.GetProcess(id).Layout(), mod.GetProcess(id).Args(), sig, kind)
	case ir.UnitEntity:
		printEntity(b, name.String(), mod.GetEntity(id))
	}
}

func sigText(sig llhdmod.Signature, kind ir.UnitKind) string {
	return sig.Type(kind).String()
}

func printFunctionLike(b *strings.Builder, keyword, name string, dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, args []ir.Value, sig llhdmod.Signature, kind ir.UnitKind) {
	na := newNameAssigner()
	for _, a := range args {
		na.assignValue(a, false, "")
	}
	for _, bb := range layout.Blocks() {
		na.assignBlock(bb)
	}
	for _, bb := range layout.Blocks() {
		for _, inst := range layout.Insts(bb) {
			if dfg.HasResult(inst) {
				assignInstResult(na, dfg, inst)
			}
		}
	}

	fmt.Fprintf(b, "%s %s %s {\n", keyword, name, sigText(sig, kind))
	for _, bb := range layout.Blocks() {
		fmt.Fprintf(b, "%s:\n", na.blockName(bb))
		for _, inst := range layout.Insts(bb) {
			fmt.Fprintf(b, "    %s\n", instText(dfg, na, inst))
		}
	}
	b.WriteString("}\n")
}

func printEntity(b *strings.Builder, name string, e *ir.Entity) {
	dfg := e.DFG()
	layout := e.Layout()
	na := newNameAssigner()
	for _, a := range e.Args() {
		na.assignValue(a, false, "")
	}
	for _, o := range e.Outs() {
		na.assignValue(o, false, "")
	}
	for _, inst := range layout.Insts() {
		if dfg.HasResult(inst) {
			assignInstResult(na, dfg, inst)
		}
	}

	fmt.Fprintf(b, "entity %s %s {\n", name, e.Sig().Type(ir.UnitEntity).String())
	for _, inst := range layout.Insts() {
		fmt.Fprintf(b, "    %s\n", instText(dfg, na, inst))
	}
	b.WriteString("}\n")
}

func assignInstResult(na *nameAssigner, dfg *ir.DataFlowGraph, inst ir.Inst) {
	result := dfg.InstResult(inst)
	if srcName, ok := dfg.Name(inst); ok {
		na.assignValue(result, true, srcName)
	} else {
		na.assignValue(result, false, "")
	}
}

func vtext(dfg *ir.DataFlowGraph, na *nameAssigner, v ir.Value) string { return na.valueName(v) }

func vlist(dfg *ir.DataFlowGraph, na *nameAssigner, vs []ir.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = vtext(dfg, na, v)
	}
	return strings.Join(parts, ", ")
}

// instText renders one instruction's full line (sans indentation),
// dispatching on its concrete InstData the way the original visitor's
// visit_inst dispatches per-opcode (assembly.rs).
func instText(dfg *ir.DataFlowGraph, na *nameAssigner, inst ir.Inst) string {
	data := dfg.InstData(inst)
	var resultPrefix, resultTy string
	if dfg.HasResult(inst) {
		resultPrefix = na.valueName(dfg.InstResult(inst)) + " = "
		resultTy = dfg.ValueType(dfg.InstResult(inst)).String()
	}

	switch d := data.(type) {
	case *ir.ConstInt:
		return fmt.Sprintf("%sconst %s %s", resultPrefix, resultTy, d.Imm.String())
	case *ir.ConstTime:
		return fmt.Sprintf("%sconst time %s", resultPrefix, formatConstTime(d))
	case *ir.Nullary:
		return d.Op.String()
	case *ir.Unary:
		switch d.Op {
		case ir.OpRetValue:
			return fmt.Sprintf("ret %s %s", dfg.ValueType(d.Arg).String(), vtext(dfg, na, d.Arg))
		default:
			return fmt.Sprintf("%s%s %s %s", resultPrefix, d.Op.String(), resultTy, vtext(dfg, na, d.Arg))
		}
	case *ir.Binary:
		switch d.Op {
		case ir.OpCon:
			return fmt.Sprintf("con %s, %s", vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]))
		case ir.OpSt:
			return fmt.Sprintf("st %s, %s", vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]))
		default:
			return fmt.Sprintf("%s%s %s %s, %s", resultPrefix, d.Op.String(), resultTy, vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]))
		}
	case *ir.Ternary:
		switch d.Op {
		case ir.OpDrv:
			return fmt.Sprintf("drv %s, %s, %s", vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]), vtext(dfg, na, d.Args_[2]))
		default:
			return fmt.Sprintf("%s%s %s %s, %s, %s", resultPrefix, d.Op.String(), resultTy, vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]), vtext(dfg, na, d.Args_[2]))
		}
	case *ir.Jump:
		return fmt.Sprintf("br %s", na.blockName(d.BlockTarget))
	case *ir.Branch:
		return fmt.Sprintf("br %s, %s, %s", vtext(dfg, na, d.Cond), na.blockName(d.Targets[0]), na.blockName(d.Targets[1]))
	case *ir.Wait:
		if d.IsTimed {
			s := fmt.Sprintf("wait_time %s, %s", na.blockName(d.Resume), vtext(dfg, na, d.Timeout()))
			if sens := d.Sensitivity(); len(sens) > 0 {
				s += ", " + vlist(dfg, na, sens)
			}
			return s
		}
		s := fmt.Sprintf("wait %s", na.blockName(d.Resume))
		if len(d.ArgsV) > 0 {
			s += ", " + vlist(dfg, na, d.ArgsV)
		}
		return s
	case *ir.Call:
		unitName := dfg.ExternName(d.Unit)
		switch d.Op {
		case ir.OpInst:
			return fmt.Sprintf("inst %s(%s) -> (%s)", unitName, vlist(dfg, na, d.Ins()), vlist(dfg, na, d.Outs()))
		default:
			return fmt.Sprintf("%scall %s %s(%s)", resultPrefix, resultTy, unitName, vlist(dfg, na, d.Ins()))
		}
	case *ir.InsExt:
		switch d.Op {
		case ir.OpInsField:
			return fmt.Sprintf("%sinsfield %s %s, %s, %d", resultPrefix, resultTy, vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]), d.Imm0)
		case ir.OpInsSlice:
			return fmt.Sprintf("%sinsslice %s %s, %s, %d, %d", resultPrefix, resultTy, vtext(dfg, na, d.Args_[0]), vtext(dfg, na, d.Args_[1]), d.Imm0, d.Imm1)
		case ir.OpExtField:
			return fmt.Sprintf("%sextfield %s %s, %d", resultPrefix, resultTy, vtext(dfg, na, d.Args_[0]), d.Imm0)
		default: // OpExtSlice
			return fmt.Sprintf("%sextslice %s %s, %d, %d", resultPrefix, resultTy, vtext(dfg, na, d.Args_[0]), d.Imm0, d.Imm1)
		}
	case *ir.Array:
		return fmt.Sprintf("%sarray %s %d, %s", resultPrefix, resultTy, d.Imm, vtext(dfg, na, d.Arg))
	case *ir.Aggregate:
		switch d.Op {
		case ir.OpDrvCond:
			return fmt.Sprintf("drv_cond %s, %s, %s, %s", vtext(dfg, na, d.ArgsV[0]), vtext(dfg, na, d.ArgsV[1]), vtext(dfg, na, d.ArgsV[2]), vtext(dfg, na, d.ArgsV[3]))
		case ir.OpStruct:
			return fmt.Sprintf("%sstruct %s %s", resultPrefix, resultTy, vlist(dfg, na, d.ArgsV))
		default: // OpArray
			return fmt.Sprintf("%sarray %s %s", resultPrefix, resultTy, vlist(dfg, na, d.ArgsV))
		}
	case *ir.Reg:
		parts := make([]string, len(d.Modes))
		for i, mode := range d.Modes {
			parts[i] = fmt.Sprintf("%s %s %s", vtext(dfg, na, d.ArgsV[1+i]), mode.String(), vtext(dfg, na, d.TriggersV[i]))
		}
		s := fmt.Sprintf("%sreg %s %s", resultPrefix, resultTy, vtext(dfg, na, d.ArgsV[0]))
		if len(parts) > 0 {
			s += ", " + strings.Join(parts, ", ")
		}
		return s
	default:
		panic(fmt.Sprintf("assembly: printer has no rendering for %T", data))
	}
}

var siUnits = []struct {
	suffix string
	exp    int
}{
	{"s", 0}, {"ms", 3}, {"us", 6}, {"ns", 9}, {"ps", 12}, {"fs", 15}, {"as", 18},
}

func pow10(n int) *big.Rat {
	return new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
}

// formatSITime renders t (seconds) as the largest SI unit that gives
// an exact integer coefficient, ported from konst.rs's
// write_ratio_as_si; zero always prints as "0s".
func formatSITime(t *big.Rat) string {
	if t.Sign() == 0 {
		return "0s"
	}
	for _, u := range siUnits {
		scaled := new(big.Rat).Mul(t, pow10(u.exp))
		if scaled.IsInt() {
			return scaled.Num().String() + u.suffix
		}
	}
	scaled := new(big.Rat).Mul(t, pow10(18))
	return fmt.Sprintf("%s/%sas", scaled.Num().String(), scaled.Denom().String())
}

// formatConstTime renders a full time literal including its optional
// delta/epsilon suffixes (konst.rs's ConstTime Display).
func formatConstTime(ct *ir.ConstTime) string {
	s := formatSITime(ct.Time)
	if ct.Delta != 0 {
		s += fmt.Sprintf(" %dd", ct.Delta)
	}
	if ct.Epsilon != 0 {
		s += fmt.Sprintf(" %de", ct.Epsilon)
	}
	return s
}
