package assembly

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
)

// ParseError reports a malformed token by source position. The parser
// stops at the first one instead of trying to recover, since a single
// syntax error leaves no reliable way to keep building a well-typed
// module.
type ParseError struct {
	Line, Column int
	Message      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parse reads LLHD assembly text into a module. It only needs to
// accept output produced by Print in this package: argument and entity
// output values are identified by the positional counter Print hands
// them (no parameter-name binding exists in the grammar), and
// instruction results must be defined before any use, matching the
// order Print always emits them in (see nameAssigner).
func Parse(src string) (mod *llhdmod.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				mod, err = nil, pe
				return
			}
			panic(r)
		}
	}()

	p := newParser(src)
	mod = llhdmod.NewModule()
	for p.cur().Type != TokenEOF {
		p.parseTopLevel(mod)
	}
	return mod, nil
}

type parser struct {
	toks []Token
	pos  int
}

func newParser(src string) *parser {
	lx := NewLexer(src)
	var toks []Token
	for {
		t := lx.NextToken()
		toks = append(toks, t)
		if t.Type == TokenEOF {
			break
		}
	}
	return &parser{toks: toks}
}

func (p *parser) cur() Token  { return p.toks[p.pos] }
func (p *parser) peek() Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}
func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos+1 < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) fail(format string, args ...any) {
	t := p.cur()
	panic(&ParseError{Line: t.Line, Column: t.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) expect(tt TokenType) Token {
	if p.cur().Type != tt {
		p.fail("expected %s, got %q", tt, p.cur().Literal)
	}
	return p.advance()
}

func (p *parser) expectInt() int {
	t := p.expect(TokenInt)
	n, err := strconv.Atoi(t.Literal)
	if err != nil {
		p.fail("invalid integer %q", t.Literal)
	}
	return n
}

// parseTopLevel parses one declare statement or one unit definition.
func (p *parser) parseTopLevel(mod *llhdmod.Module) {
	switch p.cur().Type {
	case TokenDeclare:
		p.advance()
		kind := p.parseUnitKeyword()
		name := p.parseName()
		sig := p.parseSignature(kind)
		mod.Declare(name, kind, sig)
	case TokenFunc, TokenProc, TokenEntity:
		p.parseUnitDef(mod)
	default:
		p.fail("expected \"declare\", \"func\", \"proc\" or \"entity\", got %q", p.cur().Literal)
	}
}

func (p *parser) parseUnitKeyword() ir.UnitKind {
	switch p.cur().Type {
	case TokenFunc:
		p.advance()
		return ir.UnitFunction
	case TokenProc:
		p.advance()
		return ir.UnitProcess
	case TokenEntity:
		p.advance()
		return ir.UnitEntity
	default:
		p.fail("expected a unit kind, got %q", p.cur().Literal)
		return 0
	}
}

func (p *parser) parseName() llhdmod.UnitName {
	switch p.cur().Type {
	case TokenGlobal:
		t := p.advance()
		return llhdmod.UnitName{Kind: llhdmod.NameGlobal, Text: t.Literal}
	case TokenLocal:
		t := p.advance()
		return llhdmod.UnitName{Kind: llhdmod.NameLocal, Text: t.Literal}
	default:
		p.fail("expected a name, got %q", p.cur().Literal)
		return llhdmod.UnitName{}
	}
}

// parseSignature parses the (ins) ret form for func/proc or the
// (ins; outs) form for entity, mirroring hwtype.Type's Func/Entity
// String rendering exactly.
func (p *parser) parseSignature(kind ir.UnitKind) llhdmod.Signature {
	p.expect(TokenLParen)
	if kind == ir.UnitEntity {
		ins := p.parseTypeListUntil(TokenSemicolon)
		p.expect(TokenSemicolon)
		outs := p.parseTypeListUntil(TokenRParen)
		p.expect(TokenRParen)
		return ir.NewEntitySig(ins, outs)
	}
	ins := p.parseTypeListUntil(TokenRParen)
	p.expect(TokenRParen)
	ret := p.parseType()
	if kind == ir.UnitFunction {
		return ir.NewFunctionSig(ins, ret)
	}
	if !ret.IsVoid() {
		p.fail("a process signature must return void")
	}
	return ir.NewProcessSig(ins)
}

func (p *parser) parseTypeListUntil(stop TokenType) []*hwtype.Type {
	var types []*hwtype.Type
	if p.cur().Type == stop {
		return types
	}
	types = append(types, p.parseType())
	for p.cur().Type == TokenComma {
		p.advance()
		types = append(types, p.parseType())
	}
	return types
}

func looksLikeTypeStart(t Token) bool {
	switch t.Type {
	case TokenVoid, TokenTime_, TokenLBracket, TokenLBrace:
		return true
	case TokenIdent:
		return isScalarTypeIdent(t.Literal)
	}
	return false
}

func isScalarTypeIdent(lit string) bool {
	if len(lit) < 2 {
		return false
	}
	if lit[0] != 'i' && lit[0] != 'n' {
		return false
	}
	for _, c := range lit[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (p *parser) parseType() *hwtype.Type {
	var t *hwtype.Type
	switch p.cur().Type {
	case TokenVoid:
		p.advance()
		t = hwtype.Void()
	case TokenTime_:
		p.advance()
		t = hwtype.Time()
	case TokenLBracket:
		p.advance()
		n := p.expectInt()
		p.expect(TokenX)
		elem := p.parseType()
		p.expect(TokenRBracket)
		t = hwtype.Array(n, elem)
	case TokenLBrace:
		p.advance()
		fields := p.parseTypeListUntil(TokenRBrace)
		p.expect(TokenRBrace)
		t = hwtype.Struct(fields)
	case TokenIdent:
		lit := p.cur().Literal
		if !isScalarTypeIdent(lit) {
			p.fail("expected a type, got %q", lit)
		}
		p.advance()
		n, _ := strconv.Atoi(lit[1:])
		if lit[0] == 'i' {
			t = hwtype.Int(n)
		} else {
			t = hwtype.Enum(n)
		}
	default:
		p.fail("expected a type, got %q", p.cur().Literal)
	}
	for p.cur().Type == TokenStar || p.cur().Type == TokenDollar {
		if p.cur().Type == TokenStar {
			t = hwtype.Pointer(t)
		} else {
			t = hwtype.Signal(t)
		}
		p.advance()
	}
	return t
}

// unitCtx holds the per-unit state threaded through instruction
// parsing: the value/block name tables and the builder to emit into.
type unitCtx struct {
	dfg    *ir.DataFlowGraph
	values map[string]ir.Value
	blocks map[string]ir.Block
}

func (p *parser) parseUnitDef(mod *llhdmod.Module) {
	kind := p.parseUnitKeyword()
	name := p.parseName()
	p.expect(TokenLParen)
	var ins, outs []*hwtype.Type
	var ret *hwtype.Type
	if kind == ir.UnitEntity {
		ins = p.parseTypeListUntil(TokenSemicolon)
		p.expect(TokenSemicolon)
		outs = p.parseTypeListUntil(TokenRParen)
		p.expect(TokenRParen)
	} else {
		ins = p.parseTypeListUntil(TokenRParen)
		p.expect(TokenRParen)
		ret = p.parseType()
	}

	switch kind {
	case ir.UnitFunction:
		fn := ir.NewFunction(name.Text, ins, ret)
		b := ir.NewFunctionBuilder(fn)
		p.expect(TokenLBrace)
		p.parseFunctionLikeBody(fn.DFG(), fn.Layout(), b, fn.Args())
		p.expect(TokenRBrace)
		mod.AddUnit(name, fn)
	case ir.UnitProcess:
		if !ret.IsVoid() {
			p.fail("a process signature must return void")
		}
		pr := ir.NewProcess(name.Text, ins)
		b := ir.NewFunctionBuilder(pr)
		p.expect(TokenLBrace)
		p.parseFunctionLikeBody(pr.DFG(), pr.Layout(), b, pr.Args())
		p.expect(TokenRBrace)
		mod.AddUnit(name, pr)
	case ir.UnitEntity:
		e := ir.NewEntity(name.Text, ins, outs)
		b := ir.NewEntityBuilder(e)
		p.expect(TokenLBrace)
		p.parseEntityBody(e.DFG(), e.Layout(), b, e.Args(), e.Outs())
		p.expect(TokenRBrace)
		mod.AddUnit(name, e)
	}
}

// prescanBlocks collects every "ident :" label appearing (at any brace
// depth) between the current position and the body's matching closing
// brace, in first-appearance order, without consuming any tokens.
func (p *parser) prescanBlocks() []string {
	depth := 1
	var labels []string
	seen := map[string]bool{}
	for i := p.pos; depth > 0 && p.toks[i].Type != TokenEOF; i++ {
		switch p.toks[i].Type {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
		case TokenIdent:
			if i+1 < len(p.toks) && p.toks[i+1].Type == TokenColon && !seen[p.toks[i].Literal] {
				seen[p.toks[i].Literal] = true
				labels = append(labels, p.toks[i].Literal)
			}
		}
	}
	return labels
}

func (p *parser) parseFunctionLikeBody(dfg *ir.DataFlowGraph, layout *ir.FunctionLayout, b *ir.FunctionBuilder, args []ir.Value) {
	ctx := &unitCtx{dfg: dfg, values: map[string]ir.Value{}, blocks: map[string]ir.Block{}}
	for i, a := range args {
		ctx.values[strconv.Itoa(i)] = a
	}
	for _, label := range p.prescanBlocks() {
		ctx.blocks[label] = b.CreateBlock()
	}

	for p.cur().Type != TokenRBrace {
		if p.cur().Type == TokenIdent && p.peek().Type == TokenColon {
			label := p.advance().Literal
			p.advance() // ':'
			b.Append(ctx.blocks[label])
			continue
		}
		p.parseInstruction(ctx, b.Ins())
	}
}

func (p *parser) parseEntityBody(dfg *ir.DataFlowGraph, layout *ir.InstLayout, b *ir.EntityBuilder, args, outs []ir.Value) {
	ctx := &unitCtx{dfg: dfg, values: map[string]ir.Value{}, blocks: map[string]ir.Block{}}
	for i, a := range args {
		ctx.values[strconv.Itoa(i)] = a
	}
	for j, o := range outs {
		ctx.values[strconv.Itoa(len(args)+j)] = o
	}
	for p.cur().Type != TokenRBrace {
		p.parseInstruction(ctx, b.Ins())
	}
}

func (p *parser) parseValue(ctx *unitCtx) ir.Value {
	t := p.expect(TokenLocal)
	v, ok := ctx.values[t.Literal]
	if !ok {
		p.fail("reference to undefined value %%%s", t.Literal)
	}
	return v
}

func (p *parser) parseValueList(ctx *unitCtx) []ir.Value {
	var vs []ir.Value
	if p.cur().Type != TokenLocal {
		return vs
	}
	vs = append(vs, p.parseValue(ctx))
	for p.cur().Type == TokenComma {
		p.advance()
		vs = append(vs, p.parseValue(ctx))
	}
	return vs
}

func (p *parser) parseBlockRef(ctx *unitCtx) ir.Block {
	t := p.expect(TokenIdent)
	bb, ok := ctx.blocks[t.Literal]
	if !ok {
		p.fail("reference to undefined block %q", t.Literal)
	}
	return bb
}

func (p *parser) bindResult(ctx *unitCtx, name string, v ir.Value) {
	ctx.values[name] = v
}

var regModes = map[string]ir.RegMode{
	"low": ir.RegLow, "high": ir.RegHigh, "rise": ir.RegRise, "fall": ir.RegFall, "both": ir.RegBoth,
}

// parseInstruction parses one instruction line, dispatching on its
// opcode mnemonic (the textual counterpart of instText's type switch).
func (p *parser) parseInstruction(ctx *unitCtx, ib *ir.InstBuilder) {
	var resultName string
	hasResult := p.cur().Type == TokenLocal && p.peek().Type == TokenEquals
	if hasResult {
		resultName = p.advance().Literal
		p.advance() // '='
	}

	// "const" lexes as a keyword token; every other mnemonic is an ident.
	var op string
	if p.cur().Type == TokenConst {
		op = p.advance().Literal
	} else {
		op = p.expect(TokenIdent).Literal
	}

	switch op {
	case "const":
		ty := p.parseType()
		if ty.IsTime() {
			t := p.expect(TokenTime)
			rat := parseSITimeLiteral(t.Literal)
			var delta, epsilon uint
			for {
				if p.cur().Type == TokenDelta {
					delta = uint(p.expectUintTok(TokenDelta))
					continue
				}
				if p.cur().Type == TokenEpsilon {
					epsilon = uint(p.expectUintTok(TokenEpsilon))
					continue
				}
				break
			}
			p.bindResult(ctx, resultName, ib.ConstTime(rat, delta, epsilon))
			return
		}
		t := p.expect(TokenInt)
		val := new(big.Int)
		val.SetString(t.Literal, 10)
		p.bindResult(ctx, resultName, ib.ConstInt(ty.Width(), val))

	case "alias":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Alias(p.parseValue(ctx)))
	case "not":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Not(p.parseValue(ctx)))
	case "neg":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Neg(p.parseValue(ctx)))

	case "add", "sub", "and", "or", "xor", "smul", "sdiv", "smod", "srem",
		"umul", "udiv", "umod", "urem", "eq", "neq", "slt", "sgt", "sle",
		"sge", "ult", "ugt", "ule", "uge":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.bindResult(ctx, resultName, p.arithOp(ib, op, x, y))

	case "shl", "shr":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.expect(TokenComma)
		z := p.parseValue(ctx)
		if op == "shl" {
			p.bindResult(ctx, resultName, ib.Shl(x, y, z))
		} else {
			p.bindResult(ctx, resultName, ib.Shr(x, y, z))
		}

	case "mux":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.bindResult(ctx, resultName, ib.Mux(x, y))

	case "reg":
		p.parseType()
		init := p.parseValue(ctx)
		var inputs []ir.RegInput
		for p.cur().Type == TokenComma {
			p.advance()
			data := p.parseValue(ctx)
			modeTok := p.expect(TokenIdent)
			mode, ok := regModes[modeTok.Literal]
			if !ok {
				p.fail("unknown reg trigger mode %q", modeTok.Literal)
			}
			trigger := p.parseValue(ctx)
			inputs = append(inputs, ir.RegInput{Data: data, Mode: mode, Trigger: trigger})
		}
		p.bindResult(ctx, resultName, ib.Reg(init, inputs))

	case "array":
		p.parseType()
		if p.cur().Type == TokenInt {
			imm := p.expectInt()
			p.expect(TokenComma)
			x := p.parseValue(ctx)
			p.bindResult(ctx, resultName, ib.ArrayUniform(imm, x))
			return
		}
		vs := p.parseValueList(ctx)
		p.bindResult(ctx, resultName, ib.BuildArray(vs))

	case "struct":
		p.parseType()
		vs := p.parseValueList(ctx)
		p.bindResult(ctx, resultName, ib.BuildStruct(vs))

	case "insfield":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.expect(TokenComma)
		imm := p.expectInt()
		p.bindResult(ctx, resultName, ib.InsField(x, y, imm))

	case "insslice":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.expect(TokenComma)
		imm0 := p.expectInt()
		p.expect(TokenComma)
		imm1 := p.expectInt()
		p.bindResult(ctx, resultName, ib.InsSlice(x, y, imm0, imm1))

	case "extfield":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		imm := p.expectInt()
		p.bindResult(ctx, resultName, ib.ExtField(x, imm))

	case "extslice":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		imm0 := p.expectInt()
		p.expect(TokenComma)
		imm1 := p.expectInt()
		p.bindResult(ctx, resultName, ib.ExtSlice(x, imm0, imm1))

	case "con":
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		ib.Con(x, y)

	case "del":
		p.parseType()
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.bindResult(ctx, resultName, ib.Del(x, y))

	case "call":
		retTy := p.parseType()
		unitName := p.parseName().String()
		p.expect(TokenLParen)
		args := p.parseValueList(ctx)
		p.expect(TokenRParen)
		argTypes := make([]*hwtype.Type, len(args))
		for i, a := range args {
			argTypes[i] = ctx.dfg.ValueType(a)
		}
		unit := ctx.dfg.AddExtern(unitName, hwtype.Func(argTypes, retTy))
		p.bindResult(ctx, resultName, ib.Call(unit, args))

	case "inst":
		unitName := p.parseName().String()
		p.expect(TokenLParen)
		ins := p.parseValueList(ctx)
		p.expect(TokenRParen)
		p.expect(TokenArrow)
		p.expect(TokenLParen)
		outs := p.parseValueList(ctx)
		p.expect(TokenRParen)
		insTypes := make([]*hwtype.Type, len(ins))
		for i, v := range ins {
			insTypes[i] = ctx.dfg.ValueType(v)
		}
		outsTypes := make([]*hwtype.Type, len(outs))
		for i, v := range outs {
			outsTypes[i] = ctx.dfg.ValueType(v)
		}
		unit := ctx.dfg.AddExtern(unitName, hwtype.Entity(insTypes, outsTypes))
		ib.Inst(unit, ins, outs)

	case "sig":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Sig(p.parseValue(ctx)))
	case "prb":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Prb(p.parseValue(ctx)))

	case "drv":
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.expect(TokenComma)
		z := p.parseValue(ctx)
		ib.Drv(x, y, z)

	case "drv_cond":
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		p.expect(TokenComma)
		z := p.parseValue(ctx)
		p.expect(TokenComma)
		c := p.parseValue(ctx)
		ib.DrvCond(x, y, z, c)

	case "var":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Var(p.parseValue(ctx)))
	case "ld":
		p.parseType()
		p.bindResult(ctx, resultName, ib.Ld(p.parseValue(ctx)))
	case "st":
		x := p.parseValue(ctx)
		p.expect(TokenComma)
		y := p.parseValue(ctx)
		ib.St(x, y)

	case "halt":
		ib.Halt()

	case "ret":
		if !looksLikeTypeStart(p.cur()) {
			ib.Ret()
			return
		}
		p.parseType()
		ib.RetValue(p.parseValue(ctx))

	case "br":
		if p.cur().Type == TokenLocal {
			cond := p.parseValue(ctx)
			p.expect(TokenComma)
			bbFalse := p.parseBlockRef(ctx)
			p.expect(TokenComma)
			bbTrue := p.parseBlockRef(ctx)
			ib.BrCond(cond, bbFalse, bbTrue)
			return
		}
		ib.Br(p.parseBlockRef(ctx))

	case "wait":
		bb := p.parseBlockRef(ctx)
		var sens []ir.Value
		if p.cur().Type == TokenComma {
			p.advance()
			sens = p.parseValueList(ctx)
		}
		ib.Wait(bb, sens)

	case "wait_time":
		bb := p.parseBlockRef(ctx)
		p.expect(TokenComma)
		timeout := p.parseValue(ctx)
		var sens []ir.Value
		if p.cur().Type == TokenComma {
			p.advance()
			sens = p.parseValueList(ctx)
		}
		ib.WaitTime(bb, timeout, sens)

	default:
		p.fail("unknown opcode %q", op)
	}
}

func (p *parser) expectUintTok(tt TokenType) int64 {
	t := p.expect(tt)
	n, err := strconv.ParseInt(t.Literal, 10, 64)
	if err != nil {
		p.fail("invalid integer %q", t.Literal)
	}
	return n
}

func (p *parser) arithOp(ib *ir.InstBuilder, op string, x, y ir.Value) ir.Value {
	switch op {
	case "add":
		return ib.Add(x, y)
	case "sub":
		return ib.Sub(x, y)
	case "and":
		return ib.And(x, y)
	case "or":
		return ib.Or(x, y)
	case "xor":
		return ib.Xor(x, y)
	case "smul":
		return ib.Smul(x, y)
	case "sdiv":
		return ib.Sdiv(x, y)
	case "smod":
		return ib.Smod(x, y)
	case "srem":
		return ib.Srem(x, y)
	case "umul":
		return ib.Umul(x, y)
	case "udiv":
		return ib.Udiv(x, y)
	case "umod":
		return ib.Umod(x, y)
	case "urem":
		return ib.Urem(x, y)
	case "eq":
		return ib.Eq(x, y)
	case "neq":
		return ib.Neq(x, y)
	case "slt":
		return ib.Slt(x, y)
	case "sgt":
		return ib.Sgt(x, y)
	case "sle":
		return ib.Sle(x, y)
	case "sge":
		return ib.Sge(x, y)
	case "ult":
		return ib.Ult(x, y)
	case "ugt":
		return ib.Ugt(x, y)
	case "ule":
		return ib.Ule(x, y)
	case "uge":
		return ib.Uge(x, y)
	default:
		p.fail("unknown binary opcode %q", op)
		return ir.NoValue
	}
}

// parseSITimeLiteral parses a lexed TIME token ("10ns", "0s", "500ps")
// back into an exact rational number of seconds, the inverse of
// formatSITime.
func parseSITimeLiteral(lit string) *big.Rat {
	split := len(lit)
	for split > 0 && (lit[split-1] < '0' || lit[split-1] > '9') {
		split--
	}
	digits, suffix := lit[:split], lit[split:]
	for _, u := range siUnits {
		if u.suffix == suffix {
			n := new(big.Int)
			n.SetString(digits, 10)
			rat := new(big.Rat).SetInt(n)
			rat.Quo(rat, pow10(u.exp))
			return rat
		}
	}
	panic(&ParseError{Message: fmt.Sprintf("invalid time literal %q", lit)})
}
