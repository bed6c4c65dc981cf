package ir

// blockNode is one entry of a FunctionLayout's intrusive block list.
type blockNode struct {
	prev, next Block
	firstInst  Inst
	lastInst   Inst
}

// instNode is one entry of an intrusive instruction list, shared by
// FunctionLayout (scoped per block) and InstLayout (scoped per unit).
type instNode struct {
	prev, next Inst
	block      Block // FunctionLayout only; unused by InstLayout
}

// FunctionLayout orders the blocks and instructions of a function or
// process unit as two nested intrusive doubly-linked lists (spec.md
// §4.3): O(1) append/insert/remove, stable under RemoveInst the way a
// slice-based order would not be. FunctionLayout allocates the block
// ids; instruction data lives in DataFlowGraph, and FunctionLayout only
// records the instructions' order.
type FunctionLayout struct {
	blocks     PrimaryTable[Block, blockNode]
	insts      SecondaryTable[Inst, instNode]
	firstBlock Block
	lastBlock  Block
}

// NewFunctionLayout returns an empty layout.
func NewFunctionLayout() *FunctionLayout {
	return &FunctionLayout{firstBlock: NoBlock, lastBlock: NoBlock}
}

// AppendBlock creates a new block at the end of the unit and returns
// its id.
func (l *FunctionLayout) AppendBlock() Block {
	b := l.blocks.Add(blockNode{prev: l.lastBlock, next: NoBlock, firstInst: NoInst, lastInst: NoInst})
	if l.lastBlock != NoBlock {
		n := l.blocks.Get(l.lastBlock)
		n.next = b
		l.blocks.Set(l.lastBlock, n)
	} else {
		l.firstBlock = b
	}
	l.lastBlock = b
	return b
}

// Entry returns the unit's first block, or NoBlock if it has none.
func (l *FunctionLayout) Entry() Block { return l.firstBlock }

// Blocks returns every block id in layout order.
func (l *FunctionLayout) Blocks() []Block {
	var out []Block
	for b := l.firstBlock; b != NoBlock; b = l.blocks.Get(b).next {
		out = append(out, b)
	}
	return out
}

// NextBlock returns the block following b, or NoBlock if b is last.
func (l *FunctionLayout) NextBlock(b Block) Block { return l.blocks.Get(b).next }

// PrevBlock returns the block preceding b, or NoBlock if b is first.
func (l *FunctionLayout) PrevBlock(b Block) Block { return l.blocks.Get(b).prev }

// AppendInst places inst at the end of block b.
func (l *FunctionLayout) AppendInst(inst Inst, b Block) {
	bn := l.blocks.Get(b)
	node := instNode{prev: bn.lastInst, next: NoInst, block: b}
	if bn.lastInst != NoInst {
		prevNode, _ := l.insts.Get(bn.lastInst)
		prevNode.next = inst
		l.insts.Set(bn.lastInst, prevNode)
	} else {
		bn.firstInst = inst
	}
	bn.lastInst = inst
	l.blocks.Set(b, bn)
	l.insts.Set(inst, node)
}

// PrependInst places inst at the start of block b.
func (l *FunctionLayout) PrependInst(inst Inst, b Block) {
	bn := l.blocks.Get(b)
	node := instNode{prev: NoInst, next: bn.firstInst, block: b}
	if bn.firstInst != NoInst {
		nextNode, _ := l.insts.Get(bn.firstInst)
		nextNode.prev = inst
		l.insts.Set(bn.firstInst, nextNode)
	} else {
		bn.lastInst = inst
	}
	bn.firstInst = inst
	l.blocks.Set(b, bn)
	l.insts.Set(inst, node)
}

// InsertInstBefore places inst immediately before ref in ref's block.
func (l *FunctionLayout) InsertInstBefore(inst, ref Inst) {
	refNode, _ := l.insts.Get(ref)
	b := refNode.block
	prev := refNode.prev
	node := instNode{prev: prev, next: ref, block: b}
	if prev != NoInst {
		prevNode, _ := l.insts.Get(prev)
		prevNode.next = inst
		l.insts.Set(prev, prevNode)
	} else {
		bn := l.blocks.Get(b)
		bn.firstInst = inst
		l.blocks.Set(b, bn)
	}
	refNode.prev = inst
	l.insts.Set(ref, refNode)
	l.insts.Set(inst, node)
}

// InsertInstAfter places inst immediately after ref in ref's block.
func (l *FunctionLayout) InsertInstAfter(inst, ref Inst) {
	refNode, _ := l.insts.Get(ref)
	b := refNode.block
	next := refNode.next
	node := instNode{prev: ref, next: next, block: b}
	if next != NoInst {
		nextNode, _ := l.insts.Get(next)
		nextNode.prev = inst
		l.insts.Set(next, nextNode)
	} else {
		bn := l.blocks.Get(b)
		bn.lastInst = inst
		l.blocks.Set(b, bn)
	}
	refNode.next = inst
	l.insts.Set(ref, refNode)
	l.insts.Set(inst, node)
}

// RemoveInst unlinks inst from its block's instruction order. It does
// not remove inst's data from the DataFlowGraph; callers do both
// together (spec.md §4.3 keeps order and data separate).
func (l *FunctionLayout) RemoveInst(inst Inst) {
	node, ok := l.insts.Get(inst)
	if !ok {
		return
	}
	if node.prev != NoInst {
		prevNode, _ := l.insts.Get(node.prev)
		prevNode.next = node.next
		l.insts.Set(node.prev, prevNode)
	} else {
		bn := l.blocks.Get(node.block)
		bn.firstInst = node.next
		l.blocks.Set(node.block, bn)
	}
	if node.next != NoInst {
		nextNode, _ := l.insts.Get(node.next)
		nextNode.prev = node.prev
		l.insts.Set(node.next, nextNode)
	} else {
		bn := l.blocks.Get(node.block)
		bn.lastInst = node.prev
		l.blocks.Set(node.block, bn)
	}
	l.insts.Clear(inst)
}

// InstBlock returns the block inst currently belongs to.
func (l *FunctionLayout) InstBlock(inst Inst) Block {
	node, ok := l.insts.Get(inst)
	if !ok {
		return NoBlock
	}
	return node.block
}

// Insts returns the instructions of block b in layout order.
func (l *FunctionLayout) Insts(b Block) []Inst {
	var out []Inst
	bn := l.blocks.Get(b)
	for i := bn.firstInst; i != NoInst; {
		out = append(out, i)
		node, _ := l.insts.Get(i)
		i = node.next
	}
	return out
}

// Terminator returns the last instruction of block b (its terminator,
// once the unit is well-formed), or NoInst if b is empty.
func (l *FunctionLayout) Terminator(b Block) Inst {
	return l.blocks.Get(b).lastInst
}

// AllInsts returns every instruction in the unit, in block then
// intra-block order — the canonical iteration order for the verifier,
// printer and analyses.
func (l *FunctionLayout) AllInsts() []Inst {
	var out []Inst
	for _, b := range l.Blocks() {
		out = append(out, l.Insts(b)...)
	}
	return out
}

// InstLayout orders the instructions of an entity as a single
// intrusive list (spec.md §4.3): entities have no blocks, so there is
// exactly one list instead of FunctionLayout's nested ones.
type InstLayout struct {
	insts      SecondaryTable[Inst, instNode]
	firstInst  Inst
	lastInst   Inst
}

// NewInstLayout returns an empty entity instruction layout.
func NewInstLayout() *InstLayout {
	return &InstLayout{firstInst: NoInst, lastInst: NoInst}
}

// AppendInst places inst at the end of the entity.
func (l *InstLayout) AppendInst(inst Inst) {
	node := instNode{prev: l.lastInst, next: NoInst}
	if l.lastInst != NoInst {
		prevNode, _ := l.insts.Get(l.lastInst)
		prevNode.next = inst
		l.insts.Set(l.lastInst, prevNode)
	} else {
		l.firstInst = inst
	}
	l.lastInst = inst
	l.insts.Set(inst, node)
}

// PrependInst places inst at the start of the entity.
func (l *InstLayout) PrependInst(inst Inst) {
	node := instNode{prev: NoInst, next: l.firstInst}
	if l.firstInst != NoInst {
		nextNode, _ := l.insts.Get(l.firstInst)
		nextNode.prev = inst
		l.insts.Set(l.firstInst, nextNode)
	} else {
		l.lastInst = inst
	}
	l.firstInst = inst
	l.insts.Set(inst, node)
}

// InsertInstBefore places inst immediately before ref.
func (l *InstLayout) InsertInstBefore(inst, ref Inst) {
	refNode, _ := l.insts.Get(ref)
	prev := refNode.prev
	node := instNode{prev: prev, next: ref}
	if prev != NoInst {
		prevNode, _ := l.insts.Get(prev)
		prevNode.next = inst
		l.insts.Set(prev, prevNode)
	} else {
		l.firstInst = inst
	}
	refNode.prev = inst
	l.insts.Set(ref, refNode)
	l.insts.Set(inst, node)
}

// InsertInstAfter places inst immediately after ref.
func (l *InstLayout) InsertInstAfter(inst, ref Inst) {
	refNode, _ := l.insts.Get(ref)
	next := refNode.next
	node := instNode{prev: ref, next: next}
	if next != NoInst {
		nextNode, _ := l.insts.Get(next)
		nextNode.prev = inst
		l.insts.Set(next, nextNode)
	} else {
		l.lastInst = inst
	}
	refNode.next = inst
	l.insts.Set(ref, refNode)
	l.insts.Set(inst, node)
}

// RemoveInst unlinks inst from the entity's instruction order.
func (l *InstLayout) RemoveInst(inst Inst) {
	node, ok := l.insts.Get(inst)
	if !ok {
		return
	}
	if node.prev != NoInst {
		prevNode, _ := l.insts.Get(node.prev)
		prevNode.next = node.next
		l.insts.Set(node.prev, prevNode)
	} else {
		l.firstInst = node.next
	}
	if node.next != NoInst {
		nextNode, _ := l.insts.Get(node.next)
		nextNode.prev = node.prev
		l.insts.Set(node.next, nextNode)
	} else {
		l.lastInst = node.prev
	}
	l.insts.Clear(inst)
}

// Insts returns every instruction of the entity in layout order.
func (l *InstLayout) Insts() []Inst {
	var out []Inst
	for i := l.firstInst; i != NoInst; {
		out = append(out, i)
		node, _ := l.insts.Get(i)
		i = node.next
	}
	return out
}
