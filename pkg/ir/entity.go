package ir

import (
	"fmt"
	"strings"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

// Entity is a netlist-style unit: a flat, unordered set of concurrent
// signal assignments with no control flow and no Ret/Wait (spec.md
// §2). Its instruction order exists only for deterministic output,
// never for control flow.
type Entity struct {
	baseUnit
	layout *InstLayout
	outs   []Value
}

// NewEntity creates an empty entity named name with the given input
// and output signal types.
func NewEntity(name string, ins, outs []*hwtype.Type) *Entity {
	e := &Entity{
		baseUnit: newBaseUnit(name, UnitEntity, NewEntitySig(ins, outs)),
		layout:   NewInstLayout(),
	}
	for _, ty := range outs {
		e.outs = append(e.outs, e.dfg.AddOut(ty))
	}
	return e
}

// Layout returns the entity's instruction ordering.
func (e *Entity) Layout() *InstLayout { return e.layout }

// Outs returns the entity's output signal values.
func (e *Entity) Outs() []Value { return e.outs }

func (e *Entity) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entity %s (%d ins; %d outs)", e.name, len(e.sig.Ins), len(e.sig.Outs))
	return b.String()
}
