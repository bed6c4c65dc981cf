package ir

import (
	"fmt"
	"strings"

	"github.com/llhd-ir/llhd/pkg/hwtype"
)

// Process is a block-structured unit that may suspend itself on
// Wait/WaitTime and drive signals; its control flow is the subject of
// pkg/tcm's temporal code motion pass (spec.md §2, §4.8).
type Process struct {
	baseUnit
	layout *FunctionLayout
}

// NewProcess creates an empty process named name with the given
// (signal-typed) argument types.
func NewProcess(name string, args []*hwtype.Type) *Process {
	return &Process{
		baseUnit: newBaseUnit(name, UnitProcess, NewProcessSig(args)),
		layout:   NewFunctionLayout(),
	}
}

// Layout returns the process's block/instruction ordering.
func (p *Process) Layout() *FunctionLayout { return p.layout }

func (p *Process) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "proc %s (%d args)", p.name, len(p.sig.Ins))
	return b.String()
}
