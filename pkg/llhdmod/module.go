// Package llhdmod implements the LLHD module: a collection of units plus
// external declarations, and the linker that resolves references between
// them (spec.md §4.5).
package llhdmod

import (
	"fmt"

	"github.com/llhd-ir/llhd/pkg/ir"
)

// ModUnit identifies a unit (local definition or external declaration)
// within a Module.
type ModUnit uint32

// NameKind distinguishes how a unit's name was introduced.
type NameKind int

const (
	// NameGlobal units are visible to linking from other modules
	// (`@name` in the textual form).
	NameGlobal NameKind = iota
	// NameLocal units are visible only within their own module
	// (`%name`).
	NameLocal
	// NameAnonymous units have no source name and are referenced only
	// by ModUnit id (UnitName.String prints them as `%<anonymous>`).
	NameAnonymous
)

// UnitName is a unit's (kind, text) name pair, used both for display
// and for link resolution (only NameGlobal names are link targets).
type UnitName struct {
	Kind NameKind
	Text string
}

func (n UnitName) String() string {
	switch n.Kind {
	case NameGlobal:
		return "@" + n.Text
	case NameLocal:
		return "%" + n.Text
	default:
		return "%<anonymous>"
	}
}

// unitEntry is one slot of the module: either a concrete local
// definition or an external declaration awaiting linking.
type unitEntry struct {
	name     UnitName
	declOnly bool
	declKind ir.UnitKind
	declSig  Signature
	unit     ir.Unit
}

// Signature mirrors ir.Signature for declarations that have no backing
// DataFlowGraph yet (an external declared but not locally defined).
type Signature = ir.Signature

// Module is a named collection of functions, processes and entities,
// plus declarations of units assumed to be defined elsewhere.
type Module struct {
	units PrimaryUnitTable
}

// PrimaryUnitTable is the arena backing a Module's units; its entries
// are reached only through Module's methods.
type PrimaryUnitTable struct {
	entries []unitEntry
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{}
}

// Declare registers an external declaration of name/sig and returns its
// id. Declarations participate in Link() as resolution targets and
// (for local units referencing them) resolution candidates.
func (m *Module) Declare(name UnitName, kind ir.UnitKind, sig Signature) ModUnit {
	id := ModUnit(len(m.units.entries))
	m.units.entries = append(m.units.entries, unitEntry{name: name, declOnly: true, declKind: kind, declSig: sig})
	return id
}

// AddUnit registers a locally-defined unit under name and returns its
// id.
func (m *Module) AddUnit(name UnitName, u ir.Unit) ModUnit {
	id := ModUnit(len(m.units.entries))
	m.units.entries = append(m.units.entries, unitEntry{name: name, unit: u})
	return id
}

// Units returns every unit id in the module, in registration order.
func (m *Module) Units() []ModUnit {
	out := make([]ModUnit, len(m.units.entries))
	for i := range out {
		out[i] = ModUnit(i)
	}
	return out
}

// Name returns the declared name of u.
func (m *Module) Name(u ModUnit) UnitName { return m.units.entries[u].name }

// IsDeclaration reports whether u is an external declaration with no
// local definition.
func (m *Module) IsDeclaration(u ModUnit) bool { return m.units.entries[u].declOnly }

// Signature returns the signature of u, whether it is a local
// definition or a bare declaration.
func (m *Module) Signature(u ModUnit) Signature {
	e := m.units.entries[u]
	if e.declOnly {
		return e.declSig
	}
	return e.unit.Sig()
}

// Kind returns the unit kind of u.
func (m *Module) Kind(u ModUnit) ir.UnitKind {
	e := m.units.entries[u]
	if e.declOnly {
		return e.declKind
	}
	return e.unit.Kind()
}

// GetFunction returns the *ir.Function backing u, or nil if u is not a
// locally-defined function.
func (m *Module) GetFunction(u ModUnit) *ir.Function {
	f, _ := m.units.entries[u].unit.(*ir.Function)
	return f
}

// GetProcess returns the *ir.Process backing u, or nil if u is not a
// locally-defined process.
func (m *Module) GetProcess(u ModUnit) *ir.Process {
	p, _ := m.units.entries[u].unit.(*ir.Process)
	return p
}

// GetEntity returns the *ir.Entity backing u, or nil if u is not a
// locally-defined entity.
func (m *Module) GetEntity(u ModUnit) *ir.Entity {
	e, _ := m.units.entries[u].unit.(*ir.Entity)
	return e
}

// Unit returns the backing ir.Unit of u, or nil if u is a bare
// declaration.
func (m *Module) Unit(u ModUnit) ir.Unit { return m.units.entries[u].unit }

// FindGlobal looks up a unit by its global (`@name`) name, returning
// its id and whether exactly one such unit was found — callers that
// need "ambiguous" vs. "missing" detail should use findGlobalCandidates
// instead (used internally by Link).
func (m *Module) FindGlobal(name string) (ModUnit, bool) {
	cands := m.findGlobalCandidates(name)
	if len(cands) != 1 {
		return 0, false
	}
	return cands[0], true
}

func (m *Module) findGlobalCandidates(name string) []ModUnit {
	var out []ModUnit
	for i, e := range m.units.entries {
		if e.name.Kind == NameGlobal && e.name.Text == name {
			out = append(out, ModUnit(i))
		}
	}
	return out
}

func (m *Module) String() string {
	return fmt.Sprintf("module{%d units}", len(m.units.entries))
}
