package ir

import "github.com/llhd-ir/llhd/pkg/hwtype"

// Signature describes a unit's external interface: its ordered input
// types and, for entities, its ordered output types. Functions and
// processes instead carry a single return type (void for processes,
// which communicate only through signals).
type Signature struct {
	Ins  []*hwtype.Type
	Outs []*hwtype.Type // entities only
	Ret  *hwtype.Type   // functions/processes only
}

// NewFunctionSig returns the signature of a function taking args and
// returning ret.
func NewFunctionSig(args []*hwtype.Type, ret *hwtype.Type) Signature {
	return Signature{Ins: append([]*hwtype.Type(nil), args...), Ret: ret}
}

// NewProcessSig returns the signature of a process with the given
// signal arguments; processes never return a value.
func NewProcessSig(args []*hwtype.Type) Signature {
	return Signature{Ins: append([]*hwtype.Type(nil), args...), Ret: hwtype.Void()}
}

// NewEntitySig returns the signature of an entity with the given input
// and output signals.
func NewEntitySig(ins, outs []*hwtype.Type) Signature {
	return Signature{
		Ins:  append([]*hwtype.Type(nil), ins...),
		Outs: append([]*hwtype.Type(nil), outs...),
	}
}

// Type renders sig as the hwtype.Type used to type-check external
// references to a unit of the given kind.
func (sig Signature) Type(kind UnitKind) *hwtype.Type {
	if kind == UnitEntity {
		return hwtype.Entity(sig.Ins, sig.Outs)
	}
	return hwtype.Func(sig.Ins, sig.Ret)
}
