// Package hwtype defines LLHD's hardware type system, mirroring the
// original crate's ty.rs: a small closed algebra of type variants shared
// by reference through an intern table.
package hwtype

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies which variant of the type algebra a Type is.
type Kind int

const (
	KindVoid Kind = iota
	KindTime
	KindInt
	KindEnum
	KindPointer
	KindSignal
	KindArray
	KindStruct
	KindFunc
	KindEntity
)

// Type is an immutable, interned hardware type. Two types are equal iff
// they describe the same structure; because construction always goes
// through the intern table, equal types are also the same pointer.
type Type struct {
	kind   Kind
	width  int    // Int, Enum: bit width / variant count; Array: length
	elem   *Type  // Pointer, Signal, Array: element type
	fields []*Type // Struct: field types; Func: arg types; Entity: input types
	ret    *Type   // Func: return type
	outs   []*Type // Entity: output types
}

// Kind returns the variant tag of t.
func (t *Type) Kind() Kind { return t.kind }

// IsVoid reports whether t is the void type.
func (t *Type) IsVoid() bool { return t.kind == KindVoid }

// IsSignal reports whether t is a signal(T) type.
func (t *Type) IsSignal() bool { return t.kind == KindSignal }

// IsPointer reports whether t is a pointer(T) type.
func (t *Type) IsPointer() bool { return t.kind == KindPointer }

// IsInt reports whether t is an int(W) type.
func (t *Type) IsInt() bool { return t.kind == KindInt }

// IsTime reports whether t is the time type.
func (t *Type) IsTime() bool { return t.kind == KindTime }

// Width returns the bit width of an int(W) type, or the variant count of
// an enum(N) type. Panics otherwise.
func (t *Type) Width() int {
	if t.kind != KindInt && t.kind != KindEnum {
		panic(fmt.Sprintf("Width() called on %s", t))
	}
	return t.width
}

// Elem returns the element type of pointer/signal/array types. Panics
// otherwise.
func (t *Type) Elem() *Type {
	switch t.kind {
	case KindPointer, KindSignal, KindArray:
		return t.elem
	default:
		panic(fmt.Sprintf("Elem() called on %s", t))
	}
}

// Length returns the element count of an array(N, T) type. Panics
// otherwise.
func (t *Type) Length() int {
	if t.kind != KindArray {
		panic(fmt.Sprintf("Length() called on %s", t))
	}
	return t.width
}

// Fields returns the field types of a struct type. Panics otherwise.
func (t *Type) Fields() []*Type {
	if t.kind != KindStruct {
		panic(fmt.Sprintf("Fields() called on %s", t))
	}
	return t.fields
}

// AsFunc unwraps a func([]T) -> T type into its arguments and return
// type. Panics if t is not a function type.
func (t *Type) AsFunc() ([]*Type, *Type) {
	if t.kind != KindFunc {
		panic(fmt.Sprintf("AsFunc() called on %s", t))
	}
	return t.fields, t.ret
}

// AsEntity unwraps an entity([]T; []T) type into its input and output
// types. Panics if t is not an entity type.
func (t *Type) AsEntity() ([]*Type, []*Type) {
	if t.kind != KindEntity {
		panic(fmt.Sprintf("AsEntity() called on %s", t))
	}
	return t.fields, t.outs
}

// Equal reports whether t and u describe the same type. Interned types
// compare equal iff they are the same pointer; this remains correct even
// for types constructed without going through the intern table.
func (t *Type) Equal(u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil || t.kind != u.kind {
		return false
	}
	switch t.kind {
	case KindVoid, KindTime:
		return true
	case KindInt, KindEnum, KindArray:
		return t.width == u.width && typesEqual(t.elem, u.elem)
	case KindPointer, KindSignal:
		return typesEqual(t.elem, u.elem)
	case KindStruct:
		return typeSliceEqual(t.fields, u.fields)
	case KindFunc:
		return typeSliceEqual(t.fields, u.fields) && typesEqual(t.ret, u.ret)
	case KindEntity:
		return typeSliceEqual(t.fields, u.fields) && typeSliceEqual(t.outs, u.outs)
	}
	return false
}

func typesEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

func typeSliceEqual(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !typesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// String renders t in the textual form defined by spec.md §3/§6.
func (t *Type) String() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindTime:
		return "time"
	case KindInt:
		return fmt.Sprintf("i%d", t.width)
	case KindEnum:
		return fmt.Sprintf("n%d", t.width)
	case KindPointer:
		return t.elem.String() + "*"
	case KindSignal:
		return t.elem.String() + "$"
	case KindArray:
		return fmt.Sprintf("[%d x %s]", t.width, t.elem)
	case KindStruct:
		return "{" + joinTypes(t.fields) + "}"
	case KindFunc:
		return fmt.Sprintf("(%s) %s", joinTypes(t.fields), t.ret)
	case KindEntity:
		return fmt.Sprintf("(%s; %s)", joinTypes(t.fields), joinTypes(t.outs))
	}
	return "?"
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// intern table: canonical string form -> shared *Type. Guarded by a
// mutex since the type pool is the one structure shared across units
// (spec.md §5).
var (
	internMu sync.Mutex
	intern   = map[string]*Type{}
)

func internType(t *Type) *Type {
	key := t.String()
	internMu.Lock()
	defer internMu.Unlock()
	if existing, ok := intern[key]; ok {
		return existing
	}
	intern[key] = t
	return t
}

// Void returns the void type.
func Void() *Type { return internType(&Type{kind: KindVoid}) }

// Time returns the time type.
func Time() *Type { return internType(&Type{kind: KindTime}) }

// Int returns the int(width) type.
func Int(width int) *Type {
	if width <= 0 {
		panic("int type must have positive width")
	}
	return internType(&Type{kind: KindInt, width: width})
}

// Enum returns the enum(n) type.
func Enum(n int) *Type {
	if n <= 0 {
		panic("enum type must have a positive variant count")
	}
	return internType(&Type{kind: KindEnum, width: n})
}

// Pointer returns the pointer(elem) type.
func Pointer(elem *Type) *Type {
	return internType(&Type{kind: KindPointer, elem: elem})
}

// Signal returns the signal(elem) type.
func Signal(elem *Type) *Type {
	return internType(&Type{kind: KindSignal, elem: elem})
}

// Array returns the array(length, elem) type.
func Array(length int, elem *Type) *Type {
	if length <= 0 {
		panic("array type must have positive length")
	}
	return internType(&Type{kind: KindArray, width: length, elem: elem})
}

// Struct returns the struct(fields) type.
func Struct(fields []*Type) *Type {
	return internType(&Type{kind: KindStruct, fields: append([]*Type(nil), fields...)})
}

// Func returns the func(args) -> ret type.
func Func(args []*Type, ret *Type) *Type {
	return internType(&Type{kind: KindFunc, fields: append([]*Type(nil), args...), ret: ret})
}

// Entity returns the entity(ins; outs) type.
func Entity(ins, outs []*Type) *Type {
	return internType(&Type{
		kind:   KindEntity,
		fields: append([]*Type(nil), ins...),
		outs:   append([]*Type(nil), outs...),
	})
}
