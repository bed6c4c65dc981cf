package hwtype

import "testing"

func TestStringRoundTrip(t *testing.T) {
	cases := []*Type{
		Void(),
		Time(),
		Int(32),
		Enum(3),
		Pointer(Int(8)),
		Signal(Int(8)),
		Array(4, Int(8)),
		Struct([]*Type{Int(8), Int(32)}),
		Func([]*Type{Int(32)}, Int(3)),
		Entity([]*Type{Signal(Int(42))}, []*Type{Signal(Int(9))}),
	}
	for _, want := range cases {
		s := want.String()
		got, rest, err := ParseType(s)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", s, err)
		}
		if rest != "" {
			t.Fatalf("ParseType(%q): leftover %q", s, rest)
		}
		if !got.Equal(want) {
			t.Errorf("ParseType(%q) = %s, want %s", s, got, want)
		}
	}
}

func TestIntern(t *testing.T) {
	a := Int(8)
	b := Int(8)
	if a != b {
		t.Errorf("Int(8) not interned: %p != %p", a, b)
	}
	c := Pointer(Int(8))
	d := Pointer(Int(8))
	if c != d {
		t.Errorf("Pointer(Int(8)) not interned")
	}
}

func TestEqual(t *testing.T) {
	if !Struct([]*Type{Int(8)}).Equal(Struct([]*Type{Int(8)})) {
		t.Error("structurally equal struct types should compare equal")
	}
	if Int(8).Equal(Int(9)) {
		t.Error("different widths should not compare equal")
	}
	if Signal(Int(8)).Equal(Pointer(Int(8))) {
		t.Error("different kinds should not compare equal")
	}
}

func TestAsFuncAsEntity(t *testing.T) {
	ft := Func([]*Type{Int(32)}, Int(3))
	args, ret := ft.AsFunc()
	if len(args) != 1 || !args[0].Equal(Int(32)) || !ret.Equal(Int(3)) {
		t.Errorf("AsFunc mismatch: %v -> %v", args, ret)
	}
	et := Entity([]*Type{Int(1)}, []*Type{Int(2)})
	ins, outs := et.AsEntity()
	if len(ins) != 1 || len(outs) != 1 {
		t.Errorf("AsEntity mismatch: %v; %v", ins, outs)
	}
}
