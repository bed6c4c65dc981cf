package ir

import "testing"

func TestFunctionLayoutOrdering(t *testing.T) {
	l := NewFunctionLayout()
	b0 := l.AppendBlock()
	b1 := l.AppendBlock()

	if l.Entry() != b0 {
		t.Fatalf("Entry() = %v, want %v", l.Entry(), b0)
	}
	if got := l.Blocks(); len(got) != 2 || got[0] != b0 || got[1] != b1 {
		t.Fatalf("Blocks() = %v", got)
	}

	i0 := Inst(100)
	i1 := Inst(101)
	i2 := Inst(102)
	l.AppendInst(i0, b0)
	l.AppendInst(i1, b0)
	l.PrependInst(i2, b0)

	got := l.Insts(b0)
	want := []Inst{i2, i0, i1}
	if len(got) != len(want) {
		t.Fatalf("Insts(b0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Insts(b0) = %v, want %v", got, want)
		}
	}
	if l.Terminator(b0) != i1 {
		t.Fatalf("Terminator(b0) = %v, want %v", l.Terminator(b0), i1)
	}
	if l.InstBlock(i0) != b0 {
		t.Fatalf("InstBlock(i0) = %v, want %v", l.InstBlock(i0), b0)
	}

	l.RemoveInst(i0)
	got = l.Insts(b0)
	want = []Inst{i2, i1}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("after remove: Insts(b0) = %v, want %v", got, want)
	}
}

func TestFunctionLayoutInsertBeforeAfter(t *testing.T) {
	l := NewFunctionLayout()
	b0 := l.AppendBlock()
	i0, i1, i2 := Inst(1), Inst(2), Inst(3)
	l.AppendInst(i0, b0)
	l.AppendInst(i2, b0)
	l.InsertInstBefore(i1, i2)

	got := l.Insts(b0)
	want := []Inst{i0, i1, i2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Insts(b0) = %v, want %v", got, want)
		}
	}

	i3 := Inst(4)
	l.InsertInstAfter(i3, i0)
	got = l.Insts(b0)
	want = []Inst{i0, i3, i1, i2}
	if len(got) != len(want) {
		t.Fatalf("Insts(b0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Insts(b0) = %v, want %v", got, want)
		}
	}
}

func TestInstLayoutOrdering(t *testing.T) {
	l := NewInstLayout()
	i0, i1, i2 := Inst(1), Inst(2), Inst(3)
	l.AppendInst(i0)
	l.AppendInst(i1)
	l.PrependInst(i2)

	got := l.Insts()
	want := []Inst{i2, i0, i1}
	if len(got) != len(want) {
		t.Fatalf("Insts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Insts() = %v, want %v", got, want)
		}
	}

	l.RemoveInst(i0)
	got = l.Insts()
	want = []Inst{i2, i1}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("after remove: Insts() = %v, want %v", got, want)
	}
}
