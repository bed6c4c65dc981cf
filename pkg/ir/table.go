// Package ir implements the LLHD data-flow graph, layout, unit and
// builder machinery (spec.md C2–C5, C7): arena-backed instructions,
// values, blocks and their ordering.
package ir

import "golang.org/x/exp/constraints"

// id is the constraint satisfied by every arena-local id type (Inst,
// Value, Block, Arg, ExtUnit, ModUnit): small unsigned integers, one
// space per kind, never reused while live (spec.md §3).
type id interface {
	constraints.Unsigned
}

// PrimaryTable allocates fresh ids for inserted data and supports
// lookup, in-place update and removal. Removal retires the id: it is
// never reused, so side tables that still reference it simply see it
// reported as no longer live (spec.md §4.1).
type PrimaryTable[K id, V any] struct {
	data []V
	live []bool
	free []K
}

// Add inserts data, returning its freshly allocated id.
func (t *PrimaryTable[K, V]) Add(data V) K {
	if n := len(t.free); n > 0 {
		k := t.free[n-1]
		t.free = t.free[:n-1]
		t.data[k] = data
		t.live[k] = true
		return k
	}
	k := K(len(t.data))
	t.data = append(t.data, data)
	t.live = append(t.live, true)
	return k
}

// Get returns the data stored at k. Panics if k was never allocated.
func (t *PrimaryTable[K, V]) Get(k K) V {
	return t.data[k]
}

// Set overwrites the data stored at k in place.
func (t *PrimaryTable[K, V]) Set(k K, data V) {
	t.data[k] = data
}

// IsLive reports whether k refers to data that has not been removed.
func (t *PrimaryTable[K, V]) IsLive(k K) bool {
	return int(k) < len(t.live) && t.live[k]
}

// Remove retires k: its data is cleared and IsLive reports false for it
// from then on. k is not put on the free list, so Add never hands it
// out again.
func (t *PrimaryTable[K, V]) Remove(k K) {
	if !t.IsLive(k) {
		return
	}
	var zero V
	t.data[k] = zero
	t.live[k] = false
}

// Keys returns all live ids in insertion order.
func (t *PrimaryTable[K, V]) Keys() []K {
	keys := make([]K, 0, len(t.data))
	for i, alive := range t.live {
		if alive {
			keys = append(keys, K(i))
		}
	}
	return keys
}

// Len returns the number of live entries.
func (t *PrimaryTable[K, V]) Len() int {
	n := 0
	for _, alive := range t.live {
		if alive {
			n++
		}
	}
	return n
}

// SecondaryTable maps ids of a primary table to auxiliary data. Reads of
// an unset key return the zero value, matching the "optional name"/
// "optional result" side tables of spec.md §4.2.
type SecondaryTable[K id, V any] struct {
	data []V
	set  []bool
}

// Get returns the value stored for k and whether it was ever set.
func (t *SecondaryTable[K, V]) Get(k K) (V, bool) {
	var zero V
	if int(k) >= len(t.data) || !t.set[k] {
		return zero, false
	}
	return t.data[k], true
}

// Set stores data for k, growing the table as needed.
func (t *SecondaryTable[K, V]) Set(k K, data V) {
	t.grow(int(k) + 1)
	t.data[k] = data
	t.set[k] = true
}

// Clear removes any value stored for k.
func (t *SecondaryTable[K, V]) Clear(k K) {
	if int(k) < len(t.data) {
		var zero V
		t.data[k] = zero
		t.set[k] = false
	}
}

func (t *SecondaryTable[K, V]) grow(n int) {
	for len(t.data) < n {
		var zero V
		t.data = append(t.data, zero)
		t.set = append(t.set, false)
	}
}

// OrderedSet is a small ordered set over an id type, used throughout
// pkg/ir and pkg/analysis (predecessor sets, TRG block/instruction
// sets).
type OrderedSet[T constraints.Ordered] map[T]struct{}

// NewOrderedSet creates an empty set.
func NewOrderedSet[T constraints.Ordered]() OrderedSet[T] {
	return make(OrderedSet[T])
}

// Add inserts v into the set.
func (s OrderedSet[T]) Add(v T) { s[v] = struct{}{} }

// Contains reports whether v is in the set.
func (s OrderedSet[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Remove deletes v from the set.
func (s OrderedSet[T]) Remove(v T) { delete(s, v) }

// Len returns the number of elements in the set.
func (s OrderedSet[T]) Len() int { return len(s) }

// Sorted returns the set's elements in ascending order.
func (s OrderedSet[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sortSlice(out)
	return out
}

func sortSlice[T constraints.Ordered](s []T) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
