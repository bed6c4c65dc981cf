package llhdmod

import (
	"runtime"
	"sync"

	"github.com/llhd-ir/llhd/pkg/ir"
)

// Pass is one optimization or analysis-driven rewrite applied to a
// single unit, reporting whether it changed anything. pkg/tcm.Run takes
// a tcm.Unit rather than an ir.Unit, so it is passed in through an
// adapter (cmd/llhd-check's tcmPass).
type Pass func(ir.Unit) bool

// RunToFixedPoint runs pass over every locally-defined unit of m,
// repeating on each unit until it stops reporting changes. Units are
// independent (each owns disjoint arenas) so they run concurrently,
// bounded to runtime.GOMAXPROCS(0) in flight at once; the type pool
// they share is read-only once built, so no further synchronization is
// needed across units (spec.md §5's scheduling model). It reports
// whether any unit changed across the whole run.
func RunToFixedPoint(m *Module, pass Pass) bool {
	units := m.Units()
	var defined []ir.Unit
	for _, id := range units {
		if !m.IsDeclaration(id) {
			defined = append(defined, m.Unit(id))
		}
	}

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	var mu sync.Mutex
	changedOverall := false

	for _, u := range defined {
		u := u
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			changed := runUnitToFixedPoint(u, pass)
			if changed {
				mu.Lock()
				changedOverall = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return changedOverall
}

func runUnitToFixedPoint(u ir.Unit, pass Pass) bool {
	changed := false
	for pass(u) {
		changed = true
	}
	return changed
}
