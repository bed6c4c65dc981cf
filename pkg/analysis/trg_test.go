package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/llhd-ir/llhd/pkg/hwtype"
	"github.com/llhd-ir/llhd/pkg/ir"
)

// buildWaitLoop builds a process with two temporal regions: an entry
// block that waits once before entering a self-looping block that
// probes a signal and waits again.
func buildWaitLoop(t *testing.T) (*ir.Process, ir.Block, ir.Block) {
	t.Helper()
	p := ir.NewProcess("loop", []*hwtype.Type{hwtype.Signal(hwtype.Int(1))})
	b := ir.NewFunctionBuilder(p)

	entry := b.CreateBlock()
	loop := b.CreateBlock()

	b.Append(entry)
	b.Ins().Wait(loop, []ir.Value{p.Args()[0]})

	b.Append(loop)
	b.Ins().Prb(p.Args()[0])
	b.Ins().Wait(loop, []ir.Value{p.Args()[0]})

	return p, entry, loop
}

func TestTemporalRegionGraphSplitsOnWait(t *testing.T) {
	p, entry, loop := buildWaitLoop(t)
	trg := NewTemporalRegionGraph(p.DFG(), p.Layout())

	if len(trg.Regions) != 2 {
		t.Fatalf("expected exactly 2 temporal regions, got %d", len(trg.Regions))
	}

	entryTR := trg.RegionOf(entry)
	loopTR := trg.RegionOf(loop)
	if entryTR == loopTR {
		t.Fatalf("expected entry and loop to be in different temporal regions")
	}

	entryData := trg.Region(entryTR)
	if !entryData.Entry {
		t.Fatalf("expected the region containing the entry block to be marked Entry")
	}
	if !entryData.IsHead(entry) || !entryData.IsTail(entry) {
		t.Fatalf("expected the single-block entry region to be both head and tail")
	}
	if diff := cmp.Diff([]ir.Block{entry}, entryData.Blocks.Sorted()); diff != "" {
		t.Fatalf("entry region block set mismatch (-want +got):\n%s", diff)
	}

	loopData := trg.Region(loopTR)
	if loopData.Entry {
		t.Fatalf("did not expect the loop region to be marked Entry")
	}
	if !loopData.IsHead(loop) || !loopData.IsTail(loop) {
		t.Fatalf("expected the single-block loop region to be both head and tail")
	}
	// The loop block reaches itself via its own wait, so its head is not
	// tight (reachable from within its own region).
	if loopData.HeadTight {
		t.Fatalf("expected the self-looping region's head not to be tight")
	}
}
