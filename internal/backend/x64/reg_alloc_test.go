package x64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Annomatg/dynarmic/internal/arm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
	"github.com/Annomatg/dynarmic/internal/ir"
	"github.com/Annomatg/dynarmic/internal/platform"
)

func newTestAlloc(t *testing.T) (*RegAlloc, *ir.Block, *recordingAssembler) {
	t.Helper()
	b := ir.NewBlock(arm.LocationDescriptor{TFlag: true})
	rec := &recordingAssembler{}
	code := NewBlockOfCode(rec, platform.FakeCpuFeatureFlags{})
	return NewRegAlloc(b, code), b, rec
}

func TestUseScratchXmmTakesOverOnLastUse(t *testing.T) {
	b := ir.NewBlock(arm.LocationDescriptor{TFlag: true})
	v := b.Append(ir.OpGetVector, ir.Imm32(0))
	neg := b.Append(ir.OpFPVectorNeg32, v)
	b.Append(ir.OpSetVector, ir.Imm32(0), neg)

	rec := &recordingAssembler{}
	code := NewBlockOfCode(rec, platform.FakeCpuFeatureFlags{})
	ra := NewRegAlloc(b, code)

	ra.DefineValue(0, amd64.RegX5)
	got := ra.UseScratchXmm(Argument{Value: v})
	require.Equal(t, amd64.RegX5, got, "a dying value's register is handed over, not copied")
	require.Empty(t, rec.near, "no copy emitted")
}

func TestUseScratchXmmCopiesWhenValueStaysLive(t *testing.T) {
	b := ir.NewBlock(arm.LocationDescriptor{TFlag: true})
	v := b.Append(ir.OpGetVector, ir.Imm32(0))
	a := b.Append(ir.OpFPVectorNeg32, v)
	bb := b.Append(ir.OpFPVectorAbs32, v)
	b.Append(ir.OpSetVector, ir.Imm32(0), a)
	b.Append(ir.OpSetVector, ir.Imm32(1), bb)

	rec := &recordingAssembler{}
	code := NewBlockOfCode(rec, platform.FakeCpuFeatureFlags{})
	ra := NewRegAlloc(b, code)

	ra.DefineValue(0, amd64.RegX5)
	got := ra.UseScratchXmm(Argument{Value: v})
	require.NotEqual(t, amd64.RegX5, got)
	require.Len(t, rec.near, 1)
	require.Contains(t, rec.near[0], "MOVAPS")
}

func TestScratchRegistersAreDistinct(t *testing.T) {
	ra, _, _ := newTestAlloc(t)
	seen := map[interface{}]bool{}
	for i := 0; i < 4; i++ {
		r := ra.ScratchXmm()
		require.False(t, seen[r])
		seen[r] = true
	}
	g1, g2 := ra.ScratchGpr(), ra.ScratchGpr()
	require.NotEqual(t, g1, g2)
}

func TestEndOfAllocScopeRecycles(t *testing.T) {
	ra, _, _ := newTestAlloc(t)
	// Drain the whole bank, release it, and drain it again: nothing leaks.
	for round := 0; round < 2; round++ {
		for i := 0; i < 16; i++ {
			ra.ScratchXmm()
		}
		require.Panics(t, func() { ra.ScratchXmm() })
		ra.EndOfAllocScope()
	}
}

func TestUseBeforeDefinitionPanics(t *testing.T) {
	ra, b, _ := newTestAlloc(t)
	v := b.Append(ir.OpGetVector, ir.Imm32(0))
	b.Append(ir.OpSetVector, ir.Imm32(0), v)
	require.Panics(t, func() { ra.UseXmm(Argument{Value: v}) })
}

func TestHostCallRejectsLiveValues(t *testing.T) {
	ra, b, _ := newTestAlloc(t)
	v := b.Append(ir.OpGetVector, ir.Imm32(0))
	b.Append(ir.OpSetVector, ir.Imm32(0), v)
	ra.DefineValue(0, amd64.RegX1)
	require.Panics(t, func() { ra.HostCall() })
}

func TestImmediateVectorOperandPanics(t *testing.T) {
	ra, _, _ := newTestAlloc(t)
	require.Panics(t, func() { ra.UseXmm(Argument{Value: ir.Imm32(1)}) })
}
