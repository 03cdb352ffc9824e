package x64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Annomatg/dynarmic/internal/asm/amd64"
	"github.com/Annomatg/dynarmic/internal/platform"
)

func TestMConstDeduplicatesAndAligns(t *testing.T) {
	code := NewBlockOfCode(&recordingAssembler{}, platform.FakeCpuFeatureFlags{})

	a := code.MConst(0x7FC000007FC00000, 0x7FC000007FC00000)
	b := code.MConst(0x7FC000007FC00000, 0x7FC000007FC00000)
	c := code.MConst(1, 2)

	require.Equal(t, a, b, "identical literals share a pool slot")
	require.NotEqual(t, a, c)
	require.Zero(t, a%16, "vector literals must be 16-byte aligned")
	require.Zero(t, c%16)
}

func TestLoadMConstGoesThroughScratchGpr(t *testing.T) {
	rec := &recordingAssembler{}
	code := NewBlockOfCode(rec, platform.FakeCpuFeatureFlags{})

	code.LoadMConst(amd64.RegX4, 1, 2, amd64.RegR10)

	require.Len(t, rec.near, 2)
	require.Contains(t, rec.near[0], "MOVQ")
	require.Contains(t, rec.near[0], "R10")
	require.Contains(t, rec.near[1], "MOVAPS [R10+0x0], X4")
}

func TestCallFunctionUsesRAX(t *testing.T) {
	rec := &recordingAssembler{}
	code := NewBlockOfCode(rec, platform.FakeCpuFeatureFlags{})

	th := NewThunk("test", func() {})
	code.CallFunction(th)

	require.Len(t, rec.near, 2)
	require.Contains(t, rec.near[0], "MOVQ")
	require.Contains(t, rec.near[0], "AX")
	require.Equal(t, "CALL AX", rec.near[1])
}

func TestCallerSaveSpillSkipsResultSink(t *testing.T) {
	rec := &recordingAssembler{}
	code := NewBlockOfCode(rec, platform.FakeCpuFeatureFlags{})

	code.ABIPushCallerSaveRegistersAndAdjustStackExcept(amd64.RegX0)
	for _, op := range rec.near {
		require.NotContains(t, op, "X0,", "the result register must not be spilled")
	}

	pushes := 0
	for _, op := range rec.near {
		if len(op) >= 5 && op[:5] == "PUSHQ" {
			pushes++
		}
	}
	require.Equal(t, len(abiCallerSaveGprs), pushes)
}

func TestFeatureSnapshot(t *testing.T) {
	code := NewBlockOfCode(&recordingAssembler{}, platform.FakeCpuFeatureFlags{Bits: platform.CpuFeatureAVX})
	require.True(t, code.DoesCpuSupport(platform.CpuFeatureAVX))
	require.False(t, code.DoesCpuSupport(platform.CpuFeatureFMA))
}

func TestThunkRegistryRetainsEntries(t *testing.T) {
	fn := func() {}
	th := NewThunk("retained", fn)
	require.NotZero(t, th.Entry())
	require.Equal(t, "retained", th.Name())
	require.NotNil(t, th.Fn())
}
