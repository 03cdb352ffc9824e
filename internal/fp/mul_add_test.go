package fp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	inf32    = uint64(0x7F800000)
	negInf32 = uint64(0xFF800000)
	one32    = uint64(0x3F800000)
	two32    = uint64(0x40000000)
)

func TestFPMulAdd_QNaNWithInfZeroProduct(t *testing.T) {
	var fpsr FPSR
	// A quiet-NaN addend with an (inf, 0) product is the architectural
	// corner: default NaN, not the propagated payload.
	r := FPMulAdd(32, uint64(qNaN32), inf32, 0, 0, &fpsr)
	require.Equal(t, uint64(DefaultNaN32), r)
	require.True(t, fpsr.IOC())

	fpsr = 0
	r = FPMulAdd(32, uint64(qNaN32), 0, inf32, 0, &fpsr)
	require.Equal(t, uint64(DefaultNaN32), r)
}

func TestFPMulAdd_QNaNPropagation(t *testing.T) {
	var fpsr FPSR
	// Ordinary operands propagate the addend's payload when DN is off.
	r := FPMulAdd(32, uint64(qNaN32), one32, one32, 0, &fpsr)
	require.Equal(t, uint64(qNaN32), r)

	// With DN set, any NaN collapses to the default NaN.
	r = FPMulAdd(32, uint64(qNaN32), one32, one32, FPCR(fpcrDNBit), &fpsr)
	require.Equal(t, uint64(DefaultNaN32), r)
}

func TestFPMulAdd_InvalidProduct(t *testing.T) {
	var fpsr FPSR
	r := FPMulAdd(32, one32, inf32, 0, 0, &fpsr)
	require.Equal(t, uint64(DefaultNaN32), r)
	require.True(t, fpsr.IOC())
}

func TestFPMulAdd_InfMinusInf(t *testing.T) {
	var fpsr FPSR
	r := FPMulAdd(32, inf32, negInf32, one32, 0, &fpsr)
	require.Equal(t, uint64(DefaultNaN32), r)
	require.True(t, fpsr.IOC())

	fpsr = 0
	r = FPMulAdd(32, inf32, inf32, one32, 0, &fpsr)
	require.Equal(t, inf32, r)
	require.False(t, fpsr.IOC())
}

func TestFPMulAdd_Numeric(t *testing.T) {
	var fpsr FPSR
	r := FPMulAdd(32, one32, two32, f32(3.0), 0, &fpsr)
	require.Equal(t, f32(7.0), r)

	r = FPMulAdd(64, math.Float64bits(1.0), math.Float64bits(2.0), math.Float64bits(3.0), 0, &fpsr)
	require.Equal(t, math.Float64bits(7.0), r)
}

func TestFPMulAdd_SingleRounding(t *testing.T) {
	var fpsr FPSR
	// 1 + 2^-80 * 2^-80: a non-fused multiply would lose the product
	// entirely; the fused result must still round up under RP.
	tiny := math.Float64bits(math.Ldexp(1, -80))
	rmPlus := FPCR(1) << fpcrRModeShift
	r := FPMulAdd(64, math.Float64bits(1.0), tiny, tiny, rmPlus, &fpsr)
	require.Equal(t, math.Float64bits(1.0)+1, r)
	require.True(t, fpsr.IXC())

	// Under round-to-nearest the same sum stays at 1.0.
	fpsr = 0
	r = FPMulAdd(64, math.Float64bits(1.0), tiny, tiny, 0, &fpsr)
	require.Equal(t, math.Float64bits(1.0), r)
	require.True(t, fpsr.IXC())
}

func TestFPMulAdd_ZeroSigns(t *testing.T) {
	var fpsr FPSR
	// (+0) + (+0 * 1) keeps the common sign.
	r := FPMulAdd(32, 0, 0, one32, 0, &fpsr)
	require.Equal(t, uint64(0), r)

	// (-0) + (-0 * 1): both zero contributions negative.
	r = FPMulAdd(32, uint64(signBit32), uint64(signBit32), one32, 0, &fpsr)
	require.Equal(t, uint64(signBit32), r)

	// Opposite-sign zeros give +0 except under round-to-minus-infinity.
	r = FPMulAdd(32, uint64(signBit32), 0, one32, 0, &fpsr)
	require.Equal(t, uint64(0), r)
	rmMinus := FPCR(2) << fpcrRModeShift
	r = FPMulAdd(32, uint64(signBit32), 0, one32, rmMinus, &fpsr)
	require.Equal(t, uint64(signBit32), r)
}
