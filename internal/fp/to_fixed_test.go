package fp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func f32(f float32) uint64 { return uint64(math.Float32bits(f)) }

func TestFPToFixed_SignedSaturation(t *testing.T) {
	var fpsr FPSR

	// 2^31 as float32 is just above the signed range.
	r := FPToFixed(32, f32(2147483648.0), 0, false, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0x7FFFFFFF), r)
	require.True(t, fpsr.IOC())

	fpsr = 0
	// -2^31 is exactly INT_MIN and converts without saturating.
	r = FPToFixed(32, f32(-2147483648.0), 0, false, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0x80000000), r)

	fpsr = 0
	r = FPToFixed(32, f32(1.5), 0, false, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(1), r)
	require.False(t, fpsr.IOC())
	require.True(t, fpsr.IXC())
}

func TestFPToFixed_NaNYieldsZeroAndIOC(t *testing.T) {
	var fpsr FPSR
	r := FPToFixed(32, uint64(0x7FC00000), 0, false, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0), r)
	require.True(t, fpsr.IOC())

	fpsr = 0
	r = FPToFixed(64, DefaultNaN64, 0, true, 0, RoundNearestTieEven, &fpsr)
	require.Equal(t, uint64(0), r)
	require.True(t, fpsr.IOC())
}

func TestFPToFixed_UnsignedSaturation(t *testing.T) {
	var fpsr FPSR

	r := FPToFixed(32, f32(-1.0), 0, true, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0), r)
	require.True(t, fpsr.IOC())

	fpsr = 0
	// 2^32 as float32 (0x4F800000) is the unsigned upper limit.
	r = FPToFixed(32, uint64(0x4F800000), 0, true, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0xFFFFFFFF), r)
	require.True(t, fpsr.IOC())
}

func TestFPToFixed_Rounding(t *testing.T) {
	cases := []struct {
		mode RoundingMode
		in   float32
		want uint64
	}{
		{RoundNearestTieEven, 2.5, 2},
		{RoundNearestTieEven, 3.5, 4},
		{RoundNearestTieAwayFromZero, 2.5, 3},
		{RoundTowardsPlusInfinity, 2.1, 3},
		{RoundTowardsMinusInfinity, 2.9, 2},
		{RoundTowardsZero, 2.9, 2},
	}
	for _, tc := range cases {
		var fpsr FPSR
		r := FPToFixed(32, f32(tc.in), 0, false, 0, tc.mode, &fpsr)
		require.Equal(t, tc.want, r, "mode=%s in=%v", tc.mode, tc.in)
	}
}

func TestFPToFixed_FractionalBits(t *testing.T) {
	var fpsr FPSR
	// 1.5 with 8 fractional bits is 0x180.
	r := FPToFixed(32, f32(1.5), 8, false, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0x180), r)
	require.False(t, fpsr.IXC())
}

func TestFPToFixed_RoundTripFromS32(t *testing.T) {
	// Any i32 that converts to float exactly must survive the round trip
	// under round-towards-zero.
	for _, v := range []int32{0, 1, -1, 123456, -123456, 1 << 24, -(1 << 24), 1 << 30, math.MinInt32} {
		var fpsr FPSR
		in := f32(float32(v))
		r := FPToFixed(32, in, 0, false, 0, RoundTowardsZero, &fpsr)
		require.Equal(t, uint64(uint32(v)), r, "v=%d", v)
	}
}

func TestFPToFixed_Double(t *testing.T) {
	var fpsr FPSR
	r := FPToFixed(64, math.Float64bits(-3.75), 0, false, 0, RoundNearestTieEven, &fpsr)
	require.Equal(t, uint64(0xFFFFFFFFFFFFFFFC), r)

	fpsr = 0
	r = FPToFixed(64, math.Float64bits(9.3e18), 0, false, 0, RoundTowardsZero, &fpsr)
	require.Equal(t, uint64(0x7FFFFFFFFFFFFFFF), r)
	require.True(t, fpsr.IOC())
}
