package fp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	sNaN32 = uint32(0x7F800001)
	qNaN32 = uint32(0x7FC12345)
)

func TestProcessNaNs32_Priority(t *testing.T) {
	// A signaling NaN wins over a quiet one and comes back quietened.
	r, ok := ProcessNaNs32(qNaN32, sNaN32)
	require.True(t, ok)
	require.Equal(t, sNaN32|0x00400000, r)

	// Same kind: first operand wins.
	r, ok = ProcessNaNs32(qNaN32, 0x7FC00001)
	require.True(t, ok)
	require.Equal(t, qNaN32, r)

	_, ok = ProcessNaNs32(0x3F800000, 0x40000000)
	require.False(t, ok)
}

func TestProcessNaNs3_Order(t *testing.T) {
	r, ok := ProcessNaNs3x32(0x3F800000, qNaN32, 0x7FC00001)
	require.True(t, ok)
	require.Equal(t, qNaN32, r)

	r64, ok := ProcessNaNs3x64(0, 0x7FF0000000000001, DefaultNaN64)
	require.True(t, ok)
	require.Equal(t, uint64(0x7FF0000000000001)|quietBit64, r64)
}

func TestNaNClassification(t *testing.T) {
	require.True(t, IsSNaN32(sNaN32))
	require.False(t, IsQNaN32(sNaN32))
	require.True(t, IsQNaN32(qNaN32))
	require.True(t, IsNaN32(qNaN32))
	require.False(t, IsNaN32(0x7F800000)) // infinity
	require.True(t, IsInf32(0xFF800000))
	require.True(t, IsZero32(0x80000000))
	require.True(t, IsZero64(0x8000000000000000))
	require.True(t, IsQNaN64(DefaultNaN64))
}
