package fp

import "encoding/binary"

// Vec128 is one 128-bit vector register value, modeled as an array of lanes
// with lane 0 at the lowest address. Scalar helpers receive pointers to
// values of this type spilled by emitted code.
type Vec128 [16]byte

// LaneCount returns the number of lanes for the given element size in bits.
func LaneCount(fsize int) int { return 128 / fsize }

func (v *Vec128) Lane32(i int) uint32 {
	return binary.LittleEndian.Uint32(v[i*4:])
}

func (v *Vec128) SetLane32(i int, x uint32) {
	binary.LittleEndian.PutUint32(v[i*4:], x)
}

func (v *Vec128) Lane64(i int) uint64 {
	return binary.LittleEndian.Uint64(v[i*8:])
}

func (v *Vec128) SetLane64(i int, x uint64) {
	binary.LittleEndian.PutUint64(v[i*8:], x)
}

// Lane reads lane i as a raw bit pattern for either lane size.
func (v *Vec128) Lane(fsize, i int) uint64 {
	if fsize == 32 {
		return uint64(v.Lane32(i))
	}
	return v.Lane64(i)
}

// SetLane writes lane i as a raw bit pattern for either lane size.
func (v *Vec128) SetLane(fsize, i int, x uint64) {
	if fsize == 32 {
		v.SetLane32(i, uint32(x))
	} else {
		v.SetLane64(i, x)
	}
}
