package opt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Annomatg/dynarmic/internal/arm"
	"github.com/Annomatg/dynarmic/internal/ir"
)

type fakeCallbacks struct {
	readOnly map[uint32]bool
	mem32    map[uint32]uint32
	mem8     map[uint32]uint8
}

func (f *fakeCallbacks) MemoryRead8(vaddr uint32) uint8   { return f.mem8[vaddr] }
func (f *fakeCallbacks) MemoryRead16(vaddr uint32) uint16 { return 0 }
func (f *fakeCallbacks) MemoryRead32(vaddr uint32) uint32 { return f.mem32[vaddr] }
func (f *fakeCallbacks) MemoryRead64(vaddr uint32) uint64 { return 0 }
func (f *fakeCallbacks) IsReadOnlyMemory(vaddr uint32) bool {
	return f.readOnly[vaddr]
}
func (f *fakeCallbacks) CallSVC(uint32) {}

func TestConstantMemoryReadsFoldsReadOnlyLoad(t *testing.T) {
	cb := &fakeCallbacks{
		readOnly: map[uint32]bool{0x8000: true},
		mem32:    map[uint32]uint32{0x8000: 0xDEADBEEF},
	}

	b := ir.NewBlock(arm.LocationDescriptor{PC: 0, TFlag: true})
	load := b.Append(ir.OpReadMemory32, ir.Imm32(0x8000))
	b.Append(ir.OpSetRegister, ir.Imm32(0), load)
	b.SetTerm(ir.TermReturnToDispatch{})

	ConstantMemoryReads(b, cb)

	set := b.Inst(1)
	require.True(t, set.Arg(1).IsImmediate())
	require.Equal(t, uint32(0xDEADBEEF), set.Arg(1).U32())
	// The load is now dead.
	require.Equal(t, 0, b.Inst(load.InstIndex()).UseCount())
}

func TestConstantMemoryReadsLeavesWritableLoads(t *testing.T) {
	cb := &fakeCallbacks{readOnly: map[uint32]bool{}, mem32: map[uint32]uint32{0x8000: 1}}

	b := ir.NewBlock(arm.LocationDescriptor{PC: 0, TFlag: true})
	load := b.Append(ir.OpReadMemory32, ir.Imm32(0x8000))
	b.Append(ir.OpSetRegister, ir.Imm32(0), load)

	ConstantMemoryReads(b, cb)

	require.False(t, b.Inst(1).Arg(1).IsImmediate())
}

func TestConstantMemoryReadsLeavesNonImmediateAddresses(t *testing.T) {
	cb := &fakeCallbacks{readOnly: map[uint32]bool{0x8000: true}, mem32: map[uint32]uint32{0x8000: 1}}

	b := ir.NewBlock(arm.LocationDescriptor{PC: 0, TFlag: true})
	addr := b.Append(ir.OpGetRegister, ir.Imm32(1))
	load := b.Append(ir.OpReadMemory32, addr)
	b.Append(ir.OpSetRegister, ir.Imm32(0), load)

	ConstantMemoryReads(b, cb)

	require.False(t, b.Inst(2).Arg(1).IsImmediate())
}

func TestTrivialCarryWriteBackEliminated(t *testing.T) {
	cb := &fakeCallbacks{}

	b := ir.NewBlock(arm.LocationDescriptor{PC: 0, TFlag: true})
	c := b.Append(ir.OpGetCFlag)
	b.Append(ir.OpSetCFlag, c)
	set := 1

	ConstantMemoryReads(b, cb)

	require.Equal(t, ir.OpVoid, b.Inst(set).Opcode())
	require.Equal(t, 0, b.Inst(c.InstIndex()).UseCount())
}

func TestRealCarryWriteBackKept(t *testing.T) {
	cb := &fakeCallbacks{}

	b := ir.NewBlock(arm.LocationDescriptor{PC: 0, TFlag: true})
	shift := b.Append(ir.OpLogicalShiftRight, ir.Imm32(1), ir.Imm8(1), ir.Imm1(false))
	carry := b.Append(ir.OpGetCarryFromOp, shift)
	b.Append(ir.OpSetCFlag, carry)

	ConstantMemoryReads(b, cb)

	require.Equal(t, ir.OpSetCFlag, b.Inst(2).Opcode())
}

func TestByteLoadFolds(t *testing.T) {
	cb := &fakeCallbacks{
		readOnly: map[uint32]bool{0x10: true},
		mem8:     map[uint32]uint8{0x10: 0xAB},
	}

	b := ir.NewBlock(arm.LocationDescriptor{PC: 0, TFlag: true})
	load := b.Append(ir.OpReadMemory8, ir.Imm32(0x10))
	b.Append(ir.OpZeroExtendByteToWord, load)

	ConstantMemoryReads(b, cb)

	require.True(t, b.Inst(1).Arg(0).IsImmediate())
	require.Equal(t, uint8(0xAB), b.Inst(1).Arg(0).U8())
}
