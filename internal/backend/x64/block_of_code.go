package x64

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"github.com/Annomatg/dynarmic/internal/asm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
	"github.com/Annomatg/dynarmic/internal/platform"
)

// JitStateReg holds the *JitState pointer while emitted code runs.
const JitStateReg = amd64.RegR15

// constPool pins the 16-byte literals emitted code references by absolute
// address. Entries live for the process lifetime, like the fix-up thunks.
var constPool struct {
	sync.Mutex
	entries [][]byte
}

func pinConst(lo, hi uint64) uintptr {
	buf := make([]byte, 32)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	off := 0
	if rem := addr & 15; rem != 0 {
		off = int(16 - rem)
	}
	binary.LittleEndian.PutUint64(buf[off:], lo)
	binary.LittleEndian.PutUint64(buf[off+8:], hi)
	constPool.Lock()
	constPool.entries = append(constPool.entries, buf)
	constPool.Unlock()
	return addr + uintptr(off)
}

// BlockOfCode owns the code being generated for one block: the assembler
// with its near and far regions, the literal pool references, and the CPU
// feature snapshot fast paths are selected on.
type BlockOfCode struct {
	asmr     amd64.Assembler
	features platform.CpuFeatureFlags
	jsi      JitStateInfo

	consts map[[2]uint64]uintptr
}

// NewBlockOfCode returns a block-of-code over the given assembler with the
// given feature snapshot.
func NewBlockOfCode(a amd64.Assembler, features platform.CpuFeatureFlags) *BlockOfCode {
	return &BlockOfCode{
		asmr:     a,
		features: features,
		jsi:      GetJitStateInfo(),
		consts:   map[[2]uint64]uintptr{},
	}
}

// Asm returns the underlying assembler.
func (c *BlockOfCode) Asm() amd64.Assembler { return c.asmr }

// JitStateInfo returns the guest-state offsets for this block.
func (c *BlockOfCode) JitStateInfo() JitStateInfo { return c.jsi }

// DoesCpuSupport reports whether the feature snapshot has the feature.
func (c *BlockOfCode) DoesCpuSupport(feature platform.CpuFeature) bool {
	return c.features.Has(feature)
}

// SwitchToFarCode diverts emission to the cold region.
func (c *BlockOfCode) SwitchToFarCode() { c.asmr.SwitchToFarCode() }

// SwitchToNearCode resumes emission in the hot region.
func (c *BlockOfCode) SwitchToNearCode() { c.asmr.SwitchToNearCode() }

// MConst returns the address of a pooled 128-bit literal, deduplicated per
// block.
func (c *BlockOfCode) MConst(lo, hi uint64) uintptr {
	key := [2]uint64{lo, hi}
	if addr, ok := c.consts[key]; ok {
		return addr
	}
	addr := pinConst(lo, hi)
	c.consts[key] = addr
	return addr
}

// LoadMConst loads a pooled literal into dst, addressing it through the
// scratch general-purpose register.
func (c *BlockOfCode) LoadMConst(dst asm.Register, lo, hi uint64, scratchGpr asm.Register) {
	addr := c.MConst(lo, hi)
	c.asmr.CompileConstToRegister(amd64.MOVQ, int64(addr), scratchGpr)
	c.asmr.CompileMemoryToRegister(amd64.MOVAPS, scratchGpr, 0, dst)
}

// CallFunction calls a registered helper through RAX.
func (c *BlockOfCode) CallFunction(t *Thunk) {
	c.asmr.CompileConstToRegister(amd64.MOVQ, int64(t.Entry()), amd64.RegAX)
	c.asmr.CompileJumpToRegister(amd64.CALL, amd64.RegAX)
}

// Ret emits the block epilogue return.
func (c *BlockOfCode) Ret() {
	c.asmr.CompileStandAlone(amd64.RET)
}

// ABIPushCallerSaveRegistersAndAdjustStackExcept spills the caller-save
// register file around a helper call, leaving out the designated result
// sink. The stack stays 16-byte aligned: the GPR pushes are paired with an
// alignment slot the caller reserves.
func (c *BlockOfCode) ABIPushCallerSaveRegistersAndAdjustStackExcept(exceptXmm asm.Register) {
	for _, r := range abiCallerSaveGprs {
		c.asmr.CompileRegisterToNone(amd64.PUSHQ, r)
	}
	space := int64(len(abiCallerSaveXmms) * 16)
	c.asmr.CompileConstToRegister(amd64.SUBQ, space, amd64.RegSP)
	for i, r := range abiCallerSaveXmms {
		if r == exceptXmm {
			continue
		}
		c.asmr.CompileRegisterToMemory(amd64.MOVAPS, r, amd64.RegSP, int64(i*16))
	}
}

// ABIPopCallerSaveRegistersAndAdjustStackExcept undoes the matching push.
func (c *BlockOfCode) ABIPopCallerSaveRegistersAndAdjustStackExcept(exceptXmm asm.Register) {
	for i, r := range abiCallerSaveXmms {
		if r == exceptXmm {
			continue
		}
		c.asmr.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, int64(i*16), r)
	}
	space := int64(len(abiCallerSaveXmms) * 16)
	c.asmr.CompileConstToRegister(amd64.ADDQ, space, amd64.RegSP)
	for i := len(abiCallerSaveGprs) - 1; i >= 0; i-- {
		c.asmr.CompileRegisterToNone(amd64.POPQ, abiCallerSaveGprs[i])
	}
}
