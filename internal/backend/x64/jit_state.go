// Package x64 is the x86-64 backend: it compiles IR floating-point vector
// operations into host code with ARM-exact semantics, choosing between SIMD
// fast paths and scalar fallbacks on runtime CPU features.
package x64

import (
	"unsafe"

	"github.com/Annomatg/dynarmic/internal/fp"
)

// JitState is the per-guest-thread state block emitted code addresses
// through R15. The layout is read by generated code via the offsets below,
// so it must stay binary-stable for the lifetime of the process.
//
// ExtRegs must sit on a 16-byte boundary relative to the struct start (the
// vector loads are aligned); the padding below keeps it there.
type JitState struct {
	Regs    [16]uint32
	Cpsr    uint32
	FPSCR   uint32
	FPSRExc uint32
	_       uint32

	ExtRegs [16]fp.Vec128
}

// JitStateInfo carries the byte offsets emitted code uses.
type JitStateInfo struct {
	OffsetRegs    uintptr
	OffsetFPSRExc uintptr
	OffsetExtRegs uintptr
}

// GetJitStateInfo returns the offsets of the current JitState layout.
func GetJitStateInfo() JitStateInfo {
	var s JitState
	return JitStateInfo{
		OffsetRegs:    unsafe.Offsetof(s.Regs),
		OffsetFPSRExc: unsafe.Offsetof(s.FPSRExc),
		OffsetExtRegs: unsafe.Offsetof(s.ExtRegs),
	}
}
