package x64

import (
	"fmt"

	"github.com/Annomatg/dynarmic/internal/asm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
	"github.com/Annomatg/dynarmic/internal/ir"
)

// Argument is one operand of the instruction being compiled, as handed out
// by GetArgumentInfo.
type Argument struct {
	Value ir.Value
}

// IsImmediate reports whether the operand is an immediate.
func (a Argument) IsImmediate() bool { return a.Value.IsImmediate() }

// RegAlloc assigns IR values to host registers for one block. It is the
// oracle the emitters consult; see DESIGN.md for how minimal it is on
// purpose. Registers are never spilled: exhaustion is a bug in the emitter.
type RegAlloc struct {
	block *ir.Block
	code  *BlockOfCode

	defs      map[int]asm.Register // inst index -> xmm holding its result
	remaining map[int]int          // inst index -> unconsumed uses
	scratches []asm.Register

	freeXmm []asm.Register
	freeGpr []asm.Register
}

// NewRegAlloc returns an allocator for the given block.
func NewRegAlloc(block *ir.Block, code *BlockOfCode) *RegAlloc {
	ra := &RegAlloc{
		block:     block,
		code:      code,
		defs:      map[int]asm.Register{},
		remaining: map[int]int{},
		freeXmm: []asm.Register{
			amd64.RegX0, amd64.RegX1, amd64.RegX2, amd64.RegX3,
			amd64.RegX4, amd64.RegX5, amd64.RegX6, amd64.RegX7,
			amd64.RegX8, amd64.RegX9, amd64.RegX10, amd64.RegX11,
			amd64.RegX12, amd64.RegX13, amd64.RegX14, amd64.RegX15,
		},
		freeGpr: []asm.Register{
			amd64.RegR10, amd64.RegR11, amd64.RegR8, amd64.RegR9,
			amd64.RegSI, amd64.RegDI, amd64.RegCX, amd64.RegDX, amd64.RegBX,
		},
	}
	for i := 0; i < block.NumInsts(); i++ {
		ra.remaining[i] = block.Inst(i).UseCount()
	}
	return ra
}

// GetArgumentInfo returns the operands of instruction index.
func (ra *RegAlloc) GetArgumentInfo(index int) []Argument {
	inst := ra.block.Inst(index)
	args := make([]Argument, inst.NumArgs())
	for i := range args {
		args[i] = Argument{Value: inst.Arg(i)}
	}
	return args
}

// UseXmm returns the register holding the argument, consuming one use. The
// register stays owned by the defining value.
func (ra *RegAlloc) UseXmm(arg Argument) asm.Register {
	if arg.IsImmediate() {
		panic("x64: immediate vector operands are not register-allocatable")
	}
	index := arg.Value.InstIndex()
	reg, ok := ra.defs[index]
	if !ok {
		panic(fmt.Sprintf("x64: %%%d used before definition", index))
	}
	ra.remaining[index]--
	if ra.remaining[index] < 0 {
		panic(fmt.Sprintf("x64: %%%d used more often than its use count", index))
	}
	return reg
}

// UseScratchXmm returns a register holding the argument's value that the
// caller may clobber. The defining value's own register is handed over when
// this was its last use; otherwise the value is copied into a fresh scratch.
func (ra *RegAlloc) UseScratchXmm(arg Argument) asm.Register {
	reg := ra.UseXmm(arg)
	index := arg.Value.InstIndex()
	if ra.remaining[index] == 0 {
		delete(ra.defs, index)
		ra.scratches = append(ra.scratches, reg)
		return reg
	}
	scratch := ra.ScratchXmm()
	ra.code.Asm().CompileRegisterToRegister(amd64.MOVAPS, reg, scratch)
	return scratch
}

// ScratchXmm allocates a scratch SSE register, distinct from all live
// values and other scratches.
func (ra *RegAlloc) ScratchXmm() asm.Register {
	reg := ra.allocXmm()
	ra.scratches = append(ra.scratches, reg)
	return reg
}

// ScratchGpr allocates a scratch general-purpose register.
func (ra *RegAlloc) ScratchGpr() asm.Register {
	if len(ra.freeGpr) == 0 {
		panic("x64: out of general-purpose registers")
	}
	reg := ra.freeGpr[0]
	ra.freeGpr = ra.freeGpr[1:]
	ra.scratches = append(ra.scratches, reg)
	return reg
}

func (ra *RegAlloc) allocXmm() asm.Register {
	for i, reg := range ra.freeXmm {
		if ra.regIsLive(reg) {
			continue
		}
		ra.freeXmm = append(ra.freeXmm[:i:i], ra.freeXmm[i+1:]...)
		return reg
	}
	panic("x64: out of vector registers")
}

func (ra *RegAlloc) regIsLive(reg asm.Register) bool {
	for _, r := range ra.defs {
		if r == reg {
			return true
		}
	}
	for _, r := range ra.scratches {
		if r == reg {
			return true
		}
	}
	return false
}

// DefineValue records that instruction index's result lives in reg. A
// scratch register passed here transfers ownership to the value.
func (ra *RegAlloc) DefineValue(index int, reg asm.Register) {
	for i, r := range ra.scratches {
		if r == reg {
			ra.scratches = append(ra.scratches[:i], ra.scratches[i+1:]...)
			break
		}
	}
	ra.defs[index] = reg
}

// EndOfAllocScope releases scratches and fully-consumed values back to the
// free lists. The emitters call this between instructions.
func (ra *RegAlloc) EndOfAllocScope() {
	for _, reg := range ra.scratches {
		ra.free(reg)
	}
	ra.scratches = ra.scratches[:0]
	for index, reg := range ra.defs {
		if ra.remaining[index] == 0 {
			delete(ra.defs, index)
			ra.free(reg)
		}
	}
}

// HostCall prepares for a call into the host: every caller-save register
// must be dead or explicitly spilled by the emitter. Live values are a bug
// given this allocator never spills on its own.
func (ra *RegAlloc) HostCall() {
	if len(ra.defs) != 0 {
		panic("x64: live values across a host call")
	}
	for _, reg := range ra.scratches {
		ra.free(reg)
	}
	ra.scratches = ra.scratches[:0]
}

func (ra *RegAlloc) free(reg asm.Register) {
	if amd64.IsXmm(reg) {
		ra.freeXmm = append(ra.freeXmm, reg)
	} else {
		ra.freeGpr = append(ra.freeGpr, reg)
	}
}
