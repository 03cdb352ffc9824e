// Package opt holds the optimization passes that run over a translated
// block before code generation.
package opt

import (
	"github.com/Annomatg/dynarmic/internal/arm"
	"github.com/Annomatg/dynarmic/internal/ir"
)

// ConstantMemoryReads folds loads whose address is an immediate pointing at
// read-only guest memory into immediates, and removes the trivial
// SetCFlag(GetCFlag()) write-back the translator emits for flag-preserving
// shifts. Instructions are visited in order and never moved, so unknown side
// effects keep their relative order.
func ConstantMemoryReads(block *ir.Block, cb arm.UserCallbacks) {
	for i := 0; i < block.NumInsts(); i++ {
		inst := block.Inst(i)
		switch inst.Opcode() {
		case ir.OpSetCFlag:
			arg := inst.Arg(0)
			if !arg.IsImmediate() && block.Inst(arg.InstIndex()).Opcode() == ir.OpGetCFlag {
				block.Invalidate(i)
			}
		case ir.OpReadMemory8:
			if !inst.AreAllArgsImmediates() {
				break
			}
			vaddr := inst.Arg(0).U32()
			if cb.IsReadOnlyMemory(vaddr) {
				block.ReplaceUsesWith(i, ir.Imm8(cb.MemoryRead8(vaddr)))
			}
		case ir.OpReadMemory16:
			if !inst.AreAllArgsImmediates() {
				break
			}
			vaddr := inst.Arg(0).U32()
			if cb.IsReadOnlyMemory(vaddr) {
				block.ReplaceUsesWith(i, ir.Imm16(cb.MemoryRead16(vaddr)))
			}
		case ir.OpReadMemory32:
			if !inst.AreAllArgsImmediates() {
				break
			}
			vaddr := inst.Arg(0).U32()
			if cb.IsReadOnlyMemory(vaddr) {
				block.ReplaceUsesWith(i, ir.Imm32(cb.MemoryRead32(vaddr)))
			}
		case ir.OpReadMemory64:
			if !inst.AreAllArgsImmediates() {
				break
			}
			vaddr := inst.Arg(0).U32()
			if cb.IsReadOnlyMemory(vaddr) {
				block.ReplaceUsesWith(i, ir.Imm64(cb.MemoryRead64(vaddr)))
			}
		}
	}
}
