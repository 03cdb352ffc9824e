// Package amd64 implements the x86-64 assembler used by the backend. The
// encoding itself is delegated to golang-asm; this package owns the
// instruction and register namespaces, the operand-shape methods, and the
// near/far region split.
package amd64

import (
	"github.com/Annomatg/dynarmic/internal/asm"
)

// Assembler is the interface the x64 backend emits against.
type Assembler interface {
	asm.AssemblerBase
	// CompileStandAlone adds an instruction with no operands.
	CompileStandAlone(instruction asm.Instruction) asm.Node
	// CompileRegisterToRegister adds an instruction with source register
	// `from` and destination register `to`.
	CompileRegisterToRegister(instruction asm.Instruction, from, to asm.Register)
	// CompileMemoryToRegister adds an instruction whose source operand is
	// the memory address `srcBaseReg + srcOffset` and whose destination is
	// `dstReg`.
	CompileMemoryToRegister(instruction asm.Instruction, srcBaseReg asm.Register, srcOffset int64, dstReg asm.Register)
	// CompileRegisterToMemory adds an instruction whose source operand is
	// the register `srcReg` and whose destination is the memory address
	// `dstBaseReg + dstOffset`.
	CompileRegisterToMemory(instruction asm.Instruction, srcReg, dstBaseReg asm.Register, dstOffset int64)
	// CompileConstToRegister adds an instruction with constant source
	// `value` and destination register `dstReg`.
	CompileConstToRegister(instruction asm.Instruction, value int64, dstReg asm.Register) asm.Node
	// CompileRegisterToNone adds an instruction with source register
	// `register` and no destination operand.
	CompileRegisterToNone(instruction asm.Instruction, register asm.Register)
	// CompileJump adds a jump-kind instruction whose target is assigned
	// later via the returned node or SetJumpTargetOnNext.
	CompileJump(jmpInstruction asm.Instruction) asm.Node
	// CompileJumpToRegister adds a jump-kind instruction (JMP or CALL)
	// targeting the address held in `reg`.
	CompileJumpToRegister(jmpInstruction asm.Instruction, reg asm.Register)
	// CompileRegisterToRegisterWithPredicate adds a compare instruction of
	// the CMPPS family: sources `src` and `dst`, predicate immediate last.
	CompileRegisterToRegisterWithPredicate(instruction asm.Instruction, src, dst asm.Register, predicate byte)
	// CompileConstAndRegisterToRegister adds an instruction of the
	// "$imm, reg, reg" shape such as PSHUFD.
	CompileConstAndRegisterToRegister(instruction asm.Instruction, value int64, from, to asm.Register)
	// CompileTwoRegistersToRegister adds a VEX three-operand instruction;
	// operands follow the assembler's reversed order, so
	// `dst = op(src1, src2)` is written (src2, src1, dst).
	CompileTwoRegistersToRegister(instruction asm.Instruction, src2, src1, dst asm.Register)
	// CompileThreeRegistersToRegister adds a VEX four-operand instruction
	// such as VBLENDVPS, written (src3, src2, src1, dst).
	CompileThreeRegistersToRegister(instruction asm.Instruction, src3, src2, src1, dst asm.Register)
	// CompileConstAndTwoRegistersToRegister adds a VEX instruction carrying
	// an immediate, written ($imm, src2, src1, dst), e.g. VCMPPS.
	CompileConstAndTwoRegistersToRegister(instruction asm.Instruction, value int64, src2, src1, dst asm.Register)
}
