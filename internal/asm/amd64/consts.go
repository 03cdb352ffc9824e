package amd64

import "github.com/Annomatg/dynarmic/internal/asm"

// AMD64-specific instructions.
// https://www.felixcloutier.com/x86/index.html
//
// Note: only the instructions the backend actually emits are defined here.
// Note: naming convention is exactly the same as Go assembler: https://go.dev/doc/asm
const (
	NONE asm.Instruction = iota
	NOP
	RET
	UD2
	JMP
	JEQ
	JNE
	CALL

	ADDQ
	SUBQ
	CMPL
	TESTL
	LEAQ
	MOVL
	MOVQ
	PUSHQ
	POPQ

	MOVAPS
	MOVAPD
	MOVDQA
	MOVHLPS
	MOVMSKPS
	PEXTRQ

	ADDPS
	ADDPD
	SUBPS
	SUBPD
	MULPS
	MULPD
	DIVPS
	DIVPD
	MAXPS
	MAXPD
	MINPS
	MINPD
	HADDPS
	HADDPD

	ANDPS
	ANDPD
	ANDNPS
	ORPS
	XORPS
	PAND
	POR
	PXOR

	CMPPS
	CMPPD
	PCMPEQW
	PTEST
	PSRLL
	PSHUFD
	PBLENDW
	PUNPCKLLQ
	PUNPCKLQDQ
	UNPCKLPS
	UNPCKLPD

	CVTPL2PS
	CVTSQ2SD

	VADDPS
	VSUBPD
	VMAXPS
	VMAXPD
	VMINPS
	VMINPD
	VANDPS
	VANDPD
	VORPS
	VORPD
	VCMPPS
	VCMPPD
	VBLENDVPS
	VBLENDVPD
	VPBLENDW
	VPSRLD
	VPERMILPS
	VUNPCKLPS
	VHADDPD
	VMOVAPD
	VFMADD231PS
	VFMADD231PD
	VCVTUDQ2PS
	VCVTQQ2PD
	VCVTUQQ2PD

	instructionEnd
)

var instructionNames = [instructionEnd]string{
	NONE: "NONE", NOP: "NOP", RET: "RET", UD2: "UD2",
	JMP: "JMP", JEQ: "JEQ", JNE: "JNE", CALL: "CALL",
	ADDQ: "ADDQ", SUBQ: "SUBQ", CMPL: "CMPL", TESTL: "TESTL", LEAQ: "LEAQ",
	MOVL: "MOVL", MOVQ: "MOVQ", PUSHQ: "PUSHQ", POPQ: "POPQ",
	MOVAPS: "MOVAPS", MOVAPD: "MOVAPD", MOVDQA: "MOVDQA",
	MOVHLPS: "MOVHLPS", MOVMSKPS: "MOVMSKPS", PEXTRQ: "PEXTRQ",
	ADDPS: "ADDPS", ADDPD: "ADDPD", SUBPS: "SUBPS", SUBPD: "SUBPD",
	MULPS: "MULPS", MULPD: "MULPD", DIVPS: "DIVPS", DIVPD: "DIVPD",
	MAXPS: "MAXPS", MAXPD: "MAXPD", MINPS: "MINPS", MINPD: "MINPD",
	HADDPS: "HADDPS", HADDPD: "HADDPD",
	ANDPS: "ANDPS", ANDPD: "ANDPD", ANDNPS: "ANDNPS", ORPS: "ORPS",
	XORPS: "XORPS", PAND: "PAND", POR: "POR", PXOR: "PXOR",
	CMPPS: "CMPPS", CMPPD: "CMPPD", PCMPEQW: "PCMPEQW", PTEST: "PTEST",
	PSRLL: "PSRLL", PSHUFD: "PSHUFD", PBLENDW: "PBLENDW",
	PUNPCKLLQ: "PUNPCKLLQ", PUNPCKLQDQ: "PUNPCKLQDQ",
	UNPCKLPS: "UNPCKLPS", UNPCKLPD: "UNPCKLPD",
	CVTPL2PS: "CVTPL2PS", CVTSQ2SD: "CVTSQ2SD",
	VADDPS: "VADDPS", VSUBPD: "VSUBPD",
	VMAXPS: "VMAXPS", VMAXPD: "VMAXPD", VMINPS: "VMINPS", VMINPD: "VMINPD",
	VANDPS: "VANDPS", VANDPD: "VANDPD", VORPS: "VORPS", VORPD: "VORPD",
	VCMPPS: "VCMPPS", VCMPPD: "VCMPPD",
	VBLENDVPS: "VBLENDVPS", VBLENDVPD: "VBLENDVPD", VPBLENDW: "VPBLENDW",
	VPSRLD: "VPSRLD", VPERMILPS: "VPERMILPS", VUNPCKLPS: "VUNPCKLPS",
	VHADDPD: "VHADDPD", VMOVAPD: "VMOVAPD",
	VFMADD231PS: "VFMADD231PS", VFMADD231PD: "VFMADD231PD",
	VCVTUDQ2PS: "VCVTUDQ2PS", VCVTQQ2PD: "VCVTQQ2PD", VCVTUQQ2PD: "VCVTUQQ2PD",
}

// InstructionName returns the Go-assembler name of instruction.
func InstructionName(instruction asm.Instruction) string {
	if instruction < instructionEnd {
		return instructionNames[instruction]
	}
	return "Unknown"
}

// CMPPS-family predicates.
const (
	CmpPredicateEQ_OQ    byte = 0x00
	CmpPredicateLT_OS    byte = 0x01
	CmpPredicateLE_OS    byte = 0x02
	CmpPredicateUNORD_Q  byte = 0x03
	CmpPredicateNEQ_UQ   byte = 0x04
	CmpPredicateNLT_US   byte = 0x05
	CmpPredicateNLE_US   byte = 0x06
	CmpPredicateORD_Q    byte = 0x07
	CmpPredicateGE_OS    byte = 0x0D
	CmpPredicateGT_OS    byte = 0x0E
	CmpPredicateLT_OQ    byte = 0x11
	CmpPredicateGE_OQ    byte = 0x1D
	CmpPredicateNGE_UQ   byte = 0x19
	CmpPredicateTRUE_UQ  byte = 0x0F
	CmpPredicateFALSE_OQ byte = 0x0B
)

// AMD64-specific registers.
//
// Note: naming convention is exactly the same as Go assembler: https://go.dev/doc/asm
const (
	RegAX asm.Register = asm.NilRegister + 1 + iota
	RegCX
	RegDX
	RegBX
	RegSP
	RegBP
	RegSI
	RegDI
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15
	RegX0
	RegX1
	RegX2
	RegX3
	RegX4
	RegX5
	RegX6
	RegX7
	RegX8
	RegX9
	RegX10
	RegX11
	RegX12
	RegX13
	RegX14
	RegX15
)

var registerNames = []string{
	"nil",
	"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
	"X0", "X1", "X2", "X3", "X4", "X5", "X6", "X7",
	"X8", "X9", "X10", "X11", "X12", "X13", "X14", "X15",
}

// RegisterName returns the Go-assembler name of reg.
func RegisterName(reg asm.Register) string {
	if reg >= 0 && int(reg) < len(registerNames) {
		return registerNames[reg]
	}
	return "nil"
}

// IsXmm reports whether reg is one of the SSE registers.
func IsXmm(reg asm.Register) bool { return reg >= RegX0 && reg <= RegX15 }
