package amd64

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/Annomatg/dynarmic/internal/asm"
)

// node wraps an obj.Prog as an asm.Node.
type node struct {
	prog *obj.Prog
	inst asm.Instruction
}

func (n *node) String() string { return InstructionName(n.inst) }

// AssignJumpTarget implements asm.Node.AssignJumpTarget.
func (n *node) AssignJumpTarget(target asm.Node) {
	n.prog.To.SetTarget(target.(*node).prog)
}

// OffsetInBinary implements asm.Node.OffsetInBinary.
func (n *node) OffsetInBinary() asm.NodeOffsetInBinary {
	return asm.NodeOffsetInBinary(n.prog.Pc)
}

// assemblerImpl implements Assembler on top of golang-asm.
//
// The far region is modeled by deferral: while far mode is on, instructions
// are created eagerly (so branch nodes keep their identity) but their
// placement is queued, and Assemble appends them after the near code. Jumps
// across the regions resolve like any other branch; golang-asm picks the
// long encodings when the displacement needs them.
type assemblerImpl struct {
	b *goasm.Builder

	setBranchTargetOnNextNodes []asm.Node
	onGenerateCallbacks        []func(code []byte) error

	far      bool
	farQueue []*obj.Prog
}

// NewAssembler returns an empty amd64 assembler.
func NewAssembler() (Assembler, error) {
	b, err := goasm.NewBuilder("amd64", 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &assemblerImpl{b: b}, nil
}

func (a *assemblerImpl) newProg(instruction asm.Instruction) *obj.Prog {
	p := a.b.NewProg()
	p.As = castAsGolangAsmInstruction[instruction]
	return p
}

func (a *assemblerImpl) addInstruction(p *obj.Prog) {
	if a.far {
		a.farQueue = append(a.farQueue, p)
	} else {
		a.b.AddInstruction(p)
	}
	for _, n := range a.setBranchTargetOnNextNodes {
		n.(*node).prog.To.SetTarget(p)
	}
	a.setBranchTargetOnNextNodes = nil
}

// SwitchToFarCode implements asm.AssemblerBase.SwitchToFarCode.
func (a *assemblerImpl) SwitchToFarCode() { a.far = true }

// SwitchToNearCode implements asm.AssemblerBase.SwitchToNearCode.
func (a *assemblerImpl) SwitchToNearCode() { a.far = false }

// SetJumpTargetOnNext implements asm.AssemblerBase.SetJumpTargetOnNext.
func (a *assemblerImpl) SetJumpTargetOnNext(nodes ...asm.Node) {
	a.setBranchTargetOnNextNodes = append(a.setBranchTargetOnNextNodes, nodes...)
}

// AddOnGenerateCallBack implements asm.AssemblerBase.AddOnGenerateCallBack.
func (a *assemblerImpl) AddOnGenerateCallBack(cb func([]byte) error) {
	a.onGenerateCallbacks = append(a.onGenerateCallbacks, cb)
}

// Assemble implements asm.AssemblerBase.Assemble.
func (a *assemblerImpl) Assemble() ([]byte, error) {
	if len(a.setBranchTargetOnNextNodes) != 0 {
		return nil, fmt.Errorf("%d branch targets unresolved at assembly", len(a.setBranchTargetOnNextNodes))
	}
	for _, p := range a.farQueue {
		a.b.AddInstruction(p)
	}
	a.farQueue = nil
	code := a.b.Assemble()
	for _, cb := range a.onGenerateCallbacks {
		if err := cb(code); err != nil {
			return nil, err
		}
	}
	return code, nil
}

// CompileStandAlone implements Assembler.CompileStandAlone.
func (a *assemblerImpl) CompileStandAlone(instruction asm.Instruction) asm.Node {
	p := a.newProg(instruction)
	a.addInstruction(p)
	return &node{prog: p, inst: instruction}
}

// CompileRegisterToRegister implements Assembler.CompileRegisterToRegister.
func (a *assemblerImpl) CompileRegisterToRegister(instruction asm.Instruction, from, to asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister[from]
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[to]
	a.addInstruction(p)
}

// CompileMemoryToRegister implements Assembler.CompileMemoryToRegister.
func (a *assemblerImpl) CompileMemoryToRegister(instruction asm.Instruction, srcBaseReg asm.Register, srcOffset int64, dstReg asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = castAsGolangAsmRegister[srcBaseReg]
	p.From.Offset = srcOffset
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[dstReg]
	a.addInstruction(p)
}

// CompileRegisterToMemory implements Assembler.CompileRegisterToMemory.
func (a *assemblerImpl) CompileRegisterToMemory(instruction asm.Instruction, srcReg, dstBaseReg asm.Register, dstOffset int64) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister[srcReg]
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = castAsGolangAsmRegister[dstBaseReg]
	p.To.Offset = dstOffset
	a.addInstruction(p)
}

// CompileConstToRegister implements Assembler.CompileConstToRegister.
func (a *assemblerImpl) CompileConstToRegister(instruction asm.Instruction, value int64, dstReg asm.Register) asm.Node {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = value
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[dstReg]
	a.addInstruction(p)
	return &node{prog: p, inst: instruction}
}

// CompileRegisterToNone implements Assembler.CompileRegisterToNone.
func (a *assemblerImpl) CompileRegisterToNone(instruction asm.Instruction, register asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister[register]
	p.To.Type = obj.TYPE_NONE
	a.addInstruction(p)
}

// CompileJump implements Assembler.CompileJump.
func (a *assemblerImpl) CompileJump(jmpInstruction asm.Instruction) asm.Node {
	p := a.newProg(jmpInstruction)
	p.To.Type = obj.TYPE_BRANCH
	a.addInstruction(p)
	return &node{prog: p, inst: jmpInstruction}
}

// CompileJumpToRegister implements Assembler.CompileJumpToRegister.
func (a *assemblerImpl) CompileJumpToRegister(jmpInstruction asm.Instruction, reg asm.Register) {
	p := a.newProg(jmpInstruction)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[reg]
	a.addInstruction(p)
}

// CompileRegisterToRegisterWithPredicate implements
// Assembler.CompileRegisterToRegisterWithPredicate.
func (a *assemblerImpl) CompileRegisterToRegisterWithPredicate(instruction asm.Instruction, src, dst asm.Register, predicate byte) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister[src]
	p.SetFrom3(obj.Addr{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[dst]})
	p.To.Type = obj.TYPE_CONST
	p.To.Offset = int64(predicate)
	a.addInstruction(p)
}

// CompileConstAndRegisterToRegister implements
// Assembler.CompileConstAndRegisterToRegister.
func (a *assemblerImpl) CompileConstAndRegisterToRegister(instruction asm.Instruction, value int64, from, to asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = value
	p.SetFrom3(obj.Addr{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[from]})
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[to]
	a.addInstruction(p)
}

// CompileTwoRegistersToRegister implements
// Assembler.CompileTwoRegistersToRegister.
func (a *assemblerImpl) CompileTwoRegistersToRegister(instruction asm.Instruction, src2, src1, dst asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister[src2]
	p.SetFrom3(obj.Addr{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[src1]})
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[dst]
	a.addInstruction(p)
}

// CompileThreeRegistersToRegister implements
// Assembler.CompileThreeRegistersToRegister.
func (a *assemblerImpl) CompileThreeRegistersToRegister(instruction asm.Instruction, src3, src2, src1, dst asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister[src3]
	p.RestArgs = []obj.Addr{
		{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[src2]},
		{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[src1]},
	}
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[dst]
	a.addInstruction(p)
}

// CompileConstAndTwoRegistersToRegister implements
// Assembler.CompileConstAndTwoRegistersToRegister.
func (a *assemblerImpl) CompileConstAndTwoRegistersToRegister(instruction asm.Instruction, value int64, src2, src1, dst asm.Register) {
	p := a.newProg(instruction)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = value
	p.RestArgs = []obj.Addr{
		{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[src2]},
		{Type: obj.TYPE_REG, Reg: castAsGolangAsmRegister[src1]},
	}
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister[dst]
	a.addInstruction(p)
}

var castAsGolangAsmInstruction = map[asm.Instruction]obj.As{
	NOP:  obj.ANOP,
	RET:  obj.ARET,
	JMP:  obj.AJMP,
	CALL: obj.ACALL,
	UD2:  x86.AUD2,
	JEQ:  x86.AJEQ,
	JNE:  x86.AJNE,

	ADDQ:  x86.AADDQ,
	SUBQ:  x86.ASUBQ,
	CMPL:  x86.ACMPL,
	TESTL: x86.ATESTL,
	LEAQ:  x86.ALEAQ,
	MOVL:  x86.AMOVL,
	MOVQ:  x86.AMOVQ,
	PUSHQ: x86.APUSHQ,
	POPQ:  x86.APOPQ,

	MOVAPS:   x86.AMOVAPS,
	MOVAPD:   x86.AMOVAPD,
	MOVDQA:   x86.AMOVO,
	MOVHLPS:  x86.AMOVHLPS,
	MOVMSKPS: x86.AMOVMSKPS,
	PEXTRQ:   x86.APEXTRQ,

	ADDPS:  x86.AADDPS,
	ADDPD:  x86.AADDPD,
	SUBPS:  x86.ASUBPS,
	SUBPD:  x86.ASUBPD,
	MULPS:  x86.AMULPS,
	MULPD:  x86.AMULPD,
	DIVPS:  x86.ADIVPS,
	DIVPD:  x86.ADIVPD,
	MAXPS:  x86.AMAXPS,
	MAXPD:  x86.AMAXPD,
	MINPS:  x86.AMINPS,
	MINPD:  x86.AMINPD,
	HADDPS: x86.AHADDPS,
	HADDPD: x86.AHADDPD,

	ANDPS:  x86.AANDPS,
	ANDPD:  x86.AANDPD,
	ANDNPS: x86.AANDNPS,
	ORPS:   x86.AORPS,
	XORPS:  x86.AXORPS,
	PAND:   x86.APAND,
	POR:    x86.APOR,
	PXOR:   x86.APXOR,

	CMPPS:      x86.ACMPPS,
	CMPPD:      x86.ACMPPD,
	PCMPEQW:    x86.APCMPEQW,
	PTEST:      x86.APTEST,
	PSRLL:      x86.APSRLL,
	PSHUFD:     x86.APSHUFD,
	PBLENDW:    x86.APBLENDW,
	PUNPCKLLQ:  x86.APUNPCKLLQ,
	PUNPCKLQDQ: x86.APUNPCKLQDQ,
	UNPCKLPS:   x86.AUNPCKLPS,
	UNPCKLPD:   x86.AUNPCKLPD,

	CVTPL2PS: x86.ACVTPL2PS,
	CVTSQ2SD: x86.ACVTSQ2SD,

	VADDPS:      x86.AVADDPS,
	VSUBPD:      x86.AVSUBPD,
	VMAXPS:      x86.AVMAXPS,
	VMAXPD:      x86.AVMAXPD,
	VMINPS:      x86.AVMINPS,
	VMINPD:      x86.AVMINPD,
	VANDPS:      x86.AVANDPS,
	VANDPD:      x86.AVANDPD,
	VORPS:       x86.AVORPS,
	VORPD:       x86.AVORPD,
	VCMPPS:      x86.AVCMPPS,
	VCMPPD:      x86.AVCMPPD,
	VBLENDVPS:   x86.AVBLENDVPS,
	VBLENDVPD:   x86.AVBLENDVPD,
	VPBLENDW:    x86.AVPBLENDW,
	VPSRLD:      x86.AVPSRLD,
	VPERMILPS:   x86.AVPERMILPS,
	VUNPCKLPS:   x86.AVUNPCKLPS,
	VHADDPD:     x86.AVHADDPD,
	VMOVAPD:     x86.AVMOVAPD,
	VFMADD231PS: x86.AVFMADD231PS,
	VFMADD231PD: x86.AVFMADD231PD,
	VCVTUDQ2PS:  x86.AVCVTUDQ2PS,
	VCVTQQ2PD:   x86.AVCVTQQ2PD,
	VCVTUQQ2PD:  x86.AVCVTUQQ2PD,
}

var castAsGolangAsmRegister = map[asm.Register]int16{
	RegAX:  x86.REG_AX,
	RegCX:  x86.REG_CX,
	RegDX:  x86.REG_DX,
	RegBX:  x86.REG_BX,
	RegSP:  x86.REG_SP,
	RegBP:  x86.REG_BP,
	RegSI:  x86.REG_SI,
	RegDI:  x86.REG_DI,
	RegR8:  x86.REG_R8,
	RegR9:  x86.REG_R9,
	RegR10: x86.REG_R10,
	RegR11: x86.REG_R11,
	RegR12: x86.REG_R12,
	RegR13: x86.REG_R13,
	RegR14: x86.REG_R14,
	RegR15: x86.REG_R15,
	RegX0:  x86.REG_X0,
	RegX1:  x86.REG_X1,
	RegX2:  x86.REG_X2,
	RegX3:  x86.REG_X3,
	RegX4:  x86.REG_X4,
	RegX5:  x86.REG_X5,
	RegX6:  x86.REG_X6,
	RegX7:  x86.REG_X7,
	RegX8:  x86.REG_X8,
	RegX9:  x86.REG_X9,
	RegX10: x86.REG_X10,
	RegX11: x86.REG_X11,
	RegX12: x86.REG_X12,
	RegX13: x86.REG_X13,
	RegX14: x86.REG_X14,
	RegX15: x86.REG_X15,
}
