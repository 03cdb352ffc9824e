package thumb

import (
	"fmt"

	"github.com/Annomatg/dynarmic/internal/arm"
	"github.com/Annomatg/dynarmic/internal/ir"
)

// translatorVisitor emits the IR for one decoded instruction. Handlers
// return false to stop translation of the block.
type translatorVisitor struct {
	ir *ir.Emitter
}

// InterpretThisInstruction defers the rest of the block to the interpreter.
func (v *translatorVisitor) InterpretThisInstruction() bool {
	v.ir.SetTerm(ir.TermInterpret{Next: v.ir.CurrentLocation})
	return false
}

// UnpredictableInstruction refuses to translate an UNPREDICTABLE encoding.
// These are translator defects to be caught in testing, never silently run.
func (v *translatorVisitor) UnpredictableInstruction() bool {
	panic(fmt.Sprintf("thumb: UNPREDICTABLE at %s", v.ir.CurrentLocation))
}

func (v *translatorVisitor) thumb16LSLImm(f fields) bool {
	imm5, m, d := uint8(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	// LSLS <Rd>, <Rm>, #<imm5>
	cpsrC := v.ir.GetCFlag()
	result := v.ir.LogicalShiftLeft(v.ir.GetRegister(m), v.ir.Imm8(imm5), cpsrC)
	v.ir.SetRegister(d, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16LSRImm(f fields) bool {
	imm5, m, d := uint8(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	shiftN := imm5
	if shiftN == 0 {
		shiftN = 32
	}
	// LSRS <Rd>, <Rm>, #<imm5>
	cpsrC := v.ir.GetCFlag()
	result := v.ir.LogicalShiftRight(v.ir.GetRegister(m), v.ir.Imm8(shiftN), cpsrC)
	v.ir.SetRegister(d, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16ASRImm(f fields) bool {
	imm5, m, d := uint8(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	shiftN := imm5
	if shiftN == 0 {
		shiftN = 32
	}
	// ASRS <Rd>, <Rm>, #<imm5>
	cpsrC := v.ir.GetCFlag()
	result := v.ir.ArithmeticShiftRight(v.ir.GetRegister(m), v.ir.Imm8(shiftN), cpsrC)
	v.ir.SetRegister(d, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16ADDRegT1(f fields) bool {
	m, n, d := arm.Reg(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	// ADDS <Rd>, <Rn>, <Rm>
	// Note that it is not possible to encode Rd == R15.
	result := v.ir.AddWithCarry(v.ir.GetRegister(n), v.ir.GetRegister(m), v.ir.Imm1(false))
	v.ir.SetRegister(d, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16SUBReg(f fields) bool {
	m, n, d := arm.Reg(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	// SUBS <Rd>, <Rn>, <Rm>
	// Note that it is not possible to encode Rd == R15.
	result := v.ir.SubWithCarry(v.ir.GetRegister(n), v.ir.GetRegister(m), v.ir.Imm1(true))
	v.ir.SetRegister(d, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16ADDImmT1(f fields) bool {
	imm32, n, d := f[0]&0x7, arm.Reg(f[1]), arm.Reg(f[2])
	// ADDS <Rd>, <Rn>, #<imm3>
	// Rd can never encode R15.
	result := v.ir.AddWithCarry(v.ir.GetRegister(n), v.ir.Imm32(imm32), v.ir.Imm1(false))
	v.ir.SetRegister(d, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16SUBImmT1(f fields) bool {
	imm32, n, d := f[0]&0x7, arm.Reg(f[1]), arm.Reg(f[2])
	// SUBS <Rd>, <Rn>, #<imm3>
	// Rd can never encode R15.
	result := v.ir.SubWithCarry(v.ir.GetRegister(n), v.ir.Imm32(imm32), v.ir.Imm1(true))
	v.ir.SetRegister(d, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16MOVImm(f fields) bool {
	d, imm32 := arm.Reg(f[0]), f[1]&0xFF
	// MOVS <Rd>, #<imm8>
	// Rd can never encode R15.
	result := v.ir.Imm32(imm32)
	v.ir.SetRegister(d, result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16CMPImm(f fields) bool {
	n, imm32 := arm.Reg(f[0]), f[1]&0xFF
	// CMP <Rn>, #<imm8>
	result := v.ir.SubWithCarry(v.ir.GetRegister(n), v.ir.Imm32(imm32), v.ir.Imm1(true))
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16ADDImmT2(f fields) bool {
	dn, imm32 := arm.Reg(f[0]), f[1]&0xFF
	// ADDS <Rdn>, #<imm8>
	// Rd can never encode R15.
	result := v.ir.AddWithCarry(v.ir.GetRegister(dn), v.ir.Imm32(imm32), v.ir.Imm1(false))
	v.ir.SetRegister(dn, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16SUBImmT2(f fields) bool {
	dn, imm32 := arm.Reg(f[0]), f[1]&0xFF
	// SUBS <Rdn>, #<imm8>
	// Rd can never encode R15.
	result := v.ir.SubWithCarry(v.ir.GetRegister(dn), v.ir.Imm32(imm32), v.ir.Imm1(true))
	v.ir.SetRegister(dn, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16ANDReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// ANDS <Rdn>, <Rm>
	// Note that it is not possible to encode Rdn == R15.
	result := v.ir.And(v.ir.GetRegister(dn), v.ir.GetRegister(m))
	v.ir.SetRegister(dn, result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16EORReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// EORS <Rdn>, <Rm>
	// Note that it is not possible to encode Rdn == R15.
	result := v.ir.Eor(v.ir.GetRegister(dn), v.ir.GetRegister(m))
	v.ir.SetRegister(dn, result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16LSLReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// LSLS <Rdn>, <Rm>
	shiftN := v.ir.LeastSignificantByte(v.ir.GetRegister(m))
	apsrC := v.ir.GetCFlag()
	result := v.ir.LogicalShiftLeft(v.ir.GetRegister(dn), shiftN, apsrC)
	v.ir.SetRegister(dn, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16LSRReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// LSRS <Rdn>, <Rm>
	shiftN := v.ir.LeastSignificantByte(v.ir.GetRegister(m))
	cpsrC := v.ir.GetCFlag()
	result := v.ir.LogicalShiftRight(v.ir.GetRegister(dn), shiftN, cpsrC)
	v.ir.SetRegister(dn, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16ASRReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// ASRS <Rdn>, <Rm>
	shiftN := v.ir.LeastSignificantByte(v.ir.GetRegister(m))
	cpsrC := v.ir.GetCFlag()
	result := v.ir.ArithmeticShiftRight(v.ir.GetRegister(dn), shiftN, cpsrC)
	v.ir.SetRegister(dn, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16ADCReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// ADCS <Rdn>, <Rm>
	// Note that it is not possible to encode Rd == R15.
	apsrC := v.ir.GetCFlag()
	result := v.ir.AddWithCarry(v.ir.GetRegister(dn), v.ir.GetRegister(m), apsrC)
	v.ir.SetRegister(dn, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16SBCReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// SBCS <Rdn>, <Rm>
	// Note that it is not possible to encode Rd == R15.
	apsrC := v.ir.GetCFlag()
	result := v.ir.SubWithCarry(v.ir.GetRegister(dn), v.ir.GetRegister(m), apsrC)
	v.ir.SetRegister(dn, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16RORReg(f fields) bool {
	s, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// RORS <Rdn>, <Rs>
	shiftN := v.ir.LeastSignificantByte(v.ir.GetRegister(s))
	cpsrC := v.ir.GetCFlag()
	result := v.ir.RotateRight(v.ir.GetRegister(dn), shiftN, cpsrC)
	v.ir.SetRegister(dn, result.Result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result.Result))
	v.ir.SetZFlag(v.ir.IsZero(result.Result))
	v.ir.SetCFlag(result.Carry)
	return true
}

func (v *translatorVisitor) thumb16TSTReg(f fields) bool {
	m, n := arm.Reg(f[0]), arm.Reg(f[1])
	// TST <Rn>, <Rm>
	result := v.ir.And(v.ir.GetRegister(n), v.ir.GetRegister(m))
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16RSBImm(f fields) bool {
	n, d := arm.Reg(f[0]), arm.Reg(f[1])
	// RSBS <Rd>, <Rn>, #0
	// Rd can never encode R15.
	result := v.ir.SubWithCarry(v.ir.Imm32(0), v.ir.GetRegister(n), v.ir.Imm1(true))
	v.ir.SetRegister(d, result.Result)
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16CMPRegT1(f fields) bool {
	m, n := arm.Reg(f[0]), arm.Reg(f[1])
	// CMP <Rn>, <Rm>
	result := v.ir.SubWithCarry(v.ir.GetRegister(n), v.ir.GetRegister(m), v.ir.Imm1(true))
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16CMNReg(f fields) bool {
	m, n := arm.Reg(f[0]), arm.Reg(f[1])
	// CMN <Rn>, <Rm>
	result := v.ir.AddWithCarry(v.ir.GetRegister(n), v.ir.GetRegister(m), v.ir.Imm1(false))
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16ORRReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// ORRS <Rdn>, <Rm>
	// Rd cannot encode R15.
	result := v.ir.Or(v.ir.GetRegister(m), v.ir.GetRegister(dn))
	v.ir.SetRegister(dn, result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16BICReg(f fields) bool {
	m, dn := arm.Reg(f[0]), arm.Reg(f[1])
	// BICS <Rdn>, <Rm>
	// Rd cannot encode R15.
	result := v.ir.And(v.ir.GetRegister(dn), v.ir.Not(v.ir.GetRegister(m)))
	v.ir.SetRegister(dn, result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16MVNReg(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// MVNS <Rd>, <Rm>
	// Rd cannot encode R15.
	result := v.ir.Not(v.ir.GetRegister(m))
	v.ir.SetRegister(d, result)
	v.ir.SetNFlag(v.ir.MostSignificantBit(result))
	v.ir.SetZFlag(v.ir.IsZero(result))
	return true
}

func (v *translatorVisitor) thumb16ADDRegT2(f fields) bool {
	dnHi, m, dnLo := f[0] != 0, arm.Reg(f[1]), arm.Reg(f[2])
	dn := dnLo
	if dnHi {
		dn = dnLo + 8
	}
	if dn == arm.PC && m == arm.PC {
		return v.UnpredictableInstruction()
	}
	// ADD <Rdn>, <Rm>
	result := v.ir.AddWithCarry(v.ir.GetRegister(dn), v.ir.GetRegister(m), v.ir.Imm1(false))
	if dn == arm.PC {
		v.ir.ALUWritePC(result.Result)
		// Can't predict what the next executed block is. Stop compilation.
		v.ir.SetTerm(ir.TermReturnToDispatch{})
		return false
	}
	v.ir.SetRegister(dn, result.Result)
	return true
}

func (v *translatorVisitor) thumb16CMPRegT2(f fields) bool {
	nHi, m, nLo := f[0] != 0, arm.Reg(f[1]), arm.Reg(f[2])
	n := nLo
	if nHi {
		n = nLo + 8
	}
	if n < arm.R8 && m < arm.R8 {
		return v.UnpredictableInstruction()
	}
	if n == arm.PC || m == arm.PC {
		return v.UnpredictableInstruction()
	}
	// CMP <Rn>, <Rm>
	result := v.ir.SubWithCarry(v.ir.GetRegister(n), v.ir.GetRegister(m), v.ir.Imm1(true))
	v.setNZCV(result)
	return true
}

func (v *translatorVisitor) thumb16MOVReg(f fields) bool {
	dHi, m, dLo := f[0] != 0, arm.Reg(f[1]), arm.Reg(f[2])
	d := dLo
	if dHi {
		d = dLo + 8
	}
	// MOV <Rd>, <Rm>
	result := v.ir.GetRegister(m)
	if d == arm.PC {
		v.ir.ALUWritePC(result)
		v.ir.SetTerm(ir.TermReturnToDispatch{})
		return false
	}
	v.ir.SetRegister(d, result)
	return true
}

func (v *translatorVisitor) thumb16LDRLiteral(f fields) bool {
	t, imm32 := arm.Reg(f[0]), f[1]<<2
	// LDR <Rt>, <label>
	// Rt cannot encode R15.
	address := v.ir.AlignPC(4) + imm32
	data := v.ir.ReadMemory32(v.ir.Imm32(address))
	v.ir.SetRegister(t, data)
	return true
}

func (v *translatorVisitor) thumb16STRReg(f fields) bool {
	m, n, t := arm.Reg(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	// STR <Rt>, [<Rn>, <Rm>]
	// Rt cannot encode R15.
	address := v.ir.Add(v.ir.GetRegister(n), v.ir.GetRegister(m))
	data := v.ir.GetRegister(t)
	v.ir.WriteMemory32(address, data)
	return true
}

func (v *translatorVisitor) thumb16STRHReg(f fields) bool {
	m, n, t := arm.Reg(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	// STRH <Rt>, [<Rn>, <Rm>]
	// Rt cannot encode R15.
	address := v.ir.Add(v.ir.GetRegister(n), v.ir.GetRegister(m))
	data := v.ir.LeastSignificantHalf(v.ir.GetRegister(t))
	v.ir.WriteMemory16(address, data)
	return true
}

func (v *translatorVisitor) thumb16STRBReg(f fields) bool {
	m, n, t := arm.Reg(f[0]), arm.Reg(f[1]), arm.Reg(f[2])
	// STRB <Rt>, [<Rn>, <Rm>]
	// Rt cannot encode R15.
	address := v.ir.Add(v.ir.GetRegister(n), v.ir.GetRegister(m))
	data := v.ir.LeastSignificantByte(v.ir.GetRegister(t))
	v.ir.WriteMemory8(address, data)
	return true
}

func (v *translatorVisitor) thumb16LDRImmT1(f fields) bool {
	imm32, n, t := f[0]<<2, arm.Reg(f[1]), arm.Reg(f[2])
	// LDR <Rt>, [<Rn>, #<imm>]
	// Rt cannot encode R15.
	address := v.ir.Add(v.ir.GetRegister(n), v.ir.Imm32(imm32))
	data := v.ir.ReadMemory32(address)
	v.ir.SetRegister(t, data)
	return true
}

func (v *translatorVisitor) thumb16ADR(f fields) bool {
	d, imm32 := arm.Reg(f[0]), f[1]<<2
	// ADR <Rd>, <label>
	// Rd cannot encode R15.
	result := v.ir.Imm32(v.ir.AlignPC(4) + imm32)
	v.ir.SetRegister(d, result)
	return true
}

func (v *translatorVisitor) thumb16ADDSpT1(f fields) bool {
	d, imm32 := arm.Reg(f[0]), f[1]<<2
	// ADD <Rd>, SP, #<imm>
	result := v.ir.AddWithCarry(v.ir.GetRegister(arm.SP), v.ir.Imm32(imm32), v.ir.Imm1(false))
	v.ir.SetRegister(d, result.Result)
	return true
}

func (v *translatorVisitor) thumb16ADDSpT2(f fields) bool {
	imm32 := f[0] << 2
	// ADD SP, SP, #<imm>
	result := v.ir.AddWithCarry(v.ir.GetRegister(arm.SP), v.ir.Imm32(imm32), v.ir.Imm1(false))
	v.ir.SetRegister(arm.SP, result.Result)
	return true
}

func (v *translatorVisitor) thumb16SUBSp(f fields) bool {
	imm32 := f[0] << 2
	// SUB SP, SP, #<imm>
	result := v.ir.SubWithCarry(v.ir.GetRegister(arm.SP), v.ir.Imm32(imm32), v.ir.Imm1(true))
	v.ir.SetRegister(arm.SP, result.Result)
	return true
}

func (v *translatorVisitor) thumb16SXTH(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// SXTH <Rd>, <Rm>
	// Rd cannot encode R15.
	half := v.ir.LeastSignificantHalf(v.ir.GetRegister(m))
	v.ir.SetRegister(d, v.ir.SignExtendHalfToWord(half))
	return true
}

func (v *translatorVisitor) thumb16SXTB(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// SXTB <Rd>, <Rm>
	// Rd cannot encode R15.
	b := v.ir.LeastSignificantByte(v.ir.GetRegister(m))
	v.ir.SetRegister(d, v.ir.SignExtendByteToWord(b))
	return true
}

func (v *translatorVisitor) thumb16UXTH(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// UXTH <Rd>, <Rm>
	// Rd cannot encode R15.
	half := v.ir.LeastSignificantHalf(v.ir.GetRegister(m))
	v.ir.SetRegister(d, v.ir.ZeroExtendHalfToWord(half))
	return true
}

func (v *translatorVisitor) thumb16UXTB(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// UXTB <Rd>, <Rm>
	// Rd cannot encode R15.
	b := v.ir.LeastSignificantByte(v.ir.GetRegister(m))
	v.ir.SetRegister(d, v.ir.ZeroExtendByteToWord(b))
	return true
}

func (v *translatorVisitor) thumb16REV(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// REV <Rd>, <Rm>
	// Rd cannot encode R15.
	v.ir.SetRegister(d, v.ir.ByteReverseWord(v.ir.GetRegister(m)))
	return true
}

func (v *translatorVisitor) thumb16REV16(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// REV16 <Rd>, <Rm>
	// Rd cannot encode R15.
	rm := v.ir.GetRegister(m)
	upperHalf := v.ir.LeastSignificantHalf(v.ir.LogicalShiftRight(rm, v.ir.Imm8(16), v.ir.Imm1(false)).Result)
	lowerHalf := v.ir.LeastSignificantHalf(rm)
	revUpperHalf := v.ir.ZeroExtendHalfToWord(v.ir.ByteReverseHalf(upperHalf))
	revLowerHalf := v.ir.ZeroExtendHalfToWord(v.ir.ByteReverseHalf(lowerHalf))
	result := v.ir.Or(v.ir.LogicalShiftLeft(revUpperHalf, v.ir.Imm8(16), v.ir.Imm1(false)).Result, revLowerHalf)
	v.ir.SetRegister(d, result)
	return true
}

func (v *translatorVisitor) thumb16REVSH(f fields) bool {
	m, d := arm.Reg(f[0]), arm.Reg(f[1])
	// REVSH <Rd>, <Rm>
	// Rd cannot encode R15.
	revHalf := v.ir.ByteReverseHalf(v.ir.LeastSignificantHalf(v.ir.GetRegister(m)))
	v.ir.SetRegister(d, v.ir.SignExtendHalfToWord(revHalf))
	return true
}

func (v *translatorVisitor) thumb16UDF(fields) bool {
	return v.InterpretThisInstruction()
}

func (v *translatorVisitor) thumb16SVC(f fields) bool {
	imm32 := f[0]
	// SVC #<imm8>
	v.ir.CallSupervisor(v.ir.Imm32(imm32))
	// Execution resumes at the following instruction once the supervisor
	// call returns.
	v.ir.SetTerm(ir.TermLinkBlock{Next: v.ir.CurrentLocation.AdvancePC(2)})
	return false
}

func (v *translatorVisitor) setNZCV(r ir.ResultCarryOverflow) {
	v.ir.SetNFlag(v.ir.MostSignificantBit(r.Result))
	v.ir.SetZFlag(v.ir.IsZero(r.Result))
	v.ir.SetCFlag(r.Carry)
	v.ir.SetVFlag(r.Overflow)
}
