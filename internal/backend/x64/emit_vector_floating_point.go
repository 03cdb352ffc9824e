package x64

import (
	"fmt"

	"github.com/Annomatg/dynarmic/internal/asm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
	"github.com/Annomatg/dynarmic/internal/fp"
	"github.com/Annomatg/dynarmic/internal/ir"
	"github.com/Annomatg/dynarmic/internal/platform"
)

// EmitX64 compiles the floating-point vector IR operations into host code.
type EmitX64 struct {
	code *BlockOfCode
}

// NewEmitX64 returns an emitter writing into the given block of code.
func NewEmitX64(code *BlockOfCode) *EmitX64 { return &EmitX64{code: code} }

// fcode picks the single or double precision form of an instruction pair.
func fcode(fsize int, ps, pd asm.Instruction) asm.Instruction {
	switch fsize {
	case 32:
		return ps
	case 64:
		return pd
	}
	panic("x64: fsize must be either 32 or 64")
}

// twoOpSink emits `result = op(result, b)`.
type twoOpSink func(result, b asm.Register)

// threeOpSink emits `result = op(result, b, c)`.
type threeOpSink func(result, b, c asm.Register)

func (e *EmitX64) op2(inst asm.Instruction) twoOpSink {
	return func(result, b asm.Register) {
		e.code.Asm().CompileRegisterToRegister(inst, b, result)
	}
}

// EmitInst compiles one vector instruction of the block.
func (e *EmitX64) EmitInst(ctx *EmitContext, index int) {
	inst := ctx.Block.Inst(index)
	switch inst.Opcode() {
	case ir.OpGetVector:
		e.emitGetVector(ctx, index)
	case ir.OpSetVector:
		e.emitSetVector(ctx, index)
	case ir.OpFPVectorAbs16:
		e.emitVectorAndConst(ctx, index, amd64.PAND, 0x7FFF7FFF7FFF7FFF, 0x7FFF7FFF7FFF7FFF)
	case ir.OpFPVectorAbs32:
		e.emitVectorAndConst(ctx, index, amd64.ANDPS, 0x7FFFFFFF7FFFFFFF, 0x7FFFFFFF7FFFFFFF)
	case ir.OpFPVectorAbs64:
		e.emitVectorAndConst(ctx, index, amd64.ANDPD, 0x7FFFFFFFFFFFFFFF, 0x7FFFFFFFFFFFFFFF)
	case ir.OpFPVectorNeg16:
		e.emitVectorAndConst(ctx, index, amd64.PXOR, 0x8000800080008000, 0x8000800080008000)
	case ir.OpFPVectorNeg32:
		e.emitVectorAndConst(ctx, index, amd64.PXOR, 0x8000000080000000, 0x8000000080000000)
	case ir.OpFPVectorNeg64:
		e.emitVectorAndConst(ctx, index, amd64.PXOR, 0x8000000000000000, 0x8000000000000000)
	case ir.OpFPVectorAdd32:
		e.emitThreeOpVectorOperation(ctx, index, 32, IndexerDefault, e.op2(amd64.ADDPS), nil)
	case ir.OpFPVectorAdd64:
		e.emitThreeOpVectorOperation(ctx, index, 64, IndexerDefault, e.op2(amd64.ADDPD), nil)
	case ir.OpFPVectorSub32:
		e.emitThreeOpVectorOperation(ctx, index, 32, IndexerDefault, e.op2(amd64.SUBPS), nil)
	case ir.OpFPVectorSub64:
		e.emitThreeOpVectorOperation(ctx, index, 64, IndexerDefault, e.op2(amd64.SUBPD), nil)
	case ir.OpFPVectorMul32:
		e.emitThreeOpVectorOperation(ctx, index, 32, IndexerDefault, e.op2(amd64.MULPS), nil)
	case ir.OpFPVectorMul64:
		e.emitThreeOpVectorOperation(ctx, index, 64, IndexerDefault, e.op2(amd64.MULPD), nil)
	case ir.OpFPVectorDiv32:
		e.emitThreeOpVectorOperation(ctx, index, 32, IndexerDefault, e.op2(amd64.DIVPS), nil)
	case ir.OpFPVectorDiv64:
		e.emitThreeOpVectorOperation(ctx, index, 64, IndexerDefault, e.op2(amd64.DIVPD), nil)
	case ir.OpFPVectorMax32:
		e.emitMax(ctx, index, 32)
	case ir.OpFPVectorMax64:
		e.emitMax(ctx, index, 64)
	case ir.OpFPVectorMin32:
		e.emitMin(ctx, index, 32)
	case ir.OpFPVectorMin64:
		e.emitMin(ctx, index, 64)
	case ir.OpFPVectorMulAdd32:
		e.emitMulAdd(ctx, index, 32)
	case ir.OpFPVectorMulAdd64:
		e.emitMulAdd(ctx, index, 64)
	case ir.OpFPVectorPairedAdd32:
		e.emitThreeOpVectorOperation(ctx, index, 32, IndexerPaired, e.op2(amd64.HADDPS), nil)
	case ir.OpFPVectorPairedAdd64:
		e.emitThreeOpVectorOperation(ctx, index, 64, IndexerPaired, e.op2(amd64.HADDPD), nil)
	case ir.OpFPVectorPairedAddLower32:
		e.emitPairedAddLower(ctx, index, 32)
	case ir.OpFPVectorPairedAddLower64:
		e.emitPairedAddLower(ctx, index, 64)
	case ir.OpFPVectorRecipEstimate32:
		e.emitTwoOpFallback(ctx, index, recipEstimateThunks[32])
	case ir.OpFPVectorRecipEstimate64:
		e.emitTwoOpFallback(ctx, index, recipEstimateThunks[64])
	case ir.OpFPVectorRecipStepFused32:
		e.emitThreeOpFallback(ctx, index, recipStepThunks[32])
	case ir.OpFPVectorRecipStepFused64:
		e.emitThreeOpFallback(ctx, index, recipStepThunks[64])
	case ir.OpFPVectorRSqrtEstimate32:
		e.emitTwoOpFallback(ctx, index, rsqrtEstimateThunks[32])
	case ir.OpFPVectorRSqrtEstimate64:
		e.emitTwoOpFallback(ctx, index, rsqrtEstimateThunks[64])
	case ir.OpFPVectorRSqrtStepFused32:
		e.emitThreeOpFallback(ctx, index, rsqrtStepThunks[32])
	case ir.OpFPVectorRSqrtStepFused64:
		e.emitThreeOpFallback(ctx, index, rsqrtStepThunks[64])
	case ir.OpFPVectorEqual32:
		e.emitCompare(ctx, index, 32, amd64.CmpPredicateEQ_OQ, false)
	case ir.OpFPVectorEqual64:
		e.emitCompare(ctx, index, 64, amd64.CmpPredicateEQ_OQ, false)
	case ir.OpFPVectorGreater32:
		e.emitCompare(ctx, index, 32, amd64.CmpPredicateLT_OS, true)
	case ir.OpFPVectorGreater64:
		e.emitCompare(ctx, index, 64, amd64.CmpPredicateLT_OS, true)
	case ir.OpFPVectorGreaterEqual32:
		e.emitCompare(ctx, index, 32, amd64.CmpPredicateLE_OS, true)
	case ir.OpFPVectorGreaterEqual64:
		e.emitCompare(ctx, index, 64, amd64.CmpPredicateLE_OS, true)
	case ir.OpFPVectorS32ToSingle:
		e.emitS32ToSingle(ctx, index)
	case ir.OpFPVectorS64ToDouble:
		e.emitS64ToDouble(ctx, index)
	case ir.OpFPVectorU32ToSingle:
		e.emitU32ToSingle(ctx, index)
	case ir.OpFPVectorU64ToDouble:
		e.emitU64ToDouble(ctx, index)
	case ir.OpFPVectorToSignedFixed32:
		e.emitToFixed(ctx, index, 32, false)
	case ir.OpFPVectorToSignedFixed64:
		e.emitToFixed(ctx, index, 64, false)
	case ir.OpFPVectorToUnsignedFixed32:
		e.emitToFixed(ctx, index, 32, true)
	case ir.OpFPVectorToUnsignedFixed64:
		e.emitToFixed(ctx, index, 64, true)
	default:
		panic(fmt.Sprintf("x64: no emitter for %s", inst.Opcode()))
	}
	ctx.RegAlloc.EndOfAllocScope()
}

func (e *EmitX64) emitGetVector(ctx *EmitContext, index int) {
	n := ctx.Block.Inst(index).Arg(0).U32()
	xmm := ctx.RegAlloc.ScratchXmm()
	offset := int64(e.code.JitStateInfo().OffsetExtRegs) + int64(n)*16
	e.code.Asm().CompileMemoryToRegister(amd64.MOVAPS, JitStateReg, offset, xmm)
	ctx.RegAlloc.DefineValue(index, xmm)
}

func (e *EmitX64) emitSetVector(ctx *EmitContext, index int) {
	inst := ctx.Block.Inst(index)
	n := inst.Arg(0).U32()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	xmm := ctx.RegAlloc.UseXmm(args[1])
	offset := int64(e.code.JitStateInfo().OffsetExtRegs) + int64(n)*16
	e.code.Asm().CompileRegisterToMemory(amd64.MOVAPS, xmm, JitStateReg, offset)
}

// emitVectorAndConst implements the sign-manipulation group: a bitwise
// operation against a pooled mask.
func (e *EmitX64) emitVectorAndConst(ctx *EmitContext, index int, inst asm.Instruction, lo, hi uint64) {
	args := ctx.RegAlloc.GetArgumentInfo(index)
	a := ctx.RegAlloc.UseScratchXmm(args[0])
	mask := ctx.RegAlloc.ScratchXmm()
	gpr := ctx.RegAlloc.ScratchGpr()

	e.code.LoadMConst(mask, lo, hi, gpr)
	e.code.Asm().CompileRegisterToRegister(inst, mask, a)

	ctx.RegAlloc.DefineValue(index, a)
}

// forceToDefaultNaN replaces every NaN lane of xmm with the architectural
// default NaN: ord-compare the register against itself, keep the ordered
// lanes, and merge the default NaN into the rest.
func (e *EmitX64) forceToDefaultNaN(ctx *EmitContext, fsize int, xmm asm.Register) {
	a := e.code.Asm()
	nanMask := ctx.RegAlloc.ScratchXmm()
	tmp := ctx.RegAlloc.ScratchXmm()
	gpr := ctx.RegAlloc.ScratchGpr()

	a.CompileRegisterToRegister(amd64.PCMPEQW, tmp, tmp)
	a.CompileRegisterToRegister(amd64.MOVAPS, xmm, nanMask)
	a.CompileRegisterToRegisterWithPredicate(fcode(fsize, amd64.CMPPS, amd64.CMPPD), nanMask, nanMask, amd64.CmpPredicateORD_Q)
	a.CompileRegisterToRegister(amd64.ANDPS, nanMask, xmm)
	a.CompileRegisterToRegister(amd64.XORPS, tmp, nanMask)
	if fsize == 32 {
		e.code.LoadMConst(tmp, 0x7FC0_0000_7FC0_0000, 0x7FC0_0000_7FC0_0000, gpr)
	} else {
		e.code.LoadMConst(tmp, 0x7FF8_0000_0000_0000, 0x7FF8_0000_0000_0000, gpr)
	}
	a.CompileRegisterToRegister(amd64.ANDPS, tmp, nanMask)
	a.CompileRegisterToRegister(amd64.ORPS, nanMask, xmm)
}

// handleNaNs emits the accurate-NaN epilogue: test the accumulated mask and,
// in cold code, spill the operand frame, run the scalar fix-up and reload
// the result.
func (e *EmitX64) handleNaNs(ctx *EmitContext, xmms []asm.Register, nanMask asm.Register, handler *Thunk) {
	a := e.code.Asm()

	if e.code.DoesCpuSupport(platform.CpuFeatureSSE41) {
		a.CompileRegisterToRegister(amd64.PTEST, nanMask, nanMask)
	} else {
		bitmask := ctx.RegAlloc.ScratchGpr()
		a.CompileRegisterToRegister(amd64.MOVMSKPS, nanMask, bitmask)
		a.CompileRegisterToRegister(amd64.TESTL, bitmask, bitmask)
	}

	nan := a.CompileJump(amd64.JNE)

	result := xmms[0]

	e.code.SwitchToFarCode()
	a.SetJumpTargetOnNext(nan)

	a.CompileConstToRegister(amd64.SUBQ, 8, amd64.RegSP)
	e.code.ABIPushCallerSaveRegistersAndAdjustStackExcept(result)

	stackSpace := int64(len(xmms) * 16)
	a.CompileConstToRegister(amd64.SUBQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	for i, xmm := range xmms {
		a.CompileRegisterToMemory(amd64.MOVAPS, xmm, amd64.RegSP, ABIShadowSpace+int64(i)*16)
	}
	a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace, abiParamRegisters[0])

	e.code.CallFunction(handler)

	a.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, ABIShadowSpace, result)
	a.CompileConstToRegister(amd64.ADDQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	e.code.ABIPopCallerSaveRegistersAndAdjustStackExcept(result)
	a.CompileConstToRegister(amd64.ADDQ, 8, amd64.RegSP)

	end := a.CompileJump(amd64.JMP)
	e.code.SwitchToNearCode()
	a.SetJumpTargetOnNext(end)
}

// emitThreeOpVectorOperation compiles a two-source lane-wise operation
// following the two-tier strategy: native host instruction (with a
// Default-NaN sweep when FPCR.DN is set), or the accurate path that
// accumulates a NaN mask and fixes lanes up in cold code.
func (e *EmitX64) emitThreeOpVectorOperation(ctx *EmitContext, index, fsize int, indexer Indexer, fn twoOpSink, handler *Thunk) {
	if handler == nil {
		handler = nanFixupThunks[nanThunkKey{fsize: fsize, indexer: indexer, nargs: 2}]
	}
	a := e.code.Asm()

	if !ctx.AccurateNaN() || ctx.FPSCRDN() {
		args := ctx.RegAlloc.GetArgumentInfo(index)
		xmmA := ctx.RegAlloc.UseScratchXmm(args[0])
		xmmB := ctx.RegAlloc.UseXmm(args[1])

		fn(xmmA, xmmB)

		if ctx.FPSCRDN() {
			e.forceToDefaultNaN(ctx, fsize, xmmA)
		}

		ctx.RegAlloc.DefineValue(index, xmmA)
		return
	}

	args := ctx.RegAlloc.GetArgumentInfo(index)
	result := ctx.RegAlloc.ScratchXmm()
	xmmA := ctx.RegAlloc.UseXmm(args[0])
	xmmB := ctx.RegAlloc.UseXmm(args[1])
	nanMask := ctx.RegAlloc.ScratchXmm()

	cmpunordp := fcode(fsize, amd64.CMPPS, amd64.CMPPD)
	a.CompileRegisterToRegister(amd64.MOVAPS, xmmB, nanMask)
	a.CompileRegisterToRegister(amd64.MOVAPS, xmmA, result)
	a.CompileRegisterToRegisterWithPredicate(cmpunordp, xmmA, nanMask, amd64.CmpPredicateUNORD_Q)
	fn(result, xmmB)
	a.CompileRegisterToRegisterWithPredicate(cmpunordp, result, nanMask, amd64.CmpPredicateUNORD_Q)

	e.handleNaNs(ctx, []asm.Register{result, xmmA, xmmB}, nanMask, handler)

	ctx.RegAlloc.DefineValue(index, result)
}

// emitFourOpVectorOperation is emitThreeOpVectorOperation for three-source
// operations.
func (e *EmitX64) emitFourOpVectorOperation(ctx *EmitContext, index, fsize int, fn threeOpSink, handler *Thunk) {
	if handler == nil {
		handler = nanFixupThunks[nanThunkKey{fsize: fsize, indexer: IndexerDefault, nargs: 3}]
	}
	a := e.code.Asm()

	if !ctx.AccurateNaN() || ctx.FPSCRDN() {
		args := ctx.RegAlloc.GetArgumentInfo(index)
		xmmA := ctx.RegAlloc.UseScratchXmm(args[0])
		xmmB := ctx.RegAlloc.UseXmm(args[1])
		xmmC := ctx.RegAlloc.UseXmm(args[2])

		fn(xmmA, xmmB, xmmC)

		if ctx.FPSCRDN() {
			e.forceToDefaultNaN(ctx, fsize, xmmA)
		}

		ctx.RegAlloc.DefineValue(index, xmmA)
		return
	}

	args := ctx.RegAlloc.GetArgumentInfo(index)
	result := ctx.RegAlloc.ScratchXmm()
	xmmA := ctx.RegAlloc.UseXmm(args[0])
	xmmB := ctx.RegAlloc.UseXmm(args[1])
	xmmC := ctx.RegAlloc.UseXmm(args[2])
	nanMask := ctx.RegAlloc.ScratchXmm()

	cmpunordp := fcode(fsize, amd64.CMPPS, amd64.CMPPD)
	a.CompileRegisterToRegister(amd64.MOVAPS, xmmB, nanMask)
	a.CompileRegisterToRegister(amd64.MOVAPS, xmmA, result)
	a.CompileRegisterToRegisterWithPredicate(cmpunordp, xmmA, nanMask, amd64.CmpPredicateUNORD_Q)
	a.CompileRegisterToRegisterWithPredicate(cmpunordp, xmmC, nanMask, amd64.CmpPredicateUNORD_Q)
	fn(result, xmmB, xmmC)
	a.CompileRegisterToRegisterWithPredicate(cmpunordp, result, nanMask, amd64.CmpPredicateUNORD_Q)

	e.handleNaNs(ctx, []asm.Register{result, xmmA, xmmB, xmmC}, nanMask, handler)

	ctx.RegAlloc.DefineValue(index, result)
}

// emitMax implements the signed-zero-aware maximum: x86 believes +0 and -0
// equal, so lanes the host compare calls equal are replaced by a AND b,
// which turns a (+0, -0) pair into +0.
func (e *EmitX64) emitMax(ctx *EmitContext, index, fsize int) {
	a := e.code.Asm()
	e.emitThreeOpVectorOperation(ctx, index, fsize, IndexerDefault, func(result, xmmB asm.Register) {
		mask := ctx.RegAlloc.ScratchXmm()
		anded := ctx.RegAlloc.ScratchXmm()

		if e.code.DoesCpuSupport(platform.CpuFeatureAVX) {
			a.CompileConstAndTwoRegistersToRegister(fcode(fsize, amd64.VCMPPS, amd64.VCMPPD), int64(amd64.CmpPredicateEQ_OQ), xmmB, result, mask)
			a.CompileTwoRegistersToRegister(fcode(fsize, amd64.VANDPS, amd64.VANDPD), xmmB, result, anded)
			a.CompileTwoRegistersToRegister(fcode(fsize, amd64.VMAXPS, amd64.VMAXPD), xmmB, result, result)
			a.CompileThreeRegistersToRegister(fcode(fsize, amd64.VBLENDVPS, amd64.VBLENDVPD), mask, anded, result, result)
		} else {
			a.CompileRegisterToRegister(amd64.MOVAPS, result, mask)
			a.CompileRegisterToRegister(amd64.MOVAPS, result, anded)
			a.CompileRegisterToRegisterWithPredicate(fcode(fsize, amd64.CMPPS, amd64.CMPPD), xmmB, mask, amd64.CmpPredicateNEQ_UQ)

			a.CompileRegisterToRegister(amd64.ANDPS, xmmB, anded)
			a.CompileRegisterToRegister(fcode(fsize, amd64.MAXPS, amd64.MAXPD), xmmB, result)

			a.CompileRegisterToRegister(amd64.ANDPS, mask, result)
			a.CompileRegisterToRegister(amd64.ANDNPS, anded, mask)
			a.CompileRegisterToRegister(amd64.ORPS, mask, result)
		}
	}, nil)
}

// emitMin mirrors emitMax with OR, which turns a (+0, -0) pair into -0.
func (e *EmitX64) emitMin(ctx *EmitContext, index, fsize int) {
	a := e.code.Asm()
	e.emitThreeOpVectorOperation(ctx, index, fsize, IndexerDefault, func(result, xmmB asm.Register) {
		mask := ctx.RegAlloc.ScratchXmm()
		ored := ctx.RegAlloc.ScratchXmm()

		if e.code.DoesCpuSupport(platform.CpuFeatureAVX) {
			a.CompileConstAndTwoRegistersToRegister(fcode(fsize, amd64.VCMPPS, amd64.VCMPPD), int64(amd64.CmpPredicateEQ_OQ), xmmB, result, mask)
			a.CompileTwoRegistersToRegister(fcode(fsize, amd64.VORPS, amd64.VORPD), xmmB, result, ored)
			a.CompileTwoRegistersToRegister(fcode(fsize, amd64.VMINPS, amd64.VMINPD), xmmB, result, result)
			a.CompileThreeRegistersToRegister(fcode(fsize, amd64.VBLENDVPS, amd64.VBLENDVPD), mask, ored, result, result)
		} else {
			a.CompileRegisterToRegister(amd64.MOVAPS, result, mask)
			a.CompileRegisterToRegister(amd64.MOVAPS, result, ored)
			a.CompileRegisterToRegisterWithPredicate(fcode(fsize, amd64.CMPPS, amd64.CMPPD), xmmB, mask, amd64.CmpPredicateNEQ_UQ)

			a.CompileRegisterToRegister(amd64.ORPS, xmmB, ored)
			a.CompileRegisterToRegister(fcode(fsize, amd64.MINPS, amd64.MINPD), xmmB, result)

			a.CompileRegisterToRegister(amd64.ANDPS, mask, result)
			a.CompileRegisterToRegister(amd64.ANDNPS, ored, mask)
			a.CompileRegisterToRegister(amd64.ORPS, mask, result)
		}
	}, nil)
}

// emitMulAdd uses the fused host instruction when the CPU has FMA, with the
// specialized NaN fix-up for the quiet-NaN-addend rule; otherwise every
// lane goes through the scalar FPMulAdd.
func (e *EmitX64) emitMulAdd(ctx *EmitContext, index, fsize int) {
	if e.code.DoesCpuSupport(platform.CpuFeatureFMA) {
		vfmadd := fcode(fsize, amd64.VFMADD231PS, amd64.VFMADD231PD)
		e.emitFourOpVectorOperation(ctx, index, fsize, func(result, b, c asm.Register) {
			e.code.Asm().CompileTwoRegistersToRegister(vfmadd, c, b, result)
		}, fmaNaNThunks[fsize])
		return
	}

	e.emitFourOpFallback(ctx, index, mulAddFallbackThunks[fsize])
}

func (e *EmitX64) emitCompare(ctx *EmitContext, index, fsize int, predicate byte, reversed bool) {
	args := ctx.RegAlloc.GetArgumentInfo(index)
	cmpp := fcode(fsize, amd64.CMPPS, amd64.CMPPD)

	if reversed {
		// b < a computes a > b; the destination takes the second operand.
		a := ctx.RegAlloc.UseXmm(args[0])
		b := ctx.RegAlloc.UseScratchXmm(args[1])
		e.code.Asm().CompileRegisterToRegisterWithPredicate(cmpp, a, b, predicate)
		ctx.RegAlloc.DefineValue(index, b)
		return
	}

	a := ctx.RegAlloc.UseScratchXmm(args[0])
	b := ctx.RegAlloc.UseXmm(args[1])
	e.code.Asm().CompileRegisterToRegisterWithPredicate(cmpp, b, a, predicate)
	ctx.RegAlloc.DefineValue(index, a)
}

func (e *EmitX64) emitPairedAddLower(ctx *EmitContext, index, fsize int) {
	a := e.code.Asm()
	e.emitThreeOpVectorOperation(ctx, index, fsize, IndexerPairedLower, func(result, xmmB asm.Register) {
		zero := ctx.RegAlloc.ScratchXmm()
		a.CompileRegisterToRegister(amd64.XORPS, zero, zero)
		a.CompileRegisterToRegister(amd64.PUNPCKLQDQ, xmmB, result)
		a.CompileRegisterToRegister(fcode(fsize, amd64.HADDPS, amd64.HADDPD), zero, result)
	}, nil)
}

func (e *EmitX64) emitS32ToSingle(ctx *EmitContext, index int) {
	args := ctx.RegAlloc.GetArgumentInfo(index)
	xmm := ctx.RegAlloc.UseScratchXmm(args[0])

	e.code.Asm().CompileRegisterToRegister(amd64.CVTPL2PS, xmm, xmm)

	ctx.RegAlloc.DefineValue(index, xmm)
}

func (e *EmitX64) emitS64ToDouble(ctx *EmitContext, index int) {
	a := e.code.Asm()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	xmm := ctx.RegAlloc.UseScratchXmm(args[0])

	switch {
	case e.code.DoesCpuSupport(platform.CpuFeatureAVX512VL) && e.code.DoesCpuSupport(platform.CpuFeatureAVX512DQ):
		a.CompileRegisterToRegister(amd64.VCVTQQ2PD, xmm, xmm)
	case e.code.DoesCpuSupport(platform.CpuFeatureSSE41):
		xmmTmp := ctx.RegAlloc.ScratchXmm()
		tmp := ctx.RegAlloc.ScratchGpr()

		// First quadword.
		a.CompileRegisterToRegister(amd64.MOVQ, xmm, tmp)
		a.CompileRegisterToRegister(amd64.CVTSQ2SD, tmp, xmm)

		// Second quadword.
		a.CompileConstAndRegisterToRegister(amd64.PEXTRQ, 1, xmm, tmp)
		a.CompileRegisterToRegister(amd64.CVTSQ2SD, tmp, xmmTmp)

		// Combine.
		a.CompileRegisterToRegister(amd64.UNPCKLPD, xmmTmp, xmm)
	default:
		highXmm := ctx.RegAlloc.ScratchXmm()
		xmmTmp := ctx.RegAlloc.ScratchXmm()
		tmp := ctx.RegAlloc.ScratchGpr()

		// First quadword.
		a.CompileRegisterToRegister(amd64.MOVHLPS, xmm, highXmm)
		a.CompileRegisterToRegister(amd64.MOVQ, xmm, tmp)
		a.CompileRegisterToRegister(amd64.CVTSQ2SD, tmp, xmm)

		// Second quadword.
		a.CompileRegisterToRegister(amd64.MOVQ, highXmm, tmp)
		a.CompileRegisterToRegister(amd64.CVTSQ2SD, tmp, xmmTmp)

		// Combine.
		a.CompileRegisterToRegister(amd64.UNPCKLPD, xmmTmp, xmm)
	}

	ctx.RegAlloc.DefineValue(index, xmm)
}

func (e *EmitX64) emitU32ToSingle(ctx *EmitContext, index int) {
	a := e.code.Asm()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	xmm := ctx.RegAlloc.UseScratchXmm(args[0])

	if e.code.DoesCpuSupport(platform.CpuFeatureAVX512DQ) && e.code.DoesCpuSupport(platform.CpuFeatureAVX512VL) {
		a.CompileRegisterToRegister(amd64.VCVTUDQ2PS, xmm, xmm)
	} else {
		// Split each lane into 16-bit halves carrying magic exponents, then
		// cancel the combined bias: low half scaled 2^23, high half 2^39,
		// merged by the subtracting add.
		tmp := ctx.RegAlloc.ScratchXmm()
		konst := ctx.RegAlloc.ScratchXmm()
		gpr := ctx.RegAlloc.ScratchGpr()

		if e.code.DoesCpuSupport(platform.CpuFeatureAVX) {
			e.code.LoadMConst(konst, 0x4B00_0000_4B00_0000, 0x4B00_0000_4B00_0000, gpr)
			a.CompileConstAndTwoRegistersToRegister(amd64.VPBLENDW, 0b10101010, konst, xmm, tmp)
			a.CompileConstAndRegisterToRegister(amd64.VPSRLD, 16, xmm, xmm)
			e.code.LoadMConst(konst, 0x5300_0000_5300_0000, 0x5300_0000_5300_0000, gpr)
			a.CompileConstAndTwoRegistersToRegister(amd64.VPBLENDW, 0b10101010, konst, xmm, xmm)
			e.code.LoadMConst(konst, 0xD300_0080_D300_0080, 0xD300_0080_D300_0080, gpr)
			a.CompileTwoRegistersToRegister(amd64.VADDPS, konst, xmm, xmm)
			a.CompileTwoRegistersToRegister(amd64.VADDPS, xmm, tmp, xmm)
		} else {
			e.code.LoadMConst(tmp, 0x0000_FFFF_0000_FFFF, 0x0000_FFFF_0000_FFFF, gpr)

			a.CompileRegisterToRegister(amd64.PAND, xmm, tmp)
			e.code.LoadMConst(konst, 0x4B00_0000_4B00_0000, 0x4B00_0000_4B00_0000, gpr)
			a.CompileRegisterToRegister(amd64.POR, konst, tmp)
			a.CompileConstToRegister(amd64.PSRLL, 16, xmm)
			e.code.LoadMConst(konst, 0x5300_0000_5300_0000, 0x5300_0000_5300_0000, gpr)
			a.CompileRegisterToRegister(amd64.POR, konst, xmm)
			e.code.LoadMConst(konst, 0xD300_0080_D300_0080, 0xD300_0080_D300_0080, gpr)
			a.CompileRegisterToRegister(amd64.ADDPS, konst, xmm)
			a.CompileRegisterToRegister(amd64.ADDPS, tmp, xmm)
		}
	}

	if ctx.FPSCRRMode() == fp.RoundTowardsMinusInfinity {
		// The host add can round an exact-zero sum to -0 under RM.
		clamp := ctx.RegAlloc.ScratchXmm()
		gpr := ctx.RegAlloc.ScratchGpr()
		e.code.LoadMConst(clamp, 0x7FFF_FFFF_7FFF_FFFF, 0x7FFF_FFFF_7FFF_FFFF, gpr)
		a.CompileRegisterToRegister(amd64.PAND, clamp, xmm)
	}

	ctx.RegAlloc.DefineValue(index, xmm)
}

func (e *EmitX64) emitU64ToDouble(ctx *EmitContext, index int) {
	a := e.code.Asm()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	xmm := ctx.RegAlloc.UseScratchXmm(args[0])

	if e.code.DoesCpuSupport(platform.CpuFeatureAVX512DQ) && e.code.DoesCpuSupport(platform.CpuFeatureAVX512VL) {
		a.CompileRegisterToRegister(amd64.VCVTUQQ2PD, xmm, xmm)
	} else {
		// Magic-number two-step: interleave with exponents 2^52 and 2^84,
		// subtract the combined bias and sum the halves.
		const unpackLo, unpackHi = 0x4530_0000_4330_0000, 0
		const subLo, subHi = 0x4330_0000_0000_0000, 0x4530_0000_0000_0000

		unpackReg := ctx.RegAlloc.ScratchXmm()
		subtrahendReg := ctx.RegAlloc.ScratchXmm()
		tmp1 := ctx.RegAlloc.ScratchXmm()
		gpr := ctx.RegAlloc.ScratchGpr()

		e.code.LoadMConst(unpackReg, unpackLo, unpackHi, gpr)
		e.code.LoadMConst(subtrahendReg, subLo, subHi, gpr)

		if e.code.DoesCpuSupport(platform.CpuFeatureAVX) {
			a.CompileTwoRegistersToRegister(amd64.VUNPCKLPS, unpackReg, xmm, tmp1)
			a.CompileTwoRegistersToRegister(amd64.VSUBPD, subtrahendReg, tmp1, tmp1)

			a.CompileConstAndRegisterToRegister(amd64.VPERMILPS, 0b01001110, xmm, xmm)

			a.CompileTwoRegistersToRegister(amd64.VUNPCKLPS, unpackReg, xmm, xmm)
			a.CompileTwoRegistersToRegister(amd64.VSUBPD, subtrahendReg, xmm, xmm)

			a.CompileTwoRegistersToRegister(amd64.VHADDPD, xmm, tmp1, xmm)
		} else {
			tmp2 := ctx.RegAlloc.ScratchXmm()

			a.CompileConstAndRegisterToRegister(amd64.PSHUFD, 0b01001110, xmm, tmp1)

			a.CompileRegisterToRegister(amd64.PUNPCKLLQ, unpackReg, xmm)
			a.CompileRegisterToRegister(amd64.SUBPD, subtrahendReg, xmm)
			a.CompileConstAndRegisterToRegister(amd64.PSHUFD, 0b01001110, xmm, tmp2)
			a.CompileRegisterToRegister(amd64.ADDPD, tmp2, xmm)

			a.CompileRegisterToRegister(amd64.PUNPCKLLQ, unpackReg, tmp1)
			a.CompileRegisterToRegister(amd64.SUBPD, subtrahendReg, tmp1)

			a.CompileConstAndRegisterToRegister(amd64.PSHUFD, 0b01001110, tmp1, unpackReg)
			a.CompileRegisterToRegister(amd64.ADDPD, tmp1, unpackReg)

			a.CompileRegisterToRegister(amd64.UNPCKLPD, unpackReg, xmm)
		}
	}

	if ctx.FPSCRRMode() == fp.RoundTowardsMinusInfinity {
		clamp := ctx.RegAlloc.ScratchXmm()
		gpr := ctx.RegAlloc.ScratchGpr()
		e.code.LoadMConst(clamp, 0x7FFF_FFFF_FFFF_FFFF, 0x7FFF_FFFF_FFFF_FFFF, gpr)
		a.CompileRegisterToRegister(amd64.PAND, clamp, xmm)
	}

	ctx.RegAlloc.DefineValue(index, xmm)
}

// emitToFixed dispatches to the scalar conversion keyed on the instruction's
// (fbits, rounding) immediates. The SIMD fast path of the original backend
// was incomplete; the scalar table is authoritative (see DESIGN.md).
func (e *EmitX64) emitToFixed(ctx *EmitContext, index, fsize int, unsigned bool) {
	inst := ctx.Block.Inst(index)
	fbits := int(inst.Arg(1).U8())
	rounding := fp.RoundingMode(inst.Arg(2).U8())

	thunk, ok := toFixedThunks[toFixedKey{fsize: fsize, unsigned: unsigned, fbits: fbits, rounding: rounding}]
	if !ok {
		panic(fmt.Sprintf("x64: no ToFixed fallback for fsize=%d fbits=%d rounding=%s", fsize, fbits, rounding))
	}
	e.emitTwoOpFallback(ctx, index, thunk)
}

// emitTwoOpFallback spills the operand, calls the scalar helper with
// (result, operand, fpcr, &fpsr) and reloads the result from the frame.
func (e *EmitX64) emitTwoOpFallback(ctx *EmitContext, index int, fn *Thunk) {
	a := e.code.Asm()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	arg1 := ctx.RegAlloc.UseXmm(args[0])
	ctx.RegAlloc.EndOfAllocScope()
	ctx.RegAlloc.HostCall()

	const stackSpace = 2 * 16
	a.CompileConstToRegister(amd64.SUBQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+0*16, abiParamRegisters[0])
	a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+1*16, abiParamRegisters[1])
	a.CompileConstToRegister(amd64.MOVL, int64(ctx.FPCR()), abiParamRegisters[2])
	a.CompileMemoryToRegister(amd64.LEAQ, JitStateReg, int64(e.code.JitStateInfo().OffsetFPSRExc), abiParamRegisters[3])

	a.CompileRegisterToMemory(amd64.MOVAPS, arg1, abiParamRegisters[1], 0)
	e.code.CallFunction(fn)
	a.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, ABIShadowSpace+0*16, amd64.RegX0)

	a.CompileConstToRegister(amd64.ADDQ, stackSpace+ABIShadowSpace, amd64.RegSP)

	ctx.RegAlloc.DefineValue(index, amd64.RegX0)
}

// emitThreeOpFallback is emitTwoOpFallback for two-operand helpers; on
// Windows the fifth parameter travels on the stack.
func (e *EmitX64) emitThreeOpFallback(ctx *EmitContext, index int, fn *Thunk) {
	a := e.code.Asm()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	arg1 := ctx.RegAlloc.UseXmm(args[0])
	arg2 := ctx.RegAlloc.UseXmm(args[1])
	ctx.RegAlloc.EndOfAllocScope()
	ctx.RegAlloc.HostCall()

	if abiIsWindows {
		const stackSpace = 4 * 16
		a.CompileConstToRegister(amd64.SUBQ, stackSpace+ABIShadowSpace, amd64.RegSP)
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+1*16, abiParamRegisters[0])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+2*16, abiParamRegisters[1])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+3*16, abiParamRegisters[2])
		a.CompileConstToRegister(amd64.MOVL, int64(ctx.FPCR()), abiParamRegisters[3])
		a.CompileMemoryToRegister(amd64.LEAQ, JitStateReg, int64(e.code.JitStateInfo().OffsetFPSRExc), amd64.RegAX)
		a.CompileRegisterToMemory(amd64.MOVQ, amd64.RegAX, amd64.RegSP, ABIShadowSpace+0)

		a.CompileRegisterToMemory(amd64.MOVAPS, arg1, abiParamRegisters[1], 0)
		a.CompileRegisterToMemory(amd64.MOVAPS, arg2, abiParamRegisters[2], 0)
		e.code.CallFunction(fn)
		a.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, ABIShadowSpace+1*16, amd64.RegX0)
		a.CompileConstToRegister(amd64.ADDQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	} else {
		const stackSpace = 3 * 16
		a.CompileConstToRegister(amd64.SUBQ, stackSpace+ABIShadowSpace, amd64.RegSP)
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+0*16, abiParamRegisters[0])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+1*16, abiParamRegisters[1])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+2*16, abiParamRegisters[2])
		a.CompileConstToRegister(amd64.MOVL, int64(ctx.FPCR()), abiParamRegisters[3])
		a.CompileMemoryToRegister(amd64.LEAQ, JitStateReg, int64(e.code.JitStateInfo().OffsetFPSRExc), abiParamRegisters[4])

		a.CompileRegisterToMemory(amd64.MOVAPS, arg1, abiParamRegisters[1], 0)
		a.CompileRegisterToMemory(amd64.MOVAPS, arg2, abiParamRegisters[2], 0)
		e.code.CallFunction(fn)
		a.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, ABIShadowSpace+0*16, amd64.RegX0)
		a.CompileConstToRegister(amd64.ADDQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	}

	ctx.RegAlloc.DefineValue(index, amd64.RegX0)
}

// emitFourOpFallback passes three operands; on Windows both FPCR and the
// FPSR pointer travel on the stack.
func (e *EmitX64) emitFourOpFallback(ctx *EmitContext, index int, fn *Thunk) {
	a := e.code.Asm()
	args := ctx.RegAlloc.GetArgumentInfo(index)
	arg1 := ctx.RegAlloc.UseXmm(args[0])
	arg2 := ctx.RegAlloc.UseXmm(args[1])
	arg3 := ctx.RegAlloc.UseXmm(args[2])
	ctx.RegAlloc.EndOfAllocScope()
	ctx.RegAlloc.HostCall()

	if abiIsWindows {
		const stackSpace = 5 * 16
		a.CompileConstToRegister(amd64.SUBQ, stackSpace+ABIShadowSpace, amd64.RegSP)
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+1*16, abiParamRegisters[0])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+2*16, abiParamRegisters[1])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+3*16, abiParamRegisters[2])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+4*16, abiParamRegisters[3])
		a.CompileConstToRegister(amd64.MOVQ, int64(ctx.FPCR()), amd64.RegAX)
		a.CompileRegisterToMemory(amd64.MOVQ, amd64.RegAX, amd64.RegSP, ABIShadowSpace+0)
		a.CompileMemoryToRegister(amd64.LEAQ, JitStateReg, int64(e.code.JitStateInfo().OffsetFPSRExc), amd64.RegAX)
		a.CompileRegisterToMemory(amd64.MOVQ, amd64.RegAX, amd64.RegSP, ABIShadowSpace+8)

		a.CompileRegisterToMemory(amd64.MOVAPS, arg1, abiParamRegisters[1], 0)
		a.CompileRegisterToMemory(amd64.MOVAPS, arg2, abiParamRegisters[2], 0)
		a.CompileRegisterToMemory(amd64.MOVAPS, arg3, abiParamRegisters[3], 0)
		e.code.CallFunction(fn)
		a.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, ABIShadowSpace+1*16, amd64.RegX0)
		a.CompileConstToRegister(amd64.ADDQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	} else {
		const stackSpace = 4 * 16
		a.CompileConstToRegister(amd64.SUBQ, stackSpace+ABIShadowSpace, amd64.RegSP)
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+0*16, abiParamRegisters[0])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+1*16, abiParamRegisters[1])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+2*16, abiParamRegisters[2])
		a.CompileMemoryToRegister(amd64.LEAQ, amd64.RegSP, ABIShadowSpace+3*16, abiParamRegisters[3])
		a.CompileConstToRegister(amd64.MOVL, int64(ctx.FPCR()), abiParamRegisters[4])
		a.CompileMemoryToRegister(amd64.LEAQ, JitStateReg, int64(e.code.JitStateInfo().OffsetFPSRExc), abiParamRegisters[5])

		a.CompileRegisterToMemory(amd64.MOVAPS, arg1, abiParamRegisters[1], 0)
		a.CompileRegisterToMemory(amd64.MOVAPS, arg2, abiParamRegisters[2], 0)
		a.CompileRegisterToMemory(amd64.MOVAPS, arg3, abiParamRegisters[3], 0)
		e.code.CallFunction(fn)
		a.CompileMemoryToRegister(amd64.MOVAPS, amd64.RegSP, ABIShadowSpace+0*16, amd64.RegX0)
		a.CompileConstToRegister(amd64.ADDQ, stackSpace+ABIShadowSpace, amd64.RegSP)
	}

	ctx.RegAlloc.DefineValue(index, amd64.RegX0)
}
