package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleSmoke(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	a.CompileConstToRegister(MOVQ, 42, RegAX)
	a.CompileRegisterToRegister(ADDPS, RegX1, RegX0)
	a.CompileStandAlone(RET)

	code, err := a.Assemble()
	require.NoError(t, err)
	require.NotEmpty(t, code)
}

func TestFarCodeIsEmittedAfterNearCode(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	a.CompileStandAlone(RET) // near

	a.SwitchToFarCode()
	a.CompileStandAlone(UD2) // far
	a.SwitchToNearCode()

	a.CompileStandAlone(NOP) // near again

	code, err := a.Assemble()
	require.NoError(t, err)

	// ret (0xC3) first; ud2 (0x0F 0x0B) must be at the very end.
	require.Equal(t, byte(0xC3), code[0])
	require.Equal(t, []byte{0x0F, 0x0B}, code[len(code)-2:])
}

func TestJumpOverFarCode(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	jmp := a.CompileJump(JMP)

	a.SwitchToFarCode()
	a.CompileStandAlone(UD2)
	back := a.CompileJump(JMP)
	a.SwitchToNearCode()

	a.SetJumpTargetOnNext(jmp, back)
	a.CompileStandAlone(RET)

	code, err := a.Assemble()
	require.NoError(t, err)
	require.NotEmpty(t, code)
}

func TestUnresolvedBranchTargetIsAnError(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	a.CompileJump(JNE)
	a.SetJumpTargetOnNext(a.CompileJump(JMP))

	_, err = a.Assemble()
	require.Error(t, err)
}

func TestInstructionNamesAreComplete(t *testing.T) {
	for inst := NONE; inst < instructionEnd; inst++ {
		require.NotEmpty(t, InstructionName(inst), "instruction %d has no name", inst)
		if inst == NONE {
			continue
		}
		_, ok := castAsGolangAsmInstruction[inst]
		require.True(t, ok, "instruction %s has no encoder mapping", InstructionName(inst))
	}
}

func TestRegisterNames(t *testing.T) {
	require.Equal(t, "AX", RegisterName(RegAX))
	require.Equal(t, "X15", RegisterName(RegX15))
	require.Equal(t, "nil", RegisterName(0))
	require.True(t, IsXmm(RegX0))
	require.False(t, IsXmm(RegSP))
}
