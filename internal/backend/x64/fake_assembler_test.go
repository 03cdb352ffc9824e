package x64

import (
	"fmt"
	"strings"

	"github.com/Annomatg/dynarmic/internal/asm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
)

// recordingAssembler captures the emitted instruction stream as text so
// tests can assert on tier selection and instruction sequences without
// encoding anything.
type recordingAssembler struct {
	near []string
	far  []string

	inFar bool
}

type recordedNode struct{ text string }

func (n *recordedNode) String() string                         { return n.text }
func (n *recordedNode) AssignJumpTarget(asm.Node)              {}
func (n *recordedNode) OffsetInBinary() asm.NodeOffsetInBinary { return 0 }

func (r *recordingAssembler) record(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	if r.inFar {
		r.far = append(r.far, s)
	} else {
		r.near = append(r.near, s)
	}
}

func (r *recordingAssembler) Assemble() ([]byte, error)                { return nil, nil }
func (r *recordingAssembler) SetJumpTargetOnNext(...asm.Node)          {}
func (r *recordingAssembler) AddOnGenerateCallBack(func([]byte) error) {}
func (r *recordingAssembler) SwitchToFarCode()                         { r.inFar = true }
func (r *recordingAssembler) SwitchToNearCode()                        { r.inFar = false }

func (r *recordingAssembler) CompileStandAlone(inst asm.Instruction) asm.Node {
	r.record("%s", amd64.InstructionName(inst))
	return &recordedNode{text: amd64.InstructionName(inst)}
}

func (r *recordingAssembler) CompileRegisterToRegister(inst asm.Instruction, from, to asm.Register) {
	r.record("%s %s, %s", amd64.InstructionName(inst), amd64.RegisterName(from), amd64.RegisterName(to))
}

func (r *recordingAssembler) CompileMemoryToRegister(inst asm.Instruction, base asm.Register, off int64, dst asm.Register) {
	r.record("%s [%s+%#x], %s", amd64.InstructionName(inst), amd64.RegisterName(base), off, amd64.RegisterName(dst))
}

func (r *recordingAssembler) CompileRegisterToMemory(inst asm.Instruction, src, base asm.Register, off int64) {
	r.record("%s %s, [%s+%#x]", amd64.InstructionName(inst), amd64.RegisterName(src), amd64.RegisterName(base), off)
}

func (r *recordingAssembler) CompileConstToRegister(inst asm.Instruction, value int64, dst asm.Register) asm.Node {
	r.record("%s $%#x, %s", amd64.InstructionName(inst), value, amd64.RegisterName(dst))
	return &recordedNode{text: amd64.InstructionName(inst)}
}

func (r *recordingAssembler) CompileRegisterToNone(inst asm.Instruction, reg asm.Register) {
	r.record("%s %s", amd64.InstructionName(inst), amd64.RegisterName(reg))
}

func (r *recordingAssembler) CompileJump(inst asm.Instruction) asm.Node {
	r.record("%s", amd64.InstructionName(inst))
	return &recordedNode{text: amd64.InstructionName(inst)}
}

func (r *recordingAssembler) CompileJumpToRegister(inst asm.Instruction, reg asm.Register) {
	r.record("%s %s", amd64.InstructionName(inst), amd64.RegisterName(reg))
}

func (r *recordingAssembler) CompileRegisterToRegisterWithPredicate(inst asm.Instruction, src, dst asm.Register, predicate byte) {
	r.record("%s %s, %s, $%d", amd64.InstructionName(inst), amd64.RegisterName(src), amd64.RegisterName(dst), predicate)
}

func (r *recordingAssembler) CompileConstAndRegisterToRegister(inst asm.Instruction, value int64, from, to asm.Register) {
	r.record("%s $%#x, %s, %s", amd64.InstructionName(inst), value, amd64.RegisterName(from), amd64.RegisterName(to))
}

func (r *recordingAssembler) CompileTwoRegistersToRegister(inst asm.Instruction, src2, src1, dst asm.Register) {
	r.record("%s %s, %s, %s", amd64.InstructionName(inst), amd64.RegisterName(src2), amd64.RegisterName(src1), amd64.RegisterName(dst))
}

func (r *recordingAssembler) CompileThreeRegistersToRegister(inst asm.Instruction, src3, src2, src1, dst asm.Register) {
	r.record("%s %s, %s, %s, %s", amd64.InstructionName(inst), amd64.RegisterName(src3), amd64.RegisterName(src2), amd64.RegisterName(src1), amd64.RegisterName(dst))
}

func (r *recordingAssembler) CompileConstAndTwoRegistersToRegister(inst asm.Instruction, value int64, src2, src1, dst asm.Register) {
	r.record("%s $%#x, %s, %s, %s", amd64.InstructionName(inst), value, amd64.RegisterName(src2), amd64.RegisterName(src1), amd64.RegisterName(dst))
}

var _ amd64.Assembler = (*recordingAssembler)(nil)

// mnemonics strips operands from a recorded stream.
func mnemonics(ops []string) []string {
	out := make([]string, len(ops))
	for i, s := range ops {
		out[i] = strings.Fields(s)[0]
	}
	return out
}

// containsSubsequence reports whether want appears in order within got.
func containsSubsequence(got, want []string) bool {
	i := 0
	for _, g := range got {
		if i < len(want) && g == want[i] {
			i++
		}
	}
	return i == len(want)
}
