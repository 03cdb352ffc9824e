// Package asm declares the architecture-neutral assembler types. The
// architecture packages define the instruction and register namespaces and
// implement assembly on top of these.
package asm

import "fmt"

// Register is an architecture-specific register identifier.
type Register int16

// NilRegister is the zero Register, standing for "no register".
const NilRegister Register = 0

// Instruction is an architecture-specific instruction identifier.
type Instruction int16

// ConstantValue is an immediate operand.
type ConstantValue = int64

// NodeOffsetInBinary is the offset of an assembled instruction from the
// beginning of the generated code.
type NodeOffsetInBinary = uint64

// Node is one assembled instruction in the output stream. Branch
// instructions hold their target as another Node so offsets resolve at
// assembly time.
type Node interface {
	fmt.Stringer
	// AssignJumpTarget makes this (branch) node jump to the target node.
	AssignJumpTarget(target Node)
	// OffsetInBinary returns the node's offset once assembly completed.
	OffsetInBinary() NodeOffsetInBinary
}

// AssemblerBase is the interface common to all architectures.
type AssemblerBase interface {
	// Assemble encodes all buffered instructions and returns the machine
	// code, with the far-code region appended after the near code.
	Assemble() ([]byte, error)
	// SetJumpTargetOnNext makes the given branch nodes jump to the next
	// instruction added to the current region.
	SetJumpTargetOnNext(nodes ...Node)
	// AddOnGenerateCallBack registers a callback run over the generated
	// code after assembly, for byte-level patching.
	AddOnGenerateCallBack(cb func(code []byte) error)
	// SwitchToFarCode diverts subsequent instructions to the cold region,
	// which is emitted after the block's near code.
	SwitchToFarCode()
	// SwitchToNearCode resumes emission into the hot region.
	SwitchToNearCode()
}
