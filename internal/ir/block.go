package ir

import (
	"fmt"
	"strings"

	"github.com/Annomatg/dynarmic/internal/arm"
)

// Inst is one micro-operation. Instructions are owned by their block and
// addressed by index; the struct is only exported so passes and the backend
// can inspect it in place.
type Inst struct {
	op       Opcode
	args     [3]Value
	useCount int
}

// Opcode returns the instruction's opcode, OpVoid once invalidated.
func (i *Inst) Opcode() Opcode { return i.op }

// NumArgs returns the operand count.
func (i *Inst) NumArgs() int { return i.op.NumArgs() }

// Arg returns operand n.
func (i *Inst) Arg(n int) Value {
	if n >= i.op.NumArgs() {
		panic(fmt.Sprintf("ir: %s has no argument %d", i.op, n))
	}
	return i.args[n]
}

// UseCount returns how many later operands reference this instruction.
func (i *Inst) UseCount() int { return i.useCount }

// AreAllArgsImmediates reports whether every operand is an immediate.
func (i *Inst) AreAllArgsImmediates() bool {
	for n := 0; n < i.op.NumArgs(); n++ {
		if !i.args[n].IsImmediate() {
			return false
		}
	}
	return true
}

// Block is an ordered list of micro-operations ending in exactly one
// terminator, translated from the guest code at Location.
type Block struct {
	Location   arm.LocationDescriptor
	CycleCount int

	insts []Inst
	term  Terminal
}

// NewBlock returns an empty block for the given location.
func NewBlock(loc arm.LocationDescriptor) *Block {
	return &Block{Location: loc}
}

// Append adds an instruction and returns a value referencing its result.
// Operand types are checked against the opcode signature; a mismatch is a
// translator bug.
func (b *Block) Append(op Opcode, args ...Value) Value {
	if len(args) != op.NumArgs() {
		panic(fmt.Sprintf("ir: %s wants %d args, got %d", op, op.NumArgs(), len(args)))
	}
	inst := Inst{op: op}
	for n, a := range args {
		if a.Type() != op.ArgType(n) {
			panic(fmt.Sprintf("ir: %s arg %d is %s, want %s", op, n, a.Type(), op.ArgType(n)))
		}
		if !a.IsImmediate() {
			b.insts[a.InstIndex()].useCount++
		}
		inst.args[n] = a
	}
	index := len(b.insts)
	b.insts = append(b.insts, inst)
	return Ref(op.ResultType(), index)
}

// NumInsts returns the instruction count, including invalidated slots.
func (b *Block) NumInsts() int { return len(b.insts) }

// Inst returns the instruction at index for in-place inspection or rewrite.
func (b *Block) Inst(index int) *Inst { return &b.insts[index] }

// ReplaceUsesWith rewrites every operand referencing instruction index to
// the replacement value, adjusting use counts.
func (b *Block) ReplaceUsesWith(index int, repl Value) {
	for n := range b.insts {
		inst := &b.insts[n]
		for a := 0; a < inst.op.NumArgs(); a++ {
			if !inst.args[a].IsImmediate() && inst.args[a].InstIndex() == index {
				inst.args[a] = repl
				b.insts[index].useCount--
				if !repl.IsImmediate() {
					b.insts[repl.InstIndex()].useCount++
				}
			}
		}
	}
}

// Invalidate removes instruction index from the program: its operand uses
// are released and the slot becomes a Void no-op. The caller must have
// rewritten or discarded all uses first.
func (b *Block) Invalidate(index int) {
	inst := &b.insts[index]
	if inst.useCount != 0 {
		panic(fmt.Sprintf("ir: invalidating %%%d with %d live uses", index, inst.useCount))
	}
	for a := 0; a < inst.op.NumArgs(); a++ {
		if !inst.args[a].IsImmediate() {
			b.insts[inst.args[a].InstIndex()].useCount--
		}
	}
	*inst = Inst{op: OpVoid}
}

// SetTerm sets the block terminator. Exactly one terminator must be set by
// the end of translation.
func (b *Block) SetTerm(t Terminal) { b.term = t }

// Term returns the block terminator, nil if unset.
func (b *Block) Term() Terminal { return b.term }

func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Block: location=%s cycles=%d\n", b.Location, b.CycleCount)
	for i := range b.insts {
		inst := &b.insts[i]
		if inst.op == OpVoid {
			continue
		}
		fmt.Fprintf(&sb, "%%%-3d = %s", i, inst.op)
		for a := 0; a < inst.op.NumArgs(); a++ {
			fmt.Fprintf(&sb, " %s", inst.args[a])
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "terminal = %v\n", b.term)
	return sb.String()
}
