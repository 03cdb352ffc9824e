package ir

import (
	"github.com/Annomatg/dynarmic/internal/arm"
)

// ResultAndCarry is the pair returned by the shift constructors.
type ResultAndCarry struct {
	Result Value
	Carry  Value
}

// ResultCarryOverflow is the triple returned by the carry-arithmetic
// constructors.
type ResultCarryOverflow struct {
	Result   Value
	Carry    Value
	Overflow Value
}

// Emitter is the stateful builder the translator visitor drives. It owns the
// block under construction and tracks the current guest location.
type Emitter struct {
	Block           *Block
	CurrentLocation arm.LocationDescriptor
}

// NewEmitter returns an emitter with a fresh block at the given location.
func NewEmitter(loc arm.LocationDescriptor) *Emitter {
	return &Emitter{Block: NewBlock(loc), CurrentLocation: loc}
}

// Imm1 returns a u1 immediate value.
func (e *Emitter) Imm1(v bool) Value { return Imm1(v) }

// Imm8 returns a u8 immediate value.
func (e *Emitter) Imm8(v uint8) Value { return Imm8(v) }

// Imm32 returns a u32 immediate value.
func (e *Emitter) Imm32(v uint32) Value { return Imm32(v) }

// AlignPC returns the current instruction's PC-read value (instruction
// address plus 4 in Thumb state) aligned down to the given power of two.
func (e *Emitter) AlignPC(alignment uint32) uint32 {
	pc := e.CurrentLocation.PC + 4
	return pc &^ (alignment - 1)
}

// GetRegister reads guest register reg. Reading PC yields the
// implicit-plus-4 value.
func (e *Emitter) GetRegister(reg arm.Reg) Value {
	if reg == arm.PC {
		return e.Imm32(e.CurrentLocation.PC + 4)
	}
	return e.Block.Append(OpGetRegister, Imm32(uint32(reg)))
}

// SetRegister writes guest register reg. PC writes must go through
// ALUWritePC instead.
func (e *Emitter) SetRegister(reg arm.Reg, value Value) {
	if reg == arm.PC {
		panic("ir: use ALUWritePC to write the program counter")
	}
	e.Block.Append(OpSetRegister, Imm32(uint32(reg)), value)
}

// ALUWritePC writes an ALU result to the program counter; bit 0 of the value
// selects the next T state.
func (e *Emitter) ALUWritePC(value Value) {
	e.Block.Append(OpALUWritePC, value)
}

// GetVector reads guest vector register Qn.
func (e *Emitter) GetVector(n uint32) Value {
	return e.Block.Append(OpGetVector, Imm32(n))
}

// SetVector writes guest vector register Qn.
func (e *Emitter) SetVector(n uint32, value Value) {
	e.Block.Append(OpSetVector, Imm32(n), value)
}

// GetCFlag reads APSR.C.
func (e *Emitter) GetCFlag() Value { return e.Block.Append(OpGetCFlag) }

// SetNFlag writes APSR.N.
func (e *Emitter) SetNFlag(v Value) { e.Block.Append(OpSetNFlag, v) }

// SetZFlag writes APSR.Z.
func (e *Emitter) SetZFlag(v Value) { e.Block.Append(OpSetZFlag, v) }

// SetCFlag writes APSR.C.
func (e *Emitter) SetCFlag(v Value) { e.Block.Append(OpSetCFlag, v) }

// SetVFlag writes APSR.V.
func (e *Emitter) SetVFlag(v Value) { e.Block.Append(OpSetVFlag, v) }

// CallSupervisor raises a supervisor call with the given immediate.
func (e *Emitter) CallSupervisor(imm Value) {
	e.Block.Append(OpCallSupervisor, imm)
}

// LogicalShiftLeft shifts left by an amount in [0, 255], with carry-in
// threading through for a zero shift.
func (e *Emitter) LogicalShiftLeft(value, shift, carryIn Value) ResultAndCarry {
	return e.shift(OpLogicalShiftLeft, value, shift, carryIn)
}

// LogicalShiftRight is LogicalShiftLeft mirrored.
func (e *Emitter) LogicalShiftRight(value, shift, carryIn Value) ResultAndCarry {
	return e.shift(OpLogicalShiftRight, value, shift, carryIn)
}

// ArithmeticShiftRight shifts right, replicating the sign bit.
func (e *Emitter) ArithmeticShiftRight(value, shift, carryIn Value) ResultAndCarry {
	return e.shift(OpArithmeticShiftRight, value, shift, carryIn)
}

// RotateRight rotates right; a zero rotation passes the carry through.
func (e *Emitter) RotateRight(value, shift, carryIn Value) ResultAndCarry {
	return e.shift(OpRotateRight, value, shift, carryIn)
}

func (e *Emitter) shift(op Opcode, value, shift, carryIn Value) ResultAndCarry {
	result := e.Block.Append(op, value, shift, carryIn)
	carry := e.Block.Append(OpGetCarryFromOp, result)
	return ResultAndCarry{Result: result, Carry: carry}
}

// AddWithCarry computes a + b + carryIn with flag results.
func (e *Emitter) AddWithCarry(a, b, carryIn Value) ResultCarryOverflow {
	return e.carryArith(OpAddWithCarry, a, b, carryIn)
}

// SubWithCarry computes a - b - !carryIn, i.e. AddWithCarry(a, NOT b,
// carryIn), with flag results.
func (e *Emitter) SubWithCarry(a, b, carryIn Value) ResultCarryOverflow {
	return e.carryArith(OpSubWithCarry, a, b, carryIn)
}

func (e *Emitter) carryArith(op Opcode, a, b, carryIn Value) ResultCarryOverflow {
	result := e.Block.Append(op, a, b, carryIn)
	carry := e.Block.Append(OpGetCarryFromOp, result)
	overflow := e.Block.Append(OpGetOverflowFromOp, result)
	return ResultCarryOverflow{Result: result, Carry: carry, Overflow: overflow}
}

// Add computes a + b without flag results.
func (e *Emitter) Add(a, b Value) Value {
	return e.Block.Append(OpAddWithCarry, a, b, Imm1(false))
}

// And computes a AND b.
func (e *Emitter) And(a, b Value) Value { return e.Block.Append(OpAnd, a, b) }

// Eor computes a EOR b.
func (e *Emitter) Eor(a, b Value) Value { return e.Block.Append(OpEor, a, b) }

// Or computes a ORR b.
func (e *Emitter) Or(a, b Value) Value { return e.Block.Append(OpOr, a, b) }

// Not computes NOT a.
func (e *Emitter) Not(a Value) Value { return e.Block.Append(OpNot, a) }

// LeastSignificantHalf narrows a word to its low half-word.
func (e *Emitter) LeastSignificantHalf(a Value) Value {
	return e.Block.Append(OpLeastSignificantHalf, a)
}

// LeastSignificantByte narrows a word to its low byte.
func (e *Emitter) LeastSignificantByte(a Value) Value {
	return e.Block.Append(OpLeastSignificantByte, a)
}

// MostSignificantBit extracts bit 31.
func (e *Emitter) MostSignificantBit(a Value) Value {
	return e.Block.Append(OpMostSignificantBit, a)
}

// IsZero tests a word for equality with zero.
func (e *Emitter) IsZero(a Value) Value { return e.Block.Append(OpIsZero, a) }

// SignExtendHalfToWord widens a half-word, replicating its sign bit.
func (e *Emitter) SignExtendHalfToWord(a Value) Value {
	return e.Block.Append(OpSignExtendHalfToWord, a)
}

// SignExtendByteToWord widens a byte, replicating its sign bit.
func (e *Emitter) SignExtendByteToWord(a Value) Value {
	return e.Block.Append(OpSignExtendByteToWord, a)
}

// ZeroExtendHalfToWord widens a half-word with zeros.
func (e *Emitter) ZeroExtendHalfToWord(a Value) Value {
	return e.Block.Append(OpZeroExtendHalfToWord, a)
}

// ZeroExtendByteToWord widens a byte with zeros.
func (e *Emitter) ZeroExtendByteToWord(a Value) Value {
	return e.Block.Append(OpZeroExtendByteToWord, a)
}

// ByteReverseWord reverses the four bytes of a word.
func (e *Emitter) ByteReverseWord(a Value) Value {
	return e.Block.Append(OpByteReverseWord, a)
}

// ByteReverseHalf reverses the two bytes of a half-word.
func (e *Emitter) ByteReverseHalf(a Value) Value {
	return e.Block.Append(OpByteReverseHalf, a)
}

// ByteReverseDual reverses the eight bytes of a double-word.
func (e *Emitter) ByteReverseDual(a Value) Value {
	return e.Block.Append(OpByteReverseDual, a)
}

// ReadMemory8 loads a byte from guest memory.
func (e *Emitter) ReadMemory8(vaddr Value) Value { return e.Block.Append(OpReadMemory8, vaddr) }

// ReadMemory16 loads a half-word from guest memory.
func (e *Emitter) ReadMemory16(vaddr Value) Value { return e.Block.Append(OpReadMemory16, vaddr) }

// ReadMemory32 loads a word from guest memory.
func (e *Emitter) ReadMemory32(vaddr Value) Value { return e.Block.Append(OpReadMemory32, vaddr) }

// ReadMemory64 loads a double-word from guest memory.
func (e *Emitter) ReadMemory64(vaddr Value) Value { return e.Block.Append(OpReadMemory64, vaddr) }

// WriteMemory8 stores a byte to guest memory.
func (e *Emitter) WriteMemory8(vaddr, value Value) { e.Block.Append(OpWriteMemory8, vaddr, value) }

// WriteMemory16 stores a half-word to guest memory.
func (e *Emitter) WriteMemory16(vaddr, value Value) { e.Block.Append(OpWriteMemory16, vaddr, value) }

// WriteMemory32 stores a word to guest memory.
func (e *Emitter) WriteMemory32(vaddr, value Value) { e.Block.Append(OpWriteMemory32, vaddr, value) }

// WriteMemory64 stores a double-word to guest memory.
func (e *Emitter) WriteMemory64(vaddr, value Value) { e.Block.Append(OpWriteMemory64, vaddr, value) }

// SetTerm records the block terminator.
func (e *Emitter) SetTerm(t Terminal) { e.Block.SetTerm(t) }
