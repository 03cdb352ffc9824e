package ir

import "fmt"

// Value is one IR operand: either a typed immediate or a reference to the
// result of a prior instruction in the same block, identified by index.
type Value struct {
	typ  Type
	imm  uint64
	inst int // defining instruction index, or -1 for immediates
}

// Imm1 returns a u1 immediate.
func Imm1(v bool) Value {
	var bits uint64
	if v {
		bits = 1
	}
	return Value{typ: U1, imm: bits, inst: -1}
}

// Imm8 returns a u8 immediate.
func Imm8(v uint8) Value { return Value{typ: U8, imm: uint64(v), inst: -1} }

// Imm16 returns a u16 immediate.
func Imm16(v uint16) Value { return Value{typ: U16, imm: uint64(v), inst: -1} }

// Imm32 returns a u32 immediate.
func Imm32(v uint32) Value { return Value{typ: U32, imm: uint64(v), inst: -1} }

// Imm64 returns a u64 immediate.
func Imm64(v uint64) Value { return Value{typ: U64, imm: v, inst: -1} }

// Ref returns a reference to the result of instruction index with type t.
func Ref(t Type, index int) Value { return Value{typ: t, inst: index} }

// IsImmediate reports whether the value is an immediate rather than an
// instruction result.
func (v Value) IsImmediate() bool { return v.inst < 0 }

// Type returns the value's type.
func (v Value) Type() Type { return v.typ }

// InstIndex returns the defining instruction's index. It panics on
// immediates.
func (v Value) InstIndex() int {
	if v.inst < 0 {
		panic("ir: InstIndex on an immediate value")
	}
	return v.inst
}

// U1 returns the immediate as a bool.
func (v Value) U1() bool { return v.immediate(U1) != 0 }

// U8 returns the immediate as a uint8.
func (v Value) U8() uint8 { return uint8(v.immediate(U8)) }

// U16 returns the immediate as a uint16.
func (v Value) U16() uint16 { return uint16(v.immediate(U16)) }

// U32 returns the immediate as a uint32.
func (v Value) U32() uint32 { return uint32(v.immediate(U32)) }

// U64 returns the immediate as a uint64.
func (v Value) U64() uint64 { return v.immediate(U64) }

func (v Value) immediate(want Type) uint64 {
	if v.inst >= 0 {
		panic("ir: immediate accessor on an instruction reference")
	}
	if v.typ != want {
		panic(fmt.Sprintf("ir: immediate is %s, not %s", v.typ, want))
	}
	return v.imm
}

func (v Value) String() string {
	if v.inst >= 0 {
		return fmt.Sprintf("%%%d", v.inst)
	}
	switch v.typ {
	case Void:
		return "<void>"
	default:
		return fmt.Sprintf("%s(%#x)", v.typ, v.imm)
	}
}
