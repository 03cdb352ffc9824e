package thumb

import (
	"fmt"
	"math/bits"
	"sort"
)

// handlerFn is a visitor method bound to a decode row. The fields slice
// holds the operand fields in first-appearance order of the pattern's
// letters.
type handlerFn func(v *translatorVisitor, f fields) bool

type fields []uint32

// field is one operand slice of the raw opcode.
type field struct {
	shift uint
	mask  uint16
}

// matcher is one decode row: a bit-significance mask, the expected bits
// under it, the operand fields and the bound handler.
type matcher struct {
	name    string
	mask    uint16
	expect  uint16
	fields  []field
	handler handlerFn
}

func (m *matcher) matches(op uint16) bool { return op&m.mask == m.expect }

// Name returns the row's instruction name, e.g. "LSR (imm)".
func (m *matcher) Name() string { return m.name }

func (m *matcher) call(v *translatorVisitor, op uint16) bool {
	f := make(fields, len(m.fields))
	for i, fl := range m.fields {
		f[i] = uint32(op>>fl.shift) & uint32(fl.mask)
	}
	return m.handler(v, f)
}

// inst builds a decode row from a 16-character bit-pattern string. '0' and
// '1' are significant bits; a run of the same letter is one operand field;
// '-' is a don't-care bit. Fields are extracted in order of each letter's
// first (most significant) appearance.
func inst(pattern, name string, handler handlerFn) matcher {
	if len(pattern) != 16 {
		panic(fmt.Sprintf("thumb: pattern %q is not 16 bits", pattern))
	}
	m := matcher{name: name, handler: handler}
	type run struct {
		letter byte
		hi, lo uint
	}
	var runs []run
	for i := 0; i < 16; i++ {
		bit := uint(15 - i)
		switch c := pattern[i]; c {
		case '0':
			m.mask |= 1 << bit
		case '1':
			m.mask |= 1 << bit
			m.expect |= 1 << bit
		case '-':
		default:
			if n := len(runs); n > 0 && runs[n-1].letter == c && runs[n-1].lo == bit+1 {
				runs[n-1].lo = bit
			} else {
				for _, r := range runs {
					if r.letter == c {
						panic(fmt.Sprintf("thumb: pattern %q: non-contiguous field %q", pattern, c))
					}
				}
				runs = append(runs, run{letter: c, hi: bit, lo: bit})
			}
		}
	}
	for _, r := range runs {
		width := r.hi - r.lo + 1
		m.fields = append(m.fields, field{shift: r.lo, mask: uint16(1<<width - 1)})
	}
	return m
}

var thumb16Table = buildThumb16Table()

func buildThumb16Table() []matcher {
	table := []matcher{
		inst("00000vvvvvmmmddd", "LSL (imm)", (*translatorVisitor).thumb16LSLImm),
		inst("00001vvvvvmmmddd", "LSR (imm)", (*translatorVisitor).thumb16LSRImm),
		inst("00010vvvvvmmmddd", "ASR (imm)", (*translatorVisitor).thumb16ASRImm),
		inst("0001100mmmnnnddd", "ADD (reg, T1)", (*translatorVisitor).thumb16ADDRegT1),
		inst("0001101mmmnnnddd", "SUB (reg)", (*translatorVisitor).thumb16SUBReg),
		inst("0001110vvvnnnddd", "ADD (imm, T1)", (*translatorVisitor).thumb16ADDImmT1),
		inst("0001111vvvnnnddd", "SUB (imm, T1)", (*translatorVisitor).thumb16SUBImmT1),
		inst("00100dddvvvvvvvv", "MOV (imm)", (*translatorVisitor).thumb16MOVImm),
		inst("00101nnnvvvvvvvv", "CMP (imm)", (*translatorVisitor).thumb16CMPImm),
		inst("00110dddvvvvvvvv", "ADD (imm, T2)", (*translatorVisitor).thumb16ADDImmT2),
		inst("00111dddvvvvvvvv", "SUB (imm, T2)", (*translatorVisitor).thumb16SUBImmT2),
		inst("0100000000mmmddd", "AND (reg)", (*translatorVisitor).thumb16ANDReg),
		inst("0100000001mmmddd", "EOR (reg)", (*translatorVisitor).thumb16EORReg),
		inst("0100000010mmmddd", "LSL (reg)", (*translatorVisitor).thumb16LSLReg),
		inst("0100000011mmmddd", "LSR (reg)", (*translatorVisitor).thumb16LSRReg),
		inst("0100000100mmmddd", "ASR (reg)", (*translatorVisitor).thumb16ASRReg),
		inst("0100000101mmmddd", "ADC (reg)", (*translatorVisitor).thumb16ADCReg),
		inst("0100000110mmmddd", "SBC (reg)", (*translatorVisitor).thumb16SBCReg),
		inst("0100000111sssddd", "ROR (reg)", (*translatorVisitor).thumb16RORReg),
		inst("0100001000mmmnnn", "TST (reg)", (*translatorVisitor).thumb16TSTReg),
		inst("0100001001nnnddd", "RSB (imm)", (*translatorVisitor).thumb16RSBImm),
		inst("0100001010mmmnnn", "CMP (reg, T1)", (*translatorVisitor).thumb16CMPRegT1),
		inst("0100001011mmmnnn", "CMN (reg)", (*translatorVisitor).thumb16CMNReg),
		inst("0100001100mmmddd", "ORR (reg)", (*translatorVisitor).thumb16ORRReg),
		inst("0100001110mmmddd", "BIC (reg)", (*translatorVisitor).thumb16BICReg),
		inst("0100001111mmmddd", "MVN (reg)", (*translatorVisitor).thumb16MVNReg),
		inst("01000100Dmmmmddd", "ADD (reg, T2)", (*translatorVisitor).thumb16ADDRegT2),
		inst("01000101Nmmmmnnn", "CMP (reg, T2)", (*translatorVisitor).thumb16CMPRegT2),
		inst("01000110Dmmmmddd", "MOV (reg)", (*translatorVisitor).thumb16MOVReg),
		inst("01001tttvvvvvvvv", "LDR (literal)", (*translatorVisitor).thumb16LDRLiteral),
		inst("0101000mmmnnnttt", "STR (reg)", (*translatorVisitor).thumb16STRReg),
		inst("0101001mmmnnnttt", "STRH (reg)", (*translatorVisitor).thumb16STRHReg),
		inst("0101010mmmnnnttt", "STRB (reg)", (*translatorVisitor).thumb16STRBReg),
		inst("01101vvvvvnnnttt", "LDR (imm, T1)", (*translatorVisitor).thumb16LDRImmT1),
		inst("10100dddvvvvvvvv", "ADR", (*translatorVisitor).thumb16ADR),
		inst("10101dddvvvvvvvv", "ADD (SP plus imm, T1)", (*translatorVisitor).thumb16ADDSpT1),
		inst("101100000vvvvvvv", "ADD (SP plus imm, T2)", (*translatorVisitor).thumb16ADDSpT2),
		inst("101100001vvvvvvv", "SUB (SP minus imm)", (*translatorVisitor).thumb16SUBSp),
		inst("1011001000mmmddd", "SXTH", (*translatorVisitor).thumb16SXTH),
		inst("1011001001mmmddd", "SXTB", (*translatorVisitor).thumb16SXTB),
		inst("1011001010mmmddd", "UXTH", (*translatorVisitor).thumb16UXTH),
		inst("1011001011mmmddd", "UXTB", (*translatorVisitor).thumb16UXTB),
		inst("1011101000mmmddd", "REV", (*translatorVisitor).thumb16REV),
		inst("1011101001mmmddd", "REV16", (*translatorVisitor).thumb16REV16),
		inst("1011101011mmmddd", "REVSH", (*translatorVisitor).thumb16REVSH),
		inst("11011110--------", "UDF", (*translatorVisitor).thumb16UDF),
		inst("11011111vvvvvvvv", "SVC", (*translatorVisitor).thumb16SVC),
	}

	// Most specific rows first. The order within a specificity class is the
	// declaration order above.
	sort.SliceStable(table, func(i, j int) bool {
		return bits.OnesCount16(table[i].mask) > bits.OnesCount16(table[j].mask)
	})

	// Two rows of equal specificity claiming the same opcode is a
	// programming error; catch it before any translation runs.
	for op := 0; op < 0x10000; op++ {
		var first *matcher
		for i := range table {
			m := &table[i]
			if !m.matches(uint16(op)) {
				continue
			}
			if first == nil {
				first = m
				continue
			}
			if bits.OnesCount16(first.mask) == bits.OnesCount16(m.mask) {
				panic(fmt.Sprintf("thumb: opcode %04x matched by both %q and %q", op, first.name, m.name))
			}
		}
	}

	return table
}

// Decode finds the decode row for a 16-bit opcode. The second result is
// false for undefined encodings.
func Decode(op uint16) (*matcher, bool) {
	for i := range thumb16Table {
		if thumb16Table[i].matches(op) {
			return &thumb16Table[i], true
		}
	}
	return nil, false
}
