package thumb_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Annomatg/dynarmic/internal/arm"
	"github.com/Annomatg/dynarmic/internal/frontend/thumb"
	"github.com/Annomatg/dynarmic/internal/ir"
)

// program lays Thumb half-words out from base and returns the aligned
// 32-bit code fetch callback.
func program(base uint32, halfwords ...uint16) func(uint32) uint32 {
	return func(vaddr uint32) uint32 {
		word := uint32(0xE7FE_E7FE) // b . ; keeps strays harmless
		get := func(addr uint32) (uint16, bool) {
			if addr < base {
				return 0, false
			}
			i := (addr - base) / 2
			if int(i) >= len(halfwords) {
				return 0, false
			}
			return halfwords[i], true
		}
		if lo, ok := get(vaddr); ok {
			word = word&0xFFFF0000 | uint32(lo)
		}
		if hi, ok := get(vaddr + 2); ok {
			word = word&0x0000FFFF | uint32(hi)<<16
		}
		return word
	}
}

func loc(pc uint32) arm.LocationDescriptor {
	return arm.LocationDescriptor{PC: pc, TFlag: true}
}

func countOps(b *ir.Block, op ir.Opcode) int {
	n := 0
	for i := 0; i < b.NumInsts(); i++ {
		if b.Inst(i).Opcode() == op {
			n++
		}
	}
	return n
}

func findOp(b *ir.Block, op ir.Opcode) *ir.Inst {
	for i := 0; i < b.NumInsts(); i++ {
		if b.Inst(i).Opcode() == op {
			return b.Inst(i)
		}
	}
	return nil
}

var _ = Describe("Thumb translation", func() {
	It("requires Thumb state", func() {
		Expect(func() {
			thumb.Translate(arm.LocationDescriptor{PC: 0}, program(0, 0xDE00))
		}).To(Panic())
	})

	Describe("LSRS r0, r1, #0", func() {
		// The zero immediate encodes a shift by 32: the result is always
		// zero and the carry receives bit 31.
		block := func() *ir.Block {
			return thumb.Translate(loc(0), program(0, 0x0808, 0xDE00))
		}

		It("shifts by 32, not by 0", func() {
			b := block()
			shift := findOp(b, ir.OpLogicalShiftRight)
			Expect(shift).NotTo(BeNil())
			Expect(shift.Arg(1).U8()).To(Equal(uint8(32)))
		})

		It("updates N, Z and C but not V", func() {
			b := block()
			Expect(countOps(b, ir.OpSetNFlag)).To(Equal(1))
			Expect(countOps(b, ir.OpSetZFlag)).To(Equal(1))
			Expect(countOps(b, ir.OpSetCFlag)).To(Equal(1))
			Expect(countOps(b, ir.OpSetVFlag)).To(BeZero())
		})

		It("derives the carry from the shift itself", func() {
			b := block()
			carry := findOp(b, ir.OpGetCarryFromOp)
			Expect(carry).NotTo(BeNil())
			Expect(carry.Arg(0).IsImmediate()).To(BeFalse())
		})
	})

	Describe("flag-setting arithmetic", func() {
		It("ADDS emits all four flags", func() {
			b := thumb.Translate(loc(0), program(0, 0x1840, 0xDE00)) // ADDS r0, r0, r1
			Expect(countOps(b, ir.OpAddWithCarry)).To(Equal(1))
			Expect(countOps(b, ir.OpSetVFlag)).To(Equal(1))
			Expect(countOps(b, ir.OpGetOverflowFromOp)).To(Equal(1))
		})

		It("SUBS passes carry-in one", func() {
			b := thumb.Translate(loc(0), program(0, 0x1A40, 0xDE00)) // SUBS r0, r0, r1
			sub := findOp(b, ir.OpSubWithCarry)
			Expect(sub).NotTo(BeNil())
			Expect(sub.Arg(2).U1()).To(BeTrue())
		})

		It("ADCS threads APSR.C into the addition", func() {
			b := thumb.Translate(loc(0), program(0, 0x4148, 0xDE00)) // ADCS r0, r1
			add := findOp(b, ir.OpAddWithCarry)
			Expect(add).NotTo(BeNil())
			Expect(add.Arg(2).IsImmediate()).To(BeFalse())
			Expect(countOps(b, ir.OpGetCFlag)).To(Equal(1))
		})
	})

	Describe("PC writes", func() {
		It("MOV pc, r0 ends the block with ReturnToDispatch", func() {
			b := thumb.Translate(loc(0), program(0, 0x4687))
			Expect(countOps(b, ir.OpALUWritePC)).To(Equal(1))
			Expect(b.Term()).To(Equal(ir.TermReturnToDispatch{}))
			Expect(b.CycleCount).To(Equal(1))
		})

		It("ADD pc, pc is UNPREDICTABLE and refuses to translate", func() {
			Expect(func() {
				thumb.Translate(loc(0), program(0, 0x44FF))
			}).To(Panic())
		})

		It("CMP with two low registers in the hi form is UNPREDICTABLE", func() {
			Expect(func() {
				thumb.Translate(loc(0), program(0, 0x4508))
			}).To(Panic())
		})
	})

	Describe("literal loads", func() {
		It("LDR r0, [pc, #4] folds the aligned base address", func() {
			// At pc = 0x1002 the PC reads 0x1006; aligned down it is 0x1004.
			b := thumb.Translate(loc(0x1002), program(0x1002, 0x4801, 0xDE00))
			load := findOp(b, ir.OpReadMemory32)
			Expect(load).NotTo(BeNil())
			Expect(load.Arg(0).IsImmediate()).To(BeTrue())
			Expect(load.Arg(0).U32()).To(Equal(uint32(0x1004 + 4)))
		})

		It("ADR computes the same aligned base", func() {
			b := thumb.Translate(loc(0x1000), program(0x1000, 0xA001, 0xDE00)) // ADR r0, #4
			set := findOp(b, ir.OpSetRegister)
			Expect(set).NotTo(BeNil())
			Expect(set.Arg(1).U32()).To(Equal(uint32(0x1004 + 4)))
		})
	})

	Describe("block terminators", func() {
		It("UDF hands the block to the interpreter at its own location", func() {
			b := thumb.Translate(loc(0x100), program(0x100, 0xDE00))
			Expect(b.Term()).To(Equal(ir.TermInterpret{Next: loc(0x100)}))
		})

		It("a Thumb-32 prefix defers to the interpreter", func() {
			b := thumb.Translate(loc(0), program(0, 0xF000, 0xB000))
			Expect(b.Term()).To(Equal(ir.TermInterpret{Next: loc(0)}))
			Expect(b.CycleCount).To(Equal(1))
		})

		It("SVC calls the supervisor and links to the next instruction", func() {
			b := thumb.Translate(loc(0x200), program(0x200, 0xDF2A))
			svc := findOp(b, ir.OpCallSupervisor)
			Expect(svc).NotTo(BeNil())
			Expect(svc.Arg(0).U32()).To(Equal(uint32(0x2A)))
			Expect(b.Term()).To(Equal(ir.TermLinkBlock{Next: loc(0x202)}))
		})

		It("every translated block carries exactly one terminator", func() {
			for _, code := range [][]uint16{
				{0xDE00},
				{0x0808, 0xDE00},
				{0x4687},
				{0xDF01},
				{0x2001, 0x2102, 0xDF00},
			} {
				b := thumb.Translate(loc(0), program(0, code...))
				Expect(b.Term()).NotTo(BeNil())
			}
		})
	})

	Describe("straight-line translation", func() {
		It("accumulates a cycle per instruction", func() {
			b := thumb.Translate(loc(0), program(0, 0x2001, 0x2102, 0xDE00))
			Expect(b.CycleCount).To(Equal(3))
		})

		It("REV16 reverses each half independently", func() {
			b := thumb.Translate(loc(0), program(0, 0xBA48, 0xDE00)) // REV16 r0, r1
			Expect(countOps(b, ir.OpByteReverseHalf)).To(Equal(2))
			Expect(countOps(b, ir.OpZeroExtendHalfToWord)).To(Equal(2))
			Expect(countOps(b, ir.OpOr)).To(Equal(1))
		})

		It("REVSH sign-extends the reversed half", func() {
			b := thumb.Translate(loc(0), program(0, 0xBAC8, 0xDE00)) // REVSH r0, r1
			Expect(countOps(b, ir.OpByteReverseHalf)).To(Equal(1))
			Expect(countOps(b, ir.OpSignExtendHalfToWord)).To(Equal(1))
		})

		It("stores narrow the data, not the address", func() {
			b := thumb.Translate(loc(0), program(0, 0x5450, 0xDE00)) // STRB r0, [r2, r1]
			store := findOp(b, ir.OpWriteMemory8)
			Expect(store).NotTo(BeNil())
			Expect(countOps(b, ir.OpLeastSignificantByte)).To(Equal(1))
		})
	})
})
