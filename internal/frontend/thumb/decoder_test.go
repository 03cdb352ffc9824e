package thumb_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Annomatg/dynarmic/internal/frontend/thumb"
)

var _ = Describe("Thumb16 decoder", func() {
	It("decodes LSRS r0, r1, #0", func() {
		m, ok := thumb.Decode(0x0808)
		Expect(ok).To(BeTrue())
		Expect(m.Name()).To(Equal("LSR (imm)"))
	})

	It("decodes the shift-immediate group by opcode bits", func() {
		for op, name := range map[uint16]string{
			0x0000: "LSL (imm)",
			0x0800: "LSR (imm)",
			0x1000: "ASR (imm)",
		} {
			m, ok := thumb.Decode(op)
			Expect(ok).To(BeTrue())
			Expect(m.Name()).To(Equal(name), "opcode %04x", op)
		}
	})

	It("prefers more specific rows over the data-processing group", func() {
		// 0x1800 is ADD (reg, T1), not a shift immediate.
		m, ok := thumb.Decode(0x1800)
		Expect(ok).To(BeTrue())
		Expect(m.Name()).To(Equal("ADD (reg, T1)"))
	})

	It("decodes the hi-register operations", func() {
		m, ok := thumb.Decode(0x4687) // MOV pc, r0
		Expect(ok).To(BeTrue())
		Expect(m.Name()).To(Equal("MOV (reg)"))

		m, ok = thumb.Decode(0x4408)
		Expect(ok).To(BeTrue())
		Expect(m.Name()).To(Equal("ADD (reg, T2)"))
	})

	It("decodes UDF and SVC", func() {
		m, ok := thumb.Decode(0xDE00)
		Expect(ok).To(BeTrue())
		Expect(m.Name()).To(Equal("UDF"))

		m, ok = thumb.Decode(0xDF2A)
		Expect(ok).To(BeTrue())
		Expect(m.Name()).To(Equal("SVC"))
	})

	It("reports unallocated encodings as undefined", func() {
		// The MUL slot of the data-processing group is not implemented.
		_, ok := thumb.Decode(0x4348)
		Expect(ok).To(BeFalse())
	})

	It("never yields more than one handler per opcode", func() {
		// Decoding must be total and deterministic over the full space:
		// either exactly one row matches first, or the opcode is undefined.
		defined := 0
		for op := 0; op < 0x10000; op++ {
			m, ok := thumb.Decode(uint16(op))
			if ok {
				Expect(m.Name()).NotTo(BeEmpty())
				defined++
			}
		}
		Expect(defined).To(BeNumerically(">", 0x4000))
	})
})

var _ = Describe("Instruction reader", func() {
	mem := func(words map[uint32]uint32) func(uint32) uint32 {
		return func(vaddr uint32) uint32 { return words[vaddr] }
	}

	It("reads a 16-bit instruction from an aligned address", func() {
		read := mem(map[uint32]uint32{0x1000: 0xDF2A_0808})
		inst, size := thumb.ReadThumbInstruction(0x1000, read)
		Expect(size).To(Equal(thumb.Size16))
		Expect(inst).To(Equal(uint32(0x0808)))
	})

	It("reads the high half-word from an unaligned address", func() {
		read := mem(map[uint32]uint32{0x1000: 0xDF2A_0808})
		inst, size := thumb.ReadThumbInstruction(0x1002, read)
		Expect(size).To(Equal(thumb.Size16))
		Expect(inst).To(Equal(uint32(0xDF2A)))
	})

	It("assembles a 32-bit instruction from two half-words", func() {
		read := mem(map[uint32]uint32{0x1000: 0xB000_F000})
		inst, size := thumb.ReadThumbInstruction(0x1000, read)
		Expect(size).To(Equal(thumb.Size32))
		Expect(inst).To(Equal(uint32(0xF000_B000)))
	})

	It("treats the 0xE800 prefix boundary as 16-bit", func() {
		read := mem(map[uint32]uint32{0x0: 0x0000_E800})
		_, size := thumb.ReadThumbInstruction(0, read)
		Expect(size).To(Equal(thumb.Size16))
	})
})
