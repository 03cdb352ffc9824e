package thumb

import (
	"github.com/Annomatg/dynarmic/internal/arm"
	"github.com/Annomatg/dynarmic/internal/ir"
)

// Translate decodes instructions starting at descriptor until one ends the
// block, returning the IR block with its terminator set. memoryReadCode is
// the 32-bit aligned code fetch callback.
func Translate(descriptor arm.LocationDescriptor, memoryReadCode func(vaddr uint32) uint32) *ir.Block {
	if !descriptor.TFlag {
		panic("thumb: the processor must be in Thumb mode")
	}
	v := &translatorVisitor{ir: ir.NewEmitter(descriptor)}

	shouldContinue := true
	for shouldContinue {
		instruction, size := ReadThumbInstruction(v.ir.CurrentLocation.PC, memoryReadCode)

		if size == Size16 {
			if m, ok := Decode(uint16(instruction)); ok {
				shouldContinue = m.call(v, uint16(instruction))
			} else {
				shouldContinue = v.thumb16UDF(nil)
			}
		} else {
			// Thumb-32 is not translated yet; leave it to the interpreter.
			shouldContinue = v.InterpretThisInstruction()
		}

		advance := uint32(2)
		if size == Size32 {
			advance = 4
		}
		v.ir.CurrentLocation = v.ir.CurrentLocation.AdvancePC(advance)
		v.ir.Block.CycleCount++
	}

	return v.ir.Block
}
