package asm

import (
	"unsafe"

	"github.com/Annomatg/dynarmic/internal/platform"
)

// CodeSegment is an executable memory region holding one compiled block.
//
// The backing mapping is not managed by the garbage collector and must be
// released manually with Unmap.
type CodeSegment struct {
	code []byte
}

// NewCodeSegment copies the assembled machine code into a fresh executable
// mapping.
func NewCodeSegment(code []byte) (*CodeSegment, error) {
	mapped, err := platform.MmapCodeSegment(code)
	if err != nil {
		return nil, err
	}
	return &CodeSegment{code: mapped}, nil
}

// Addr returns the entry address of the segment.
func (s *CodeSegment) Addr() uintptr {
	return uintptr(unsafe.Pointer(&s.code[0]))
}

// Len returns the mapped length in bytes.
func (s *CodeSegment) Len() int { return len(s.code) }

// Bytes returns the mapped machine code.
func (s *CodeSegment) Bytes() []byte { return s.code }

// Unmap releases the mapping. The segment is unusable afterwards.
func (s *CodeSegment) Unmap() error {
	if s.code == nil {
		return nil
	}
	err := platform.MunmapCodeSegment(s.code)
	s.code = nil
	return err
}
