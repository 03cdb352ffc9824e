package ir

import (
	"fmt"

	"github.com/Annomatg/dynarmic/internal/arm"
)

// Terminal is the final control-flow decision of a block.
type Terminal interface {
	isTerminal()
	fmt.Stringer
}

// TermInterpret hands the block at Next to the interpreter fallback.
type TermInterpret struct {
	Next arm.LocationDescriptor
}

// TermReturnToDispatch returns control to the dispatcher, which looks up the
// next block from the written-back guest state.
type TermReturnToDispatch struct{}

// TermLinkBlock jumps to the compiled block at Next, checking the cycle
// budget first.
type TermLinkBlock struct {
	Next arm.LocationDescriptor
}

// TermLinkBlockFast jumps to the compiled block at Next without a cycle
// check.
type TermLinkBlockFast struct {
	Next arm.LocationDescriptor
}

// Cond is a guest condition code used by TermIf.
type Cond byte

const (
	CondEQ Cond = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
)

// TermIf selects between two terminals on a guest condition.
type TermIf struct {
	If   Cond
	Then Terminal
	Else Terminal
}

func (TermInterpret) isTerminal()        {}
func (TermReturnToDispatch) isTerminal() {}
func (TermLinkBlock) isTerminal()        {}
func (TermLinkBlockFast) isTerminal()    {}
func (TermIf) isTerminal()               {}

func (t TermInterpret) String() string { return fmt.Sprintf("Interpret{%s}", t.Next) }

func (TermReturnToDispatch) String() string { return "ReturnToDispatch" }

func (t TermLinkBlock) String() string { return fmt.Sprintf("LinkBlock{%s}", t.Next) }

func (t TermLinkBlockFast) String() string { return fmt.Sprintf("LinkBlockFast{%s}", t.Next) }

func (t TermIf) String() string {
	return fmt.Sprintf("If{%d, %s, %s}", t.If, t.Then, t.Else)
}
