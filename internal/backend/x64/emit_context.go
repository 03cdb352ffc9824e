package x64

import (
	"github.com/Annomatg/dynarmic/internal/fp"
	"github.com/Annomatg/dynarmic/internal/ir"
)

// EmitContext carries the per-block compilation state the emitters share.
type EmitContext struct {
	RegAlloc *RegAlloc
	Block    *ir.Block

	fpcr        fp.FPCR
	accurateNaN bool
}

// NewEmitContext returns a context for compiling block under the given FPCR
// bits. accurateNaN selects whether guest NaN payload propagation must be
// reproduced exactly; when false the host's native propagation is allowed.
func NewEmitContext(ra *RegAlloc, block *ir.Block, fpcr fp.FPCR, accurateNaN bool) *EmitContext {
	return &EmitContext{RegAlloc: ra, Block: block, fpcr: fpcr, accurateNaN: accurateNaN}
}

// FPCR returns the FPCR bits this block is specialized on.
func (ctx *EmitContext) FPCR() fp.FPCR { return ctx.fpcr }

// FPSCRDN reports Default-NaN mode.
func (ctx *EmitContext) FPSCRDN() bool { return ctx.fpcr.DN() }

// FPSCRRMode returns the block's rounding mode.
func (ctx *EmitContext) FPSCRRMode() fp.RoundingMode { return ctx.fpcr.RMode() }

// AccurateNaN reports whether NaN propagation must match the guest exactly.
func (ctx *EmitContext) AccurateNaN() bool { return ctx.accurateNaN }
