//go:build windows

package x64

import (
	"github.com/Annomatg/dynarmic/internal/asm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
)

// Windows x64 calling convention.

const abiIsWindows = true

// ABIShadowSpace is the caller-reserved spill area above the return address.
const ABIShadowSpace = 32

var abiParamRegisters = []asm.Register{
	amd64.RegCX, amd64.RegDX, amd64.RegR8, amd64.RegR9,
}

var abiCallerSaveGprs = []asm.Register{
	amd64.RegAX, amd64.RegCX, amd64.RegDX,
	amd64.RegR8, amd64.RegR9, amd64.RegR10, amd64.RegR11,
}

var abiCallerSaveXmms = []asm.Register{
	amd64.RegX0, amd64.RegX1, amd64.RegX2,
	amd64.RegX3, amd64.RegX4, amd64.RegX5,
}
