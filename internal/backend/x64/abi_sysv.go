//go:build !windows

package x64

import (
	"github.com/Annomatg/dynarmic/internal/asm"
	"github.com/Annomatg/dynarmic/internal/asm/amd64"
)

// System V AMD64 calling convention.

const abiIsWindows = false

// ABIShadowSpace is the caller-reserved spill area above the return address.
const ABIShadowSpace = 0

var abiParamRegisters = []asm.Register{
	amd64.RegDI, amd64.RegSI, amd64.RegDX, amd64.RegCX, amd64.RegR8, amd64.RegR9,
}

var abiCallerSaveGprs = []asm.Register{
	amd64.RegAX, amd64.RegCX, amd64.RegDX, amd64.RegSI, amd64.RegDI,
	amd64.RegR8, amd64.RegR9, amd64.RegR10, amd64.RegR11,
}

var abiCallerSaveXmms = []asm.Register{
	amd64.RegX0, amd64.RegX1, amd64.RegX2, amd64.RegX3,
	amd64.RegX4, amd64.RegX5, amd64.RegX6, amd64.RegX7,
	amd64.RegX8, amd64.RegX9, amd64.RegX10, amd64.RegX11,
	amd64.RegX12, amd64.RegX13, amd64.RegX14, amd64.RegX15,
}
