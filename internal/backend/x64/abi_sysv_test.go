//go:build !windows

package x64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Annomatg/dynarmic/internal/asm/amd64"
)

func TestSysVParameterRegisters(t *testing.T) {
	require.Equal(t, amd64.RegDI, abiParamRegisters[0])
	require.Equal(t, amd64.RegSI, abiParamRegisters[1])
	require.Equal(t, amd64.RegDX, abiParamRegisters[2])
	require.Equal(t, amd64.RegCX, abiParamRegisters[3])
	require.Equal(t, amd64.RegR8, abiParamRegisters[4])
	require.Equal(t, amd64.RegR9, abiParamRegisters[5])
	require.Zero(t, ABIShadowSpace)
}

func TestSysVAllXmmsAreVolatile(t *testing.T) {
	require.Len(t, abiCallerSaveXmms, 16)
}
