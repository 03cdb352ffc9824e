package platform

import (
	"github.com/xyproto/env/v2"
	"golang.org/x/sys/cpu"
)

// CpuFeature identifies one host instruction-set extension the backend can
// key fast paths on.
type CpuFeature uint32

const (
	CpuFeatureSSE3 CpuFeature = 1 << iota
	CpuFeatureSSE41
	CpuFeatureAVX
	CpuFeatureAVX2
	CpuFeatureFMA
	CpuFeatureAVX512F
	CpuFeatureAVX512DQ
	CpuFeatureAVX512VL
)

// CpuFeatureFlags answers feature probes. The backend snapshots one
// implementation per compiled block so a block never mixes tiers.
type CpuFeatureFlags interface {
	// Has reports whether the host supports the given feature.
	Has(feature CpuFeature) bool
}

// CpuFeatures exposes the capabilities of this CPU, minus any capability
// switched off through the environment.
var CpuFeatures CpuFeatureFlags = loadCpuFeatureFlags()

type cpuFeatureFlags struct {
	bits CpuFeature
}

func (f *cpuFeatureFlags) Has(feature CpuFeature) bool {
	return f.bits&feature != 0
}

func loadCpuFeatureFlags() CpuFeatureFlags {
	f := &cpuFeatureFlags{}
	set := func(has bool, feature CpuFeature) {
		if has {
			f.bits |= feature
		}
	}
	set(cpu.X86.HasSSE3, CpuFeatureSSE3)
	set(cpu.X86.HasSSE41, CpuFeatureSSE41)
	set(cpu.X86.HasAVX, CpuFeatureAVX)
	set(cpu.X86.HasAVX2, CpuFeatureAVX2)
	set(cpu.X86.HasFMA, CpuFeatureFMA)
	set(cpu.X86.HasAVX512F, CpuFeatureAVX512F)
	set(cpu.X86.HasAVX512DQ, CpuFeatureAVX512DQ)
	set(cpu.X86.HasAVX512VL, CpuFeatureAVX512VL)

	// Conformance testing wants the slow tiers reachable on any host.
	if env.Bool("DYNARMIC_NO_SSE41") {
		f.bits &^= CpuFeatureSSE41
	}
	if env.Bool("DYNARMIC_NO_AVX") {
		f.bits &^= CpuFeatureAVX | CpuFeatureAVX2 | CpuFeatureAVX512F | CpuFeatureAVX512DQ | CpuFeatureAVX512VL
	}
	if env.Bool("DYNARMIC_NO_FMA") {
		f.bits &^= CpuFeatureFMA
	}
	if env.Bool("DYNARMIC_NO_AVX512") {
		f.bits &^= CpuFeatureAVX512F | CpuFeatureAVX512DQ | CpuFeatureAVX512VL
	}
	return f
}

// FakeCpuFeatureFlags is a fixed feature set for tests.
type FakeCpuFeatureFlags struct {
	Bits CpuFeature
}

// Has implements CpuFeatureFlags.
func (f FakeCpuFeatureFlags) Has(feature CpuFeature) bool {
	return f.Bits&feature != 0
}
