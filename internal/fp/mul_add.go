package fp

import (
	"math"
	"math/big"
)

// sumPrec is enough mantissa bits to hold addend + op1*op2 exactly for
// double precision (exponent span plus product width).
const sumPrec = 4096

// FPMulAdd computes the fused addend + op1*op2 for one lane with the
// architectural special-case rules:
//
//   - a quiet-NaN addend with a (0, inf) or (inf, 0) product yields the
//     default NaN (this precedes ordinary NaN propagation),
//   - NaN operands propagate under ProcessNaNs (or collapse to the default
//     NaN when FPCR.DN is set),
//   - (0, inf) products and inf-inf cancellation are invalid operations,
//   - the numeric case is a single correctly rounded fused operation under
//     the FPCR rounding mode.
func FPMulAdd(fsize int, addend, op1, op2 uint64, fpcr FPCR, fpsr *FPSR) uint64 {
	signA := laneSign(fsize, addend)
	sign1 := laneSign(fsize, op1)
	sign2 := laneSign(fsize, op2)

	invalidProduct := (IsInf(fsize, op1) && IsZero(fsize, op2)) ||
		(IsZero(fsize, op1) && IsInf(fsize, op2))

	if IsQNaN(fsize, addend) && invalidProduct {
		fpsr.Raise(FPSRIOC)
		return DefaultNaN(fsize)
	}

	if anySNaN3(fsize, addend, op1, op2) {
		fpsr.Raise(FPSRIOC)
	}
	if n, ok := ProcessNaNs3(fsize, addend, op1, op2); ok {
		if fpcr.DN() {
			return DefaultNaN(fsize)
		}
		return n
	}

	if invalidProduct {
		fpsr.Raise(FPSRIOC)
		return DefaultNaN(fsize)
	}

	signP := sign1 != sign2
	infA, infP := IsInf(fsize, addend), IsInf(fsize, op1) || IsInf(fsize, op2)
	if infA && infP && signA != signP {
		fpsr.Raise(FPSRIOC)
		return DefaultNaN(fsize)
	}
	if infA {
		return packInf(fsize, signA)
	}
	if infP {
		return packInf(fsize, signP)
	}

	zeroA := IsZero(fsize, addend)
	zeroP := IsZero(fsize, op1) || IsZero(fsize, op2)
	if zeroA && zeroP {
		if signA == signP {
			return packZero(fsize, signA)
		}
		return packZero(fsize, fpcr.RMode() == RoundTowardsMinusInfinity)
	}

	return fusedSum(fsize, addend, op1, op2, fpcr.RMode(), fpsr)
}

// fusedSum computes addend + op1*op2 for finite operands with one rounding.
// The exact sum is formed in a wide big.Float and rounded once to the target
// precision under the requested mode.
func fusedSum(fsize int, addend, op1, op2 uint64, rounding RoundingMode, fpsr *FPSR) uint64 {
	a := bigFromLane(fsize, addend)
	x := bigFromLane(fsize, op1)
	y := bigFromLane(fsize, op2)

	exact := new(big.Float).SetPrec(sumPrec)
	exact.Mul(x, y) // exact: product fits well within sumPrec
	exact.Add(exact, a)

	if exact.Sign() == 0 {
		// Exact cancellation: +0 in every mode but round-to-minus-infinity.
		return packZero(fsize, rounding == RoundTowardsMinusInfinity)
	}

	mode := bigMode(rounding)
	negative := exact.Sign() < 0
	if fsize == 32 {
		rounded := new(big.Float).SetPrec(24).SetMode(mode).Set(exact)
		f, acc := rounded.Float32()
		if acc != big.Exact || rounded.Cmp(exact) != 0 {
			fpsr.Raise(FPSRIXC)
		}
		if math.IsInf(float64(f), 0) {
			fpsr.Raise(FPSROFC | FPSRIXC)
			if !overflowsToInfinity(rounding, negative) {
				f = float32(math.Copysign(math.MaxFloat32, float64(f)))
			}
		}
		return uint64(math.Float32bits(f))
	}
	rounded := new(big.Float).SetPrec(53).SetMode(mode).Set(exact)
	f, acc := rounded.Float64()
	if acc != big.Exact || rounded.Cmp(exact) != 0 {
		fpsr.Raise(FPSRIXC)
	}
	if math.IsInf(f, 0) {
		fpsr.Raise(FPSROFC | FPSRIXC)
		if !overflowsToInfinity(rounding, negative) {
			f = math.Copysign(math.MaxFloat64, f)
		}
	}
	return math.Float64bits(f)
}

// overflowsToInfinity reports whether an overflow in the given direction
// rounds to infinity rather than saturating at the largest finite value.
func overflowsToInfinity(rounding RoundingMode, negative bool) bool {
	switch rounding {
	case RoundTowardsZero:
		return false
	case RoundTowardsPlusInfinity:
		return !negative
	case RoundTowardsMinusInfinity:
		return negative
	}
	return true
}

func bigMode(rounding RoundingMode) big.RoundingMode {
	switch rounding {
	case RoundTowardsPlusInfinity:
		return big.ToPositiveInf
	case RoundTowardsMinusInfinity:
		return big.ToNegativeInf
	case RoundTowardsZero:
		return big.ToZero
	default:
		return big.ToNearestEven
	}
}

func bigFromLane(fsize int, v uint64) *big.Float {
	f := new(big.Float).SetPrec(sumPrec)
	if fsize == 32 {
		return f.SetFloat64(float64(math.Float32frombits(uint32(v))))
	}
	return f.SetFloat64(math.Float64frombits(v))
}

func laneSign(fsize int, v uint64) bool {
	if fsize == 32 {
		return uint32(v)&signBit32 != 0
	}
	return v&signBit64 != 0
}

func packInf(fsize int, negative bool) uint64 {
	if fsize == 32 {
		bits := exponentMask32
		if negative {
			bits |= signBit32
		}
		return uint64(bits)
	}
	bits := exponentMask64
	if negative {
		bits |= signBit64
	}
	return bits
}

func packZero(fsize int, negative bool) uint64 {
	if !negative {
		return 0
	}
	if fsize == 32 {
		return uint64(signBit32)
	}
	return signBit64
}

func anySNaN3(fsize int, a, b, c uint64) bool {
	if fsize == 32 {
		return IsSNaN32(uint32(a)) || IsSNaN32(uint32(b)) || IsSNaN32(uint32(c))
	}
	return IsSNaN64(a) || IsSNaN64(b) || IsSNaN64(c)
}
