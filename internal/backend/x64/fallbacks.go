package x64

import (
	"fmt"

	"github.com/Annomatg/dynarmic/internal/fp"
)

// FallbackFn2 is the helper ABI for one-source scalar fallbacks: the frame
// holds the result and operand arrays; FPCR parameterizes the lanes and
// exceptions accumulate into *fpsr.
type FallbackFn2 func(result, arg1 *fp.Vec128, fpcr fp.FPCR, fpsr *fp.FPSR)

// FallbackFn3 is FallbackFn2 for two-source operations.
type FallbackFn3 func(result, arg1, arg2 *fp.Vec128, fpcr fp.FPCR, fpsr *fp.FPSR)

// FallbackFn4 is FallbackFn2 for three-source operations.
type FallbackFn4 func(result, arg1, arg2, arg3 *fp.Vec128, fpcr fp.FPCR, fpsr *fp.FPSR)

type nanThunkKey struct {
	fsize   int
	indexer Indexer
	nargs   int
}

type toFixedKey struct {
	fsize    int
	unsigned bool
	fbits    int
	rounding fp.RoundingMode
}

// Process-lifetime helper registrations. All keys the emitters can look up
// are populated at init; a missing key is a programming error.
var (
	nanFixupThunks       = map[nanThunkKey]*Thunk{}
	fmaNaNThunks         = map[int]*Thunk{}
	recipEstimateThunks  = map[int]*Thunk{}
	rsqrtEstimateThunks  = map[int]*Thunk{}
	recipStepThunks      = map[int]*Thunk{}
	rsqrtStepThunks      = map[int]*Thunk{}
	mulAddFallbackThunks = map[int]*Thunk{}
	toFixedThunks        = map[toFixedKey]*Thunk{}
)

func lanewise2(fsize int, op func(int, uint64, fp.FPCR, *fp.FPSR) uint64) FallbackFn2 {
	return func(result, arg1 *fp.Vec128, fpcr fp.FPCR, fpsr *fp.FPSR) {
		for i := 0; i < fp.LaneCount(fsize); i++ {
			result.SetLane(fsize, i, op(fsize, arg1.Lane(fsize, i), fpcr, fpsr))
		}
	}
}

func lanewise3(fsize int, op func(int, uint64, uint64, fp.FPCR, *fp.FPSR) uint64) FallbackFn3 {
	return func(result, arg1, arg2 *fp.Vec128, fpcr fp.FPCR, fpsr *fp.FPSR) {
		for i := 0; i < fp.LaneCount(fsize); i++ {
			result.SetLane(fsize, i, op(fsize, arg1.Lane(fsize, i), arg2.Lane(fsize, i), fpcr, fpsr))
		}
	}
}

func init() {
	for _, fsize := range []int{32, 64} {
		fsize := fsize

		for _, indexer := range []Indexer{IndexerDefault, IndexerPaired, IndexerPairedLower} {
			nanFixupThunks[nanThunkKey{fsize: fsize, indexer: indexer, nargs: 2}] =
				NewThunk(fmt.Sprintf("NaNFixup%d_%d_2", fsize, indexer), defaultNaNHandler(fsize, indexer, 2))
		}
		nanFixupThunks[nanThunkKey{fsize: fsize, indexer: IndexerDefault, nargs: 3}] =
			NewThunk(fmt.Sprintf("NaNFixup%d_0_3", fsize), defaultNaNHandler(fsize, IndexerDefault, 3))

		fmaNaNThunks[fsize] = NewThunk(fmt.Sprintf("FMANaNFixup%d", fsize), fmaNaNHandler(fsize))

		recipEstimateThunks[fsize] = NewThunk(fmt.Sprintf("FPVectorRecipEstimate%d", fsize),
			lanewise2(fsize, fp.FPRecipEstimate))
		rsqrtEstimateThunks[fsize] = NewThunk(fmt.Sprintf("FPVectorRSqrtEstimate%d", fsize),
			lanewise2(fsize, fp.FPRSqrtEstimate))
		recipStepThunks[fsize] = NewThunk(fmt.Sprintf("FPVectorRecipStepFused%d", fsize),
			lanewise3(fsize, fp.FPRecipStepFused))
		rsqrtStepThunks[fsize] = NewThunk(fmt.Sprintf("FPVectorRSqrtStepFused%d", fsize),
			lanewise3(fsize, fp.FPRSqrtStepFused))

		mulAddFallbackThunks[fsize] = NewThunk(fmt.Sprintf("FPVectorMulAdd%d", fsize),
			FallbackFn4(func(result, addend, op1, op2 *fp.Vec128, fpcr fp.FPCR, fpsr *fp.FPSR) {
				for i := 0; i < fp.LaneCount(fsize); i++ {
					result.SetLane(fsize, i,
						fp.FPMulAdd(fsize, addend.Lane(fsize, i), op1.Lane(fsize, i), op2.Lane(fsize, i), fpcr, fpsr))
				}
			}))

		for _, unsigned := range []bool{false, true} {
			unsigned := unsigned
			for fbits := 0; fbits < fsize; fbits++ {
				fbits := fbits
				for _, rounding := range []fp.RoundingMode{
					fp.RoundNearestTieEven,
					fp.RoundTowardsPlusInfinity,
					fp.RoundTowardsMinusInfinity,
					fp.RoundTowardsZero,
					fp.RoundNearestTieAwayFromZero,
				} {
					rounding := rounding
					key := toFixedKey{fsize: fsize, unsigned: unsigned, fbits: fbits, rounding: rounding}
					toFixedThunks[key] = NewThunk(
						fmt.Sprintf("FPVectorToFixed%d_u%v_f%d_%s", fsize, unsigned, fbits, rounding),
						lanewise2(fsize, func(fsize int, x uint64, fpcr fp.FPCR, fpsr *fp.FPSR) uint64 {
							return fp.FPToFixed(fsize, x, fbits, unsigned, fpcr, rounding, fpsr)
						}))
				}
			}
		}
	}
}
