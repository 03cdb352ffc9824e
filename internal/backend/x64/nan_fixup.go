package x64

import "github.com/Annomatg/dynarmic/internal/fp"

// Indexer selects how the scalar NaN fix-up walks the source arrays for
// lane i of the result.
type Indexer byte

const (
	// IndexerDefault pairs lane i of every source.
	IndexerDefault Indexer = iota
	// IndexerPaired yields (a[2i], a[2i+1]) over the lower half of the
	// result, then (b[2i], b[2i+1]) over the upper half, matching the
	// horizontal-add lane layout.
	IndexerPaired
	// IndexerPairedLower is IndexerPaired for operations whose upper result
	// half is zero.
	IndexerPairedLower
)

// NaNHandler rewalks the spilled [result, sources...] frame after the host
// operation flagged a NaN and substitutes guest-conformant NaNs. values[0]
// is the result array, updated in place.
type NaNHandler func(values []fp.Vec128)

func indexLanes(indexer Indexer, fsize, i int, values []fp.Vec128) []uint64 {
	lanes := fp.LaneCount(fsize)
	a, b := &values[1], &values[2]
	switch indexer {
	case IndexerDefault:
		ops := make([]uint64, len(values)-1)
		for n := range ops {
			ops[n] = values[n+1].Lane(fsize, i)
		}
		return ops
	case IndexerPaired:
		halfway := lanes / 2
		src := a
		if i >= halfway {
			src = b
			i -= halfway
		}
		return []uint64{src.Lane(fsize, 2*i), src.Lane(fsize, 2*i+1)}
	case IndexerPairedLower:
		switch lanes {
		case 4:
			switch i {
			case 0:
				return []uint64{a.Lane(fsize, 0), a.Lane(fsize, 1)}
			case 1:
				return []uint64{b.Lane(fsize, 0), b.Lane(fsize, 1)}
			}
			return []uint64{0, 0}
		case 2:
			if i == 0 {
				return []uint64{a.Lane(fsize, 0), b.Lane(fsize, 0)}
			}
			return []uint64{0, 0}
		}
	}
	panic("x64: bad indexer")
}

// defaultNaNHandler builds the standard fix-up: for each lane, the
// ProcessNaNs selection of the source lanes wins; failing that, a NaN
// produced by the host operation becomes the default NaN.
func defaultNaNHandler(fsize int, indexer Indexer, nargs int) NaNHandler {
	return func(values []fp.Vec128) {
		if len(values) != nargs+1 {
			panic("x64: NaN fix-up frame size mismatch")
		}
		result := &values[0]
		for i := 0; i < fp.LaneCount(fsize); i++ {
			ops := indexLanes(indexer, fsize, i, values)
			var r uint64
			var ok bool
			if len(ops) == 2 {
				r, ok = fp.ProcessNaNs(fsize, ops[0], ops[1])
			} else {
				r, ok = fp.ProcessNaNs3(fsize, ops[0], ops[1], ops[2])
			}
			switch {
			case ok:
				result.SetLane(fsize, i, r)
			case fp.IsNaN(fsize, result.Lane(fsize, i)):
				result.SetLane(fsize, i, fp.DefaultNaN(fsize))
			}
		}
	}
}

// fmaNaNHandler is the fix-up for the fused-multiply-add fast path. On top
// of the standard rules, a quiet-NaN addend combined with a (0, inf)
// product must produce the default NaN rather than the host's fused
// propagation.
func fmaNaNHandler(fsize int) NaNHandler {
	return func(values []fp.Vec128) {
		result := &values[0]
		a, b, c := &values[1], &values[2], &values[3]
		for i := 0; i < fp.LaneCount(fsize); i++ {
			la, lb, lc := a.Lane(fsize, i), b.Lane(fsize, i), c.Lane(fsize, i)
			infZero := (fp.IsInf(fsize, lb) && fp.IsZero(fsize, lc)) ||
				(fp.IsZero(fsize, lb) && fp.IsInf(fsize, lc))
			switch {
			case fp.IsQNaN(fsize, la) && infZero:
				result.SetLane(fsize, i, fp.DefaultNaN(fsize))
			default:
				if r, ok := fp.ProcessNaNs3(fsize, la, lb, lc); ok {
					result.SetLane(fsize, i, r)
				} else if fp.IsNaN(fsize, result.Lane(fsize, i)) {
					result.SetLane(fsize, i, fp.DefaultNaN(fsize))
				}
			}
		}
	}
}
