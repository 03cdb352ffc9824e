package fp

// ProcessNaNs32 implements the architectural NaN selection rule for two
// operands: a signaling NaN wins over a quiet one, and within the same kind
// the first operand wins. Signaling NaNs are returned quietened. The second
// result is false when neither operand is a NaN.
func ProcessNaNs32(a, b uint32) (uint32, bool) {
	switch {
	case IsSNaN32(a):
		return a | quietBit32, true
	case IsSNaN32(b):
		return b | quietBit32, true
	case IsQNaN32(a):
		return a, true
	case IsQNaN32(b):
		return b, true
	}
	return 0, false
}

// ProcessNaNs64 is ProcessNaNs32 for double-precision lanes.
func ProcessNaNs64(a, b uint64) (uint64, bool) {
	switch {
	case IsSNaN64(a):
		return a | quietBit64, true
	case IsSNaN64(b):
		return b | quietBit64, true
	case IsQNaN64(a):
		return a, true
	case IsQNaN64(b):
		return b, true
	}
	return 0, false
}

// ProcessNaNs3x32 extends the rule to three operands.
func ProcessNaNs3x32(a, b, c uint32) (uint32, bool) {
	switch {
	case IsSNaN32(a):
		return a | quietBit32, true
	case IsSNaN32(b):
		return b | quietBit32, true
	case IsSNaN32(c):
		return c | quietBit32, true
	case IsQNaN32(a):
		return a, true
	case IsQNaN32(b):
		return b, true
	case IsQNaN32(c):
		return c, true
	}
	return 0, false
}

// ProcessNaNs3x64 extends the rule to three double-precision operands.
func ProcessNaNs3x64(a, b, c uint64) (uint64, bool) {
	switch {
	case IsSNaN64(a):
		return a | quietBit64, true
	case IsSNaN64(b):
		return b | quietBit64, true
	case IsSNaN64(c):
		return c | quietBit64, true
	case IsQNaN64(a):
		return a, true
	case IsQNaN64(b):
		return b, true
	case IsQNaN64(c):
		return c, true
	}
	return 0, false
}

// ProcessNaNs applies the two-operand rule to lanes of either size held in
// uint64s.
func ProcessNaNs(fsize int, a, b uint64) (uint64, bool) {
	if fsize == 32 {
		r, ok := ProcessNaNs32(uint32(a), uint32(b))
		return uint64(r), ok
	}
	return ProcessNaNs64(a, b)
}

// ProcessNaNs3 applies the three-operand rule to lanes of either size.
func ProcessNaNs3(fsize int, a, b, c uint64) (uint64, bool) {
	if fsize == 32 {
		r, ok := ProcessNaNs3x32(uint32(a), uint32(b), uint32(c))
		return uint64(r), ok
	}
	return ProcessNaNs3x64(a, b, c)
}
