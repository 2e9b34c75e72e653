package arith

import "math"

func SafeMulU64(a, b uint64) (uint64, bool) {
	if b != 0 && a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align uint64) (uint64, bool) {
	if align == 0 {
		return offset, true
	}
	sum, ok := SafeAddU64(offset, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// NextPow2 returns the smallest power of two >= n, with NextPow2(0) == 1.
// The second result is false when that power does not fit in 64 bits.
func NextPow2(n uint64) (uint64, bool) {
	if n <= 1 {
		return 1, true
	}
	if n > 1<<63 {
		return 0, false
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p, true
}
