package mem

import (
	"math/big"
	"math/bits"
	"strconv"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/arith"
)

// Align is a power-of-two byte count, stored as its base-2 logarithm.
type Align struct {
	log2 uint8
}

// AlignOne is the multiplicative identity; it is also the zero value.
var AlignOne = Align{}

// AlignFromBytes returns the alignment of exactly n bytes; ok is false when
// n is not a power of two.
func AlignFromBytes(n uint64) (Align, bool) {
	if !arith.IsPow2(n) {
		return Align{}, false
	}
	return Align{log2: uint8(bits.TrailingZeros64(n))}, true
}

// AlignUp rounds n up to the next power of two. Zero maps to AlignOne.
func AlignUp(n uint64) Align {
	p, ok := arith.NextPow2(n)
	if !ok {
		errors.Violation("alignment %d does not fit in 64 bits", n)
	}
	return Align{log2: uint8(bits.TrailingZeros64(p))}
}

// MustAlign is AlignFromBytes for constants known to be powers of two.
func MustAlign(n uint64) Align {
	a, ok := AlignFromBytes(n)
	if !ok {
		errors.Violation("alignment %d is not a power of two", n)
	}
	return a
}

func (a Align) Bytes() uint64 {
	return 1 << a.log2
}

func (a Align) Log2() uint8 {
	return a.log2
}

// Size returns the alignment as a byte count.
func (a Align) Size() Size {
	return SizeFromBytes(a.Bytes())
}

func (a Align) Max(b Align) Align {
	if a.log2 >= b.log2 {
		return a
	}
	return b
}

func (a Align) Min(b Align) Align {
	if a.log2 <= b.log2 {
		return a
	}
	return b
}

// IsAligned reports whether addr is a multiple of a. Negative addresses
// are judged by their two's-complement low bits.
func (a Align) IsAligned(addr *big.Int) bool {
	for i := 0; i < int(a.log2); i++ {
		if addr.Bit(i) != 0 {
			return false
		}
	}
	return true
}

func (a Align) String() string {
	return strconv.FormatUint(a.Bytes(), 10)
}
