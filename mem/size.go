package mem

import (
	"strconv"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/arith"
)

// Size is a non-negative byte count.
type Size struct {
	bytes uint64
}

// Offset is a byte position inside a representation.
type Offset = Size

// ZeroSize is the size of zero-sized values.
var ZeroSize = Size{}

func SizeFromBytes(n uint64) Size {
	return Size{bytes: n}
}

// SizeFromBits converts a bit count; it fails for counts that are not whole bytes.
func SizeFromBits(bits uint64) (Size, bool) {
	if bits%8 != 0 {
		return Size{}, false
	}
	return Size{bytes: bits / 8}, true
}

func (s Size) Bytes() uint64 {
	return s.bytes
}

func (s Size) Bits() uint64 {
	return s.bytes * 8
}

func (s Size) IsZero() bool {
	return s.bytes == 0
}

// Add returns s+o or an overflow error.
func (s Size) Add(o Size) (Size, error) {
	n, ok := arith.SafeAddU64(s.bytes, o.bytes)
	if !ok {
		return Size{}, errors.Overflow(errors.PhaseLayout, nil, s.String()+"+"+o.String(), "size")
	}
	return Size{bytes: n}, nil
}

// Mul returns s*n or an overflow error.
func (s Size) Mul(n uint64) (Size, error) {
	m, ok := arith.SafeMulU64(s.bytes, n)
	if !ok {
		return Size{}, errors.Overflow(errors.PhaseLayout, nil, s.String()+"*"+strconv.FormatUint(n, 10), "size")
	}
	return Size{bytes: m}, nil
}

// AlignTo rounds s up to the next multiple of a.
func (s Size) AlignTo(a Align) (Size, error) {
	n, ok := arith.AlignTo(s.bytes, a.Bytes())
	if !ok {
		return Size{}, errors.Overflow(errors.PhaseLayout, nil, s.String(), "size aligned to "+a.String())
	}
	return Size{bytes: n}, nil
}

// IsAligned reports whether s is a multiple of a.
func (s Size) IsAligned(a Align) bool {
	return s.bytes&(a.Bytes()-1) == 0
}

func (s Size) Less(o Size) bool {
	return s.bytes < o.bytes
}

func (s Size) Cmp(o Size) int {
	switch {
	case s.bytes < o.bytes:
		return -1
	case s.bytes > o.bytes:
		return 1
	}
	return 0
}

func MaxSize(a, b Size) Size {
	if a.bytes >= b.bytes {
		return a
	}
	return b
}

func (s Size) String() string {
	return strconv.FormatUint(s.bytes, 10)
}
