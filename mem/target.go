package mem

import (
	"fmt"
	"math/big"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/arith"
)

// Endianness is the byte order integers are stored in.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ParseEndianness accepts "little" or "big".
func ParseEndianness(s string) (Endianness, bool) {
	switch s {
	case "little", "le", "":
		return LittleEndian, true
	case "big", "be":
		return BigEndian, true
	}
	return LittleEndian, false
}

// Target parameterizes layout for one hardware/ABI target. It is passed
// explicitly into every layout computation.
type Target struct {
	Name        string
	PtrSize     Size
	PtrAlign    Align
	IntMaxAlign Align
	Endian      Endianness
}

// Validate checks the target parameters are coherent.
func (t Target) Validate() error {
	ps := t.PtrSize.Bytes()
	if !arith.IsPow2(ps) || ps < 2 || ps > 8 {
		return errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("target %q: pointer size %d must be 2, 4 or 8 bytes", t.Name, ps))
	}
	if t.PtrAlign.Bytes() > ps {
		return errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("target %q: pointer alignment %s exceeds pointer size %d", t.Name, t.PtrAlign, ps))
	}
	return nil
}

func (t Target) PtrBits() uint {
	return uint(t.PtrSize.Bits())
}

// AddressSpace returns 2^PtrBits, the modulus of address arithmetic.
func (t Target) AddressSpace() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), t.PtrBits())
}

// MaxObjectSize is the largest size an object may have, isize::MAX.
func (t Target) MaxObjectSize() Size {
	return SizeFromBytes(1<<(t.PtrBits()-1) - 1)
}

// ValidSize reports whether s fits MaxObjectSize.
func (t Target) ValidSize(s Size) bool {
	return !t.MaxObjectSize().Less(s)
}

// Usize is the unsigned pointer-sized integer type.
func (t Target) Usize() IntType {
	return IntType{Signed: Unsigned, Size: t.PtrSize}
}

// Isize is the signed pointer-sized integer type.
func (t Target) Isize() IntType {
	return IntType{Signed: Signed, Size: t.PtrSize}
}

func (t Target) String() string {
	return fmt.Sprintf("%s(ptr=%s/%s, int_max_align=%s, %s-endian)", t.Name, t.PtrSize, t.PtrAlign, t.IntMaxAlign, t.Endian)
}
