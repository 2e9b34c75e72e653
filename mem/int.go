package mem

import (
	"math/big"
	"strconv"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/arith"
)

// Signedness selects two's-complement or unsigned interpretation.
type Signedness uint8

const (
	Unsigned Signedness = iota
	Signed
)

func (s Signedness) String() string {
	if s == Signed {
		return "signed"
	}
	return "unsigned"
}

// IntType is an integer type. Size is always a power of two.
type IntType struct {
	Signed Signedness
	Size   Size
}

var (
	U8   = IntType{Signed: Unsigned, Size: SizeFromBytes(1)}
	U16  = IntType{Signed: Unsigned, Size: SizeFromBytes(2)}
	U32  = IntType{Signed: Unsigned, Size: SizeFromBytes(4)}
	U64  = IntType{Signed: Unsigned, Size: SizeFromBytes(8)}
	U128 = IntType{Signed: Unsigned, Size: SizeFromBytes(16)}
	I8   = IntType{Signed: Signed, Size: SizeFromBytes(1)}
	I16  = IntType{Signed: Signed, Size: SizeFromBytes(2)}
	I32  = IntType{Signed: Signed, Size: SizeFromBytes(4)}
	I64  = IntType{Signed: Signed, Size: SizeFromBytes(8)}
	I128 = IntType{Signed: Signed, Size: SizeFromBytes(16)}
)

// IntTypeByName parses names such as "u8" or "i128".
func IntTypeByName(name string) (IntType, bool) {
	if len(name) < 2 {
		return IntType{}, false
	}
	var s Signedness
	switch name[0] {
	case 'u':
		s = Unsigned
	case 'i':
		s = Signed
	default:
		return IntType{}, false
	}
	bitsN, err := strconv.ParseUint(name[1:], 10, 16)
	if err != nil {
		return IntType{}, false
	}
	size, ok := SizeFromBits(bitsN)
	if !ok || !arith.IsPow2(size.Bytes()) {
		return IntType{}, false
	}
	return IntType{Signed: s, Size: size}, true
}

// Valid reports whether the size is a non-zero power of two.
func (t IntType) Valid() bool {
	return arith.IsPow2(t.Size.Bytes())
}

// Align is the natural alignment of the size capped at target.IntMaxAlign.
func (t IntType) Align(target Target) Align {
	return AlignUp(t.Size.Bytes()).Min(target.IntMaxAlign)
}

func (t IntType) Bits() uint {
	return uint(t.Size.Bits())
}

// Min returns the smallest representable value.
func (t IntType) Min() *big.Int {
	if t.Signed == Unsigned {
		return new(big.Int)
	}
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), t.Bits()-1))
}

// Max returns the largest representable value.
func (t IntType) Max() *big.Int {
	n := t.Bits()
	if t.Signed == Signed {
		n--
	}
	m := new(big.Int).Lsh(big.NewInt(1), n)
	return m.Sub(m, big.NewInt(1))
}

// CanRepresent reports whether v lies within [Min, Max].
func (t IntType) CanRepresent(v *big.Int) bool {
	return v.Cmp(t.Min()) >= 0 && v.Cmp(t.Max()) <= 0
}

// Wrap brings v into range by two's-complement wrap-around.
func (t IntType) Wrap(v *big.Int) *big.Int {
	modulus := new(big.Int).Lsh(big.NewInt(1), t.Bits())
	r := new(big.Int).Mod(v, modulus)
	if t.Signed == Signed && r.Cmp(t.Max()) > 0 {
		r.Sub(r, modulus)
	}
	return r
}

// Decode interprets exactly Size bytes as an integer of this type.
func (t IntType) Decode(b []byte, e Endianness) (*big.Int, error) {
	n := t.Size.Bytes()
	if uint64(len(b)) != n {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			"need "+strconv.FormatUint(n, 10)+" bytes for "+t.String()+", have "+strconv.Itoa(len(b)))
	}
	be := make([]byte, n)
	for i := range be {
		if e == BigEndian {
			be[i] = b[i]
		} else {
			be[i] = b[int(n)-1-i]
		}
	}
	v := new(big.Int).SetBytes(be)
	if t.Signed == Signed && n > 0 && be[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), t.Bits()))
	}
	return v, nil
}

// Encode renders v as Size bytes. v must be representable.
func (t IntType) Encode(v *big.Int, e Endianness) ([]byte, error) {
	if !t.CanRepresent(v) {
		return nil, errors.Overflow(errors.PhaseDecode, nil, v.String(), t.String())
	}
	n := t.Size.Bytes()
	u := v
	if v.Sign() < 0 {
		u = new(big.Int).Add(v, new(big.Int).Lsh(big.NewInt(1), t.Bits()))
	}
	be := u.FillBytes(make([]byte, n))
	if e == BigEndian {
		return be, nil
	}
	out := make([]byte, n)
	for i := range be {
		out[i] = be[int(n)-1-i]
	}
	return out, nil
}

func (t IntType) String() string {
	prefix := "u"
	if t.Signed == Signed {
		prefix = "i"
	}
	return prefix + strconv.FormatUint(t.Size.Bits(), 10)
}
