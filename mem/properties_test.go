package mem

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestIntAlignProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("int alignment is a power of two within size and cap", prop.ForAll(
		func(log2Size uint8, log2Cap uint8, signed bool) bool {
			ty := IntType{Size: SizeFromBytes(1 << log2Size)}
			if signed {
				ty.Signed = Signed
			}
			target := testTarget
			target.IntMaxAlign = MustAlign(1 << log2Cap)

			a := ty.Align(target).Bytes()
			return a&(a-1) == 0 &&
				a <= ty.Size.Bytes() &&
				a <= target.IntMaxAlign.Bytes()
		},
		gen.UInt8Range(0, 4),
		gen.UInt8Range(0, 4),
		gen.Bool(),
	))

	properties.Property("codec round-trips representable values", prop.ForAll(
		func(v int64, bigEndian bool) bool {
			e := LittleEndian
			if bigEndian {
				e = BigEndian
			}
			b, err := I64.Encode(big.NewInt(v), e)
			if err != nil {
				return false
			}
			back, err := I64.Decode(b, e)
			return err == nil && back.Int64() == v
		},
		gen.Int64(),
		gen.Bool(),
	))

	properties.Property("wrap lands in range", prop.ForAll(
		func(v int64) bool {
			return I16.CanRepresent(I16.Wrap(big.NewInt(v))) &&
				U16.CanRepresent(U16.Wrap(big.NewInt(v)))
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
