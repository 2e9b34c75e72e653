package mem

import (
	"math"
	"math/big"
	"testing"

	"github.com/wippyai/machine-layout/errors"
)

var testTarget = Target{
	Name:        "test64",
	PtrSize:     SizeFromBytes(8),
	PtrAlign:    MustAlign(8),
	IntMaxAlign: MustAlign(8),
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, want uint64
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {6, 8}, {8, 8}, {9, 16},
	}
	for _, tc := range tests {
		if got := AlignUp(tc.n).Bytes(); got != tc.want {
			t.Errorf("AlignUp(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestAlignOneIsZeroValue(t *testing.T) {
	var a Align
	if a != AlignOne || a.Bytes() != 1 {
		t.Errorf("zero Align = %d bytes, want 1", a.Bytes())
	}
	if AlignOne.Max(MustAlign(8)).Bytes() != 8 {
		t.Error("AlignOne should be the identity for Max")
	}
}

func TestAlignFromBytes(t *testing.T) {
	if _, ok := AlignFromBytes(12); ok {
		t.Error("12 is not a power of two")
	}
	if _, ok := AlignFromBytes(0); ok {
		t.Error("0 is not a power of two")
	}
	a, ok := AlignFromBytes(16)
	if !ok || a.Log2() != 4 {
		t.Errorf("AlignFromBytes(16) = %v, %v", a, ok)
	}
}

func TestAlignIsAligned(t *testing.T) {
	a := MustAlign(4)
	tests := []struct {
		addr int64
		want bool
	}{
		{0, true}, {4, true}, {6, false}, {-4, true}, {-3, false},
	}
	for _, tc := range tests {
		if got := a.IsAligned(big.NewInt(tc.addr)); got != tc.want {
			t.Errorf("IsAligned(%d) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestSizeArithmetic(t *testing.T) {
	s := SizeFromBytes(5)

	sum, err := s.Add(SizeFromBytes(3))
	if err != nil || sum.Bytes() != 8 {
		t.Errorf("Add: got %v, %v", sum, err)
	}

	prod, err := s.Mul(3)
	if err != nil || prod.Bytes() != 15 {
		t.Errorf("Mul: got %v, %v", prod, err)
	}

	aligned, err := s.AlignTo(MustAlign(4))
	if err != nil || aligned.Bytes() != 8 {
		t.Errorf("AlignTo: got %v, %v", aligned, err)
	}

	_, err = SizeFromBytes(math.MaxUint64).Add(SizeFromBytes(1))
	var e *errors.Error
	if err == nil || !asError(err, &e) || e.Kind != errors.KindOverflow {
		t.Errorf("Add overflow: got %v", err)
	}

	if _, err := SizeFromBytes(1 << 40).Mul(1 << 40); err == nil {
		t.Error("Mul should overflow")
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}

func TestIntTypeByName(t *testing.T) {
	tests := []struct {
		name string
		want IntType
		ok   bool
	}{
		{"u8", U8, true},
		{"i32", I32, true},
		{"i128", I128, true},
		{"u24", IntType{}, false},
		{"f32", IntType{}, false},
		{"i", IntType{}, false},
	}
	for _, tc := range tests {
		got, ok := IntTypeByName(tc.name)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("IntTypeByName(%q) = %v, %v", tc.name, got, ok)
		}
	}
}

func TestIntTypeAlign(t *testing.T) {
	tests := []struct {
		ty   IntType
		want uint64
	}{
		{U8, 1}, {I16, 2}, {I32, 4}, {U64, 8}, {I128, 8},
	}
	for _, tc := range tests {
		if got := tc.ty.Align(testTarget).Bytes(); got != tc.want {
			t.Errorf("%s.Align = %d, want %d", tc.ty, got, tc.want)
		}
	}
}

func TestIntTypeBounds(t *testing.T) {
	if I8.Min().Int64() != -128 || I8.Max().Int64() != 127 {
		t.Errorf("i8 bounds: %v..%v", I8.Min(), I8.Max())
	}
	if U16.Min().Int64() != 0 || U16.Max().Int64() != 65535 {
		t.Errorf("u16 bounds: %v..%v", U16.Min(), U16.Max())
	}
	if U8.CanRepresent(big.NewInt(256)) {
		t.Error("u8 cannot hold 256")
	}
	if !I8.CanRepresent(big.NewInt(-128)) {
		t.Error("i8 can hold -128")
	}
}

func TestIntTypeWrap(t *testing.T) {
	tests := []struct {
		ty   IntType
		in   int64
		want int64
	}{
		{U8, 256, 0},
		{U8, -1, 255},
		{I8, 128, -128},
		{I8, -129, 127},
		{I16, 5, 5},
	}
	for _, tc := range tests {
		if got := tc.ty.Wrap(big.NewInt(tc.in)).Int64(); got != tc.want {
			t.Errorf("%s.Wrap(%d) = %d, want %d", tc.ty, tc.in, got, tc.want)
		}
	}
}

func TestIntTypeCodec(t *testing.T) {
	tests := []struct {
		ty     IntType
		endian Endianness
		value  int64
		bytes  []byte
	}{
		{U16, LittleEndian, 0x0102, []byte{0x02, 0x01}},
		{U16, BigEndian, 0x0102, []byte{0x01, 0x02}},
		{I32, LittleEndian, -2, []byte{0xfe, 0xff, 0xff, 0xff}},
		{I8, BigEndian, -128, []byte{0x80}},
		{U8, LittleEndian, 200, []byte{200}},
	}
	for _, tc := range tests {
		t.Run(tc.ty.String()+"_"+tc.endian.String(), func(t *testing.T) {
			enc, err := tc.ty.Encode(big.NewInt(tc.value), tc.endian)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(enc) != string(tc.bytes) {
				t.Errorf("Encode = %x, want %x", enc, tc.bytes)
			}
			dec, err := tc.ty.Decode(tc.bytes, tc.endian)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if dec.Int64() != tc.value {
				t.Errorf("Decode = %v, want %d", dec, tc.value)
			}
		})
	}

	if _, err := U8.Encode(big.NewInt(256), LittleEndian); err == nil {
		t.Error("Encode should reject unrepresentable values")
	}
	if _, err := U32.Decode([]byte{1, 2}, LittleEndian); err == nil {
		t.Error("Decode should reject short input")
	}
}

func TestTargetValidate(t *testing.T) {
	if err := testTarget.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bad := testTarget
	bad.PtrSize = SizeFromBytes(3)
	if err := bad.Validate(); err == nil {
		t.Error("3-byte pointers should be rejected")
	}

	bad = testTarget
	bad.PtrAlign = MustAlign(16)
	if err := bad.Validate(); err == nil {
		t.Error("pointer alignment above pointer size should be rejected")
	}
}

func TestTargetLimits(t *testing.T) {
	if got := testTarget.MaxObjectSize().Bytes(); got != math.MaxInt64 {
		t.Errorf("MaxObjectSize = %d", got)
	}
	if testTarget.AddressSpace().Cmp(new(big.Int).Lsh(big.NewInt(1), 64)) != 0 {
		t.Errorf("AddressSpace = %v", testTarget.AddressSpace())
	}
	if testTarget.Usize() != U64 || testTarget.Isize() != I64 {
		t.Error("pointer-sized ints should be 64-bit")
	}
	if testTarget.ValidSize(SizeFromBytes(1 << 63)) {
		t.Error("2^63 exceeds isize::MAX")
	}
}
