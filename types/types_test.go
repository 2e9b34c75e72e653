package types

import (
	"math/big"
	"testing"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
)

func interval(lo, hi int64, next Discriminator) Child {
	return Child{Lo: big.NewInt(lo), Hi: big.NewInt(hi), Next: next}
}

// twoVariantEnum is a u8-tagged enum with tag byte 0 holding 0 or 1.
func twoVariantEnum() *Enum {
	empty := &Tuple{Size: mem.SizeFromBytes(2), Align: mem.AlignOne}
	withByte := &Tuple{
		Fields: []Field{{Offset: mem.SizeFromBytes(1), Type: Int{IntType: mem.U8}}},
		Size:   mem.SizeFromBytes(2),
		Align:  mem.AlignOne,
	}
	return &Enum{
		Variants: []Variant{
			{Discriminant: big.NewInt(0), Type: empty, Tagger: Tagger{mem.ZeroSize: {Ty: mem.U8, Value: big.NewInt(0)}}},
			{Discriminant: big.NewInt(1), Type: withByte, Tagger: Tagger{mem.ZeroSize: {Ty: mem.U8, Value: big.NewInt(1)}}},
		},
		DiscriminantTy: mem.U8,
		Discriminator: NewBranch(mem.ZeroSize, mem.U8, Invalid{},
			interval(0, 1, KnownInt(0)),
			interval(1, 2, KnownInt(1)),
		),
		Size:  mem.SizeFromBytes(2),
		Align: mem.AlignOne,
	}
}

func expectViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if _, ok := errors.AsViolation(recover()); !ok {
			t.Error("expected a contract violation")
		}
	}()
	fn()
}

func TestDecodeTwoVariantEnum(t *testing.T) {
	e := twoVariantEnum()

	tests := []struct {
		name   string
		bytes  []byte
		want   int64
		wantUB bool
	}{
		{name: "tag 0", bytes: []byte{0, 0xaa}, want: 0},
		{name: "tag 1", bytes: []byte{1, 0xaa}, want: 1},
		{name: "tag 2", bytes: []byte{2, 0}, wantUB: true},
		{name: "tag 255", bytes: []byte{255, 0}, wantUB: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Decode(e.Discriminator, BytesTagReader{Bytes: tc.bytes})
			if tc.wantUB {
				if !errors.IsUB(err) {
					t.Fatalf("expected UB, got %v, %v", d, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if d.Int64() != tc.want {
				t.Errorf("discriminant: got %v, want %d", d, tc.want)
			}
		})
	}
}

func TestDecodeKnownReadsNothing(t *testing.T) {
	reads := 0
	r := TagReaderFunc(func(mem.Offset, mem.IntType) (*big.Int, error) {
		reads++
		return big.NewInt(0), nil
	})
	d, err := Decode(KnownInt(3), r)
	if err != nil || d.Int64() != 3 {
		t.Fatalf("got %v, %v", d, err)
	}
	if reads != 0 {
		t.Errorf("Known must not read tags, read %d times", reads)
	}
}

func TestDecodeInvalidIsUB(t *testing.T) {
	_, err := Decode(Invalid{}, BytesTagReader{})
	if !errors.IsUB(err) {
		t.Fatalf("expected UB, got %v", err)
	}
}

func TestDecodeNicheFallback(t *testing.T) {
	// Option<&T> on a 4-byte target: address 0 is None, anything else Some.
	d := NewBranch(mem.ZeroSize, mem.U32, KnownInt(1), interval(0, 1, KnownInt(0)))

	tests := []struct {
		bytes []byte
		want  int64
	}{
		{[]byte{0, 0, 0, 0}, 0},
		{[]byte{8, 0, 0, 0}, 1},
		{[]byte{0, 0, 0, 0x80}, 1},
	}
	for _, tc := range tests {
		got, err := Decode(d, BytesTagReader{Bytes: tc.bytes})
		if err != nil || got.Int64() != tc.want {
			t.Errorf("Decode(%x) = %v, %v; want %d", tc.bytes, got, err, tc.want)
		}
	}
}

func TestDecodeNestedBranches(t *testing.T) {
	// First byte selects a group, second byte refines it.
	inner := NewBranch(mem.SizeFromBytes(1), mem.U8, Invalid{},
		interval(0, 10, KnownInt(10)),
		interval(10, 20, KnownInt(11)),
	)
	d := NewBranch(mem.ZeroSize, mem.U8, KnownInt(99),
		interval(0, 1, KnownInt(0)),
		interval(1, 2, inner),
	)

	tests := []struct {
		bytes  []byte
		want   int64
		wantUB bool
	}{
		{bytes: []byte{0, 50}, want: 0},
		{bytes: []byte{1, 5}, want: 10},
		{bytes: []byte{1, 15}, want: 11},
		{bytes: []byte{1, 25}, wantUB: true},
		{bytes: []byte{7, 0}, want: 99},
	}
	for _, tc := range tests {
		got, err := Decode(d, BytesTagReader{Bytes: tc.bytes})
		if tc.wantUB {
			if !errors.IsUB(err) {
				t.Errorf("Decode(%x): expected UB, got %v, %v", tc.bytes, got, err)
			}
			continue
		}
		if err != nil || got.Int64() != tc.want {
			t.Errorf("Decode(%x) = %v, %v; want %d", tc.bytes, got, err, tc.want)
		}
	}
}

func TestDecodeSignedTag(t *testing.T) {
	d := NewBranch(mem.ZeroSize, mem.I8, Invalid{}, interval(-2, 0, KnownInt(5)))
	got, err := Decode(d, BytesTagReader{Bytes: []byte{0xfe}})
	if err != nil || got.Int64() != 5 {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := Decode(d, BytesTagReader{Bytes: []byte{0x00}}); !errors.IsUB(err) {
		t.Errorf("0 is outside [-2, 0), expected UB, got %v", err)
	}
}

func TestDecodeReadError(t *testing.T) {
	d := NewBranch(mem.SizeFromBytes(4), mem.U32, Invalid{})
	_, err := Decode(d, BytesTagReader{Bytes: []byte{1, 2, 3}})
	if err == nil || errors.IsUB(err) {
		t.Fatalf("short input is a read error, not UB: %v", err)
	}
}

func TestNewBranchRejectsOverlap(t *testing.T) {
	expectViolation(t, func() {
		NewBranch(mem.ZeroSize, mem.U8, Invalid{},
			interval(0, 5, KnownInt(0)),
			interval(4, 8, KnownInt(1)),
		)
	})
	expectViolation(t, func() {
		NewBranch(mem.ZeroSize, mem.U8, Invalid{}, interval(3, 3, KnownInt(0)))
	})
}

func TestNewBranchSortsChildren(t *testing.T) {
	b := NewBranch(mem.ZeroSize, mem.U8, Invalid{},
		interval(10, 20, KnownInt(1)),
		interval(0, 10, KnownInt(0)),
	)
	if b.Children[0].Lo.Int64() != 0 || b.Children[1].Lo.Int64() != 10 {
		t.Errorf("children not sorted: %s", b)
	}
	if next := b.Next(big.NewInt(10)); next.(Known).Value.Int64() != 1 {
		t.Errorf("Next(10) = %s", next)
	}
}

func TestLiteralBranchUnsorted(t *testing.T) {
	b := &Branch{
		Offset:    mem.ZeroSize,
		ValueType: mem.U8,
		Fallback:  Invalid{},
		Children: []Child{
			interval(10, 20, KnownInt(1)),
			interval(0, 5, KnownInt(0)),
		},
	}
	tests := []struct {
		tag  byte
		want int64
	}{
		{3, 0},
		{15, 1},
	}
	for _, tt := range tests {
		got, err := Decode(b, BytesTagReader{Bytes: []byte{tt.tag}})
		if err != nil {
			t.Fatalf("Decode(%d): %v", tt.tag, err)
		}
		if got.Int64() != tt.want {
			t.Errorf("Decode(%d): got %d, want %d", tt.tag, got.Int64(), tt.want)
		}
	}
	if _, ok := b.Next(big.NewInt(7)).(Invalid); !ok {
		t.Errorf("Next(7) = %s, want invalid", b.Next(big.NewInt(7)))
	}
}

func TestDecodeEnum(t *testing.T) {
	e := twoVariantEnum()
	v, err := DecodeEnum(e, BytesTagReader{Bytes: []byte{1, 7}})
	if err != nil {
		t.Fatalf("DecodeEnum: %v", err)
	}
	if v.Discriminant.Int64() != 1 {
		t.Errorf("variant %v", v.Discriminant)
	}

	bad := twoVariantEnum()
	bad.Discriminator = KnownInt(7)
	expectViolation(t, func() { _, _ = DecodeEnum(bad, BytesTagReader{}) })
}

func TestWriteTagsRoundTrip(t *testing.T) {
	e := twoVariantEnum()
	for _, v := range e.Variants {
		buf := make([]byte, e.Size.Bytes())
		buf[0] = 0xff
		if err := WriteTags(v, buf, mem.LittleEndian); err != nil {
			t.Fatalf("WriteTags: %v", err)
		}
		got, err := Decode(e.Discriminator, BytesTagReader{Bytes: buf})
		if err != nil || got.Cmp(v.Discriminant) != 0 {
			t.Errorf("variant %v decoded as %v, %v", v.Discriminant, got, err)
		}
	}

	short := Variant{Tagger: Tagger{mem.SizeFromBytes(3): {Ty: mem.U16, Value: big.NewInt(1)}}}
	if err := WriteTags(short, make([]byte, 4), mem.LittleEndian); err == nil {
		t.Error("expected out-of-bounds error")
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Int{IntType: mem.I32}, "i32"},
		{Bool{}, "bool"},
		{Ptr{PtrType: ptr.Raw{Meta: ptr.MetaElementCount}}, "*raw(element_count)"},
		{&Array{Elem: Int{IntType: mem.U8}, Count: 4}, "[u8; 4]"},
		{&Slice{Elem: Bool{}}, "[bool]"},
		{TraitObject{Trait: "Debug"}, "dyn Debug"},
		{&Tuple{
			Fields: []Field{{Offset: mem.ZeroSize, Type: Int{IntType: mem.I32}}, {Offset: mem.SizeFromBytes(4), Type: Bool{}}},
			Size:   mem.SizeFromBytes(8),
			Align:  mem.MustAlign(4),
		}, "(0: i32, 4: bool)[8/4]"},
	}
	for _, tc := range tests {
		if got := tc.typ.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestTaggerOffsetsSorted(t *testing.T) {
	tg := Tagger{
		mem.SizeFromBytes(8): {Ty: mem.U8, Value: big.NewInt(1)},
		mem.SizeFromBytes(0): {Ty: mem.U8, Value: big.NewInt(2)},
		mem.SizeFromBytes(4): {Ty: mem.U8, Value: big.NewInt(3)},
	}
	offs := tg.Offsets()
	if len(offs) != 3 || offs[0].Bytes() != 0 || offs[1].Bytes() != 4 || offs[2].Bytes() != 8 {
		t.Errorf("Offsets = %v", offs)
	}
}
