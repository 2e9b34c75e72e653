package layout

import (
	"math/big"
	"strconv"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// DiscriminantType picks the smallest unsigned tag able to number n cases.
func DiscriminantType(n int) mem.IntType {
	if n <= 256 {
		return mem.U8
	} else if n <= 65536 {
		return mem.U16
	}
	return mem.U32
}

// WithOverflow is the (result, overflowed) pair returned by checked
// arithmetic on ty.
func WithOverflow(ty mem.IntType, target mem.Target) *types.Tuple {
	align := ty.Align(target)
	end, err := ty.Size.Add(mem.SizeFromBytes(1))
	if err == nil {
		end, err = end.AlignTo(align)
	}
	if err != nil {
		errors.Violation("with_overflow on %s: %v", ty, err)
	}
	return &types.Tuple{
		Fields: []types.Field{
			{Offset: mem.ZeroSize, Type: types.Int{IntType: ty}},
			{Offset: ty.Size, Type: types.Bool{}},
		},
		Size:  end,
		Align: align,
	}
}

// Record lays fields out in order, padding each to its alignment and the
// whole to the largest alignment.
func Record(target mem.Target, fields ...types.Type) (*types.Tuple, error) {
	c := Calculator{target: target}
	out := &types.Tuple{Fields: make([]types.Field, 0, len(fields)), Align: mem.AlignOne}
	offset := mem.ZeroSize

	for i, ft := range fields {
		size, align, err := c.sizedField(ft, i)
		if err != nil {
			return nil, err
		}

		offset, err = offset.AlignTo(align)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, types.Field{Offset: offset, Type: ft})
		out.Align = out.Align.Max(align)

		offset, err = offset.Add(size)
		if err != nil {
			return nil, err
		}
	}

	total, err := offset.AlignTo(out.Align)
	if err != nil {
		return nil, err
	}
	out.Size = total
	return out, nil
}

// UnionOf overlaps all fields at offset zero. Its chunks are the bytes any
// field's representation writes.
func UnionOf(target mem.Target, fields ...types.Type) (*types.Union, error) {
	c := Calculator{target: target}
	out := &types.Union{Fields: make([]types.Field, 0, len(fields)), Align: mem.AlignOne}
	maxSize := mem.ZeroSize

	for i, ft := range fields {
		size, align, err := c.sizedField(ft, i)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, types.Field{Offset: mem.ZeroSize, Type: ft})
		out.Align = out.Align.Max(align)
		maxSize = mem.MaxSize(maxSize, size)
	}

	total, err := maxSize.AlignTo(out.Align)
	if err != nil {
		return nil, err
	}
	out.Size = total

	if total.Bytes() > MaxMaskBytes {
		// Too large to mask byte by byte: keep every byte of the widest field.
		if !maxSize.IsZero() {
			out.Chunks = []types.Chunk{{Offset: mem.ZeroSize, Size: maxSize}}
		}
		return out, nil
	}
	data := newMask(total)
	for _, f := range out.Fields {
		m, err := DataMask(f.Type, target)
		if err != nil {
			return nil, err
		}
		data.InPlaceUnion(m)
	}
	out.Chunks = Runs(data)
	return out, nil
}

// TaggedEnum builds an enum with an explicit tag at offset zero followed by
// the payload, aligned to the largest payload alignment. Variant i carries
// discriminant i; a nil payload means the variant has no data.
func TaggedEnum(target mem.Target, payloads ...types.Type) (*types.Enum, error) {
	if len(payloads) == 0 {
		return &types.Enum{
			DiscriminantTy: mem.U8,
			Discriminator:  types.Invalid{},
			Size:           mem.ZeroSize,
			Align:          mem.AlignOne,
		}, nil
	}

	c := Calculator{target: target}
	discTy := DiscriminantType(len(payloads))
	maxAlign := discTy.Align(target)
	maxSize := mem.ZeroSize

	for i, p := range payloads {
		if p == nil {
			continue
		}
		size, align, err := c.sizedField(p, i)
		if err != nil {
			return nil, err
		}
		maxAlign = maxAlign.Max(align)
		maxSize = mem.MaxSize(maxSize, size)
	}

	payloadOffset, err := discTy.Size.AlignTo(maxAlign)
	if err != nil {
		return nil, err
	}
	end, err := payloadOffset.Add(maxSize)
	if err != nil {
		return nil, err
	}
	totalSize, err := end.AlignTo(maxAlign)
	if err != nil {
		return nil, err
	}

	e := &types.Enum{
		Variants:       make([]types.Variant, len(payloads)),
		DiscriminantTy: discTy,
		Size:           totalSize,
		Align:          maxAlign,
	}
	children := make([]types.Child, len(payloads))
	for i, p := range payloads {
		ty := &types.Tuple{Size: totalSize, Align: maxAlign}
		if p != nil {
			ty.Fields = []types.Field{{Offset: payloadOffset, Type: p}}
		}
		d := big.NewInt(int64(i))
		e.Variants[i] = types.Variant{
			Discriminant: d,
			Type:         ty,
			Tagger:       types.Tagger{mem.ZeroSize: {Ty: discTy, Value: d}},
		}
		children[i] = types.Child{Lo: d, Hi: big.NewInt(int64(i) + 1), Next: types.Known{Value: d}}
	}
	e.Discriminator = types.NewBranch(mem.ZeroSize, discTy, types.Invalid{}, children...)
	return e, nil
}

// NicheOption builds Option<p> for a safe pointer type, encoding None as
// the null address so no tag storage is needed. Discriminant 0 is None.
func NicheOption(target mem.Target, p ptr.PtrType) (*types.Enum, error) {
	if !ptr.IsSafe(p) {
		return nil, errors.InvalidInput(errors.PhaseBuild, p.String()+" has no null niche")
	}

	pt := types.Ptr{PtrType: p}
	c := Calculator{target: target}
	info, err := c.Calculate(pt)
	if err != nil {
		return nil, err
	}
	size := ptr.ExpectSized(info.Size, "pointer")
	usize := target.Usize()
	none, some := big.NewInt(0), big.NewInt(1)

	return &types.Enum{
		Variants: []types.Variant{
			{
				Discriminant: none,
				Type:         &types.Tuple{Size: size, Align: info.Align},
				Tagger:       types.Tagger{mem.ZeroSize: {Ty: usize, Value: big.NewInt(0)}},
			},
			{
				Discriminant: some,
				Type: &types.Tuple{
					Fields: []types.Field{{Offset: mem.ZeroSize, Type: pt}},
					Size:   size,
					Align:  info.Align,
				},
				Tagger: types.Tagger{},
			},
		},
		DiscriminantTy: target.Isize(),
		Discriminator: types.NewBranch(mem.ZeroSize, usize, types.Known{Value: some},
			types.Child{Lo: big.NewInt(0), Hi: big.NewInt(1), Next: types.Known{Value: none}}),
		Size:  size,
		Align: info.Align,
	}, nil
}

func (c *Calculator) sizedField(t types.Type, i int) (mem.Size, mem.Align, error) {
	info, err := c.Calculate(t)
	if err != nil {
		return mem.Size{}, mem.Align{}, err
	}
	sized, ok := info.Size.(ptr.Sized)
	if !ok {
		return mem.Size{}, mem.Align{}, errors.IllFormed([]string{strconv.Itoa(i)}, t.String(), "field type is not sized")
	}
	return sized.Size, info.Align, nil
}
