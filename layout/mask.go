package layout

import (
	"math/bits"

	"github.com/bits-and-blooms/bitset"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// MaxMaskBytes caps the size of types whose byte masks are materialized.
const MaxMaskBytes = 1 << 24

func newMask(size mem.Size) *bitset.BitSet {
	return bitset.New(uint(size.Bytes()))
}

// DataMask marks the bytes of t that hold data rather than padding. Bit i is
// set when byte i is written by some value of t. Enums count their tag bytes
// as data; unions count only their chunks.
func DataMask(t types.Type, target mem.Target) (*bitset.BitSet, error) {
	size, err := SizedSize(t, target)
	if err != nil {
		return nil, err
	}
	if size.Bytes() > MaxMaskBytes {
		return nil, errors.Unsupported(errors.PhaseLayout, "byte mask of "+t.String()+" exceeds "+mem.SizeFromBytes(MaxMaskBytes).String())
	}
	m := newMask(size)
	c := Calculator{target: target}
	if err := c.mark(m, 0, t); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Calculator) mark(m *bitset.BitSet, base uint64, t types.Type) error {
	switch typ := t.(type) {
	case types.Int, types.Bool, types.Ptr:
		size, err := c.sizeOfSized(t)
		if err != nil {
			return err
		}
		setRange(m, base, size.Bytes())
	case *types.Tuple:
		for _, f := range typ.Fields {
			if err := c.mark(m, base+f.Offset.Bytes(), f.Type); err != nil {
				return err
			}
		}
	case *types.Array:
		elem, err := c.sizeOfSized(typ.Elem)
		if err != nil {
			return err
		}
		es := elem.Bytes()
		if es == 0 || typ.Count == 0 {
			return nil
		}
		hi, total := bits.Mul64(es, typ.Count)
		if hi != 0 || base > uint64(m.Len()) || total > uint64(m.Len())-base {
			return errors.Unsupported(errors.PhaseLayout, "array "+t.String()+" exceeds its byte mask")
		}
		one := newMask(elem)
		if err := c.mark(one, 0, typ.Elem); err != nil {
			return err
		}
		// Replicate the element's bits at every stride.
		var set []uint64
		for i, ok := one.NextSet(0); ok; i, ok = one.NextSet(i + 1) {
			set = append(set, uint64(i))
		}
		for at := base; at < base+total; at += es {
			for _, off := range set {
				m.Set(uint(at + off))
			}
		}
	case *types.Union:
		for _, ch := range typ.Chunks {
			setRange(m, base+ch.Offset.Bytes(), ch.Size.Bytes())
		}
	case *types.Enum:
		for _, v := range typ.Variants {
			if err := c.mark(m, base, v.Type); err != nil {
				return err
			}
			for off, tag := range v.Tagger {
				setRange(m, base+off.Bytes(), tag.Ty.Size.Bytes())
			}
		}
	default:
		return errors.TypeMismatch(errors.PhaseLayout, nil, t.String(), "type is not sized")
	}
	return nil
}

// touches reports whether any data byte of t, placed at base, falls in
// [lo, hi). Only the parts of t that meet the window are visited.
func (c *Calculator) touches(base uint64, t types.Type, lo, hi uint64) (bool, error) {
	switch typ := t.(type) {
	case types.Int, types.Bool, types.Ptr:
		size, err := c.sizeOfSized(t)
		if err != nil {
			return false, err
		}
		return overlaps(base, base+size.Bytes(), lo, hi), nil
	case *types.Tuple:
		for _, f := range typ.Fields {
			hit, err := c.touches(base+f.Offset.Bytes(), f.Type, lo, hi)
			if hit || err != nil {
				return hit, err
			}
		}
	case *types.Array:
		elem, err := c.sizeOfSized(typ.Elem)
		if err != nil {
			return false, err
		}
		es := elem.Bytes()
		if es == 0 || typ.Count == 0 || hi <= base {
			return false, nil
		}
		first := uint64(0)
		if lo > base {
			first = (lo - base) / es
		}
		last := (hi - base + es - 1) / es
		if last > typ.Count {
			last = typ.Count
		}
		for i := first; i < last; i++ {
			hit, err := c.touches(base+i*es, typ.Elem, lo, hi)
			if hit || err != nil {
				return hit, err
			}
		}
	case *types.Union:
		for _, ch := range typ.Chunks {
			at := base + ch.Offset.Bytes()
			if overlaps(at, at+ch.Size.Bytes(), lo, hi) {
				return true, nil
			}
		}
	case *types.Enum:
		for _, v := range typ.Variants {
			for off, tag := range v.Tagger {
				at := base + off.Bytes()
				if overlaps(at, at+tag.Ty.Size.Bytes(), lo, hi) {
					return true, nil
				}
			}
			hit, err := c.touches(base, v.Type, lo, hi)
			if hit || err != nil {
				return hit, err
			}
		}
	default:
		return false, errors.TypeMismatch(errors.PhaseLayout, nil, t.String(), "type is not sized")
	}
	return false, nil
}

func overlaps(a0, a1, b0, b1 uint64) bool {
	return a0 < b1 && b0 < a1
}

func (c *Calculator) sizeOfSized(t types.Type) (mem.Size, error) {
	info, err := c.Calculate(t)
	if err != nil {
		return mem.Size{}, err
	}
	sized, ok := info.Size.(ptr.Sized)
	if !ok {
		return mem.Size{}, errors.TypeMismatch(errors.PhaseLayout, nil, t.String(), "type is not sized")
	}
	return sized.Size, nil
}

// setRange sets [from, from+n), growing m as needed.
func setRange(m *bitset.BitSet, from, n uint64) {
	for i := from; i < from+n; i++ {
		m.Set(uint(i))
	}
}

// ChunkMask marks the bytes covered by the chunks of u.
func ChunkMask(u *types.Union) *bitset.BitSet {
	m := newMask(u.Size)
	for _, ch := range u.Chunks {
		setRange(m, ch.Offset.Bytes(), ch.Size.Bytes())
	}
	return m
}

// Runs returns the maximal runs of set bits in m as ascending chunks.
func Runs(m *bitset.BitSet) []types.Chunk {
	var out []types.Chunk
	i, ok := m.NextSet(0)
	for ok {
		end, more := m.NextClear(i)
		if !more {
			end = m.Len()
		}
		out = append(out, types.Chunk{
			Offset: mem.SizeFromBytes(uint64(i)),
			Size:   mem.SizeFromBytes(uint64(end - i)),
		})
		i, ok = m.NextSet(end)
	}
	return out
}
