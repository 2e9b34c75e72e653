package layout

import (
	stderrors "errors"
	"math/big"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// maxIntBytes is the widest integer the model supports.
const maxIntBytes = 16

// errUntracked marks a tag read at an offset the variant's tagger does not
// write. Such variants rely on their data for the discriminant (niches) and
// are not cross-checked.
var errUntracked = stderrors.New("untracked tag read")

// Check reports the first well-formedness problem of t on target, or nil.
// Checked types are safe to hand to Calculate, DataMask and the decoder.
func Check(t types.Type, target mem.Target) error {
	ch := &checker{target: target, calc: Calculator{target: target}}
	if err := ch.check(t, nil); err != nil {
		Logger().Debug("type rejected", zap.Stringer("type", t), zap.Error(err))
		return err
	}
	return nil
}

type checker struct {
	calc   Calculator
	target mem.Target
}

func (ch *checker) check(t types.Type, path []string) error {
	switch typ := t.(type) {
	case types.Int:
		if !typ.Valid() || typ.Size.Bytes() > maxIntBytes {
			return errors.IllFormed(path, t.String(), "integer size %s is not a power of two up to %d bytes", typ.Size, maxIntBytes)
		}
	case types.Bool:
	case types.Ptr:
		if typ.PtrType == nil {
			return errors.IllFormed(path, "ptr", "missing pointer type")
		}
		if p, ok := ptr.Pointee(typ.PtrType); ok && p.Size == nil {
			return errors.IllFormed(path, "ptr", "pointee has no size strategy")
		}
	case *types.Tuple:
		return ch.checkTuple(typ, path)
	case *types.Array:
		if err := ch.checkElem(typ.Elem, path); err != nil {
			return err
		}
		if _, err := ch.calc.Calculate(typ); err != nil {
			return err
		}
	case *types.Slice:
		return ch.checkElem(typ.Elem, path)
	case *types.Union:
		return ch.checkUnion(typ, path)
	case *types.Enum:
		return ch.checkEnum(typ, path)
	case types.TraitObject:
	case nil:
		return errors.IllFormed(path, "", "missing type")
	default:
		return errors.Unsupported(errors.PhaseBuild, "type "+t.String())
	}
	return nil
}

func (ch *checker) checkElem(elem types.Type, path []string) error {
	elemPath := appendPath(path, "elem")
	if err := ch.check(elem, elemPath); err != nil {
		return err
	}
	info, err := ch.calc.Calculate(elem)
	if err != nil {
		return err
	}
	if !ptr.IsSized(info.Size) {
		return errors.IllFormed(elemPath, elem.String(), "element type is not sized")
	}
	return nil
}

func (ch *checker) checkAggregate(t types.Type, size mem.Size, align mem.Align, path []string) error {
	if !size.IsAligned(align) {
		return errors.IllFormed(path, t.String(), "size %s is not a multiple of align %s", size, align)
	}
	if !ch.target.ValidSize(size) {
		return errors.IllFormed(path, t.String(), "size %s exceeds the target's object limit %s", size, ch.target.MaxObjectSize())
	}
	return nil
}

type interval struct {
	lo, hi uint64
	name   string
}

// fieldIntervals checks every field and returns their byte ranges.
func (ch *checker) fieldIntervals(owner types.Type, fields []types.Field, limit mem.Size, path []string) ([]interval, error) {
	out := make([]interval, 0, len(fields))
	for i, f := range fields {
		fp := appendPath(path, strconv.Itoa(i))
		if err := ch.check(f.Type, fp); err != nil {
			return nil, err
		}
		info, err := ch.calc.Calculate(f.Type)
		if err != nil {
			return nil, err
		}
		sized, ok := info.Size.(ptr.Sized)
		if !ok {
			return nil, errors.IllFormed(fp, f.Type.String(), "field type is not sized")
		}
		end, err := f.End(sized.Size)
		if err != nil || limit.Less(end) {
			return nil, errors.IllFormed(fp, owner.String(), "field ends past size %s", limit)
		}
		out = append(out, interval{lo: f.Offset.Bytes(), hi: end.Bytes(), name: strconv.Itoa(i)})
	}
	return out, nil
}

func (ch *checker) checkTuple(t *types.Tuple, path []string) error {
	if err := ch.checkAggregate(t, t.Size, t.Align, path); err != nil {
		return err
	}
	ivs, err := ch.fieldIntervals(t, t.Fields, t.Size, path)
	if err != nil {
		return err
	}
	if a, b, ok := overlapping(ivs); ok {
		return errors.IllFormed(appendPath(path, b.name), t.String(), "field overlaps field %s", a.name)
	}
	return nil
}

// overlapping returns a pair of non-empty intervals that share a byte.
func overlapping(ivs []interval) (interval, interval, bool) {
	sorted := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.hi > iv.lo {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].lo < sorted[j].lo })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].lo < sorted[i-1].hi {
			return sorted[i-1], sorted[i], true
		}
	}
	return interval{}, interval{}, false
}

func (ch *checker) checkUnion(u *types.Union, path []string) error {
	if err := ch.checkAggregate(u, u.Size, u.Align, path); err != nil {
		return err
	}
	if _, err := ch.fieldIntervals(u, u.Fields, u.Size, path); err != nil {
		return err
	}
	prevEnd := mem.ZeroSize
	for i, c := range u.Chunks {
		cp := appendPath(path, "chunks", strconv.Itoa(i))
		end, err := c.End()
		if err != nil || u.Size.Less(end) {
			return errors.IllFormed(cp, u.String(), "chunk ends past size %s", u.Size)
		}
		if i > 0 && c.Offset.Less(prevEnd) {
			return errors.IllFormed(cp, u.String(), "chunk starts before the end of chunk %d", i-1)
		}
		prevEnd = end
	}
	return nil
}

func (ch *checker) checkEnum(e *types.Enum, path []string) error {
	if err := ch.checkAggregate(e, e.Size, e.Align, path); err != nil {
		return err
	}
	if err := ch.check(types.Int{IntType: e.DiscriminantTy}, appendPath(path, "discriminant_ty")); err != nil {
		return err
	}

	for i, v := range e.Variants {
		vp := appendPath(path, "variants", strconv.Itoa(i))
		if err := ch.checkVariant(e, i, v, vp); err != nil {
			return err
		}
	}

	if err := ch.checkDiscriminator(e, e.Discriminator, appendPath(path, "discriminator"), map[*types.Branch]bool{}); err != nil {
		return err
	}

	for i, v := range e.Variants {
		if err := checkTagger(e, v); err != nil {
			return errors.New(errors.PhaseBuild, errors.KindIllFormed).
				Path(appendPath(path, "variants", strconv.Itoa(i))...).
				Type(e.String()).
				Cause(err).
				Detail("tagger does not decode to discriminant %s", v.Discriminant).
				Build()
		}
	}
	return nil
}

func (ch *checker) checkVariant(e *types.Enum, i int, v types.Variant, vp []string) error {
	if v.Discriminant == nil {
		return errors.IllFormed(vp, e.String(), "variant has no discriminant")
	}
	if !e.DiscriminantTy.CanRepresent(v.Discriminant) {
		return errors.IllFormed(vp, e.String(), "discriminant %s does not fit %s", v.Discriminant, e.DiscriminantTy)
	}
	for j := 0; j < i; j++ {
		if e.Variants[j].Discriminant.Cmp(v.Discriminant) == 0 {
			return errors.IllFormed(vp, e.String(), "discriminant %s repeats variant %d", v.Discriminant, j)
		}
	}

	if err := ch.check(v.Type, appendPath(vp, "type")); err != nil {
		return err
	}
	info, err := ch.calc.Calculate(v.Type)
	if err != nil {
		return err
	}
	sized, ok := info.Size.(ptr.Sized)
	if !ok {
		return errors.IllFormed(vp, v.Type.String(), "variant type is not sized")
	}
	if e.Size.Less(sized.Size) {
		return errors.IllFormed(vp, e.String(), "variant size %s exceeds enum size %s", sized.Size, e.Size)
	}
	if e.Align.Bytes() < info.Align.Bytes() {
		return errors.IllFormed(vp, e.String(), "variant align %s exceeds enum align %s", info.Align, e.Align)
	}

	ivs := make([]interval, 0, len(v.Tagger))
	for _, off := range v.Tagger.Offsets() {
		tag := v.Tagger[off]
		tp := appendPath(vp, "tagger", off.String())
		if err := ch.check(types.Int{IntType: tag.Ty}, tp); err != nil {
			return err
		}
		if tag.Value == nil || !tag.Ty.CanRepresent(tag.Value) {
			return errors.IllFormed(tp, e.String(), "tag value does not fit %s", tag.Ty)
		}
		end, err := off.Add(tag.Ty.Size)
		if err != nil || e.Size.Less(end) {
			return errors.IllFormed(tp, e.String(), "tag ends past size %s", e.Size)
		}
		ivs = append(ivs, interval{lo: off.Bytes(), hi: end.Bytes(), name: off.String()})
	}
	if a, b, ok := overlapping(ivs); ok {
		return errors.IllFormed(appendPath(vp, "tagger", b.name), e.String(), "tag overlaps tag at %s", a.name)
	}

	for _, iv := range ivs {
		for b := iv.lo; b < iv.hi; b++ {
			hit, err := ch.calc.touches(0, v.Type, b, b+1)
			if err != nil {
				return err
			}
			if hit {
				return errors.IllFormed(appendPath(vp, "tagger", iv.name), e.String(), "tag byte %d overlaps variant data", b)
			}
		}
	}
	return nil
}

func (ch *checker) checkDiscriminator(e *types.Enum, d types.Discriminator, path []string, onPath map[*types.Branch]bool) error {
	switch node := d.(type) {
	case types.Known:
		if node.Value == nil {
			return errors.IllFormed(path, e.String(), "known leaf has no value")
		}
		if _, ok := e.Variant(node.Value); !ok {
			return errors.IllFormed(path, e.String(), "known(%s) names no variant", node.Value)
		}
	case types.Invalid:
	case *types.Branch:
		if onPath[node] {
			return errors.IllFormed(path, e.String(), "discriminator refers back to an enclosing branch")
		}
		onPath[node] = true
		defer delete(onPath, node)

		if err := ch.check(types.Int{IntType: node.ValueType}, path); err != nil {
			return err
		}
		end, err := node.Offset.Add(node.ValueType.Size)
		if err != nil || e.Size.Less(end) {
			return errors.IllFormed(path, e.String(), "branch reads %s at %s past size %s", node.ValueType, node.Offset, e.Size)
		}

		for i, c := range node.Children {
			cp := appendPath(path, "children", strconv.Itoa(i))
			if c.Lo == nil || c.Hi == nil || c.Lo.Cmp(c.Hi) >= 0 {
				return errors.IllFormed(cp, e.String(), "child interval is empty")
			}
			if err := ch.checkDiscriminator(e, c.Next, cp, onPath); err != nil {
				return err
			}
		}
		// Children need not be in order, only disjoint.
		order := make([]int, len(node.Children))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return node.Children[order[a]].Lo.Cmp(node.Children[order[b]].Lo) < 0
		})
		for k := 1; k < len(order); k++ {
			prev, cur := node.Children[order[k-1]], node.Children[order[k]]
			if cur.Lo.Cmp(prev.Hi) < 0 {
				return errors.IllFormed(appendPath(path, "children", strconv.Itoa(order[k])), e.String(),
					"child interval overlaps child %d", order[k-1])
			}
		}
		return ch.checkDiscriminator(e, node.Fallback, appendPath(path, "fallback"), onPath)
	case nil:
		return errors.IllFormed(path, e.String(), "missing discriminator")
	default:
		return errors.Unsupported(errors.PhaseBuild, "discriminator node "+d.String())
	}
	return nil
}

// checkTagger decodes the discriminant from the variant's own tags. A read
// outside the tagger means the variant depends on data bytes, which is not
// checked here.
func checkTagger(e *types.Enum, v types.Variant) error {
	r := types.TagReaderFunc(func(off mem.Offset, ty mem.IntType) (*big.Int, error) {
		tag, ok := v.Tagger[off]
		if !ok || tag.Ty != ty {
			return nil, errUntracked
		}
		return tag.Value, nil
	})
	d, err := types.Decode(e.Discriminator, r)
	if stderrors.Is(err, errUntracked) {
		return nil
	}
	if err != nil {
		return err
	}
	if d.Cmp(v.Discriminant) != 0 {
		return errors.InvalidData(errors.PhaseDecode, nil, "decoded "+d.String())
	}
	return nil
}

func appendPath(path []string, elems ...string) []string {
	out := make([]string, 0, len(path)+len(elems))
	out = append(out, path...)
	return append(out, elems...)
}
