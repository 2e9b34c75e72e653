package typedesc

import (
	"math/big"
	"sort"

	"github.com/goccy/go-yaml/ast"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/suggest"
	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
	"github.com/wippyai/machine-layout/witlayout"
)

var scalarNames = []string{
	"bool", "unit", "usize", "isize", "fnptr", "vtableptr",
	"u8", "u16", "u32", "u64", "u128", "i8", "i16", "i32", "i64", "i128",
}

// forms in the order they are recognized when a mapping has several keys
var forms = []string{
	"tuple", "array", "slice", "ref", "ref_mut", "box", "raw", "union",
	"enum", "option", "with_overflow", "dyn", "wit",
}

type resolver struct {
	exprs  map[string]ast.Node
	done   map[string]types.Type
	active map[string]bool
	wit    *witlayout.Converter
	target mem.Target
}

func newResolver(tgt mem.Target) *resolver {
	return &resolver{
		exprs:  make(map[string]ast.Node),
		done:   make(map[string]types.Type),
		active: make(map[string]bool),
		wit:    witlayout.NewConverter(tgt),
		target: tgt,
	}
}

func (r *resolver) scalar(name string) (types.Type, bool) {
	switch name {
	case "bool":
		return types.Bool{}, true
	case "unit":
		return &types.Tuple{Align: mem.AlignOne}, true
	case "usize":
		return types.Int{IntType: r.target.Usize()}, true
	case "isize":
		return types.Int{IntType: r.target.Isize()}, true
	case "fnptr":
		return types.Ptr{PtrType: ptr.FnPtr{}}, true
	case "vtableptr":
		return types.Ptr{PtrType: ptr.VTablePtr{}}, true
	}
	if it, ok := mem.IntTypeByName(name); ok {
		return types.Int{IntType: it}, true
	}
	return nil, false
}

func (r *resolver) intType(node ast.Node, path []string) (mem.IntType, error) {
	if s, ok := node.(*ast.StringNode); ok {
		switch s.Value {
		case "usize":
			return r.target.Usize(), nil
		case "isize":
			return r.target.Isize(), nil
		}
	}
	return intTypeValue(node, path)
}

// named resolves a scalar or document entry; ref is the referring node.
func (r *resolver) named(name string, ref ast.Node, path []string) (types.Type, error) {
	if t, ok := r.scalar(name); ok {
		return t, nil
	}
	if t, ok := r.done[name]; ok {
		return t, nil
	}
	expr, ok := r.exprs[name]
	if !ok {
		known := append([]string(nil), scalarNames...)
		for n := range r.exprs {
			known = append(known, n)
		}
		sort.Strings(known)
		err := errors.NotFound(errors.PhaseParse, "type", name)
		err.Path = path
		err.Detail += suggest.Hint(name, known)
		if l := line(ref); l > 0 {
			err.Detail += " at line " + itoa(l)
		}
		return nil, err
	}
	defPath := []string{"types", name}
	if r.active[name] {
		return nil, fail(ref, defPath, "type %q contains itself", name)
	}

	r.active[name] = true
	t, err := r.expr(expr, defPath)
	delete(r.active, name)
	if err != nil {
		return nil, err
	}

	if err := layout.Check(t, r.target); err != nil {
		return nil, errors.New(errors.PhaseBuild, errors.KindIllFormed).
			Path(defPath...).
			Type(t.String()).
			Cause(err).
			Detail("type %q is not well formed", name).
			Build()
	}
	r.done[name] = t
	return t, nil
}

func (r *resolver) expr(node ast.Node, path []string) (types.Type, error) {
	switch n := node.(type) {
	case *ast.StringNode:
		return r.named(n.Value, n, path)
	case *ast.MappingNode, *ast.MappingValueNode:
		fields, err := keyValues(n, path)
		if err != nil {
			return nil, err
		}
		for _, form := range forms {
			if v, ok := fields[form]; ok {
				return r.form(form, v, fields, sub(path, form))
			}
		}
		return nil, fail(node, path, "unknown type form, expected one of %v", forms)
	default:
		return nil, fail(node, path, "expected a type, got %s", kind(node))
	}
}

func (r *resolver) form(form string, v ast.Node, fields keyValueMap, path []string) (types.Type, error) {
	switch form {
	case "tuple":
		if list, ok := v.(*ast.SequenceNode); ok {
			elems, err := r.list(list.Values, path)
			if err != nil {
				return nil, err
			}
			return layout.Record(r.target, elems...)
		}
		return r.explicitTuple(v, path)
	case "array":
		elem, err := r.sizedElem(v, path)
		if err != nil {
			return nil, err
		}
		count, err := uintField(fields, "count", path, true)
		if err != nil {
			return nil, err
		}
		return &types.Array{Elem: elem, Count: count}, nil
	case "slice":
		elem, err := r.sizedElem(v, path)
		if err != nil {
			return nil, err
		}
		return &types.Slice{Elem: elem}, nil
	case "ref", "ref_mut", "box":
		pointee, err := r.expr(v, path)
		if err != nil {
			return nil, err
		}
		switch form {
		case "ref":
			return layout.RefTo(pointee, ptr.Immutable, r.target)
		case "ref_mut":
			return layout.RefTo(pointee, ptr.Mutable, r.target)
		}
		return layout.BoxOf(pointee, r.target)
	case "raw":
		var name string
		if !isNull(v) {
			s, err := stringValue(v, path)
			if err != nil {
				return nil, err
			}
			name = s
		}
		meta, ok := ptr.ParseMetaKind(name)
		if !ok {
			return nil, fail(v, path, "unknown metadata kind %q", name)
		}
		return types.Ptr{PtrType: ptr.Raw{Meta: meta}}, nil
	case "union":
		if list, ok := v.(*ast.SequenceNode); ok {
			elems, err := r.list(list.Values, path)
			if err != nil {
				return nil, err
			}
			return layout.UnionOf(r.target, elems...)
		}
		return r.explicitUnion(v, path)
	case "enum":
		if list, ok := v.(*ast.SequenceNode); ok {
			payloads := make([]types.Type, len(list.Values))
			for i, item := range list.Values {
				if isNull(item) {
					continue
				}
				t, err := r.expr(item, sub(path, itoa(i)))
				if err != nil {
					return nil, err
				}
				payloads[i] = t
			}
			return layout.TaggedEnum(r.target, payloads...)
		}
		return r.explicitEnum(v, path)
	case "option":
		inner, err := r.expr(v, path)
		if err != nil {
			return nil, err
		}
		if p, ok := inner.(types.Ptr); ok && ptr.IsSafe(p.PtrType) {
			return layout.NicheOption(r.target, p.PtrType)
		}
		return layout.TaggedEnum(r.target, nil, inner)
	case "with_overflow":
		it, err := r.intType(v, path)
		if err != nil {
			return nil, err
		}
		return layout.WithOverflow(it, r.target), nil
	case "dyn":
		if isNull(v) {
			return types.TraitObject{}, nil
		}
		trait, err := stringValue(v, path)
		if err != nil {
			return nil, err
		}
		return types.TraitObject{Trait: trait}, nil
	case "wit":
		wt, err := witType(v, path)
		if err != nil {
			return nil, err
		}
		return r.wit.Convert(wt)
	}
	return nil, fail(v, path, "unknown type form %q", form)
}

func (r *resolver) list(nodes []ast.Node, path []string) ([]types.Type, error) {
	out := make([]types.Type, len(nodes))
	for i, n := range nodes {
		t, err := r.expr(n, sub(path, itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (r *resolver) sizedElem(node ast.Node, path []string) (types.Type, error) {
	elem, err := r.expr(node, path)
	if err != nil {
		return nil, err
	}
	s, err := layout.SizeOf(elem, r.target)
	if err != nil {
		return nil, err
	}
	if !ptr.IsSized(s) {
		return nil, fail(node, path, "element type %s is not sized", elem)
	}
	return elem, nil
}

func (r *resolver) fieldList(node ast.Node, path []string) ([]types.Field, error) {
	if isNull(node) {
		return nil, nil
	}
	items, err := nodeAsList(node, path)
	if err != nil {
		return nil, err
	}
	out := make([]types.Field, len(items))
	for i, item := range items {
		ip := sub(path, itoa(i))
		kv, err := keyValues(item, ip)
		if err != nil {
			return nil, err
		}
		off, err := uintField(kv, "offset", ip, true)
		if err != nil {
			return nil, err
		}
		tn, ok := kv["type"]
		if !ok {
			return nil, fail(item, ip, "missing \"type\"")
		}
		t, err := r.expr(tn, sub(ip, "type"))
		if err != nil {
			return nil, err
		}
		out[i] = types.Field{Offset: mem.SizeFromBytes(off), Type: t}
	}
	return out, nil
}

func shape(kv keyValueMap, path []string) (mem.Size, mem.Align, error) {
	size, err := sizeField(kv, "size", path)
	if err != nil {
		return mem.Size{}, mem.Align{}, err
	}
	align, err := alignField(kv, "align", path)
	if err != nil {
		return mem.Size{}, mem.Align{}, err
	}
	return size, align, nil
}

func (r *resolver) explicitTuple(node ast.Node, path []string) (types.Type, error) {
	kv, err := keyValues(node, path)
	if err != nil {
		return nil, err
	}
	size, align, err := shape(kv, path)
	if err != nil {
		return nil, err
	}
	fields, err := r.fieldList(kv["fields"], sub(path, "fields"))
	if err != nil {
		return nil, err
	}
	return &types.Tuple{Fields: fields, Size: size, Align: align}, nil
}

func (r *resolver) explicitUnion(node ast.Node, path []string) (types.Type, error) {
	kv, err := keyValues(node, path)
	if err != nil {
		return nil, err
	}
	size, align, err := shape(kv, path)
	if err != nil {
		return nil, err
	}
	fields, err := r.fieldList(kv["fields"], sub(path, "fields"))
	if err != nil {
		return nil, err
	}

	u := &types.Union{Fields: fields, Size: size, Align: align}
	if isNull(kv["chunks"]) {
		return u, nil
	}
	items, err := nodeAsList(kv["chunks"], sub(path, "chunks"))
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		ip := sub(path, "chunks", itoa(i))
		ckv, err := keyValues(item, ip)
		if err != nil {
			return nil, err
		}
		off, err := uintField(ckv, "offset", ip, true)
		if err != nil {
			return nil, err
		}
		n, err := uintField(ckv, "size", ip, true)
		if err != nil {
			return nil, err
		}
		u.Chunks = append(u.Chunks, types.Chunk{Offset: mem.SizeFromBytes(off), Size: mem.SizeFromBytes(n)})
	}
	return u, nil
}

func (r *resolver) explicitEnum(node ast.Node, path []string) (types.Type, error) {
	kv, err := keyValues(node, path)
	if err != nil {
		return nil, err
	}
	size, align, err := shape(kv, path)
	if err != nil {
		return nil, err
	}
	dtNode, ok := kv["discriminant_ty"]
	if !ok {
		return nil, fail(node, path, "missing \"discriminant_ty\"")
	}
	discTy, err := r.intType(dtNode, sub(path, "discriminant_ty"))
	if err != nil {
		return nil, err
	}

	e := &types.Enum{DiscriminantTy: discTy, Size: size, Align: align}
	if !isNull(kv["variants"]) {
		items, err := nodeAsList(kv["variants"], sub(path, "variants"))
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			v, err := r.variant(item, size, sub(path, "variants", itoa(i)))
			if err != nil {
				return nil, err
			}
			e.Variants = append(e.Variants, v)
		}
	}

	e.Discriminator = types.Invalid{}
	if d, ok := kv["discriminator"]; ok {
		disc, err := r.discriminator(d, sub(path, "discriminator"))
		if err != nil {
			return nil, err
		}
		e.Discriminator = disc
	}
	return e, nil
}

func (r *resolver) variant(node ast.Node, enumSize mem.Size, path []string) (types.Variant, error) {
	kv, err := keyValues(node, path)
	if err != nil {
		return types.Variant{}, err
	}
	dn, ok := kv["discriminant"]
	if !ok {
		return types.Variant{}, fail(node, path, "missing \"discriminant\"")
	}
	d, err := bigValue(dn, sub(path, "discriminant"))
	if err != nil {
		return types.Variant{}, err
	}

	v := types.Variant{
		Discriminant: d,
		Type:         &types.Tuple{Size: enumSize, Align: mem.AlignOne},
		Tagger:       types.Tagger{},
	}
	if tn, ok := kv["type"]; ok && !isNull(tn) {
		t, err := r.expr(tn, sub(path, "type"))
		if err != nil {
			return types.Variant{}, err
		}
		v.Type = t
	}

	if isNull(kv["tags"]) {
		return v, nil
	}
	tags, err := nodeAsList(kv["tags"], sub(path, "tags"))
	if err != nil {
		return types.Variant{}, err
	}
	for i, item := range tags {
		tp := sub(path, "tags", itoa(i))
		tkv, err := keyValues(item, tp)
		if err != nil {
			return types.Variant{}, err
		}
		off, err := uintField(tkv, "offset", tp, true)
		if err != nil {
			return types.Variant{}, err
		}
		tyNode, ok := tkv["ty"]
		if !ok {
			return types.Variant{}, fail(item, tp, "missing \"ty\"")
		}
		ty, err := r.intType(tyNode, sub(tp, "ty"))
		if err != nil {
			return types.Variant{}, err
		}
		valNode, ok := tkv["value"]
		if !ok {
			return types.Variant{}, fail(item, tp, "missing \"value\"")
		}
		val, err := bigValue(valNode, sub(tp, "value"))
		if err != nil {
			return types.Variant{}, err
		}
		offset := mem.SizeFromBytes(off)
		if _, dup := v.Tagger[offset]; dup {
			return types.Variant{}, fail(item, tp, "offset %d tagged twice", off)
		}
		v.Tagger[offset] = types.Tag{Ty: ty, Value: val}
	}
	return v, nil
}

func (r *resolver) discriminator(node ast.Node, path []string) (types.Discriminator, error) {
	if s, ok := node.(*ast.StringNode); ok && s.Value == "invalid" {
		return types.Invalid{}, nil
	}
	kv, err := keyValues(node, path)
	if err != nil {
		return nil, err
	}
	if k, ok := kv["known"]; ok {
		d, err := bigValue(k, sub(path, "known"))
		if err != nil {
			return nil, err
		}
		return types.Known{Value: d}, nil
	}
	bn, ok := kv["branch"]
	if !ok {
		return nil, fail(node, path, "expected invalid, known or branch")
	}

	path = sub(path, "branch")
	bkv, err := keyValues(bn, path)
	if err != nil {
		return nil, err
	}
	off, err := uintField(bkv, "offset", path, true)
	if err != nil {
		return nil, err
	}
	tyNode, ok := bkv["ty"]
	if !ok {
		return nil, fail(bn, path, "missing \"ty\"")
	}
	ty, err := r.intType(tyNode, sub(path, "ty"))
	if err != nil {
		return nil, err
	}

	var fallback types.Discriminator = types.Invalid{}
	if fb, ok := bkv["fallback"]; ok && !isNull(fb) {
		if fallback, err = r.discriminator(fb, sub(path, "fallback")); err != nil {
			return nil, err
		}
	}

	var children []types.Child
	if !isNull(bkv["children"]) {
		items, err := nodeAsList(bkv["children"], sub(path, "children"))
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			cp := sub(path, "children", itoa(i))
			ckv, err := keyValues(item, cp)
			if err != nil {
				return nil, err
			}
			lo, err := bigField(ckv, "lo", item, cp)
			if err != nil {
				return nil, err
			}
			hi, err := bigField(ckv, "hi", item, cp)
			if err != nil {
				return nil, err
			}
			nextNode, ok := ckv["next"]
			if !ok {
				return nil, fail(item, cp, "missing \"next\"")
			}
			next, err := r.discriminator(nextNode, sub(cp, "next"))
			if err != nil {
				return nil, err
			}
			children = append(children, types.Child{Lo: lo, Hi: hi, Next: next})
		}
	}
	if err := checkIntervals(children, bn, path); err != nil {
		return nil, err
	}
	return types.NewBranch(mem.SizeFromBytes(off), ty, fallback, children...), nil
}

func bigField(kv keyValueMap, key string, parent ast.Node, path []string) (*big.Int, error) {
	n, ok := kv[key]
	if !ok {
		return nil, fail(parent, path, "missing %q", key)
	}
	return bigValue(n, sub(path, key))
}

// checkIntervals rejects the interval sets NewBranch treats as programming
// errors, since here they come from user input.
func checkIntervals(children []types.Child, node ast.Node, path []string) error {
	sorted := append([]types.Child(nil), children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo.Cmp(sorted[j].Lo) < 0 })
	for i, c := range sorted {
		if c.Lo.Cmp(c.Hi) >= 0 {
			return fail(node, path, "interval [%s, %s) is empty", c.Lo, c.Hi)
		}
		if i > 0 && sorted[i-1].Hi.Cmp(c.Lo) > 0 {
			return fail(node, path, "intervals [%s, %s) and [%s, %s) overlap",
				sorted[i-1].Lo, sorted[i-1].Hi, c.Lo, c.Hi)
		}
	}
	return nil
}
