package typedesc

import (
	"github.com/goccy/go-yaml/ast"
	"go.bytecodealliance.org/wit"
)

var witPrimitives = map[string]wit.Type{
	"bool":   wit.Bool{},
	"u8":     wit.U8{},
	"u16":    wit.U16{},
	"u32":    wit.U32{},
	"u64":    wit.U64{},
	"s8":     wit.S8{},
	"s16":    wit.S16{},
	"s32":    wit.S32{},
	"s64":    wit.S64{},
	"f32":    wit.F32{},
	"f64":    wit.F64{},
	"char":   wit.Char{},
	"string": wit.String{},
}

// witType builds a WIT type from its YAML form, e.g.
//
//	{record: [{name: x, type: f64}, {name: tags, type: {list: string}}]}
func witType(node ast.Node, path []string) (wit.Type, error) {
	if s, ok := node.(*ast.StringNode); ok {
		t, ok := witPrimitives[s.Value]
		if !ok {
			return nil, fail(node, path, "unknown WIT type %q", s.Value)
		}
		return t, nil
	}

	entries, err := pairs(node, path)
	if err != nil {
		return nil, err
	}
	if len(entries) != 1 {
		return nil, fail(node, path, "expected exactly one WIT type constructor")
	}
	key, value := entries[0].key, entries[0].value
	path = sub(path, key)

	var kind wit.TypeDefKind
	switch key {
	case "list":
		elem, err := witType(value, path)
		if err != nil {
			return nil, err
		}
		kind = &wit.List{Type: elem}
	case "option":
		elem, err := witType(value, path)
		if err != nil {
			return nil, err
		}
		kind = &wit.Option{Type: elem}
	case "result":
		res := &wit.Result{}
		if !isNull(value) {
			kv, err := keyValues(value, path)
			if err != nil {
				return nil, err
			}
			if res.OK, err = optionalWitType(kv["ok"], sub(path, "ok")); err != nil {
				return nil, err
			}
			if res.Err, err = optionalWitType(kv["err"], sub(path, "err")); err != nil {
				return nil, err
			}
		}
		kind = res
	case "tuple":
		items, err := nodeAsList(value, path)
		if err != nil {
			return nil, err
		}
		tup := &wit.Tuple{Types: make([]wit.Type, len(items))}
		for i, item := range items {
			if tup.Types[i], err = witType(item, sub(path, itoa(i))); err != nil {
				return nil, err
			}
		}
		kind = tup
	case "record":
		items, err := nodeAsList(value, path)
		if err != nil {
			return nil, err
		}
		rec := &wit.Record{Fields: make([]wit.Field, len(items))}
		for i, item := range items {
			name, t, err := namedWitType(item, sub(path, itoa(i)), true)
			if err != nil {
				return nil, err
			}
			rec.Fields[i] = wit.Field{Name: name, Type: t}
		}
		kind = rec
	case "variant":
		items, err := nodeAsList(value, path)
		if err != nil {
			return nil, err
		}
		v := &wit.Variant{Cases: make([]wit.Case, len(items))}
		for i, item := range items {
			name, t, err := namedWitType(item, sub(path, itoa(i)), false)
			if err != nil {
				return nil, err
			}
			v.Cases[i] = wit.Case{Name: name, Type: t}
		}
		kind = v
	case "enum":
		names, err := nameList(value, path)
		if err != nil {
			return nil, err
		}
		e := &wit.Enum{Cases: make([]wit.EnumCase, len(names))}
		for i, n := range names {
			e.Cases[i] = wit.EnumCase{Name: n}
		}
		kind = e
	case "flags":
		names, err := nameList(value, path)
		if err != nil {
			return nil, err
		}
		f := &wit.Flags{Flags: make([]wit.Flag, len(names))}
		for i, n := range names {
			f.Flags[i] = wit.Flag{Name: n}
		}
		kind = f
	case "own":
		kind = &wit.Own{}
	case "borrow":
		kind = &wit.Borrow{}
	default:
		return nil, fail(node, path, "unknown WIT type constructor %q", key)
	}
	return &wit.TypeDef{Kind: kind}, nil
}

func optionalWitType(node ast.Node, path []string) (wit.Type, error) {
	if isNull(node) {
		return nil, nil
	}
	return witType(node, path)
}

// namedWitType reads {name: n, type: t}; type may be omitted unless required.
func namedWitType(node ast.Node, path []string, required bool) (string, wit.Type, error) {
	kv, err := keyValues(node, path)
	if err != nil {
		return "", nil, err
	}
	nameNode, ok := kv["name"]
	if !ok {
		return "", nil, fail(node, path, "missing \"name\"")
	}
	name, err := stringValue(nameNode, sub(path, "name"))
	if err != nil {
		return "", nil, err
	}
	tn := kv["type"]
	if isNull(tn) {
		if required {
			return "", nil, fail(node, path, "missing \"type\"")
		}
		return name, nil, nil
	}
	t, err := witType(tn, sub(path, "type"))
	return name, t, err
}

func nameList(node ast.Node, path []string) ([]string, error) {
	items, err := nodeAsList(node, path)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		if out[i], err = stringValue(item, sub(path, itoa(i))); err != nil {
			return nil, err
		}
	}
	return out, nil
}
