package typedesc

import (
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/suggest"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/target"
	"github.com/wippyai/machine-layout/types"
)

type document struct {
	Target  string   `yaml:"target"`
	VTables ast.Node `yaml:"vtables"`
	Types   ast.Node `yaml:"types"`
}

// Set is a resolved document.
type Set struct {
	Types   map[string]types.Type
	VTables *ptr.VTables
	Order   []string
	Target  mem.Target
}

// Options adjusts parsing.
type Options struct {
	// Target overrides the document's target when set.
	Target *mem.Target
}

// ParseFile reads and parses the document at path.
func ParseFile(path string, opts Options) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return Parse(data, opts)
}

// Parse resolves every type of a document.
func Parse(data []byte, opts Options) (*Set, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("type document", err)
	}

	tgt := target.Default()
	switch {
	case opts.Target != nil:
		tgt = *opts.Target
	case doc.Target != "":
		t, err := target.Preset(doc.Target)
		if err != nil {
			return nil, err
		}
		tgt = t
	}

	set := &Set{
		Types:   make(map[string]types.Type),
		VTables: ptr.NewVTables(),
		Target:  tgt,
	}
	if err := parseVTables(doc.VTables, set.VTables); err != nil {
		return nil, err
	}

	r := newResolver(tgt)
	if isNull(doc.Types) {
		return set, nil
	}
	entries, err := pairs(doc.Types, []string{"types"})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, dup := r.exprs[e.key]; dup {
			return nil, fail(e.value, []string{"types", e.key}, "type defined twice")
		}
		r.exprs[e.key] = e.value
		set.Order = append(set.Order, e.key)
	}
	for _, name := range set.Order {
		t, err := r.named(name, nil, []string{"types"})
		if err != nil {
			return nil, err
		}
		set.Types[name] = t
	}
	return set, nil
}

// Lookup returns the named type.
func (s *Set) Lookup(name string) (types.Type, error) {
	t, ok := s.Types[name]
	if !ok {
		err := errors.NotFound(errors.PhaseParse, "type", name)
		err.Detail += suggest.Hint(name, s.Names())
		return nil, err
	}
	return t, nil
}

// Names returns the type names in sorted order.
func (s *Set) Names() []string {
	names := append([]string(nil), s.Order...)
	sort.Strings(names)
	return names
}

func parseVTables(node ast.Node, into *ptr.VTables) error {
	if isNull(node) {
		return nil
	}
	entries, err := pairs(node, []string{"vtables"})
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := []string{"vtables", e.key}
		fields, err := keyValues(e.value, path)
		if err != nil {
			return err
		}
		size, err := uintField(fields, "size", path, true)
		if err != nil {
			return err
		}
		align, err := alignField(fields, "align", path)
		if err != nil {
			return err
		}
		vt := &ptr.VTable{
			Methods: make(map[ptr.VTableIndex]ptr.FnName),
			Size:    mem.SizeFromBytes(size),
			Align:   align,
		}
		if methods, ok := fields["methods"]; ok && !isNull(methods) {
			list, err := nodeAsList(methods, sub(path, "methods"))
			if err != nil {
				return err
			}
			for i, m := range list {
				name, err := stringValue(m, sub(path, "methods"))
				if err != nil {
					return err
				}
				vt.Methods[ptr.VTableIndex(i)] = ptr.FnName(name)
			}
		}
		into.Insert(ptr.VTableName(e.key), vt)
	}
	return nil
}
