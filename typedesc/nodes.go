package typedesc

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
)

type entry struct {
	value ast.Node
	key   string
}

type keyValueMap = map[string]ast.Node

func line(node ast.Node) int {
	if node == nil {
		return 0
	}
	if tk := node.GetToken(); tk != nil && tk.Position != nil {
		return tk.Position.Line
	}
	return 0
}

func fail(node ast.Node, path []string, format string, args ...any) *errors.Error {
	detail := fmt.Sprintf(format, args...)
	if l := line(node); l > 0 {
		detail = fmt.Sprintf("line %d: %s", l, detail)
	}
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		Path(path...).
		Detail(detail).
		Build()
}

func isNull(node ast.Node) bool {
	if node == nil {
		return true
	}
	_, ok := node.(*ast.NullNode)
	return ok
}

func kind(node ast.Node) string {
	if node == nil {
		return "nothing"
	}
	return node.Type().String()
}

// pairs returns the entries of a mapping in document order.
func pairs(node ast.Node, path []string) ([]entry, error) {
	var values []*ast.MappingValueNode
	switch n := node.(type) {
	case *ast.MappingNode:
		values = n.Values
	case *ast.MappingValueNode:
		values = []*ast.MappingValueNode{n}
	default:
		return nil, fail(node, path, "expected a mapping, got %s", kind(node))
	}

	out := make([]entry, 0, len(values))
	for _, pair := range values {
		key, ok := pair.Key.(*ast.StringNode)
		if !ok {
			return nil, fail(pair, path, "expected a string key, got %s", kind(pair.Key))
		}
		out = append(out, entry{key: key.Value, value: pair.Value})
	}
	return out, nil
}

func keyValues(node ast.Node, path []string) (keyValueMap, error) {
	entries, err := pairs(node, path)
	if err != nil {
		return nil, err
	}
	out := make(keyValueMap, len(entries))
	for _, e := range entries {
		out[e.key] = e.value
	}
	return out, nil
}

func nodeAsList(node ast.Node, path []string) ([]ast.Node, error) {
	seq, ok := node.(*ast.SequenceNode)
	if !ok {
		return nil, fail(node, path, "expected a list, got %s", kind(node))
	}
	return seq.Values, nil
}

func stringValue(node ast.Node, path []string) (string, error) {
	s, ok := node.(*ast.StringNode)
	if !ok {
		return "", fail(node, path, "expected a string, got %s", kind(node))
	}
	return s.Value, nil
}

// bigValue accepts integer literals and, for values beyond 64 bits,
// decimal or 0x-prefixed strings.
func bigValue(node ast.Node, path []string) (*big.Int, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		switch v := n.Value.(type) {
		case int64:
			return big.NewInt(v), nil
		case uint64:
			return new(big.Int).SetUint64(v), nil
		case int:
			return big.NewInt(int64(v)), nil
		}
	case *ast.StringNode:
		s := strings.ReplaceAll(n.Value, "_", "")
		if v, ok := new(big.Int).SetString(s, 0); ok {
			return v, nil
		}
	}
	return nil, fail(node, path, "expected an integer, got %s", kind(node))
}

func uintValue(node ast.Node, path []string) (uint64, error) {
	v, err := bigValue(node, path)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fail(node, path, "%s is out of range", v)
	}
	return v.Uint64(), nil
}

func uintField(fields keyValueMap, key string, path []string, required bool) (uint64, error) {
	node, ok := fields[key]
	if !ok || isNull(node) {
		if required {
			return 0, fail(nil, path, "missing %q", key)
		}
		return 0, nil
	}
	return uintValue(node, sub(path, key))
}

func alignField(fields keyValueMap, key string, path []string) (mem.Align, error) {
	n, err := uintField(fields, key, path, true)
	if err != nil {
		return mem.Align{}, err
	}
	a, ok := mem.AlignFromBytes(n)
	if !ok {
		return mem.Align{}, fail(fields[key], sub(path, key), "alignment %d is not a power of two", n)
	}
	return a, nil
}

func sizeField(fields keyValueMap, key string, path []string) (mem.Size, error) {
	n, err := uintField(fields, key, path, true)
	if err != nil {
		return mem.Size{}, err
	}
	return mem.SizeFromBytes(n), nil
}

func intTypeValue(node ast.Node, path []string) (mem.IntType, error) {
	name, err := stringValue(node, path)
	if err != nil {
		return mem.IntType{}, err
	}
	it, ok := mem.IntTypeByName(name)
	if !ok {
		return mem.IntType{}, fail(node, path, "unknown integer type %q", name)
	}
	return it, nil
}

// sub extends path without sharing its backing array.
func sub(path []string, elems ...string) []string {
	out := make([]string, 0, len(path)+len(elems))
	out = append(out, path...)
	return append(out, elems...)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
