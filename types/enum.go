package types

import (
	"math/big"
	"sort"

	"github.com/wippyai/machine-layout/mem"
)

// Tag is an integer that must be stored at some offset to select a variant.
type Tag struct {
	Value *big.Int
	Ty    mem.IntType
}

// Tagger maps offsets within the enum to the tags a variant writes there.
// Tag bytes lie outside every byte the variant's own type writes.
type Tagger map[mem.Offset]Tag

// Offsets returns the tagged offsets in ascending order.
func (t Tagger) Offsets() []mem.Offset {
	offs := make([]mem.Offset, 0, len(t))
	for off := range t {
		offs = append(offs, off)
	}
	sort.Slice(offs, func(i, j int) bool { return offs[i].Less(offs[j]) })
	return offs
}

// Variant is one alternative of an enum. Type spans the whole enum
// representation; the payload sits at whatever offsets Type places it.
type Variant struct {
	Discriminant *big.Int
	Type         Type
	Tagger       Tagger
}

// Variant returns the variant with discriminant d.
func (e *Enum) Variant(d *big.Int) (Variant, bool) {
	for _, v := range e.Variants {
		if v.Discriminant.Cmp(d) == 0 {
			return v, true
		}
	}
	return Variant{}, false
}
