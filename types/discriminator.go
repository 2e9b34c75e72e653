package types

import (
	"math/big"
	"sort"
	"strings"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
)

// Discriminator is one of Known, Invalid or *Branch.
type Discriminator interface {
	String() string
	isDiscriminator()
}

// Known yields its value without reading any tag.
type Known struct {
	Value *big.Int
}

// KnownInt is Known for a small discriminant.
func KnownInt(d int64) Known {
	return Known{Value: big.NewInt(d)}
}

// Invalid marks tag values that encode no variant.
type Invalid struct{}

// Child selects Next when the tag lies in [Lo, Hi).
type Child struct {
	Lo   *big.Int
	Hi   *big.Int
	Next Discriminator
}

// Contains reports whether v lies in [Lo, Hi).
func (c Child) Contains(v *big.Int) bool {
	return c.Lo.Cmp(v) <= 0 && v.Cmp(c.Hi) < 0
}

// Branch reads a ValueType integer at Offset and dispatches on it. Children
// must be pairwise disjoint; uncovered values go to Fallback. Branches built
// by NewBranch keep their children sorted and select by binary search; a
// literal Branch is scanned in order.
type Branch struct {
	Fallback  Discriminator
	Children  []Child
	Offset    mem.Offset
	ValueType mem.IntType
	sorted    bool
}

// NewBranch sorts the children and checks that their intervals are
// non-empty and disjoint. Overlap is a contract violation.
func NewBranch(offset mem.Offset, valueType mem.IntType, fallback Discriminator, children ...Child) *Branch {
	sorted := make([]Child, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo.Cmp(sorted[j].Lo) < 0 })

	for i, c := range sorted {
		if c.Lo.Cmp(c.Hi) >= 0 {
			errors.Violation("discriminator interval [%s, %s) is empty", c.Lo, c.Hi)
		}
		if i > 0 && sorted[i-1].Hi.Cmp(c.Lo) > 0 {
			errors.Violation("discriminator intervals [%s, %s) and [%s, %s) overlap",
				sorted[i-1].Lo, sorted[i-1].Hi, c.Lo, c.Hi)
		}
	}

	return &Branch{
		Offset:    offset,
		ValueType: valueType,
		Fallback:  fallback,
		Children:  sorted,
		sorted:    true,
	}
}

// Select returns the child whose interval contains v.
func (b *Branch) Select(v *big.Int) (Discriminator, bool) {
	if !b.sorted {
		for _, c := range b.Children {
			if c.Contains(v) {
				return c.Next, true
			}
		}
		return nil, false
	}
	i := sort.Search(len(b.Children), func(i int) bool {
		return b.Children[i].Hi.Cmp(v) > 0
	})
	if i < len(b.Children) && b.Children[i].Contains(v) {
		return b.Children[i].Next, true
	}
	return nil, false
}

// Next returns the node evaluation continues with for tag value v.
func (b *Branch) Next(v *big.Int) Discriminator {
	if next, ok := b.Select(v); ok {
		return next
	}
	return b.Fallback
}

func (Known) isDiscriminator()   {}
func (Invalid) isDiscriminator() {}
func (*Branch) isDiscriminator() {}

func (k Known) String() string { return "known(" + k.Value.String() + ")" }
func (Invalid) String() string { return "invalid" }

func (b *Branch) String() string {
	var sb strings.Builder
	sb.WriteString("branch(")
	sb.WriteString(b.ValueType.String())
	sb.WriteString("@")
	sb.WriteString(b.Offset.String())
	sb.WriteString("){")
	for i, c := range b.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		sb.WriteString(c.Lo.String())
		sb.WriteString(",")
		sb.WriteString(c.Hi.String())
		sb.WriteString(")->")
		sb.WriteString(c.Next.String())
	}
	sb.WriteString("; else ")
	sb.WriteString(b.Fallback.String())
	sb.WriteString("}")
	return sb.String()
}
