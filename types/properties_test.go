package types

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
)

// buildTree partitions [0, 256) at the given cut points, alternating Known
// and Invalid leaves, with a Known fallback.
func buildTree(cuts []uint8) *Branch {
	seen := map[int64]bool{0: true, 256: true}
	points := []int64{0}
	for _, c := range cuts {
		if !seen[int64(c)] {
			seen[int64(c)] = true
			points = append(points, int64(c))
		}
	}
	points = append(points, 256)

	var children []Child
	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		if lo >= hi {
			continue
		}
		var next Discriminator = KnownInt(int64(i))
		if i%3 == 2 {
			next = Invalid{}
		}
		if i%4 == 3 {
			continue
		}
		children = append(children, Child{Lo: big.NewInt(lo), Hi: big.NewInt(hi), Next: next})
	}
	return NewBranch(mem.ZeroSize, mem.U8, KnownInt(-1), children...)
}

func TestDecodeIsTotal(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every tag maps to exactly one of known or invalid", prop.ForAll(
		func(cuts []uint8, tag uint8) bool {
			tree := buildTree(cuts)
			d, err := Decode(tree, BytesTagReader{Bytes: []byte{tag}})
			known := err == nil && d != nil
			invalid := errors.IsUB(err) && d == nil
			return known != invalid
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))

	properties.Property("decoding agrees with a linear interval scan", prop.ForAll(
		func(cuts []uint8, tag uint8) bool {
			tree := buildTree(cuts)
			v := big.NewInt(int64(tag))
			var want Discriminator = tree.Fallback
			for _, c := range tree.Children {
				if c.Contains(v) {
					want = c.Next
				}
			}
			got, err := Decode(tree, BytesTagReader{Bytes: []byte{tag}})
			switch w := want.(type) {
			case Known:
				return err == nil && got.Cmp(w.Value) == 0
			case Invalid:
				return errors.IsUB(err)
			}
			return false
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
