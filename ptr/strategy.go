package ptr

import (
	"fmt"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
)

// SizeStrategy determines how a pointee's size is known: statically (Sized),
// from an element count (SliceSize) or from a vtable (TraitObjectSize).
type SizeStrategy interface {
	// MetaKind is the metadata needed to resolve the size.
	MetaKind() PointerMetaKind
	String() string
	isSizeStrategy()
}

// Sized is a statically known size.
type Sized struct {
	Size mem.Size
}

// SliceSize is the size of a slice of fixed-size elements.
type SliceSize struct {
	ElemSize mem.Size
}

// TraitObjectSize is resolved through the vtable.
type TraitObjectSize struct{}

func (Sized) MetaKind() PointerMetaKind           { return MetaNone }
func (SliceSize) MetaKind() PointerMetaKind       { return MetaElementCount }
func (TraitObjectSize) MetaKind() PointerMetaKind { return MetaVTablePointer }

func (Sized) isSizeStrategy()           {}
func (SliceSize) isSizeStrategy()       {}
func (TraitObjectSize) isSizeStrategy() {}

func (s Sized) String() string         { return s.Size.String() }
func (s SliceSize) String() string     { return "[" + s.ElemSize.String() + "]" }
func (TraitObjectSize) String() string { return "dyn" }

// IsSized reports whether the strategy is a static size.
func IsSized(s SizeStrategy) bool {
	_, ok := s.(Sized)
	return ok
}

// ExpectSized returns the static size or aborts with a contract violation.
func ExpectSized(s SizeStrategy, why string) mem.Size {
	sized, ok := s.(Sized)
	if !ok {
		errors.Violation("expected sized strategy (%s), got %s", why, s)
	}
	return sized.Size
}

// Compute resolves a concrete size from runtime metadata.
//
// The caller must already have checked s.MetaKind().Matches(meta); a
// mismatch is a contract violation. A VTablePointer naming no live vtable
// is undefined behavior and is reported as such.
func Compute(s SizeStrategy, meta PointerMeta, vtables VTableLookup) (mem.Size, error) {
	if !s.MetaKind().Matches(meta) {
		errors.Violation("metadata %v does not match size strategy %s", meta, s)
	}

	switch s := s.(type) {
	case Sized:
		return s.Size, nil
	case SliceSize:
		count := meta.(ElementCount).Count
		size, err := s.ElemSize.Mul(count)
		if err != nil {
			return mem.Size{}, errors.UndefinedBehavior(errors.PhaseResolve,
				"slice of %d elements of size %s overflows", count, s.ElemSize)
		}
		return size, nil
	case TraitObjectSize:
		name := meta.(VTablePointer).Name
		if vtables == nil {
			return mem.Size{}, errors.UndefinedBehavior(errors.PhaseResolve, "vtable %q is not live: no vtable table", name)
		}
		vt, ok := vtables.LookupVTable(name)
		if !ok {
			return mem.Size{}, errors.UndefinedBehavior(errors.PhaseResolve, "vtable %q is not live", name)
		}
		return vt.Size, nil
	default:
		panic(fmt.Sprintf("ptr: unknown size strategy %T", s))
	}
}
