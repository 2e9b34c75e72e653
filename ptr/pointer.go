package ptr

import (
	"fmt"
	"math/big"

	"github.com/wippyai/machine-layout/mem"
)

// ThinPointer is an address with optional provenance. A nil Provenance makes
// the pointer invalid for any non-zero-size access.
type ThinPointer[P any] struct {
	Addr       *big.Int
	Provenance *P
}

// NewThin builds a thin pointer without provenance.
func NewThin[P any](addr int64) ThinPointer[P] {
	return ThinPointer[P]{Addr: big.NewInt(addr)}
}

func (p ThinPointer[P]) HasProvenance() bool {
	return p.Provenance != nil
}

// WrappingOffset adds delta to the address and confines the result to
// [0, 2^PtrBits). Provenance is carried over unchanged and bounds are not checked.
func (p ThinPointer[P]) WrappingOffset(delta *big.Int, target mem.Target) ThinPointer[P] {
	addr := new(big.Int)
	if p.Addr != nil {
		addr.Set(p.Addr)
	}
	addr.Add(addr, delta)
	addr.Mod(addr, target.AddressSpace())
	return ThinPointer[P]{Addr: addr, Provenance: p.Provenance}
}

// Widen attaches metadata. Agreement with the pointee's metadata kind is
// the caller's responsibility (see PointerMetaKind.Matches).
func (p ThinPointer[P]) Widen(meta PointerMeta) Pointer[P] {
	return Pointer[P]{Thin: p, Meta: meta}
}

func (p ThinPointer[P]) String() string {
	if p.Addr == nil {
		return "0x0"
	}
	if p.Provenance == nil {
		return fmt.Sprintf("0x%x", p.Addr)
	}
	return fmt.Sprintf("0x%x[%v]", p.Addr, *p.Provenance)
}

// Pointer is a thin pointer plus optional metadata. A nil Meta means none.
type Pointer[P any] struct {
	Thin ThinPointer[P]
	Meta PointerMeta
}

// WrappingOffset offsets the address part and keeps the metadata.
func (p Pointer[P]) WrappingOffset(delta *big.Int, target mem.Target) Pointer[P] {
	return Pointer[P]{Thin: p.Thin.WrappingOffset(delta, target), Meta: p.Meta}
}

func (p Pointer[P]) String() string {
	if p.Meta == nil {
		return p.Thin.String()
	}
	return p.Thin.String() + "+" + p.Meta.String()
}

// PointerMetaKind names the kind of metadata a pointer may carry.
type PointerMetaKind uint8

const (
	MetaNone PointerMetaKind = iota
	MetaElementCount
	MetaVTablePointer
)

func (k PointerMetaKind) String() string {
	switch k {
	case MetaElementCount:
		return "element_count"
	case MetaVTablePointer:
		return "vtable_pointer"
	default:
		return "none"
	}
}

// ParseMetaKind accepts the names produced by String plus short aliases.
func ParseMetaKind(s string) (PointerMetaKind, bool) {
	switch s {
	case "none", "":
		return MetaNone, true
	case "element_count", "count":
		return MetaElementCount, true
	case "vtable_pointer", "vtable":
		return MetaVTablePointer, true
	}
	return MetaNone, false
}

// Matches reports whether meta is of this kind; nil matches only MetaNone.
func (k PointerMetaKind) Matches(meta PointerMeta) bool {
	if meta == nil {
		return k == MetaNone
	}
	return meta.Kind() == k
}

// PointerMeta is the metadata of a wide pointer: ElementCount or VTablePointer.
type PointerMeta interface {
	Kind() PointerMetaKind
	String() string
	isPointerMeta()
}

// ElementCount is the metadata of a slice pointer.
type ElementCount struct {
	Count uint64
}

func (ElementCount) Kind() PointerMetaKind { return MetaElementCount }
func (ElementCount) isPointerMeta()        {}
func (m ElementCount) String() string      { return fmt.Sprintf("len=%d", m.Count) }

// VTablePointer is the metadata of a trait-object pointer.
type VTablePointer struct {
	Name VTableName
}

func (VTablePointer) Kind() PointerMetaKind { return MetaVTablePointer }
func (VTablePointer) isPointerMeta()        {}
func (m VTablePointer) String() string      { return "vtable=" + string(m.Name) }
