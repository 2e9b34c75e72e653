package ptr

import (
	"fmt"
	"math/big"

	"github.com/wippyai/machine-layout/mem"
)

// PointeeInfo is what is statically known about the data behind a safe pointer.
type PointeeInfo struct {
	Size      SizeStrategy
	Align     mem.Align
	Inhabited bool
	Freeze    bool
	Unpin     bool
}

func (p PointeeInfo) String() string {
	return fmt.Sprintf("{size: %s, align: %s, inhabited: %t, freeze: %t, unpin: %t}",
		p.Size, p.Align, p.Inhabited, p.Freeze, p.Unpin)
}

// Mutability of a reference.
type Mutability uint8

const (
	Immutable Mutability = iota
	Mutable
)

// PtrType is one of Ref, Box, Raw, FnPtr or VTablePtr.
type PtrType interface {
	// MetaKind is the metadata kind values of this type carry.
	MetaKind() PointerMetaKind
	// AddrValid reports whether addr could ever be a valid value of this
	// pointer type. It does not consult the allocation graph.
	AddrValid(addr *big.Int) bool
	String() string
	isPtrType()
}

// Ref is a safe reference.
type Ref struct {
	Pointee PointeeInfo
	Mutbl   Mutability
}

// Box is an owning safe pointer.
type Box struct {
	Pointee PointeeInfo
}

// Raw is a raw pointer; it only records which metadata it carries.
type Raw struct {
	Meta PointerMetaKind
}

// FnPtr points to code.
type FnPtr struct{}

// VTablePtr points to a vtable.
type VTablePtr struct{}

func (Ref) isPtrType()       {}
func (Box) isPtrType()       {}
func (Raw) isPtrType()       {}
func (FnPtr) isPtrType()     {}
func (VTablePtr) isPtrType() {}

func (r Ref) MetaKind() PointerMetaKind     { return r.Pointee.Size.MetaKind() }
func (b Box) MetaKind() PointerMetaKind     { return b.Pointee.Size.MetaKind() }
func (r Raw) MetaKind() PointerMetaKind     { return r.Meta }
func (FnPtr) MetaKind() PointerMetaKind     { return MetaNone }
func (VTablePtr) MetaKind() PointerMetaKind { return MetaNone }

func (r Ref) AddrValid(addr *big.Int) bool { return safeAddrValid(r.Pointee, addr) }
func (b Box) AddrValid(addr *big.Int) bool { return safeAddrValid(b.Pointee, addr) }
func (Raw) AddrValid(*big.Int) bool        { return true }
func (FnPtr) AddrValid(*big.Int) bool      { return true }
func (VTablePtr) AddrValid(*big.Int) bool  { return true }

// safeAddrValid treats a nil address as null.
func safeAddrValid(p PointeeInfo, addr *big.Int) bool {
	return p.Inhabited && addr != nil && addr.Sign() != 0 && p.Align.IsAligned(addr)
}

func (r Ref) String() string {
	if r.Mutbl == Mutable {
		return "&mut " + r.Pointee.Size.String()
	}
	return "&" + r.Pointee.Size.String()
}

func (b Box) String() string     { return "Box<" + b.Pointee.Size.String() + ">" }
func (r Raw) String() string     { return "*raw(" + r.Meta.String() + ")" }
func (FnPtr) String() string     { return "fn" }
func (VTablePtr) String() string { return "vtable" }

// Pointee returns the pointee facts of a safe pointer type.
func Pointee(t PtrType) (PointeeInfo, bool) {
	switch t := t.(type) {
	case Ref:
		return t.Pointee, true
	case Box:
		return t.Pointee, true
	}
	return PointeeInfo{}, false
}

// IsSafe reports whether values of t are subject to safe-pointer validity rules.
func IsSafe(t PtrType) bool {
	_, ok := Pointee(t)
	return ok
}
