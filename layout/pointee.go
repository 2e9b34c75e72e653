package layout

import (
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// Inhabited reports whether t has at least one valid value.
func Inhabited(t types.Type) bool {
	switch typ := t.(type) {
	case *types.Tuple:
		for _, f := range typ.Fields {
			if !Inhabited(f.Type) {
				return false
			}
		}
		return true
	case *types.Array:
		return typ.Count == 0 || Inhabited(typ.Elem)
	case *types.Enum:
		for _, v := range typ.Variants {
			if Inhabited(v.Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// PointeeOf describes t as the pointee of a safe pointer. The model has no
// interior mutability or pinning, so Freeze and Unpin are always set.
func PointeeOf(t types.Type, target mem.Target) (ptr.PointeeInfo, error) {
	size, err := SizeOf(t, target)
	if err != nil {
		return ptr.PointeeInfo{}, err
	}
	return ptr.PointeeInfo{
		Size:      size,
		Align:     AlignOf(t, target),
		Inhabited: Inhabited(t),
		Freeze:    true,
		Unpin:     true,
	}, nil
}

// RefTo is the type of a shared or mutable reference to t.
func RefTo(t types.Type, mutbl ptr.Mutability, target mem.Target) (types.Ptr, error) {
	pointee, err := PointeeOf(t, target)
	if err != nil {
		return types.Ptr{}, err
	}
	return types.Ptr{PtrType: ptr.Ref{Pointee: pointee, Mutbl: mutbl}}, nil
}

// BoxOf is the type of an owning pointer to t.
func BoxOf(t types.Type, target mem.Target) (types.Ptr, error) {
	pointee, err := PointeeOf(t, target)
	if err != nil {
		return types.Ptr{}, err
	}
	return types.Ptr{PtrType: ptr.Box{Pointee: pointee}}, nil
}
