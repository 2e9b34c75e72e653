package layout

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// Info is the size strategy and alignment of a type.
type Info struct {
	Size  ptr.SizeStrategy
	Align mem.Align
}

// Calculator computes layouts for one target and caches the results for
// arrays and slices, whose layout is derived from their element type.
// It is safe for concurrent use.
type Calculator struct {
	cache  map[types.Type]Info
	target mem.Target
	mu     sync.RWMutex
}

func NewCalculator(target mem.Target) *Calculator {
	return &Calculator{
		target: target,
		cache:  make(map[types.Type]Info),
	}
}

// Target returns the target this calculator lays out for.
func (c *Calculator) Target() mem.Target {
	return c.target
}

// SizeOf returns the size strategy of t on target.
func SizeOf(t types.Type, target mem.Target) (ptr.SizeStrategy, error) {
	c := Calculator{target: target}
	info, err := c.Calculate(t)
	if err != nil {
		return nil, err
	}
	return info.Size, nil
}

// AlignOf returns the alignment of t on target.
func AlignOf(t types.Type, target mem.Target) mem.Align {
	c := Calculator{target: target}
	return c.align(t)
}

// Calculate returns the layout of t.
func (c *Calculator) Calculate(t types.Type) (Info, error) {
	switch t.(type) {
	case *types.Array, *types.Slice:
		if c.cache != nil {
			c.mu.RLock()
			cached, ok := c.cache[t]
			c.mu.RUnlock()
			if ok {
				return cached, nil
			}
		}
	}

	size, err := c.size(t)
	if err != nil {
		return Info{}, err
	}
	info := Info{Size: size, Align: c.align(t)}

	switch t.(type) {
	case *types.Array, *types.Slice:
		if c.cache != nil {
			c.mu.Lock()
			c.cache[t] = info
			c.mu.Unlock()
			Logger().Debug("cached layout", zap.Stringer("type", t), zap.Stringer("size", size))
		}
	}
	return info, nil
}

func (c *Calculator) size(t types.Type) (ptr.SizeStrategy, error) {
	switch typ := t.(type) {
	case types.Int:
		return ptr.Sized{Size: typ.Size}, nil
	case types.Bool:
		return ptr.Sized{Size: mem.SizeFromBytes(1)}, nil
	case types.Ptr:
		if typ.MetaKind() == ptr.MetaNone {
			return ptr.Sized{Size: c.target.PtrSize}, nil
		}
		// address word plus metadata word
		return ptr.Sized{Size: mem.SizeFromBytes(2 * c.target.PtrSize.Bytes())}, nil
	case *types.Tuple:
		return ptr.Sized{Size: typ.Size}, nil
	case *types.Union:
		return ptr.Sized{Size: typ.Size}, nil
	case *types.Enum:
		return ptr.Sized{Size: typ.Size}, nil
	case *types.Array:
		elem, err := c.Calculate(typ.Elem)
		if err != nil {
			return nil, err
		}
		elemSize := ptr.ExpectSized(elem.Size, "array element")
		size, err := elemSize.Mul(typ.Count)
		if err != nil {
			return nil, errors.Overflow(errors.PhaseLayout, nil, typ.String(), "array size")
		}
		return ptr.Sized{Size: size}, nil
	case *types.Slice:
		elem, err := c.Calculate(typ.Elem)
		if err != nil {
			return nil, err
		}
		return ptr.SliceSize{ElemSize: ptr.ExpectSized(elem.Size, "slice element")}, nil
	case types.TraitObject:
		return ptr.TraitObjectSize{}, nil
	default:
		panic(fmt.Sprintf("layout: unknown type %T", t))
	}
}

func (c *Calculator) align(t types.Type) mem.Align {
	switch typ := t.(type) {
	case types.Int:
		return typ.IntType.Align(c.target)
	case types.Bool:
		return mem.AlignOne
	case types.Ptr:
		return c.target.PtrAlign
	case *types.Tuple:
		return typ.Align
	case *types.Union:
		return typ.Align
	case *types.Enum:
		return typ.Align
	case *types.Array:
		return c.align(typ.Elem)
	case *types.Slice:
		return c.align(typ.Elem)
	case types.TraitObject:
		// Known gap: the true alignment depends on the concrete type and
		// belongs in the vtable. Pinned to pointer alignment until that
		// policy is settled.
		return c.target.PtrAlign
	default:
		panic(fmt.Sprintf("layout: unknown type %T", t))
	}
}

// SizedSize returns the static size of t, failing for unsized types.
func SizedSize(t types.Type, target mem.Target) (mem.Size, error) {
	s, err := SizeOf(t, target)
	if err != nil {
		return mem.Size{}, err
	}
	sized, ok := s.(ptr.Sized)
	if !ok {
		return mem.Size{}, errors.TypeMismatch(errors.PhaseLayout, nil, t.String(), "type is not sized")
	}
	return sized.Size, nil
}
