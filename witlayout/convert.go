package witlayout

import (
	"fmt"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// Info is the converted type with its layout.
type Info struct {
	Type      types.Type
	FieldOffs map[string]uint64
	Size      uint64
	Align     uint64
}

type Converter struct {
	cache  map[*wit.TypeDef]Info
	calc   *layout.Calculator
	target mem.Target
	mu     sync.Mutex
}

func NewConverter(target mem.Target) *Converter {
	return &Converter{
		cache:  make(map[*wit.TypeDef]Info),
		calc:   layout.NewCalculator(target),
		target: target,
	}
}

// Convert returns the layout-model type for t.
func (c *Converter) Convert(t wit.Type) (types.Type, error) {
	info, err := c.Calculate(t)
	if err != nil {
		return nil, err
	}
	return info.Type, nil
}

// Calculate converts t and computes its size and alignment.
func (c *Converter) Calculate(t wit.Type) (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calculate(t)
}

func (c *Converter) calculate(t wit.Type) (Info, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return c.info(types.Bool{}, nil)
	case wit.U8:
		return c.info(types.Int{IntType: mem.U8}, nil)
	case wit.S8:
		return c.info(types.Int{IntType: mem.I8}, nil)
	case wit.U16:
		return c.info(types.Int{IntType: mem.U16}, nil)
	case wit.S16:
		return c.info(types.Int{IntType: mem.I16}, nil)
	case wit.U32, wit.F32, wit.Char:
		return c.info(types.Int{IntType: mem.U32}, nil)
	case wit.S32:
		return c.info(types.Int{IntType: mem.I32}, nil)
	case wit.U64, wit.F64:
		return c.info(types.Int{IntType: mem.U64}, nil)
	case wit.S64:
		return c.info(types.Int{IntType: mem.I64}, nil)
	case wit.String:
		return c.info(elementPtr(), nil) // [ptr, len]
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	case nil:
		return Info{}, errors.InvalidInput(errors.PhaseBuild, "nil WIT type")
	default:
		return Info{}, errors.Unsupported(errors.PhaseBuild, fmt.Sprintf("WIT type %T", t))
	}
}

func (c *Converter) calculateTypeDef(t *wit.TypeDef) (Info, error) {
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	var (
		info Info
		err  error
	)
	switch kind := t.Kind.(type) {
	case *wit.Record:
		info, err = c.calculateRecord(kind)
	case *wit.Tuple:
		info, err = c.calculateTuple(kind)
	case *wit.Variant:
		info, err = c.calculateVariant(kind)
	case *wit.Enum:
		info, err = c.tagged(make([]wit.Type, len(kind.Cases)))
	case *wit.Option:
		info, err = c.tagged([]wit.Type{nil, kind.Type})
	case *wit.Result:
		info, err = c.tagged([]wit.Type{kind.OK, kind.Err})
	case *wit.List:
		info, err = c.info(elementPtr(), nil)
	case *wit.Flags:
		info, err = c.info(flagsType(len(kind.Flags)), nil)
	case *wit.Own, *wit.Borrow:
		info, err = c.info(types.Int{IntType: mem.U32}, nil) // handle index
	case wit.Type:
		info, err = c.calculate(kind)
	default:
		err = errors.Unsupported(errors.PhaseBuild, fmt.Sprintf("WIT type definition %T", t.Kind))
	}
	if err != nil {
		return Info{}, err
	}

	c.cache[t] = info
	return info, nil
}

func (c *Converter) calculateRecord(r *wit.Record) (Info, error) {
	fields := make([]types.Type, len(r.Fields))
	for i, f := range r.Fields {
		fi, err := c.calculate(f.Type)
		if err != nil {
			return Info{}, errors.New(errors.PhaseBuild, errors.KindInvalidData).
				Path(f.Name).Cause(err).Detail("record field").Build()
		}
		fields[i] = fi.Type
	}

	tup, err := layout.Record(c.target, fields...)
	if err != nil {
		return Info{}, err
	}
	offs := make(map[string]uint64, len(r.Fields))
	for i, f := range r.Fields {
		offs[f.Name] = tup.Fields[i].Offset.Bytes()
	}
	return c.info(tup, offs)
}

func (c *Converter) calculateTuple(t *wit.Tuple) (Info, error) {
	fields := make([]types.Type, len(t.Types))
	for i, elem := range t.Types {
		ei, err := c.calculate(elem)
		if err != nil {
			return Info{}, err
		}
		fields[i] = ei.Type
	}
	tup, err := layout.Record(c.target, fields...)
	if err != nil {
		return Info{}, err
	}
	return c.info(tup, nil)
}

func (c *Converter) calculateVariant(v *wit.Variant) (Info, error) {
	payloads := make([]wit.Type, len(v.Cases))
	for i, cs := range v.Cases {
		payloads[i] = cs.Type
	}
	return c.tagged(payloads)
}

// tagged lays out cases as a tagged enum; nil entries carry no payload.
func (c *Converter) tagged(cases []wit.Type) (Info, error) {
	payloads := make([]types.Type, len(cases))
	for i, cs := range cases {
		if cs == nil {
			continue
		}
		pi, err := c.calculate(cs)
		if err != nil {
			return Info{}, err
		}
		payloads[i] = pi.Type
	}
	e, err := layout.TaggedEnum(c.target, payloads...)
	if err != nil {
		return Info{}, err
	}
	return c.info(e, nil)
}

func (c *Converter) info(t types.Type, offs map[string]uint64) (Info, error) {
	li, err := c.calc.Calculate(t)
	if err != nil {
		return Info{}, err
	}
	size := ptr.ExpectSized(li.Size, "WIT value")
	return Info{
		Type:      t,
		FieldOffs: offs,
		Size:      size.Bytes(),
		Align:     li.Align.Bytes(),
	}, nil
}

func elementPtr() types.Type {
	return types.Ptr{PtrType: ptr.Raw{Meta: ptr.MetaElementCount}}
}

func flagsType(n int) types.Type {
	switch {
	case n == 0:
		return &types.Tuple{Align: mem.AlignOne}
	case n <= 8:
		return types.Int{IntType: mem.U8}
	case n <= 16:
		return types.Int{IntType: mem.U16}
	case n <= 32:
		return types.Int{IntType: mem.U32}
	case n <= 64:
		return types.Int{IntType: mem.U64}
	}
	// past 64 flags: one u32 per 32 flags
	return &types.Array{Elem: types.Int{IntType: mem.U32}, Count: uint64((n + 31) / 32)}
}
