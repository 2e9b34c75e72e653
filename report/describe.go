package report

import (
	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

// Entry is the layout of one named type.
type Entry struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     string    `json:"kind" yaml:"kind"`
	Type     string    `json:"type" yaml:"type"`
	Size     string    `json:"size" yaml:"size"`
	Align    uint64    `json:"align" yaml:"align"`
	Sized    bool      `json:"sized" yaml:"sized"`
	Data     *uint64   `json:"data_bytes,omitempty" yaml:"data_bytes,omitempty"`
	Fields   []Field   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Variants []Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// Field is one field of a tuple or union.
type Field struct {
	Offset uint64 `json:"offset" yaml:"offset"`
	Size   string `json:"size" yaml:"size"`
	Type   string `json:"type" yaml:"type"`
}

// Variant is one enum variant with the tags it writes.
type Variant struct {
	Discriminant string `json:"discriminant" yaml:"discriminant"`
	Type         string `json:"type" yaml:"type"`
	Tags         []Tag  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Tag is a tag written at Offset.
type Tag struct {
	Offset uint64 `json:"offset" yaml:"offset"`
	Type   string `json:"type" yaml:"type"`
	Value  string `json:"value" yaml:"value"`
}

// Describe computes the layout entry for t on the calculator's target.
func Describe(name string, t types.Type, calc *layout.Calculator) (Entry, error) {
	info, err := calc.Calculate(t)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		Name:  name,
		Kind:  kindOf(t),
		Type:  t.String(),
		Size:  info.Size.String(),
		Align: info.Align.Bytes(),
		Sized: ptr.IsSized(info.Size),
	}
	// Types past the mask cap are described without a data byte count.
	if e.Sized && info.Size.(ptr.Sized).Size.Bytes() <= layout.MaxMaskBytes {
		mask, err := layout.DataMask(t, calc.Target())
		if err != nil {
			return Entry{}, err
		}
		n := uint64(mask.Count())
		e.Data = &n
	}

	switch t := t.(type) {
	case *types.Tuple:
		e.Fields, err = fields(t.Fields, calc)
	case *types.Union:
		e.Fields, err = fields(t.Fields, calc)
	case *types.Enum:
		e.Variants = variants(t)
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func fields(fs []types.Field, calc *layout.Calculator) ([]Field, error) {
	out := make([]Field, len(fs))
	for i, f := range fs {
		info, err := calc.Calculate(f.Type)
		if err != nil {
			return nil, err
		}
		out[i] = Field{Offset: f.Offset.Bytes(), Size: info.Size.String(), Type: f.Type.String()}
	}
	return out, nil
}

func variants(e *types.Enum) []Variant {
	out := make([]Variant, len(e.Variants))
	for i, v := range e.Variants {
		out[i] = Variant{Discriminant: v.Discriminant.String(), Type: v.Type.String()}
		for _, off := range v.Tagger.Offsets() {
			tag := v.Tagger[off]
			out[i].Tags = append(out[i].Tags, Tag{
				Offset: off.Bytes(),
				Type:   tag.Ty.String(),
				Value:  tag.Value.String(),
			})
		}
	}
	return out
}

func kindOf(t types.Type) string {
	switch t.(type) {
	case types.Int:
		return "int"
	case types.Bool:
		return "bool"
	case types.Ptr:
		return "ptr"
	case *types.Tuple:
		return "tuple"
	case *types.Array:
		return "array"
	case *types.Slice:
		return "slice"
	case *types.Union:
		return "union"
	case *types.Enum:
		return "enum"
	case types.TraitObject:
		return "dyn"
	}
	return "unknown"
}
