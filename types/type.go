package types

import (
	"fmt"
	"strings"

	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
)

// Type is one of Int, Bool, Ptr, *Tuple, *Array, *Slice, *Union, *Enum or TraitObject.
type Type interface {
	String() string
	isType()
}

// Int is an integer type.
type Int struct {
	mem.IntType
}

// Bool occupies one byte holding 0 or 1.
type Bool struct{}

// Ptr is a pointer type.
type Ptr struct {
	ptr.PtrType
}

// Field places a type at an offset within an aggregate.
type Field struct {
	Type   Type
	Offset mem.Offset
}

// End returns the offset one past the field's last byte.
func (f Field) End(size mem.Size) (mem.Size, error) {
	return f.Offset.Add(size)
}

// Tuple is a product type with explicit field offsets. Fields never overlap.
type Tuple struct {
	Fields []Field
	Size   mem.Size
	Align  mem.Align
}

// Array is Count consecutive elements of a sized type.
type Array struct {
	Elem  Type
	Count uint64
}

// Slice is a dynamically sized run of elements of a sized type.
type Slice struct {
	Elem Type
}

// Chunk is a half-open byte range [Offset, Offset+Size) of a union whose
// contents round-trip through encode/decode.
type Chunk struct {
	Offset mem.Offset
	Size   mem.Size
}

// End returns Offset+Size.
func (c Chunk) End() (mem.Size, error) {
	return c.Offset.Add(c.Size)
}

// Union overlaps its fields. Bytes outside every chunk behave like padding.
type Union struct {
	Fields []Field
	Chunks []Chunk
	Size   mem.Size
	Align  mem.Align
}

// Enum is a sum type whose active variant is recovered by Discriminator.
type Enum struct {
	Discriminator  Discriminator
	Variants       []Variant
	DiscriminantTy mem.IntType
	Size           mem.Size
	Align          mem.Align
}

// TraitObject is the unsized `dyn Trait` type.
type TraitObject struct {
	Trait string
}

func (Int) isType()         {}
func (Bool) isType()        {}
func (Ptr) isType()         {}
func (*Tuple) isType()      {}
func (*Array) isType()      {}
func (*Slice) isType()      {}
func (*Union) isType()      {}
func (*Enum) isType()       {}
func (TraitObject) isType() {}

func (Bool) String() string { return "bool" }

func (t *Tuple) String() string {
	return "(" + fieldList(t.Fields) + ")" + sizeSuffix(t.Size, t.Align)
}

func (a *Array) String() string {
	return fmt.Sprintf("[%s; %d]", a.Elem, a.Count)
}

func (s *Slice) String() string {
	return "[" + s.Elem.String() + "]"
}

func (u *Union) String() string {
	chunks := make([]string, len(u.Chunks))
	for i, c := range u.Chunks {
		chunks[i] = fmt.Sprintf("%s..%s", c.Offset, mustEnd(c))
	}
	return "union{" + fieldList(u.Fields) + "; chunks " + strings.Join(chunks, ", ") + "}" + sizeSuffix(u.Size, u.Align)
}

func (e *Enum) String() string {
	variants := make([]string, len(e.Variants))
	for i, v := range e.Variants {
		variants[i] = v.Discriminant.String() + ": " + v.Type.String()
	}
	return "enum<" + e.DiscriminantTy.String() + ">{" + strings.Join(variants, ", ") + "}" + sizeSuffix(e.Size, e.Align)
}

func (t TraitObject) String() string {
	if t.Trait == "" {
		return "dyn"
	}
	return "dyn " + t.Trait
}

func fieldList(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Offset.String() + ": " + f.Type.String()
	}
	return strings.Join(parts, ", ")
}

func sizeSuffix(size mem.Size, align mem.Align) string {
	return "[" + size.String() + "/" + align.String() + "]"
}

func mustEnd(c Chunk) string {
	end, err := c.End()
	if err != nil {
		return "overflow"
	}
	return end.String()
}
