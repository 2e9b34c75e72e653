// Package layout computes the size and alignment of machine types.
//
// # Layout Rules
//
//   - Int: declared size; alignment is the natural alignment capped at the
//     target's IntMaxAlign
//   - Bool: one byte, alignment one
//   - Ptr: one pointer word, or two when the pointer carries metadata
//   - Tuple, Union, Enum: the size and alignment stored in the type
//   - Array: element size times count; element alignment
//   - Slice, TraitObject: unsized, resolved later from pointer metadata
//
// SizeOf returns a ptr.SizeStrategy rather than a number so unsized types are
// described by how their size is obtained.
//
// # Building types
//
// Record, UnionOf, TaggedEnum, NicheOption and WithOverflow lay out new
// aggregates the way a compiler would, and Check verifies the
// well-formedness of any type, including hand-built ones.
//
// # Usage
//
//	calc := layout.NewCalculator(target.Default())
//	info, err := calc.Calculate(t)
//	// info.Size, info.Align available
package layout
