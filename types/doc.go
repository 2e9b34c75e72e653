// Package types defines the closed set of value types of the abstract machine
// and the decision trees that recover enum discriminants from tag bytes.
//
// # Type variants
//
//   - Int, Bool, Ptr: scalars
//   - *Tuple, *Union, *Enum: aggregates whose size and alignment were frozen
//     when the type was built
//   - *Array: a fixed number of statically sized elements
//   - *Slice, TraitObject: dynamically sized; only usable behind pointers
//
// Aggregate variants are pointers so large type graphs are shared rather
// than copied. Types are never mutated after construction.
//
// # Discriminants
//
// An Enum's Discriminator is a tree of Known, Invalid and *Branch nodes. A
// branch reads an integer at an offset of the enum's representation and
// selects the child whose half-open interval contains it, or the fallback.
// Decode walks the tree against a TagReader; reaching Invalid is undefined
// behavior.
//
// Layout computation and well-formedness checks live in package layout.
package types
