// Package ptr models pointers of the abstract machine and the static facts
// known about their pointees.
//
// A ThinPointer is an address plus optional provenance. The provenance type
// is a type parameter: its meaning belongs to an aliasing model outside this
// module. A Pointer adds optional metadata, either an element count for slice
// pointees or a vtable reference for trait-object pointees.
//
// SizeStrategy describes how the size of a pointee is determined and what
// metadata is needed to resolve it; Compute performs that resolution against
// a vtable table owned by the surrounding machine.
//
// # Metadata
//
// VTablePointer metadata carries only the vtable's name, not a full thin
// pointer with provenance.
package ptr
