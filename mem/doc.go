// Package mem defines the byte-level primitives every layout is built from.
//
//   - Size: a byte count whose arithmetic reports overflow instead of wrapping
//   - Align: a power-of-two byte count; the zero value is AlignOne
//   - IntType: signedness plus size, with bounds and an alignment capped by the target
//   - Target: the pointer and integer parameters of a hardware/ABI target
//
// All values are immutable and safe to share between goroutines.
package mem
