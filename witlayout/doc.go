// Package witlayout maps Component Model (WIT) types onto the layout model.
//
// Each WIT type becomes a types.Type whose layout on the target equals the
// canonical ABI layout when the target is wasm32:
//
//	bool, u8..u64, s8..s64   -> Int / Bool
//	f32, char / f64          -> u32 / u64 (bit patterns)
//	string, list<T>          -> raw pointer with element-count metadata
//	record, tuple            -> Tuple via layout.Record
//	variant, enum, option,
//	result                   -> Enum via layout.TaggedEnum
//	flags                    -> u8/u16/u32/u64, or [u32; n] past 64 flags
//	own<T>, borrow<T>        -> u32 handle
//
// Type definitions are converted once per Converter and shared.
package witlayout
