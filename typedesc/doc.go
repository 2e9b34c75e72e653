// Package typedesc reads YAML documents describing named types and vtables.
//
// A document names an optional target preset, a set of vtables and a set of
// types. Type expressions refer to scalars or to other entries by name:
//
//	target: x86_64
//	vtables:
//	  debug_u32: {size: 4, align: 4, methods: [fmt]}
//	types:
//	  pair: {tuple: [u8, u32]}
//	  bytes: {array: u8, count: 16}
//	  str: {ref: {slice: u8}}
//	  maybe: {option: {box: pair}}
//	  shape: {enum: [null, pair, u64]}
//	  sum: {with_overflow: i32}
//	  handle: {wit: {result: {ok: u32, err: string}}}
//
// Tuples, unions and enums given as lists are laid out automatically. A
// mapping form spells out offsets, chunks, taggers and the discriminator
// tree explicitly. Every resolved type is checked with layout.Check.
package typedesc
