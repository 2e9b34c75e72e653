// Package machinelayout models how values of a low-level systems language's
// abstract machine are laid out in memory.
//
// It covers the byte-level size and alignment of every value type, pointers
// carrying an address with optional provenance and metadata, and the
// recovery of enum discriminants from raw tag bytes.
//
// # Architecture Overview
//
//	machinelayout/      Root package with the read-only Memory interface
//	├── mem/            Size, Align, IntType and Target primitives
//	├── ptr/            Thin/wide pointers, metadata, pointee facts, vtables
//	├── types/          Type model, discriminator trees and tag decoding
//	├── layout/         Layout engine, well-formedness checks and builders
//	├── target/         Target presets and layered configuration loading
//	├── witlayout/      Types built from WIT (Component Model) definitions
//	├── typedesc/       YAML type-description documents
//	├── memory/         wazero-backed linear memory used as a tag source
//	├── report/         Layout reports as table, JSON, YAML or CBOR
//	├── errors/         Structured errors, UB findings, contract violations
//	└── cmd/mlayout/    Command-line tool and interactive explorer
//
// # Quick Start
//
//	tgt := target.Default()
//	pair, err := layout.Record(tgt, types.Int{IntType: mem.I32}, types.Bool{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	size, _ := layout.SizeOf(pair, tgt)   // Sized{8}
//	align := layout.AlignOf(pair, tgt)    // 4
//
// Resolve the size of an unsized pointee from pointer metadata:
//
//	strategy, _ := layout.SizeOf(&types.Slice{Elem: types.Int{IntType: mem.U16}}, tgt)
//	n, err := ptr.Compute(strategy, ptr.ElementCount{Count: 10}, nil) // 20
//
// Recover an enum discriminant from its tag bytes:
//
//	d, err := types.Decode(enum.Discriminator, types.BytesTagReader{Bytes: raw})
//	if errors.IsUB(err) {
//	    // the bytes encode no valid variant
//	}
//
// # Failure classes
//
// Undefined behavior of the modeled program (dangling vtables, invalid tags,
// invalid pointer addresses) is returned as an error for which errors.IsUB
// reports true. Misuse of this module by its caller panics with
// *errors.ContractViolation.
//
// # Concurrency
//
// Types, pointee facts, discriminator trees and vtables are immutable after
// construction and may be read from any number of goroutines. ptr.VTables is
// the one shared mutable table and synchronizes internally.
package machinelayout
