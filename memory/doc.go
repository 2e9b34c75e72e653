// Package memory provides WebAssembly linear memory, backed by wazero, as a
// machinelayout.Memory.
//
// Linear owns a runtime hosting a single module that exports one memory.
// Wrapper adapts a memory exported by an existing module instance:
//
//	lin, err := memory.New(ctx, 1)
//	defer lin.Close(ctx)
//	_ = lin.Write(0x100, tagBytes)
//	r := types.MemoryTagReader{Mem: lin, Base: 0x100, Endian: mem.LittleEndian}
package memory
