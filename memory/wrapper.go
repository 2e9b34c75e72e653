package memory

import (
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/machine-layout/errors"
)

// PageSize is the size of a wasm memory page.
const PageSize = 65536

// Wrapper adapts wazero api.Memory to machinelayout.Memory.
type Wrapper struct {
	Mem api.Memory
}

// Wrap returns nil for a nil memory.
func Wrap(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Read copies length bytes at offset.
func (m *Wrapper) Read(offset, length uint64) ([]byte, error) {
	if offset > math.MaxUint32 || length > math.MaxUint32 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset, length, m.Size())
	}
	data, ok := m.Mem.Read(uint32(offset), uint32(length))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset, length, m.Size())
	}
	// Read returns a view; callers keep the bytes past later writes.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores data at offset.
func (m *Wrapper) Write(offset uint64, data []byte) error {
	if offset > math.MaxUint32 || !m.Mem.Write(uint32(offset), data) {
		return errors.OutOfBounds(errors.PhaseDecode, nil, offset, uint64(len(data)), m.Size())
	}
	return nil
}

// Size is the current memory size in bytes.
func (m *Wrapper) Size() uint64 {
	return uint64(m.Mem.Size())
}

// Grow adds pages and returns the previous size in pages.
func (m *Wrapper) Grow(pages uint32) (uint32, error) {
	prev, ok := m.Mem.Grow(pages)
	if !ok {
		return 0, errors.InvalidInput(errors.PhaseLoad, "memory cannot grow by the requested pages")
	}
	return prev, nil
}
