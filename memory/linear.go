package memory

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/machine-layout/errors"
)

// Linear is a standalone linear memory.
type Linear struct {
	*Wrapper
	runtime wazero.Runtime
}

// New instantiates a memory of the given initial page count.
func New(ctx context.Context, pages uint32) (*Linear, error) {
	rt := wazero.NewRuntime(ctx)

	mod, err := rt.Instantiate(ctx, memoryModule(pages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("instantiate memory module", err)
	}
	w := Wrap(mod.ExportedMemory("memory"))
	if w == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "export", "memory")
	}
	return &Linear{Wrapper: w, runtime: rt}, nil
}

// Close releases the runtime and its memory.
func (l *Linear) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// memoryModule encodes a module exporting one memory with min pages and
// no maximum.
func memoryModule(pages uint32) []byte {
	limits := append([]byte{0x00}, uleb128(pages)...)
	memSection := append([]byte{0x01}, limits...)

	bin := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}
	bin = append(bin, 0x05, byte(len(memSection)))
	bin = append(bin, memSection...)
	bin = append(bin,
		0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
		0x06, 'm', 'e', 'm', 'o', 'r', 'y',
		0x02, 0x00, // kind: memory, index 0
	)
	return bin
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
