package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/memory"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

func newDecodeCmd(a *app) *cobra.Command {
	var at uint64

	cmd := &cobra.Command{
		Use:   "decode <enum> <hex>",
		Short: "Decode which variant an enum value holds",
		Long: `Decode the discriminant of an enum from its bytes, given in hex.

With --at the bytes are first stored at that address of a wasm linear
memory and the tags are read back from there.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			e, ok := t.(*types.Enum)
			if !ok {
				return fmt.Errorf("%s is not an enum: %s", args[0], t)
			}
			data, err := parseHex(args[1])
			if err != nil {
				return err
			}

			var r types.TagReader = types.BytesTagReader{Bytes: data, Endian: a.tgt.Endian}
			if cmd.Flags().Changed("at") {
				lin, err := stage(cmd.Context(), at, data)
				if err != nil {
					return err
				}
				defer lin.Close(context.Background())
				r = types.MemoryTagReader{Mem: lin, Base: at, Endian: a.tgt.Endian}
			}

			v, err := types.DecodeEnum(e, r)
			if err != nil {
				return reportUB(cmd.OutOrStdout(), err)
			}
			a.log.Debug("decoded", zap.String("type", args[0]), zap.Stringer("discriminant", v.Discriminant))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "variant %s: %s\n", v.Discriminant, v.Type)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&at, "at", 0, "stage the bytes at this linear memory address")
	return cmd
}

// stage copies data into a fresh linear memory large enough to hold it at addr.
func stage(ctx context.Context, addr uint64, data []byte) (*memory.Linear, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	end := addr + uint64(len(data))
	if end < addr || end > 1<<32 {
		return nil, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("address %#x does not fit a 32-bit linear memory", addr))
	}
	pages := uint32((end + memory.PageSize - 1) / memory.PageSize)
	if pages == 0 {
		pages = 1
	}
	lin, err := memory.New(ctx, pages)
	if err != nil {
		return nil, err
	}
	if err := lin.Write(addr, data); err != nil {
		_ = lin.Close(ctx)
		return nil, err
	}
	return lin, nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.ParseFailed("hex bytes", err)
	}
	return data, nil
}

// metaFlags collects pointer metadata from --len and --vtable.
type metaFlags struct {
	vtable string
	count  uint64
}

func (m *metaFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&m.count, "len", 0, "element count metadata")
	cmd.Flags().StringVar(&m.vtable, "vtable", "", "vtable metadata")
	cmd.MarkFlagsMutuallyExclusive("len", "vtable")
}

func (m *metaFlags) meta(cmd *cobra.Command) ptr.PointerMeta {
	switch {
	case cmd.Flags().Changed("len"):
		return ptr.ElementCount{Count: m.count}
	case cmd.Flags().Changed("vtable"):
		return ptr.VTablePointer{Name: ptr.VTableName(m.vtable)}
	}
	return nil
}

func metaMismatch(want ptr.PointerMetaKind) error {
	switch want {
	case ptr.MetaElementCount:
		return errors.InvalidInput(errors.PhaseResolve, "pointee is a slice; pass --len")
	case ptr.MetaVTablePointer:
		return errors.InvalidInput(errors.PhaseResolve, "pointee is a trait object; pass --vtable")
	}
	return errors.InvalidInput(errors.PhaseResolve, "pointee is sized; drop --len and --vtable")
}

func newResolveCmd(a *app) *cobra.Command {
	var mf metaFlags

	cmd := &cobra.Command{
		Use:   "resolve <type>",
		Short: "Compute the size of a value from pointer metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			info, err := a.calc.Calculate(t)
			if err != nil {
				return err
			}
			meta := mf.meta(cmd)
			if !info.Size.MetaKind().Matches(meta) {
				return metaMismatch(info.Size.MetaKind())
			}
			size, err := ptr.Compute(info.Size, meta, a.set.VTables)
			if err != nil {
				return reportUB(cmd.OutOrStdout(), err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s bytes, align %s\n", args[0], size, info.Align)
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func newDerefCmd(a *app) *cobra.Command {
	var (
		mf     metaFlags
		addr   string
		noProv bool
	)

	cmd := &cobra.Command{
		Use:   "deref <pointer-type>",
		Short: "Check that a pointer may be dereferenced",
		Long: `Check that a pointer of the given type, holding --addr and the given
metadata, may be dereferenced, and print how many bytes the access covers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			pt, ok := t.(types.Ptr)
			if !ok {
				return fmt.Errorf("%s is not a pointer type: %s", args[0], t)
			}
			a0, ok := new(big.Int).SetString(addr, 0)
			if !ok || a0.Sign() < 0 || a0.Cmp(a.tgt.AddressSpace()) >= 0 {
				return errors.InvalidInput(errors.PhaseValidate, fmt.Sprintf("address %q is not valid on %s", addr, a.tgt.Name))
			}

			meta := mf.meta(cmd)
			if !pt.MetaKind().Matches(meta) {
				return metaMismatch(pt.MetaKind())
			}

			thin := ptr.ThinPointer[string]{Addr: a0}
			if !noProv {
				alloc := "alloc"
				thin.Provenance = &alloc
			}
			p := thin.Widen(meta)

			size, err := ptr.CheckDeref(pt.PtrType, p, a.set.VTables, a.tgt)
			if err != nil {
				return reportUB(cmd.OutOrStdout(), err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, access covers %s bytes\n", p, size)
			return nil
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "0", "pointer address (decimal or 0x hex)")
	cmd.Flags().BoolVar(&noProv, "no-provenance", false, "pointer carries no provenance")
	return cmd
}

// reportUB prints modeled undefined behavior as a verdict. Other errors
// propagate.
func reportUB(w io.Writer, err error) error {
	if !errors.IsUB(err) {
		return err
	}
	_, _ = fmt.Fprintf(w, "undefined behavior: %v\n", err)
	return errUB
}

var errUB = fmt.Errorf("undefined behavior")
