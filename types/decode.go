package types

import (
	"math/big"

	"go.uber.org/zap"

	machinelayout "github.com/wippyai/machine-layout"
	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/mem"
)

// maxDecodeSteps bounds evaluation; well-formed trees are acyclic and far
// shallower.
const maxDecodeSteps = 1 << 16

// TagReader reads an integer of type ty at offset within an enum value.
type TagReader interface {
	ReadTag(offset mem.Offset, ty mem.IntType) (*big.Int, error)
}

// TagReaderFunc adapts a function to TagReader.
type TagReaderFunc func(offset mem.Offset, ty mem.IntType) (*big.Int, error)

func (f TagReaderFunc) ReadTag(offset mem.Offset, ty mem.IntType) (*big.Int, error) {
	return f(offset, ty)
}

// Decode evaluates d against the tag bytes exposed by r and returns the
// discriminant. Reaching Invalid returns an undefined-behavior error.
func Decode(d Discriminator, r TagReader) (*big.Int, error) {
	for step := 0; step < maxDecodeSteps; step++ {
		switch node := d.(type) {
		case Known:
			return new(big.Int).Set(node.Value), nil
		case Invalid:
			Logger().Debug("tag encodes no variant")
			return nil, errors.UndefinedBehavior(errors.PhaseDecode, "tag bytes encode no valid discriminant")
		case *Branch:
			v, err := r.ReadTag(node.Offset, node.ValueType)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err,
					"read "+node.ValueType.String()+" tag at offset "+node.Offset.String())
			}
			Logger().Debug("discriminator branch",
				zap.Uint64("offset", node.Offset.Bytes()),
				zap.Stringer("type", node.ValueType),
				zap.Stringer("value", v))
			d = node.Next(v)
		default:
			errors.Violation("discriminator node %T", d)
		}
	}
	errors.Violation("discriminator did not terminate within %d steps", maxDecodeSteps)
	return nil, nil
}

// DecodeEnum decodes the discriminant of e and returns its variant.
func DecodeEnum(e *Enum, r TagReader) (Variant, error) {
	d, err := Decode(e.Discriminator, r)
	if err != nil {
		return Variant{}, err
	}
	v, ok := e.Variant(d)
	if !ok {
		errors.Violation("discriminator of %s yields %s, which is not a variant", e, d)
	}
	return v, nil
}

// WriteTags stores v's tagger entries into buf, the enum's representation.
func WriteTags(v Variant, buf []byte, endian mem.Endianness) error {
	for _, off := range v.Tagger.Offsets() {
		tag := v.Tagger[off]
		enc, err := tag.Ty.Encode(tag.Value, endian)
		if err != nil {
			return err
		}
		end, err := off.Add(tag.Ty.Size)
		if err != nil || end.Bytes() > uint64(len(buf)) {
			return errors.OutOfBounds(errors.PhaseDecode, nil, off.Bytes(), tag.Ty.Size.Bytes(), uint64(len(buf)))
		}
		copy(buf[off.Bytes():end.Bytes()], enc)
	}
	return nil
}

// BytesTagReader reads tags from an in-memory enum representation.
type BytesTagReader struct {
	Bytes  []byte
	Endian mem.Endianness
}

func (r BytesTagReader) ReadTag(offset mem.Offset, ty mem.IntType) (*big.Int, error) {
	end, err := offset.Add(ty.Size)
	if err != nil || end.Bytes() > uint64(len(r.Bytes)) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset.Bytes(), ty.Size.Bytes(), uint64(len(r.Bytes)))
	}
	return ty.Decode(r.Bytes[offset.Bytes():end.Bytes()], r.Endian)
}

// MemoryTagReader reads tags of an enum stored at Base in m.
type MemoryTagReader struct {
	Mem    machinelayout.Memory
	Base   uint64
	Endian mem.Endianness
}

func (r MemoryTagReader) ReadTag(offset mem.Offset, ty mem.IntType) (*big.Int, error) {
	addr, err := mem.SizeFromBytes(r.Base).Add(offset)
	if err != nil {
		return nil, err
	}
	b, err := r.Mem.Read(addr.Bytes(), ty.Size.Bytes())
	if err != nil {
		return nil, err
	}
	return ty.Decode(b, r.Endian)
}
