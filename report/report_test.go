package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/ptr"
	"github.com/wippyai/machine-layout/types"
)

var test64 = mem.Target{
	Name:        "test64",
	PtrSize:     mem.SizeFromBytes(8),
	PtrAlign:    mem.MustAlign(8),
	IntMaxAlign: mem.MustAlign(8),
	Endian:      mem.LittleEndian,
}

func sampleEntries(t *testing.T) []Entry {
	t.Helper()
	calc := layout.NewCalculator(test64)

	pair, err := layout.Record(test64, types.Int{IntType: mem.U8}, types.Int{IntType: mem.U32})
	require.NoError(t, err)
	opt, err := layout.TaggedEnum(test64, nil, types.Int{IntType: mem.U16})
	require.NoError(t, err)
	bytesTy := &types.Slice{Elem: types.Int{IntType: mem.U8}}

	var entries []Entry
	for _, nt := range []struct {
		name string
		ty   types.Type
	}{{"pair", pair}, {"opt", opt}, {"bytes", bytesTy}} {
		e, err := Describe(nt.name, nt.ty, calc)
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func TestDescribe(t *testing.T) {
	entries := sampleEntries(t)

	pair := entries[0]
	assert.Equal(t, "tuple", pair.Kind)
	assert.Equal(t, "8", pair.Size)
	assert.Equal(t, uint64(4), pair.Align)
	require.NotNil(t, pair.Data)
	assert.Equal(t, uint64(5), *pair.Data)
	require.Len(t, pair.Fields, 2)
	assert.Equal(t, uint64(4), pair.Fields[1].Offset)

	opt := entries[1]
	assert.Equal(t, "enum", opt.Kind)
	require.Len(t, opt.Variants, 2)
	require.Len(t, opt.Variants[1].Tags, 1)
	assert.Equal(t, "1", opt.Variants[1].Tags[0].Value)
	assert.Equal(t, uint64(0), opt.Variants[1].Tags[0].Offset)

	slice := entries[2]
	assert.False(t, slice.Sized)
	assert.Nil(t, slice.Data)
}

func TestDescribeTraitObject(t *testing.T) {
	e, err := Describe("obj", types.Ptr{PtrType: ptr.Raw{Meta: ptr.MetaVTablePointer}}, layout.NewCalculator(test64))
	require.NoError(t, err)
	assert.Equal(t, "16", e.Size)

	e, err = Describe("dyn", types.TraitObject{Trait: "Debug"}, layout.NewCalculator(test64))
	require.NoError(t, err)
	assert.Equal(t, "dyn", e.Kind)
	assert.False(t, e.Sized)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"JSON", FormatJSON},
		{"yml", FormatYAML},
		{"cbor", FormatCBOR},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("jsno")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean json?")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleEntries(t), FormatTable))
	out := buf.String()
	for _, want := range []string{"pair", "opt", "bytes", "@4 u32", "[u8]"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	require.NoError(t, Write(&buf, nil, FormatTable))
	assert.Equal(t, "(no types)\n", buf.String())
}

func TestWriteEncodings(t *testing.T) {
	entries := sampleEntries(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries, FormatJSON))
	var fromJSON []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, entries, fromJSON)

	buf.Reset()
	require.NoError(t, Write(&buf, entries, FormatYAML))
	assert.True(t, strings.Contains(buf.String(), "name: pair"))
	var fromYAML []Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, entries, fromYAML)

	buf.Reset()
	require.NoError(t, Write(&buf, entries, FormatCBOR))
	var fromCBOR []Entry
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &fromCBOR))
	assert.Equal(t, entries, fromCBOR)
}

func TestDescribeLargeArrayOmitsDataBytes(t *testing.T) {
	big := &types.Array{Elem: types.Int{IntType: mem.U8}, Count: layout.MaxMaskBytes * 2}
	e, err := Describe("blob", big, layout.NewCalculator(test64))
	require.NoError(t, err)
	assert.Equal(t, "33554432", e.Size)
	assert.True(t, e.Sized)
	assert.Nil(t, e.Data)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "data_bytes")
}
