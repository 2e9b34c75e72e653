package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/machine-layout/report"
)

const sampleTypes = `
target: x86_64
vtables:
  debug_u32: {size: 4, align: 4, methods: [fmt]}
types:
  pair: {tuple: [u8, u32]}
  str: {ref: {slice: u8}}
  u8s: {slice: u8}
  dynobj: {dyn: Debug}
  flag: {enum: [null, null]}
  opt: {option: u32}
`

func writeTypes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTypes), 0o600))
	return path
}

// execute runs the CLI with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSizeCommand(t *testing.T) {
	types := writeTypes(t)

	out, err := execute(t, "--types", types, "size", "pair", "str")
	require.NoError(t, err)
	assert.Contains(t, out, "pair")
	assert.Contains(t, out, "@4 u32")
	assert.Contains(t, out, "str")

	out, err = execute(t, "--types", types, "-o", "json", "size")
	require.NoError(t, err)
	var entries []report.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 6)
	assert.Equal(t, "pair", entries[0].Name)
	assert.Equal(t, "8", entries[0].Size)
	assert.Equal(t, "16", entries[1].Size)
}

func TestTargetOverride(t *testing.T) {
	types := writeTypes(t)

	out, err := execute(t, "--types", types, "--target", "wasm32", "-o", "json", "size", "str")
	require.NoError(t, err)
	var entries []report.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "8", entries[0].Size)
	assert.Equal(t, uint64(4), entries[0].Align)
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "--types", writeTypes(t), "check")
	require.NoError(t, err)
	assert.Equal(t, "6 types well formed for x86_64\n", out)
}

func TestDecodeCommand(t *testing.T) {
	types := writeTypes(t)

	out, err := execute(t, "--types", types, "decode", "flag", "01")
	require.NoError(t, err)
	assert.Contains(t, out, "variant 1")

	out, err = execute(t, "--types", types, "decode", "opt", "0x01000000 2a000000")
	require.NoError(t, err)
	assert.Contains(t, out, "variant 1")

	out, err = execute(t, "--types", types, "decode", "--at", "0x10008", "opt", "00000000ffffffff")
	require.NoError(t, err)
	assert.Contains(t, out, "variant 0")

	out, err = execute(t, "--types", types, "decode", "flag", "07")
	assert.ErrorIs(t, err, errUB)
	assert.Contains(t, out, "undefined behavior")

	_, err = execute(t, "--types", types, "decode", "pair", "00")
	assert.ErrorContains(t, err, "not an enum")

	_, err = execute(t, "--types", types, "decode", "flag", "zz")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	types := writeTypes(t)

	out, err := execute(t, "--types", types, "resolve", "u8s", "--len", "12")
	require.NoError(t, err)
	assert.Equal(t, "u8s: 12 bytes, align 1\n", out)

	out, err = execute(t, "--types", types, "resolve", "dynobj", "--vtable", "debug_u32")
	require.NoError(t, err)
	assert.Contains(t, out, "4 bytes, align 8")

	out, err = execute(t, "--types", types, "resolve", "dynobj", "--vtable", "gone")
	assert.ErrorIs(t, err, errUB)
	assert.Contains(t, out, "not live")

	_, err = execute(t, "--types", types, "resolve", "u8s")
	assert.ErrorContains(t, err, "pass --len")
}

func TestDerefCommand(t *testing.T) {
	types := writeTypes(t)

	out, err := execute(t, "--types", types, "deref", "str", "--addr", "0x1000", "--len", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "access covers 3 bytes")

	out, err = execute(t, "--types", types, "deref", "str", "--addr", "0", "--len", "3")
	assert.ErrorIs(t, err, errUB)
	assert.Contains(t, out, "null")

	out, err = execute(t, "--types", types, "deref", "str", "--addr", "0x1000", "--len", "3", "--no-provenance")
	assert.ErrorIs(t, err, errUB)
	assert.Contains(t, out, "provenance")

	out, err = execute(t, "--types", types, "deref", "str", "--addr", "0x1000", "--len", "0", "--no-provenance")
	require.NoError(t, err)
	assert.Contains(t, out, "covers 0 bytes")

	_, err = execute(t, "--types", types, "deref", "str", "--addr", "0x1000")
	assert.ErrorContains(t, err, "pass --len")

	_, err = execute(t, "--types", types, "deref", "pair")
	assert.ErrorContains(t, err, "not a pointer type")
}

func TestTargetsCommand(t *testing.T) {
	out, err := execute(t, "targets")
	require.NoError(t, err)
	for _, name := range []string{"x86_64", "wasm32", "avr", "s390x"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "*")
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "size")
	assert.ErrorContains(t, err, "pass --types")

	_, err = execute(t, "-o", "jsno", "targets")
	assert.ErrorContains(t, err, "did you mean json?")

	_, err = execute(t, "--types", writeTypes(t), "size", "pari")
	assert.ErrorContains(t, err, "did you mean pair?")

	_, err = execute(t, "--target", "x86", "targets")
	assert.Error(t, err)

	// Test output is never a terminal.
	_, err = execute(t, "--types", writeTypes(t), "explore")
	assert.ErrorContains(t, err, "needs a terminal")
}
