package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/wippyai/machine-layout/errors"
	"github.com/wippyai/machine-layout/internal/suggest"
)

// Format selects how Write renders entries.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCBOR  Format = "cbor"
)

var formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML), string(FormatCBOR)}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(s)
	switch name {
	case "", "text":
		return FormatTable, nil
	case "yml":
		return FormatYAML, nil
	}
	for _, f := range formats {
		if name == f {
			return Format(f), nil
		}
	}
	return "", errors.InvalidInput(errors.PhaseLoad,
		fmt.Sprintf("unknown format %q%s", s, suggest.Hint(name, formats)))
}

var cborEncMode = func() cbor.EncMode {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

// Write renders entries to w.
func Write(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		out, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case FormatCBOR:
		out, err := cborEncMode.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return writeTable(w, entries)
	}
}

func writeTable(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(no types)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"name", "size", "align", "data", "layout"})

	for _, e := range entries {
		data := "-"
		if e.Data != nil {
			data = fmt.Sprint(*e.Data)
		}
		t.AppendRow(table.Row{e.Name, e.Size, e.Align, data, detail(e)})
	}

	t.Render()
	return nil
}

// detail lists fields or variants one per line.
func detail(e Entry) string {
	var lines []string
	for _, f := range e.Fields {
		lines = append(lines, fmt.Sprintf("@%d %s (%s)", f.Offset, f.Type, f.Size))
	}
	for _, v := range e.Variants {
		line := v.Discriminant + " => " + v.Type
		for _, tag := range v.Tags {
			line += fmt.Sprintf(" [@%d %s=%s]", tag.Offset, tag.Type, tag.Value)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return e.Type
	}
	return strings.Join(lines, "\n")
}
