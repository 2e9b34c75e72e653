package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/report"
	"github.com/wippyai/machine-layout/target"
)

func newSizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "size [type...]",
		Short: "Show size, alignment and field offsets",
		Long: `Show the layout of the named types, or of every type in the
description when no names are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.names(args)
			if err != nil {
				return err
			}
			entries := make([]report.Entry, 0, len(names))
			for _, name := range names {
				t, err := a.lookup(name)
				if err != nil {
					return err
				}
				e, err := report.Describe(name, t, a.calc)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				entries = append(entries, e)
			}
			return report.Write(cmd.OutOrStdout(), entries, a.format)
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that every described type is well formed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := a.names(nil)
			if err != nil {
				return err
			}
			for _, name := range names {
				t, _ := a.set.Lookup(name)
				if err := layout.Check(t, a.tgt); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d types well formed for %s\n", len(names), a.tgt.Name)
			return nil
		},
	}
}

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List target presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"name", "ptr size", "ptr align", "int max align", "endian", ""})

			for _, name := range target.Names() {
				p, err := target.Preset(name)
				if err != nil {
					return err
				}
				mark := ""
				if name == a.tgt.Name {
					mark = "*"
				}
				t.AppendRow(table.Row{p.Name, p.PtrSize.Bytes(), p.PtrAlign.Bytes(), p.IntMaxAlign.Bytes(), p.Endian, mark})
			}
			t.Render()
			return nil
		},
	}
}
