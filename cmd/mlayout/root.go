package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/mem"
	"github.com/wippyai/machine-layout/report"
	"github.com/wippyai/machine-layout/target"
	"github.com/wippyai/machine-layout/typedesc"
	"github.com/wippyai/machine-layout/types"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds state shared by subcommands after flags are parsed.
type app struct {
	set        *typedesc.Set
	calc       *layout.Calculator
	log        *zap.Logger
	typesFile  string
	targetFile string
	format     report.Format
	tgt        mem.Target
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var format string

	rootCmd := &cobra.Command{
		Use:   "mlayout",
		Short: "Inspect machine-level type layouts",
		Long: `mlayout computes sizes, alignments and enum tag encodings of the
types in a YAML type description, for a configurable target.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			a.format = f
			return a.setup(cmd.Root().PersistentFlags())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.typesFile, "types", "", "type description file (YAML)")
	pf.StringVar(&a.targetFile, "target-file", "", "target configuration file (YAML)")
	pf.StringVarP(&format, "format", "o", "table", "output format (table, json, yaml, cbor)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log layout and decode steps")
	target.AddFlags(pf)

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml", "cbor"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return target.Names(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newSizeCmd(a),
		newCheckCmd(a),
		newDecodeCmd(a),
		newResolveCmd(a),
		newDerefCmd(a),
		newTargetsCmd(a),
		newExploreCmd(a),
	)

	return rootCmd
}

// setup builds the logger, resolves the target and loads the type set.
func (a *app) setup(flags *pflag.FlagSet) error {
	a.log = zap.NewNop()
	if a.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		a.log = l
	}
	layout.SetLogger(a.log.Named("layout"))
	types.SetLogger(a.log.Named("types"))

	tgt, err := target.Load(a.targetFile, flags)
	if err != nil {
		return err
	}
	a.tgt = tgt

	if a.typesFile != "" {
		opts := typedesc.Options{}
		if a.targetOverridden(flags) {
			opts.Target = &tgt
		}
		set, err := typedesc.ParseFile(a.typesFile, opts)
		if err != nil {
			return err
		}
		a.set = set
		a.tgt = set.Target
	}

	a.calc = layout.NewCalculator(a.tgt)
	a.log.Debug("target resolved", zap.Stringer("target", a.tgt))
	return nil
}

// targetOverridden reports whether the command line or environment chose a
// target, which then wins over the one named by the type description.
func (a *app) targetOverridden(flags *pflag.FlagSet) bool {
	if a.targetFile != "" {
		return true
	}
	for _, name := range []string{"target", "target-name", "ptr-size", "ptr-align", "int-max-align", "endian"} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, target.EnvPrefix) {
			return true
		}
	}
	return false
}

// lookup finds a named type, requiring --types.
func (a *app) lookup(name string) (types.Type, error) {
	if a.set == nil {
		return nil, fmt.Errorf("no type description loaded; pass --types")
	}
	return a.set.Lookup(name)
}

// names returns the requested names, or every type in document order.
func (a *app) names(args []string) ([]string, error) {
	if a.set == nil {
		return nil, fmt.Errorf("no type description loaded; pass --types")
	}
	if len(args) > 0 {
		return args, nil
	}
	return a.set.Order, nil
}
